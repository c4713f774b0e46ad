// Package backend talks to the marketplace backend that owns auth, catalog,
// orders and referral accounting.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"storefront/internal/photos"
)

const maxResponseBody = 4 << 20

// ErrUnauthorized matches a *StatusError carrying 401 or 403.
var ErrUnauthorized = errors.New("backend: unauthorized")

// StatusError is a non-2xx backend answer.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend: status %d", e.Status)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && (e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden)
}

type Options struct {
	// BaseURL serves the current-user endpoint.
	BaseURL string
	// APIURL serves everything else; defaults to BaseURL.
	APIURL  string
	Timeout time.Duration
	Photos  photos.Resolver
	// Transport is wrapped with otelhttp; nil means a pooled default.
	Transport http.RoundTripper
}

type Client struct {
	baseURL string
	apiURL  string
	photos  photos.Resolver
	http    *http.Client
}

func New(o Options) *Client {
	transport := o.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	api := o.APIURL
	if api == "" {
		api = o.BaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(o.BaseURL, "/"),
		apiURL:  strings.TrimRight(api, "/"),
		photos:  o.Photos,
		http: &http.Client{
			Transport: otelhttp.NewTransport(transport),
			Timeout:   timeout,
		},
	}
}

// do sends a JSON request and decodes a JSON answer into out (when non-nil).
func (c *Client) do(ctx context.Context, method, url, token string, in, out any, header http.Header) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", url, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// Forward relays one request and hands back the status and raw body. err is
// set only when no answer arrived.
func (c *Client) Forward(ctx context.Context, method, url, authorization string, body []byte) (int, []byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return 0, nil, fmt.Errorf("read %s: %w", url, err)
	}
	return resp.StatusCode, raw, nil
}

// errorMessage pulls the human readable text out of a backend error body.
func errorMessage(raw []byte) string {
	var body struct {
		Error  any `json:"error"`
		Detail any `json:"detail"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return ""
	}
	for _, v := range []any{body.Error, body.Detail} {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Message returns the backend's text for err, or fallback.
func Message(err error, fallback string) string {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}

func (c *Client) AuthUserURL() string { return c.baseURL + "/api/auth/user/" }

func (c *Client) ReferralLinkURL() string { return c.apiURL + "/api/referral-links/create/" }

func (c *Client) referralVisitsURL() string { return c.apiURL + "/api/referral-visits/" }
