package handlers

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/backend"
	applog "storefront/internal/log"
)

const (
	msgProxyFailed        = "Internal Server Error"
	msgReferralFailed     = "Internal server error"
	msgReferralLinkFailed = "Failed to create referral link"
)

var errNotJSON = errors.New("backend answered with a non-JSON body")

// ProxyHandler relays a few backend endpoints for browsers that cannot reach
// the backend directly.
type ProxyHandler struct {
	API *backend.Client
}

func sendJSON(c *fiber.Ctx, status int, raw []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(status).Send(raw)
}

// AuthUser relays GET and PUT of the current user's profile. The caller's
// Authorization header wins; without one the session's token is used.
func (h *ProxyHandler) AuthUser(c *fiber.Ctx) error {
	authz := c.Get(fiber.HeaderAuthorization)
	if authz == "" {
		if tok := current(c).Auth.Token(); tok != "" {
			authz = "Bearer " + tok
		}
	}
	var body []byte
	if c.Method() == fiber.MethodPut {
		body = c.Body()
		if !json.Valid(body) {
			applog.Warn(c, "proxy.auth_user.bad_body", errNotJSON, nil)
			return jsonError(c, fiber.StatusInternalServerError, msgProxyFailed)
		}
	}

	status, raw, err := h.API.Forward(c.UserContext(), c.Method(), h.API.AuthUserURL(), authz, body)
	if err == nil && !json.Valid(raw) {
		err = errNotJSON
	}
	if err != nil {
		applog.Error(c, "proxy.auth_user.fail", err, map[string]any{"upstream_status": status})
		return jsonError(c, fiber.StatusInternalServerError, msgProxyFailed)
	}
	return sendJSON(c, status, raw)
}

type referralLinkRequest struct {
	ProductID    *int64   `json:"product_id"`
	ProductTitle any      `json:"product_title,omitempty"`
	ProductPrice *float64 `json:"product_price"`
}

// CreateReferralLink asks the backend for a referral link to one product on
// behalf of a logged-in seller.
func (h *ProxyHandler) CreateReferralLink(c *fiber.Ctx) error {
	authz := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(authz, "Bearer ") {
		applog.Security(c, "referral.link.unauthorized", nil)
		return jsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	var in struct {
		ProductID    any `json:"product_id"`
		ProductTitle any `json:"product_title"`
		ProductPrice any `json:"product_price"`
	}
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		applog.Warn(c, "referral.link.bad_body", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, msgReferralFailed)
	}
	payload, err := json.Marshal(referralLinkRequest{
		ProductID:    leadingInt(in.ProductID),
		ProductTitle: in.ProductTitle,
		ProductPrice: leadingFloat(in.ProductPrice),
	})
	if err != nil {
		return err
	}

	status, raw, err := h.API.Forward(c.UserContext(), fiber.MethodPost, h.API.ReferralLinkURL(), authz, payload)
	if err != nil {
		applog.Error(c, "referral.link.fail", err, nil)
		return jsonError(c, fiber.StatusInternalServerError, msgReferralFailed)
	}
	if status < 200 || status > 299 {
		var e struct {
			Detail any `json:"detail"`
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			applog.Error(c, "referral.link.fail", err, map[string]any{"upstream_status": status})
			return jsonError(c, fiber.StatusInternalServerError, msgReferralFailed)
		}
		applog.Warn(c, "referral.link.rejected", nil, map[string]any{"upstream_status": status})
		if falsy(e.Detail) {
			return jsonError(c, status, msgReferralLinkFailed)
		}
		return c.Status(status).JSON(fiber.Map{"error": e.Detail})
	}
	if !json.Valid(raw) {
		applog.Error(c, "referral.link.fail", errNotJSON, nil)
		return jsonError(c, fiber.StatusInternalServerError, msgReferralFailed)
	}
	applog.Audit(c, "referral.link.created", nil)
	return sendJSON(c, fiber.StatusOK, raw)
}

// falsy reports whether a decoded JSON value counts as absent: null, false,
// 0 or "". Objects and arrays always count as present.
func falsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case string:
		return x == ""
	case float64:
		return x == 0
	}
	return false
}

var (
	reLeadingInt   = regexp.MustCompile(`^[+-]?\d+`)
	reLeadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// numberText renders a JSON scalar the way it is parsed below; anything else
// yields "".
func numberText(v any) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case string:
		return strings.TrimSpace(t)
	}
	return ""
}

// leadingInt reads the integer at the start of v ("12abc" is 12, 9.7 is 9).
// nil means no number was found.
func leadingInt(v any) *int64 {
	m := reLeadingInt.FindString(numberText(v))
	if m == "" {
		return nil
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func leadingFloat(v any) *float64 {
	m := reLeadingFloat.FindString(numberText(v))
	if m == "" {
		return nil
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &f
}
