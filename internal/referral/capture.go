// Package referral captures referral-link attribution into cookies and
// reports referral visits to the backend.
package referral

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
)

// Cookie names. The query parameters use the same names, except ref.
const (
	CookieCode       = "referral_code"
	CookieSource     = "utm_source"
	CookieMedium     = "utm_medium"
	CookieCampaign   = "utm_campaign"
	CookieTerm       = "utm_term"
	CookieContent    = "utm_content"
	CookieFirstVisit = "referral_first_visit"
)

const (
	QueryRef       = "ref"
	SourceReferral = "referral"
	CookieMaxAge   = 30 * 24 * 60 * 60

	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
	localCaptured   = "referral.captured"
)

// excluded path prefixes, matched after the leading slash.
var excluded = []string{"api", "_next/static", "_next/image", "favicon.ico"}

func skipped(path string) bool {
	p := strings.TrimPrefix(path, "/")
	for _, pre := range excluded {
		if strings.HasPrefix(p, pre) {
			return true
		}
	}
	return false
}

type CaptureConfig struct {
	// Secure marks the cookies Secure; set in production.
	Secure bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// Capture writes attribution cookies when a request carries ref together with
// utm_source=referral. Other requests pass through untouched; cookies already
// held by the browser are never read here.
func Capture(cfg CaptureConfig) fiber.Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return func(c *fiber.Ctx) error {
		if skipped(c.Path()) {
			return c.Next()
		}
		ref := c.Query(QueryRef)
		if ref == "" || c.Query(CookieSource) != SourceReferral {
			return c.Next()
		}

		a := domain.Referral{
			Code:        strings.Clone(ref),
			UTMSource:   SourceReferral,
			UTMMedium:   strings.Clone(c.Query(CookieMedium)),
			UTMCampaign: strings.Clone(c.Query(CookieCampaign)),
			UTMTerm:     strings.Clone(c.Query(CookieTerm)),
			UTMContent:  strings.Clone(c.Query(CookieContent)),
			FirstVisit:  now().UTC(),
		}
		set := func(name, value string) {
			if value == "" {
				return
			}
			c.Cookie(&fiber.Cookie{
				Name:     name,
				Value:    value,
				Path:     "/",
				MaxAge:   CookieMaxAge,
				HTTPOnly: false,
				Secure:   cfg.Secure,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		set(CookieCode, a.Code)
		set(CookieSource, a.UTMSource)
		set(CookieMedium, a.UTMMedium)
		set(CookieCampaign, a.UTMCampaign)
		set(CookieTerm, a.UTMTerm)
		set(CookieContent, a.UTMContent)
		set(CookieFirstVisit, a.FirstVisit.Format(timestampLayout))

		c.Locals(localCaptured, a)
		applog.Info(c, "referral.captured", map[string]any{"code": a.Code, "campaign": a.UTMCampaign})
		return c.Next()
	}
}

// Attribution returns what the browser will hold after this response: the
// request's cookies overlaid with anything Capture wrote during the request.
func Attribution(c *fiber.Ctx) domain.Referral {
	a := domain.Referral{
		Code:        strings.Clone(c.Cookies(CookieCode)),
		UTMSource:   strings.Clone(c.Cookies(CookieSource)),
		UTMMedium:   strings.Clone(c.Cookies(CookieMedium)),
		UTMCampaign: strings.Clone(c.Cookies(CookieCampaign)),
		UTMTerm:     strings.Clone(c.Cookies(CookieTerm)),
		UTMContent:  strings.Clone(c.Cookies(CookieContent)),
	}
	if t, err := time.Parse(time.RFC3339, c.Cookies(CookieFirstVisit)); err == nil {
		a.FirstVisit = t
	}
	if captured, ok := c.Locals(localCaptured).(domain.Referral); ok {
		a.Code, a.UTMSource, a.FirstVisit = captured.Code, captured.UTMSource, captured.FirstVisit
		if captured.UTMMedium != "" {
			a.UTMMedium = captured.UTMMedium
		}
		if captured.UTMCampaign != "" {
			a.UTMCampaign = captured.UTMCampaign
		}
		if captured.UTMTerm != "" {
			a.UTMTerm = captured.UTMTerm
		}
		if captured.UTMContent != "" {
			a.UTMContent = captured.UTMContent
		}
	}
	return a
}

// Qualifies reports whether a should be sent to the backend.
func Qualifies(a domain.Referral) bool {
	return a.Code != "" && a.UTMSource == SourceReferral
}
