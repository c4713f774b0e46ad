package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	applog "storefront/internal/log"
	"storefront/internal/session"
)

const (
	cookieSID    = "sid"
	sidMaxAge    = 30 * 24 * 60 * 60
	localSession = "session"
)

// ensureSID returns the visitor's session id, issuing a new cookie when the
// request has none or a malformed one.
func ensureSID(c *fiber.Ctx, secure bool) string {
	if id, err := uuid.Parse(c.Cookies(cookieSID)); err == nil {
		return id.String()
	}
	sid := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     cookieSID,
		Value:    sid,
		Path:     "/",
		MaxAge:   sidMaxAge,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   secure,
	})
	return sid
}

// Sessions attaches the visitor's session to the request.
func Sessions(reg *session.Registry, secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := ensureSID(c, secure)
		c.Locals(applog.LocalSID, sid)
		c.Locals(localSession, reg.Get(c.UserContext(), sid))
		return c.Next()
	}
}

func current(c *fiber.Ctx) *session.Session {
	s, _ := c.Locals(localSession).(*session.Session)
	return s
}
