package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/auth"
	"storefront/internal/backend"
	"storefront/internal/log"
	"storefront/internal/validate"
)

const msgBadCredentials = "Invalid username or password"

type AuthHandler struct{}

type sessionResponse struct {
	auth.Snapshot
	LoggedIn      bool `json:"loggedIn"`
	CartCount     int  `json:"cartCount"`
	WishlistCount int  `json:"wishlistCount"`
}

// Session reports who is logged in, plus the header counters.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	sess := current(c)
	snap := sess.Auth.Snapshot()
	return c.JSON(sessionResponse{
		Snapshot:      snap,
		LoggedIn:      snap.LoggedIn(),
		CartCount:     sess.Cart.ItemCount(),
		WishlistCount: sess.Wishlist.ItemCount(),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	a := current(c).Auth
	username, ok := validate.Username(in.Username)
	if !ok || !validate.Password(in.Password) {
		log.Security(c, "auth.login.fail", map[string]any{"reason": "bad_format"})
		a.Reject(msgBadCredentials)
		return jsonError(c, fiber.StatusUnauthorized, msgBadCredentials)
	}

	if !a.Login(c.UserContext(), username, in.Password) {
		log.Security(c, "auth.login.fail", map[string]any{"username": username})
		return jsonError(c, fiber.StatusUnauthorized, a.Snapshot().Error)
	}
	log.Audit(c, "auth.login.success", map[string]any{"username": username})
	return c.JSON(fiber.Map{"user": a.Snapshot().User})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in backend.RegisterRequest
	if err := c.BodyParser(&in); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	a := current(c).Auth
	if bad := checkRegistration(&in); bad != "" {
		log.Security(c, "validation.fail", map[string]any{"field": bad})
		msg := "invalid " + bad
		a.Reject(msg)
		return jsonError(c, fiber.StatusBadRequest, msg)
	}

	if !a.Register(c.UserContext(), in) {
		log.Security(c, "auth.register.fail", map[string]any{"username": in.Username})
		return jsonError(c, fiber.StatusBadRequest, a.Snapshot().Error)
	}
	log.Audit(c, "auth.register.success", map[string]any{"username": in.Username})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": a.Snapshot().User})
}

// checkRegistration normalizes in and names the first bad field, if any.
func checkRegistration(in *backend.RegisterRequest) string {
	var ok bool
	if in.Username, ok = validate.Username(in.Username); !ok {
		return "username"
	}
	if in.Email, ok = validate.Email(in.Email); !ok {
		return "email"
	}
	if !validate.Password(in.Password) {
		return "password"
	}
	if in.Password2 == "" {
		in.Password2 = in.Password
	}
	if in.Phone != "" {
		if in.Phone, ok = validate.Phone(in.Phone); !ok {
			return "phone"
		}
	}
	return ""
}

// Logout ends the login only; cart and wishlist stay with the browser.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	current(c).Auth.Logout(c.UserContext())
	log.Audit(c, "auth.logout", nil)
	return c.JSON(fiber.Map{"ok": true})
}
