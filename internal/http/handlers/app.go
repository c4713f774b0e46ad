package handlers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"storefront/internal/backend"
	applog "storefront/internal/log"
	"storefront/internal/photos"
	"storefront/internal/referral"
	"storefront/internal/session"
)

const msgServerError = "Something went wrong. Please try again."

type Options struct {
	Backend  *backend.Client
	Photos   photos.Resolver
	Sessions *session.Registry
	Reporter *referral.Reporter
	// Secure marks cookies Secure; set in production.
	Secure bool
	// RateMax caps requests per IP per minute; 0 means 120.
	RateMax int
	// LoginMax caps login attempts per IP per 10 minutes; 0 means 5.
	LoginMax int
}

// ErrorHandler logs unexpected errors and answers with a generic JSON body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
		return jsonError(c, code, msgServerError)
	}
	return jsonError(c, code, fe.Message)
}

func isAPI(c *fiber.Ctx) bool { return strings.HasPrefix(c.Path(), "/api/") }

// NewApp wires middleware and routes.
func NewApp(o Options) *fiber.App {
	if o.RateMax <= 0 {
		o.RateMax = 120
	}
	if o.LoginMax <= 0 {
		o.LoginMax = 5
	}
	if o.Reporter == nil {
		o.Reporter = referral.NewReporter(o.Backend, 0)
	}

	app := fiber.New(fiber.Config{
		Immutable:    true,
		ErrorHandler: ErrorHandler,
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{Output: log.Writer()}))
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        o.RateMax,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return jsonError(c, fiber.StatusTooManyRequests, "rate limit exceeded, retry soon")
		},
	}))
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	app.Use(Sessions(o.Sessions, o.Secure))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "header:X-Csrf-Token",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   o.Secure,
		// proxy routes authenticate with bearer tokens
		Next: isAPI,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"err": err.Error()})
			return jsonError(c, fiber.StatusForbidden, "Security check failed. Please refresh and try again.")
		},
	}))
	app.Use(referral.Capture(referral.CaptureConfig{Secure: o.Secure}))

	deps := NewDeps(o.Backend, o.Photos)
	track := o.Reporter.Track

	// Pages
	app.Get("/", track(""), deps.CategoryHandler.Home)
	app.Get("/shop", track(""), deps.SearchHandler.Search)
	app.Get("/category/:slug", track(""), deps.CategoryHandler.List)
	app.Get("/product/:id", track("id"), deps.ProductHandler.Detail)

	// Cart & checkout
	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart/items", deps.CartHandler.Add)
	app.Put("/cart/items/:id", deps.CartHandler.Update)
	app.Delete("/cart/items/:id", deps.CartHandler.Remove)
	app.Delete("/cart", deps.CartHandler.Clear)
	app.Post("/cart/checkout", deps.CartHandler.Checkout)
	app.Get("/checkout", deps.OrderHandler.Checkout)
	app.Post("/orders", deps.OrderHandler.Place)

	// Wishlist
	app.Get("/wishlist", deps.WishlistHandler.List)
	app.Post("/wishlist", deps.WishlistHandler.Save)
	app.Get("/wishlist/:id", deps.WishlistHandler.Has)
	app.Delete("/wishlist/:id", deps.WishlistHandler.Unsave)
	app.Delete("/wishlist", deps.WishlistHandler.Clear)

	// Auth routes (login throttled)
	app.Get("/session", deps.AuthHandler.Session)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        o.LoginMax,
		Expiration: 10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return jsonError(c, fiber.StatusTooManyRequests, "Too many attempts. Please try again later.")
		},
	}), deps.AuthHandler.Login)
	app.Post("/register", deps.AuthHandler.Register)
	app.Post("/logout", deps.AuthHandler.Logout)

	// Proxy
	app.Get("/api/auth/user", deps.ProxyHandler.AuthUser)
	app.Put("/api/auth/user", deps.ProxyHandler.AuthUser)
	app.Post("/api/referral/create-link", deps.ProxyHandler.CreateReferralLink)

	app.Use(func(c *fiber.Ctx) error {
		return jsonError(c, fiber.StatusNotFound, "Page not found")
	})
	return app
}
