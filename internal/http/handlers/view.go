package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/backend"
	"storefront/internal/cart"
	"storefront/internal/currency"
	"storefront/internal/domain"
	"storefront/internal/wishlist"
)

const (
	msgUnavailable = "This item is no longer available"
	msgLoadFailed  = "Could not load products. Please retry."
)

type productView struct {
	domain.Product
	PriceLabel string `json:"priceLabel"`
	InWishlist bool   `json:"inWishlist"`
}

func newProductView(p domain.Product, w *wishlist.Store) productView {
	return productView{
		Product:    p,
		PriceLabel: currency.FormatUzsWithSpaces(p.Price),
		InWishlist: w != nil && w.IsInWishlist(p.ID),
	}
}

func productViews(ps []domain.Product, w *wishlist.Store) []productView {
	out := make([]productView, 0, len(ps))
	for _, p := range ps {
		out = append(out, newProductView(p, w))
	}
	return out
}

type cartResponse struct {
	cart.View
	TotalLabel string `json:"totalLabel"`
}

func cartJSON(c *fiber.Ctx, s *cart.Store) error {
	v := s.View()
	return c.JSON(cartResponse{View: v, TotalLabel: currency.FormatUzsWithSpaces(v.Total)})
}

func jsonError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// notFound reports whether err is the backend saying the resource is gone.
func notFound(err error) bool {
	var se *backend.StatusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}
