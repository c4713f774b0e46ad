package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type SearchHandler struct {
	Catalog *services.CatalogService
}

// Search serves the shop page: the whole catalog, or the products matching q.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	q := ""
	if raw := c.Query("q"); strings.TrimSpace(raw) != "" {
		var ok bool
		if q, ok = validate.Q(raw); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "q"})
			return jsonError(c, fiber.StatusBadRequest, "Enter a valid search term")
		}
	}
	products, err := h.Catalog.Search(c.UserContext(), q)
	if err != nil {
		log.Error(c, "search.error", err, nil)
		return jsonError(c, fiber.StatusBadGateway, msgLoadFailed)
	}
	return c.JSON(fiber.Map{
		"q":        q,
		"products": productViews(products, current(c).Wishlist),
		"count":    len(products),
	})
}
