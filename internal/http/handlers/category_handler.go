package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

// Home lists the featured products and the latest reviews. A backend outage
// still renders the page, just without them.
func (h *CategoryHandler) Home(c *fiber.Ctx) error {
	page := fiber.Map{}
	reviews, err := h.Catalog.LatestReviews(c.UserContext())
	if err != nil {
		log.Warn(c, "catalog.reviews.fail", err, nil)
		reviews = []domain.Review{}
	}
	page["reviews"] = reviews

	products, err := h.Catalog.Featured(c.UserContext())
	if err != nil {
		log.Error(c, "catalog.featured.fail", err, nil)
		page["products"] = []productView{}
		page["error"] = msgLoadFailed
		return c.JSON(page)
	}
	page["products"] = productViews(products, current(c).Wishlist)
	return c.JSON(page)
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	slug, ok := validate.Slug(c.Params("slug"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "category"})
		return jsonError(c, fiber.StatusNotFound, "Category not found")
	}
	products, err := h.Catalog.ListByCategory(c.UserContext(), slug)
	if err != nil {
		log.Error(c, "catalog.category.fail", err, map[string]any{"category": slug})
		return jsonError(c, fiber.StatusBadGateway, msgLoadFailed)
	}
	return c.JSON(fiber.Map{
		"category": slug,
		"products": productViews(products, current(c).Wishlist),
		"count":    len(products),
	})
}
