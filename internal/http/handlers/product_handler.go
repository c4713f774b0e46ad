package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/log"
	"storefront/internal/photos"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Photos  photos.Resolver
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return jsonError(c, fiber.StatusNotFound, msgUnavailable)
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if notFound(err) {
		return jsonError(c, fiber.StatusNotFound, msgUnavailable)
	}
	if err != nil {
		log.Error(c, "catalog.product.fail", err, map[string]any{"product": id})
		return jsonError(c, fiber.StatusBadGateway, msgLoadFailed)
	}
	related, err := h.Catalog.Related(c.UserContext(), p.ID, services.RelatedLimit)
	if err != nil {
		log.Warn(c, "catalog.related.fail", err, map[string]any{"product": id})
	}
	sess := current(c)
	return c.JSON(fiber.Map{
		"product":   newProductView(p, sess.Wishlist),
		"related":   productViews(related, sess.Wishlist),
		"photos":    h.Photos.All(p.Photos),
		"inCart":    sess.Cart.Items().Has(p.ID),
		"cartCount": sess.Cart.ItemCount(),
	})
}
