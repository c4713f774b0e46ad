package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
	"storefront/internal/wishlist"
)

type WishlistHandler struct {
	Catalog *services.CatalogService
}

func wishlistJSON(c *fiber.Ctx, w *wishlist.Store) error {
	return c.JSON(fiber.Map{"items": productViews(w.Items(), w), "count": w.ItemCount()})
}

func (h *WishlistHandler) List(c *fiber.Ctx) error {
	return wishlistJSON(c, current(c).Wishlist)
}

func (h *WishlistHandler) Save(c *fiber.Ctx) error {
	p, ok, err := lookup(c, h.Catalog)
	if !ok {
		return err
	}
	w := current(c).Wishlist
	w.AddItem(c.UserContext(), p)
	applog.Audit(c, "wishlist.save", map[string]any{"product": p.ID})
	return wishlistJSON(c, w)
}

func (h *WishlistHandler) Has(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid product id")
	}
	return c.JSON(fiber.Map{"inWishlist": current(c).Wishlist.IsInWishlist(id)})
}

func (h *WishlistHandler) Unsave(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid product id")
	}
	w := current(c).Wishlist
	w.RemoveItem(c.UserContext(), id)
	applog.Audit(c, "wishlist.unsave", map[string]any{"product": id})
	return wishlistJSON(c, w)
}

func (h *WishlistHandler) Clear(c *fiber.Ctx) error {
	w := current(c).Wishlist
	w.ClearWishlist(c.UserContext())
	applog.Audit(c, "wishlist.clear", nil)
	return wishlistJSON(c, w)
}
