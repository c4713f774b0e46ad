package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type CartHandler struct {
	Catalog *services.CatalogService
}

type productRef struct {
	ProductID any `json:"product_id"`
}

// lookup resolves the product named in the request body. Prices always come
// from the backend, never from the client. On failure the response is
// already written and ok is false.
func lookup(c *fiber.Ctx, catalog *services.CatalogService) (p domain.Product, ok bool, err error) {
	var in productRef
	if err := c.BodyParser(&in); err != nil {
		return p, false, jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	id, valid := validate.IDValue(in.ProductID)
	if !valid {
		applog.Security(c, "validation.fail", map[string]any{"field": "product_id"})
		return p, false, jsonError(c, fiber.StatusBadRequest, "missing product_id")
	}
	p, err = catalog.GetProduct(c.UserContext(), id)
	if notFound(err) {
		return p, false, jsonError(c, fiber.StatusNotFound, msgUnavailable)
	}
	if err != nil {
		applog.Error(c, "catalog.product.fail", err, map[string]any{"product": id})
		return p, false, jsonError(c, fiber.StatusBadGateway, msgLoadFailed)
	}
	return p, true, nil
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	return cartJSON(c, current(c).Cart)
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	p, ok, err := lookup(c, h.Catalog)
	if !ok {
		return err
	}
	sess := current(c)
	sess.Cart.AddItem(c.UserContext(), p)
	applog.Audit(c, "cart.add", map[string]any{"product": p.ID})
	return cartJSON(c, sess.Cart)
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid product id")
	}
	var in struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.BodyParser(&in); err != nil || in.Quantity == nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "quantity"})
		return jsonError(c, fiber.StatusBadRequest, "quantity must be a whole number")
	}
	sess := current(c)
	sess.Cart.UpdateQuantity(c.UserContext(), id, *in.Quantity)
	applog.Audit(c, "cart.update", map[string]any{"product": id, "quantity": *in.Quantity})
	return cartJSON(c, sess.Cart)
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "invalid product id")
	}
	sess := current(c)
	sess.Cart.RemoveItem(c.UserContext(), id)
	applog.Audit(c, "cart.remove", map[string]any{"product": id})
	return cartJSON(c, sess.Cart)
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	sess := current(c)
	sess.Cart.ClearCart(c.UserContext())
	applog.Audit(c, "cart.clear", nil)
	return cartJSON(c, sess.Cart)
}

// Checkout sends a non-empty cart on to checkout and an empty one back.
func (h *CartHandler) Checkout(c *fiber.Ctx) error {
	if path, ok := current(c).Cart.ProceedToCheckout(); ok {
		return c.Redirect(path, fiber.StatusSeeOther)
	}
	return c.Redirect("/cart", fiber.StatusSeeOther)
}
