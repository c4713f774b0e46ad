package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/backend"
	"storefront/internal/currency"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

const msgOrderFailed = "Order could not be created"

type OrderHandler struct {
	Order *services.OrderService
}

// Checkout returns the order summary and a contact form prefilled from the
// profile. Guests may check out too.
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	sess := current(c)
	v := sess.Cart.View()
	contact := fiber.Map{"first_name": "", "last_name": "", "phone": ""}
	if u := sess.Auth.Snapshot().User; u != nil {
		contact = fiber.Map{"first_name": u.FirstName, "last_name": u.LastName, "phone": u.Phone}
	}
	return c.JSON(fiber.Map{
		"cart":          cartResponse{View: v, TotalLabel: currency.FormatUzsWithSpaces(v.Total)},
		"empty":         len(v.Items) == 0,
		"contact":       contact,
		"paymentMethod": services.PaymentCash,
	})
}

type orderForm struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Notes     string `json:"notes"`
}

func (f orderForm) contact() (services.Contact, string) {
	var ct services.Contact
	var ok bool
	if ct.FirstName, ok = validate.Name(f.FirstName); !ok {
		return ct, "first_name"
	}
	if ct.LastName, ok = validate.Text(f.LastName, 50, false); !ok {
		return ct, "last_name"
	}
	if ct.Phone, ok = validate.Phone(f.Phone); !ok {
		return ct, "phone"
	}
	if ct.Address, ok = validate.Text(f.Address, 200, true); !ok {
		return ct, "address"
	}
	if ct.City, ok = validate.Text(f.City, 100, true); !ok {
		return ct, "city"
	}
	if ct.Notes, ok = validate.Text(f.Notes, 500, false); !ok {
		return ct, "notes"
	}
	return ct, ""
}

func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var form orderForm
	if err := c.BodyParser(&form); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	contact, bad := form.contact()
	if bad != "" {
		applog.Security(c, "validation.fail", map[string]any{"field": bad})
		return jsonError(c, fiber.StatusBadRequest, "invalid "+bad)
	}

	sess := current(c)
	res, err := h.Order.Place(c.UserContext(), sess.Cart, sess.Auth.Token(), contact)
	if err != nil {
		if errors.Is(err, services.ErrEmptyCart) {
			return jsonError(c, fiber.StatusBadRequest, "Your cart is empty")
		}
		applog.Error(c, "order.place.fail", err, nil)
		var se *backend.StatusError
		if errors.As(err, &se) && se.Status >= 400 && se.Status < 500 {
			return jsonError(c, se.Status, backend.Message(err, msgOrderFailed))
		}
		return jsonError(c, fiber.StatusBadGateway, msgOrderFailed)
	}
	applog.Audit(c, "order.placed", nil)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"order": res})
}
