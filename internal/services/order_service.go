package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storefront/internal/backend"
	"storefront/internal/cart"
)

// PaymentCash is the only payment method the storefront offers.
const PaymentCash = "cash"

var ErrEmptyCart = errors.New("cart empty")

// Contact is what the checkout form collects.
type Contact struct {
	FirstName string
	LastName  string
	Phone     string
	Address   string
	City      string
	Notes     string
}

type OrderAPI interface {
	CreateOrder(ctx context.Context, token string, o backend.OrderRequest) (json.RawMessage, error)
}

type OrderService struct {
	API OrderAPI
}

func NewOrderService(api OrderAPI) *OrderService {
	return &OrderService{API: api}
}

// BuildOrder turns the cart into the backend's order payload. Prices are
// already UZS.
func BuildOrder(items cart.Items, contact Contact) (backend.OrderRequest, error) {
	if len(items) == 0 {
		return backend.OrderRequest{}, ErrEmptyCart
	}
	lines := make([]backend.OrderLine, 0, len(items))
	for _, it := range items {
		id, err := strconv.ParseInt(it.ID, 10, 64)
		if err != nil {
			return backend.OrderRequest{}, fmt.Errorf("product id %q is not numeric", it.ID)
		}
		lines = append(lines, backend.OrderLine{ProductID: id, Quantity: it.Quantity, Price: it.Price})
	}
	return backend.OrderRequest{
		Items:           lines,
		TotalAmount:     items.Total(),
		CustomerName:    strings.TrimSpace(contact.FirstName + " " + contact.LastName),
		CustomerPhone:   contact.Phone,
		CustomerAddress: contact.Address + ", " + contact.City,
		PaymentMethod:   PaymentCash,
		Notes:           contact.Notes,
	}, nil
}

// Place submits the cart as an order and empties it once the backend accepts.
// token may be empty; guests can order.
func (s *OrderService) Place(ctx context.Context, c *cart.Store, token string, contact Contact) (json.RawMessage, error) {
	req, err := BuildOrder(c.Items(), contact)
	if err != nil {
		return nil, err
	}
	res, err := s.API.CreateOrder(ctx, token, req)
	if err != nil {
		return nil, err
	}
	c.ClearCart(ctx)
	return res, nil
}
