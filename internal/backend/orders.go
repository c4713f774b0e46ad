package backend

import (
	"context"
	"encoding/json"
	"net/http"
)

type OrderLine struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type OrderRequest struct {
	Items           []OrderLine `json:"items"`
	TotalAmount     float64     `json:"total_amount"`
	CustomerName    string      `json:"customer_name"`
	CustomerPhone   string      `json:"customer_phone"`
	CustomerAddress string      `json:"customer_address"`
	PaymentMethod   string      `json:"payment_method"`
	Notes           string      `json:"notes,omitempty"`
}

// CreateOrder hands the order to the backend and returns its answer as is.
func (c *Client) CreateOrder(ctx context.Context, token string, o OrderRequest) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, http.MethodPost, c.apiURL+"/api/orders/create", token, o, &out, nil)
	return out, err
}
