// Package cart is the per-session shopping cart.
package cart

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/state"
	"storefront/internal/storage"
)

// CheckoutPath is where ProceedToCheckout sends a non-empty cart.
const CheckoutPath = "/checkout"

// Items is an ordered cart: one entry per product id, quantities >= 1.
type Items []domain.CartItem

func (it Items) Total() float64 {
	total := 0.0
	for _, x := range it {
		total += x.Price * float64(x.Quantity)
	}
	return total
}

func (it Items) ItemCount() int {
	n := 0
	for _, x := range it {
		n += x.Quantity
	}
	return n
}

func (it Items) Has(productID string) bool { return it.index(productID) >= 0 }

func (it Items) index(productID string) int {
	for i, x := range it {
		if x.ID == productID {
			return i
		}
	}
	return -1
}

// View is a consistent read of the cart and its derived values.
type View struct {
	Items     Items   `json:"items"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"itemCount"`
}

type Store struct {
	st *state.Store[Items]
}

// New rehydrates the cart persisted in b.
func New(ctx context.Context, b storage.Bucket) *Store {
	return &Store{st: state.Load(ctx, b, storage.KeyCartItems, normalize)}
}

// AddItem bumps the quantity of p, inserting it with quantity 1 when absent.
// Products without an id are ignored.
func (s *Store) AddItem(ctx context.Context, p domain.Product) {
	if p.ID == "" {
		return
	}
	s.st.Dispatch(ctx, func(it Items) Items { return addItem(it, p) })
}

// UpdateQuantity sets the quantity exactly; quantity <= 0 removes the item.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	s.st.Dispatch(ctx, func(it Items) Items { return updateQuantity(it, productID, quantity) })
}

func (s *Store) RemoveItem(ctx context.Context, productID string) {
	s.st.Dispatch(ctx, func(it Items) Items { return removeItem(it, productID) })
}

func (s *Store) ClearCart(ctx context.Context) {
	s.st.Dispatch(ctx, func(Items) Items { return Items{} })
}

func (s *Store) Items() Items { return s.st.Get() }

func (s *Store) Total() float64 { return s.st.Get().Total() }

func (s *Store) ItemCount() int { return s.st.Get().ItemCount() }

func (s *Store) View() View {
	it := s.st.Get()
	if it == nil {
		it = Items{}
	}
	return View{Items: it, Total: it.Total(), ItemCount: it.ItemCount()}
}

// ProceedToCheckout reports where to navigate. An empty cart stays put.
func (s *Store) ProceedToCheckout() (string, bool) {
	if len(s.st.Get()) == 0 {
		return "", false
	}
	return CheckoutPath, true
}
