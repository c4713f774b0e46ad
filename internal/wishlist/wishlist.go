// Package wishlist is the per-session set of saved products.
package wishlist

import (
	"context"
	"encoding/json"

	"storefront/internal/domain"
	"storefront/internal/state"
	"storefront/internal/storage"
)

// Set keeps products in insertion order with an id index for membership.
// It is persisted as a plain JSON array of products.
type Set struct {
	items []domain.Product
	index map[string]struct{}
}

func newSet(items []domain.Product) Set {
	s := Set{items: make([]domain.Product, 0, len(items)), index: make(map[string]struct{}, len(items))}
	for _, p := range items {
		if p.ID == "" {
			continue
		}
		if _, dup := s.index[p.ID]; dup {
			continue
		}
		s.index[p.ID] = struct{}{}
		s.items = append(s.items, p)
	}
	return s
}

func (s Set) Has(productID string) bool {
	_, ok := s.index[productID]
	return ok
}

func (s Set) Len() int { return len(s.items) }

// Items returns a copy in insertion order.
func (s Set) Items() []domain.Product {
	return append([]domain.Product{}, s.items...)
}

func (s Set) MarshalJSON() ([]byte, error) {
	if s.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.items)
}

func (s *Set) UnmarshalJSON(b []byte) error {
	var items []domain.Product
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	*s = newSet(items)
	return nil
}

type Store struct {
	st *state.Store[Set]
}

func New(ctx context.Context, b storage.Bucket) *Store {
	return &Store{st: state.Load(ctx, b, storage.KeyWishlistItems, func(s Set) Set {
		if s.index == nil {
			return newSet(nil)
		}
		return s
	})}
}

// AddItem saves p. Saving an already saved product changes nothing.
func (s *Store) AddItem(ctx context.Context, p domain.Product) {
	if p.ID == "" {
		return
	}
	s.st.Dispatch(ctx, func(cur Set) Set {
		if cur.Has(p.ID) {
			return cur
		}
		return newSet(append(cur.Items(), p))
	})
}

func (s *Store) RemoveItem(ctx context.Context, productID string) {
	s.st.Dispatch(ctx, func(cur Set) Set {
		if !cur.Has(productID) {
			return cur
		}
		out := make([]domain.Product, 0, cur.Len()-1)
		for _, p := range cur.items {
			if p.ID != productID {
				out = append(out, p)
			}
		}
		return newSet(out)
	})
}

func (s *Store) ClearWishlist(ctx context.Context) {
	s.st.Dispatch(ctx, func(Set) Set { return newSet(nil) })
}

func (s *Store) IsInWishlist(productID string) bool { return s.st.Get().Has(productID) }

func (s *Store) ItemCount() int { return s.st.Get().Len() }

func (s *Store) Items() []domain.Product { return s.st.Get().Items() }
