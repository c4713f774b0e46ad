package cart

import "storefront/internal/domain"

// Reducers return a fresh slice; the input is shared with readers.

func addItem(it Items, p domain.Product) Items {
	out := append(Items(nil), it...)
	if i := out.index(p.ID); i >= 0 {
		out[i].Quantity++
		return out
	}
	return append(out, domain.CartItem{Product: p, Quantity: 1})
}

func updateQuantity(it Items, productID string, quantity int) Items {
	if quantity <= 0 {
		return removeItem(it, productID)
	}
	i := it.index(productID)
	if i < 0 {
		return it
	}
	out := append(Items(nil), it...)
	out[i].Quantity = quantity
	return out
}

func removeItem(it Items, productID string) Items {
	i := it.index(productID)
	if i < 0 {
		return it
	}
	out := make(Items, 0, len(it)-1)
	out = append(out, it[:i]...)
	return append(out, it[i+1:]...)
}

// normalize repairs a rehydrated cart: entries without an id or with a
// non-positive quantity are dropped, duplicates are merged in first-seen order.
func normalize(it Items) Items {
	out := make(Items, 0, len(it))
	for _, x := range it {
		if x.ID == "" || x.Quantity < 1 {
			continue
		}
		if i := out.index(x.ID); i >= 0 {
			out[i].Quantity += x.Quantity
			continue
		}
		out = append(out, x)
	}
	return out
}
