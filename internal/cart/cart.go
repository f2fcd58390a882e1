// Package cart owns the customer's mutable selection: product quantities and
// applied promo codes. A cart is keyed by an opaque session identifier issued
// outside this service; it is emptied at checkout but never deleted.
package cart

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrItemNotFound indicates the product is not in the cart.
var ErrItemNotFound = errors.New("item not in cart")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Cart is the stored cart state. Promos are normalized uppercase, deduped,
// and sorted; Items never contains a zero or negative quantity.
type Cart struct {
	ID     uuid.UUID
	Key    string
	Items  []Item
	Promos []string
}

// Item is one cart entry.
type Item struct {
	ProductID uuid.UUID
	Qty       int
}

// StockLimitError reports an attempt to put more units in a cart than the
// catalog currently has.
type StockLimitError struct {
	SKU       string
	Available int
}

func (e *StockLimitError) Error() string {
	return fmt.Sprintf("not enough stock for %s (max %d)", e.SKU, e.Available)
}
