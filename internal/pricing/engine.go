// Package pricing turns resolved cart lines into a full price breakdown. The
// breakdown is a derived value, recomputed from current catalog prices on
// every call and never stored, so display and checkout always agree with the
// catalog at the instant of computation.
package pricing

import (
	"github.com/kraalworks/storefront-api/internal/money"
	"github.com/kraalworks/storefront-api/internal/promo"
)

// Line is one priced cart entry. LineTotal is always UnitPrice * Qty.
type Line struct {
	ProductID string      `json:"productId"`
	SKU       string      `json:"sku"`
	Name      string      `json:"name"`
	UnitPrice money.Money `json:"unitPrice"`
	Qty       int         `json:"qty"`
	LineTotal money.Money `json:"lineTotal"`
}

// Policy carries the store-wide pricing knobs.
type Policy struct {
	TaxRateBps            int64
	ShippingFlat          money.Money
	FreeShippingThreshold money.Money
}

// Breakdown aggregates the computed pricing components for a cart.
type Breakdown struct {
	Lines      []Line      `json:"lines"`
	Subtotal   money.Money `json:"subtotal"`
	Discount   money.Money `json:"discount"`
	Tax        money.Money `json:"tax"`
	Shipping   money.Money `json:"shipping"`
	GrandTotal money.Money `json:"grandTotal"`
	Messages   []string    `json:"messages"`
	Promos     []string    `json:"promos"`
}

// NewLine builds a Line with its total computed from price and quantity.
func NewLine(productID, sku, name string, unitPrice money.Money, qty int) Line {
	return Line{
		ProductID: productID,
		SKU:       sku,
		Name:      name,
		UnitPrice: unitPrice,
		Qty:       qty,
		LineTotal: unitPrice * money.Money(qty),
	}
}

// Quote computes the breakdown for the given lines and promo codes. Shipping
// is waived at the free-shipping threshold, the promo engine runs against the
// pre-discount subtotal, and neither the discount nor the shipping discount
// can drive their target below zero.
func Quote(lines []Line, promos []string, policy Policy) Breakdown {
	var subtotal money.Money
	items := make([]promo.Item, 0, len(lines))
	for _, l := range lines {
		subtotal += l.LineTotal
		items = append(items, promo.Item{UnitPrice: l.UnitPrice, Qty: l.Qty})
	}

	shipping := policy.ShippingFlat
	if subtotal >= policy.FreeShippingThreshold {
		shipping = 0
	}

	normalized := promo.Normalize(promos)
	res := promo.Apply(normalized, subtotal, items, shipping, policy.ShippingFlat)

	shipping -= res.ShippingDiscount
	if shipping < 0 {
		shipping = 0
	}

	discount := res.Discount
	if discount > subtotal {
		discount = subtotal
	}
	taxable := subtotal - discount
	tax := money.PercentBps(taxable, policy.TaxRateBps)

	return Breakdown{
		Lines:      lines,
		Subtotal:   subtotal,
		Discount:   discount,
		Tax:        tax,
		Shipping:   shipping,
		GrandTotal: taxable + tax + shipping,
		Messages:   res.Messages,
		Promos:     normalized,
	}
}
