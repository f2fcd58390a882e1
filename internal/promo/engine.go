// Package promo evaluates promotional codes against cart contents. Rules are
// independent and their effects sum; there is no precedence or exclusion
// between codes.
package promo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kraalworks/storefront-api/internal/money"
)

// Known promo codes. Unrecognised codes are accepted and inert so that codes
// can ship ahead of their rules.
const (
	CodeWelcome10 = "WELCOME10"
	CodeBulk5     = "BULK5"
	CodeFreeShip  = "FREESHIP"
)

const (
	welcomeBps  = 1000 // 10%
	bulkBps     = 500  // 5%
	bulkMinQty  = 5
)

// Item is a cart line as seen by the rule engine.
type Item struct {
	UnitPrice money.Money
	Qty       int
}

// Result aggregates the effect of every matched rule.
type Result struct {
	Discount         money.Money
	ShippingDiscount money.Money
	Messages         []string
}

// Normalize trims, uppercases, and dedupes raw promo codes, dropping empties.
// The returned slice is sorted for stable storage and display.
func Normalize(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		c := strings.ToUpper(strings.TrimSpace(code))
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Apply evaluates the code set against the subtotal, line items, and current
// shipping cost. flatRate is the store's flat shipping fee, which caps the
// FREESHIP discount. Each rule's contribution is rounded at the point of
// computation. Pure: no I/O, deterministic for given inputs.
func Apply(codes []string, subtotal money.Money, items []Item, shipping, flatRate money.Money) Result {
	active := make(map[string]struct{})
	for _, c := range Normalize(codes) {
		active[c] = struct{}{}
	}

	var res Result

	if _, ok := active[CodeWelcome10]; ok {
		d := money.PercentBps(subtotal, welcomeBps)
		res.Discount += d
		res.Messages = append(res.Messages, fmt.Sprintf("%s applied: -%s", CodeWelcome10, money.FormatRand(d)))
	}

	if _, ok := active[CodeBulk5]; ok {
		var bulkBase money.Money
		for _, it := range items {
			if it.Qty >= bulkMinQty {
				bulkBase += it.UnitPrice * money.Money(it.Qty)
			}
		}
		if bulkBase > 0 {
			d := money.PercentBps(bulkBase, bulkBps)
			res.Discount += d
			res.Messages = append(res.Messages, fmt.Sprintf("%s applied: -%s", CodeBulk5, money.FormatRand(d)))
		}
	}

	if _, ok := active[CodeFreeShip]; ok && shipping > 0 {
		sd := flatRate
		if shipping < sd {
			sd = shipping
		}
		res.ShippingDiscount += sd
		if sd > 0 {
			res.Messages = append(res.Messages, fmt.Sprintf("%s applied: -%s shipping", CodeFreeShip, money.FormatRand(sd)))
		}
	}

	return res
}
