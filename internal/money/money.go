// Package money holds monetary values in integer minor units (cents) so that
// pricing arithmetic is exact. Rounding happens only where a percentage is
// taken, using round half away from zero.
package money

import "fmt"

// Money is an amount in cents.
type Money = int64

// PercentBps returns bps basis points of amount, rounded half away from zero.
// A negative amount yields zero; discounts never go negative.
func PercentBps(amount Money, bps int64) Money {
	if amount <= 0 || bps <= 0 {
		return 0
	}
	return (amount*bps + 5000) / 10000
}

// FormatRand renders an amount as a Rand string, e.g. 1050 -> "R10.50".
func FormatRand(amount Money) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%sR%d.%02d", sign, amount/100, amount%100)
}
