// Package pricing computes order totals from a cart snapshot. Quote is a
// pure function so the pre-checkout display and the persisted order always
// agree for the same inputs.
package pricing

import (
	"strings"

	"github.com/Remor1s/emerald/internal/cart"
)

// PromoCode is the only accepted discount code.
const PromoCode = "SKIDKA"

// DiscountPercent is the flat discount granted by PromoCode.
const DiscountPercent = 10

// Quote is the priced view of a cart. All amounts are integer minor
// currency units.
type Quote struct {
	Total    int64
	Discount int64
	Payable  int64
}

// Price computes the subtotal, promo discount and payable amount for the
// given lines. The promo code matches case-insensitively after trimming.
// Discount rounding is half-up; Payable never goes below zero.
func Price(lines []cart.Line, promoCode string) Quote {
	var total int64
	for _, l := range lines {
		total += int64(l.Qty) * l.UnitPrice
	}

	var percent int64
	if strings.EqualFold(strings.TrimSpace(promoCode), PromoCode) {
		percent = DiscountPercent
	}

	discount := (total*percent + 50) / 100

	payable := total - discount
	if payable < 0 {
		payable = 0
	}

	return Quote{Total: total, Discount: discount, Payable: payable}
}
