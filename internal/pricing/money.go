// Package pricing builds register carts for the order-entry screen.
//
// It turns a product and the cashier's choices into priced options, applies
// item-level and order-level percentage discounts, merges repeat selections
// into a single cart line by fingerprint, and folds the cart into totals and
// the checkout payload handed to order persistence.
//
// All arithmetic uses shopspring/decimal. Amounts are rounded to two places
// (half away from zero, which is half-up for the non-negative amounts used
// here) only where the rules below say so.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidDiscount      = errors.New("discount percent must be between 0 and 100")
	ErrInvalidPrice         = errors.New("price must not be negative")
	ErrUnknownSize          = errors.New("unknown size tier")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidPayload       = errors.New("invalid checkout payload")
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds an amount to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ValidatePercent rejects percentages outside [0,100].
func ValidatePercent(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return ErrInvalidDiscount
	}
	return nil
}
