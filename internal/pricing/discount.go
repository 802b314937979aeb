package pricing

import "github.com/shopspring/decimal"

// ApplyDiscount applies an item-level percentage to a unit subtotal.
// discountAmount is rounded to cents and unitPrice + discountAmount always
// equals baseSubtotal.
func ApplyDiscount(baseSubtotal, discountPercent decimal.Decimal) (discountAmount, unitPrice decimal.Decimal, err error) {
	if err := ValidatePercent(discountPercent); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if baseSubtotal.IsNegative() {
		return decimal.Zero, decimal.Zero, ErrInvalidPrice
	}
	discountAmount = Round2(baseSubtotal.Mul(discountPercent).Div(hundred))
	unitPrice = baseSubtotal.Sub(discountAmount)
	return discountAmount, unitPrice, nil
}

// OrderDiscount applies the order-level percentage to the order subtotal
// after item discounts.
func OrderDiscount(afterItemDiscounts, discountPercent decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidatePercent(discountPercent); err != nil {
		return decimal.Zero, err
	}
	return Round2(afterItemDiscounts.Mul(discountPercent).Div(hundred)), nil
}
