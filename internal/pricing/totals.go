package pricing

import "github.com/shopspring/decimal"

// OrderTotals is derived from a cart and never stored.
type OrderTotals struct {
	ItemCount            int             `json:"item_count"`
	Subtotal             decimal.Decimal `json:"subtotal"`
	TotalItemDiscount    decimal.Decimal `json:"total_item_discount"`
	OrderDiscountPercent decimal.Decimal `json:"order_discount_percent"`
	OrderDiscountAmount  decimal.Decimal `json:"order_discount_amount"`
	Total                decimal.Decimal `json:"total"`
}

// Discount is the sum of item and order discounts.
func (t OrderTotals) Discount() decimal.Decimal {
	return t.TotalItemDiscount.Add(t.OrderDiscountAmount)
}

// ComputeTotals folds entries into totals. The order discount applies to the
// subtotal after item discounts; the two are not compounded on each other.
// An out-of-range orderDiscountPercent is treated as zero, since carts only
// ever hold validated percentages.
func ComputeTotals(entries []CartEntry, orderDiscountPercent decimal.Decimal) OrderTotals {
	t := OrderTotals{
		Subtotal:             decimal.Zero,
		TotalItemDiscount:    decimal.Zero,
		OrderDiscountPercent: orderDiscountPercent,
	}
	for _, e := range entries {
		qty := decimal.NewFromInt(int64(e.Quantity))
		t.ItemCount += e.Quantity
		t.Subtotal = t.Subtotal.Add(e.BaseSubtotal.Mul(qty))
		t.TotalItemDiscount = t.TotalItemDiscount.Add(e.DiscountAmount.Mul(qty))
	}

	orderDiscount, err := OrderDiscount(t.Subtotal.Sub(t.TotalItemDiscount), orderDiscountPercent)
	if err != nil {
		t.OrderDiscountPercent = decimal.Zero
		orderDiscount = decimal.Zero
	}
	t.OrderDiscountAmount = orderDiscount
	t.Total = t.Subtotal.Sub(t.TotalItemDiscount).Sub(t.OrderDiscountAmount)
	return t
}
