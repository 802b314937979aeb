package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentGCash PaymentMethod = "gcash"
	PaymentCard  PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentGCash, PaymentCard:
		return true
	}
	return false
}

// CheckoutItem is one order line as stored by order persistence.
type CheckoutItem struct {
	ProductID   uint            `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name" binding:"required"`
	Quantity    int             `json:"quantity" binding:"required,min=1"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Options     []Option        `json:"options"`
	Notes       string          `json:"notes"`
}

// CheckoutPayload is handed to order persistence, which stores it verbatim.
// Discount covers both item-level and order-level discounts.
type CheckoutPayload struct {
	Items         []CheckoutItem  `json:"items" binding:"required,min=1,dive"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method" binding:"required"`
}

// Checkout builds the payload for the cart. Lines are listed in the order
// they were first rung up (oldest first). The cart itself is not modified;
// the caller clears it once persistence succeeds.
func (c *Cart) Checkout(method PaymentMethod) (*CheckoutPayload, error) {
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, method)
	}

	totals := c.Totals()
	items := make([]CheckoutItem, 0, len(c.Entries))
	for i := len(c.Entries) - 1; i >= 0; i-- {
		e := c.Entries[i]
		items = append(items, CheckoutItem{
			ProductID:   e.ProductID,
			ProductName: e.Name,
			Quantity:    e.Quantity,
			UnitPrice:   e.UnitPrice,
			TotalPrice:  e.LineTotal(),
			Options:     append([]Option(nil), e.Options...),
			Notes:       e.Notes,
		})
	}

	return &CheckoutPayload{
		Items:         items,
		Subtotal:      totals.Subtotal,
		Discount:      Round2(totals.Discount()),
		Total:         Round2(totals.Total),
		PaymentMethod: method,
	}, nil
}

// Validate checks a payload received from a client before it is stored:
// at least one line, positive quantities, non-negative amounts, a known
// payment method and total == subtotal - discount to the cent.
func (p *CheckoutPayload) Validate() error {
	if len(p.Items) == 0 {
		return fmt.Errorf("%w: no items", ErrInvalidPayload)
	}
	if !p.PaymentMethod.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, p.PaymentMethod)
	}
	for i, item := range p.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item %d quantity must be at least 1", ErrInvalidPayload, i)
		}
		if item.UnitPrice.IsNegative() || item.TotalPrice.IsNegative() {
			return fmt.Errorf("%w: item %d has a negative amount", ErrInvalidPayload, i)
		}
	}
	if p.Subtotal.IsNegative() || p.Discount.IsNegative() || p.Total.IsNegative() {
		return fmt.Errorf("%w: negative totals", ErrInvalidPayload)
	}
	if !Round2(p.Subtotal.Sub(p.Discount)).Equal(Round2(p.Total)) {
		return fmt.Errorf("%w: total does not equal subtotal minus discount", ErrInvalidPayload)
	}
	return nil
}
