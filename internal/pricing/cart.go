package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartEntry is one line of a register cart.
type CartEntry struct {
	CartItemID      string          `json:"cart_item_id"`
	CartEntryID     string          `json:"cart_entry_id"`
	ProductID       uint            `json:"product_id"`
	Name            string          `json:"name"`
	BasePrice       decimal.Decimal `json:"base_price"`
	BaseSubtotal    decimal.Decimal `json:"base_subtotal"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int             `json:"quantity"`
	Options         []Option        `json:"options"`
	Notes           string          `json:"notes"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
}

// LineTotal is the discounted price of the whole line.
func (e CartEntry) LineTotal() decimal.Decimal {
	return e.UnitPrice.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Cart is the order being built at one register session. Entries are kept
// most-recently-added-or-merged first and carry distinct CartEntryIDs.
//
// A Cart has a single owner (the register session) and is not safe for
// concurrent mutation.
type Cart struct {
	SessionID            string          `json:"session_id"`
	Entries              []CartEntry     `json:"entries"`
	OrderDiscountPercent decimal.Decimal `json:"order_discount_percent"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func NewCart(sessionID string) *Cart {
	return &Cart{
		SessionID: sessionID,
		Entries:   []CartEntry{},
		UpdatedAt: time.Now(),
	}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Entries) == 0
}

// AddOrMerge adds one unit of p with the given options. If a line with the
// same fingerprint exists its quantity goes up by one and it moves to the
// front; otherwise a new line is prepended. Nothing changes on error.
func (c *Cart) AddOrMerge(p Product, options []Option, notes string, discountPercent decimal.Decimal) (CartEntry, bool, error) {
	if err := ValidatePercent(discountPercent); err != nil {
		return CartEntry{}, false, err
	}
	if p.BasePrice.IsNegative() {
		return CartEntry{}, false, ErrInvalidPrice
	}

	fingerprint := Fingerprint(p.ID, options, notes, discountPercent.String())

	for i := range c.Entries {
		if c.Entries[i].CartEntryID != fingerprint {
			continue
		}
		entry := c.Entries[i]
		entry.Quantity++
		c.moveToFront(i, entry)
		return entry, true, nil
	}

	baseSubtotal := p.BasePrice.Add(OptionsTotal(options))
	discountAmount, unitPrice, err := ApplyDiscount(baseSubtotal, discountPercent)
	if err != nil {
		return CartEntry{}, false, err
	}

	entry := CartEntry{
		CartItemID:      uuid.NewString(),
		CartEntryID:     fingerprint,
		ProductID:       p.ID,
		Name:            p.Name,
		BasePrice:       p.BasePrice,
		BaseSubtotal:    baseSubtotal,
		UnitPrice:       unitPrice,
		Quantity:        1,
		Options:         append([]Option(nil), options...),
		Notes:           notes,
		DiscountPercent: discountPercent,
		DiscountAmount:  discountAmount,
	}
	c.Entries = append([]CartEntry{entry}, c.Entries...)
	c.touch()
	return entry, false, nil
}

func (c *Cart) moveToFront(i int, entry CartEntry) {
	copy(c.Entries[1:i+1], c.Entries[:i])
	c.Entries[0] = entry
	c.touch()
}

// UpdateQuantity adds delta to the line with the given cart item id and
// removes the line when the result is zero or less. It reports whether the
// id was found; an unknown id leaves the cart untouched.
func (c *Cart) UpdateQuantity(cartItemID string, delta int) bool {
	for i := range c.Entries {
		if c.Entries[i].CartItemID != cartItemID {
			continue
		}
		qty := c.Entries[i].Quantity + delta
		if qty <= 0 {
			c.Entries = append(c.Entries[:i], c.Entries[i+1:]...)
		} else {
			c.Entries[i].Quantity = qty
		}
		c.touch()
		return true
	}
	return false
}

// Remove drops a line regardless of quantity.
func (c *Cart) Remove(cartItemID string) bool {
	for i := range c.Entries {
		if c.Entries[i].CartItemID == cartItemID {
			return c.UpdateQuantity(cartItemID, -c.Entries[i].Quantity)
		}
	}
	return false
}

// Find returns the line with the given cart item id.
func (c *Cart) Find(cartItemID string) (CartEntry, bool) {
	for _, e := range c.Entries {
		if e.CartItemID == cartItemID {
			return e, true
		}
	}
	return CartEntry{}, false
}

// SetOrderDiscount sets the order-level discount percent.
func (c *Cart) SetOrderDiscount(pct decimal.Decimal) error {
	if err := ValidatePercent(pct); err != nil {
		return err
	}
	c.OrderDiscountPercent = pct
	c.touch()
	return nil
}

// Clear empties the cart; it is the reset point after a successful checkout.
func (c *Cart) Clear() {
	c.Entries = []CartEntry{}
	c.OrderDiscountPercent = decimal.Zero
	c.touch()
}

// Totals recomputes the order totals from scratch.
func (c *Cart) Totals() OrderTotals {
	return ComputeTotals(c.Entries, c.OrderDiscountPercent)
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}
