package pricing

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDrinkCategories = []string{"coffee", "non_coffee", "tea", "frappe"}

var testAddOns = []AddOn{
	{Name: "Milk", Price: decimal.NewFromInt(20)},
	{Name: "Extra Shot", Price: decimal.NewFromInt(30)},
	{Name: "Whipped Cream", Price: decimal.NewFromInt(25)},
	{Name: "Caramel Drizzle", Price: decimal.NewFromInt(15)},
}

func americano() Product {
	return Product{ID: 1, Name: "Americano", BasePrice: decimal.NewFromInt(99), Category: "coffee"}
}

func croissant() Product {
	return Product{ID: 2, Name: "Croissant", BasePrice: decimal.NewFromInt(85), Category: "pastry"}
}

func money(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestSelector() *Selector {
	return NewSelector(testAddOns, testDrinkCategories)
}

func TestSelect_DrinkWithRegularSizeAndSugar(t *testing.T) {
	options, err := newTestSelector().Select(americano(), Selection{Size: SizeRegular, Sugar: "100%"})
	require.NoError(t, err)

	require.Len(t, options, 2)
	assert.Equal(t, RegularSizeName, options[0].Name)
	assert.True(t, options[0].Price.IsZero())
	assert.Equal(t, "Sugar: 100%", options[1].Name)
	assert.True(t, options[1].Price.IsZero())
}

func TestSelect_SizeSchedule(t *testing.T) {
	tests := []struct {
		size      SizeTier
		wantName  string
		wantPrice string
	}{
		{SizeRegular, "Regular Size", "0.00"},
		{SizeMedium, "Medium (+20.00)", "20.00"},
		{SizeLarge, "Large (+40.00)", "40.00"},
		{"", "Regular Size", "0.00"},
	}

	for _, tt := range tests {
		t.Run(string(tt.size), func(t *testing.T) {
			options, err := newTestSelector().Select(americano(), Selection{Size: tt.size})
			require.NoError(t, err)
			require.Len(t, options, 1)
			assert.Equal(t, tt.wantName, options[0].Name)
			money(t, tt.wantPrice, options[0].Price)
		})
	}
}

func TestSelect_UnknownSize(t *testing.T) {
	_, err := newTestSelector().Select(americano(), Selection{Size: "venti"})
	assert.ErrorIs(t, err, ErrUnknownSize)
}

func TestSelect_NonDrinkGetsNoSizeOrSugar(t *testing.T) {
	options, err := newTestSelector().Select(croissant(), Selection{Size: SizeLarge, Sugar: "50%", AddOns: []string{"Whipped Cream"}})
	require.NoError(t, err)

	require.Len(t, options, 1)
	assert.Equal(t, "Whipped Cream (+25.00)", options[0].Name)
}

func TestSelect_UnknownAddOnIgnored(t *testing.T) {
	options, err := newTestSelector().Select(americano(), Selection{Size: SizeLarge, AddOns: []string{"Gold Flakes", "Milk", "Milk"}})
	require.NoError(t, err)

	require.Len(t, options, 2)
	assert.Equal(t, "Large (+40.00)", options[0].Name)
	assert.Equal(t, "Milk (+20.00)", options[1].Name)
	money(t, "60.00", OptionsTotal(options))
}

func TestSelect_ZeroPriceAddOnExcluded(t *testing.T) {
	selector := NewSelector(append(testAddOns, AddOn{Name: "Straw", Price: decimal.Zero}), testDrinkCategories)

	options, err := selector.Select(americano(), Selection{AddOns: []string{"Straw"}})
	require.NoError(t, err)

	require.Len(t, options, 1)
	assert.Equal(t, RegularSizeName, options[0].Name)
}

func TestSelect_AddOnNameTrimmed(t *testing.T) {
	padded := NewSelector([]AddOn{{Name: " Milk ", Price: decimal.NewFromInt(20)}}, testDrinkCategories)
	options, err := padded.Select(americano(), Selection{AddOns: []string{"Milk"}})
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, "Milk (+20.00)", options[1].Name)

	clean, err := newTestSelector().Select(americano(), Selection{AddOns: []string{"Milk"}})
	require.NoError(t, err)
	assert.Equal(t, Fingerprint(1, clean, "", "0"), Fingerprint(1, options, "", "0"))
}

func TestPackageLeavesDecimalJSONDefault(t *testing.T) {
	assert.False(t, decimal.MarshalJSONWithoutQuotes)
}

func TestApplyDiscount(t *testing.T) {
	amount, unit, err := ApplyDiscount(dec("159"), dec("10"))
	require.NoError(t, err)
	money(t, "15.90", amount)
	money(t, "143.10", unit)

	amount, unit, err = ApplyDiscount(dec("99"), decimal.Zero)
	require.NoError(t, err)
	money(t, "0.00", amount)
	money(t, "99.00", unit)

	amount, unit, err = ApplyDiscount(dec("99"), dec("100"))
	require.NoError(t, err)
	money(t, "99.00", amount)
	money(t, "0.00", unit)
}

func TestApplyDiscount_HalfUp(t *testing.T) {
	// 0.125 rounds up to 0.13.
	amount, unit, err := ApplyDiscount(dec("1.25"), dec("10"))
	require.NoError(t, err)
	money(t, "0.13", amount)
	money(t, "1.12", unit)
}

func TestApplyDiscount_OutOfRange(t *testing.T) {
	for _, pct := range []string{"-0.01", "100.01", "250"} {
		_, _, err := ApplyDiscount(dec("99"), dec(pct))
		assert.ErrorIs(t, err, ErrInvalidDiscount, pct)
	}
}

func TestApplyDiscount_UnitPlusDiscountEqualsBase(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tolerance := dec("0.01")

	for i := 0; i < 2000; i++ {
		base := decimal.New(rng.Int63n(1_000_000), -2)
		pct := decimal.New(rng.Int63n(10_001), -2)

		amount, unit, err := ApplyDiscount(base, pct)
		require.NoError(t, err)
		diff := unit.Add(amount).Sub(base).Abs()
		assert.True(t, diff.LessThanOrEqual(tolerance), "base=%s pct=%s", base, pct)
	}
}

func TestFingerprint_PermutationInvariant(t *testing.T) {
	options := []Option{
		{Name: "Large (+40.00)", Price: dec("40")},
		{Name: "Sugar: 50%", Price: decimal.Zero},
		{Name: "Milk (+20.00)", Price: dec("20")},
		{Name: "Extra Shot (+30.00)", Price: dec("30")},
		{Name: "Caramel Drizzle (+15.00)", Price: dec("15")},
	}
	want := Fingerprint(1, options, "less ice", "10")

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		shuffled := append([]Option(nil), options...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Fingerprint(1, shuffled, "less ice", "10"))
	}
}

func TestFingerprint_DistinguishesFields(t *testing.T) {
	options := []Option{{Name: "Milk (+20.00)", Price: dec("20")}}
	base := Fingerprint(1, options, "", "0")

	assert.NotEqual(t, base, Fingerprint(2, options, "", "0"))
	assert.NotEqual(t, base, Fingerprint(1, nil, "", "0"))
	assert.NotEqual(t, base, Fingerprint(1, options, " ", "0"))
	assert.NotEqual(t, base, Fingerprint(1, options, "", "5"))
	assert.Equal(t, base, Fingerprint(1, []Option{{Name: "Milk (+20.00)", Price: dec("20.00")}}, "", "0"))
}

func TestFingerprint_NoSeparatorCollisions(t *testing.T) {
	a := Fingerprint(1, []Option{{Name: "A", Price: dec("1")}}, "B", "0")
	b := Fingerprint(1, []Option{{Name: "AB", Price: dec("1")}}, "", "0")
	c := Fingerprint(11, nil, "", "0")
	d := Fingerprint(1, nil, "1", "0")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, c, d)
}

func TestCart_SameSelectionMerges(t *testing.T) {
	selector := newTestSelector()
	cart := NewCart("session-1")

	first, err := selector.Select(americano(), Selection{Size: SizeLarge, AddOns: []string{"Milk", "Extra Shot"}})
	require.NoError(t, err)
	second, err := selector.Select(americano(), Selection{Size: SizeLarge, AddOns: []string{"Extra Shot", "Milk"}})
	require.NoError(t, err)

	_, merged, err := cart.AddOrMerge(americano(), first, "", decimal.Zero)
	require.NoError(t, err)
	assert.False(t, merged)

	entry, merged, err := cart.AddOrMerge(americano(), second, "", decimal.Zero)
	require.NoError(t, err)
	assert.True(t, merged)

	require.Len(t, cart.Entries, 1)
	assert.Equal(t, 2, cart.Entries[0].Quantity)
	assert.Equal(t, entry.CartItemID, cart.Entries[0].CartItemID)
}

func TestCart_DifferentNotesAreSeparateLines(t *testing.T) {
	cart := NewCart("session-1")

	_, _, err := cart.AddOrMerge(americano(), nil, "", decimal.Zero)
	require.NoError(t, err)
	_, merged, err := cart.AddOrMerge(americano(), nil, " ", decimal.Zero)
	require.NoError(t, err)

	assert.False(t, merged)
	assert.Len(t, cart.Entries, 2)
}

func TestCart_DifferentSugarAreSeparateLines(t *testing.T) {
	selector := newTestSelector()
	cart := NewCart("session-1")

	full, _ := selector.Select(americano(), Selection{Sugar: "100%"})
	half, _ := selector.Select(americano(), Selection{Sugar: "50%"})

	_, _, err := cart.AddOrMerge(americano(), full, "", decimal.Zero)
	require.NoError(t, err)
	_, _, err = cart.AddOrMerge(americano(), half, "", decimal.Zero)
	require.NoError(t, err)

	assert.Len(t, cart.Entries, 2)
}

func TestCart_MostRecentFirst(t *testing.T) {
	cart := NewCart("session-1")

	a, _, _ := cart.AddOrMerge(americano(), nil, "", decimal.Zero)
	b, _, _ := cart.AddOrMerge(croissant(), nil, "", decimal.Zero)
	require.Equal(t, []string{b.CartItemID, a.CartItemID}, itemIDs(cart))

	// Merging into the older line brings it to the front.
	_, merged, _ := cart.AddOrMerge(americano(), nil, "", decimal.Zero)
	require.True(t, merged)
	assert.Equal(t, []string{a.CartItemID, b.CartItemID}, itemIDs(cart))
	assert.Equal(t, 2, cart.Entries[0].Quantity)
}

func TestCart_InvalidDiscountRejected(t *testing.T) {
	cart := NewCart("session-1")

	_, _, err := cart.AddOrMerge(americano(), nil, "", dec("101"))
	assert.ErrorIs(t, err, ErrInvalidDiscount)
	_, _, err = cart.AddOrMerge(americano(), nil, "", dec("-1"))
	assert.ErrorIs(t, err, ErrInvalidDiscount)
	assert.True(t, cart.IsEmpty())
}

func TestCart_UpdateQuantity(t *testing.T) {
	cart := NewCart("session-1")
	a, _, _ := cart.AddOrMerge(americano(), nil, "", decimal.Zero)
	_, _, _ = cart.AddOrMerge(americano(), nil, "", decimal.Zero)
	b, _, _ := cart.AddOrMerge(croissant(), nil, "", decimal.Zero)

	assert.True(t, cart.UpdateQuantity(a.CartItemID, 3))
	entry, ok := cart.Find(a.CartItemID)
	require.True(t, ok)
	assert.Equal(t, 5, entry.Quantity)

	assert.True(t, cart.UpdateQuantity(a.CartItemID, -5))
	assert.Len(t, cart.Entries, 1)
	_, ok = cart.Find(a.CartItemID)
	assert.False(t, ok)

	assert.True(t, cart.UpdateQuantity(b.CartItemID, -10))
	assert.True(t, cart.IsEmpty())
}

func TestCart_UpdateQuantityUnknownID(t *testing.T) {
	cart := NewCart("session-1")
	_, _, _ = cart.AddOrMerge(americano(), nil, "", decimal.Zero)
	before := append([]CartEntry(nil), cart.Entries...)

	assert.False(t, cart.UpdateQuantity("missing", 1))
	assert.False(t, cart.UpdateQuantity("missing", -1))
	assert.Equal(t, before, cart.Entries)
}

func TestCart_CatalogChangesDoNotReprice(t *testing.T) {
	cart := NewCart("session-1")
	p := americano()
	_, _, _ = cart.AddOrMerge(p, nil, "", decimal.Zero)

	p.BasePrice = dec("120")
	money(t, "99.00", cart.Entries[0].UnitPrice)
	money(t, "99.00", cart.Entries[0].BasePrice)
}

func TestScenario_AmericanoRegular(t *testing.T) {
	selector := newTestSelector()
	cart := NewCart("session-1")

	options, err := selector.Select(americano(), Selection{Size: SizeRegular, Sugar: "100%"})
	require.NoError(t, err)
	entry, _, err := cart.AddOrMerge(americano(), options, "", decimal.Zero)
	require.NoError(t, err)

	require.Len(t, cart.Entries, 1)
	money(t, "99.00", entry.UnitPrice)
	money(t, "99.00", entry.BaseSubtotal)
	money(t, "0.00", entry.DiscountAmount)
}

func TestScenario_LargeWithMilkAndDiscount(t *testing.T) {
	selector := newTestSelector()
	cart := NewCart("session-1")

	options, err := selector.Select(americano(), Selection{Size: SizeLarge, AddOns: []string{"Milk"}})
	require.NoError(t, err)
	entry, _, err := cart.AddOrMerge(americano(), options, "", dec("10"))
	require.NoError(t, err)

	money(t, "159.00", entry.BaseSubtotal)
	money(t, "15.90", entry.DiscountAmount)
	money(t, "143.10", entry.UnitPrice)
	assert.True(t, entry.UnitPrice.Equal(entry.BaseSubtotal.Sub(entry.DiscountAmount)))
}

func TestScenario_OrderTotals(t *testing.T) {
	selector := newTestSelector()
	cart := NewCart("session-1")

	large, _ := selector.Select(americano(), Selection{Size: SizeLarge, AddOns: []string{"Milk"}})
	_, _, err := cart.AddOrMerge(americano(), large, "", dec("10"))
	require.NoError(t, err)

	regular, _ := selector.Select(americano(), Selection{Size: SizeRegular, Sugar: "100%"})
	_, _, err = cart.AddOrMerge(americano(), regular, "", decimal.Zero)
	require.NoError(t, err)
	_, _, err = cart.AddOrMerge(americano(), regular, "", decimal.Zero)
	require.NoError(t, err)

	require.NoError(t, cart.SetOrderDiscount(dec("10")))
	totals := cart.Totals()

	assert.Equal(t, 3, totals.ItemCount)
	money(t, "357.00", totals.Subtotal)
	money(t, "15.90", totals.TotalItemDiscount)
	money(t, "34.11", totals.OrderDiscountAmount)
	money(t, "306.99", totals.Total)
}

func TestComputeTotals_Idempotent(t *testing.T) {
	cart := NewCart("session-1")
	_, _, _ = cart.AddOrMerge(americano(), nil, "", dec("12.5"))
	_, _, _ = cart.AddOrMerge(croissant(), nil, "warm", decimal.Zero)
	require.NoError(t, cart.SetOrderDiscount(dec("7")))

	first := cart.Totals()
	second := cart.Totals()
	assert.Equal(t, first, second)
}

func TestComputeTotals_Empty(t *testing.T) {
	totals := ComputeTotals(nil, decimal.Zero)
	assert.Equal(t, 0, totals.ItemCount)
	money(t, "0.00", totals.Total)
}

func TestCart_SetOrderDiscountOutOfRange(t *testing.T) {
	cart := NewCart("session-1")
	require.NoError(t, cart.SetOrderDiscount(dec("15")))

	assert.ErrorIs(t, cart.SetOrderDiscount(dec("120")), ErrInvalidDiscount)
	money(t, "15.00", cart.OrderDiscountPercent)
}

func TestCart_Checkout(t *testing.T) {
	selector := newTestSelector()
	cart := NewCart("session-1")

	large, _ := selector.Select(americano(), Selection{Size: SizeLarge, AddOns: []string{"Milk"}})
	_, _, _ = cart.AddOrMerge(americano(), large, "", dec("10"))
	_, _, _ = cart.AddOrMerge(croissant(), nil, "warm", decimal.Zero)
	_, _, _ = cart.AddOrMerge(croissant(), nil, "warm", decimal.Zero)
	require.NoError(t, cart.SetOrderDiscount(dec("10")))

	payload, err := cart.Checkout(PaymentGCash)
	require.NoError(t, err)

	require.Len(t, payload.Items, 2)
	assert.Equal(t, "Americano", payload.Items[0].ProductName)
	money(t, "143.10", payload.Items[0].TotalPrice)
	assert.Equal(t, "Croissant", payload.Items[1].ProductName)
	assert.Equal(t, 2, payload.Items[1].Quantity)
	assert.Equal(t, "warm", payload.Items[1].Notes)
	money(t, "170.00", payload.Items[1].TotalPrice)

	// subtotal 159 + 170 = 329, item discount 15.90, order discount 31.31
	money(t, "329.00", payload.Subtotal)
	money(t, "47.21", payload.Discount)
	money(t, "281.79", payload.Total)
	assert.Equal(t, PaymentGCash, payload.PaymentMethod)
	require.NoError(t, payload.Validate())

	// Checkout does not clear; the caller does after persistence succeeds.
	assert.Len(t, cart.Entries, 2)
}

func TestCart_CheckoutEmpty(t *testing.T) {
	_, err := NewCart("session-1").Checkout(PaymentCash)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCart_CheckoutInvalidPaymentMethod(t *testing.T) {
	cart := NewCart("session-1")
	_, _, _ = cart.AddOrMerge(americano(), nil, "", decimal.Zero)

	_, err := cart.Checkout("bitcoin")
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestCheckoutPayload_Validate(t *testing.T) {
	valid := func() *CheckoutPayload {
		return &CheckoutPayload{
			Items: []CheckoutItem{{
				ProductID: 1, ProductName: "Americano", Quantity: 1,
				UnitPrice: dec("99"), TotalPrice: dec("99"),
			}},
			Subtotal:      dec("99"),
			Discount:      dec("9.90"),
			Total:         dec("89.10"),
			PaymentMethod: PaymentCash,
		}
	}
	require.NoError(t, valid().Validate())

	p := valid()
	p.Items = nil
	assert.ErrorIs(t, p.Validate(), ErrInvalidPayload)

	p = valid()
	p.Items[0].Quantity = 0
	assert.ErrorIs(t, p.Validate(), ErrInvalidPayload)

	p = valid()
	p.Total = dec("90")
	assert.ErrorIs(t, p.Validate(), ErrInvalidPayload)

	p = valid()
	p.PaymentMethod = "barter"
	assert.ErrorIs(t, p.Validate(), ErrInvalidPaymentMethod)
}

func itemIDs(c *Cart) []string {
	ids := make([]string, 0, len(c.Entries))
	for _, e := range c.Entries {
		ids = append(ids, e.CartItemID)
	}
	return ids
}

func TestSizes(t *testing.T) {
	sizes := Sizes()
	require.Len(t, sizes, 3)
	assert.Equal(t, SizeRegular, sizes[0].Tier)
	assert.Equal(t, RegularSizeName, sizes[0].Label)
	assert.Equal(t, "Large (+40.00)", sizes[2].Label)
	money(t, "40.00", sizes[2].Price)
}
