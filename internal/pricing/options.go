package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is the catalog reference the register prices against. It is copied
// into cart entries at selection time; later catalog edits do not touch them.
type Product struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base_price"`
	Category  string          `json:"category"`
}

// AddOn is one entry of the fixed add-on price list.
type AddOn struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Option is a priced line item attached to a cart entry. Name may carry the
// price delta for display, e.g. "Large (+40.00)".
type Option struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type SizeTier string

const (
	SizeRegular SizeTier = "regular"
	SizeMedium  SizeTier = "medium"
	SizeLarge   SizeTier = "large"
)

// RegularSizeName is the zero-price size marker kept for display and
// fingerprinting.
const RegularSizeName = "Regular Size"

const sugarPrefix = "Sugar: "

type sizeRate struct {
	label string
	price decimal.Decimal
}

var sizeSchedule = map[SizeTier]sizeRate{
	SizeRegular: {label: RegularSizeName, price: decimal.Zero},
	SizeMedium:  {label: "Medium", price: decimal.NewFromInt(20)},
	SizeLarge:   {label: "Large", price: decimal.NewFromInt(40)},
}

// SizeChoice describes one size tier for menu screens.
type SizeChoice struct {
	Tier  SizeTier        `json:"tier"`
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

// Sizes lists the size tiers from smallest to largest.
func Sizes() []SizeChoice {
	tiers := []SizeTier{SizeRegular, SizeMedium, SizeLarge}
	out := make([]SizeChoice, 0, len(tiers))
	for _, t := range tiers {
		rate := sizeSchedule[t]
		out = append(out, SizeChoice{Tier: t, Label: sizeOption(rate).Name, Price: rate.price})
	}
	return out
}

// Selection is what the cashier picked for one product.
type Selection struct {
	Size   SizeTier `json:"size"`
	Sugar  string   `json:"sugar"`
	AddOns []string `json:"add_ons"`
}

// Selector prices selections against an add-on list and the set of drink
// categories (the only ones offered size and sugar choices).
type Selector struct {
	addOns map[string]AddOn
	drinks map[string]bool
}

func NewSelector(addOns []AddOn, drinkCategories []string) *Selector {
	s := &Selector{
		addOns: make(map[string]AddOn, len(addOns)),
		drinks: make(map[string]bool, len(drinkCategories)),
	}
	for _, a := range addOns {
		a.Name = strings.TrimSpace(a.Name)
		s.addOns[a.Name] = a
	}
	for _, c := range drinkCategories {
		s.drinks[c] = true
	}
	return s
}

// IsDrink reports whether category gets size and sugar options.
func (s *Selector) IsDrink(category string) bool {
	return s.drinks[category]
}

// Select returns the ordered options for p: size, sugar, then add-ons in the
// order first selected. A drink with no size gets the regular size. Unknown
// add-on names are dropped, and so is any zero-price option other than the
// size and sugar markers.
func (s *Selector) Select(p Product, sel Selection) ([]Option, error) {
	options := make([]Option, 0, 2+len(sel.AddOns))

	if s.IsDrink(p.Category) {
		tier := sel.Size
		if tier == "" {
			tier = SizeRegular
		}
		rate, ok := sizeSchedule[tier]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSize, sel.Size)
		}
		options = append(options, sizeOption(rate))

		if sugar := strings.TrimSpace(sel.Sugar); sugar != "" {
			options = append(options, Option{Name: sugarPrefix + sugar, Price: decimal.Zero})
		}
	}

	seen := make(map[string]bool, len(sel.AddOns))
	for _, name := range sel.AddOns {
		name = strings.TrimSpace(name)
		if seen[name] {
			continue
		}
		seen[name] = true

		addOn, ok := s.addOns[name]
		if !ok || addOn.Price.IsNegative() {
			continue
		}
		options = append(options, Option{
			Name:  fmt.Sprintf("%s (+%s)", addOn.Name, addOn.Price.StringFixed(2)),
			Price: addOn.Price,
		})
	}

	kept := options[:0]
	for _, o := range options {
		if !o.Price.IsZero() || IsMarker(o) {
			kept = append(kept, o)
		}
	}
	return kept, nil
}

func sizeOption(rate sizeRate) Option {
	if rate.price.IsZero() {
		return Option{Name: rate.label, Price: decimal.Zero}
	}
	return Option{
		Name:  fmt.Sprintf("%s (+%s)", rate.label, rate.price.StringFixed(2)),
		Price: rate.price,
	}
}

// IsMarker reports whether o is a zero-price option kept for display only.
func IsMarker(o Option) bool {
	return o.Name == RegularSizeName || strings.HasPrefix(o.Name, sugarPrefix)
}

// OptionsTotal sums option prices.
func OptionsTotal(options []Option) decimal.Decimal {
	total := decimal.Zero
	for _, o := range options {
		total = total.Add(o.Price)
	}
	return total
}
