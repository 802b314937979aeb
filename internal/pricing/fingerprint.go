package pricing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"
)

// SortOptions returns a copy of options ordered by name, then price.
func SortOptions(options []Option) []Option {
	sorted := make([]Option, len(options))
	copy(sorted, options)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Price.LessThan(sorted[j].Price)
	})
	return sorted
}

// CanonicalForm is the unambiguous encoding a fingerprint is hashed from:
// a JSON array of product id, sorted [name, price] pairs, notes and discount
// percent. Prices and the percent use their shortest exact decimal form, so
// 20 and 20.00 encode the same. Notes are taken verbatim.
func CanonicalForm(productID uint, options []Option, notes string, discountPercent string) []byte {
	pairs := make([][2]string, 0, len(options))
	for _, o := range SortOptions(options) {
		pairs = append(pairs, [2]string{o.Name, o.Price.String()})
	}
	// Marshalling strings and string arrays cannot fail.
	b, _ := json.Marshal([]interface{}{
		strconv.FormatUint(uint64(productID), 10),
		pairs,
		notes,
		discountPercent,
	})
	return b
}

// Fingerprint identifies a cart line. Two selections with the same
// fingerprint are the same line regardless of the order options were picked.
func Fingerprint(productID uint, options []Option, notes string, discountPercent string) string {
	sum := sha256.Sum256(CanonicalForm(productID, options, notes, discountPercent))
	return hex.EncodeToString(sum[:])
}
