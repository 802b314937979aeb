package service

import "github.com/kapehan/cafe-pos/internal/app/model"

// Availability is what the register shows next to a product.
type Availability struct {
	Available bool `json:"available"`
	LowStock  bool `json:"low_stock"`
}

// ProductAvailability derives availability from a recipe whose ingredients
// are loaded. A product with no recipe is always available.
func ProductAvailability(recipe []model.RecipeItem) Availability {
	a := Availability{Available: true}
	for _, item := range recipe {
		status := item.Ingredient.Status()
		switch status {
		case model.StockOutOfStock:
			a.Available = false
		case model.StockLow, model.StockCritical:
			a.LowStock = true
		}
		if item.Ingredient.Stock.LessThan(item.Quantity) {
			a.Available = false
		}
	}
	return a
}
