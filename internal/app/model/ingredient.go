package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type StockStatus string

const (
	StockInStock    StockStatus = "in_stock"
	StockLow        StockStatus = "low"
	StockCritical   StockStatus = "critical"
	StockOutOfStock StockStatus = "out_of_stock"
)

// Severity orders statuses from healthy (0) to out of stock (3).
func (s StockStatus) Severity() int {
	switch s {
	case StockLow:
		return 1
	case StockCritical:
		return 2
	case StockOutOfStock:
		return 3
	}
	return 0
}

type StockReason string

const (
	ReasonRestock    StockReason = "restock"
	ReasonWaste      StockReason = "waste"
	ReasonCorrection StockReason = "correction"
	ReasonSale       StockReason = "sale"
	ReasonVoid       StockReason = "void"
)

// ManualReason reports whether staff may record this reason by hand.
func (r StockReason) ManualReason() bool {
	return r == ReasonRestock || r == ReasonWaste || r == ReasonCorrection
}

// Ingredient is a stocked raw material, measured in Unit (g, ml, pc).
type Ingredient struct {
	ID                uint            `gorm:"primarykey" json:"id"`
	Name              string          `gorm:"uniqueIndex;not null" json:"name"`
	Unit              string          `gorm:"type:varchar(10);not null" json:"unit"`
	Stock             decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0" json:"stock"`
	LowThreshold      decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0" json:"low_threshold"`
	CriticalThreshold decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0" json:"critical_threshold"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (Ingredient) TableName() string {
	return "ingredients"
}

// Status labels the current stock level against the ingredient's thresholds.
func (i Ingredient) Status() StockStatus {
	return StatusFor(i.Stock, i.LowThreshold, i.CriticalThreshold)
}

func StatusFor(stock, low, critical decimal.Decimal) StockStatus {
	switch {
	case stock.LessThanOrEqual(decimal.Zero):
		return StockOutOfStock
	case stock.LessThanOrEqual(critical):
		return StockCritical
	case stock.LessThanOrEqual(low):
		return StockLow
	}
	return StockInStock
}

// RecipeItem is the amount of one ingredient a single serving consumes.
type RecipeItem struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	ProductID    uint            `gorm:"not null;uniqueIndex:idx_recipe_product_ingredient" json:"product_id"`
	IngredientID uint            `gorm:"not null;uniqueIndex:idx_recipe_product_ingredient" json:"ingredient_id"`
	Quantity     decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"quantity"`

	Ingredient Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
}

func (RecipeItem) TableName() string {
	return "recipe_items"
}

// StockMovement is the audit trail of every stock change.
type StockMovement struct {
	ID           uint            `gorm:"primarykey" json:"id"`
	IngredientID uint            `gorm:"not null;index" json:"ingredient_id"`
	Delta        decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"delta"`
	StockAfter   decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"stock_after"`
	Reason       StockReason     `gorm:"type:varchar(20);not null" json:"reason"`
	OrderID      *uint           `gorm:"index" json:"order_id,omitempty"`
	UserID       *uint           `json:"user_id,omitempty"`
	Note         string          `json:"note,omitempty"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
}

func (StockMovement) TableName() string {
	return "stock_movements"
}
