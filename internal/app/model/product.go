package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductCategory string

const (
	CategoryCoffee    ProductCategory = "coffee"
	CategoryNonCoffee ProductCategory = "non_coffee"
	CategoryTea       ProductCategory = "tea"
	CategoryFrappe    ProductCategory = "frappe"
	CategoryPastry    ProductCategory = "pastry"
	CategorySnack     ProductCategory = "snack"
	CategoryMeal      ProductCategory = "meal"
)

var productCategories = map[ProductCategory]bool{
	CategoryCoffee:    true,
	CategoryNonCoffee: true,
	CategoryTea:       true,
	CategoryFrappe:    true,
	CategoryPastry:    true,
	CategorySnack:     true,
	CategoryMeal:      true,
}

func (c ProductCategory) Valid() bool {
	return productCategories[c]
}

// Product is a menu item. Price is the base price before size and add-ons.
type Product struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	Name        string          `gorm:"uniqueIndex;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Category    ProductCategory `gorm:"type:varchar(30);index;not null" json:"category"`
	ImageURL    string          `json:"image_url"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	SortOrder   int             `gorm:"default:0" json:"sort_order"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`

	Recipe []RecipeItem `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"recipe,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// AddOn is an extra that can be put on any product, e.g. an extra shot.
type AddOn struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	Name      string          `gorm:"uniqueIndex;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	IsActive  bool            `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (AddOn) TableName() string {
	return "add_ons"
}
