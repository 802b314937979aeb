package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySales is the nightly rollup of one business day. Date is the local
// calendar day in YYYY-MM-DD form.
type DailySales struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	Date        string          `gorm:"type:varchar(10);uniqueIndex;not null" json:"date"`
	OrderCount  int64           `json:"order_count"`
	VoidedCount int64           `json:"voided_count"`
	ItemsSold   int64           `json:"items_sold"`
	GrossSales  decimal.Decimal `gorm:"type:numeric(14,2)" json:"gross_sales"`
	Discounts   decimal.Decimal `gorm:"type:numeric(14,2)" json:"discounts"`
	NetSales    decimal.Decimal `gorm:"type:numeric(14,2)" json:"net_sales"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (DailySales) TableName() string {
	return "daily_sales"
}
