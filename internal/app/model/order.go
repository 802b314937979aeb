package model

import (
	"time"

	"github.com/kapehan/cafe-pos/internal/pricing"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusVoided    OrderStatus = "voided"
)

// Order is a paid sale. Amounts are stored exactly as the register sent them.
type Order struct {
	ID                uint                  `gorm:"primarykey" json:"id"`
	OrderNumber       string                `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_number"`
	Subtotal          decimal.Decimal       `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	Discount          decimal.Decimal       `gorm:"type:numeric(12,2);not null" json:"discount"`
	Total             decimal.Decimal       `gorm:"type:numeric(12,2);not null" json:"total"`
	PaymentMethod     pricing.PaymentMethod `gorm:"type:varchar(20);index;not null" json:"payment_method"`
	Status            OrderStatus           `gorm:"type:varchar(20);default:'completed';index" json:"status"`
	CashierID         *uint                 `gorm:"index" json:"cashier_id,omitempty"`
	RegisterSessionID string                `gorm:"type:varchar(64);index" json:"register_session_id,omitempty"`
	VoidReason        string                `json:"void_reason,omitempty"`
	VoidedAt          *time.Time            `json:"voided_at,omitempty"`
	VoidedBy          *uint                 `json:"voided_by,omitempty"`
	CreatedAt         time.Time             `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`

	Items   []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Cashier *User       `gorm:"foreignKey:CashierID" json:"cashier,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID          uint             `gorm:"primarykey" json:"id"`
	OrderID     uint             `gorm:"not null;index" json:"order_id"`
	ProductID   uint             `gorm:"not null;index" json:"product_id"`
	ProductName string           `gorm:"not null" json:"product_name"`
	Category    ProductCategory  `gorm:"type:varchar(30);index" json:"category"`
	Quantity    int              `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	TotalPrice  decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"total_price"`
	Options     []pricing.Option `gorm:"serializer:json" json:"options"`
	Notes       string           `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time        `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
