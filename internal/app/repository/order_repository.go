package repository

import (
	"time"

	"github.com/kapehan/cafe-pos/internal/app/model"
	"github.com/kapehan/cafe-pos/internal/pricing"
	"github.com/kapehan/cafe-pos/pkg/logger"
	"gorm.io/gorm"
)

type OrderFilter struct {
	From          *time.Time
	To            *time.Time
	Status        *model.OrderStatus
	PaymentMethod *pricing.PaymentMethod
	CashierID     *uint
	Limit         int
	Offset        int
}

type OrderRepository interface {
	FindByID(id uint) (*model.Order, error)
	FindByNumber(number string) (*model.Order, error)
	FindAll(filter OrderFilter) ([]model.Order, int64, error)
	FindForPeriod(from, to time.Time) ([]model.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloadOrder() *gorm.DB {
	return r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Preload("Cashier")
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	if err := r.preloadOrder().First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByNumber(number string) (*model.Order, error) {
	var order model.Order
	if err := r.preloadOrder().Where("order_number = ?", number).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindAll pages through orders newest first and returns the unpaged total.
func (r *orderRepository) FindAll(filter OrderFilter) ([]model.Order, int64, error) {
	logger.Debug("Finding orders with filter", map[string]interface{}{
		"from":   filter.From,
		"to":     filter.To,
		"status": filter.Status,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})

	query := r.db.Model(&model.Order{})
	if filter.From != nil {
		query = query.Where("created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", filter.To.UTC())
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PaymentMethod != nil {
		query = query.Where("payment_method = ?", *filter.PaymentMethod)
	}
	if filter.CashierID != nil {
		query = query.Where("cashier_id = ?", *filter.CashierID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		logger.Error("Failed to count orders", err)
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var orders []model.Order
	if err := query.Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders", err)
		return nil, 0, err
	}
	return orders, total, nil
}

// FindForPeriod loads every order with items created in [from, to).
func (r *orderRepository) FindForPeriod(from, to time.Time) ([]model.Order, error) {
	var orders []model.Order
	if err := r.db.Preload("Items").
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to load orders for period", err, map[string]interface{}{
			"from": from,
			"to":   to,
		})
		return nil, err
	}
	return orders, nil
}
