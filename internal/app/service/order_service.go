package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kapehan/cafe-pos/internal/app/model"
	"github.com/kapehan/cafe-pos/internal/app/repository"
	"github.com/kapehan/cafe-pos/internal/metrics"
	"github.com/kapehan/cafe-pos/internal/pricing"
	ws "github.com/kapehan/cafe-pos/internal/websocket"
	"github.com/kapehan/cafe-pos/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidOrder       = errors.New("invalid order")
	ErrOrderAlreadyVoided = errors.New("order is already voided")
)

type OrderListOptions struct {
	From          *time.Time
	To            *time.Time
	Status        *model.OrderStatus
	PaymentMethod *pricing.PaymentMethod
	CashierID     *uint
	Limit         int
	Offset        int
}

// OrderEvent is the order_placed and order_voided event payload.
type OrderEvent struct {
	OrderID       uint                  `json:"order_id"`
	OrderNumber   string                `json:"order_number"`
	Total         decimal.Decimal       `json:"total"`
	PaymentMethod pricing.PaymentMethod `json:"payment_method"`
	ItemCount     int                   `json:"item_count"`
	CashierID     *uint                 `json:"cashier_id,omitempty"`
}

func orderEventFor(o *model.Order) OrderEvent {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return OrderEvent{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
		ItemCount:     count,
		CashierID:     o.CashierID,
	}
}

type OrderService interface {
	PlaceOrder(payload *pricing.CheckoutPayload, cashierID uint, sessionID string) (*model.Order, error)
	ListOrders(opts OrderListOptions) ([]model.Order, int64, error)
	GetOrder(id uint) (*model.Order, error)
	VoidOrder(id, userID uint, reason string) (*model.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	menu      MenuService
	events    Publisher
	db        *gorm.DB
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	menu MenuService,
	events Publisher,
	db *gorm.DB,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		menu:      menu,
		events:    publisherOrNop(events),
		db:        db,
	}
}

// NewOrderNumber returns ORD + timestamp + 8 random hex characters.
func NewOrderNumber(now time.Time) string {
	return "ORD" + now.Format("20060102150405") + strings.ToUpper(uuid.NewString()[:8])
}

// PlaceOrder stores the payload as sent and deducts recipe stock for every
// line, all in one transaction. Amounts are not recomputed.
func (s *orderService) PlaceOrder(payload *pricing.CheckoutPayload, cashierID uint, sessionID string) (*model.Order, error) {
	if payload == nil {
		return nil, ErrInvalidOrder
	}
	logger.Info("Placing order", map[string]interface{}{
		"cashier_id":     cashierID,
		"session_id":     sessionID,
		"items":          len(payload.Items),
		"total":          payload.Total.String(),
		"payment_method": payload.PaymentMethod,
	})

	if err := payload.Validate(); err != nil {
		logger.Warn("Order rejected: invalid payload", map[string]interface{}{
			"cashier_id": cashierID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during order placement, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"cashier_id": cashierID,
			})
			panic(r)
		}
	}()

	items := make([]model.OrderItem, 0, len(payload.Items))
	usage := make(map[uint]decimal.Decimal)
	for _, line := range payload.Items {
		var product model.Product
		if err := tx.Unscoped().First(&product, line.ProductID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Order rejected: product not found", map[string]interface{}{
					"product_id": line.ProductID,
				})
				return nil, ErrProductNotFound
			}
			return nil, err
		}

		var recipe []model.RecipeItem
		if err := tx.Where("product_id = ?", product.ID).Find(&recipe).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		qty := decimal.NewFromInt(int64(line.Quantity))
		for _, r := range recipe {
			usage[r.IngredientID] = usage[r.IngredientID].Add(r.Quantity.Mul(qty))
		}

		items = append(items, model.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Category:    product.Category,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			TotalPrice:  line.TotalPrice,
			Options:     line.Options,
			Notes:       line.Notes,
		})
	}

	order := &model.Order{
		OrderNumber:       NewOrderNumber(time.Now()),
		Subtotal:          payload.Subtotal,
		Discount:          payload.Discount,
		Total:             payload.Total,
		PaymentMethod:     payload.PaymentMethod,
		Status:            model.OrderStatusCompleted,
		RegisterSessionID: sessionID,
		Items:             items,
	}
	if cashierID != 0 {
		order.CashierID = &cashierID
	}

	if err := tx.Create(order).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create order", err, map[string]interface{}{
			"cashier_id": cashierID,
		})
		return nil, err
	}

	alerts, err := applyUsage(tx, usage, model.ReasonSale, order.ID, order.CashierID, -1)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, repository.ErrNegativeStock) {
			return nil, fmt.Errorf("%w: %v", ErrInsufficientStock, err)
		}
		logger.Error("Failed to deduct stock for order", err, map[string]interface{}{
			"order_number": order.OrderNumber,
		})
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit order transaction", err, map[string]interface{}{
			"order_number": order.OrderNumber,
		})
		return nil, err
	}

	logger.Info("Order placed successfully", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.Total.String(),
		"ingredients":  len(usage),
	})

	metrics.RecordOrder(string(order.PaymentMethod), order.Total)
	s.events.Publish(ws.EventOrderPlaced, orderEventFor(order))
	s.afterStockChange(alerts, len(usage) > 0)

	return s.orderRepo.FindByID(order.ID)
}

// applyUsage books sign*amount for each ingredient in ascending id order so
// concurrent orders lock rows in the same sequence.
func applyUsage(tx *gorm.DB, usage map[uint]decimal.Decimal, reason model.StockReason, orderID uint, userID *uint, sign int64) ([]StockAlert, error) {
	ids := make([]uint, 0, len(usage))
	for id := range usage {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var alerts []StockAlert
	for _, id := range ids {
		oid := orderID
		result, err := repository.ApplyStockChange(tx, repository.StockChange{
			IngredientID: id,
			Delta:        usage[id].Mul(decimal.NewFromInt(sign)),
			Reason:       reason,
			OrderID:      &oid,
			UserID:       userID,
		})
		if err != nil {
			return nil, err
		}
		if result.Crossed() {
			alerts = append(alerts, stockAlertFor(result.Ingredient))
		}
	}
	return alerts, nil
}

func (s *orderService) afterStockChange(alerts []StockAlert, stockMoved bool) {
	for _, alert := range alerts {
		s.events.Publish(ws.EventStockAlert, alert)
	}
	if stockMoved && s.menu != nil {
		s.menu.InvalidateMenu(context.Background())
	}
}

func (s *orderService) ListOrders(opts OrderListOptions) ([]model.Order, int64, error) {
	return s.orderRepo.FindAll(repository.OrderFilter{
		From:          opts.From,
		To:            opts.To,
		Status:        opts.Status,
		PaymentMethod: opts.PaymentMethod,
		CashierID:     opts.CashierID,
		Limit:         opts.Limit,
		Offset:        opts.Offset,
	})
}

func (s *orderService) GetOrder(id uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		logger.Error("Failed to fetch order", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}
	return order, nil
}

// VoidOrder marks the order voided and returns to stock exactly what its
// sale movements took out.
func (s *orderService) VoidOrder(id, userID uint, reason string) (*model.Order, error) {
	logger.Info("Voiding order", map[string]interface{}{
		"order_id": id,
		"user_id":  userID,
	})

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during order void, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"order_id": id,
			})
			panic(r)
		}
	}()

	var order model.Order
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.Status == model.OrderStatusVoided {
		tx.Rollback()
		return nil, ErrOrderAlreadyVoided
	}

	var movements []model.StockMovement
	if err := tx.Where("order_id = ? AND reason = ?", order.ID, model.ReasonSale).
		Find(&movements).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	usage := make(map[uint]decimal.Decimal)
	for _, m := range movements {
		usage[m.IngredientID] = usage[m.IngredientID].Add(m.Delta)
	}

	var voidedBy *uint
	if userID != 0 {
		voidedBy = &userID
	}
	// Sale deltas are negative; restoring flips them back.
	if _, err := applyUsage(tx, usage, model.ReasonVoid, order.ID, voidedBy, -1); err != nil {
		tx.Rollback()
		logger.Error("Failed to restore stock for void", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}

	now := time.Now()
	if err := tx.Model(&order).Updates(map[string]interface{}{
		"status":      model.OrderStatusVoided,
		"void_reason": strings.TrimSpace(reason),
		"voided_at":   now,
		"voided_by":   voidedBy,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit order void", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}

	voided, err := s.GetOrder(id)
	if err != nil {
		return nil, err
	}

	logger.Info("Order voided", map[string]interface{}{
		"order_id":     id,
		"order_number": voided.OrderNumber,
	})
	s.events.Publish(ws.EventOrderVoided, orderEventFor(voided))
	s.afterStockChange(nil, len(usage) > 0)
	return voided, nil
}
