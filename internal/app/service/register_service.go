package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kapehan/cafe-pos/internal/app/model"
	"github.com/kapehan/cafe-pos/internal/metrics"
	"github.com/kapehan/cafe-pos/internal/pricing"
	"github.com/kapehan/cafe-pos/pkg/logger"
	"github.com/kapehan/cafe-pos/pkg/redis"
	"github.com/shopspring/decimal"
)

var (
	ErrRegisterNotFound   = errors.New("register session not found")
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrCheckoutInProgress = errors.New("checkout already in progress for this register")
	ErrRegisterBusy       = errors.New("register is busy, try again")
	ErrCartNotCleared     = errors.New("order placed but cart could not be cleared")
)

// checkoutLockTTL bounds how long a crashed checkout can block its register.
const checkoutLockTTL = 30 * time.Second

// CartStore persists one cart per register session. Update must apply its
// function atomically with respect to other updates, and fail with
// redis.ErrSessionLocked while Lock is held.
type CartStore interface {
	Create(ctx context.Context, id string, v interface{}) error
	Load(ctx context.Context, id string, dst interface{}) error
	Save(ctx context.Context, id string, v interface{}) error
	Update(ctx context.Context, id string, fn redis.UpdateFunc) error
	Lock(ctx context.Context, id string, ttl time.Duration) (func(), error)
	Delete(ctx context.Context, id string) error
}

// RegisterView is a cart with its derived totals.
type RegisterView struct {
	SessionID string              `json:"session_id"`
	Cart      *pricing.Cart       `json:"cart"`
	Totals    pricing.OrderTotals `json:"totals"`
}

func viewOf(cart *pricing.Cart) *RegisterView {
	return &RegisterView{SessionID: cart.SessionID, Cart: cart, Totals: cart.Totals()}
}

type AddItemInput struct {
	ProductID       uint             `json:"product_id" binding:"required"`
	Size            pricing.SizeTier `json:"size"`
	Sugar           string           `json:"sugar"`
	AddOns          []string         `json:"add_ons"`
	Notes           string           `json:"notes"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
}

type RegisterService interface {
	Open(ctx context.Context) (*RegisterView, error)
	Get(ctx context.Context, sessionID string) (*RegisterView, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (*RegisterView, error)
	UpdateItem(ctx context.Context, sessionID, cartItemID string, delta int) (*RegisterView, error)
	RemoveItem(ctx context.Context, sessionID, cartItemID string) (*RegisterView, error)
	SetDiscount(ctx context.Context, sessionID string, percent decimal.Decimal) (*RegisterView, error)
	Clear(ctx context.Context, sessionID string) (*RegisterView, error)
	Close(ctx context.Context, sessionID string) error
	Checkout(ctx context.Context, sessionID string, method pricing.PaymentMethod, cashierID uint) (*model.Order, error)
}

type registerService struct {
	store  CartStore
	menu   MenuService
	orders OrderService
}

func NewRegisterService(store CartStore, menu MenuService, orders OrderService) RegisterService {
	return &registerService{store: store, menu: menu, orders: orders}
}

func (s *registerService) Open(ctx context.Context) (*RegisterView, error) {
	cart := pricing.NewCart(uuid.NewString())
	if err := s.store.Create(ctx, cart.SessionID, cart); err != nil {
		logger.Error("Failed to open register session", err)
		return nil, err
	}
	logger.Info("Register session opened", map[string]interface{}{
		"session_id": cart.SessionID,
	})
	return viewOf(cart), nil
}

func (s *registerService) load(ctx context.Context, sessionID string) (*pricing.Cart, error) {
	var cart pricing.Cart
	if err := s.store.Load(ctx, sessionID, &cart); err != nil {
		if errors.Is(err, redis.ErrSessionNotFound) {
			return nil, ErrRegisterNotFound
		}
		return nil, err
	}
	if cart.Entries == nil {
		cart.Entries = []pricing.CartEntry{}
	}
	return &cart, nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, redis.ErrSessionNotFound):
		return ErrRegisterNotFound
	case errors.Is(err, redis.ErrSessionLocked):
		return ErrCheckoutInProgress
	case errors.Is(err, redis.ErrSessionBusy):
		return ErrRegisterBusy
	}
	return err
}

// mutate applies fn to the stored cart atomically. fn may run more than once
// when requests for the same register race, so it must only touch the cart.
// It returns the metric kind recorded once the change is saved.
func (s *registerService) mutate(ctx context.Context, sessionID string, fn func(*pricing.Cart) (string, error)) (*RegisterView, error) {
	var (
		cart *pricing.Cart
		kind string
	)
	err := s.store.Update(ctx, sessionID, func(decode func(interface{}) error) (interface{}, error) {
		cart = &pricing.Cart{}
		if err := decode(cart); err != nil {
			return nil, err
		}
		if cart.Entries == nil {
			cart.Entries = []pricing.CartEntry{}
		}
		var err error
		if kind, err = fn(cart); err != nil {
			return nil, err
		}
		return cart, nil
	})
	if err != nil {
		err = storeError(err)
		if !errors.Is(err, ErrRegisterNotFound) && !errors.Is(err, ErrCheckoutInProgress) {
			logger.Warn("Failed to update cart", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
		return nil, err
	}
	metrics.RecordCartMutation(kind)
	return viewOf(cart), nil
}

func (s *registerService) Get(ctx context.Context, sessionID string) (*RegisterView, error) {
	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return viewOf(cart), nil
}

func (s *registerService) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*RegisterView, error) {
	product, err := s.menu.CatalogProduct(input.ProductID)
	if err != nil {
		return nil, err
	}
	selector, err := s.menu.Selector()
	if err != nil {
		return nil, err
	}
	options, err := selector.Select(product, pricing.Selection{
		Size:   input.Size,
		Sugar:  input.Sugar,
		AddOns: input.AddOns,
	})
	if err != nil {
		return nil, err
	}

	var entry pricing.CartEntry
	view, err := s.mutate(ctx, sessionID, func(cart *pricing.Cart) (string, error) {
		var merged bool
		var err error
		entry, merged, err = cart.AddOrMerge(product, options, input.Notes, input.DiscountPercent)
		if err != nil {
			return "", err
		}
		if merged {
			return "merge", nil
		}
		return "add", nil
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("Cart item added", map[string]interface{}{
		"session_id":   sessionID,
		"product_id":   product.ID,
		"cart_item_id": entry.CartItemID,
		"quantity":     entry.Quantity,
	})
	return view, nil
}

func (s *registerService) UpdateItem(ctx context.Context, sessionID, cartItemID string, delta int) (*RegisterView, error) {
	return s.mutate(ctx, sessionID, func(cart *pricing.Cart) (string, error) {
		if !cart.UpdateQuantity(cartItemID, delta) {
			return "", ErrCartItemNotFound
		}
		return "quantity", nil
	})
}

func (s *registerService) RemoveItem(ctx context.Context, sessionID, cartItemID string) (*RegisterView, error) {
	return s.mutate(ctx, sessionID, func(cart *pricing.Cart) (string, error) {
		if !cart.Remove(cartItemID) {
			return "", ErrCartItemNotFound
		}
		return "remove", nil
	})
}

func (s *registerService) SetDiscount(ctx context.Context, sessionID string, percent decimal.Decimal) (*RegisterView, error) {
	return s.mutate(ctx, sessionID, func(cart *pricing.Cart) (string, error) {
		if err := cart.SetOrderDiscount(percent); err != nil {
			return "", err
		}
		return "discount", nil
	})
}

func (s *registerService) Clear(ctx context.Context, sessionID string) (*RegisterView, error) {
	return s.mutate(ctx, sessionID, func(cart *pricing.Cart) (string, error) {
		cart.Clear()
		return "clear", nil
	})
}

func (s *registerService) Close(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	logger.Info("Register session closed", map[string]interface{}{
		"session_id": sessionID,
	})
	return nil
}

// Checkout hands the cart to order persistence and clears the cart only
// once the order is stored. A failed checkout leaves the cart as it was.
// The register is locked for the duration, so a repeated request cannot
// place the same cart twice, and cart edits are refused until it is done.
//
// If the order is stored but the cart cannot be cleared, the order is
// returned together with ErrCartNotCleared.
func (s *registerService) Checkout(ctx context.Context, sessionID string, method pricing.PaymentMethod, cashierID uint) (*model.Order, error) {
	unlock, err := s.store.Lock(ctx, sessionID, checkoutLockTTL)
	if err != nil {
		err = storeError(err)
		if errors.Is(err, ErrCheckoutInProgress) {
			metrics.RecordCheckout("rejected")
			logger.Warn("Checkout rejected: already in progress", map[string]interface{}{
				"session_id": sessionID,
			})
		}
		return nil, err
	}
	defer unlock()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	payload, err := cart.Checkout(method)
	if err != nil {
		metrics.RecordCheckout("rejected")
		logger.Warn("Checkout rejected", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return nil, err
	}

	order, err := s.orders.PlaceOrder(payload, cashierID, sessionID)
	if err != nil {
		metrics.RecordCheckout("failed")
		logger.Warn("Checkout failed, cart kept", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return nil, err
	}
	metrics.RecordCheckout("success")

	if err := s.clearAfterCheckout(ctx, cart); err != nil {
		logger.Error("Order placed but cart not cleared", err, map[string]interface{}{
			"session_id":   sessionID,
			"order_number": order.OrderNumber,
		})
		return order, fmt.Errorf("%w: %v", ErrCartNotCleared, err)
	}

	logger.Info("Checkout completed", map[string]interface{}{
		"session_id":   sessionID,
		"order_number": order.OrderNumber,
		"total":        order.Total.String(),
	})
	return order, nil
}

// clearAfterCheckout empties the checked-out cart. If the write fails the
// session is deleted instead, so the stale lines can never be checked out
// again.
func (s *registerService) clearAfterCheckout(ctx context.Context, cart *pricing.Cart) error {
	cart.Clear()
	saveErr := s.store.Save(ctx, cart.SessionID, cart)
	if saveErr == nil {
		return nil
	}
	if err := s.store.Delete(ctx, cart.SessionID); err != nil {
		return fmt.Errorf("save: %v, delete: %w", saveErr, err)
	}
	logger.Warn("Cart could not be cleared, register session closed", map[string]interface{}{
		"session_id": cart.SessionID,
		"error":      saveErr.Error(),
	})
	return nil
}
