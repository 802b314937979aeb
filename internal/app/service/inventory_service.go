package service

import (
	"context"
	"errors"
	"strings"

	"github.com/kapehan/cafe-pos/internal/app/model"
	"github.com/kapehan/cafe-pos/internal/app/repository"
	ws "github.com/kapehan/cafe-pos/internal/websocket"
	"github.com/kapehan/cafe-pos/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrIngredientNotFound  = errors.New("ingredient not found")
	ErrIngredientNameTaken = errors.New("ingredient name already in use")
	ErrIngredientInUse     = errors.New("ingredient is used by a recipe")
	ErrInvalidThresholds   = errors.New("thresholds must satisfy 0 <= critical <= low")
	ErrInvalidAdjustment   = errors.New("invalid stock adjustment")
	ErrInsufficientStock   = errors.New("insufficient stock")
)

const defaultMovementLimit = 100

// IngredientView is an ingredient with its stock status label.
type IngredientView struct {
	model.Ingredient
	Status model.StockStatus `json:"status"`
}

func newIngredientView(i model.Ingredient) IngredientView {
	return IngredientView{Ingredient: i, Status: i.Status()}
}

// StockAlert is the stock_alert event payload.
type StockAlert struct {
	IngredientID uint              `json:"ingredient_id"`
	Name         string            `json:"name"`
	Unit         string            `json:"unit"`
	Stock        decimal.Decimal   `json:"stock"`
	Status       model.StockStatus `json:"status"`
}

func stockAlertFor(i model.Ingredient) StockAlert {
	return StockAlert{
		IngredientID: i.ID,
		Name:         i.Name,
		Unit:         i.Unit,
		Stock:        i.Stock,
		Status:       i.Status(),
	}
}

// Alert is the stock_alert payload for the ingredient.
func (v IngredientView) Alert() StockAlert {
	return stockAlertFor(v.Ingredient)
}

type IngredientInput struct {
	Name              string          `json:"name" binding:"required"`
	Unit              string          `json:"unit" binding:"required"`
	Stock             decimal.Decimal `json:"stock"`
	LowThreshold      decimal.Decimal `json:"low_threshold"`
	CriticalThreshold decimal.Decimal `json:"critical_threshold"`
}

type IngredientUpdateInput struct {
	Name              *string          `json:"name"`
	Unit              *string          `json:"unit"`
	LowThreshold      *decimal.Decimal `json:"low_threshold"`
	CriticalThreshold *decimal.Decimal `json:"critical_threshold"`
}

type StockAdjustInput struct {
	Delta  decimal.Decimal   `json:"delta"`
	Reason model.StockReason `json:"reason" binding:"required"`
	Note   string            `json:"note"`
}

type InventoryService interface {
	ListIngredients() ([]IngredientView, error)
	GetIngredient(id uint) (*IngredientView, error)
	CreateIngredient(input IngredientInput, userID uint) (*IngredientView, error)
	UpdateIngredient(id uint, input IngredientUpdateInput) (*IngredientView, error)
	DeleteIngredient(id uint) error
	AdjustStock(id uint, input StockAdjustInput, userID uint) (*IngredientView, error)
	LowStock() ([]IngredientView, error)
	Movements(id uint, limit int) ([]model.StockMovement, error)
}

type inventoryService struct {
	ingredientRepo repository.IngredientRepository
	menu           MenuService
	events         Publisher
}

func NewInventoryService(
	ingredientRepo repository.IngredientRepository,
	menu MenuService,
	events Publisher,
) InventoryService {
	return &inventoryService{
		ingredientRepo: ingredientRepo,
		menu:           menu,
		events:         publisherOrNop(events),
	}
}

func validThresholds(low, critical decimal.Decimal) bool {
	return !critical.IsNegative() && critical.LessThanOrEqual(low)
}

func viewsOf(ingredients []model.Ingredient) []IngredientView {
	views := make([]IngredientView, 0, len(ingredients))
	for _, i := range ingredients {
		views = append(views, newIngredientView(i))
	}
	return views
}

func (s *inventoryService) ListIngredients() ([]IngredientView, error) {
	ingredients, err := s.ingredientRepo.FindAll()
	if err != nil {
		return nil, err
	}
	return viewsOf(ingredients), nil
}

func (s *inventoryService) find(id uint) (*model.Ingredient, error) {
	ingredient, err := s.ingredientRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIngredientNotFound
		}
		return nil, err
	}
	return ingredient, nil
}

func (s *inventoryService) GetIngredient(id uint) (*IngredientView, error) {
	ingredient, err := s.find(id)
	if err != nil {
		return nil, err
	}
	view := newIngredientView(*ingredient)
	return &view, nil
}

func (s *inventoryService) invalidateMenu() {
	if s.menu != nil {
		s.menu.InvalidateMenu(context.Background())
	}
}

// CreateIngredient adds an ingredient with zero stock, then books any
// opening stock as a restock so the movement log starts complete.
func (s *inventoryService) CreateIngredient(input IngredientInput, userID uint) (*IngredientView, error) {
	name := strings.TrimSpace(input.Name)
	logger.Info("Creating ingredient", map[string]interface{}{
		"name": name,
		"unit": input.Unit,
	})

	if !validThresholds(input.LowThreshold, input.CriticalThreshold) {
		return nil, ErrInvalidThresholds
	}
	if input.Stock.IsNegative() {
		return nil, ErrInvalidAdjustment
	}
	if _, err := s.ingredientRepo.FindByName(name); err == nil {
		return nil, ErrIngredientNameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	ingredient := &model.Ingredient{
		Name:              name,
		Unit:              strings.TrimSpace(input.Unit),
		Stock:             decimal.Zero,
		LowThreshold:      input.LowThreshold,
		CriticalThreshold: input.CriticalThreshold,
	}
	if err := s.ingredientRepo.Create(ingredient); err != nil {
		return nil, err
	}

	if input.Stock.IsPositive() {
		return s.AdjustStock(ingredient.ID, StockAdjustInput{
			Delta:  input.Stock,
			Reason: model.ReasonRestock,
			Note:   "opening stock",
		}, userID)
	}

	s.invalidateMenu()
	view := newIngredientView(*ingredient)
	return &view, nil
}

func (s *inventoryService) UpdateIngredient(id uint, input IngredientUpdateInput) (*IngredientView, error) {
	ingredient, err := s.find(id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name != ingredient.Name {
			if existing, err := s.ingredientRepo.FindByName(name); err == nil && existing.ID != id {
				return nil, ErrIngredientNameTaken
			}
			ingredient.Name = name
		}
	}
	if input.Unit != nil {
		ingredient.Unit = strings.TrimSpace(*input.Unit)
	}
	if input.LowThreshold != nil {
		ingredient.LowThreshold = *input.LowThreshold
	}
	if input.CriticalThreshold != nil {
		ingredient.CriticalThreshold = *input.CriticalThreshold
	}
	if !validThresholds(ingredient.LowThreshold, ingredient.CriticalThreshold) {
		return nil, ErrInvalidThresholds
	}

	if err := s.ingredientRepo.Update(ingredient); err != nil {
		return nil, err
	}

	s.invalidateMenu()
	logger.Info("Ingredient updated", map[string]interface{}{
		"ingredient_id": id,
	})
	view := newIngredientView(*ingredient)
	return &view, nil
}

func (s *inventoryService) DeleteIngredient(id uint) error {
	uses, err := s.ingredientRepo.CountRecipeUses(id)
	if err != nil {
		return err
	}
	if uses > 0 {
		logger.Warn("Ingredient delete blocked: used by recipes", map[string]interface{}{
			"ingredient_id": id,
			"recipes":       uses,
		})
		return ErrIngredientInUse
	}
	if err := s.ingredientRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrIngredientNotFound
		}
		return err
	}
	s.invalidateMenu()
	return nil
}

// AdjustStock records a manual stock movement. Only restock, waste and
// correction may be booked by hand; sales and voids come from orders.
func (s *inventoryService) AdjustStock(id uint, input StockAdjustInput, userID uint) (*IngredientView, error) {
	if !input.Reason.ManualReason() || input.Delta.IsZero() {
		return nil, ErrInvalidAdjustment
	}
	if input.Reason == model.ReasonRestock && input.Delta.IsNegative() {
		return nil, ErrInvalidAdjustment
	}
	if input.Reason == model.ReasonWaste && input.Delta.IsPositive() {
		return nil, ErrInvalidAdjustment
	}

	change := repository.StockChange{
		IngredientID: id,
		Delta:        input.Delta,
		Reason:       input.Reason,
		Note:         input.Note,
	}
	if userID != 0 {
		change.UserID = &userID
	}

	result, err := s.ingredientRepo.Adjust(change)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrIngredientNotFound
		case errors.Is(err, repository.ErrNegativeStock):
			return nil, ErrInsufficientStock
		}
		logger.Error("Failed to adjust stock", err, map[string]interface{}{
			"ingredient_id": id,
		})
		return nil, err
	}

	logger.Info("Stock adjusted", map[string]interface{}{
		"ingredient_id": id,
		"delta":         input.Delta.String(),
		"reason":        input.Reason,
		"stock_after":   result.Ingredient.Stock.String(),
		"user_id":       userID,
	})

	s.invalidateMenu()
	if result.Crossed() {
		s.events.Publish(ws.EventStockAlert, stockAlertFor(result.Ingredient))
	}
	view := newIngredientView(result.Ingredient)
	return &view, nil
}

func (s *inventoryService) LowStock() ([]IngredientView, error) {
	ingredients, err := s.ingredientRepo.FindLowStock()
	if err != nil {
		return nil, err
	}
	return viewsOf(ingredients), nil
}

func (s *inventoryService) Movements(id uint, limit int) ([]model.StockMovement, error) {
	if _, err := s.find(id); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = defaultMovementLimit
	}
	return s.ingredientRepo.ListMovements(id, limit)
}
