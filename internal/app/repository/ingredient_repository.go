package repository

import (
	"errors"
	"fmt"

	"github.com/kapehan/cafe-pos/internal/app/model"
	"github.com/kapehan/cafe-pos/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNegativeStock is returned when a movement would take stock below zero.
var ErrNegativeStock = errors.New("stock would go negative")

// StockChange is one movement to apply to an ingredient.
type StockChange struct {
	IngredientID uint
	Delta        decimal.Decimal
	Reason       model.StockReason
	OrderID      *uint
	UserID       *uint
	Note         string
}

// StockResult reports an applied change with the status before and after.
type StockResult struct {
	Ingredient model.Ingredient
	Before     model.StockStatus
	After      model.StockStatus
	Movement   model.StockMovement
}

// Crossed reports whether the change made the ingredient's status worse.
func (r StockResult) Crossed() bool {
	return r.After.Severity() > r.Before.Severity()
}

type IngredientRepository interface {
	Create(ingredient *model.Ingredient) error
	FindAll() ([]model.Ingredient, error)
	FindByID(id uint) (*model.Ingredient, error)
	FindByName(name string) (*model.Ingredient, error)
	FindLowStock() ([]model.Ingredient, error)
	Update(ingredient *model.Ingredient) error
	Delete(id uint) error
	CountRecipeUses(id uint) (int64, error)
	Adjust(change StockChange) (*StockResult, error)
	ListMovements(ingredientID uint, limit int) ([]model.StockMovement, error)
}

type ingredientRepository struct {
	db *gorm.DB
}

func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

func (r *ingredientRepository) Create(ingredient *model.Ingredient) error {
	logger.Debug("Creating ingredient in database", map[string]interface{}{
		"name": ingredient.Name,
		"unit": ingredient.Unit,
	})
	return r.db.Create(ingredient).Error
}

func (r *ingredientRepository) FindAll() ([]model.Ingredient, error) {
	var ingredients []model.Ingredient
	if err := r.db.Order("name ASC").Find(&ingredients).Error; err != nil {
		logger.Error("Failed to list ingredients", err)
		return nil, err
	}
	return ingredients, nil
}

func (r *ingredientRepository) FindByID(id uint) (*model.Ingredient, error) {
	var ingredient model.Ingredient
	if err := r.db.First(&ingredient, id).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (r *ingredientRepository) FindByName(name string) (*model.Ingredient, error) {
	var ingredient model.Ingredient
	if err := r.db.Where("name = ?", name).First(&ingredient).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

// FindLowStock returns ingredients at or below their low threshold, worst first.
func (r *ingredientRepository) FindLowStock() ([]model.Ingredient, error) {
	var ingredients []model.Ingredient
	if err := r.db.Where("stock <= low_threshold OR stock <= 0").
		Order("stock ASC").
		Find(&ingredients).Error; err != nil {
		logger.Error("Failed to find low stock ingredients", err)
		return nil, err
	}
	return ingredients, nil
}

// Update saves name, unit and thresholds. Stock only changes through Adjust.
func (r *ingredientRepository) Update(ingredient *model.Ingredient) error {
	logger.Debug("Updating ingredient in database", map[string]interface{}{
		"ingredient_id": ingredient.ID,
	})
	return r.db.Model(ingredient).
		Select("name", "unit", "low_threshold", "critical_threshold").
		Updates(ingredient).Error
}

func (r *ingredientRepository) Delete(id uint) error {
	result := r.db.Delete(&model.Ingredient{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete ingredient", result.Error, map[string]interface{}{
			"ingredient_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ingredientRepository) CountRecipeUses(id uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.RecipeItem{}).Where("ingredient_id = ?", id).Count(&count).Error
	return count, err
}

func (r *ingredientRepository) Adjust(change StockChange) (*StockResult, error) {
	var result *StockResult
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res, err := ApplyStockChange(tx, change)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *ingredientRepository) ListMovements(ingredientID uint, limit int) ([]model.StockMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var movements []model.StockMovement
	if err := r.db.Where("ingredient_id = ?", ingredientID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// ApplyStockChange locks the ingredient row, applies the delta and records
// the movement. It must run inside tx; the caller owns commit and rollback.
func ApplyStockChange(tx *gorm.DB, change StockChange) (*StockResult, error) {
	var ingredient model.Ingredient
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&ingredient, change.IngredientID).Error; err != nil {
		return nil, err
	}

	before := ingredient.Status()
	newStock := ingredient.Stock.Add(change.Delta)
	if newStock.IsNegative() {
		logger.Warn("Stock change rejected: would go negative", map[string]interface{}{
			"ingredient_id": ingredient.ID,
			"stock":         ingredient.Stock.String(),
			"delta":         change.Delta.String(),
			"reason":        change.Reason,
		})
		return nil, fmt.Errorf("%w: %s has %s %s", ErrNegativeStock, ingredient.Name, ingredient.Stock.String(), ingredient.Unit)
	}

	if err := tx.Model(&ingredient).Update("stock", newStock).Error; err != nil {
		return nil, err
	}
	ingredient.Stock = newStock

	movement := model.StockMovement{
		IngredientID: ingredient.ID,
		Delta:        change.Delta,
		StockAfter:   newStock,
		Reason:       change.Reason,
		OrderID:      change.OrderID,
		UserID:       change.UserID,
		Note:         change.Note,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return nil, err
	}

	logger.Debug("Stock change applied", map[string]interface{}{
		"ingredient_id": ingredient.ID,
		"delta":         change.Delta.String(),
		"stock_after":   newStock.String(),
		"reason":        change.Reason,
	})

	return &StockResult{
		Ingredient: ingredient,
		Before:     before,
		After:      ingredient.Status(),
		Movement:   movement,
	}, nil
}
