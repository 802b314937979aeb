package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kapehan/cafe-pos/internal/app/service"
	"github.com/kapehan/cafe-pos/internal/middleware"
)

type InventoryController struct {
	inventoryService service.InventoryService
}

func NewInventoryController(inventoryService service.InventoryService) *InventoryController {
	return &InventoryController{
		inventoryService: inventoryService,
	}
}

// ListIngredients GET /api/v1/ingredients
func (ctrl *InventoryController) ListIngredients(c *gin.Context) {
	ingredients, err := ctrl.inventoryService.ListIngredients()
	if err != nil {
		respondError(c, err, "list ingredients")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ingredients": ingredients,
		"count":       len(ingredients),
	})
}

// LowStock lists ingredients at or below their low threshold
// GET /api/v1/ingredients/low-stock
func (ctrl *InventoryController) LowStock(c *gin.Context) {
	ingredients, err := ctrl.inventoryService.LowStock()
	if err != nil {
		respondError(c, err, "list low stock ingredients")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ingredients": ingredients,
		"count":       len(ingredients),
	})
}

// GetIngredient GET /api/v1/ingredients/:id
func (ctrl *InventoryController) GetIngredient(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ingredient, err := ctrl.inventoryService.GetIngredient(id)
	if err != nil {
		respondError(c, err, "get ingredient")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredient": ingredient})
}

// CreateIngredient POST /api/v1/ingredients
func (ctrl *InventoryController) CreateIngredient(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.IngredientInput
	if !bindJSON(c, &req) {
		return
	}

	ingredient, err := ctrl.inventoryService.CreateIngredient(req, userID)
	if err != nil {
		respondError(c, err, "create ingredient")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ingredient": ingredient})
}

// UpdateIngredient PATCH /api/v1/ingredients/:id
func (ctrl *InventoryController) UpdateIngredient(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.IngredientUpdateInput
	if !bindJSON(c, &req) {
		return
	}

	ingredient, err := ctrl.inventoryService.UpdateIngredient(id, req)
	if err != nil {
		respondError(c, err, "update ingredient")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredient": ingredient})
}

// DeleteIngredient DELETE /api/v1/ingredients/:id
func (ctrl *InventoryController) DeleteIngredient(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.inventoryService.DeleteIngredient(id); err != nil {
		respondError(c, err, "delete ingredient")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ingredient deleted"})
}

// AdjustStock books a restock, waste or correction
// POST /api/v1/ingredients/:id/adjust
func (ctrl *InventoryController) AdjustStock(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.StockAdjustInput
	if !bindJSON(c, &req) {
		return
	}

	ingredient, err := ctrl.inventoryService.AdjustStock(id, req, userID)
	if err != nil {
		respondError(c, err, "adjust ingredient stock")
		return
	}

	log.Info("Stock adjusted", map[string]interface{}{
		"ingredient_id": id,
		"delta":         req.Delta.String(),
		"reason":        req.Reason,
		"stock":         ingredient.Stock.String(),
	})
	c.JSON(http.StatusOK, gin.H{"ingredient": ingredient})
}

// Movements GET /api/v1/ingredients/:id/movements?limit=
func (ctrl *InventoryController) Movements(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	movements, err := ctrl.inventoryService.Movements(id, limit)
	if err != nil {
		respondError(c, err, "list stock movements")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"movements": movements,
		"count":     len(movements),
	})
}
