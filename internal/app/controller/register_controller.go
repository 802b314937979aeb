package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kapehan/cafe-pos/internal/app/service"
	apperrors "github.com/kapehan/cafe-pos/internal/errors"
	"github.com/kapehan/cafe-pos/internal/middleware"
	"github.com/kapehan/cafe-pos/internal/pricing"
	"github.com/shopspring/decimal"
)

type RegisterController struct {
	registerService service.RegisterService
}

func NewRegisterController(registerService service.RegisterService) *RegisterController {
	return &RegisterController{
		registerService: registerService,
	}
}

type UpdateItemRequest struct {
	Delta int `json:"delta" binding:"required"`
}

type SetDiscountRequest struct {
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type CheckoutRequest struct {
	PaymentMethod pricing.PaymentMethod `json:"payment_method" binding:"required"`
}

// Open starts a register session with an empty cart
// POST /api/v1/registers
func (ctrl *RegisterController) Open(c *gin.Context) {
	view, err := ctrl.registerService.Open(c.Request.Context())
	if err != nil {
		respondError(c, err, "open register")
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Get GET /api/v1/registers/:session
func (ctrl *RegisterController) Get(c *gin.Context) {
	view, err := ctrl.registerService.Get(c.Request.Context(), c.Param("session"))
	if err != nil {
		respondError(c, err, "get register")
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddItem rings up a product, merging with an identical line
// POST /api/v1/registers/:session/items
func (ctrl *RegisterController) AddItem(c *gin.Context) {
	var req service.AddItemInput
	if !bindJSON(c, &req) {
		return
	}

	view, err := ctrl.registerService.AddItem(c.Request.Context(), c.Param("session"), req)
	if err != nil {
		respondError(c, err, "add cart item")
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateItem changes a line's quantity by delta; zero or below removes it
// PATCH /api/v1/registers/:session/items/:item
func (ctrl *RegisterController) UpdateItem(c *gin.Context) {
	var req UpdateItemRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := ctrl.registerService.UpdateItem(c.Request.Context(), c.Param("session"), c.Param("item"), req.Delta)
	if err != nil {
		respondError(c, err, "update cart item")
		return
	}
	c.JSON(http.StatusOK, view)
}

// RemoveItem DELETE /api/v1/registers/:session/items/:item
func (ctrl *RegisterController) RemoveItem(c *gin.Context) {
	view, err := ctrl.registerService.RemoveItem(c.Request.Context(), c.Param("session"), c.Param("item"))
	if err != nil {
		respondError(c, err, "remove cart item")
		return
	}
	c.JSON(http.StatusOK, view)
}

// SetDiscount PUT /api/v1/registers/:session/discount
func (ctrl *RegisterController) SetDiscount(c *gin.Context) {
	var req SetDiscountRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := ctrl.registerService.SetDiscount(c.Request.Context(), c.Param("session"), req.DiscountPercent)
	if err != nil {
		respondError(c, err, "set order discount")
		return
	}
	c.JSON(http.StatusOK, view)
}

// Clear empties the cart and keeps the session
// DELETE /api/v1/registers/:session/items
func (ctrl *RegisterController) Clear(c *gin.Context) {
	view, err := ctrl.registerService.Clear(c.Request.Context(), c.Param("session"))
	if err != nil {
		respondError(c, err, "clear cart")
		return
	}
	c.JSON(http.StatusOK, view)
}

// Close ends the session
// DELETE /api/v1/registers/:session
func (ctrl *RegisterController) Close(c *gin.Context) {
	if err := ctrl.registerService.Close(c.Request.Context(), c.Param("session")); err != nil {
		respondError(c, err, "close register")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Register closed"})
}

// Checkout turns the cart into an order
// POST /api/v1/registers/:session/checkout
func (ctrl *RegisterController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := ctrl.registerService.Checkout(c.Request.Context(), c.Param("session"), req.PaymentMethod, userID)
	if errors.Is(err, service.ErrCartNotCleared) && order != nil {
		log.Error("Order placed but cart not cleared", err, map[string]interface{}{
			"session_id":   c.Param("session"),
			"order_number": order.OrderNumber,
		})
		c.JSON(http.StatusMultiStatus, gin.H{
			"message": "Order placed, but the register cart could not be cleared",
			"error":   apperrors.OrderCartNotCleared,
			"order":   order,
		})
		return
	}
	if err != nil {
		respondError(c, err, "checkout")
		return
	}

	log.Info("Register checkout", map[string]interface{}{
		"session_id":   c.Param("session"),
		"order_number": order.OrderNumber,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed",
		"order":   order,
	})
}
