package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kapehan/cafe-pos/internal/app/model"
	"github.com/kapehan/cafe-pos/internal/app/service"
	"github.com/kapehan/cafe-pos/internal/middleware"
	"github.com/kapehan/cafe-pos/internal/pricing"
)

type OrderController struct {
	orderService service.OrderService
	analytics    service.AnalyticsService
}

func NewOrderController(orderService service.OrderService, analytics service.AnalyticsService) *OrderController {
	return &OrderController{
		orderService: orderService,
		analytics:    analytics,
	}
}

type VoidOrderRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

// PlaceOrder stores a checkout payload as sent
// POST /api/v1/orders
func (ctrl *OrderController) PlaceOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var payload pricing.CheckoutPayload
	if !bindJSON(c, &payload) {
		return
	}

	order, err := ctrl.orderService.PlaceOrder(&payload, userID, c.GetHeader("X-Register-Session"))
	if err != nil {
		respondError(c, err, "create order")
		return
	}

	log.Info("Order placed", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.Total.String(),
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed",
		"order":   order,
	})
}

// ListOrders GET /api/v1/orders?from=&to=&status=&payment_method=&cashier_id=&limit=&offset=
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	from, to, ok := parseDateRange(c, ctrl.analytics.Location())
	if !ok {
		return
	}

	opts := service.OrderListOptions{From: &from, To: &to}
	if status := c.Query("status"); status != "" {
		s := model.OrderStatus(status)
		opts.Status = &s
	}
	if method := c.Query("payment_method"); method != "" {
		m := pricing.PaymentMethod(method)
		opts.PaymentMethod = &m
	}
	if cashier := c.Query("cashier_id"); cashier != "" {
		if id, err := strconv.ParseUint(cashier, 10, 32); err == nil {
			cid := uint(id)
			opts.CashierID = &cid
		}
	}
	opts.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	opts.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, total, err := ctrl.orderService.ListOrders(opts)
	if err != nil {
		respondError(c, err, "list orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
		"total":  total,
	})
}

// GetOrder GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrder(id)
	if err != nil {
		respondError(c, err, "get order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// VoidOrder reverses a sale and restores its stock
// POST /api/v1/orders/:id/void
func (ctrl *OrderController) VoidOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req VoidOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := ctrl.orderService.VoidOrder(id, userID, req.Reason)
	if err != nil {
		respondError(c, err, "void order")
		return
	}

	log.Info("Order voided", map[string]interface{}{
		"order_id":  order.ID,
		"voided_by": userID,
	})
	c.JSON(http.StatusOK, gin.H{"order": order})
}
