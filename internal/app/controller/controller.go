package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kapehan/cafe-pos/internal/app/service"
	apperrors "github.com/kapehan/cafe-pos/internal/errors"
	"github.com/kapehan/cafe-pos/internal/middleware"
	"github.com/kapehan/cafe-pos/internal/pricing"
	"github.com/kapehan/cafe-pos/pkg/util"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// serviceErrors maps domain sentinels to responses. First match wins, so
// more specific errors come before the ones they wrap.
var serviceErrors = []errorMapping{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid email or password"},
	{service.ErrUserInactive, http.StatusForbidden, apperrors.AuthAccountDisabled, "This account is disabled"},
	{service.ErrInvalidToken, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid token"},
	{util.ErrExpiredToken, http.StatusUnauthorized, apperrors.AuthTokenExpired, "Session expired, please log in again"},
	{util.ErrInvalidToken, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid token"},
	{service.ErrEmailAlreadyExists, http.StatusConflict, apperrors.AuthEmailAlreadyExists, "Email is already in use"},
	{service.ErrWeakPassword, http.StatusBadRequest, apperrors.AuthWeakPassword, "Password must be at least 8 characters"},
	{service.ErrInvalidRole, http.StatusBadRequest, apperrors.ValidationInvalidInput, "Role must be admin or cashier"},
	{service.ErrUserNotFound, http.StatusNotFound, apperrors.ResourceNotFound, "User not found"},

	{service.ErrProductNotFound, http.StatusNotFound, apperrors.MenuProductNotFound, "Product not found"},
	{service.ErrProductUnavailable, http.StatusConflict, apperrors.MenuProductUnavailable, "Product is not available"},
	{service.ErrProductNameTaken, http.StatusConflict, apperrors.MenuNameTaken, "A product with that name already exists"},
	{service.ErrInvalidProductName, http.StatusBadRequest, apperrors.ValidationRequired, "Product name is required"},
	{service.ErrInvalidCategory, http.StatusBadRequest, apperrors.MenuInvalidCategory, "Unknown product category"},
	{service.ErrInvalidPrice, http.StatusBadRequest, apperrors.MenuInvalidPrice, "Price must be positive"},
	{service.ErrAddOnNotFound, http.StatusNotFound, apperrors.MenuAddOnNotFound, "Add-on not found"},
	{service.ErrAddOnNameTaken, http.StatusConflict, apperrors.MenuNameTaken, "An add-on with that name already exists"},
	{service.ErrInvalidRecipe, http.StatusBadRequest, apperrors.MenuInvalidRecipe, "Recipe lines need an existing ingredient and a positive quantity"},

	{service.ErrIngredientNotFound, http.StatusNotFound, apperrors.InventoryIngredientNotFound, "Ingredient not found"},
	{service.ErrIngredientNameTaken, http.StatusConflict, apperrors.MenuNameTaken, "An ingredient with that name already exists"},
	{service.ErrIngredientInUse, http.StatusConflict, apperrors.InventoryIngredientInUse, "Ingredient is used by a recipe"},
	{service.ErrInvalidThresholds, http.StatusBadRequest, apperrors.InventoryInvalidThresholds, "Thresholds must satisfy 0 <= critical <= low"},
	{service.ErrInvalidAdjustment, http.StatusBadRequest, apperrors.InventoryInvalidAdjustment, "Invalid stock adjustment"},
	{service.ErrInsufficientStock, http.StatusConflict, apperrors.InventoryInsufficientStock, "Not enough stock for this order"},

	{service.ErrRegisterNotFound, http.StatusNotFound, apperrors.CartSessionNotFound, "Register session not found or expired"},
	{service.ErrCartItemNotFound, http.StatusNotFound, apperrors.CartItemNotFound, "Cart item not found"},
	{pricing.ErrEmptyCart, http.StatusBadRequest, apperrors.CartEmpty, "Cart is empty"},
	{pricing.ErrInvalidDiscount, http.StatusBadRequest, apperrors.CartInvalidDiscount, "Discount percent must be between 0 and 100"},
	{service.ErrCheckoutInProgress, http.StatusConflict, apperrors.CartCheckoutBusy, "Checkout is already in progress for this register"},
	{service.ErrRegisterBusy, http.StatusConflict, apperrors.CartBusy, "Register is busy, please retry"},
	{pricing.ErrInvalidPrice, http.StatusBadRequest, apperrors.CartInvalidPrice, "Price must not be negative"},
	{pricing.ErrUnknownSize, http.StatusBadRequest, apperrors.CartInvalidSize, "Unknown size"},
	{pricing.ErrInvalidPaymentMethod, http.StatusBadRequest, apperrors.OrderInvalidPaymentMethod, "Payment method must be cash, gcash or card"},

	{service.ErrOrderNotFound, http.StatusNotFound, apperrors.OrderNotFound, "Order not found"},
	{service.ErrOrderAlreadyVoided, http.StatusConflict, apperrors.OrderAlreadyVoided, "Order is already voided"},
	{service.ErrInvalidOrder, http.StatusBadRequest, apperrors.OrderInvalidPayload, "Invalid order"},
	{pricing.ErrInvalidPayload, http.StatusBadRequest, apperrors.OrderInvalidPayload, "Invalid order"},

	{service.ErrInvalidRange, http.StatusBadRequest, apperrors.ValidationInvalidRange, "Invalid date range"},
}

// respondError writes the mapped response for err, or a parsed 500.
func respondError(c *gin.Context, err error, context string) {
	log := middleware.GetLoggerFromContext(c)

	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			log.Warn("Request failed", map[string]interface{}{
				"context": context,
				"error":   err.Error(),
			})
			apperrors.RespondWithError(c, m.status, m.code, m.message)
			return
		}
	}

	log.Error("Request failed", err, map[string]interface{}{
		"context": context,
	})
	apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, context)
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return false
	}
	return true
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func currentUserID(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
	}
	return userID, ok
}

// parseDateRange reads ?from=&to= as YYYY-MM-DD dates in loc and returns
// [from 00:00, to+1 00:00). Both default to today.
func parseDateRange(c *gin.Context, loc *time.Location) (time.Time, time.Time, bool) {
	today := time.Now().In(loc).Format("2006-01-02")
	fromStr := c.DefaultQuery("from", today)
	toStr := c.DefaultQuery("to", fromStr)

	from, err1 := time.ParseInLocation("2006-01-02", fromStr, loc)
	to, err2 := time.ParseInLocation("2006-01-02", toStr, loc)
	if err1 != nil || err2 != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Dates must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "to must not be before from")
		return time.Time{}, time.Time{}, false
	}
	return from, to.AddDate(0, 0, 1), true
}
