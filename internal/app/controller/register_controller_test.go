package controller

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kapehan/cafe-pos/internal/app/model"
	"github.com/kapehan/cafe-pos/internal/app/service"
	apperrors "github.com/kapehan/cafe-pos/internal/errors"
	"github.com/kapehan/cafe-pos/internal/middleware"
	"github.com/kapehan/cafe-pos/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *apiTest) openRegister() string {
	e.t.Helper()
	w := e.do(http.MethodPost, "/registers", e.cashierToken, nil)
	require.Equal(e.t, http.StatusCreated, w.Code)
	id, _ := decodeBody(e.t, w)["session_id"].(string)
	require.NotEmpty(e.t, id)
	return id
}

func cartEntries(t *testing.T, body map[string]interface{}) []interface{} {
	t.Helper()
	cart := body["cart"].(map[string]interface{})
	entries, _ := cart["entries"].([]interface{})
	return entries
}

func totalOf(t *testing.T, body map[string]interface{}) decimal.Decimal {
	t.Helper()
	return money(t, body["totals"].(map[string]interface{})["total"])
}

func TestRegisterController_Flow(t *testing.T) {
	env := setupAPITest(t)
	latte, croissant, beans := env.latte("1000")
	session := env.openRegister()
	base := "/registers/" + session

	w := env.do(http.MethodPost, base+"/items", env.cashierToken, service.AddItemInput{ProductID: latte.ID, Size: pricing.SizeMedium})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// same selection merges
	w = env.do(http.MethodPost, base+"/items", env.cashierToken, service.AddItemInput{ProductID: latte.ID, Size: pricing.SizeMedium})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	entries := cartEntries(t, body)
	require.Len(t, entries, 1)
	assert.Equal(t, float64(2), entries[0].(map[string]interface{})["quantity"])
	assert.True(t, dec("280").Equal(totalOf(t, body)))

	w = env.do(http.MethodPost, base+"/items", env.cashierToken, service.AddItemInput{ProductID: croissant.ID, Notes: "warm"})
	require.Equal(t, http.StatusOK, w.Code)
	entries = cartEntries(t, decodeBody(t, w))
	require.Len(t, entries, 2)
	croissantLine := entries[0].(map[string]interface{})["cart_item_id"].(string)

	w = env.do(http.MethodPatch, base+"/items/"+croissantLine, env.cashierToken, UpdateItemRequest{Delta: 1})
	require.Equal(t, http.StatusOK, w.Code)
	// 2 x 140 + 2 x 85
	assert.True(t, dec("450").Equal(totalOf(t, decodeBody(t, w))))

	w = env.do(http.MethodPut, base+"/discount", env.cashierToken, SetDiscountRequest{DiscountPercent: dec("10")})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, dec("405").Equal(totalOf(t, decodeBody(t, w))))

	w = env.do(http.MethodPut, base+"/discount", env.cashierToken, SetDiscountRequest{DiscountPercent: dec("120")})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CART_INVALID_DISCOUNT", errorCode(t, w))

	w = env.do(http.MethodPost, base+"/checkout", env.cashierToken, CheckoutRequest{PaymentMethod: pricing.PaymentGCash})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decodeBody(t, w)["order"].(map[string]interface{})
	assert.Equal(t, "gcash", order["payment_method"])
	assert.True(t, dec("405").Equal(money(t, order["total"])))

	// 2 lattes x 18g
	assert.True(t, dec("964").Equal(env.stockOf(beans.ID)))

	w = env.do(http.MethodGet, base, env.cashierToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, cartEntries(t, decodeBody(t, w)))

	w = env.do(http.MethodPost, base+"/checkout", env.cashierToken, CheckoutRequest{PaymentMethod: pricing.PaymentCash})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CART_EMPTY", errorCode(t, w))
}

func TestRegisterController_CheckoutKeepsCartOnFailure(t *testing.T) {
	env := setupAPITest(t)
	latte, _, _ := env.latte("20")
	session := env.openRegister()
	base := "/registers/" + session

	w := env.do(http.MethodPost, base+"/items", env.cashierToken, service.AddItemInput{ProductID: latte.ID})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodPost, base+"/items", env.cashierToken, service.AddItemInput{ProductID: latte.ID})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, base+"/checkout", env.cashierToken, CheckoutRequest{PaymentMethod: pricing.PaymentCash})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVENTORY_INSUFFICIENT_STOCK", errorCode(t, w))

	w = env.do(http.MethodGet, base, env.cashierToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, cartEntries(t, decodeBody(t, w)), 1)

	w = env.do(http.MethodPost, base+"/checkout", env.cashierToken, CheckoutRequest{PaymentMethod: "bitcoin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ORDER_INVALID_PAYMENT_METHOD", errorCode(t, w))
}

func TestRegisterController_Errors(t *testing.T) {
	env := setupAPITest(t)
	latte, _, _ := env.latte("1000")
	session := env.openRegister()

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{"Unknown session", http.MethodGet, "/registers/nope", nil, http.StatusNotFound, "CART_SESSION_NOT_FOUND"},
		{"Unknown product", http.MethodPost, "/registers/" + session + "/items", service.AddItemInput{ProductID: 9999}, http.StatusNotFound, "MENU_PRODUCT_NOT_FOUND"},
		{"Unknown size", http.MethodPost, "/registers/" + session + "/items", service.AddItemInput{ProductID: latte.ID, Size: "venti"}, http.StatusBadRequest, "CART_INVALID_SIZE"},
		{"Unknown line", http.MethodPatch, "/registers/" + session + "/items/missing", UpdateItemRequest{Delta: 1}, http.StatusNotFound, "CART_ITEM_NOT_FOUND"},
		{"Missing product", http.MethodPost, "/registers/" + session + "/items", map[string]interface{}{"size": "large"}, http.StatusBadRequest, "VALIDATION_INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(tt.method, tt.path, env.cashierToken, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}

	w := env.do(http.MethodDelete, fmt.Sprintf("/registers/%s", session), env.cashierToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodGet, fmt.Sprintf("/registers/%s", session), env.cashierToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// unclearedRegister stores the order but reports the cart was left behind.
type unclearedRegister struct {
	service.RegisterService
}

func (unclearedRegister) Checkout(context.Context, string, pricing.PaymentMethod, uint) (*model.Order, error) {
	return &model.Order{OrderNumber: "ORD20260501120000ABCD1234"}, fmt.Errorf("%w: redis write failed", service.ErrCartNotCleared)
}

func TestRegisterController_CheckoutCartNotCleared(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := NewRegisterController(unclearedRegister{})

	r := gin.New()
	r.POST("/registers/:session/checkout", func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uint(7))
		c.Next()
	}, ctrl.Checkout)

	req := httptest.NewRequest(http.MethodPost, "/registers/s1/checkout", strings.NewReader(`{"payment_method":"cash"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusMultiStatus, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, apperrors.OrderCartNotCleared, body["error"])
	assert.Equal(t, "ORD20260501120000ABCD1234", body["order"].(map[string]interface{})["order_number"])
}

func TestRespondError_PricingSentinels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("line 2: %w", pricing.ErrInvalidPrice), http.StatusBadRequest, apperrors.CartInvalidPrice},
		{service.ErrCheckoutInProgress, http.StatusConflict, apperrors.CartCheckoutBusy},
		{service.ErrRegisterBusy, http.StatusConflict, apperrors.CartBusy},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

		respondError(c, tc.err, "test")

		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Equal(t, tc.code, errorCode(t, w))
	}
}
