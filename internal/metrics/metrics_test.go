package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(PrometheusMiddleware())
	router.GET("/menu", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	before := testutil.ToFloat64(HTTPRequestTotal.WithLabelValues(http.MethodGet, "/menu", "200"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/menu", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	after := testutil.ToFloat64(HTTPRequestTotal.WithLabelValues(http.MethodGet, "/menu", "200"))
	assert.Equal(t, before+1, after)
}

func TestPrometheusMiddleware_UnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(PrometheusMiddleware())

	before := testutil.ToFloat64(HTTPRequestTotal.WithLabelValues(http.MethodGet, "unmatched", "404"))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/123", nil))
	after := testutil.ToFloat64(HTTPRequestTotal.WithLabelValues(http.MethodGet, "unmatched", "404"))

	assert.Equal(t, before+1, after)
}

func TestRecordCheckout(t *testing.T) {
	before := testutil.ToFloat64(CheckoutsTotal.WithLabelValues("empty_cart"))
	RecordCheckout("empty_cart")
	assert.Equal(t, before+1, testutil.ToFloat64(CheckoutsTotal.WithLabelValues("empty_cart")))
}

func TestRecordOrder(t *testing.T) {
	before := testutil.ToFloat64(OrdersTotal.WithLabelValues("gcash"))
	RecordOrder("gcash", decimal.RequireFromString("306.99"))
	assert.Equal(t, before+1, testutil.ToFloat64(OrdersTotal.WithLabelValues("gcash")))
}

func TestRecordCartMutation(t *testing.T) {
	before := testutil.ToFloat64(CartMutationsTotal.WithLabelValues("merge"))
	RecordCartMutation("merge")
	RecordCartMutation("merge")
	assert.Equal(t, before+2, testutil.ToFloat64(CartMutationsTotal.WithLabelValues("merge")))
}
