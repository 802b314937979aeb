// Package metrics exposes Prometheus collectors for the POS service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	// HTTPRequestDuration tracks HTTP request duration by method, route, and status code.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cafe_pos",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cafe_pos",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	// CheckoutsTotal counts register checkouts by result
	// (success, empty_cart, invalid, insufficient_stock, error).
	CheckoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cafe_pos",
			Name:      "checkouts_total",
			Help:      "Register checkouts by result",
		},
		[]string{"result"},
	)

	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cafe_pos",
			Name:      "orders_placed_total",
			Help:      "Orders persisted by payment method",
		},
		[]string{"payment_method"},
	)

	OrderValue = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "cafe_pos",
			Name:      "order_value",
			Help:      "Order totals in the store currency",
			Buckets:   []float64{50, 100, 150, 200, 300, 500, 750, 1000, 2000},
		},
	)

	// CartMutationsTotal counts cart changes by kind (add, merge, quantity, remove, discount, clear).
	CartMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cafe_pos",
			Name:      "cart_mutations_total",
			Help:      "Cart mutations by kind",
		},
		[]string{"kind"},
	)

	MenuCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cafe_pos",
			Name:      "menu_cache_total",
			Help:      "Menu cache lookups by result",
		},
		[]string{"result"},
	)

	LowStockIngredients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cafe_pos",
			Name:      "low_stock_ingredients",
			Help:      "Ingredients at or below their low threshold at the last sweep",
		},
	)

	LiveSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cafe_pos",
			Name:      "live_subscribers",
			Help:      "Connected live dashboard clients",
		},
	)
)

// PrometheusMiddleware returns a Gin middleware that collects HTTP metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		statusCode := strconv.Itoa(c.Writer.Status())
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path, statusCode).Observe(time.Since(start).Seconds())
		HTTPRequestTotal.WithLabelValues(c.Request.Method, path, statusCode).Inc()
	}
}

func RecordCheckout(result string) {
	CheckoutsTotal.WithLabelValues(result).Inc()
}

func RecordOrder(paymentMethod string, total decimal.Decimal) {
	OrdersTotal.WithLabelValues(paymentMethod).Inc()
	OrderValue.Observe(total.InexactFloat64())
}

func RecordCartMutation(kind string) {
	CartMutationsTotal.WithLabelValues(kind).Inc()
}

func RecordMenuCache(result string) {
	MenuCacheTotal.WithLabelValues(result).Inc()
}
