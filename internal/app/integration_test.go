package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	gorillaws "github.com/gorilla/websocket"
	"github.com/kapehan/cafe-pos/config"
	"github.com/kapehan/cafe-pos/internal/app/controller"
	"github.com/kapehan/cafe-pos/internal/app/repository"
	"github.com/kapehan/cafe-pos/internal/app/service"
	"github.com/kapehan/cafe-pos/internal/db"
	"github.com/kapehan/cafe-pos/internal/middleware"
	"github.com/kapehan/cafe-pos/internal/router"
	"github.com/kapehan/cafe-pos/internal/storage"
	ws "github.com/kapehan/cafe-pos/internal/websocket"
	posredis "github.com/kapehan/cafe-pos/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	decimal.MarshalJSONWithoutQuotes = true
	os.Exit(m.Run())
}

type TestServer struct {
	Server *httptest.Server
	Hub    *ws.Hub
}

func setupIntegrationTest(t *testing.T) *TestServer {
	t.Helper()

	cfg := &config.Config{
		Server:    config.ServerConfig{GinMode: "test"},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Bootstrap: config.BootstrapConfig{AdminEmail: "owner@cafe.test", AdminPassword: "password123", AdminName: "Owner"},
	}

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	require.NoError(t, db.SeedDefaults(testDB, cfg.Bootstrap))

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub()
	go hub.Run(ctx)
	dashboard := hub.Topic(ws.TopicDashboard)

	productRepo := repository.NewProductRepository(testDB)
	addOnRepo := repository.NewAddOnRepository(testDB)
	ingredientRepo := repository.NewIngredientRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)

	blacklist := posredis.NewTokenBlacklist(client)
	authService := service.NewAuthService(repository.NewUserRepository(testDB), blacklist, "test-secret", 15*time.Minute, time.Hour)
	menuService := service.NewMenuService(productRepo, addOnRepo, ingredientRepo, posredis.NewJSONCache(client), time.Minute, dashboard,
		[]string{"coffee", "non_coffee", "tea", "frappe"})
	inventoryService := service.NewInventoryService(ingredientRepo, menuService, dashboard)
	orderService := service.NewOrderService(orderRepo, menuService, dashboard, testDB)
	registerService := service.NewRegisterService(posredis.NewSessionStore(client, "cart", time.Hour), menuService, orderService)
	analyticsService := service.NewAnalyticsService(orderRepo, repository.NewSalesRepository(testDB), time.UTC)

	r := router.NewRouter(
		controller.NewAuthController(authService),
		controller.NewMenuController(menuService),
		controller.NewInventoryController(inventoryService),
		controller.NewRegisterController(registerService),
		controller.NewOrderController(orderService, analyticsService),
		controller.NewAnalyticsController(analyticsService, service.NewReportService(analyticsService)),
		controller.NewUploadController(storage.NewS3Storage(ctx, storage.S3Options{
			Region: "ap-southeast-1", Bucket: "cafe-menu", AccessKeyID: "a", SecretAccessKey: "b",
		})),
		controller.NewLiveController(hub, cfg.CORS.AllowedOrigins),
		middleware.NewAuthMiddleware("test-secret", blacklist),
		map[string]router.HealthCheck{
			"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
		},
		cfg,
	)

	srv := httptest.NewServer(r.Setup())
	t.Cleanup(srv.Close)
	return &TestServer{Server: srv, Hub: hub}
}

func (s *TestServer) call(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (s *TestServer) login(t *testing.T, email string) string {
	t.Helper()
	status, body := s.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": "password123"})
	require.Equal(t, http.StatusOK, status, body)
	return body["tokens"].(map[string]interface{})["access_token"].(string)
}

func TestIntegration_HealthAndMetrics(t *testing.T) {
	s := setupIntegrationTest(t)

	status, body := s.call(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	resp, err := s.Server.Client().Get(s.Server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "cafe_pos_http_requests_total")

	status, _ = s.call(t, http.MethodGet, "/api/v1/menu", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestIntegration_CheckoutReachesLiveDashboard(t *testing.T) {
	s := setupIntegrationTest(t)
	admin := s.login(t, "owner@cafe.test")

	status, _ := s.call(t, http.MethodPost, "/api/v1/auth/staff", admin, map[string]string{
		"email": "cashier@cafe.test", "password": "password123", "name": "Cashier", "role": "cashier",
	})
	require.Equal(t, http.StatusCreated, status)
	cashier := s.login(t, "cashier@cafe.test")

	status, body := s.call(t, http.MethodPost, "/api/v1/ingredients", admin, map[string]string{
		"name": "Beans", "unit": "g", "stock": "100", "low_threshold": "90", "critical_threshold": "30",
	})
	require.Equal(t, http.StatusCreated, status, body)
	beansID := body["ingredient"].(map[string]interface{})["id"]

	status, body = s.call(t, http.MethodPost, "/api/v1/products", admin, map[string]string{
		"name": "Americano", "price": "95", "category": "coffee",
	})
	require.Equal(t, http.StatusCreated, status, body)
	productID := body["product"].(map[string]interface{})["id"]

	status, _ = s.call(t, http.MethodPut, fmt.Sprintf("/api/v1/products/%v/recipe", productID), admin, map[string]interface{}{
		"items": []map[string]interface{}{{"ingredient_id": beansID, "quantity": "18"}},
	})
	require.Equal(t, http.StatusOK, status)

	// live feed
	wsURL := "ws" + strings.TrimPrefix(s.Server.URL, "http") + "/api/v1/ws/dashboard?token=" + admin
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.Hub.Subscribers(ws.TopicDashboard) == 1 }, 2*time.Second, 10*time.Millisecond)

	status, body = s.call(t, http.MethodPost, "/api/v1/registers", cashier, nil)
	require.Equal(t, http.StatusCreated, status)
	session := body["session_id"].(string)

	status, _ = s.call(t, http.MethodPost, "/api/v1/registers/"+session+"/items", cashier, map[string]interface{}{
		"product_id": productID, "size": "large",
	})
	require.Equal(t, http.StatusOK, status)

	status, body = s.call(t, http.MethodPost, "/api/v1/registers/"+session+"/checkout", cashier, map[string]string{"payment_method": "cash"})
	require.Equal(t, http.StatusCreated, status, body)
	orderNumber := body["order"].(map[string]interface{})["order_number"]

	seen := map[string]bool{}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for !seen[ws.EventOrderPlaced] || !seen[ws.EventStockAlert] {
		var event struct {
			Type    string                 `json:"type"`
			Payload map[string]interface{} `json:"payload"`
		}
		require.NoError(t, conn.ReadJSON(&event))
		seen[event.Type] = true
		if event.Type == ws.EventOrderPlaced {
			assert.Equal(t, orderNumber, event.Payload["order_number"])
			assert.Equal(t, "cash", event.Payload["payment_method"])
		}
	}

	// 100g - 18g crosses the 90g low threshold
	status, body = s.call(t, http.MethodGet, "/api/v1/ingredients/low-stock", cashier, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["count"])

	status, _ = s.call(t, http.MethodGet, "/api/v1/analytics/dashboard", cashier, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, body = s.call(t, http.MethodGet, "/api/v1/analytics/dashboard", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["summary"].(map[string]interface{})["order_count"])
}
