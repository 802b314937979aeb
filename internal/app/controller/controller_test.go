package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/kapehan/cafe-pos/internal/app/model"
	"github.com/kapehan/cafe-pos/internal/app/repository"
	"github.com/kapehan/cafe-pos/internal/app/service"
	"github.com/kapehan/cafe-pos/internal/db"
	"github.com/kapehan/cafe-pos/internal/middleware"
	"github.com/kapehan/cafe-pos/internal/storage"
	posredis "github.com/kapehan/cafe-pos/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret"

type fakePresigner struct{}

func (fakePresigner) PresignMenuImage(_ context.Context, _, contentType string) (*storage.PresignedURLResponse, error) {
	key, err := storage.ObjectKey(storage.MenuImageFolder, contentType)
	if err != nil {
		return nil, err
	}
	return &storage.PresignedURLResponse{
		UploadURL: "https://upload.example.com/" + key,
		FileURL:   "https://cdn.example.com/" + key,
		Key:       key,
	}, nil
}

type apiTest struct {
	t         *testing.T
	db        *gorm.DB
	router    *gin.Engine
	auth      service.AuthService
	menu      service.MenuService
	inventory service.InventoryService
	orders    service.OrderService

	adminToken   string
	cashierToken string
}

// setupAPITest mounts every controller on a gin engine backed by SQLite and
// miniredis, and logs in an admin and a cashier.
func setupAPITest(t *testing.T) *apiTest {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	blacklist := posredis.NewTokenBlacklist(client)
	productRepo := repository.NewProductRepository(testDB)
	addOnRepo := repository.NewAddOnRepository(testDB)
	ingredientRepo := repository.NewIngredientRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	salesRepo := repository.NewSalesRepository(testDB)

	authService := service.NewAuthService(repository.NewUserRepository(testDB), blacklist, testJWTSecret, 15*time.Minute, 24*time.Hour)
	menuService := service.NewMenuService(productRepo, addOnRepo, ingredientRepo, posredis.NewJSONCache(client), time.Minute, nil,
		[]string{"coffee", "non_coffee", "tea", "frappe"})
	inventoryService := service.NewInventoryService(ingredientRepo, menuService, nil)
	orderService := service.NewOrderService(orderRepo, menuService, nil, testDB)
	registerService := service.NewRegisterService(posredis.NewSessionStore(client, "cart", time.Hour), menuService, orderService)
	analyticsService := service.NewAnalyticsService(orderRepo, salesRepo, time.UTC)

	authCtrl := NewAuthController(authService)
	menuCtrl := NewMenuController(menuService)
	inventoryCtrl := NewInventoryController(inventoryService)
	registerCtrl := NewRegisterController(registerService)
	orderCtrl := NewOrderController(orderService, analyticsService)
	analyticsCtrl := NewAnalyticsController(analyticsService, service.NewReportService(analyticsService))
	uploadCtrl := NewUploadController(fakePresigner{})

	authMW := middleware.NewAuthMiddleware(testJWTSecret, blacklist)
	admin := authMW.RequireRole(model.RoleAdmin)

	r := gin.New()
	r.POST("/auth/login", authCtrl.Login)
	r.POST("/auth/refresh", authCtrl.Refresh)

	api := r.Group("", authMW.Authenticate())
	api.POST("/auth/logout", authCtrl.Logout)
	api.GET("/auth/me", authCtrl.GetMe)
	api.GET("/auth/staff", admin, authCtrl.ListStaff)
	api.POST("/auth/staff", admin, authCtrl.CreateStaff)
	api.PATCH("/auth/staff/:id", admin, authCtrl.SetStaffActive)

	api.GET("/menu", menuCtrl.GetMenu)
	api.GET("/products", menuCtrl.ListProducts)
	api.GET("/products/:id", menuCtrl.GetProduct)
	api.POST("/products", admin, menuCtrl.CreateProduct)
	api.PATCH("/products/:id", admin, menuCtrl.UpdateProduct)
	api.DELETE("/products/:id", admin, menuCtrl.DeleteProduct)
	api.PUT("/products/:id/recipe", admin, menuCtrl.SetRecipe)
	api.GET("/add-ons", menuCtrl.ListAddOns)
	api.POST("/add-ons", admin, menuCtrl.CreateAddOn)

	api.GET("/ingredients", inventoryCtrl.ListIngredients)
	api.GET("/ingredients/low-stock", inventoryCtrl.LowStock)
	api.GET("/ingredients/:id/movements", inventoryCtrl.Movements)
	api.POST("/ingredients", admin, inventoryCtrl.CreateIngredient)
	api.DELETE("/ingredients/:id", admin, inventoryCtrl.DeleteIngredient)
	api.POST("/ingredients/:id/adjust", admin, inventoryCtrl.AdjustStock)

	api.POST("/registers", registerCtrl.Open)
	api.GET("/registers/:session", registerCtrl.Get)
	api.DELETE("/registers/:session", registerCtrl.Close)
	api.POST("/registers/:session/items", registerCtrl.AddItem)
	api.DELETE("/registers/:session/items", registerCtrl.Clear)
	api.PATCH("/registers/:session/items/:item", registerCtrl.UpdateItem)
	api.DELETE("/registers/:session/items/:item", registerCtrl.RemoveItem)
	api.PUT("/registers/:session/discount", registerCtrl.SetDiscount)
	api.POST("/registers/:session/checkout", registerCtrl.Checkout)

	api.POST("/orders", orderCtrl.PlaceOrder)
	api.GET("/orders", orderCtrl.ListOrders)
	api.GET("/orders/:id", orderCtrl.GetOrder)
	api.POST("/orders/:id/void", admin, orderCtrl.VoidOrder)

	api.GET("/analytics/dashboard", admin, analyticsCtrl.Dashboard)
	api.GET("/analytics/history", admin, analyticsCtrl.History)
	api.POST("/analytics/rollup", admin, analyticsCtrl.Rollup)
	api.GET("/analytics/report.xlsx", admin, analyticsCtrl.Report)

	api.POST("/uploads/menu-image", admin, uploadCtrl.PresignMenuImage)

	env := &apiTest{
		t:         t,
		db:        testDB,
		router:    r,
		auth:      authService,
		menu:      menuService,
		inventory: inventoryService,
		orders:    orderService,
	}
	env.adminToken = env.staff("owner@cafe.test", model.RoleAdmin)
	env.cashierToken = env.staff("cashier@cafe.test", model.RoleCashier)
	return env
}

func (e *apiTest) staff(email string, role model.UserRole) string {
	e.t.Helper()
	_, err := e.auth.CreateStaff(service.CreateStaffInput{Email: email, Password: "password123", Name: string(role), Role: role})
	require.NoError(e.t, err)
	_, tokens, err := e.auth.Login(email, "password123")
	require.NoError(e.t, err)
	return tokens.AccessToken
}

func (e *apiTest) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestMain(m *testing.M) {
	decimal.MarshalJSONWithoutQuotes = true
	os.Exit(m.Run())
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// money reads an amount encoded as a JSON number.
func money(t *testing.T, v interface{}) decimal.Decimal {
	t.Helper()
	f, ok := v.(float64)
	require.True(t, ok, "%v is not a JSON number", v)
	return decimal.NewFromFloat(f)
}

// latte creates a Latte (18g beans) and a Croissant with no recipe.
func (e *apiTest) latte(beansStock string) (latte, croissant *model.Product, beans *service.IngredientView) {
	e.t.Helper()
	var err error
	latte, err = e.menu.CreateProduct(service.ProductInput{Name: "Latte", Price: dec("120"), Category: model.CategoryCoffee})
	require.NoError(e.t, err)
	croissant, err = e.menu.CreateProduct(service.ProductInput{Name: "Croissant", Price: dec("85"), Category: model.CategoryPastry})
	require.NoError(e.t, err)
	beans, err = e.inventory.CreateIngredient(service.IngredientInput{
		Name: "Beans", Unit: "g", Stock: dec(beansStock), LowThreshold: dec("100"), CriticalThreshold: dec("40"),
	}, 0)
	require.NoError(e.t, err)
	_, err = e.menu.SetRecipe(latte.ID, []service.RecipeLineInput{{IngredientID: beans.ID, Quantity: dec("18")}})
	require.NoError(e.t, err)
	return latte, croissant, beans
}

func (e *apiTest) stockOf(id uint) decimal.Decimal {
	e.t.Helper()
	var ing model.Ingredient
	require.NoError(e.t, e.db.First(&ing, id).Error)
	return ing.Stock
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	code, _ := decodeBody(t, w)["error"].(string)
	return code
}
