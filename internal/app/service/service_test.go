package service

import (
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kapehan/cafe-pos/internal/app/model"
	"github.com/kapehan/cafe-pos/internal/app/repository"
	"github.com/kapehan/cafe-pos/internal/db"
	posredis "github.com/kapehan/cafe-pos/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testDrinkCategories = []string{"coffee", "non_coffee", "tea", "frappe"}

type publishedEvent struct {
	Type    string
	Payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Type: eventType, Payload: payload})
}

func (p *recordingPublisher) ofType(eventType string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// testEnv wires every service against SQLite and miniredis.
type testEnv struct {
	db        *gorm.DB
	redis     *miniredis.Miniredis
	client    *goredis.Client
	events    *recordingPublisher
	menu      MenuService
	inventory InventoryService
	orders    OrderService
	register  RegisterService
	analytics AnalyticsService
}

func setupServiceTest(t *testing.T) *testEnv {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	events := &recordingPublisher{}
	productRepo := repository.NewProductRepository(testDB)
	addOnRepo := repository.NewAddOnRepository(testDB)
	ingredientRepo := repository.NewIngredientRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	salesRepo := repository.NewSalesRepository(testDB)

	menu := NewMenuService(productRepo, addOnRepo, ingredientRepo, posredis.NewJSONCache(client), time.Minute, events, testDrinkCategories)
	orders := NewOrderService(orderRepo, menu, events, testDB)

	return &testEnv{
		db:        testDB,
		redis:     mr,
		client:    client,
		events:    events,
		menu:      menu,
		inventory: NewInventoryService(ingredientRepo, menu, events),
		orders:    orders,
		register:  NewRegisterService(posredis.NewSessionStore(client, "cart", time.Hour), menu, orders),
		analytics: NewAnalyticsService(orderRepo, salesRepo, time.UTC),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (e *testEnv) product(t *testing.T, name, price string, category model.ProductCategory) *model.Product {
	t.Helper()
	p, err := e.menu.CreateProduct(ProductInput{Name: name, Price: dec(price), Category: category})
	require.NoError(t, err)
	return p
}

func (e *testEnv) ingredient(t *testing.T, name, stock, low, critical string) *model.Ingredient {
	t.Helper()
	view, err := e.inventory.CreateIngredient(IngredientInput{
		Name:              name,
		Unit:              "g",
		Stock:             dec(stock),
		LowThreshold:      dec(low),
		CriticalThreshold: dec(critical),
	}, 0)
	require.NoError(t, err)
	return &view.Ingredient
}

func (e *testEnv) addOn(t *testing.T, name, price string) {
	t.Helper()
	_, err := e.menu.CreateAddOn(AddOnInput{Name: name, Price: dec(price)})
	require.NoError(t, err)
}

func (e *testEnv) stockOf(t *testing.T, id uint) decimal.Decimal {
	t.Helper()
	var ing model.Ingredient
	require.NoError(t, e.db.First(&ing, id).Error)
	return ing.Stock
}
