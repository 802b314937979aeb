package repository

import (
	"testing"

	"github.com/kapehan/cafe-pos/internal/app/model"
	"github.com/kapehan/cafe-pos/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createIngredient(t *testing.T, testDB *gorm.DB, name, stock, low, critical string) *model.Ingredient {
	t.Helper()
	ing := &model.Ingredient{
		Name:              name,
		Unit:              "g",
		Stock:             dec(stock),
		LowThreshold:      dec(low),
		CriticalThreshold: dec(critical),
	}
	require.NoError(t, testDB.Create(ing).Error)
	return ing
}

func createProduct(t *testing.T, testDB *gorm.DB, name string, price string, category model.ProductCategory) *model.Product {
	t.Helper()
	p := &model.Product{Name: name, Price: dec(price), Category: category, IsActive: true}
	require.NoError(t, testDB.Create(p).Error)
	return p
}
