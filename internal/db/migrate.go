package db

import (
	"errors"
	"fmt"

	"github.com/kapehan/cafe-pos/config"
	"github.com/kapehan/cafe-pos/internal/app/model"
	"github.com/kapehan/cafe-pos/pkg/logger"
	"github.com/kapehan/cafe-pos/pkg/util"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Models lists every table the service owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Product{},
		&model.AddOn{},
		&model.Ingredient{},
		&model.RecipeItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.StockMovement{},
		&model.DailySales{},
	}
}

// Migrate runs database migrations and seeds reference data.
func Migrate(boot config.BootstrapConfig) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := SeedDefaults(DB, boot); err != nil {
		logger.Error("Failed to seed initial data during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", logger.Fields{
		"models_count": len(models),
	})
	return nil
}

// defaultAddOns is the add-on price list a fresh install starts with.
var defaultAddOns = []model.AddOn{
	{Name: "Milk", Price: decimal.NewFromInt(20), IsActive: true},
	{Name: "Oat Milk", Price: decimal.NewFromInt(35), IsActive: true},
	{Name: "Extra Shot", Price: decimal.NewFromInt(30), IsActive: true},
	{Name: "Whipped Cream", Price: decimal.NewFromInt(25), IsActive: true},
	{Name: "Caramel Drizzle", Price: decimal.NewFromInt(15), IsActive: true},
	{Name: "Vanilla Syrup", Price: decimal.NewFromInt(15), IsActive: true},
}

// SeedDefaults inserts the default add-ons and the bootstrap admin when
// their tables are empty. It is safe to run on every start.
func SeedDefaults(db *gorm.DB, boot config.BootstrapConfig) error {
	if err := seedAddOns(db); err != nil {
		return fmt.Errorf("seed add-ons: %w", err)
	}
	if err := seedAdmin(db, boot); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}

func seedAddOns(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.AddOn{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Debug("Add-ons already seeded, skipping", logger.Fields{"existing_count": count})
		return nil
	}

	addOns := make([]model.AddOn, len(defaultAddOns))
	copy(addOns, defaultAddOns)
	if err := db.Create(&addOns).Error; err != nil {
		return err
	}

	logger.Info("Add-ons seeded", logger.Fields{"count": len(addOns)})
	return nil
}

func seedAdmin(db *gorm.DB, boot config.BootstrapConfig) error {
	if boot.AdminEmail == "" || boot.AdminPassword == "" {
		return nil
	}

	var existing model.User
	err := db.Where("role = ?", model.RoleAdmin).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := util.HashPassword(boot.AdminPassword)
	if err != nil {
		return err
	}
	admin := model.User{
		Email:        boot.AdminEmail,
		PasswordHash: hash,
		Name:         boot.AdminName,
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	logger.Info("Bootstrap admin created", logger.Fields{"email": admin.Email})
	return nil
}
