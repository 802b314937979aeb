package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kapehan/cafe-pos/config"
	"github.com/kapehan/cafe-pos/internal/app/repository"
	"github.com/kapehan/cafe-pos/internal/app/service"
	"github.com/kapehan/cafe-pos/internal/db"
	"github.com/kapehan/cafe-pos/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <menu.xlsx> [--yes]")
	}
	filePath := os.Args[1]
	assumeYes := len(os.Args) > 2 && os.Args[2] == "--yes"

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.Initialize(logger.Config{Level: cfg.Log.Level, Format: "console", EnableColor: true})

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	book, err := ReadMenuWorkbook(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Ingredients: %d, products: %d, add-ons: %d, recipe lines: %d\n",
		len(book.Ingredients), len(book.Products), len(book.AddOns), len(book.Recipes))
	for _, w := range book.Warnings {
		fmt.Printf("  skipped %s\n", w)
	}

	if !assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(cfg.Bootstrap); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	gormDB := db.GetDB()
	ingredientRepo := repository.NewIngredientRepository(gormDB)
	menu := service.NewMenuService(
		repository.NewProductRepository(gormDB),
		repository.NewAddOnRepository(gormDB),
		ingredientRepo,
		nil, time.Minute, nil,
		cfg.Menu.DrinkCategories,
	)
	inventory := service.NewInventoryService(ingredientRepo, menu, nil)

	report := Import(book, menu, inventory, ingredientRepo)

	fmt.Println("Import completed.")
	fmt.Printf("Created: %d ingredients, %d products, %d add-ons, %d recipes\n",
		report.Ingredients, report.Products, report.AddOns, report.Recipes)
	for _, e := range report.Errors {
		fmt.Printf("  error: %s\n", e)
	}
	if len(report.Errors) > 0 {
		os.Exit(1)
	}
}
