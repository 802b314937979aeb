package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kapehan/cafe-pos/internal/app/model"
	"github.com/kapehan/cafe-pos/internal/app/repository"
	"github.com/kapehan/cafe-pos/internal/app/service"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Sheet names and their columns (row 1 is a header and is skipped):
//
//	Ingredients: name | unit | stock | low_threshold | critical_threshold
//	Products:    name | category | price | description | sort_order
//	AddOns:      name | price
//	Recipes:     product | ingredient | quantity
const (
	sheetIngredients = "Ingredients"
	sheetProducts    = "Products"
	sheetAddOns      = "AddOns"
	sheetRecipes     = "Recipes"
)

type RecipeRow struct {
	Product    string
	Ingredient string
	Quantity   decimal.Decimal
}

type MenuWorkbook struct {
	Ingredients []service.IngredientInput
	Products    []service.ProductInput
	AddOns      []service.AddOnInput
	Recipes     []RecipeRow
	Warnings    []string
}

func ReadMenuWorkbook(path string) (*MenuWorkbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()
	return ParseMenuWorkbook(f)
}

// ParseMenuWorkbook reads every known sheet. Missing sheets are treated as
// empty; malformed rows are skipped with a warning.
func ParseMenuWorkbook(f *excelize.File) (*MenuWorkbook, error) {
	book := &MenuWorkbook{}

	if err := eachRow(f, sheetIngredients, 5, book, func(row []string) error {
		stock, err := parseDecimal(row[2])
		if err != nil {
			return err
		}
		low, err := parseDecimal(row[3])
		if err != nil {
			return err
		}
		critical, err := parseDecimal(row[4])
		if err != nil {
			return err
		}
		book.Ingredients = append(book.Ingredients, service.IngredientInput{
			Name: row[0], Unit: row[1], Stock: stock, LowThreshold: low, CriticalThreshold: critical,
		})
		return nil
	}); err != nil {
		return nil, err
	}

	if err := eachRow(f, sheetProducts, 3, book, func(row []string) error {
		price, err := parseDecimal(row[2])
		if err != nil {
			return err
		}
		input := service.ProductInput{
			Name:     row[0],
			Category: model.ProductCategory(strings.ToLower(row[1])),
			Price:    price,
		}
		if len(row) > 3 {
			input.Description = row[3]
		}
		if len(row) > 4 && row[4] != "" {
			if input.SortOrder, err = strconv.Atoi(row[4]); err != nil {
				return fmt.Errorf("sort_order %q: %w", row[4], err)
			}
		}
		book.Products = append(book.Products, input)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := eachRow(f, sheetAddOns, 2, book, func(row []string) error {
		price, err := parseDecimal(row[1])
		if err != nil {
			return err
		}
		book.AddOns = append(book.AddOns, service.AddOnInput{Name: row[0], Price: price})
		return nil
	}); err != nil {
		return nil, err
	}

	if err := eachRow(f, sheetRecipes, 3, book, func(row []string) error {
		qty, err := parseDecimal(row[2])
		if err != nil {
			return err
		}
		book.Recipes = append(book.Recipes, RecipeRow{Product: row[0], Ingredient: row[1], Quantity: qty})
		return nil
	}); err != nil {
		return nil, err
	}

	return book, nil
}

func eachRow(f *excelize.File, sheet string, minCols int, book *MenuWorkbook, fn func([]string) error) error {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	for i, row := range rows {
		if i == 0 {
			continue
		}
		for j := range row {
			row[j] = strings.TrimSpace(row[j])
		}
		if len(row) < minCols || row[0] == "" {
			if len(row) > 0 && row[0] != "" {
				book.Warnings = append(book.Warnings, fmt.Sprintf("%s row %d: expected %d columns", sheet, i+1, minCols))
			}
			continue
		}
		if err := fn(row); err != nil {
			book.Warnings = append(book.Warnings, fmt.Sprintf("%s row %d: %v", sheet, i+1, err))
		}
	}
	return nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
}

type ImportReport struct {
	Ingredients int
	Products    int
	AddOns      int
	Recipes     int
	Errors      []string
}

// Import creates what the workbook describes. Rows whose name already
// exists are left alone so the import can be re-run.
func Import(book *MenuWorkbook, menu service.MenuService, inventory service.InventoryService, ingredients repository.IngredientRepository) ImportReport {
	var report ImportReport
	fail := func(format string, args ...interface{}) {
		report.Errors = append(report.Errors, fmt.Sprintf(format, args...))
	}

	for _, in := range book.Ingredients {
		_, err := inventory.CreateIngredient(in, 0)
		switch {
		case err == nil:
			report.Ingredients++
		case errors.Is(err, service.ErrIngredientNameTaken):
		default:
			fail("ingredient %s: %v", in.Name, err)
		}
	}

	for _, in := range book.AddOns {
		_, err := menu.CreateAddOn(in)
		switch {
		case err == nil:
			report.AddOns++
		case errors.Is(err, service.ErrAddOnNameTaken):
		default:
			fail("add-on %s: %v", in.Name, err)
		}
	}

	productIDs := map[string]uint{}
	for _, in := range book.Products {
		p, err := menu.CreateProduct(in)
		switch {
		case err == nil:
			report.Products++
			productIDs[p.Name] = p.ID
		case errors.Is(err, service.ErrProductNameTaken):
		default:
			fail("product %s: %v", in.Name, err)
		}
	}

	// Recipes only for products created in this run.
	lines := map[string][]service.RecipeLineInput{}
	var order []string
	for _, r := range book.Recipes {
		if _, ok := productIDs[r.Product]; !ok {
			continue
		}
		ing, err := ingredients.FindByName(r.Ingredient)
		if err != nil {
			fail("recipe %s: ingredient %s not found", r.Product, r.Ingredient)
			continue
		}
		if _, seen := lines[r.Product]; !seen {
			order = append(order, r.Product)
		}
		lines[r.Product] = append(lines[r.Product], service.RecipeLineInput{IngredientID: ing.ID, Quantity: r.Quantity})
	}
	for _, name := range order {
		if _, err := menu.SetRecipe(productIDs[name], lines[name]); err != nil {
			fail("recipe %s: %v", name, err)
			continue
		}
		report.Recipes++
	}

	return report
}
