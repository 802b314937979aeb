package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kapehan/cafe-pos/internal/app/model"
	"github.com/kapehan/cafe-pos/internal/app/repository"
	"github.com/kapehan/cafe-pos/internal/metrics"
	"github.com/kapehan/cafe-pos/internal/pricing"
	ws "github.com/kapehan/cafe-pos/internal/websocket"
	"github.com/kapehan/cafe-pos/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductNameTaken   = errors.New("product name already in use")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInvalidProductName = errors.New("product name is required")
	ErrInvalidCategory    = errors.New("invalid product category")
	ErrInvalidPrice       = errors.New("invalid price")
	ErrAddOnNotFound      = errors.New("add-on not found")
	ErrAddOnNameTaken     = errors.New("add-on name already in use")
	ErrInvalidRecipe      = errors.New("invalid recipe")
)

const menuCacheKey = "menu:v1"

// MenuChange is the menu_changed event payload.
type MenuChange struct {
	Kind string `json:"kind"`
	ID   uint   `json:"id"`
}

// MenuItem is a product as listed on the register.
type MenuItem struct {
	model.Product
	Availability
	IsDrink bool `json:"is_drink"`
}

type Menu struct {
	Products        []MenuItem           `json:"products"`
	AddOns          []model.AddOn        `json:"add_ons"`
	Sizes           []pricing.SizeChoice `json:"sizes"`
	DrinkCategories []string             `json:"drink_categories"`
	GeneratedAt     time.Time            `json:"generated_at"`
}

type ProductInput struct {
	Name        string                `json:"name" binding:"required"`
	Description string                `json:"description"`
	Price       decimal.Decimal       `json:"price"`
	Category    model.ProductCategory `json:"category" binding:"required"`
	ImageURL    string                `json:"image_url"`
	SortOrder   int                   `json:"sort_order"`
}

type ProductUpdateInput struct {
	Name        *string                `json:"name"`
	Description *string                `json:"description"`
	Price       *decimal.Decimal       `json:"price"`
	Category    *model.ProductCategory `json:"category"`
	ImageURL    *string                `json:"image_url"`
	SortOrder   *int                   `json:"sort_order"`
	IsActive    *bool                  `json:"is_active"`
}

type AddOnInput struct {
	Name     string          `json:"name" binding:"required"`
	Price    decimal.Decimal `json:"price"`
	IsActive *bool           `json:"is_active"`
}

type RecipeLineInput struct {
	IngredientID uint            `json:"ingredient_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
}

type ProductListOptions struct {
	Category   *model.ProductCategory
	Search     string
	ActiveOnly bool
}

type MenuService interface {
	GetMenu(ctx context.Context) (*Menu, error)
	InvalidateMenu(ctx context.Context)
	Selector() (*pricing.Selector, error)
	CatalogProduct(id uint) (pricing.Product, error)

	ListProducts(opts ProductListOptions) ([]model.Product, error)
	GetProduct(id uint) (*model.Product, error)
	CreateProduct(input ProductInput) (*model.Product, error)
	UpdateProduct(id uint, input ProductUpdateInput) (*model.Product, error)
	DeleteProduct(id uint) error
	SetRecipe(productID uint, lines []RecipeLineInput) (*model.Product, error)

	ListAddOns(activeOnly bool) ([]model.AddOn, error)
	CreateAddOn(input AddOnInput) (*model.AddOn, error)
	UpdateAddOn(id uint, input AddOnInput) (*model.AddOn, error)
	DeleteAddOn(id uint) error
}

type menuService struct {
	productRepo     repository.ProductRepository
	addOnRepo       repository.AddOnRepository
	ingredientRepo  repository.IngredientRepository
	cache           Cache
	cacheTTL        time.Duration
	events          Publisher
	drinkCategories []string
}

func NewMenuService(
	productRepo repository.ProductRepository,
	addOnRepo repository.AddOnRepository,
	ingredientRepo repository.IngredientRepository,
	cache Cache,
	cacheTTL time.Duration,
	events Publisher,
	drinkCategories []string,
) MenuService {
	return &menuService{
		productRepo:     productRepo,
		addOnRepo:       addOnRepo,
		ingredientRepo:  ingredientRepo,
		cache:           cacheOrNop(cache),
		cacheTTL:        cacheTTL,
		events:          publisherOrNop(events),
		drinkCategories: drinkCategories,
	}
}

func (s *menuService) GetMenu(ctx context.Context) (*Menu, error) {
	var cached Menu
	if s.cache.Get(ctx, menuCacheKey, &cached) {
		metrics.RecordMenuCache("hit")
		return &cached, nil
	}
	metrics.RecordMenuCache("miss")

	products, err := s.productRepo.FindAll(repository.ProductFilter{ActiveOnly: true, WithRecipe: true})
	if err != nil {
		return nil, err
	}
	addOns, err := s.addOnRepo.FindAll(true)
	if err != nil {
		return nil, err
	}

	selector := pricing.NewSelector(nil, s.drinkCategories)
	items := make([]MenuItem, 0, len(products))
	for _, p := range products {
		availability := ProductAvailability(p.Recipe)
		p.Recipe = nil
		items = append(items, MenuItem{
			Product:      p,
			Availability: availability,
			IsDrink:      selector.IsDrink(string(p.Category)),
		})
	}

	menu := &Menu{
		Products:        items,
		AddOns:          addOns,
		Sizes:           pricing.Sizes(),
		DrinkCategories: s.drinkCategories,
		GeneratedAt:     time.Now().UTC(),
	}
	s.cache.Set(ctx, menuCacheKey, menu, s.cacheTTL)

	logger.Debug("Menu rebuilt", map[string]interface{}{
		"products": len(items),
		"add_ons":  len(addOns),
	})
	return menu, nil
}

func (s *menuService) InvalidateMenu(ctx context.Context) {
	s.cache.Invalidate(ctx, menuCacheKey)
}

func (s *menuService) changed(kind string, id uint) {
	s.InvalidateMenu(context.Background())
	s.events.Publish(ws.EventMenuChanged, MenuChange{Kind: kind, ID: id})
}

// Selector prices selections against the active add-ons.
func (s *menuService) Selector() (*pricing.Selector, error) {
	addOns, err := s.addOnRepo.FindAll(true)
	if err != nil {
		return nil, err
	}
	list := make([]pricing.AddOn, 0, len(addOns))
	for _, a := range addOns {
		list = append(list, pricing.AddOn{Name: a.Name, Price: a.Price})
	}
	return pricing.NewSelector(list, s.drinkCategories), nil
}

// CatalogProduct returns an active product as the register prices it.
func (s *menuService) CatalogProduct(id uint) (pricing.Product, error) {
	product, err := s.GetProduct(id)
	if err != nil {
		return pricing.Product{}, err
	}
	if !product.IsActive {
		return pricing.Product{}, ErrProductUnavailable
	}
	return pricing.Product{
		ID:        product.ID,
		Name:      product.Name,
		BasePrice: product.Price,
		Category:  string(product.Category),
	}, nil
}

func (s *menuService) ListProducts(opts ProductListOptions) ([]model.Product, error) {
	return s.productRepo.FindAll(repository.ProductFilter{
		Category:   opts.Category,
		Search:     strings.TrimSpace(opts.Search),
		ActiveOnly: opts.ActiveOnly,
	})
}

func (s *menuService) GetProduct(id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	return product, nil
}

func (s *menuService) CreateProduct(input ProductInput) (*model.Product, error) {
	name := strings.TrimSpace(input.Name)
	logger.Info("Creating product", map[string]interface{}{
		"name":     name,
		"category": input.Category,
	})

	if !input.Category.Valid() {
		return nil, ErrInvalidCategory
	}
	if input.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if err := s.ensureProductNameFree(name, 0); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        name,
		Description: input.Description,
		Price:       pricing.Round2(input.Price),
		Category:    input.Category,
		ImageURL:    input.ImageURL,
		SortOrder:   input.SortOrder,
		IsActive:    true,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}

	s.changed("product", product.ID)
	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
	})
	return product, nil
}

func (s *menuService) UpdateProduct(id uint, input ProductUpdateInput) (*model.Product, error) {
	product, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name != product.Name {
			if err := s.ensureProductNameFree(name, id); err != nil {
				return nil, err
			}
			product.Name = name
		}
	}
	if input.Category != nil {
		if !input.Category.Valid() {
			return nil, ErrInvalidCategory
		}
		product.Category = *input.Category
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, ErrInvalidPrice
		}
		product.Price = pricing.Round2(*input.Price)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.ImageURL != nil {
		product.ImageURL = *input.ImageURL
	}
	if input.SortOrder != nil {
		product.SortOrder = *input.SortOrder
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}

	s.changed("product", product.ID)
	logger.Info("Product updated", map[string]interface{}{
		"product_id": product.ID,
	})
	return product, nil
}

func (s *menuService) ensureProductNameFree(name string, selfID uint) error {
	if name == "" {
		return ErrInvalidProductName
	}
	existing, err := s.productRepo.FindByName(name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != selfID {
		return ErrProductNameTaken
	}
	return nil
}

func (s *menuService) DeleteProduct(id uint) error {
	if err := s.productRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	s.changed("product", id)
	logger.Info("Product deleted", map[string]interface{}{
		"product_id": id,
	})
	return nil
}

// SetRecipe replaces the product's recipe. Every ingredient must exist and
// appear once with a positive quantity.
func (s *menuService) SetRecipe(productID uint, lines []RecipeLineInput) (*model.Product, error) {
	if _, err := s.GetProduct(productID); err != nil {
		return nil, err
	}

	items := make([]model.RecipeItem, 0, len(lines))
	seen := make(map[uint]bool, len(lines))
	for _, line := range lines {
		if !line.Quantity.IsPositive() || seen[line.IngredientID] {
			return nil, ErrInvalidRecipe
		}
		seen[line.IngredientID] = true
		if _, err := s.ingredientRepo.FindByID(line.IngredientID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrIngredientNotFound
			}
			return nil, err
		}
		items = append(items, model.RecipeItem{
			IngredientID: line.IngredientID,
			Quantity:     line.Quantity,
		})
	}

	if err := s.productRepo.ReplaceRecipe(productID, items); err != nil {
		logger.Error("Failed to replace recipe", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}

	s.changed("recipe", productID)
	logger.Info("Recipe updated", map[string]interface{}{
		"product_id": productID,
		"lines":      len(items),
	})
	return s.GetProduct(productID)
}

func (s *menuService) ListAddOns(activeOnly bool) ([]model.AddOn, error) {
	return s.addOnRepo.FindAll(activeOnly)
}

func (s *menuService) CreateAddOn(input AddOnInput) (*model.AddOn, error) {
	if !input.Price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	addOn := &model.AddOn{
		Name:     strings.TrimSpace(input.Name),
		Price:    pricing.Round2(input.Price),
		IsActive: true,
	}
	if err := s.addOnRepo.Create(addOn); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAddOnNameTaken
		}
		return nil, err
	}
	// is_active defaults to true on insert, so an inactive add-on is saved twice.
	if input.IsActive != nil && !*input.IsActive {
		addOn.IsActive = false
		if err := s.addOnRepo.Update(addOn); err != nil {
			return nil, err
		}
	}

	s.changed("add_on", addOn.ID)
	logger.Info("Add-on created", map[string]interface{}{
		"add_on_id": addOn.ID,
		"name":      addOn.Name,
	})
	return addOn, nil
}

func (s *menuService) UpdateAddOn(id uint, input AddOnInput) (*model.AddOn, error) {
	addOn, err := s.addOnRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddOnNotFound
		}
		return nil, err
	}
	if !input.Price.IsPositive() {
		return nil, ErrInvalidPrice
	}

	addOn.Name = strings.TrimSpace(input.Name)
	addOn.Price = pricing.Round2(input.Price)
	if input.IsActive != nil {
		addOn.IsActive = *input.IsActive
	}
	if err := s.addOnRepo.Update(addOn); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAddOnNameTaken
		}
		return nil, err
	}

	s.changed("add_on", addOn.ID)
	return addOn, nil
}

func (s *menuService) DeleteAddOn(id uint) error {
	if err := s.addOnRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAddOnNotFound
		}
		return err
	}
	s.changed("add_on", id)
	return nil
}
