package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kapehan/cafe-pos/internal/app/model"
	"github.com/kapehan/cafe-pos/internal/app/service"
	"github.com/kapehan/cafe-pos/internal/middleware"
)

type MenuController struct {
	menuService service.MenuService
}

func NewMenuController(menuService service.MenuService) *MenuController {
	return &MenuController{
		menuService: menuService,
	}
}

type SetRecipeRequest struct {
	Items []service.RecipeLineInput `json:"items" binding:"dive"`
}

// GetMenu returns the register menu with availability flags
// GET /api/v1/menu
func (ctrl *MenuController) GetMenu(c *gin.Context) {
	menu, err := ctrl.menuService.GetMenu(c.Request.Context())
	if err != nil {
		respondError(c, err, "get menu")
		return
	}
	c.JSON(http.StatusOK, menu)
}

// ListProducts GET /api/v1/products?category=&search=&active=
func (ctrl *MenuController) ListProducts(c *gin.Context) {
	opts := service.ProductListOptions{
		Search:     c.Query("search"),
		ActiveOnly: c.Query("active") == "true",
	}
	if category := c.Query("category"); category != "" {
		cat := model.ProductCategory(category)
		opts.Category = &cat
	}

	products, err := ctrl.menuService.ListProducts(opts)
	if err != nil {
		respondError(c, err, "list products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GetProduct GET /api/v1/products/:id
func (ctrl *MenuController) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := ctrl.menuService.GetProduct(id)
	if err != nil {
		respondError(c, err, "get product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// CreateProduct POST /api/v1/products
func (ctrl *MenuController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req service.ProductInput
	if !bindJSON(c, &req) {
		return
	}

	product, err := ctrl.menuService.CreateProduct(req)
	if err != nil {
		respondError(c, err, "create product")
		return
	}

	log.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdateProduct PATCH /api/v1/products/:id
func (ctrl *MenuController) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.ProductUpdateInput
	if !bindJSON(c, &req) {
		return
	}

	product, err := ctrl.menuService.UpdateProduct(id, req)
	if err != nil {
		respondError(c, err, "update product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// DeleteProduct DELETE /api/v1/products/:id
func (ctrl *MenuController) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.menuService.DeleteProduct(id); err != nil {
		respondError(c, err, "delete product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// SetRecipe replaces the product's recipe
// PUT /api/v1/products/:id/recipe
func (ctrl *MenuController) SetRecipe(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SetRecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := ctrl.menuService.SetRecipe(id, req.Items)
	if err != nil {
		respondError(c, err, "set product recipe")
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// ListAddOns GET /api/v1/add-ons?active=
func (ctrl *MenuController) ListAddOns(c *gin.Context) {
	addOns, err := ctrl.menuService.ListAddOns(c.Query("active") == "true")
	if err != nil {
		respondError(c, err, "list add-ons")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"add_ons": addOns,
		"count":   len(addOns),
	})
}

// CreateAddOn POST /api/v1/add-ons
func (ctrl *MenuController) CreateAddOn(c *gin.Context) {
	var req service.AddOnInput
	if !bindJSON(c, &req) {
		return
	}

	addOn, err := ctrl.menuService.CreateAddOn(req)
	if err != nil {
		respondError(c, err, "create add-on")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"add_on": addOn})
}

// UpdateAddOn PUT /api/v1/add-ons/:id
func (ctrl *MenuController) UpdateAddOn(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.AddOnInput
	if !bindJSON(c, &req) {
		return
	}

	addOn, err := ctrl.menuService.UpdateAddOn(id, req)
	if err != nil {
		respondError(c, err, "update add-on")
		return
	}
	c.JSON(http.StatusOK, gin.H{"add_on": addOn})
}

// DeleteAddOn DELETE /api/v1/add-ons/:id
func (ctrl *MenuController) DeleteAddOn(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.menuService.DeleteAddOn(id); err != nil {
		respondError(c, err, "delete add-on")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Add-on deleted"})
}
