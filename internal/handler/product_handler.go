package handler

import (
	"net/http"
	"strconv"

	"bazaar/internal/middleware"
	"bazaar/internal/models"
	"bazaar/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	productRepo *repository.ProductRepository
}

func NewProductHandler(productRepo *repository.ProductRepository) *ProductHandler {
	return &ProductHandler{productRepo: productRepo}
}

// List is the public storefront listing.
// GET /products
func (h *ProductHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	search := c.Query("q")

	products, total, err := h.productRepo.ListActive(search, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "total": total})
}

// Get returns a single product.
// GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	product, err := h.productRepo.GetByID(uint(id))
	if err != nil || !product.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

type CreateProductRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
	Price       string `json:"price" binding:"required"`
	UnitCost    string `json:"unit_cost" binding:"required"`
	Stock       int    `json:"stock" binding:"required,min=0"`
}

// Create adds a product to the seller's catalog.
// POST /seller/products
func (h *ProductHandler) Create(c *gin.Context) {
	sellerID := middleware.GetUserID(c)
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || !price.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
		return
	}
	cost, err := decimal.NewFromString(req.UnitCost)
	if err != nil || cost.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid unit_cost"})
		return
	}
	product := &models.Product{
		SellerID:    sellerID,
		Name:        req.Name,
		Description: req.Description,
		Price:       price.Round(2),
		UnitCost:    cost.Round(2),
		Stock:       req.Stock,
		IsActive:    true,
	}
	if err := h.productRepo.Create(product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create product"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

type UpdateProductRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	UnitCost    *string `json:"unit_cost"`
	Stock       *int    `json:"stock" binding:"omitempty,min=0"`
	IsActive    *bool   `json:"is_active"`
}

// Update edits one of the seller's own products.
// PATCH /seller/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	sellerID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	product, err := h.productRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if product.SellerID != sellerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your product"})
		return
	}
	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil || !price.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
			return
		}
		product.Price = price.Round(2)
	}
	if req.UnitCost != nil {
		cost, err := decimal.NewFromString(*req.UnitCost)
		if err != nil || cost.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid unit_cost"})
			return
		}
		product.UnitCost = cost.Round(2)
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if err := h.productRepo.Update(product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// ListMine lists the seller's own catalog, including inactive items.
// GET /seller/products
func (h *ProductHandler) ListMine(c *gin.Context) {
	sellerID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	products, err := h.productRepo.ListBySellerID(sellerID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// Delete removes a product from the seller's catalog (soft delete).
// DELETE /seller/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	sellerID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	if err := h.productRepo.Delete(uint(id), sellerID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
