package product

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storehub/storehub-backend/pkg/activitylog"
	"github.com/storehub/storehub-backend/pkg/database"
	"gorm.io/gorm"
)

const defaultLowStockThreshold = 10

type Handler struct {
	db     *gorm.DB
	logger *activitylog.Logger
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{
		db:     db,
		logger: activitylog.NewLogger(db),
	}
}

type CreateProductRequest struct {
	Name          string     `json:"name" binding:"required"`
	Description   string     `json:"description"`
	Price         float64    `json:"price" binding:"required"`
	StockQuantity int        `json:"stock_quantity"`
	CategoryID    uuid.UUID  `json:"category_id" binding:"required"`
	BrandID       uuid.UUID  `json:"brand_id" binding:"required"`
	SupplierID    *uuid.UUID `json:"supplier_id"`
	ImageURL      string     `json:"image_url"`
}

// List returns products with optional search, status filter and sorting
func (h *Handler) List(c *gin.Context) {
	search := c.Query("search")
	filter := c.DefaultQuery("filter", "all") // all, active, inactive
	sort := c.DefaultQuery("sort", "name")    // name, price, stock

	query := h.db.Model(&database.Product{}).
		Preload("Category").
		Preload("Brand").
		Preload("Supplier")

	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}

	switch filter {
	case "active":
		query = query.Where("is_active = ?", true)
	case "inactive":
		query = query.Where("is_active = ?", false)
	}

	switch sort {
	case "price":
		query = query.Order("price ASC")
	case "stock":
		query = query.Order("stock_quantity ASC")
	default:
		query = query.Order("name ASC")
	}

	var products []database.Product
	if err := query.Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": products})
}

// LowStock returns active products at or below the threshold, lowest first
func (h *Handler) LowStock(c *gin.Context) {
	threshold := defaultLowStockThreshold
	if t, err := strconv.Atoi(c.Query("threshold")); err == nil && t >= 0 {
		threshold = t
	}

	var products []database.Product
	if err := h.db.Preload("Category").Preload("Brand").
		Where("stock_quantity <= ? AND is_active = ?", threshold, true).
		Order("stock_quantity ASC").
		Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": products})
}

// Get returns a single product with its category, brand and supplier
func (h *Handler) Get(c *gin.Context) {
	var product database.Product
	if err := h.db.Where("id = ?", c.Param("id")).
		Preload("Category").
		Preload("Brand").
		Preload("Supplier").
		First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": product})
}

// Create adds a new product
func (h *Handler) Create(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product := database.Product{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		CategoryID:    req.CategoryID,
		BrandID:       req.BrandID,
		SupplierID:    req.SupplierID,
		ImageURL:      req.ImageURL,
		IsActive:      true,
	}

	if err := h.db.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	h.logger.LogCreate(c, "product", product.ID, map[string]interface{}{
		"name":  product.Name,
		"price": product.Price,
	})

	c.JSON(http.StatusCreated, gin.H{"data": product})
}

// Update modifies a product
func (h *Handler) Update(c *gin.Context) {
	var product database.Product
	if err := h.db.Where("id = ?", c.Param("id")).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	oldValues := map[string]interface{}{
		"name":  product.Name,
		"price": product.Price,
		"stock": product.StockQuantity,
	}

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.StockQuantity = req.StockQuantity
	product.CategoryID = req.CategoryID
	product.BrandID = req.BrandID
	product.SupplierID = req.SupplierID
	if req.ImageURL != "" {
		product.ImageURL = req.ImageURL
	}

	if err := h.db.Save(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	h.logger.LogUpdate(c, "product", product.ID, oldValues, map[string]interface{}{
		"name":  product.Name,
		"price": product.Price,
		"stock": product.StockQuantity,
	})

	c.JSON(http.StatusOK, gin.H{"data": product})
}

// Delete deactivates a product. Products are never removed so order and stock
// history stays intact.
func (h *Handler) Delete(c *gin.Context) {
	var product database.Product
	if err := h.db.Where("id = ?", c.Param("id")).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	if err := h.db.Model(&product).Update("is_active", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	h.logger.LogDelete(c, "product", product.ID, map[string]interface{}{
		"name": product.Name,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Product deactivated"})
}

// ToggleActive toggles a product's is_active status
func (h *Handler) ToggleActive(c *gin.Context) {
	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var product database.Product
	if err := h.db.Where("id = ?", c.Param("id")).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	product.IsActive = req.IsActive
	if err := h.db.Save(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	h.logger.LogToggle(c, "product", product.ID, product.IsActive, product.Name)

	c.JSON(http.StatusOK, gin.H{"data": product})
}

// Restock adds quantity to a product's stock
func (h *Handler) Restock(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var product database.Product
	if err := h.db.Where("id = ?", c.Param("id")).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	if err := h.db.Model(&product).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", req.Quantity)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restock product"})
		return
	}

	h.db.First(&product, product.ID)

	h.logger.LogUpdate(c, "product", product.ID,
		map[string]interface{}{"stock": product.StockQuantity - req.Quantity},
		map[string]interface{}{"stock": product.StockQuantity})

	c.JSON(http.StatusOK, gin.H{"data": product})
}

// UploadImage stores a product image under the upload directory and saves its
// relative URL on the product.
func (h *Handler) UploadImage(c *gin.Context) {
	var product database.Product
	if err := h.db.Where("id = ?", c.Param("id")).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	if file.Size > 5<<20 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds 5MB limit"})
		return
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	if err := os.MkdirAll(filepath.Join(uploadDir, "products"), 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
		return
	}

	filename := fmt.Sprintf("%s%s", uuid.New().String(), filepath.Ext(file.Filename))
	dst := filepath.Join(uploadDir, "products", filename)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
		return
	}

	product.ImageURL = "/uploads/products/" + filename
	if err := h.db.Model(&product).Update("image_url", product.ImageURL).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": product})
}
