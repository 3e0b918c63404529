package category

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storehub/storehub-backend/pkg/activitylog"
	"github.com/storehub/storehub-backend/pkg/database"
	"gorm.io/gorm"
)

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

type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// List returns all categories with product counts
func (h *Handler) List(c *gin.Context) {
	search := c.Query("search")

	query := h.db.Model(&database.Category{}).Order("name ASC")
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var categories []database.Category
	if err := query.Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": categories})
}

// Get returns a single category with its products
func (h *Handler) Get(c *gin.Context) {
	var category database.Category
	if err := h.db.Where("id = ?", c.Param("id")).
		Preload("Products").
		First(&category).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": category})
}

// Create adds a new category
func (h *Handler) Create(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := database.Category{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := h.db.Create(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	h.logger.LogCreate(c, "category", category.ID, map[string]interface{}{"name": category.Name})

	c.JSON(http.StatusCreated, gin.H{"data": category})
}

// Update modifies a category
func (h *Handler) Update(c *gin.Context) {
	var category database.Category
	if err := h.db.Where("id = ?", c.Param("id")).First(&category).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	oldName := category.Name

	category.Name = req.Name
	category.Description = req.Description
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := h.db.Save(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
		return
	}

	h.logger.LogUpdate(c, "category", category.ID,
		map[string]interface{}{"name": oldName},
		map[string]interface{}{"name": category.Name})

	c.JSON(http.StatusOK, gin.H{"data": category})
}

// Delete removes a category unless products still reference it
func (h *Handler) Delete(c *gin.Context) {
	var category database.Category
	if err := h.db.Where("id = ?", c.Param("id")).First(&category).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	var productCount int64
	h.db.Model(&database.Product{}).Where("category_id = ?", category.ID).Count(&productCount)
	if productCount > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Cannot delete category that has products. Please reassign or delete the products first.",
		})
		return
	}

	if err := h.db.Delete(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}

	h.logger.LogDelete(c, "category", category.ID, map[string]interface{}{"name": category.Name})

	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}
