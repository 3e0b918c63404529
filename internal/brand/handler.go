package brand

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

type BrandRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// List returns all brands
func (h *Handler) List(c *gin.Context) {
	search := c.Query("search")

	query := h.db.Model(&database.Brand{}).Order("name ASC")
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var brands []database.Brand
	if err := query.Find(&brands).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch brands"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": brands})
}

// Get returns a single brand with its products
func (h *Handler) Get(c *gin.Context) {
	var brand database.Brand
	if err := h.db.Where("id = ?", c.Param("id")).
		Preload("Products").
		First(&brand).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Brand not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": brand})
}

// Create adds a new brand
func (h *Handler) Create(c *gin.Context) {
	var req BrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	brand := database.Brand{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		brand.IsActive = *req.IsActive
	}

	if err := h.db.Create(&brand).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create brand"})
		return
	}

	h.logger.LogCreate(c, "brand", brand.ID, map[string]interface{}{"name": brand.Name})

	c.JSON(http.StatusCreated, gin.H{"data": brand})
}

// Update modifies a brand
func (h *Handler) Update(c *gin.Context) {
	var brand database.Brand
	if err := h.db.Where("id = ?", c.Param("id")).First(&brand).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Brand not found"})
		return
	}

	var req BrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	oldName := brand.Name

	brand.Name = req.Name
	brand.Description = req.Description
	if req.IsActive != nil {
		brand.IsActive = *req.IsActive
	}

	if err := h.db.Save(&brand).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update brand"})
		return
	}

	h.logger.LogUpdate(c, "brand", brand.ID,
		map[string]interface{}{"name": oldName},
		map[string]interface{}{"name": brand.Name})

	c.JSON(http.StatusOK, gin.H{"data": brand})
}

// Delete removes a brand unless products still reference it
func (h *Handler) Delete(c *gin.Context) {
	var brand database.Brand
	if err := h.db.Where("id = ?", c.Param("id")).First(&brand).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Brand not found"})
		return
	}

	var productCount int64
	h.db.Model(&database.Product{}).Where("brand_id = ?", brand.ID).Count(&productCount)
	if productCount > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Cannot delete brand that has products. Please reassign or delete the products first.",
		})
		return
	}

	if err := h.db.Delete(&brand).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete brand"})
		return
	}

	h.logger.LogDelete(c, "brand", brand.ID, map[string]interface{}{"name": brand.Name})

	c.JSON(http.StatusOK, gin.H{"message": "Brand deleted"})
}
