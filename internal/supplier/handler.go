package supplier

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

type SupplierRequest struct {
	Name          string  `json:"name" binding:"required"`
	ContactPerson string  `json:"contact_person"`
	Phone         string  `json:"phone"`
	Email         string  `json:"email"`
	Website       string  `json:"website"`
	Address       string  `json:"address"`
	City          string  `json:"city"`
	Country       string  `json:"country"`
	PostalCode    string  `json:"postal_code"`
	TaxNumber     string  `json:"tax_number"`
	PaymentTerms  string  `json:"payment_terms"`
	CreditLimit   float64 `json:"credit_limit"`
	Balance       float64 `json:"balance"`
	IsActive      *bool   `json:"is_active"`
	Notes         string  `json:"notes"`
}

// List returns suppliers with optional search and status filter
func (h *Handler) List(c *gin.Context) {
	search := c.Query("search")
	filter := c.DefaultQuery("filter", "all")

	query := h.db.Model(&database.Supplier{}).Order("name ASC")

	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name LIKE ? OR contact_person LIKE ? OR email LIKE ?", pattern, pattern, pattern)
	}

	switch filter {
	case "active":
		query = query.Where("is_active = ?", true)
	case "inactive":
		query = query.Where("is_active = ?", false)
	}

	var suppliers []database.Supplier
	if err := query.Find(&suppliers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch suppliers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": suppliers})
}

// Get returns a supplier plus their products and recent stock transactions
func (h *Handler) Get(c *gin.Context) {
	var supplier database.Supplier
	if err := h.db.Where("id = ?", c.Param("id")).First(&supplier).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Supplier not found"})
		return
	}

	var products []database.Product
	h.db.Where("supplier_id = ?", supplier.ID).Order("name ASC").Find(&products)

	var transactions []database.StockTransaction
	h.db.Where("supplier_id = ?", supplier.ID).
		Preload("Product").
		Order("transaction_date DESC").
		Limit(10).
		Find(&transactions)

	c.JSON(http.StatusOK, gin.H{
		"data":         supplier,
		"products":     products,
		"transactions": transactions,
	})
}

// Create adds a new supplier
func (h *Handler) Create(c *gin.Context) {
	var req SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	supplier := database.Supplier{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Website:       req.Website,
		Address:       req.Address,
		City:          req.City,
		Country:       req.Country,
		PostalCode:    req.PostalCode,
		TaxNumber:     req.TaxNumber,
		PaymentTerms:  req.PaymentTerms,
		CreditLimit:   req.CreditLimit,
		Balance:       req.Balance,
		IsActive:      true,
		Notes:         req.Notes,
	}
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}

	if err := h.db.Create(&supplier).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create supplier"})
		return
	}

	h.logger.LogCreate(c, "supplier", supplier.ID, map[string]interface{}{"name": supplier.Name})

	c.JSON(http.StatusCreated, gin.H{"data": supplier})
}

// Update modifies a supplier
func (h *Handler) Update(c *gin.Context) {
	var supplier database.Supplier
	if err := h.db.Where("id = ?", c.Param("id")).First(&supplier).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Supplier not found"})
		return
	}

	var req SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	supplier.Name = req.Name
	supplier.ContactPerson = req.ContactPerson
	supplier.Phone = req.Phone
	supplier.Email = req.Email
	supplier.Website = req.Website
	supplier.Address = req.Address
	supplier.City = req.City
	supplier.Country = req.Country
	supplier.PostalCode = req.PostalCode
	supplier.TaxNumber = req.TaxNumber
	supplier.PaymentTerms = req.PaymentTerms
	supplier.CreditLimit = req.CreditLimit
	supplier.Balance = req.Balance
	supplier.Notes = req.Notes
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}

	if err := h.db.Save(&supplier).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update supplier"})
		return
	}

	h.logger.LogUpdate(c, "supplier", supplier.ID, nil, map[string]interface{}{"name": supplier.Name})

	c.JSON(http.StatusOK, gin.H{"data": supplier})
}

// Delete removes a supplier unless products still reference it
func (h *Handler) Delete(c *gin.Context) {
	var supplier database.Supplier
	if err := h.db.Where("id = ?", c.Param("id")).First(&supplier).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Supplier not found"})
		return
	}

	var productCount int64
	h.db.Model(&database.Product{}).Where("supplier_id = ?", supplier.ID).Count(&productCount)
	if productCount > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Cannot delete supplier that has associated products. Please reassign or delete the products first.",
		})
		return
	}

	if err := h.db.Delete(&supplier).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete supplier"})
		return
	}

	h.logger.LogDelete(c, "supplier", supplier.ID, map[string]interface{}{"name": supplier.Name})

	c.JSON(http.StatusOK, gin.H{"message": "Supplier deleted"})
}
