package customer

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

type CustomerRequest struct {
	Name       string `json:"name" binding:"required"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
	Notes      string `json:"notes"`
	IsActive   *bool  `json:"is_active"`
}

// List returns customers with optional search and status filter, most recent
// purchasers first
func (h *Handler) List(c *gin.Context) {
	search := c.Query("search")
	filter := c.DefaultQuery("filter", "all")

	query := h.db.Model(&database.Customer{}).Order("last_purchase_date DESC NULLS LAST")

	switch filter {
	case "active":
		query = query.Where("is_active = ?", true)
	case "inactive":
		query = query.Where("is_active = ?", false)
	}

	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name LIKE ? OR email LIKE ? OR phone LIKE ?", pattern, pattern, pattern)
	}

	var customers []database.Customer
	if err := query.Find(&customers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch customers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": customers})
}

// Get returns a customer with their 10 most recent orders
func (h *Handler) Get(c *gin.Context) {
	var customer database.Customer
	if err := h.db.Where("id = ?", c.Param("id")).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}

	var orders []database.Order
	h.db.Where("customer_id = ?", customer.ID).
		Order("order_date DESC").
		Limit(10).
		Find(&orders)

	c.JSON(http.StatusOK, gin.H{
		"data":   customer,
		"orders": orders,
	})
}

// Create adds a new customer with zeroed counters
func (h *Handler) Create(c *gin.Context) {
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer := database.Customer{
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Address:    req.Address,
		City:       req.City,
		Country:    req.Country,
		PostalCode: req.PostalCode,
		Notes:      req.Notes,
		IsActive:   true,
	}
	if req.IsActive != nil {
		customer.IsActive = *req.IsActive
	}

	if err := h.db.Create(&customer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create customer"})
		return
	}

	h.logger.LogCreate(c, "customer", customer.ID, map[string]interface{}{"name": customer.Name})

	c.JSON(http.StatusCreated, gin.H{"data": customer})
}

// Update modifies a customer's contact fields. Order counters are only ever
// touched by the order workflow.
func (h *Handler) Update(c *gin.Context) {
	var customer database.Customer
	if err := h.db.Where("id = ?", c.Param("id")).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}

	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer.Name = req.Name
	customer.Phone = req.Phone
	customer.Email = req.Email
	customer.Address = req.Address
	customer.City = req.City
	customer.Country = req.Country
	customer.PostalCode = req.PostalCode
	customer.Notes = req.Notes
	if req.IsActive != nil {
		customer.IsActive = *req.IsActive
	}

	if err := h.db.Save(&customer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update customer"})
		return
	}

	h.logger.LogUpdate(c, "customer", customer.ID, nil, map[string]interface{}{"name": customer.Name})

	c.JSON(http.StatusOK, gin.H{"data": customer})
}

// Delete removes a customer unless they have orders
func (h *Handler) Delete(c *gin.Context) {
	var customer database.Customer
	if err := h.db.Where("id = ?", c.Param("id")).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}

	var orderCount int64
	h.db.Model(&database.Order{}).Where("customer_id = ?", customer.ID).Count(&orderCount)
	if orderCount > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Cannot delete customer that has orders. Please delete the orders first.",
		})
		return
	}

	if err := h.db.Delete(&customer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete customer"})
		return
	}

	h.logger.LogDelete(c, "customer", customer.ID, map[string]interface{}{"name": customer.Name})

	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted"})
}

// ToggleActive activates or deactivates a customer without removing history
func (h *Handler) ToggleActive(c *gin.Context) {
	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var customer database.Customer
	if err := h.db.Where("id = ?", c.Param("id")).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}

	customer.IsActive = req.IsActive
	if err := h.db.Save(&customer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update customer"})
		return
	}

	h.logger.LogToggle(c, "customer", customer.ID, customer.IsActive, customer.Name)

	c.JSON(http.StatusOK, gin.H{"data": customer})
}

// Stats returns the customer's denormalized totals alongside a live count
func (h *Handler) Stats(c *gin.Context) {
	var customer database.Customer
	if err := h.db.Where("id = ?", c.Param("id")).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}

	var pendingOrders int64
	h.db.Model(&database.Order{}).
		Where("customer_id = ? AND status IN ?", customer.ID,
			[]string{database.StatusPending, database.StatusProcessing}).
		Count(&pendingOrders)

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"total_orders":       customer.TotalOrders,
		"total_spent":        customer.TotalSpent,
		"last_purchase_date": customer.LastPurchaseDate,
		"pending_orders":     pendingOrders,
	}})
}
