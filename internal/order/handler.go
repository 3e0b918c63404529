package order

import (
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
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

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
	UnitPrice float64   `json:"unit_price"`
	Discount  float64   `json:"discount"` // percent
}

type CreateOrderRequest struct {
	CustomerID      uuid.UUID          `json:"customer_id" binding:"required"`
	OrderDate       *time.Time         `json:"order_date"`
	Status          string             `json:"status"`
	PaymentMethod   string             `json:"payment_method"`
	PaymentStatus   string             `json:"payment_status"`
	ShippingAddress string             `json:"shipping_address"`
	BillingAddress  string             `json:"billing_address"`
	ShippingCost    float64            `json:"shipping_cost"`
	TaxAmount       float64            `json:"tax_amount"`
	DiscountAmount  float64            `json:"discount_amount"`
	TotalAmount     float64            `json:"total_amount"`
	Notes           string             `json:"notes"`
	Items           []OrderItemRequest `json:"items" binding:"required,min=1"`
}

type UpdateOrderRequest struct {
	CustomerID      uuid.UUID `json:"customer_id" binding:"required"`
	Status          string    `json:"status" binding:"required"`
	PaymentMethod   string    `json:"payment_method"`
	PaymentStatus   string    `json:"payment_status"`
	ShippingAddress string    `json:"shipping_address"`
	BillingAddress  string    `json:"billing_address"`
	ShippingCost    float64   `json:"shipping_cost"`
	TaxAmount       float64   `json:"tax_amount"`
	DiscountAmount  float64   `json:"discount_amount"`
	TotalAmount     float64   `json:"total_amount"`
	Notes           string    `json:"notes"`
}

// List returns orders filtered by search term, status, payment status, date
// range and customer, newest first
func (h *Handler) List(c *gin.Context) {
	query := h.db.Model(&database.Order{}).
		Preload("Customer").
		Order("order_date DESC")

	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Joins("LEFT JOIN customers ON customers.id = orders.customer_id").
			Where("orders.order_number LIKE ? OR customers.name LIKE ?", pattern, pattern)
	}
	if status := c.Query("status"); status != "" && status != "all" {
		query = query.Where("orders.status = ?", status)
	}
	if paymentStatus := c.Query("payment_status"); paymentStatus != "" && paymentStatus != "all" {
		query = query.Where("orders.payment_status = ?", paymentStatus)
	}
	if start := c.Query("start_date"); start != "" {
		if t, err := time.Parse("2006-01-02", start); err == nil {
			query = query.Where("orders.order_date >= ?", t)
		}
	}
	if end := c.Query("end_date"); end != "" {
		if t, err := time.Parse("2006-01-02", end); err == nil {
			query = query.Where("orders.order_date <= ?", t.AddDate(0, 0, 1))
		}
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		query = query.Where("orders.customer_id = ?", customerID)
	}

	var orders []database.Order
	if err := query.Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orders})
}

// Get returns a single order with customer and items
func (h *Handler) Get(c *gin.Context) {
	var order database.Order
	if err := h.db.Where("id = ?", c.Param("id")).
		Preload("Customer").
		Preload("Items").
		Preload("Items.Product").
		First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

// Create records a new order. TotalAmount is taken from the caller as-is.
// Creating with status Completed deducts stock for every line immediately.
// Customer counters are incremented exactly once, here.
func (h *Handler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := req.Status
	if status == "" {
		status = database.StatusPending
	}
	paymentStatus := req.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = database.PaymentPending
	}
	orderDate := time.Now()
	if req.OrderDate != nil {
		orderDate = *req.OrderDate
	}

	var customer database.Customer
	if err := h.db.Where("id = ?", req.CustomerID).First(&customer).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Customer not found"})
		return
	}

	order := database.Order{
		CustomerID:      req.CustomerID,
		OrderNumber:     generateOrderNumber(),
		OrderDate:       orderDate,
		Status:          status,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   paymentStatus,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		ShippingCost:    req.ShippingCost,
		TaxAmount:       req.TaxAmount,
		DiscountAmount:  req.DiscountAmount,
		TotalAmount:     req.TotalAmount,
		Notes:           req.Notes,
	}

	tx := h.db.Begin()

	for _, item := range req.Items {
		var product database.Product
		if err := tx.Where("id = ?", item.ProductID).First(&product).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Product %s not found", item.ProductID)})
			return
		}

		unitPrice := item.UnitPrice
		if unitPrice == 0 {
			unitPrice = product.Price
		}

		order.Items = append(order.Items, database.OrderItem{
			ProductID:   item.ProductID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
			Discount:    item.Discount,
		})

		if status == database.StatusCompleted {
			if err := tx.Model(&product).
				Update("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity)).Error; err != nil {
				tx.Rollback()
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock"})
				return
			}
		}
	}

	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	if err := tx.Model(&customer).Updates(map[string]interface{}{
		"total_orders":       gorm.Expr("total_orders + 1"),
		"total_spent":        gorm.Expr("total_spent + ?", order.TotalAmount),
		"last_purchase_date": order.OrderDate,
	}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update customer"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	h.db.Preload("Customer").Preload("Items").Preload("Items.Product").First(&order, order.ID)

	h.logger.LogCreate(c, "order", order.ID, map[string]interface{}{
		"order_number": order.OrderNumber,
		"total":        order.TotalAmount,
		"status":       order.Status,
	})

	c.JSON(http.StatusCreated, gin.H{"data": order})
}

// Update edits an order's fields. A status change into Completed deducts
// stock for every line; a change out of Completed restores it. Re-submitting
// with an unchanged status leaves stock alone. Customer counters are not
// adjusted here.
func (h *Handler) Update(c *gin.Context) {
	var order database.Order
	if err := h.db.Where("id = ?", c.Param("id")).First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	oldStatus := order.Status

	order.CustomerID = req.CustomerID
	order.Status = req.Status
	order.PaymentMethod = req.PaymentMethod
	order.PaymentStatus = req.PaymentStatus
	order.ShippingAddress = req.ShippingAddress
	order.BillingAddress = req.BillingAddress
	order.ShippingCost = req.ShippingCost
	order.TaxAmount = req.TaxAmount
	order.DiscountAmount = req.DiscountAmount
	order.TotalAmount = req.TotalAmount
	order.Notes = req.Notes

	tx := h.db.Begin()

	if err := h.applyStatusTransition(tx, &order, oldStatus, req.Status); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock"})
		return
	}

	if err := tx.Save(&order).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		return
	}

	h.logger.LogUpdate(c, "order", order.ID,
		map[string]interface{}{"status": oldStatus},
		map[string]interface{}{"status": order.Status, "total": order.TotalAmount})

	c.JSON(http.StatusOK, gin.H{"data": order})
}

// UpdateStatus changes only the order status, with the same stock side
// effects as a full edit
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	var order database.Order
	if err := h.db.Where("id = ?", c.Param("id")).First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Order not found"})
		return
	}

	oldStatus := order.Status
	order.Status = req.Status

	tx := h.db.Begin()

	if err := h.applyStatusTransition(tx, &order, oldStatus, req.Status); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update stock"})
		return
	}

	if err := tx.Save(&order).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update order"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update order"})
		return
	}

	h.logger.LogUpdate(c, "order", order.ID,
		map[string]interface{}{"status": oldStatus},
		map[string]interface{}{"status": order.Status})

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Status updated successfully"})
}

// Delete removes an order and its items. A Completed order has its stock
// restored first. Customer counters are decremented.
func (h *Handler) Delete(c *gin.Context) {
	var order database.Order
	if err := h.db.Where("id = ?", c.Param("id")).First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	tx := h.db.Begin()

	if order.Status == database.StatusCompleted {
		if err := updateStockForOrder(tx, order.ID, true); err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restore stock"})
			return
		}
	}

	if err := tx.Where("order_id = ?", order.ID).Delete(&database.OrderItem{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
		return
	}

	if err := tx.Model(&database.Customer{}).Where("id = ?", order.CustomerID).
		Updates(map[string]interface{}{
			"total_orders": gorm.Expr("total_orders - 1"),
			"total_spent":  gorm.Expr("total_spent - ?", order.TotalAmount),
		}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update customer"})
		return
	}

	if err := tx.Delete(&order).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
		return
	}

	h.logger.LogDelete(c, "order", order.ID, map[string]interface{}{
		"order_number": order.OrderNumber,
		"total":        order.TotalAmount,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}

// ProductDetails returns the name, price and stock of a product for order
// entry forms
func (h *Handler) ProductDetails(c *gin.Context) {
	var product database.Product
	if err := h.db.Where("id = ?", c.Query("product_id")).First(&product).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"name":    product.Name,
		"price":   product.Price,
		"stock":   product.StockQuantity,
	})
}

// applyStatusTransition moves stock when an order enters or leaves Completed.
func (h *Handler) applyStatusTransition(tx *gorm.DB, order *database.Order, oldStatus, newStatus string) error {
	if oldStatus != database.StatusCompleted && newStatus == database.StatusCompleted {
		return updateStockForOrder(tx, order.ID, false)
	}
	if oldStatus == database.StatusCompleted && newStatus != database.StatusCompleted {
		return updateStockForOrder(tx, order.ID, true)
	}
	return nil
}

// updateStockForOrder adjusts each line's product stock, adding when restore
// is true and deducting otherwise.
func updateStockForOrder(tx *gorm.DB, orderID uuid.UUID, restore bool) error {
	var items []database.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}

	for _, item := range items {
		expr := gorm.Expr("stock_quantity - ?", item.Quantity)
		if restore {
			expr = gorm.Expr("stock_quantity + ?", item.Quantity)
		}
		if err := tx.Model(&database.Product{}).
			Where("id = ?", item.ProductID).
			Update("stock_quantity", expr).Error; err != nil {
			return err
		}
	}
	return nil
}

func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%s-%04d", time.Now().UTC().Format("20060102150405"), rand.Intn(9000)+1000)
}
