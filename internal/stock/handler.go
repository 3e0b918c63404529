package stock

import (
	"fmt"
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

type CreateTransactionRequest struct {
	ProductID       uuid.UUID  `json:"product_id" binding:"required"`
	SupplierID      *uuid.UUID `json:"supplier_id"`
	TransactionType string     `json:"transaction_type" binding:"required"`
	Quantity        int        `json:"quantity" binding:"required,min=1"`
	UnitCost        float64    `json:"unit_cost"`
	TransactionDate *time.Time `json:"transaction_date"`
	ReferenceNumber string     `json:"reference_number"`
	ReferenceType   string     `json:"reference_type"`
	ReferenceID     *uuid.UUID `json:"reference_id"`
	Notes           string     `json:"notes"`
}

type BulkPurchaseItem struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
	UnitCost  float64   `json:"unit_cost" binding:"required"`
	Notes     string    `json:"notes"`
}

type BulkPurchaseRequest struct {
	SupplierID uuid.UUID          `json:"supplier_id" binding:"required"`
	Items      []BulkPurchaseItem `json:"items" binding:"required,min=1"`
}

var validTypes = map[string]bool{
	database.TxPurchase:   true,
	database.TxSale:       true,
	database.TxReturn:     true,
	database.TxAdjustment: true,
	database.TxTransfer:   true,
}

// List returns stock transactions filtered by search term, type, date range,
// product and supplier, newest first
func (h *Handler) List(c *gin.Context) {
	query := h.db.Model(&database.StockTransaction{}).
		Preload("Product").
		Preload("Supplier").
		Order("transaction_date DESC")

	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Joins("LEFT JOIN products ON products.id = stock_transactions.product_id").
			Where("stock_transactions.reference_number LIKE ? OR stock_transactions.notes LIKE ? OR products.name LIKE ?",
				pattern, pattern, pattern)
	}
	if txType := c.Query("type"); txType != "" && txType != "all" {
		query = query.Where("stock_transactions.transaction_type = ?", txType)
	}
	if start := c.Query("start_date"); start != "" {
		if t, err := time.Parse("2006-01-02", start); err == nil {
			query = query.Where("stock_transactions.transaction_date >= ?", t)
		}
	}
	if end := c.Query("end_date"); end != "" {
		if t, err := time.Parse("2006-01-02", end); err == nil {
			query = query.Where("stock_transactions.transaction_date <= ?", t.AddDate(0, 0, 1))
		}
	}
	if productID := c.Query("product_id"); productID != "" {
		query = query.Where("stock_transactions.product_id = ?", productID)
	}
	if supplierID := c.Query("supplier_id"); supplierID != "" {
		query = query.Where("stock_transactions.supplier_id = ?", supplierID)
	}

	var transactions []database.StockTransaction
	if err := query.Find(&transactions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": transactions})
}

// Get returns a single stock transaction
func (h *Handler) Get(c *gin.Context) {
	var transaction database.StockTransaction
	if err := h.db.Where("id = ?", c.Param("id")).
		Preload("Product").
		Preload("Supplier").
		First(&transaction).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       transaction,
		"total_cost": transaction.TotalCost(),
	})
}

// Create records a stock movement and applies it to the product's quantity in
// the same request. Purchase and Return add, Sale subtracts, Adjustment sets
// the quantity absolutely, Transfer only records.
func (h *Handler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !validTypes[req.TransactionType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction type"})
		return
	}

	var product database.Product
	if err := h.db.Where("id = ?", req.ProductID).First(&product).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product not found"})
		return
	}

	transactionDate := time.Now()
	if req.TransactionDate != nil {
		transactionDate = *req.TransactionDate
	}

	var createdBy *uuid.UUID
	if id, err := uuid.Parse(c.GetString("user_id")); err == nil {
		createdBy = &id
	}

	transaction := database.StockTransaction{
		ProductID:       req.ProductID,
		SupplierID:      req.SupplierID,
		TransactionType: req.TransactionType,
		Quantity:        req.Quantity,
		UnitCost:        req.UnitCost,
		TransactionDate: transactionDate,
		ReferenceNumber: req.ReferenceNumber,
		ReferenceType:   req.ReferenceType,
		ReferenceID:     req.ReferenceID,
		Notes:           req.Notes,
		CreatedBy:       createdBy,
	}

	tx := h.db.Begin()

	if err := tx.Create(&transaction).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transaction"})
		return
	}

	if err := applyStockEffect(tx, &product, req.TransactionType, req.Quantity); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transaction"})
		return
	}

	h.logger.LogCreate(c, "stock_transaction", transaction.ID, map[string]interface{}{
		"type":     transaction.TransactionType,
		"product":  product.Name,
		"quantity": transaction.Quantity,
	})

	c.JSON(http.StatusCreated, gin.H{"data": transaction})
}

// Delete removes a stock transaction and reverses its original stock effect.
// Adjustment rows are removed without touching stock: the pre-adjustment
// quantity is not recorded, so there is nothing to restore.
func (h *Handler) Delete(c *gin.Context) {
	var transaction database.StockTransaction
	if err := h.db.Where("id = ?", c.Param("id")).First(&transaction).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		return
	}

	tx := h.db.Begin()

	var expr interface{}
	switch transaction.TransactionType {
	case database.TxPurchase, database.TxReturn:
		expr = gorm.Expr("stock_quantity - ?", transaction.Quantity)
	case database.TxSale:
		expr = gorm.Expr("stock_quantity + ?", transaction.Quantity)
	}

	if expr != nil {
		if err := tx.Model(&database.Product{}).
			Where("id = ?", transaction.ProductID).
			Update("stock_quantity", expr).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reverse stock"})
			return
		}
	}

	if err := tx.Delete(&transaction).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete transaction"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete transaction"})
		return
	}

	h.logger.LogDelete(c, "stock_transaction", transaction.ID, map[string]interface{}{
		"type":     transaction.TransactionType,
		"quantity": transaction.Quantity,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
}

// BulkPurchase records a batch of purchase lines sharing one generated
// reference number. Lines are validated and applied independently; invalid
// lines are skipped and reported.
func (h *Handler) BulkPurchase(c *gin.Context) {
	var req BulkPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	referenceNumber := fmt.Sprintf("BULK-%s", time.Now().UTC().Format("20060102150405"))

	var createdBy *uuid.UUID
	if id, err := uuid.Parse(c.GetString("user_id")); err == nil {
		createdBy = &id
	}

	tx := h.db.Begin()

	applied := 0
	skipped := 0
	for _, item := range req.Items {
		var product database.Product
		if err := tx.Where("id = ?", item.ProductID).First(&product).Error; err != nil {
			skipped++
			continue
		}
		if item.Quantity <= 0 || item.UnitCost <= 0 {
			skipped++
			continue
		}

		supplierID := req.SupplierID
		transaction := database.StockTransaction{
			ProductID:       item.ProductID,
			SupplierID:      &supplierID,
			TransactionType: database.TxPurchase,
			Quantity:        item.Quantity,
			UnitCost:        item.UnitCost,
			TransactionDate: time.Now(),
			ReferenceNumber: referenceNumber,
			ReferenceType:   "BulkPurchase",
			Notes:           item.Notes,
			CreatedBy:       createdBy,
		}

		if err := tx.Create(&transaction).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to record purchase"})
			return
		}

		if err := tx.Model(&product).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity)).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update stock"})
			return
		}
		applied++
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to record purchases"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"message":          "Bulk purchase completed successfully",
		"reference_number": referenceNumber,
		"applied":          applied,
		"skipped":          skipped,
	})
}

// ProductDetails returns a product's current stock and selling price for
// stock entry forms
func (h *Handler) ProductDetails(c *gin.Context) {
	var product database.Product
	if err := h.db.Where("id = ?", c.Query("product_id")).First(&product).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"name":          product.Name,
		"current_stock": product.StockQuantity,
		"selling_price": product.Price,
	})
}

// applyStockEffect mutates the product quantity for a newly recorded
// transaction. Adjustment is absolute, not relative.
func applyStockEffect(tx *gorm.DB, product *database.Product, txType string, quantity int) error {
	switch txType {
	case database.TxPurchase, database.TxReturn:
		return tx.Model(product).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", quantity)).Error
	case database.TxSale:
		return tx.Model(product).
			Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity)).Error
	case database.TxAdjustment:
		return tx.Model(product).Update("stock_quantity", quantity).Error
	}
	// Transfer records movement between locations without changing totals
	return nil
}
