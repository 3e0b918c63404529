package dashboard

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/storehub/storehub-backend/pkg/database"
	"gorm.io/gorm"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

type DashboardStats struct {
	TotalProducts  int64   `json:"total_products"`
	TotalCustomers int64   `json:"total_customers"`
	TotalOrders    int64   `json:"total_orders"`
	TotalRevenue   float64 `json:"total_revenue"`
	PendingOrders  int64   `json:"pending_orders"`
	LowStockCount  int64   `json:"low_stock_count"`
}

type TopProduct struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	TotalQty    int     `json:"total_qty"`
	TotalSales  float64 `json:"total_sales"`
}

// Stats returns the summary counters for the dashboard view
func (h *Handler) Stats(c *gin.Context) {
	threshold := 10
	if t, err := strconv.Atoi(c.Query("threshold")); err == nil && t >= 0 {
		threshold = t
	}

	var stats DashboardStats

	h.db.Model(&database.Product{}).Count(&stats.TotalProducts)
	h.db.Model(&database.Customer{}).Count(&stats.TotalCustomers)
	h.db.Model(&database.Order{}).Count(&stats.TotalOrders)

	h.db.Model(&database.Order{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("status = ?", database.StatusCompleted).
		Scan(&stats.TotalRevenue)

	h.db.Model(&database.Order{}).
		Where("status IN ?", []string{database.StatusPending, database.StatusProcessing}).
		Count(&stats.PendingOrders)

	h.db.Model(&database.Product{}).
		Where("stock_quantity <= ? AND is_active = ?", threshold, true).
		Count(&stats.LowStockCount)

	var lowStock []database.Product
	h.db.Preload("Category").Preload("Brand").
		Where("stock_quantity <= ? AND is_active = ?", threshold, true).
		Order("stock_quantity ASC").
		Limit(10).
		Find(&lowStock)

	var recentOrders []database.Order
	h.db.Preload("Customer").
		Order("order_date DESC").
		Limit(5).
		Find(&recentOrders)

	c.JSON(http.StatusOK, gin.H{
		"data":               stats,
		"low_stock_products": lowStock,
		"recent_orders":      recentOrders,
	})
}

// TopProducts returns the best selling products by completed order volume
func (h *Handler) TopProducts(c *gin.Context) {
	limit := 5
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 50 {
		limit = l
	}

	var topProducts []TopProduct
	h.db.Model(&database.OrderItem{}).
		Select("order_items.product_id, products.name as product_name, "+
			"SUM(order_items.quantity) as total_qty, "+
			"SUM(order_items.quantity * order_items.unit_price * (1 - order_items.discount / 100)) as total_sales").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("orders.status = ?", database.StatusCompleted).
		Group("order_items.product_id, products.name").
		Order("total_qty DESC").
		Limit(limit).
		Scan(&topProducts)

	c.JSON(http.StatusOK, gin.H{"data": topProducts})
}

// RecentTransactions returns the latest stock movements
func (h *Handler) RecentTransactions(c *gin.Context) {
	var transactions []database.StockTransaction
	if err := h.db.Preload("Product").Preload("Supplier").
		Order("transaction_date DESC").
		Limit(10).
		Find(&transactions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": transactions})
}
