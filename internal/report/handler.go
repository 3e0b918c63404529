package report

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storehub/storehub-backend/pkg/database"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

type SalesReportRequest struct {
	StartDate string `form:"start_date"` // Format: 2024-01-01
	EndDate   string `form:"end_date"`   // Format: 2024-01-31
}

type DailySales struct {
	Date   string  `json:"date"`
	Sales  float64 `json:"sales"`
	Orders int     `json:"orders"`
}

type SalesReport struct {
	StartDate       string       `json:"start_date"`
	EndDate         string       `json:"end_date"`
	TotalSales      float64      `json:"total_sales"`
	TotalOrders     int          `json:"total_orders"`
	TotalItemsSold  int          `json:"total_items_sold"`
	AveragePerOrder float64      `json:"average_per_order"`
	DailySales      []DailySales `json:"daily_sales"`
}

// parseRange reads start_date/end_date from the query, defaulting to the
// current month
func parseRange(c *gin.Context) (time.Time, time.Time) {
	var req SalesReportRequest
	c.ShouldBindQuery(&req)

	now := time.Now()
	startDate := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	endDate := time.Date(now.Year(), now.Month()+1, 0, 23, 59, 59, 0, now.Location())

	if req.StartDate != "" {
		if parsed, err := time.Parse("2006-01-02", req.StartDate); err == nil {
			startDate = parsed
		}
	}
	if req.EndDate != "" {
		if parsed, err := time.Parse("2006-01-02", req.EndDate); err == nil {
			endDate = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, 0, parsed.Location())
		}
	}
	return startDate, endDate
}

// Sales returns the sales report for a date range, counting only completed
// orders
func (h *Handler) Sales(c *gin.Context) {
	startDate, endDate := parseRange(c)

	var report SalesReport
	report.StartDate = startDate.Format("2006-01-02")
	report.EndDate = endDate.Format("2006-01-02")

	var totals struct {
		Sales  float64
		Orders int64
	}
	h.db.Model(&database.Order{}).
		Select("COALESCE(SUM(total_amount), 0) as sales, COUNT(*) as orders").
		Where("order_date >= ? AND order_date <= ? AND status = ?",
			startDate, endDate, database.StatusCompleted).
		Scan(&totals)

	report.TotalSales = totals.Sales
	report.TotalOrders = int(totals.Orders)
	if report.TotalOrders > 0 {
		report.AveragePerOrder = report.TotalSales / float64(report.TotalOrders)
	}

	var itemCount int64
	h.db.Model(&database.OrderItem{}).
		Select("COALESCE(SUM(order_items.quantity), 0)").
		Joins("JOIN orders ON order_items.order_id = orders.id").
		Where("orders.order_date >= ? AND orders.order_date <= ? AND orders.status = ?",
			startDate, endDate, database.StatusCompleted).
		Scan(&itemCount)
	report.TotalItemsSold = int(itemCount)

	rows, _ := h.db.Model(&database.Order{}).
		Select("DATE(order_date) as date, COALESCE(SUM(total_amount), 0) as sales, COUNT(*) as orders").
		Where("order_date >= ? AND order_date <= ? AND status = ?",
			startDate, endDate, database.StatusCompleted).
		Group("DATE(order_date)").
		Order("date ASC").
		Rows()

	if rows != nil {
		defer rows.Close()
		for rows.Next() {
			var daily DailySales
			rows.Scan(&daily.Date, &daily.Sales, &daily.Orders)
			report.DailySales = append(report.DailySales, daily)
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

type ProductSales struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	TotalQty    int     `json:"total_qty"`
	TotalSales  float64 `json:"total_sales"`
}

// ProductSalesReport returns completed sales grouped by product
func (h *Handler) ProductSalesReport(c *gin.Context) {
	startDate, endDate := parseRange(c)

	var products []ProductSales
	h.db.Model(&database.OrderItem{}).
		Select(`order_items.product_id,
			products.name as product_name,
			SUM(order_items.quantity) as total_qty,
			SUM(order_items.quantity * order_items.unit_price * (1 - order_items.discount / 100)) as total_sales`).
		Joins("JOIN orders ON order_items.order_id = orders.id").
		Joins("JOIN products ON order_items.product_id = products.id").
		Where("orders.order_date >= ? AND orders.order_date <= ? AND orders.status = ?",
			startDate, endDate, database.StatusCompleted).
		Group("order_items.product_id, products.name").
		Order("total_sales DESC").
		Scan(&products)

	if products == nil {
		products = []ProductSales{}
	}

	c.JSON(http.StatusOK, gin.H{"data": products})
}

// ExportProducts streams the product catalog as an .xlsx workbook
func (h *Handler) ExportProducts(c *gin.Context) {
	var products []database.Product
	if err := h.db.Preload("Category").Preload("Brand").Preload("Supplier").
		Order("name ASC").Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	headers := []string{"Name", "Category", "Brand", "Supplier", "Price", "Stock", "Active"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue("Sheet1", cell, header)
	}

	for rowIdx, p := range products {
		supplierName := ""
		if p.Supplier != nil {
			supplierName = p.Supplier.Name
		}
		categoryName := ""
		if p.Category != nil {
			categoryName = p.Category.Name
		}
		brandName := ""
		if p.Brand != nil {
			brandName = p.Brand.Name
		}
		values := []interface{}{
			p.Name, categoryName, brandName, supplierName,
			p.Price, p.StockQuantity, p.IsActive,
		}
		for colIdx, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue("Sheet1", cell, value)
		}
	}

	f.SetColWidth("Sheet1", "A", "A", 30)
	f.SetColWidth("Sheet1", "B", "D", 18)
	f.SetColWidth("Sheet1", "E", "G", 12)

	filename := fmt.Sprintf("products_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate export"})
	}
}

// ExportStockLedger streams stock transactions for a date range as an .xlsx
// workbook
func (h *Handler) ExportStockLedger(c *gin.Context) {
	startDate, endDate := parseRange(c)

	var transactions []database.StockTransaction
	if err := h.db.Preload("Product").Preload("Supplier").
		Where("transaction_date >= ? AND transaction_date <= ?", startDate, endDate).
		Order("transaction_date ASC").
		Find(&transactions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	headers := []string{"Date", "Type", "Product", "Supplier", "Quantity", "Unit Cost", "Total Cost", "Reference", "Notes"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue("Sheet1", cell, header)
	}

	for rowIdx, t := range transactions {
		supplierName := ""
		if t.Supplier != nil {
			supplierName = t.Supplier.Name
		}
		productName := ""
		if t.Product != nil {
			productName = t.Product.Name
		}
		values := []interface{}{
			t.TransactionDate.Format("2006-01-02 15:04"),
			t.TransactionType,
			productName,
			supplierName,
			t.Quantity,
			t.UnitCost,
			t.TotalCost(),
			t.ReferenceNumber,
			t.Notes,
		}
		for colIdx, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue("Sheet1", cell, value)
		}
	}

	f.SetColWidth("Sheet1", "A", "A", 18)
	f.SetColWidth("Sheet1", "B", "D", 22)
	f.SetColWidth("Sheet1", "E", "G", 12)
	f.SetColWidth("Sheet1", "H", "I", 24)

	filename := fmt.Sprintf("stock_ledger_%s_%s.xlsx",
		startDate.Format("20060102"), endDate.Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate export"})
	}
}
