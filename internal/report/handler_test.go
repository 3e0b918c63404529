package report

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/storehub/storehub-backend/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTest(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	h := NewHandler(db)
	r := gin.New()
	r.GET("/reports/sales", h.Sales)
	r.GET("/reports/products", h.ProductSalesReport)
	r.GET("/reports/export/products", h.ExportProducts)
	r.GET("/reports/export/stock-ledger", h.ExportStockLedger)
	return db, r
}

func seedCompletedOrder(t *testing.T, db *gorm.DB, when time.Time, total float64, items ...database.OrderItem) {
	t.Helper()
	var customer database.Customer
	if err := db.First(&customer).Error; err != nil {
		customer = database.Customer{Name: "Report Customer", IsActive: true}
		require.NoError(t, db.Create(&customer).Error)
	}
	order := database.Order{
		CustomerID:  customer.ID,
		OrderNumber: "ORD-TEST-" + uuid.NewString(),
		OrderDate:   when,
		Status:      database.StatusCompleted,
		TotalAmount: total,
		Items:       items,
	}
	require.NoError(t, db.Create(&order).Error)
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSalesReportTotals(t *testing.T) {
	db, r := setupTest(t)

	day := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	seedCompletedOrder(t, db, day, 100)
	seedCompletedOrder(t, db, day.AddDate(0, 0, 1), 50)
	// Outside the range
	seedCompletedOrder(t, db, day.AddDate(0, 1, 0), 999)

	w := get(r, "/reports/sales?start_date=2024-03-01&end_date=2024-03-31")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data SalesReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 150.0, resp.Data.TotalSales)
	assert.Equal(t, 2, resp.Data.TotalOrders)
	assert.Equal(t, 75.0, resp.Data.AveragePerOrder)
	assert.Len(t, resp.Data.DailySales, 2)
}

func TestProductSalesReportGroupsAndRanks(t *testing.T) {
	db, r := setupTest(t)

	category := database.Category{Name: "Category " + uuid.NewString(), IsActive: true}
	require.NoError(t, db.Create(&category).Error)
	brand := database.Brand{Name: "Brand " + uuid.NewString(), IsActive: true}
	require.NoError(t, db.Create(&brand).Error)

	top := database.Product{Name: "Top Seller", Price: 10, CategoryID: category.ID, BrandID: brand.ID, IsActive: true}
	require.NoError(t, db.Create(&top).Error)
	other := database.Product{Name: "Also Ran", Price: 10, CategoryID: category.ID, BrandID: brand.ID, IsActive: true}
	require.NoError(t, db.Create(&other).Error)

	day := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	seedCompletedOrder(t, db, day, 90,
		database.OrderItem{ProductID: top.ID, ProductName: top.Name, Quantity: 8, UnitPrice: 10},
		database.OrderItem{ProductID: other.ID, ProductName: other.Name, Quantity: 1, UnitPrice: 10},
	)

	w := get(r, "/reports/products?start_date=2024-03-01&end_date=2024-03-31")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []ProductSales `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Top Seller", resp.Data[0].ProductName)
	assert.Equal(t, 8, resp.Data[0].TotalQty)
	assert.Equal(t, 80.0, resp.Data[0].TotalSales)
}

func TestExportProductsWritesWorkbook(t *testing.T) {
	db, r := setupTest(t)

	category := database.Category{Name: "Category " + uuid.NewString(), IsActive: true}
	require.NoError(t, db.Create(&category).Error)
	brand := database.Brand{Name: "Brand " + uuid.NewString(), IsActive: true}
	require.NoError(t, db.Create(&brand).Error)
	product := database.Product{Name: "Exported", Price: 3, CategoryID: category.ID, BrandID: brand.ID, IsActive: true}
	require.NoError(t, db.Create(&product).Error)

	w := get(r, "/reports/export/products")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "products_")
	assert.NotZero(t, w.Body.Len())
}
