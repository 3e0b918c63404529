package stock

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

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
	r.GET("/stock-transactions", h.List)
	r.GET("/stock-transactions/:id", h.Get)
	r.POST("/stock-transactions", h.Create)
	r.POST("/stock-transactions/bulk-purchase", h.BulkPurchase)
	r.DELETE("/stock-transactions/:id", h.Delete)
	return db, r
}

func seedProduct(t *testing.T, db *gorm.DB, stock int) database.Product {
	t.Helper()
	category := database.Category{Name: "Category " + uuid.NewString(), IsActive: true}
	require.NoError(t, db.Create(&category).Error)
	brand := database.Brand{Name: "Brand " + uuid.NewString(), IsActive: true}
	require.NoError(t, db.Create(&brand).Error)
	product := database.Product{
		Name:          "Product " + uuid.NewString(),
		Price:         25,
		StockQuantity: stock,
		CategoryID:    category.ID,
		BrandID:       brand.ID,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func seedSupplier(t *testing.T, db *gorm.DB) database.Supplier {
	t.Helper()
	supplier := database.Supplier{Name: "Supplier " + uuid.NewString(), IsActive: true}
	require.NoError(t, db.Create(&supplier).Error)
	return supplier
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func currentStock(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var product database.Product
	require.NoError(t, db.First(&product, "id = ?", id).Error)
	return product.StockQuantity
}

func TestCreatePurchaseAddsStock(t *testing.T) {
	db, r := setupTest(t)
	product := seedProduct(t, db, 10)

	w := doJSON(r, http.MethodPost, "/stock-transactions", gin.H{
		"product_id":       product.ID,
		"transaction_type": database.TxPurchase,
		"quantity":         15,
		"unit_cost":        4.5,
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 25, currentStock(t, db, product.ID))
}

func TestCreateSaleSubtractsStock(t *testing.T) {
	db, r := setupTest(t)
	product := seedProduct(t, db, 10)

	w := doJSON(r, http.MethodPost, "/stock-transactions", gin.H{
		"product_id":       product.ID,
		"transaction_type": database.TxSale,
		"quantity":         4,
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 6, currentStock(t, db, product.ID))
}

func TestCreateAdjustmentSetsStockAbsolutely(t *testing.T) {
	db, r := setupTest(t)
	product := seedProduct(t, db, 50)

	w := doJSON(r, http.MethodPost, "/stock-transactions", gin.H{
		"product_id":       product.ID,
		"transaction_type": database.TxAdjustment,
		"quantity":         7,
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 7, currentStock(t, db, product.ID))
}

func TestCreateTransferLeavesStock(t *testing.T) {
	db, r := setupTest(t)
	product := seedProduct(t, db, 30)

	w := doJSON(r, http.MethodPost, "/stock-transactions", gin.H{
		"product_id":       product.ID,
		"transaction_type": database.TxTransfer,
		"quantity":         12,
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 30, currentStock(t, db, product.ID))

	var count int64
	db.Model(&database.StockTransaction{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCreateRejectsUnknownType(t *testing.T) {
	db, r := setupTest(t)
	product := seedProduct(t, db, 10)

	w := doJSON(r, http.MethodPost, "/stock-transactions", gin.H{
		"product_id":       product.ID,
		"transaction_type": "Donation",
		"quantity":         5,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 10, currentStock(t, db, product.ID))
}

func TestDeletePurchaseReversesStock(t *testing.T) {
	db, r := setupTest(t)
	product := seedProduct(t, db, 10)

	w := doJSON(r, http.MethodPost, "/stock-transactions", gin.H{
		"product_id":       product.ID,
		"transaction_type": database.TxPurchase,
		"quantity":         20,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, 30, currentStock(t, db, product.ID))

	var transaction database.StockTransaction
	require.NoError(t, db.First(&transaction).Error)

	w = doJSON(r, http.MethodDelete, "/stock-transactions/"+transaction.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, currentStock(t, db, product.ID))
}

func TestDeleteSaleRestoresStock(t *testing.T) {
	db, r := setupTest(t)
	product := seedProduct(t, db, 10)

	doJSON(r, http.MethodPost, "/stock-transactions", gin.H{
		"product_id":       product.ID,
		"transaction_type": database.TxSale,
		"quantity":         6,
	})
	require.Equal(t, 4, currentStock(t, db, product.ID))

	var transaction database.StockTransaction
	require.NoError(t, db.First(&transaction).Error)

	w := doJSON(r, http.MethodDelete, "/stock-transactions/"+transaction.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, currentStock(t, db, product.ID))
}

func TestDeleteAdjustmentLeavesStock(t *testing.T) {
	db, r := setupTest(t)
	product := seedProduct(t, db, 40)

	doJSON(r, http.MethodPost, "/stock-transactions", gin.H{
		"product_id":       product.ID,
		"transaction_type": database.TxAdjustment,
		"quantity":         15,
	})
	require.Equal(t, 15, currentStock(t, db, product.ID))

	var transaction database.StockTransaction
	require.NoError(t, db.First(&transaction).Error)

	w := doJSON(r, http.MethodDelete, "/stock-transactions/"+transaction.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 15, currentStock(t, db, product.ID))

	var count int64
	db.Model(&database.StockTransaction{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestBulkPurchaseAppliesAndSkips(t *testing.T) {
	db, r := setupTest(t)
	supplier := seedSupplier(t, db)
	first := seedProduct(t, db, 5)
	second := seedProduct(t, db, 0)

	w := doJSON(r, http.MethodPost, "/stock-transactions/bulk-purchase", gin.H{
		"supplier_id": supplier.ID,
		"items": []gin.H{
			{"product_id": first.ID, "quantity": 10, "unit_cost": 2.5},
			{"product_id": second.ID, "quantity": 3, "unit_cost": 1.0},
			{"product_id": uuid.New(), "quantity": 8, "unit_cost": 4.0},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success         bool   `json:"success"`
		ReferenceNumber string `json:"reference_number"`
		Applied         int    `json:"applied"`
		Skipped         int    `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Applied)
	assert.Equal(t, 1, resp.Skipped)
	assert.NotEmpty(t, resp.ReferenceNumber)

	assert.Equal(t, 15, currentStock(t, db, first.ID))
	assert.Equal(t, 3, currentStock(t, db, second.ID))

	var transactions []database.StockTransaction
	require.NoError(t, db.Find(&transactions).Error)
	require.Len(t, transactions, 2)
	for _, tx := range transactions {
		assert.Equal(t, resp.ReferenceNumber, tx.ReferenceNumber)
		assert.Equal(t, database.TxPurchase, tx.TransactionType)
	}
}

func TestListFiltersByType(t *testing.T) {
	db, r := setupTest(t)
	product := seedProduct(t, db, 100)

	doJSON(r, http.MethodPost, "/stock-transactions", gin.H{
		"product_id":       product.ID,
		"transaction_type": database.TxPurchase,
		"quantity":         10,
	})
	doJSON(r, http.MethodPost, "/stock-transactions", gin.H{
		"product_id":       product.ID,
		"transaction_type": database.TxSale,
		"quantity":         5,
	})

	w := doJSON(r, http.MethodGet, "/stock-transactions?type=Sale", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []database.StockTransaction `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, database.TxSale, resp.Data[0].TransactionType)
}
