package order

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
	r.GET("/orders", h.List)
	r.GET("/orders/:id", h.Get)
	r.POST("/orders", h.Create)
	r.PUT("/orders/:id", h.Update)
	r.PATCH("/orders/:id/status", h.UpdateStatus)
	r.DELETE("/orders/:id", h.Delete)
	return db, r
}

func seedCustomer(t *testing.T, db *gorm.DB) database.Customer {
	t.Helper()
	customer := database.Customer{Name: "Customer " + uuid.NewString(), IsActive: true}
	require.NoError(t, db.Create(&customer).Error)
	return customer
}

func seedProduct(t *testing.T, db *gorm.DB, stock int, price float64) database.Product {
	t.Helper()
	category := database.Category{Name: "Category " + uuid.NewString(), IsActive: true}
	require.NoError(t, db.Create(&category).Error)
	brand := database.Brand{Name: "Brand " + uuid.NewString(), IsActive: true}
	require.NoError(t, db.Create(&brand).Error)
	product := database.Product{
		Name:          "Product " + uuid.NewString(),
		Price:         price,
		StockQuantity: stock,
		CategoryID:    category.ID,
		BrandID:       brand.ID,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
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

func reloadCustomer(t *testing.T, db *gorm.DB, id uuid.UUID) database.Customer {
	t.Helper()
	var customer database.Customer
	require.NoError(t, db.First(&customer, "id = ?", id).Error)
	return customer
}

func createOrder(t *testing.T, r *gin.Engine, body gin.H) database.Order {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/orders", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data database.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func TestCreatePendingOrder(t *testing.T) {
	db, r := setupTest(t)
	customer := seedCustomer(t, db)
	product := seedProduct(t, db, 20, 9.99)

	order := createOrder(t, r, gin.H{
		"customer_id":  customer.ID,
		"total_amount": 19.98,
		"items": []gin.H{
			{"product_id": product.ID, "quantity": 2},
		},
	})

	assert.Equal(t, database.StatusPending, order.Status)
	assert.Equal(t, database.PaymentPending, order.PaymentStatus)
	assert.NotEmpty(t, order.OrderNumber)
	require.Len(t, order.Items, 1)
	assert.Equal(t, product.Name, order.Items[0].ProductName)
	assert.Equal(t, 9.99, order.Items[0].UnitPrice)

	// Pending orders never touch stock
	assert.Equal(t, 20, currentStock(t, db, product.ID))

	// Counters move exactly once, at creation
	after := reloadCustomer(t, db, customer.ID)
	assert.Equal(t, 1, after.TotalOrders)
	assert.Equal(t, 19.98, after.TotalSpent)
	require.NotNil(t, after.LastPurchaseDate)
}

func TestCreateCompletedOrderDeductsStock(t *testing.T) {
	db, r := setupTest(t)
	customer := seedCustomer(t, db)
	product := seedProduct(t, db, 20, 5)

	createOrder(t, r, gin.H{
		"customer_id":  customer.ID,
		"status":       database.StatusCompleted,
		"total_amount": 15,
		"items": []gin.H{
			{"product_id": product.ID, "quantity": 3},
		},
	})

	assert.Equal(t, 17, currentStock(t, db, product.ID))
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	db, r := setupTest(t)
	customer := seedCustomer(t, db)

	w := doJSON(r, http.MethodPost, "/orders", gin.H{
		"customer_id":  customer.ID,
		"total_amount": 10,
		"items": []gin.H{
			{"product_id": uuid.New(), "quantity": 1},
		},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	db.Model(&database.Order{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestStatusTransitionIntoCompleted(t *testing.T) {
	db, r := setupTest(t)
	customer := seedCustomer(t, db)
	product := seedProduct(t, db, 10, 4)

	order := createOrder(t, r, gin.H{
		"customer_id":  customer.ID,
		"total_amount": 8,
		"items": []gin.H{
			{"product_id": product.ID, "quantity": 2},
		},
	})
	require.Equal(t, 10, currentStock(t, db, product.ID))

	w := doJSON(r, http.MethodPatch, "/orders/"+order.ID.String()+"/status", gin.H{
		"status": database.StatusCompleted,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 8, currentStock(t, db, product.ID))
}

func TestStatusTransitionOutOfCompletedRestoresStock(t *testing.T) {
	db, r := setupTest(t)
	customer := seedCustomer(t, db)
	product := seedProduct(t, db, 10, 4)

	order := createOrder(t, r, gin.H{
		"customer_id":  customer.ID,
		"status":       database.StatusCompleted,
		"total_amount": 8,
		"items": []gin.H{
			{"product_id": product.ID, "quantity": 2},
		},
	})
	require.Equal(t, 8, currentStock(t, db, product.ID))

	w := doJSON(r, http.MethodPatch, "/orders/"+order.ID.String()+"/status", gin.H{
		"status": database.StatusCancelled,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, currentStock(t, db, product.ID))
}

func TestUnchangedStatusLeavesStock(t *testing.T) {
	db, r := setupTest(t)
	customer := seedCustomer(t, db)
	product := seedProduct(t, db, 10, 4)

	order := createOrder(t, r, gin.H{
		"customer_id":  customer.ID,
		"status":       database.StatusCompleted,
		"total_amount": 8,
		"items": []gin.H{
			{"product_id": product.ID, "quantity": 2},
		},
	})
	require.Equal(t, 8, currentStock(t, db, product.ID))

	// Re-submitting Completed must not deduct twice
	w := doJSON(r, http.MethodPatch, "/orders/"+order.ID.String()+"/status", gin.H{
		"status": database.StatusCompleted,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 8, currentStock(t, db, product.ID))
}

func TestUpdateDoesNotTouchCustomerCounters(t *testing.T) {
	db, r := setupTest(t)
	customer := seedCustomer(t, db)
	product := seedProduct(t, db, 10, 4)

	order := createOrder(t, r, gin.H{
		"customer_id":  customer.ID,
		"total_amount": 8,
		"items": []gin.H{
			{"product_id": product.ID, "quantity": 2},
		},
	})

	w := doJSON(r, http.MethodPut, "/orders/"+order.ID.String(), gin.H{
		"customer_id":  customer.ID,
		"status":       database.StatusProcessing,
		"total_amount": 100,
	})
	require.Equal(t, http.StatusOK, w.Code)

	after := reloadCustomer(t, db, customer.ID)
	assert.Equal(t, 1, after.TotalOrders)
	assert.Equal(t, 8.0, after.TotalSpent)
}

func TestDeleteCompletedOrderRestoresStockAndCounters(t *testing.T) {
	db, r := setupTest(t)
	customer := seedCustomer(t, db)
	product := seedProduct(t, db, 10, 4)

	order := createOrder(t, r, gin.H{
		"customer_id":  customer.ID,
		"status":       database.StatusCompleted,
		"total_amount": 8,
		"items": []gin.H{
			{"product_id": product.ID, "quantity": 2},
		},
	})
	require.Equal(t, 8, currentStock(t, db, product.ID))

	w := doJSON(r, http.MethodDelete, "/orders/"+order.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 10, currentStock(t, db, product.ID))

	after := reloadCustomer(t, db, customer.ID)
	assert.Equal(t, 0, after.TotalOrders)
	assert.Equal(t, 0.0, after.TotalSpent)

	var items int64
	db.Model(&database.OrderItem{}).Count(&items)
	assert.EqualValues(t, 0, items)
}

func TestDeletePendingOrderLeavesStock(t *testing.T) {
	db, r := setupTest(t)
	customer := seedCustomer(t, db)
	product := seedProduct(t, db, 10, 4)

	order := createOrder(t, r, gin.H{
		"customer_id":  customer.ID,
		"total_amount": 8,
		"items": []gin.H{
			{"product_id": product.ID, "quantity": 2},
		},
	})

	w := doJSON(r, http.MethodDelete, "/orders/"+order.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, currentStock(t, db, product.ID))
}

// Full lifecycle: create pending, complete, cancel, complete again, delete.
// Stock must end where it started and counters must net out to zero.
func TestOrderLifecycle(t *testing.T) {
	db, r := setupTest(t)
	customer := seedCustomer(t, db)
	product := seedProduct(t, db, 50, 10)

	order := createOrder(t, r, gin.H{
		"customer_id":  customer.ID,
		"total_amount": 50,
		"items": []gin.H{
			{"product_id": product.ID, "quantity": 5},
		},
	})
	require.Equal(t, 50, currentStock(t, db, product.ID))

	for _, step := range []struct {
		status string
		stock  int
	}{
		{database.StatusCompleted, 45},
		{database.StatusCancelled, 50},
		{database.StatusCompleted, 45},
	} {
		w := doJSON(r, http.MethodPatch, "/orders/"+order.ID.String()+"/status", gin.H{
			"status": step.status,
		})
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, step.stock, currentStock(t, db, product.ID))
	}

	w := doJSON(r, http.MethodDelete, "/orders/"+order.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 50, currentStock(t, db, product.ID))

	after := reloadCustomer(t, db, customer.ID)
	assert.Equal(t, 0, after.TotalOrders)
	assert.Equal(t, 0.0, after.TotalSpent)
}

func TestListFiltersByStatus(t *testing.T) {
	db, r := setupTest(t)
	customer := seedCustomer(t, db)
	product := seedProduct(t, db, 50, 10)

	createOrder(t, r, gin.H{
		"customer_id":  customer.ID,
		"total_amount": 10,
		"items":        []gin.H{{"product_id": product.ID, "quantity": 1}},
	})
	createOrder(t, r, gin.H{
		"customer_id":  customer.ID,
		"status":       database.StatusCompleted,
		"total_amount": 20,
		"items":        []gin.H{{"product_id": product.ID, "quantity": 2}},
	})

	w := doJSON(r, http.MethodGet, "/orders?status=Completed", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []database.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, database.StatusCompleted, resp.Data[0].Status)
}
