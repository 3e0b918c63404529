package customer

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
	r.GET("/customers", h.List)
	r.GET("/customers/:id", h.Get)
	r.GET("/customers/:id/stats", h.Stats)
	r.POST("/customers", h.Create)
	r.PUT("/customers/:id", h.Update)
	r.DELETE("/customers/:id", h.Delete)
	r.PATCH("/customers/:id/toggle", h.ToggleActive)
	return db, r
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

func TestCreateCustomerStartsWithZeroCounters(t *testing.T) {
	db, r := setupTest(t)

	w := doJSON(r, http.MethodPost, "/customers", gin.H{
		"name":  "Ada Lovelace",
		"email": "ada@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var customer database.Customer
	require.NoError(t, db.First(&customer).Error)
	assert.Equal(t, "Ada Lovelace", customer.Name)
	assert.Equal(t, 0, customer.TotalOrders)
	assert.Equal(t, 0.0, customer.TotalSpent)
	assert.Nil(t, customer.LastPurchaseDate)
	assert.True(t, customer.IsActive)
}

func TestUpdateLeavesCountersAlone(t *testing.T) {
	db, r := setupTest(t)

	customer := database.Customer{
		Name:        "Grace",
		TotalOrders: 5,
		TotalSpent:  120.5,
		IsActive:    true,
	}
	require.NoError(t, db.Create(&customer).Error)

	w := doJSON(r, http.MethodPut, "/customers/"+customer.ID.String(), gin.H{
		"name":  "Grace Hopper",
		"email": "grace@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var after database.Customer
	require.NoError(t, db.First(&after, "id = ?", customer.ID).Error)
	assert.Equal(t, "Grace Hopper", after.Name)
	assert.Equal(t, 5, after.TotalOrders)
	assert.Equal(t, 120.5, after.TotalSpent)
}

func TestDeleteCustomerWithOrdersRejected(t *testing.T) {
	db, r := setupTest(t)

	customer := database.Customer{Name: "Busy Buyer", IsActive: true}
	require.NoError(t, db.Create(&customer).Error)

	order := database.Order{
		CustomerID:  customer.ID,
		OrderNumber: "ORD-TEST-" + uuid.NewString(),
		Status:      database.StatusPending,
	}
	require.NoError(t, db.Create(&order).Error)

	w := doJSON(r, http.MethodDelete, "/customers/"+customer.ID.String(), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	var count int64
	db.Model(&database.Customer{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestDeleteCustomerWithoutOrders(t *testing.T) {
	db, r := setupTest(t)

	customer := database.Customer{Name: "One Timer", IsActive: true}
	require.NoError(t, db.Create(&customer).Error)

	w := doJSON(r, http.MethodDelete, "/customers/"+customer.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	db.Model(&database.Customer{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestToggleActiveKeepsHistory(t *testing.T) {
	db, r := setupTest(t)

	customer := database.Customer{Name: "Dormant", TotalOrders: 3, IsActive: true}
	require.NoError(t, db.Create(&customer).Error)

	w := doJSON(r, http.MethodPatch, "/customers/"+customer.ID.String()+"/toggle", gin.H{
		"is_active": false,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var after database.Customer
	require.NoError(t, db.First(&after, "id = ?", customer.ID).Error)
	assert.False(t, after.IsActive)
	assert.Equal(t, 3, after.TotalOrders)
}

func TestStatsCountsPendingOrders(t *testing.T) {
	db, r := setupTest(t)

	customer := database.Customer{Name: "Shopper", TotalOrders: 2, TotalSpent: 30, IsActive: true}
	require.NoError(t, db.Create(&customer).Error)

	for _, status := range []string{database.StatusPending, database.StatusProcessing, database.StatusCompleted} {
		order := database.Order{
			CustomerID:  customer.ID,
			OrderNumber: "ORD-TEST-" + uuid.NewString(),
			Status:      status,
		}
		require.NoError(t, db.Create(&order).Error)
	}

	w := doJSON(r, http.MethodGet, "/customers/"+customer.ID.String()+"/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			TotalOrders   int     `json:"total_orders"`
			TotalSpent    float64 `json:"total_spent"`
			PendingOrders int     `json:"pending_orders"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.TotalOrders)
	assert.Equal(t, 30.0, resp.Data.TotalSpent)
	assert.Equal(t, 2, resp.Data.PendingOrders)
}

func TestListFiltersBySearch(t *testing.T) {
	db, r := setupTest(t)

	for _, name := range []string{"Alice Smith", "Bob Jones"} {
		require.NoError(t, db.Create(&database.Customer{Name: name, IsActive: true}).Error)
	}

	w := doJSON(r, http.MethodGet, "/customers?search=Alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []database.Customer `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Alice Smith", resp.Data[0].Name)
}
