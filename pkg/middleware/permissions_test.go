package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/storehub/storehub-backend/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupPermissionTest(t *testing.T) (*gorm.DB, *PermissionChecker) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db, NewPermissionChecker(db)
}

func seedUser(t *testing.T, db *gorm.DB, active bool, roles ...database.Role) database.User {
	t.Helper()
	user := database.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     "perm@example.com",
		Username:  "permuser",
		IsActive:  active,
		Roles:     roles,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func requestAs(checker *PermissionChecker, permission, userID string) *httptest.ResponseRecorder {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
	})
	r.GET("/guarded", checker.Require(permission), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guarded", nil))
	return w
}

func TestRequireGrantsByCapabilityFlag(t *testing.T) {
	db, checker := setupPermissionTest(t)

	role := database.Role{Name: "Inventory", CanManageInventory: true}
	require.NoError(t, db.Create(&role).Error)
	user := seedUser(t, db, true, role)

	w := requestAs(checker, database.PermManageInventory, user.ID.String())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireDeniesMissingCapability(t *testing.T) {
	db, checker := setupPermissionTest(t)

	role := database.Role{Name: "Inventory", CanManageInventory: true}
	require.NoError(t, db.Create(&role).Error)
	user := seedUser(t, db, true, role)

	w := requestAs(checker, database.PermManageUsers, user.ID.String())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireIgnoresRoleNames(t *testing.T) {
	db, checker := setupPermissionTest(t)

	// A role named like an administrator carries no implicit authority
	role := database.Role{Name: "Admin"}
	require.NoError(t, db.Create(&role).Error)
	user := seedUser(t, db, true, role)

	w := requestAs(checker, database.PermManageUsers, user.ID.String())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRejectsInactiveUser(t *testing.T) {
	db, checker := setupPermissionTest(t)

	role := database.Role{Name: "Inventory", CanManageInventory: true}
	require.NoError(t, db.Create(&role).Error)
	user := seedUser(t, db, false, role)

	w := requestAs(checker, database.PermManageInventory, user.ID.String())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRejectsUnknownUser(t *testing.T) {
	_, checker := setupPermissionTest(t)

	w := requestAs(checker, database.PermManageInventory, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAnyRoleSuffices(t *testing.T) {
	db, checker := setupPermissionTest(t)

	viewer := database.Role{Name: "Viewer", CanViewReports: true}
	require.NoError(t, db.Create(&viewer).Error)
	sales := database.Role{Name: "Sales", CanManageOrders: true}
	require.NoError(t, db.Create(&sales).Error)
	user := seedUser(t, db, true, viewer, sales)

	w := requestAs(checker, database.PermManageOrders, user.ID.String())
	assert.Equal(t, http.StatusOK, w.Code)
}
