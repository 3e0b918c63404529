package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storehub/storehub-backend/pkg/database"
	"gorm.io/gorm"
)

// PermissionChecker resolves the caller's roles and checks capability flags.
// Authorization always consults the role's stored permissions, never role
// names.
type PermissionChecker struct {
	db *gorm.DB
}

func NewPermissionChecker(db *gorm.DB) *PermissionChecker {
	return &PermissionChecker{db: db}
}

// Require aborts with 403 unless one of the caller's roles grants the named
// permission. Inactive users are rejected outright.
func (p *PermissionChecker) Require(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var user database.User
		if err := p.db.Preload("Roles").Where("id = ?", userID).First(&user).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}

		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Account is deactivated"})
			return
		}

		for _, role := range user.Roles {
			if role.HasPermission(permission) {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":      "Permission denied",
			"permission": permission,
		})
	}
}
