package role

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
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

type RoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`

	CanManageUsers      bool `json:"can_manage_users"`
	CanManageRoles      bool `json:"can_manage_roles"`
	CanManageProducts   bool `json:"can_manage_products"`
	CanManageCategories bool `json:"can_manage_categories"`
	CanManageBrands     bool `json:"can_manage_brands"`
	CanManageCustomers  bool `json:"can_manage_customers"`
	CanManageOrders     bool `json:"can_manage_orders"`
	CanManageSuppliers  bool `json:"can_manage_suppliers"`
	CanManageInventory  bool `json:"can_manage_inventory"`
	CanViewReports      bool `json:"can_view_reports"`
	CanManageSettings   bool `json:"can_manage_settings"`
}

type roleWithCount struct {
	database.Role
	UserCount int64 `json:"user_count"`
}

// List returns roles with user counts, optionally filtered by search term
func (h *Handler) List(c *gin.Context) {
	search := c.Query("search")

	query := h.db.Model(&database.Role{}).Order("name ASC")
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var roles []database.Role
	if err := query.Find(&roles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch roles"})
		return
	}

	result := make([]roleWithCount, 0, len(roles))
	for _, r := range roles {
		count := h.db.Model(&r).Association("Users").Count()
		result = append(result, roleWithCount{Role: r, UserCount: count})
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// Get returns a role and the users assigned to it
func (h *Handler) Get(c *gin.Context) {
	var role database.Role
	if err := h.db.Preload("Users").Where("id = ?", c.Param("id")).First(&role).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Role not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": role})
}

// Create adds a custom role. Roles created here are never system roles.
func (h *Handler) Create(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := database.Role{
		Name:         req.Name,
		Description:  req.Description,
		IsSystemRole: false,
		CreatedBy:    c.GetString("email"),
	}
	applyFlags(&role, req)

	if err := h.db.Create(&role).Error; err != nil {
		if database.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "A role with this name already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create role"})
		return
	}

	h.logger.LogCreate(c, "role", role.ID, map[string]interface{}{"name": role.Name})

	c.JSON(http.StatusCreated, gin.H{"data": role})
}

// Update modifies a custom role. System roles cannot be edited.
func (h *Handler) Update(c *gin.Context) {
	var role database.Role
	if err := h.db.Where("id = ?", c.Param("id")).First(&role).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Role not found"})
		return
	}

	if role.IsSystemRole {
		c.JSON(http.StatusForbidden, gin.H{"error": "System roles cannot be edited"})
		return
	}

	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role.Name = req.Name
	role.Description = req.Description
	applyFlags(&role, req)

	if err := h.db.Save(&role).Error; err != nil {
		if database.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "A role with this name already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}

	h.logger.LogUpdate(c, "role", role.ID, nil, map[string]interface{}{"name": role.Name})

	c.JSON(http.StatusOK, gin.H{"data": role})
}

// Delete removes a custom role. System roles are always rejected; roles with
// assigned users must be unassigned first.
func (h *Handler) Delete(c *gin.Context) {
	var role database.Role
	if err := h.db.Where("id = ?", c.Param("id")).First(&role).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Role not found"})
		return
	}

	if role.IsSystemRole {
		c.JSON(http.StatusForbidden, gin.H{"error": "System roles cannot be deleted"})
		return
	}

	userCount := h.db.Model(&role).Association("Users").Count()
	if userCount > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error": fmt.Sprintf("Cannot delete role '%s' because it has %d users assigned. Please reassign users first.",
				role.Name, userCount),
		})
		return
	}

	if err := h.db.Delete(&role).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete role"})
		return
	}

	h.logger.LogDelete(c, "role", role.ID, map[string]interface{}{"name": role.Name})

	c.JSON(http.StatusOK, gin.H{"message": "Role deleted"})
}

func applyFlags(role *database.Role, req RoleRequest) {
	role.CanManageUsers = req.CanManageUsers
	role.CanManageRoles = req.CanManageRoles
	role.CanManageProducts = req.CanManageProducts
	role.CanManageCategories = req.CanManageCategories
	role.CanManageBrands = req.CanManageBrands
	role.CanManageCustomers = req.CanManageCustomers
	role.CanManageOrders = req.CanManageOrders
	role.CanManageSuppliers = req.CanManageSuppliers
	role.CanManageInventory = req.CanManageInventory
	role.CanViewReports = req.CanViewReports
	role.CanManageSettings = req.CanManageSettings
}
