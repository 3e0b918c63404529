package user

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storehub/storehub-backend/pkg/activitylog"
	"github.com/storehub/storehub-backend/pkg/database"
	"golang.org/x/crypto/bcrypt"
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

type CreateUserRequest struct {
	FirstName  string     `json:"first_name" binding:"required"`
	LastName   string     `json:"last_name" binding:"required"`
	Email      string     `json:"email" binding:"required,email"`
	Username   string     `json:"username" binding:"required,min=3"`
	Password   string     `json:"password" binding:"required,min=6"`
	EmployeeID string     `json:"employee_id"`
	Department string     `json:"department"`
	Position   string     `json:"position"`
	HireDate   *time.Time `json:"hire_date"`
	Roles      []string   `json:"roles"`
}

type UpdateUserRequest struct {
	FirstName  string     `json:"first_name" binding:"required"`
	LastName   string     `json:"last_name" binding:"required"`
	Email      string     `json:"email" binding:"required,email"`
	EmployeeID string     `json:"employee_id"`
	Department string     `json:"department"`
	Position   string     `json:"position"`
	HireDate   *time.Time `json:"hire_date"`
	Roles      []string   `json:"roles"`
}

// List returns users with optional search and status filter
func (h *Handler) List(c *gin.Context) {
	search := c.Query("search")
	filter := c.DefaultQuery("filter", "all")

	query := h.db.Model(&database.User{}).Preload("Roles").Order("first_name ASC")

	switch filter {
	case "active":
		query = query.Where("is_active = ?", true)
	case "inactive":
		query = query.Where("is_active = ?", false)
	}

	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			"first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR username LIKE ? OR employee_id LIKE ?",
			pattern, pattern, pattern, pattern, pattern)
	}

	var users []database.User
	if err := query.Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": users})
}

// Get returns a user's details with roles, in the JSON shape used by the
// admin screens
func (h *Handler) Get(c *gin.Context) {
	var user database.User
	if err := h.db.Preload("Roles").Where("id = ?", c.Param("id")).First(&user).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "User not found"})
		return
	}

	roleNames := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roleNames = append(roleNames, r.Name)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"data":        user,
		"full_name":   user.FullName(),
		"roles":       roleNames,
		"last_login":  user.LastLoginAt,
		"employee_id": user.EmployeeID,
	})
}

// Create adds a new user with the given roles. The account starts with
// ForcePasswordChange set so the temporary password must be rotated.
func (h *Handler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	roles, err := h.resolveRoles(req.Roles)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := database.User{
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Email:               req.Email,
		Username:            req.Username,
		PasswordHash:        string(hash),
		EmployeeID:          req.EmployeeID,
		Department:          req.Department,
		Position:            req.Position,
		HireDate:            req.HireDate,
		IsActive:            true,
		ForcePasswordChange: true,
		Roles:               roles,
	}

	if err := h.db.Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email or username already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	h.logger.LogCreate(c, "user", user.ID, map[string]interface{}{
		"email": user.Email,
		"name":  user.FullName(),
	})

	c.JSON(http.StatusCreated, gin.H{"data": user})
}

// Update modifies a user's profile and role assignments
func (h *Handler) Update(c *gin.Context) {
	var user database.User
	if err := h.db.Where("id = ?", c.Param("id")).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Email = req.Email
	user.EmployeeID = req.EmployeeID
	user.Department = req.Department
	user.Position = req.Position
	user.HireDate = req.HireDate

	if err := h.db.Save(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	if req.Roles != nil {
		roles, err := h.resolveRoles(req.Roles)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := h.db.Model(&user).Association("Roles").Replace(roles); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update roles"})
			return
		}
	}

	h.db.Preload("Roles").First(&user, user.ID)

	h.logger.LogUpdate(c, "user", user.ID, nil, map[string]interface{}{
		"email": user.Email,
		"name":  user.FullName(),
	})

	c.JSON(http.StatusOK, gin.H{"data": user})
}

// ToggleActive deactivates or reactivates an account. Self-deactivation is
// rejected.
func (h *Handler) ToggleActive(c *gin.Context) {
	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !req.IsActive && c.Param("id") == c.GetString("user_id") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot deactivate your own account"})
		return
	}

	var user database.User
	if err := h.db.Where("id = ?", c.Param("id")).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	user.IsActive = req.IsActive
	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	h.logger.LogToggle(c, "user", user.ID, user.IsActive, user.FullName())

	c.JSON(http.StatusOK, gin.H{"data": user})
}

// Delete removes a user account. Self-deletion is rejected.
func (h *Handler) Delete(c *gin.Context) {
	if c.Param("id") == c.GetString("user_id") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}

	var user database.User
	if err := h.db.Where("id = ?", c.Param("id")).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := h.db.Model(&user).Association("Roles").Clear(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	if err := h.db.Delete(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	h.logger.LogDelete(c, "user", user.ID, map[string]interface{}{
		"email": user.Email,
		"name":  user.FullName(),
	})

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// ResetPassword sets a new password for a user and forces a change at next
// login
func (h *Handler) ResetPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user database.User
	if err := h.db.Where("id = ?", c.Param("id")).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	if err := h.db.Model(&user).Updates(map[string]interface{}{
		"password_hash":         string(hash),
		"force_password_change": true,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}

	h.logger.LogUpdate(c, "user", user.ID, nil, map[string]interface{}{"password_reset": true})

	c.JSON(http.StatusOK, gin.H{"message": "Password reset. The user must change it at next login."})
}

// ActivityLogs returns the most recent audit entries
func (h *Handler) ActivityLogs(c *gin.Context) {
	var logs []database.ActivityLog
	if err := h.db.Preload("User").Order("created_at DESC").Limit(100).Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch activity logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": logs})
}

func (h *Handler) resolveRoles(names []string) ([]database.Role, error) {
	if len(names) == 0 {
		var userRole database.Role
		if err := h.db.Where("name = ?", "User").First(&userRole).Error; err != nil {
			return nil, err
		}
		return []database.Role{userRole}, nil
	}

	var roles []database.Role
	if err := h.db.Where("name IN ?", names).Find(&roles).Error; err != nil {
		return nil, err
	}
	if len(roles) != len(names) {
		return nil, errUnknownRole
	}
	return roles, nil
}

var errUnknownRole = &unknownRoleError{}

type unknownRoleError struct{}

func (e *unknownRoleError) Error() string { return "one or more roles do not exist" }
