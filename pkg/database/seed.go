package database

import (
	"errors"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RoleSeed describes one role to ensure at startup. The seed set is data, not
// code: adding a role means adding an entry here.
type RoleSeed struct {
	Name         string
	Description  string
	IsSystemRole bool
	Permissions  []string
}

// DefaultRoles is the role catalog ensured on every boot. SuperAdmin, Admin
// and User are system roles and can never be edited or deleted.
var DefaultRoles = []RoleSeed{
	{
		Name:         "SuperAdmin",
		Description:  "Full system administrator with all permissions",
		IsSystemRole: true,
		Permissions: []string{
			PermManageUsers, PermManageRoles, PermManageProducts,
			PermManageCategories, PermManageBrands, PermManageCustomers,
			PermManageOrders, PermManageSuppliers, PermManageInventory,
			PermViewReports, PermManageSettings,
		},
	},
	{
		Name:         "Admin",
		Description:  "Administrator with management permissions",
		IsSystemRole: true,
		Permissions: []string{
			PermManageUsers, PermManageRoles, PermManageProducts,
			PermManageCategories, PermManageBrands, PermManageCustomers,
			PermManageOrders, PermManageSuppliers, PermManageInventory,
			PermViewReports,
		},
	},
	{
		Name:        "Manager",
		Description: "Store manager with operational permissions",
		Permissions: []string{
			PermManageProducts, PermManageCategories, PermManageBrands,
			PermManageCustomers, PermManageOrders, PermManageSuppliers,
			PermManageInventory, PermViewReports,
		},
	},
	{
		Name:        "Sales",
		Description: "Sales staff with customer and order permissions",
		Permissions: []string{
			PermManageCustomers, PermManageOrders, PermViewReports,
		},
	},
	{
		Name:        "Viewer",
		Description: "View-only role with minimal permissions",
		Permissions: []string{PermViewReports},
	},
	{
		Name:         "User",
		Description:  "Basic user role for new registrations",
		IsSystemRole: true,
	},
}

// Seed ensures the default roles exist and bootstraps the admin account from
// ADMIN_EMAIL/ADMIN_PASSWORD. Existing rows are left untouched.
func Seed(db *gorm.DB) error {
	for _, seed := range DefaultRoles {
		var existing Role
		err := db.Where("name = ?", seed.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		role := Role{
			Name:         seed.Name,
			Description:  seed.Description,
			IsSystemRole: seed.IsSystemRole,
			CreatedBy:    "System",
		}
		applyPermissions(&role, seed.Permissions)

		if err := db.Create(&role).Error; err != nil {
			return err
		}
	}

	return seedAdminUser(db)
}

func applyPermissions(role *Role, perms []string) {
	for _, p := range perms {
		switch p {
		case PermManageUsers:
			role.CanManageUsers = true
		case PermManageRoles:
			role.CanManageRoles = true
		case PermManageProducts:
			role.CanManageProducts = true
		case PermManageCategories:
			role.CanManageCategories = true
		case PermManageBrands:
			role.CanManageBrands = true
		case PermManageCustomers:
			role.CanManageCustomers = true
		case PermManageOrders:
			role.CanManageOrders = true
		case PermManageSuppliers:
			role.CanManageSuppliers = true
		case PermManageInventory:
			role.CanManageInventory = true
		case PermViewReports:
			role.CanViewReports = true
		case PermManageSettings:
			role.CanManageSettings = true
		}
	}
}

func seedAdminUser(db *gorm.DB) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	var existing User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	var superAdmin Role
	if err := db.Where("name = ?", "SuperAdmin").First(&superAdmin).Error; err != nil {
		return err
	}

	admin := User{
		FirstName:    "System",
		LastName:     "Administrator",
		Email:        email,
		Username:     strings.Split(email, "@")[0],
		PasswordHash: string(hash),
		IsActive:     true,
		Roles:        []Role{superAdmin},
	}
	return db.Create(&admin).Error
}
