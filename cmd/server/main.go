package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/storehub/storehub-backend/internal/auth"
	"github.com/storehub/storehub-backend/internal/brand"
	"github.com/storehub/storehub-backend/internal/category"
	"github.com/storehub/storehub-backend/internal/customer"
	"github.com/storehub/storehub-backend/internal/dashboard"
	"github.com/storehub/storehub-backend/internal/order"
	"github.com/storehub/storehub-backend/internal/product"
	"github.com/storehub/storehub-backend/internal/report"
	"github.com/storehub/storehub-backend/internal/role"
	"github.com/storehub/storehub-backend/internal/stock"
	"github.com/storehub/storehub-backend/internal/supplier"
	"github.com/storehub/storehub-backend/internal/user"
	"github.com/storehub/storehub-backend/pkg/database"
	"github.com/storehub/storehub-backend/pkg/middleware"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed system roles and the initial admin account
	if err := database.Seed(db); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	// Setup Gin router
	r := gin.Default()

	// Middleware
	r.Use(middleware.CORS())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Uploaded product images
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	r.Static("/uploads", uploadDir)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Auth routes (public)
		authHandler := auth.NewHandler(db)
		v1.POST("/auth/register", authHandler.Register)
		v1.POST("/auth/login", authHandler.Login)
		v1.POST("/auth/refresh", authHandler.RefreshToken)

		// Google OAuth routes
		v1.GET("/auth/google", authHandler.GoogleLogin)
		v1.GET("/auth/google/callback", authHandler.GoogleCallback)

		// Protected routes
		protected := v1.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth - current user
			protected.GET("/auth/me", authHandler.Me)
			protected.POST("/auth/change-password", authHandler.ChangePassword)

			// Permission checker
			perms := middleware.NewPermissionChecker(db)

			// Dashboard routes
			dashboardHandler := dashboard.NewHandler(db)
			protected.GET("/dashboard/stats", dashboardHandler.Stats)
			protected.GET("/dashboard/top-products", dashboardHandler.TopProducts)
			protected.GET("/dashboard/recent-transactions", dashboardHandler.RecentTransactions)

			// Product routes
			productHandler := product.NewHandler(db)
			protected.GET("/products", productHandler.List)
			protected.GET("/products/low-stock", productHandler.LowStock)
			protected.GET("/products/:id", productHandler.Get)
			protected.POST("/products", perms.Require(database.PermManageProducts), productHandler.Create)
			protected.PUT("/products/:id", perms.Require(database.PermManageProducts), productHandler.Update)
			protected.DELETE("/products/:id", perms.Require(database.PermManageProducts), productHandler.Delete)
			protected.PATCH("/products/:id/toggle", perms.Require(database.PermManageProducts), productHandler.ToggleActive)
			protected.POST("/products/:id/restock", perms.Require(database.PermManageInventory), productHandler.Restock)
			protected.POST("/products/:id/image", perms.Require(database.PermManageProducts), productHandler.UploadImage)

			// Product bulk import
			importHandler := product.NewImportHandler(db)
			protected.POST("/products/import", perms.Require(database.PermManageProducts), importHandler.Import)
			protected.GET("/products/import/template", importHandler.DownloadTemplate)

			// Category routes
			categoryHandler := category.NewHandler(db)
			protected.GET("/categories", categoryHandler.List)
			protected.GET("/categories/:id", categoryHandler.Get)
			protected.POST("/categories", perms.Require(database.PermManageCategories), categoryHandler.Create)
			protected.PUT("/categories/:id", perms.Require(database.PermManageCategories), categoryHandler.Update)
			protected.DELETE("/categories/:id", perms.Require(database.PermManageCategories), categoryHandler.Delete)

			// Brand routes
			brandHandler := brand.NewHandler(db)
			protected.GET("/brands", brandHandler.List)
			protected.GET("/brands/:id", brandHandler.Get)
			protected.POST("/brands", perms.Require(database.PermManageBrands), brandHandler.Create)
			protected.PUT("/brands/:id", perms.Require(database.PermManageBrands), brandHandler.Update)
			protected.DELETE("/brands/:id", perms.Require(database.PermManageBrands), brandHandler.Delete)

			// Supplier routes
			supplierHandler := supplier.NewHandler(db)
			protected.GET("/suppliers", supplierHandler.List)
			protected.GET("/suppliers/:id", supplierHandler.Get)
			protected.POST("/suppliers", perms.Require(database.PermManageSuppliers), supplierHandler.Create)
			protected.PUT("/suppliers/:id", perms.Require(database.PermManageSuppliers), supplierHandler.Update)
			protected.DELETE("/suppliers/:id", perms.Require(database.PermManageSuppliers), supplierHandler.Delete)

			// Customer routes
			customerHandler := customer.NewHandler(db)
			protected.GET("/customers", customerHandler.List)
			protected.GET("/customers/:id", customerHandler.Get)
			protected.GET("/customers/:id/stats", customerHandler.Stats)
			protected.POST("/customers", perms.Require(database.PermManageCustomers), customerHandler.Create)
			protected.PUT("/customers/:id", perms.Require(database.PermManageCustomers), customerHandler.Update)
			protected.DELETE("/customers/:id", perms.Require(database.PermManageCustomers), customerHandler.Delete)
			protected.PATCH("/customers/:id/toggle", perms.Require(database.PermManageCustomers), customerHandler.ToggleActive)

			// Order routes
			orderHandler := order.NewHandler(db)
			protected.GET("/orders", orderHandler.List)
			protected.GET("/orders/product-details", orderHandler.ProductDetails)
			protected.GET("/orders/:id", orderHandler.Get)
			protected.POST("/orders", perms.Require(database.PermManageOrders), orderHandler.Create)
			protected.PUT("/orders/:id", perms.Require(database.PermManageOrders), orderHandler.Update)
			protected.PATCH("/orders/:id/status", perms.Require(database.PermManageOrders), orderHandler.UpdateStatus)
			protected.DELETE("/orders/:id", perms.Require(database.PermManageOrders), orderHandler.Delete)

			// Stock transaction routes
			stockHandler := stock.NewHandler(db)
			protected.GET("/stock-transactions", stockHandler.List)
			protected.GET("/stock-transactions/product-details", stockHandler.ProductDetails)
			protected.GET("/stock-transactions/:id", stockHandler.Get)
			protected.POST("/stock-transactions", perms.Require(database.PermManageInventory), stockHandler.Create)
			protected.POST("/stock-transactions/bulk-purchase", perms.Require(database.PermManageInventory), stockHandler.BulkPurchase)
			protected.DELETE("/stock-transactions/:id", perms.Require(database.PermManageInventory), stockHandler.Delete)

			// Report routes
			reportHandler := report.NewHandler(db)
			reports := protected.Group("/reports", perms.Require(database.PermViewReports))
			reports.GET("/sales", reportHandler.Sales)
			reports.GET("/products", reportHandler.ProductSalesReport)
			reports.GET("/export/products", reportHandler.ExportProducts)
			reports.GET("/export/stock-ledger", reportHandler.ExportStockLedger)

			// User management routes
			userHandler := user.NewHandler(db)
			users := protected.Group("/users", perms.Require(database.PermManageUsers))
			users.GET("", userHandler.List)
			users.GET("/:id", userHandler.Get)
			users.POST("", userHandler.Create)
			users.PUT("/:id", userHandler.Update)
			users.PATCH("/:id/toggle", userHandler.ToggleActive)
			users.DELETE("/:id", userHandler.Delete)
			users.POST("/:id/reset-password", userHandler.ResetPassword)
			protected.GET("/activity-logs", perms.Require(database.PermManageUsers), userHandler.ActivityLogs)

			// Role management routes
			roleHandler := role.NewHandler(db)
			roles := protected.Group("/roles", perms.Require(database.PermManageRoles))
			roles.GET("", roleHandler.List)
			roles.GET("/:id", roleHandler.Get)
			roles.POST("", roleHandler.Create)
			roles.PUT("/:id", roleHandler.Update)
			roles.DELETE("/:id", roleHandler.Delete)
		}
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
