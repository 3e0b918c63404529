package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order statuses. Transitions into/out of StatusCompleted drive stock movement.
const (
	StatusPending    = "Pending"
	StatusProcessing = "Processing"
	StatusCompleted  = "Completed"
	StatusCancelled  = "Cancelled"
	StatusRefunded   = "Refunded"
)

// Payment statuses
const (
	PaymentPending  = "Pending"
	PaymentPaid     = "Paid"
	PaymentFailed   = "Failed"
	PaymentRefunded = "Refunded"
)

// Stock transaction types
const (
	TxPurchase   = "Purchase"
	TxSale       = "Sale"
	TxReturn     = "Return"
	TxAdjustment = "Adjustment"
	TxTransfer   = "Transfer"
)

// Permission names checked by the authorization middleware. Each maps to one
// capability flag on Role.
const (
	PermManageUsers      = "manage_users"
	PermManageRoles      = "manage_roles"
	PermManageProducts   = "manage_products"
	PermManageCategories = "manage_categories"
	PermManageBrands     = "manage_brands"
	PermManageCustomers  = "manage_customers"
	PermManageOrders     = "manage_orders"
	PermManageSuppliers  = "manage_suppliers"
	PermManageInventory  = "manage_inventory"
	PermViewReports      = "view_reports"
	PermManageSettings   = "manage_settings"
)

// Base model for all entities
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID so the application does not depend on a
// database-side generator.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Category groups products
type Category struct {
	BaseModel
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	Products    []Product `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}

// Brand is a product manufacturer/label
type Brand struct {
	BaseModel
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	Products    []Product `gorm:"foreignKey:BrandID" json:"products,omitempty"`
}

// Supplier provides products and receives purchase stock transactions
type Supplier struct {
	BaseModel
	Name          string  `gorm:"not null" json:"name"`
	ContactPerson string  `json:"contact_person"`
	Phone         string  `json:"phone"`
	Email         string  `json:"email"`
	Website       string  `json:"website"`
	Address       string  `json:"address"`
	City          string  `json:"city"`
	Country       string  `json:"country"`
	PostalCode    string  `json:"postal_code"`
	TaxNumber     string  `json:"tax_number"`
	PaymentTerms  string  `json:"payment_terms"`
	CreditLimit   float64 `json:"credit_limit"`
	Balance       float64 `json:"balance"`
	IsActive      bool    `gorm:"default:true" json:"is_active"`
	Notes         string  `json:"notes"`
}

// Product represents a sellable item
type Product struct {
	BaseModel
	Name          string     `gorm:"not null" json:"name"`
	Description   string     `json:"description"`
	Price         float64    `gorm:"not null" json:"price"`
	StockQuantity int        `gorm:"default:0" json:"stock_quantity"`
	ImageURL      string     `json:"image_url"`
	IsActive      bool       `gorm:"default:true" json:"is_active"`
	CategoryID    uuid.UUID  `gorm:"type:uuid;not null" json:"category_id"`
	Category      *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	BrandID       uuid.UUID  `gorm:"type:uuid;not null" json:"brand_id"`
	Brand         *Brand     `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	SupplierID    *uuid.UUID `gorm:"type:uuid" json:"supplier_id"`
	Supplier      *Supplier  `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

// Customer represents a buyer. TotalOrders/TotalSpent/LastPurchaseDate are
// denormalized counters maintained by the order workflow.
type Customer struct {
	BaseModel
	Name             string     `gorm:"not null" json:"name"`
	Phone            string     `json:"phone"`
	Email            string     `json:"email"`
	Address          string     `json:"address"`
	City             string     `json:"city"`
	Country          string     `json:"country"`
	PostalCode       string     `json:"postal_code"`
	TotalOrders      int        `gorm:"default:0" json:"total_orders"`
	TotalSpent       float64    `gorm:"default:0" json:"total_spent"`
	LastPurchaseDate *time.Time `json:"last_purchase_date"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`
	Notes            string     `json:"notes"`
	Orders           []Order    `gorm:"foreignKey:CustomerID" json:"orders,omitempty"`
}

// Order represents a customer order
type Order struct {
	BaseModel
	CustomerID      uuid.UUID   `gorm:"type:uuid;not null" json:"customer_id"`
	Customer        *Customer   `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	OrderNumber     string      `gorm:"uniqueIndex;not null" json:"order_number"`
	OrderDate       time.Time   `json:"order_date"`
	Status          string      `gorm:"default:'Pending'" json:"status"`
	PaymentMethod   string      `json:"payment_method"`
	PaymentStatus   string      `gorm:"default:'Pending'" json:"payment_status"`
	ShippedDate     *time.Time  `json:"shipped_date"`
	DeliveredDate   *time.Time  `json:"delivered_date"`
	ShippingAddress string      `json:"shipping_address"`
	BillingAddress  string      `json:"billing_address"`
	ShippingCost    float64     `gorm:"default:0" json:"shipping_cost"`
	TaxAmount       float64     `gorm:"default:0" json:"tax_amount"`
	DiscountAmount  float64     `gorm:"default:0" json:"discount_amount"`
	TotalAmount     float64     `gorm:"default:0" json:"total_amount"`
	Notes           string      `json:"notes"`
	Items           []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// OrderItem represents one line of an order. ProductName is captured at order
// time so history survives product renames.
type OrderItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	Product     *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	ProductName string    `json:"product_name"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	UnitPrice   float64   `gorm:"not null" json:"unit_price"`
	Discount    float64   `gorm:"default:0" json:"discount"` // percent
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TotalPrice is derived, not stored.
func (i OrderItem) TotalPrice() float64 {
	return float64(i.Quantity) * i.UnitPrice * (1 - i.Discount/100)
}

// StockTransaction is an audit-logged inventory movement tied to a business
// reason code.
type StockTransaction struct {
	BaseModel
	ProductID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	Product         *Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	SupplierID      *uuid.UUID `gorm:"type:uuid" json:"supplier_id"`
	Supplier        *Supplier  `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	TransactionType string     `gorm:"not null" json:"transaction_type"`
	Quantity        int        `gorm:"not null" json:"quantity"`
	UnitCost        float64    `json:"unit_cost"`
	TransactionDate time.Time  `json:"transaction_date"`
	ReferenceNumber string     `json:"reference_number"` // invoice / order number
	ReferenceType   string     `json:"reference_type"`   // PurchaseOrder, SalesOrder, BulkPurchase
	ReferenceID     *uuid.UUID `gorm:"type:uuid" json:"reference_id"`
	Notes           string     `json:"notes"`
	CreatedBy       *uuid.UUID `gorm:"type:uuid" json:"created_by"`
}

// TotalCost is derived, not stored.
func (t StockTransaction) TotalCost() float64 {
	return float64(t.Quantity) * t.UnitCost
}

// User represents a system user
type User struct {
	BaseModel
	FirstName           string     `gorm:"not null" json:"first_name"`
	LastName            string     `gorm:"not null" json:"last_name"`
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	Username            string     `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash        string     `json:"-"`
	GoogleID            string     `gorm:"index" json:"-"`
	EmployeeID          string     `json:"employee_id"`
	Department          string     `json:"department"`
	Position            string     `json:"position"`
	HireDate            *time.Time `json:"hire_date"`
	LastLoginAt         *time.Time `json:"last_login_at"`
	IsActive            bool       `gorm:"default:true" json:"is_active"`
	ForcePasswordChange bool       `gorm:"default:false" json:"force_password_change"`
	Roles               []Role     `gorm:"many2many:user_roles" json:"roles,omitempty"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Role is a named set of capability flags. System roles are immutable.
type Role struct {
	BaseModel
	Name         string `gorm:"uniqueIndex;not null" json:"name"`
	Description  string `json:"description"`
	IsSystemRole bool   `gorm:"default:false" json:"is_system_role"`
	CreatedBy    string `json:"created_by"`

	CanManageUsers      bool `gorm:"default:false" json:"can_manage_users"`
	CanManageRoles      bool `gorm:"default:false" json:"can_manage_roles"`
	CanManageProducts   bool `gorm:"default:false" json:"can_manage_products"`
	CanManageCategories bool `gorm:"default:false" json:"can_manage_categories"`
	CanManageBrands     bool `gorm:"default:false" json:"can_manage_brands"`
	CanManageCustomers  bool `gorm:"default:false" json:"can_manage_customers"`
	CanManageOrders     bool `gorm:"default:false" json:"can_manage_orders"`
	CanManageSuppliers  bool `gorm:"default:false" json:"can_manage_suppliers"`
	CanManageInventory  bool `gorm:"default:false" json:"can_manage_inventory"`
	CanViewReports      bool `gorm:"default:false" json:"can_view_reports"`
	CanManageSettings   bool `gorm:"default:false" json:"can_manage_settings"`

	Users []User `gorm:"many2many:user_roles" json:"users,omitempty"`
}

// HasPermission reports whether the role grants the named capability.
func (r Role) HasPermission(name string) bool {
	switch name {
	case PermManageUsers:
		return r.CanManageUsers
	case PermManageRoles:
		return r.CanManageRoles
	case PermManageProducts:
		return r.CanManageProducts
	case PermManageCategories:
		return r.CanManageCategories
	case PermManageBrands:
		return r.CanManageBrands
	case PermManageCustomers:
		return r.CanManageCustomers
	case PermManageOrders:
		return r.CanManageOrders
	case PermManageSuppliers:
		return r.CanManageSuppliers
	case PermManageInventory:
		return r.CanManageInventory
	case PermViewReports:
		return r.CanViewReports
	case PermManageSettings:
		return r.CanManageSettings
	}
	return false
}

// ActivityLog tracks user actions for the audit trail
type ActivityLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"not null" json:"action"` // create, update, delete, toggle, login
	EntityType string     `json:"entity_type"`            // product, order, customer, ...
	EntityID   *uuid.UUID `gorm:"type:uuid" json:"entity_id"`
	Details    string     `gorm:"type:text" json:"details"` // JSON snapshot
	IPAddress  string     `json:"ip_address"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (l *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Category{},
		&Brand{},
		&Supplier{},
		&Product{},
		&Customer{},
		&Order{},
		&OrderItem{},
		&StockTransaction{},
		&User{},
		&Role{},
		&ActivityLog{},
	)
}
