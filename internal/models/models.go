package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog item
type Product struct {
	ID          int64           `db:"id" json:"id" gorm:"primaryKey"`
	Name        string          `db:"name" json:"name" gorm:"not null"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price" gorm:"type:numeric(12,2);not null"`
	Stock       int             `db:"stock" json:"stock" gorm:"not null;default:0"`
	Category    string          `db:"category" json:"category" gorm:"index"`
	ImageURL    string          `db:"image_url" json:"image_url"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// ProductFilter narrows catalog listings. Zero values match everything.
type ProductFilter struct {
	Category string
	Search   string
}

// User is an authenticated identity. Customers carry RoleCustomer.
type User struct {
	ID           int64     `db:"id" json:"id" gorm:"primaryKey"`
	Name         string    `db:"name" json:"name" gorm:"not null"`
	Email        string    `db:"email" json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `db:"password_hash" json:"-" gorm:"not null"`
	Phone        string    `db:"phone" json:"phone"`
	Address      string    `db:"address" json:"address"`
	Role         string    `db:"role" json:"role" gorm:"not null"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Roles
const (
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CLIENTE"
)

// Cart is the single active cart of a customer
type Cart struct {
	ID         int64     `db:"id" json:"id" gorm:"primaryKey"`
	CustomerID int64     `db:"customer_id" json:"customer_id" gorm:"uniqueIndex;not null"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CartLine holds one product of a cart with the price captured when it was added
type CartLine struct {
	ID        int64           `db:"id" json:"id" gorm:"primaryKey"`
	CartID    int64           `db:"cart_id" json:"cart_id" gorm:"uniqueIndex:idx_cart_product;not null"`
	ProductID int64           `db:"product_id" json:"product_id" gorm:"uniqueIndex:idx_cart_product;not null"`
	Quantity  int             `db:"quantity" json:"quantity" gorm:"not null;check:quantity > 0"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price" gorm:"type:numeric(12,2);not null"`
	Subtotal  decimal.Decimal `db:"subtotal" json:"subtotal" gorm:"type:numeric(12,2);not null"`
}

// Order represents a finalized purchase
type Order struct {
	ID              int64           `db:"id" json:"id" gorm:"primaryKey"`
	CustomerID      int64           `db:"customer_id" json:"customer_id" gorm:"index;not null;uniqueIndex:idx_orders_idempotency,priority:1,where:idempotency_key <> ''"`
	Status          string          `db:"status" json:"status" gorm:"index;not null"`
	Total           decimal.Decimal `db:"total" json:"total" gorm:"type:numeric(12,2);not null"`
	ShippingAddress string          `db:"shipping_address" json:"shipping_address"`
	ShippingCost    decimal.Decimal `db:"shipping_cost" json:"shipping_cost" gorm:"type:numeric(12,2);not null"`
	PaymentMethod   string          `db:"payment_method" json:"payment_method"`
	IdempotencyKey  string          `db:"idempotency_key" json:"idempotency_key,omitempty" gorm:"not null;uniqueIndex:idx_orders_idempotency,priority:2,where:idempotency_key <> ''"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at" gorm:"index"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderLine is the immutable snapshot of a cart line taken at checkout
type OrderLine struct {
	ID          int64           `db:"id" json:"id" gorm:"primaryKey"`
	OrderID     int64           `db:"order_id" json:"order_id" gorm:"index;not null"`
	ProductID   int64           `db:"product_id" json:"product_id" gorm:"index;not null"`
	ProductName string          `db:"product_name" json:"product_name"`
	Quantity    int             `db:"quantity" json:"quantity" gorm:"not null;check:quantity > 0"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price" gorm:"type:numeric(12,2);not null"`
	Subtotal    decimal.Decimal `db:"subtotal" json:"subtotal" gorm:"type:numeric(12,2);not null"`
}

// Order statuses
const (
	OrderStatusPending    = "PENDIENTE"
	OrderStatusProcessing = "EN_PROCESO"
	OrderStatusCompleted  = "COMPLETADO"
	OrderStatusCancelled  = "CANCELADO"
)

// OrderStatuses lists every valid status in display order
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// ValidOrderStatus reports whether s is a known order status
func ValidOrderStatus(s string) bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Invoice is the tax document ("boleta") issued once per order
type Invoice struct {
	ID       int64           `db:"id" json:"id" gorm:"primaryKey"`
	OrderID  int64           `db:"order_id" json:"order_id" gorm:"uniqueIndex;not null"`
	Number   string          `db:"number" json:"number" gorm:"uniqueIndex;not null"`
	IssuedAt time.Time       `db:"issued_at" json:"issued_at"`
	Subtotal decimal.Decimal `db:"subtotal" json:"subtotal" gorm:"type:numeric(12,2);not null"`
	Tax      decimal.Decimal `db:"tax" json:"tax" gorm:"type:numeric(12,2);not null"`
	Total    decimal.Decimal `db:"total" json:"total" gorm:"type:numeric(12,2);not null"`
}

// Review is a customer's rating of a product they ordered
type Review struct {
	ID         int64     `db:"id" json:"id" gorm:"primaryKey"`
	CustomerID int64     `db:"customer_id" json:"customer_id" gorm:"uniqueIndex:idx_review_customer_product;not null"`
	ProductID  int64     `db:"product_id" json:"product_id" gorm:"uniqueIndex:idx_review_customer_product;not null"`
	OrderID    int64     `db:"order_id" json:"order_id" gorm:"not null"`
	Rating     int       `db:"rating" json:"rating" gorm:"not null"`
	Comment    string    `db:"comment" json:"comment" gorm:"size:500;not null"`
	Approved   bool      `db:"approved" json:"approved" gorm:"not null;default:false"`
	CreatedAt  time.Time `db:"created_at" json:"created_at" gorm:"index"`
}

// ReviewFilter narrows review listings. A nil Approved matches both states.
type ReviewFilter struct {
	ProductID  int64
	CustomerID int64
	Approved   *bool
	Limit      int
}
