// Package repository declares the persistence port of the shop. The Postgres
// adapter lives in internal/store and the embedded SQLite adapter in
// internal/store/sqlite; both satisfy Repository.
package repository

import (
	"context"
	"errors"
	"time"

	"pasteleria/internal/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a lookup by key matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInsufficientStock is returned when a stock decrement would go negative.
	ErrInsufficientStock = errors.New("insufficient stock")
)

type ProductRepository interface {
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	// LockProducts reads the rows and holds a write lock on them until the
	// surrounding transaction ends.
	LockProducts(ctx context.Context, ids []int64) ([]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	DecrementStock(ctx context.Context, productID int64, quantity int) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type CartRepository interface {
	GetCartByCustomer(ctx context.Context, customerID int64) (*models.Cart, error)
	CreateCart(ctx context.Context, c *models.Cart) error
	ListCartLines(ctx context.Context, cartID int64) ([]models.CartLine, error)
	GetCartLine(ctx context.Context, cartID, productID int64) (*models.CartLine, error)
	CreateCartLine(ctx context.Context, line *models.CartLine) error
	UpdateCartLine(ctx context.Context, line *models.CartLine) error
	DeleteCartLine(ctx context.Context, id int64) error
	ClearCart(ctx context.Context, cartID int64) error
}

type OrderRepository interface {
	// CreateOrder inserts the order and its lines, filling in generated ids.
	CreateOrder(ctx context.Context, o *models.Order, lines []models.OrderLine) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, customerID int64, key string) (*models.Order, error)
	ListOrderLines(ctx context.Context, orderID int64) ([]models.OrderLine, error)
	ListOrdersByCustomer(ctx context.Context, customerID int64) ([]models.Order, error)
	// ListOrders returns orders newest first; an empty status matches all.
	ListOrders(ctx context.Context, status string) ([]models.OrderSummary, error)
	ListOrdersSince(ctx context.Context, since time.Time, limit int) ([]models.OrderSummary, error)
	CountOrdersSince(ctx context.Context, since time.Time) (int, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) error
}

type InvoiceRepository interface {
	GetInvoiceByOrder(ctx context.Context, orderID int64) (*models.Invoice, error)
	CreateInvoice(ctx context.Context, inv *models.Invoice) error
}

type ReviewRepository interface {
	CreateReview(ctx context.Context, r *models.Review) error
	GetReview(ctx context.Context, id int64) (*models.Review, error)
	HasReview(ctx context.Context, customerID, productID int64) (bool, error)
	ApproveReview(ctx context.Context, id int64) error
	DeleteReview(ctx context.Context, id int64) error
	// ListReviews returns reviews newest first.
	ListReviews(ctx context.Context, filter models.ReviewFilter) ([]models.ReviewDetail, error)
	CountPendingReviews(ctx context.Context) (int, error)
}

type StatsRepository interface {
	// SalesSince sums order totals created at or after since, excluding
	// cancelled orders. A zero since covers all time.
	SalesSince(ctx context.Context, since time.Time) (decimal.Decimal, error)
	CountCustomers(ctx context.Context) (int, error)
	CountOrdersByStatus(ctx context.Context) (map[string]int, error)
	CountProducts(ctx context.Context) (int, error)
	CountLowStock(ctx context.Context, threshold int) (int, error)
	TopProducts(ctx context.Context, limit int) ([]models.TopProduct, error)
	CustomerOrderStats(ctx context.Context, customerID int64) (count int, total decimal.Decimal, err error)
	CustomerReviewStats(ctx context.Context, customerID int64) (count int, avgRating float64, err error)
}

// Repository is the full persistence surface used by the services.
type Repository interface {
	ProductRepository
	UserRepository
	CartRepository
	OrderRepository
	InvoiceRepository
	ReviewRepository
	StatsRepository

	// WithinTx runs fn against a transaction-scoped Repository. The
	// transaction commits when fn returns nil and rolls back otherwise.
	// Calling WithinTx on a transaction-scoped Repository joins the
	// running transaction.
	WithinTx(ctx context.Context, fn func(tx Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}
