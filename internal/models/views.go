package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItemView is a cart line enriched with catalog data for display
type CartItemView struct {
	CartLine
	ProductName string `json:"product_name"`
	ImageURL    string `json:"image_url"`
}

// CartView is the read model returned by every cart operation
type CartView struct {
	CartID     int64           `json:"cart_id"`
	CustomerID int64           `json:"customer_id"`
	Items      []CartItemView  `json:"items"`
	ItemCount  int             `json:"item_count"`
	Total      decimal.Decimal `json:"total"`
}

// OrderSummary is an order row joined with its customer's name
type OrderSummary struct {
	Order
	CustomerName string `db:"customer_name" json:"customer_name"`
}

// OrderDetail is an order with its lines and invoice, if issued
type OrderDetail struct {
	Order
	CustomerName string      `json:"customer_name"`
	Lines        []OrderLine `json:"lines"`
	Invoice      *Invoice    `json:"invoice,omitempty"`
}

// ReviewDetail is a review joined with product and customer names
type ReviewDetail struct {
	Review
	ProductName  string `db:"product_name" json:"product_name"`
	CustomerName string `db:"customer_name" json:"customer_name"`
}

// TopProduct ranks a product by units sold
type TopProduct struct {
	ProductID int64  `db:"product_id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	UnitsSold int    `db:"units_sold" json:"units_sold"`
}

// DashboardStats feeds the admin home page
type DashboardStats struct {
	TotalSales     decimal.Decimal `json:"total_sales"`
	MonthSales     decimal.Decimal `json:"month_sales"`
	TotalCustomers int             `json:"total_customers"`
	TotalOrders    int             `json:"total_orders"`
	OrdersByStatus map[string]int  `json:"orders_by_status"`
	TotalProducts  int             `json:"total_products"`
	LowStockCount  int             `json:"low_stock_count"`
	TopProducts    []TopProduct    `json:"top_products"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// CustomerStats summarizes a customer's activity for admins
type CustomerStats struct {
	CustomerID    int64           `json:"customer_id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	TotalOrders   int             `json:"total_orders"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	AverageOrder  decimal.Decimal `json:"average_order"`
	TotalReviews  int             `json:"total_reviews"`
	AverageRating float64         `json:"average_rating"`
}

// OrderAlert is one entry of the admin recent-orders feed
type OrderAlert struct {
	OrderID      int64           `json:"order_id"`
	CustomerName string          `json:"customer_name"`
	Total        decimal.Decimal `json:"total"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	Ago          string          `json:"ago"`
}

// ReviewMessage is one entry of the admin recent-reviews feed
type ReviewMessage struct {
	ReviewID     int64     `json:"review_id"`
	ProductName  string    `json:"product_name"`
	CustomerName string    `json:"customer_name"`
	Rating       int       `json:"rating"`
	Preview      string    `json:"preview"`
	Approved     bool      `json:"approved"`
	CreatedAt    time.Time `json:"created_at"`
	Ago          string    `json:"ago"`
}

// NotificationCounts drives the admin badge
type NotificationCounts struct {
	PendingOrders  int `json:"pending_orders"`
	PendingReviews int `json:"pending_reviews"`
	Total          int `json:"total"`
}
