package store

import (
	"context"
	"time"

	"pasteleria/internal/models"

	"github.com/shopspring/decimal"
)

// SalesSince sums non-cancelled order totals created at or after since
func (s *Store) SalesSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.get(ctx, &total,
		"SELECT COALESCE(SUM(total), 0) FROM orders WHERE status <> $1 AND created_at >= $2",
		models.OrderStatusCancelled, since)
	return total, err
}

// CountCustomers counts users with the customer role
func (s *Store) CountCustomers(ctx context.Context) (int, error) {
	var n int
	err := s.get(ctx, &n, "SELECT COUNT(*) FROM users WHERE role = $1", models.RoleCustomer)
	return n, err
}

// CountOrdersByStatus returns order counts keyed by status
func (s *Store) CountOrdersByStatus(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := s.selectAll(ctx, &rows, "SELECT status, COUNT(*) AS count FROM orders GROUP BY status"); err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// CountProducts counts catalog products
func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var n int
	err := s.get(ctx, &n, "SELECT COUNT(*) FROM products")
	return n, err
}

// CountLowStock counts products with stock below threshold
func (s *Store) CountLowStock(ctx context.Context, threshold int) (int, error) {
	var n int
	err := s.get(ctx, &n, "SELECT COUNT(*) FROM products WHERE stock < $1", threshold)
	return n, err
}

// TopProducts ranks products by units sold across non-cancelled orders
func (s *Store) TopProducts(ctx context.Context, limit int) ([]models.TopProduct, error) {
	query := `
		SELECT l.product_id, MAX(l.product_name) AS name, SUM(l.quantity) AS units_sold
		FROM order_lines l
		JOIN orders o ON o.id = l.order_id
		WHERE o.status <> $1
		GROUP BY l.product_id
		ORDER BY units_sold DESC, l.product_id
		LIMIT $2`

	top := []models.TopProduct{}
	err := s.selectAll(ctx, &top, query, models.OrderStatusCancelled, limit)
	return top, err
}

// CustomerOrderStats returns the number of orders and total spent by a customer
func (s *Store) CustomerOrderStats(ctx context.Context, customerID int64) (int, decimal.Decimal, error) {
	var row struct {
		Count int             `db:"count"`
		Total decimal.Decimal `db:"total"`
	}
	err := s.get(ctx, &row,
		"SELECT COUNT(*) AS count, COALESCE(SUM(total), 0) AS total FROM orders WHERE customer_id = $1",
		customerID)
	return row.Count, row.Total, err
}

// CustomerReviewStats returns the number of reviews and average rating of a customer
func (s *Store) CustomerReviewStats(ctx context.Context, customerID int64) (int, float64, error) {
	var row struct {
		Count int     `db:"count"`
		Avg   float64 `db:"avg"`
	}
	err := s.get(ctx, &row,
		"SELECT COUNT(*) AS count, COALESCE(AVG(rating), 0) AS avg FROM reviews WHERE customer_id = $1",
		customerID)
	return row.Count, row.Avg, err
}
