package sqlite

import (
	"context"
	"time"

	"pasteleria/internal/models"

	"github.com/shopspring/decimal"
)

// SQLite sums NUMERIC columns as REAL, so money aggregates are rounded back
// to cents before they leave the store.

// SalesSince sums non-cancelled order totals created at or after since
func (s *Store) SalesSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.conn(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0)").
		Where("status <> ? AND created_at >= ?", models.OrderStatusCancelled, since.UTC()).
		Row().Scan(&total)
	return total.Round(2), err
}

// CountCustomers counts users with the customer role
func (s *Store) CountCustomers(ctx context.Context) (int, error) {
	var n int64
	err := s.conn(ctx).Model(&models.User{}).Where("role = ?", models.RoleCustomer).Count(&n).Error
	return int(n), err
}

// CountOrdersByStatus returns order counts keyed by status
func (s *Store) CountOrdersByStatus(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Status string
		Count  int
	}
	err := s.conn(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
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
	var n int64
	err := s.conn(ctx).Model(&models.Product{}).Count(&n).Error
	return int(n), err
}

// CountLowStock counts products with stock below threshold
func (s *Store) CountLowStock(ctx context.Context, threshold int) (int, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Product{}).Where("stock < ?", threshold).Count(&n).Error
	return int(n), err
}

// TopProducts ranks products by units sold across non-cancelled orders
func (s *Store) TopProducts(ctx context.Context, limit int) ([]models.TopProduct, error) {
	top := []models.TopProduct{}
	err := s.conn(ctx).Table("order_lines AS l").
		Select("l.product_id, MAX(l.product_name) AS name, SUM(l.quantity) AS units_sold").
		Joins("JOIN orders o ON o.id = l.order_id").
		Where("o.status <> ?", models.OrderStatusCancelled).
		Group("l.product_id").
		Order("units_sold DESC, l.product_id").
		Limit(limit).
		Scan(&top).Error
	return top, err
}

// CustomerOrderStats returns the number of orders and total spent by a customer
func (s *Store) CustomerOrderStats(ctx context.Context, customerID int64) (int, decimal.Decimal, error) {
	var (
		count int
		total decimal.Decimal
	)
	err := s.conn(ctx).Model(&models.Order{}).
		Select("COUNT(*), COALESCE(SUM(total), 0)").
		Where("customer_id = ?", customerID).
		Row().Scan(&count, &total)
	return count, total.Round(2), err
}

// CustomerReviewStats returns the number of reviews and average rating of a customer
func (s *Store) CustomerReviewStats(ctx context.Context, customerID int64) (int, float64, error) {
	var (
		count int
		avg   float64
	)
	err := s.conn(ctx).Model(&models.Review{}).
		Select("COUNT(*), COALESCE(AVG(rating), 0)").
		Where("customer_id = ?", customerID).
		Row().Scan(&count, &avg)
	return count, avg, err
}
