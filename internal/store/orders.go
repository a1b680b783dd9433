package store

import (
	"context"
	"time"

	"pasteleria/internal/models"
)

const orderSummaryQuery = `
	SELECT o.*, COALESCE(u.name, '') AS customer_name
	FROM orders o
	LEFT JOIN users u ON u.id = o.customer_id`

// CreateOrder creates the order and its lines
func (s *Store) CreateOrder(ctx context.Context, o *models.Order, lines []models.OrderLine) error {
	query := `
		INSERT INTO orders (customer_id, status, total, shipping_address, shipping_cost, payment_method, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := s.q.QueryRowxContext(ctx, query,
		o.CustomerID, o.Status, o.Total, o.ShippingAddress, o.ShippingCost, o.PaymentMethod, o.IdempotencyKey,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return mapWriteErr(err)
	}

	for i := range lines {
		lines[i].OrderID = o.ID
		err := s.q.QueryRowxContext(ctx, `
			INSERT INTO order_lines (order_id, product_id, product_name, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			o.ID, lines[i].ProductID, lines[i].ProductName, lines[i].Quantity, lines[i].UnitPrice, lines[i].Subtotal,
		).Scan(&lines[i].ID)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetOrder retrieves an order by ID
func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := s.get(ctx, &order, "SELECT * FROM orders WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByIdempotencyKey retrieves the customer's order created with key
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, customerID int64, key string) (*models.Order, error) {
	var order models.Order
	err := s.get(ctx, &order,
		"SELECT * FROM orders WHERE customer_id = $1 AND idempotency_key = $2", customerID, key)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrderLines retrieves all lines for an order
func (s *Store) ListOrderLines(ctx context.Context, orderID int64) ([]models.OrderLine, error) {
	lines := []models.OrderLine{}
	err := s.selectAll(ctx, &lines, "SELECT * FROM order_lines WHERE order_id = $1 ORDER BY id", orderID)
	return lines, err
}

// ListOrdersByCustomer retrieves a customer's orders, newest first
func (s *Store) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.selectAll(ctx, &orders,
		"SELECT * FROM orders WHERE customer_id = $1 ORDER BY created_at DESC, id DESC", customerID)
	return orders, err
}

// ListOrders retrieves all orders, optionally filtered by status
func (s *Store) ListOrders(ctx context.Context, status string) ([]models.OrderSummary, error) {
	orders := []models.OrderSummary{}
	if status == "" {
		err := s.selectAll(ctx, &orders, orderSummaryQuery+" ORDER BY o.created_at DESC, o.id DESC")
		return orders, err
	}
	err := s.selectAll(ctx, &orders,
		orderSummaryQuery+" WHERE o.status = $1 ORDER BY o.created_at DESC, o.id DESC", status)
	return orders, err
}

// ListOrdersSince retrieves up to limit orders created at or after since, newest first
func (s *Store) ListOrdersSince(ctx context.Context, since time.Time, limit int) ([]models.OrderSummary, error) {
	orders := []models.OrderSummary{}
	err := s.selectAll(ctx, &orders,
		orderSummaryQuery+" WHERE o.created_at >= $1 ORDER BY o.created_at DESC, o.id DESC LIMIT $2",
		since, limit)
	return orders, err
}

// CountOrdersSince counts orders created at or after since
func (s *Store) CountOrdersSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.get(ctx, &n, "SELECT COUNT(*) FROM orders WHERE created_at >= $1", since)
	return n, err
}

// UpdateOrderStatus updates order status
func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	return s.execOne(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, id)
}
