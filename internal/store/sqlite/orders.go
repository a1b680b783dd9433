package sqlite

import (
	"context"
	"time"

	"pasteleria/internal/models"

	"gorm.io/gorm"
)

// GetCartByCustomer retrieves the customer's cart
func (s *Store) GetCartByCustomer(ctx context.Context, customerID int64) (*models.Cart, error) {
	var c models.Cart
	if err := s.conn(ctx).Where("customer_id = ?", customerID).First(&c).Error; err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

// CreateCart inserts an empty cart
func (s *Store) CreateCart(ctx context.Context, c *models.Cart) error {
	return mapErr(s.conn(ctx).Create(c).Error)
}

// ListCartLines retrieves all lines of a cart in insertion order
func (s *Store) ListCartLines(ctx context.Context, cartID int64) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	err := s.conn(ctx).Where("cart_id = ?", cartID).Order("id").Find(&lines).Error
	return lines, mapErr(err)
}

// GetCartLine retrieves the line holding productID
func (s *Store) GetCartLine(ctx context.Context, cartID, productID int64) (*models.CartLine, error) {
	var line models.CartLine
	err := s.conn(ctx).Where("cart_id = ? AND product_id = ?", cartID, productID).First(&line).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &line, nil
}

// CreateCartLine inserts a cart line
func (s *Store) CreateCartLine(ctx context.Context, line *models.CartLine) error {
	return mapErr(s.conn(ctx).Create(line).Error)
}

// UpdateCartLine stores a new quantity, unit price and subtotal
func (s *Store) UpdateCartLine(ctx context.Context, line *models.CartLine) error {
	res := s.conn(ctx).Model(line).Select("quantity", "unit_price", "subtotal").Updates(line)
	return affectedOne(res)
}

// DeleteCartLine removes a single line
func (s *Store) DeleteCartLine(ctx context.Context, id int64) error {
	return affectedOne(s.conn(ctx).Delete(&models.CartLine{}, id))
}

// ClearCart removes every line of a cart
func (s *Store) ClearCart(ctx context.Context, cartID int64) error {
	return s.conn(ctx).Where("cart_id = ?", cartID).Delete(&models.CartLine{}).Error
}

// CreateOrder creates the order and its lines
func (s *Store) CreateOrder(ctx context.Context, o *models.Order, lines []models.OrderLine) error {
	db := s.conn(ctx)
	if err := db.Create(o).Error; err != nil {
		return mapErr(err)
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].OrderID = o.ID
	}
	return mapErr(db.Create(&lines).Error)
}

// GetOrder retrieves an order by ID
func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var o models.Order
	if err := s.conn(ctx).First(&o, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

// GetOrderByIdempotencyKey retrieves the customer's order created with key
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, customerID int64, key string) (*models.Order, error) {
	var o models.Order
	err := s.conn(ctx).Where("customer_id = ? AND idempotency_key = ?", customerID, key).First(&o).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

// ListOrderLines retrieves all lines for an order
func (s *Store) ListOrderLines(ctx context.Context, orderID int64) ([]models.OrderLine, error) {
	lines := []models.OrderLine{}
	err := s.conn(ctx).Where("order_id = ?", orderID).Order("id").Find(&lines).Error
	return lines, mapErr(err)
}

// ListOrdersByCustomer retrieves a customer's orders, newest first
func (s *Store) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.conn(ctx).Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").Find(&orders).Error
	return orders, mapErr(err)
}

func (s *Store) orderSummaries(ctx context.Context) *gorm.DB {
	return s.conn(ctx).Table("orders AS o").
		Select("o.*, COALESCE(u.name, '') AS customer_name").
		Joins("LEFT JOIN users u ON u.id = o.customer_id").
		Order("o.created_at DESC, o.id DESC")
}

// ListOrders retrieves all orders, optionally filtered by status
func (s *Store) ListOrders(ctx context.Context, status string) ([]models.OrderSummary, error) {
	q := s.orderSummaries(ctx)
	if status != "" {
		q = q.Where("o.status = ?", status)
	}
	orders := []models.OrderSummary{}
	err := q.Scan(&orders).Error
	return orders, mapErr(err)
}

// ListOrdersSince retrieves up to limit orders created at or after since, newest first
func (s *Store) ListOrdersSince(ctx context.Context, since time.Time, limit int) ([]models.OrderSummary, error) {
	orders := []models.OrderSummary{}
	err := s.orderSummaries(ctx).Where("o.created_at >= ?", since.UTC()).Limit(limit).Scan(&orders).Error
	return orders, mapErr(err)
}

// CountOrdersSince counts orders created at or after since
func (s *Store) CountOrdersSince(ctx context.Context, since time.Time) (int, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Order{}).Where("created_at >= ?", since.UTC()).Count(&n).Error
	return int(n), mapErr(err)
}

// UpdateOrderStatus updates order status
func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	res := s.conn(ctx).Model(&models.Order{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	return affectedOne(res)
}

// GetInvoiceByOrder retrieves the invoice issued for an order
func (s *Store) GetInvoiceByOrder(ctx context.Context, orderID int64) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.conn(ctx).Where("order_id = ?", orderID).First(&inv).Error; err != nil {
		return nil, mapErr(err)
	}
	return &inv, nil
}

// CreateInvoice inserts an invoice. A second invoice for the same order
// yields repository.ErrDuplicate.
func (s *Store) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	return mapErr(s.conn(ctx).Create(inv).Error)
}
