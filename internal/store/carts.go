package store

import (
	"context"

	"pasteleria/internal/models"
)

// GetCartByCustomer retrieves the customer's cart
func (s *Store) GetCartByCustomer(ctx context.Context, customerID int64) (*models.Cart, error) {
	var c models.Cart
	if err := s.get(ctx, &c, "SELECT * FROM carts WHERE customer_id = $1", customerID); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCart inserts an empty cart
func (s *Store) CreateCart(ctx context.Context, c *models.Cart) error {
	err := s.q.QueryRowxContext(ctx,
		"INSERT INTO carts (customer_id) VALUES ($1) RETURNING id, created_at",
		c.CustomerID).Scan(&c.ID, &c.CreatedAt)
	return mapWriteErr(err)
}

// ListCartLines retrieves all lines of a cart in insertion order
func (s *Store) ListCartLines(ctx context.Context, cartID int64) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	err := s.selectAll(ctx, &lines, "SELECT * FROM cart_lines WHERE cart_id = $1 ORDER BY id", cartID)
	return lines, err
}

// GetCartLine retrieves the line holding productID
func (s *Store) GetCartLine(ctx context.Context, cartID, productID int64) (*models.CartLine, error) {
	var line models.CartLine
	err := s.get(ctx, &line,
		"SELECT * FROM cart_lines WHERE cart_id = $1 AND product_id = $2", cartID, productID)
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// CreateCartLine inserts a cart line
func (s *Store) CreateCartLine(ctx context.Context, line *models.CartLine) error {
	query := `
		INSERT INTO cart_lines (cart_id, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := s.q.QueryRowxContext(ctx, query,
		line.CartID, line.ProductID, line.Quantity, line.UnitPrice, line.Subtotal).Scan(&line.ID)
	return mapWriteErr(err)
}

// UpdateCartLine stores a new quantity, unit price and subtotal
func (s *Store) UpdateCartLine(ctx context.Context, line *models.CartLine) error {
	return s.execOne(ctx,
		"UPDATE cart_lines SET quantity = $1, unit_price = $2, subtotal = $3 WHERE id = $4",
		line.Quantity, line.UnitPrice, line.Subtotal, line.ID)
}

// DeleteCartLine removes a single line
func (s *Store) DeleteCartLine(ctx context.Context, id int64) error {
	return s.execOne(ctx, "DELETE FROM cart_lines WHERE id = $1", id)
}

// ClearCart removes every line of a cart
func (s *Store) ClearCart(ctx context.Context, cartID int64) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM cart_lines WHERE cart_id = $1", cartID)
	return err
}
