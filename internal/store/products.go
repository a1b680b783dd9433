package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"pasteleria/internal/models"
	"pasteleria/internal/repository"

	"github.com/jmoiron/sqlx"
)

// ListProducts retrieves catalog products matching the filter
func (s *Store) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, "category = ?")
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, pattern, pattern)
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)")
	}

	query := "SELECT * FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query = s.q.Rebind(query + " ORDER BY name, id")

	products := []models.Product{}
	err := s.selectAll(ctx, &products, query, args...)
	return products, err
}

// ListCategories returns the distinct non-empty categories
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	categories := []string{}
	err := s.selectAll(ctx, &categories,
		"SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category")
	return categories, err
}

// GetProduct retrieves a product by ID
func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := s.get(ctx, &product, "SELECT * FROM products WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductsByIDs retrieves multiple products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	return s.productsIn(ctx, "SELECT * FROM products WHERE id IN (?) ORDER BY id", ids)
}

// LockProducts selects products FOR UPDATE. Rows are locked in id order so
// concurrent checkouts cannot deadlock on each other.
func (s *Store) LockProducts(ctx context.Context, ids []int64) ([]models.Product, error) {
	return s.productsIn(ctx, "SELECT * FROM products WHERE id IN (?) ORDER BY id FOR UPDATE", ids)
}

func (s *Store) productsIn(ctx context.Context, base string, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In(base, ids)
	if err != nil {
		return nil, err
	}
	query = s.q.Rebind(query)

	var products []models.Product
	err = s.selectAll(ctx, &products, query, args...)
	return products, err
}

// CreateProduct inserts a product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (name, description, price, stock, category, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	row := s.q.QueryRowxContext(ctx, query,
		p.Name, p.Description, p.Price, p.Stock, p.Category, p.ImageURL)
	return row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// UpdateProduct overwrites the mutable product fields
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, stock = $4, category = $5, image_url = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at`

	err := s.q.QueryRowxContext(ctx, query,
		p.Name, p.Description, p.Price, p.Stock, p.Category, p.ImageURL, p.ID).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

// DeleteProduct removes a product
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	return s.execOne(ctx, "DELETE FROM products WHERE id = $1", id)
}

// DecrementStock subtracts quantity from stock, refusing to go below zero
func (s *Store) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	err := s.execOne(ctx,
		"UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1",
		quantity, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.ErrInsufficientStock
	}
	return err
}
