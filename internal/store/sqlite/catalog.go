package sqlite

import (
	"context"
	"strings"
	"time"

	"pasteleria/internal/models"
	"pasteleria/internal/repository"

	"gorm.io/gorm"
)

// ListProducts retrieves catalog products matching the filter
func (s *Store) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	q := s.conn(ctx).Model(&models.Product{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
	}

	products := []models.Product{}
	err := q.Order("name, id").Find(&products).Error
	return products, mapErr(err)
}

// ListCategories returns the distinct non-empty categories
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	categories := []string{}
	err := s.conn(ctx).Model(&models.Product{}).
		Where("category <> ''").
		Distinct().Order("category").
		Pluck("category", &categories).Error
	return categories, mapErr(err)
}

// GetProduct retrieves a product by ID
func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	if err := s.conn(ctx).First(&p, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

// GetProductsByIDs retrieves multiple products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	products := []models.Product{}
	if len(ids) == 0 {
		return products, nil
	}
	err := s.conn(ctx).Where("id IN ?", ids).Order("id").Find(&products).Error
	return products, mapErr(err)
}

// LockProducts reads the rows inside the current transaction. SQLite
// serializes writers, so the conditional decrement in DecrementStock is the
// guard against concurrent checkouts.
func (s *Store) LockProducts(ctx context.Context, ids []int64) ([]models.Product, error) {
	return s.GetProductsByIDs(ctx, ids)
}

// CreateProduct inserts a product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	return mapErr(s.conn(ctx).Create(p).Error)
}

// UpdateProduct overwrites the mutable product fields
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	res := s.conn(ctx).Model(p).
		Select("name", "description", "price", "stock", "category", "image_url", "updated_at").
		Updates(p)
	return affectedOne(res)
}

// DeleteProduct removes the product together with the cart lines and reviews
// that reference it. Order lines keep their snapshot.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	return s.WithinTx(ctx, func(tx repository.Repository) error {
		db := tx.(*Store).conn(ctx)
		if err := db.Where("product_id = ?", id).Delete(&models.CartLine{}).Error; err != nil {
			return err
		}
		if err := db.Where("product_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		return affectedOne(db.Delete(&models.Product{}, id))
	})
}

// DecrementStock subtracts quantity from stock, refusing to go below zero
func (s *Store) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	res := s.conn(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", quantity),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrInsufficientStock
	}
	return nil
}

// CreateUser inserts a user. A taken email yields repository.ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return mapErr(s.conn(ctx).Create(u).Error)
}

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).Where("LOWER(email) = LOWER(?)", email).First(&u).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}
