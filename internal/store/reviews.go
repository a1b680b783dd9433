package store

import (
	"context"
	"strings"

	"pasteleria/internal/models"
)

// CreateReview inserts a review. A second review of the same product by the
// same customer yields repository.ErrDuplicate.
func (s *Store) CreateReview(ctx context.Context, r *models.Review) error {
	query := `
		INSERT INTO reviews (customer_id, product_id, order_id, rating, comment, approved)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := s.q.QueryRowxContext(ctx, query,
		r.CustomerID, r.ProductID, r.OrderID, r.Rating, r.Comment, r.Approved).Scan(&r.ID, &r.CreatedAt)
	return mapWriteErr(err)
}

// GetReview retrieves a review by ID
func (s *Store) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	var r models.Review
	if err := s.get(ctx, &r, "SELECT * FROM reviews WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &r, nil
}

// HasReview reports whether the customer already reviewed the product
func (s *Store) HasReview(ctx context.Context, customerID, productID int64) (bool, error) {
	var exists bool
	err := s.get(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM reviews WHERE customer_id = $1 AND product_id = $2)",
		customerID, productID)
	return exists, err
}

// ApproveReview marks a review as approved
func (s *Store) ApproveReview(ctx context.Context, id int64) error {
	return s.execOne(ctx, "UPDATE reviews SET approved = TRUE WHERE id = $1", id)
}

// DeleteReview removes a review
func (s *Store) DeleteReview(ctx context.Context, id int64) error {
	return s.execOne(ctx, "DELETE FROM reviews WHERE id = $1", id)
}

// ListReviews retrieves reviews with product and customer names, newest first
func (s *Store) ListReviews(ctx context.Context, filter models.ReviewFilter) ([]models.ReviewDetail, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.ProductID != 0 {
		args = append(args, filter.ProductID)
		where = append(where, "r.product_id = ?")
	}
	if filter.CustomerID != 0 {
		args = append(args, filter.CustomerID)
		where = append(where, "r.customer_id = ?")
	}
	if filter.Approved != nil {
		args = append(args, *filter.Approved)
		where = append(where, "r.approved = ?")
	}

	query := `
		SELECT r.*, COALESCE(p.name, '') AS product_name, COALESCE(u.name, '') AS customer_name
		FROM reviews r
		LEFT JOIN products p ON p.id = r.product_id
		LEFT JOIN users u ON u.id = r.customer_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY r.created_at DESC, r.id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT ?"
	}

	reviews := []models.ReviewDetail{}
	err := s.selectAll(ctx, &reviews, s.q.Rebind(query), args...)
	return reviews, err
}

// CountPendingReviews counts reviews awaiting moderation
func (s *Store) CountPendingReviews(ctx context.Context) (int, error) {
	var n int
	err := s.get(ctx, &n, "SELECT COUNT(*) FROM reviews WHERE approved = FALSE")
	return n, err
}
