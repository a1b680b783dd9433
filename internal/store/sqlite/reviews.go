package sqlite

import (
	"context"

	"pasteleria/internal/models"
)

// CreateReview inserts a review. A second review of the same product by the
// same customer yields repository.ErrDuplicate.
func (s *Store) CreateReview(ctx context.Context, r *models.Review) error {
	return mapErr(s.conn(ctx).Create(r).Error)
}

// GetReview retrieves a review by ID
func (s *Store) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	var r models.Review
	if err := s.conn(ctx).First(&r, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &r, nil
}

// HasReview reports whether the customer already reviewed the product
func (s *Store) HasReview(ctx context.Context, customerID, productID int64) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Review{}).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		Count(&n).Error
	return n > 0, mapErr(err)
}

// ApproveReview marks a review as approved
func (s *Store) ApproveReview(ctx context.Context, id int64) error {
	return affectedOne(s.conn(ctx).Model(&models.Review{}).Where("id = ?", id).Update("approved", true))
}

// DeleteReview removes a review
func (s *Store) DeleteReview(ctx context.Context, id int64) error {
	return affectedOne(s.conn(ctx).Delete(&models.Review{}, id))
}

// ListReviews retrieves reviews with product and customer names, newest first
func (s *Store) ListReviews(ctx context.Context, filter models.ReviewFilter) ([]models.ReviewDetail, error) {
	q := s.conn(ctx).Table("reviews AS r").
		Select("r.*, COALESCE(p.name, '') AS product_name, COALESCE(u.name, '') AS customer_name").
		Joins("LEFT JOIN products p ON p.id = r.product_id").
		Joins("LEFT JOIN users u ON u.id = r.customer_id")
	if filter.ProductID != 0 {
		q = q.Where("r.product_id = ?", filter.ProductID)
	}
	if filter.CustomerID != 0 {
		q = q.Where("r.customer_id = ?", filter.CustomerID)
	}
	if filter.Approved != nil {
		q = q.Where("r.approved = ?", *filter.Approved)
	}
	q = q.Order("r.created_at DESC, r.id DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	reviews := []models.ReviewDetail{}
	err := q.Scan(&reviews).Error
	return reviews, mapErr(err)
}

// CountPendingReviews counts reviews awaiting moderation
func (s *Store) CountPendingReviews(ctx context.Context) (int, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Review{}).Where("approved = ?", false).Count(&n).Error
	return int(n), mapErr(err)
}
