package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"pasteleria/internal/models"
	"pasteleria/internal/repository"
	"pasteleria/internal/util"

	"go.uber.org/zap"
)

// MaxCommentLength is the longest review comment accepted, in characters
const MaxCommentLength = 500

// ReviewService gates review submission on purchase history and runs moderation
type ReviewService struct {
	repo      repository.Repository
	publisher EventPublisher
	logger    *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(repo repository.Repository, publisher EventPublisher) *ReviewService {
	return &ReviewService{repo: repo, publisher: publisher, logger: util.Component("review")}
}

// ReviewRequest is a customer's review submission
type ReviewRequest struct {
	OrderID   int64  `json:"order_id" form:"pedidoId" binding:"required"`
	ProductID int64  `json:"product_id" form:"productoId" binding:"required"`
	Rating    int    `json:"rating" form:"calificacion"`
	Comment   string `json:"comment" form:"comentario"`
}

// Submit validates and stores a review awaiting moderation. Checks run in a
// fixed order and stop at the first failure.
func (s *ReviewService) Submit(ctx context.Context, customerID int64, req ReviewRequest) (*models.Review, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.Submit")
	defer span.End()

	if req.Rating < 1 || req.Rating > 5 {
		return nil, invalidArg("rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return nil, invalidArg("comment is required")
	}
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return nil, invalidArg("comment must be at most %d characters", MaxCommentLength)
	}

	order, err := s.repo.GetOrder(ctx, req.OrderID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if err != nil || order.CustomerID != customerID {
		return nil, fmt.Errorf("%w: order %d does not belong to the customer", ErrPermissionDenied, req.OrderID)
	}

	if order.Status != models.OrderStatusCompleted && order.Status != models.OrderStatusCancelled {
		return nil, invalidState("order not eligible for review")
	}

	lines, err := s.repo.ListOrderLines(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order lines: %w", err)
	}
	if !containsProduct(lines, req.ProductID) {
		return nil, invalidArg("product %d is not part of order %d", req.ProductID, order.ID)
	}

	exists, err := s.repo.HasReview(ctx, customerID, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: product already reviewed", ErrConflict)
	}

	review := &models.Review{
		CustomerID: customerID,
		ProductID:  req.ProductID,
		OrderID:    order.ID,
		Rating:     req.Rating,
		Comment:    comment,
		Approved:   false,
	}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: product already reviewed", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	util.ReviewsSubmittedTotal.Inc()
	s.logger.Info("Review submitted",
		zap.Int64("review_id", review.ID),
		zap.Int64("product_id", review.ProductID),
		zap.Int("rating", review.Rating))

	event := &models.ReviewSubmittedEvent{
		ReviewID:   review.ID,
		ProductID:  review.ProductID,
		CustomerID: customerID,
		Rating:     review.Rating,
	}
	if err := s.publisher.PublishReviewSubmitted(ctx, event); err != nil {
		s.logger.Error("Failed to publish ReviewSubmitted event", zap.Int64("review_id", review.ID), zap.Error(err))
	}
	return review, nil
}

func containsProduct(lines []models.OrderLine, productID int64) bool {
	for _, l := range lines {
		if l.ProductID == productID {
			return true
		}
	}
	return false
}

// Approve publishes a review
func (s *ReviewService) Approve(ctx context.Context, reviewID int64) error {
	ctx, span := util.StartSpan(ctx, "ReviewService.Approve")
	defer span.End()

	review, err := s.repo.GetReview(ctx, reviewID)
	if err != nil {
		return notFoundOr(err, "review", reviewID, "get review")
	}
	if err := s.repo.ApproveReview(ctx, reviewID); err != nil {
		return notFoundOr(err, "review", reviewID, "approve review")
	}

	s.moderated(ctx, review, true)
	return nil
}

// Reject deletes a review
func (s *ReviewService) Reject(ctx context.Context, reviewID int64) error {
	ctx, span := util.StartSpan(ctx, "ReviewService.Reject")
	defer span.End()

	review, err := s.repo.GetReview(ctx, reviewID)
	if err != nil {
		return notFoundOr(err, "review", reviewID, "get review")
	}
	if err := s.repo.DeleteReview(ctx, reviewID); err != nil {
		return notFoundOr(err, "review", reviewID, "delete review")
	}

	s.moderated(ctx, review, false)
	return nil
}

func (s *ReviewService) moderated(ctx context.Context, review *models.Review, approved bool) {
	action := "rejected"
	if approved {
		action = "approved"
	}
	util.ReviewsModeratedTotal.WithLabelValues(action).Inc()
	s.logger.Info("Review moderated", zap.Int64("review_id", review.ID), zap.String("action", action))

	event := &models.ReviewModeratedEvent{ReviewID: review.ID, ProductID: review.ProductID, Approved: approved}
	if err := s.publisher.PublishReviewModerated(ctx, event); err != nil {
		s.logger.Error("Failed to publish ReviewModerated event", zap.Int64("review_id", review.ID), zap.Error(err))
	}
}

// ListPending returns reviews awaiting moderation, newest first
func (s *ReviewService) ListPending(ctx context.Context) ([]models.ReviewDetail, error) {
	pending := false
	reviews, err := s.repo.ListReviews(ctx, models.ReviewFilter{Approved: &pending})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reviews: %w", err)
	}
	return reviews, nil
}

// ListForProduct returns a product's reviews. approvedOnly hides unmoderated ones.
func (s *ReviewService) ListForProduct(ctx context.Context, productID int64, approvedOnly bool) ([]models.ReviewDetail, error) {
	ctx, span := util.StartSpan(ctx, "ReviewService.ListForProduct")
	defer span.End()

	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return nil, notFoundOr(err, "product", productID, "get product")
	}

	filter := models.ReviewFilter{ProductID: productID}
	if approvedOnly {
		approved := true
		filter.Approved = &approved
	}
	reviews, err := s.repo.ListReviews(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// ListApprovedForProduct returns the reviews shown on a product page
func (s *ReviewService) ListApprovedForProduct(ctx context.Context, productID int64) ([]models.ReviewDetail, error) {
	return s.ListForProduct(ctx, productID, true)
}
