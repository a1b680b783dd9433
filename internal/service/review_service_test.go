package service

import (
	"context"
	"strings"
	"testing"

	"pasteleria/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func reviewRequest(orderID, productID int64) ReviewRequest {
	return ReviewRequest{OrderID: orderID, ProductID: productID, Rating: 5, Comment: "Deliciosa, muy húmeda"}
}

func TestSubmitReview_RequiresTerminalOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "Ana", "ana@example.com")
	p := f.product(t, "Torta de Chocolate", "25.50", 10)
	detail := f.checkout(t, c.ID, map[*models.Product]int{p: 1}, "0")

	_, err := f.reviews.Submit(ctx, c.ID, reviewRequest(detail.ID, p.ID))
	assert.ErrorIs(t, err, ErrInvalidState)

	f.setStatus(t, detail.ID, models.OrderStatusProcessing)
	_, err = f.reviews.Submit(ctx, c.ID, reviewRequest(detail.ID, p.ID))
	assert.ErrorIs(t, err, ErrInvalidState)

	f.setStatus(t, detail.ID, models.OrderStatusCompleted)
	review, err := f.reviews.Submit(ctx, c.ID, reviewRequest(detail.ID, p.ID))
	require.NoError(t, err)
	assert.False(t, review.Approved)
	assert.Equal(t, 5, review.Rating)

	_, err = f.reviews.Submit(ctx, c.ID, reviewRequest(detail.ID, p.ID))
	assert.ErrorIs(t, err, ErrConflict)

	f.publisher.AssertCalled(t, "PublishReviewSubmitted", mock.Anything, mock.Anything)
}

func TestSubmitReview_CancelledOrderIsEligible(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "Ana", "ana@example.com")
	p := f.product(t, "Alfajor", "8.00", 10)
	detail := f.checkout(t, c.ID, map[*models.Product]int{p: 1}, "0")
	f.setStatus(t, detail.ID, models.OrderStatusCancelled)

	_, err := f.reviews.Submit(context.Background(), c.ID, reviewRequest(detail.ID, p.ID))
	assert.NoError(t, err)
}

func TestSubmitReview_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.customer(t, "Ana", "ana@example.com")
	luis := f.customer(t, "Luis", "luis@example.com")
	bought := f.product(t, "Alfajor", "8.00", 10)
	other := f.product(t, "Empanada", "6.50", 10)
	detail := f.checkout(t, ana.ID, map[*models.Product]int{bought: 1}, "0")
	f.setStatus(t, detail.ID, models.OrderStatusCompleted)

	tests := []struct {
		name     string
		customer int64
		edit     func(r *ReviewRequest)
		want     error
	}{
		{"rating too low", ana.ID, func(r *ReviewRequest) { r.Rating = 0 }, ErrInvalidArgument},
		{"rating too high", ana.ID, func(r *ReviewRequest) { r.Rating = 6 }, ErrInvalidArgument},
		{"blank comment", ana.ID, func(r *ReviewRequest) { r.Comment = "   " }, ErrInvalidArgument},
		{"comment too long", ana.ID, func(r *ReviewRequest) { r.Comment = strings.Repeat("a", MaxCommentLength+1) }, ErrInvalidArgument},
		{"unknown order", ana.ID, func(r *ReviewRequest) { r.OrderID = 9999 }, ErrPermissionDenied},
		{"someone else's order", luis.ID, func(r *ReviewRequest) {}, ErrPermissionDenied},
		{"product not in order", ana.ID, func(r *ReviewRequest) { r.ProductID = other.ID }, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := reviewRequest(detail.ID, bought.ID)
			tt.edit(&req)
			_, err := f.reviews.Submit(ctx, tt.customer, req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	req := reviewRequest(detail.ID, bought.ID)
	req.Comment = strings.Repeat("ñ", MaxCommentLength)
	_, err := f.reviews.Submit(ctx, ana.ID, req)
	assert.NoError(t, err)
}

func TestModeration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.customer(t, "Ana", "ana@example.com")
	luis := f.customer(t, "Luis", "luis@example.com")
	p := f.product(t, "Torta de Chocolate", "25.50", 10)

	var reviewIDs []int64
	for _, c := range []*models.User{ana, luis} {
		detail := f.checkout(t, c.ID, map[*models.Product]int{p: 1}, "0")
		f.setStatus(t, detail.ID, models.OrderStatusCompleted)
		r, err := f.reviews.Submit(ctx, c.ID, reviewRequest(detail.ID, p.ID))
		require.NoError(t, err)
		reviewIDs = append(reviewIDs, r.ID)
	}

	pending, err := f.reviews.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	public, err := f.reviews.ListForProduct(ctx, p.ID, true)
	require.NoError(t, err)
	assert.Empty(t, public)

	require.NoError(t, f.reviews.Approve(ctx, reviewIDs[0]))
	require.NoError(t, f.reviews.Reject(ctx, reviewIDs[1]))

	public, err = f.reviews.ListForProduct(ctx, p.ID, true)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Ana", public[0].CustomerName)
	assert.Equal(t, "Torta de Chocolate", public[0].ProductName)

	_, err = f.store.GetReview(ctx, reviewIDs[1])
	assert.Error(t, err)

	assert.ErrorIs(t, f.reviews.Approve(ctx, 9999), ErrNotFound)
	assert.ErrorIs(t, f.reviews.Reject(ctx, reviewIDs[1]), ErrNotFound)

	_, err = f.reviews.ListForProduct(ctx, 9999, true)
	assert.ErrorIs(t, err, ErrNotFound)

	f.publisher.AssertCalled(t, "PublishReviewModerated", mock.Anything, mock.MatchedBy(func(e *models.ReviewModeratedEvent) bool {
		return e.ReviewID == reviewIDs[0] && e.Approved
	}))
}
