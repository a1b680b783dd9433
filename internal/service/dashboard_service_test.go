package service

import (
	"context"
	"testing"

	"pasteleria/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.customer(t, "Ana", "ana@example.com")
	luis := f.customer(t, "Luis", "luis@example.com")
	torta := f.product(t, "Torta de Chocolate", "25.50", 20)
	alfajor := f.product(t, "Alfajor", "8.00", 100)
	f.product(t, "Pie de Limón", "20.00", 3)

	done := f.checkout(t, ana.ID, map[*models.Product]int{torta: 2, alfajor: 3}, "5.00")
	f.setStatus(t, done.ID, models.OrderStatusCompleted)
	cancelled := f.checkout(t, luis.ID, map[*models.Product]int{torta: 10}, "0")
	f.setStatus(t, cancelled.ID, models.OrderStatusCancelled)
	f.checkout(t, luis.ID, map[*models.Product]int{alfajor: 1}, "0")

	stats, err := NewDashboardService(f.store, 10).Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, "88.00", stats.TotalSales.StringFixed(2))
	assert.Equal(t, "88.00", stats.MonthSales.StringFixed(2))
	assert.Equal(t, 2, stats.TotalCustomers)
	assert.Equal(t, 3, stats.TotalOrders)
	assert.Equal(t, map[string]int{
		models.OrderStatusPending:    1,
		models.OrderStatusProcessing: 0,
		models.OrderStatusCompleted:  1,
		models.OrderStatusCancelled:  1,
	}, stats.OrdersByStatus)
	assert.Equal(t, 3, stats.TotalProducts)
	// torta dropped to 8 units and the pie started at 3
	assert.Equal(t, 2, stats.LowStockCount)

	require.Len(t, stats.TopProducts, 2)
	assert.Equal(t, alfajor.ID, stats.TopProducts[0].ProductID)
	assert.Equal(t, 4, stats.TopProducts[0].UnitsSold)
	assert.Equal(t, 2, stats.TopProducts[1].UnitsSold)
}

func TestDashboardStats_Empty(t *testing.T) {
	f := newFixture(t)

	stats, err := NewDashboardService(f.store, 0).Stats(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.TotalSales.IsZero())
	assert.Len(t, stats.OrdersByStatus, 4)
	assert.Empty(t, stats.TopProducts)
}

func TestCustomerStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.customer(t, "Ana", "ana@example.com")
	p := f.product(t, "Alfajor", "8.00", 100)

	first := f.checkout(t, ana.ID, map[*models.Product]int{p: 1}, "0")
	f.checkout(t, ana.ID, map[*models.Product]int{p: 2}, "0")
	f.setStatus(t, first.ID, models.OrderStatusCompleted)
	_, err := f.reviews.Submit(ctx, ana.ID, ReviewRequest{OrderID: first.ID, ProductID: p.ID, Rating: 4, Comment: "Muy rico"})
	require.NoError(t, err)

	svc := NewDashboardService(f.store, 10)
	stats, err := svc.CustomerStats(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", stats.Name)
	assert.Equal(t, 2, stats.TotalOrders)
	assert.Equal(t, "24.00", stats.TotalSpent.StringFixed(2))
	assert.Equal(t, "12.00", stats.AverageOrder.StringFixed(2))
	assert.Equal(t, 1, stats.TotalReviews)
	assert.InDelta(t, 4.0, stats.AverageRating, 0.001)

	_, err = svc.CustomerStats(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
