package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"pasteleria/internal/models"
	"pasteleria/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore connects to TEST_DATABASE_URL and migrates it. Tests using it
// are skipped when no database is configured.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Integration test - set TEST_DATABASE_URL to run")
	}

	s, err := NewStore(url)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	_, err = s.db.Exec(`TRUNCATE reviews, invoices, order_lines, orders, cart_lines, carts, products, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return s
}

func seedCustomer(t *testing.T, s *Store) *models.User {
	u := &models.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "x", Role: models.RoleCustomer}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestCreateOrderWithLines(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	customer := seedCustomer(t, s)

	p := &models.Product{Name: "Torta", Price: decimal.RequireFromString("25.50"), Stock: 5}
	require.NoError(t, s.CreateProduct(ctx, p))

	order := &models.Order{
		CustomerID:      customer.ID,
		Status:          models.OrderStatusPending,
		Total:           decimal.RequireFromString("56.00"),
		ShippingAddress: "Av. Principal 123",
		ShippingCost:    decimal.RequireFromString("5.00"),
		PaymentMethod:   "EFECTIVO",
	}
	lines := []models.OrderLine{{
		ProductID: p.ID, ProductName: p.Name, Quantity: 2,
		UnitPrice: p.Price, Subtotal: decimal.RequireFromString("51.00"),
	}}

	err := s.CreateOrder(ctx, order, lines)
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
	assert.NotZero(t, lines[0].ID)

	retrieved, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(retrieved.Total))

	stored, err := s.ListOrderLines(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestIdempotencyKeyUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	customer := seedCustomer(t, s)

	newOrder := func() *models.Order {
		return &models.Order{
			CustomerID: customer.ID, Status: models.OrderStatusPending,
			Total: decimal.NewFromInt(10), ShippingCost: decimal.Zero,
			ShippingAddress: "x", PaymentMethod: "YAPE", IdempotencyKey: "key-456",
		}
	}

	require.NoError(t, s.CreateOrder(ctx, newOrder(), nil))

	err := s.CreateOrder(ctx, newOrder(), nil)
	assert.True(t, errors.Is(err, repository.ErrDuplicate))
}

func TestDecrementStock_NeverNegative(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &models.Product{Name: "Alfajor", Price: decimal.NewFromInt(2), Stock: 1}
	require.NoError(t, s.CreateProduct(ctx, p))

	err := s.WithinTx(ctx, func(tx repository.Repository) error {
		locked, err := tx.LockProducts(ctx, []int64{p.ID})
		require.NoError(t, err)
		require.Len(t, locked, 1)
		return tx.DecrementStock(ctx, p.ID, 2)
	})
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)
}

func TestWithinTx_RollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx repository.Repository) error {
		require.NoError(t, tx.CreateProduct(ctx, &models.Product{Name: "Pie", Price: decimal.NewFromInt(3)}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := s.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestGetProduct_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetProduct(context.Background(), 9999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
