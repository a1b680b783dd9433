package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"pasteleria/internal/models"
	"pasteleria/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProducts_CRUD(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := &models.Product{Name: "Torta de Chocolate", Description: "Bizcocho húmedo", Price: decimal.RequireFromString("25.50"), Stock: 4, Category: "Tortas"}
	require.NoError(t, s.CreateProduct(ctx, p))
	require.NotZero(t, p.ID)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("25.5")))

	p.Stock = 0
	p.Name = "Torta Chocolate"
	require.NoError(t, s.UpdateProduct(ctx, p))
	got, err = s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
	assert.Equal(t, "Torta Chocolate", got.Name)

	found, err := s.ListProducts(ctx, models.ProductFilter{Search: "HÚMEDO"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = s.ListProducts(ctx, models.ProductFilter{Search: "chocolate", Category: "Tortas"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tortas"}, categories)

	require.NoError(t, s.DeleteProduct(ctx, p.ID))
	_, err = s.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.DeleteProduct(ctx, p.ID), repository.ErrNotFound)
	assert.ErrorIs(t, s.UpdateProduct(ctx, p), repository.ErrNotFound)
}

func TestDecrementStock(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := &models.Product{Name: "Alfajor", Price: decimal.NewFromInt(2), Stock: 3}
	require.NoError(t, s.CreateProduct(ctx, p))

	require.NoError(t, s.DecrementStock(ctx, p.ID, 2))
	assert.ErrorIs(t, s.DecrementStock(ctx, p.ID, 2), repository.ErrInsufficientStock)

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)
}

func TestUsers_DuplicateEmail(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &models.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "h", Role: models.RoleCustomer}))
	err := s.CreateUser(ctx, &models.User{Name: "Ana 2", Email: "ana@example.com", PasswordHash: "h", Role: models.RoleCustomer})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	u, err := s.GetUserByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
}

func TestCartLines_UniquePerProduct(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	cart := &models.Cart{CustomerID: 1}
	require.NoError(t, s.CreateCart(ctx, cart))

	line := &models.CartLine{CartID: cart.ID, ProductID: 7, Quantity: 1, UnitPrice: decimal.NewFromInt(3), Subtotal: decimal.NewFromInt(3)}
	require.NoError(t, s.CreateCartLine(ctx, line))

	dup := &models.CartLine{CartID: cart.ID, ProductID: 7, Quantity: 1, UnitPrice: decimal.NewFromInt(3), Subtotal: decimal.NewFromInt(3)}
	assert.ErrorIs(t, s.CreateCartLine(ctx, dup), repository.ErrDuplicate)

	line.Quantity = 4
	line.Subtotal = decimal.NewFromInt(12)
	require.NoError(t, s.UpdateCartLine(ctx, line))

	got, err := s.GetCartLine(ctx, cart.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)

	require.NoError(t, s.ClearCart(ctx, cart.ID))
	lines, err := s.ListCartLines(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestWithinTx_RollsBack(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx repository.Repository) error {
		if err := tx.CreateProduct(ctx, &models.Product{Name: "Pie", Price: decimal.NewFromInt(3)}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := s.CountProducts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOrders_SinceAndStats(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	customer := &models.User{Name: "Luis", Email: "luis@example.com", PasswordHash: "h", Role: models.RoleCustomer}
	require.NoError(t, s.CreateUser(ctx, customer))

	mk := func(total string, status string, created time.Time) *models.Order {
		o := &models.Order{
			CustomerID: customer.ID, Status: status, Total: decimal.RequireFromString(total),
			ShippingCost: decimal.Zero, ShippingAddress: "x", PaymentMethod: "EFECTIVO", CreatedAt: created,
		}
		lines := []models.OrderLine{{ProductID: 1, ProductName: "Torta", Quantity: 2, UnitPrice: decimal.NewFromInt(1), Subtotal: decimal.NewFromInt(2)}}
		require.NoError(t, s.CreateOrder(ctx, o, lines))
		return o
	}

	old := mk("10.10", models.OrderStatusCompleted, now.Add(-10*24*time.Hour))
	recent := mk("20.20", models.OrderStatusPending, now.Add(-time.Hour))
	mk("99.99", models.OrderStatusCancelled, now.Add(-2*time.Hour))

	since, err := s.ListOrdersSince(ctx, now.Add(-7*24*time.Hour), 5)
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, recent.ID, since[0].ID)
	assert.Equal(t, "Luis", since[0].CustomerName)

	n, err := s.CountOrdersSince(ctx, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sales, err := s.SalesSince(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "30.30", sales.StringFixed(2))

	byStatus, err := s.CountOrdersByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, byStatus[models.OrderStatusCancelled])

	top, err := s.TopProducts(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 4, top[0].UnitsSold)

	count, spent, err := s.CustomerOrderStats(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, "130.29", spent.StringFixed(2))

	require.NoError(t, s.UpdateOrderStatus(ctx, old.ID, models.OrderStatusCancelled))
	assert.ErrorIs(t, s.UpdateOrderStatus(ctx, 999, models.OrderStatusCancelled), repository.ErrNotFound)
}

func TestOrders_IdempotencyKeyUniquePerCustomer(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	mk := func(customerID int64, key string) error {
		o := &models.Order{
			CustomerID: customerID, Status: models.OrderStatusPending, Total: decimal.NewFromInt(5),
			ShippingCost: decimal.Zero, ShippingAddress: "x", PaymentMethod: "EFECTIVO", IdempotencyKey: key,
		}
		return s.CreateOrder(ctx, o, nil)
	}

	require.NoError(t, mk(1, "req-1"))
	assert.ErrorIs(t, mk(1, "req-1"), repository.ErrDuplicate)
	assert.NoError(t, mk(2, "req-1"))

	require.NoError(t, mk(1, ""))
	assert.NoError(t, mk(1, ""))

	got, err := s.GetOrderByIdempotencyKey(ctx, 1, "req-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.CustomerID)
}

func TestCartLines_RejectNonPositiveQuantity(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	cart := &models.Cart{CustomerID: 1}
	require.NoError(t, s.CreateCart(ctx, cart))

	for _, qty := range []int{0, -2} {
		line := &models.CartLine{CartID: cart.ID, ProductID: 7, Quantity: qty, UnitPrice: decimal.NewFromInt(3), Subtotal: decimal.NewFromInt(3)}
		assert.Error(t, s.CreateCartLine(ctx, line), "quantity %d", qty)
	}

	lines, err := s.ListCartLines(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
