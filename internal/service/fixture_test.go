package service

import (
	"context"
	"testing"
	"time"

	"pasteleria/internal/auth"
	"pasteleria/internal/mocks"
	"pasteleria/internal/models"
	"pasteleria/internal/store/sqlite"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	store     *sqlite.Store
	publisher *mocks.EventPublisher

	catalog  *CatalogService
	cart     *CartService
	invoices *InvoiceService
	orders   *OrderService
	reviews  *ReviewService
	auth     *AuthService
	tokens   *auth.TokenManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	pub := mocks.NewEventPublisher()
	invoices := NewInvoiceService(s, decimal.Zero)
	tokens := auth.NewTokenManager("test-secret", time.Hour, "pasteleria-test")

	return &fixture{
		store:     s,
		publisher: pub,
		catalog:   NewCatalogService(s, nil, time.Minute, pub),
		cart:      NewCartService(s),
		invoices:  invoices,
		orders:    NewOrderService(s, invoices, pub, nil, OrderOptions{}),
		reviews:   NewReviewService(s, pub),
		auth:      NewAuthService(s, auth.NewPasswordHasher(bcrypt.MinCost), tokens),
		tokens:    tokens,
	}
}

func (f *fixture) customer(t *testing.T, name, email string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email, PasswordHash: "x", Role: models.RoleCustomer}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) product(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.RequireFromString(price), Stock: stock, Category: "Tortas"}
	require.NoError(t, f.store.CreateProduct(context.Background(), p))
	return p
}

// checkout fills the customer's cart with the given product quantities and
// finalizes it.
func (f *fixture) checkout(t *testing.T, customerID int64, items map[*models.Product]int, shipping string) *models.OrderDetail {
	t.Helper()
	ctx := context.Background()
	for p, qty := range items {
		_, err := f.cart.AddItem(ctx, customerID, p.ID, qty)
		require.NoError(t, err)
	}
	detail, err := f.orders.Finalize(ctx, customerID, CheckoutRequest{
		PaymentMethod:   "TARJETA",
		ShippingAddress: "Av. Larco 123, Miraflores",
		ShippingCost:    decimal.RequireFromString(shipping),
	})
	require.NoError(t, err)
	return detail
}

func (f *fixture) setStatus(t *testing.T, orderID int64, status string) {
	t.Helper()
	require.NoError(t, f.store.UpdateOrderStatus(context.Background(), orderID, status))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
