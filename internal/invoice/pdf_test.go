package invoice

import (
	"testing"
	"time"

	"pasteleria/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBytes(t *testing.T) {
	issued := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	doc := Document{
		Order: models.Order{
			ID: 15, Status: models.OrderStatusCompleted, ShippingAddress: "Av. Principal 123",
			PaymentMethod: "EFECTIVO", ShippingCost: decimal.RequireFromString("5.00"),
			Total: decimal.RequireFromString("80.00"),
		},
		Lines: []models.OrderLine{
			{ProductName: "Torta de Lúcuma", Quantity: 2, UnitPrice: decimal.RequireFromString("25.50"), Subtotal: decimal.RequireFromString("51.00")},
			{ProductName: "Alfajor", Quantity: 3, UnitPrice: decimal.RequireFromString("8.00"), Subtotal: decimal.RequireFromString("24.00")},
		},
		Invoice: models.Invoice{
			Number: "B001-00000015", IssuedAt: issued,
			Subtotal: decimal.RequireFromString("67.80"), Tax: decimal.RequireFromString("12.20"), Total: decimal.RequireFromString("80.00"),
		},
		Customer: models.User{Name: "Ana Pérez", Email: "ana@example.com"},
		TaxRate:  decimal.RequireFromString("0.18"),
	}

	out, err := RenderBytes(doc)
	require.NoError(t, err)
	assert.True(t, len(out) > 500)
	assert.Equal(t, "%PDF-", string(out[:5]))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Factura_Pedido_7.pdf", FileName(7))
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "S/ 25.50", money(decimal.RequireFromString("25.5")))
}
