package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"pasteleria/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTax(t *testing.T) {
	tests := []struct {
		total, subtotal, tax string
	}{
		{"80.00", "67.80", "12.20"},
		{"100.00", "84.75", "15.25"},
		{"118.00", "100.00", "18.00"},
		{"0.01", "0.01", "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.total, func(t *testing.T) {
			sub, tax := SplitTax(dec(tt.total), DefaultTaxRate)
			assert.Equal(t, tt.subtotal, sub.StringFixed(2))
			assert.Equal(t, tt.tax, tax.StringFixed(2))
			assert.True(t, sub.Add(tax).Equal(dec(tt.total)))
		})
	}
}

func TestInvoiceNumber(t *testing.T) {
	assert.Equal(t, "B001-00000042", InvoiceNumber(42))
}

func TestGenerateForOrder_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "Ana", "ana@example.com")
	p := f.product(t, "Alfajor", "8.00", 50)
	detail := f.checkout(t, c.ID, map[*models.Product]int{p: 10}, "0")

	again, err := f.invoices.GenerateForOrder(ctx, &detail.Order)
	require.NoError(t, err)
	assert.Equal(t, detail.Invoice.ID, again.ID)
	assert.Equal(t, detail.Invoice.Number, again.Number)

	got, err := f.invoices.GetByOrder(ctx, detail.ID)
	require.NoError(t, err)
	assert.Equal(t, "67.80", got.Subtotal.StringFixed(2))
}

func TestGenerateForOrder_RejectsZeroTotal(t *testing.T) {
	f := newFixture(t)
	_, err := f.invoices.GenerateForOrder(context.Background(), &models.Order{ID: 1, Total: dec("0")})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGetByOrder_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.invoices.GetByOrder(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDownloadPDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.customer(t, "Ana", "ana@example.com")
	luis := f.customer(t, "Luis", "luis@example.com")
	p := f.product(t, "Torta de Lúcuma", "25.50", 50)
	detail := f.checkout(t, ana.ID, map[*models.Product]int{p: 2}, "5.00")

	_, _, err := f.invoices.DownloadPDF(ctx, ana.ID, false, detail.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	status, err := f.invoices.Status(ctx, ana.ID, false, detail.ID)
	require.NoError(t, err)
	assert.False(t, status.Available)
	assert.Equal(t, "Pendiente de confirmación", status.Label)

	f.setStatus(t, detail.ID, models.OrderStatusCompleted)

	name, data, err := f.invoices.DownloadPDF(ctx, ana.ID, false, detail.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Factura_Pedido_%d.pdf", detail.ID), name)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	_, _, err = f.invoices.DownloadPDF(ctx, luis.ID, false, detail.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, _, err = f.invoices.DownloadPDF(ctx, luis.ID, true, detail.ID)
	assert.NoError(t, err)

	_, _, err = f.invoices.DownloadPDF(ctx, ana.ID, false, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Factura disponible", StatusLabel(models.OrderStatusCompleted))
	assert.Equal(t, "En proceso de preparación", StatusLabel(models.OrderStatusProcessing))
	assert.Equal(t, "Pedido cancelado", StatusLabel(models.OrderStatusCancelled))
	assert.Equal(t, "Estado desconocido", StatusLabel("X"))
}
