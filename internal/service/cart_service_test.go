package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_GetOrCreateIsEmpty(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "Ana", "ana@example.com")

	view, err := f.cart.GetOrCreateCart(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Total.IsZero())

	again, err := f.cart.GetOrCreateCart(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, view.CartID, again.CartID)
}

func TestCart_AddItemAccumulates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "Ana", "ana@example.com")
	torta := f.product(t, "Torta de Chocolate", "25.50", 10)
	alfajor := f.product(t, "Alfajor", "8.00", 10)

	_, err := f.cart.AddItem(ctx, c.ID, torta.ID, 1)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, c.ID, alfajor.ID, 3)
	require.NoError(t, err)
	view, err := f.cart.AddItem(ctx, c.ID, torta.ID, 1)
	require.NoError(t, err)

	require.Len(t, view.Items, 2)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.Equal(t, "51.00", view.Items[0].Subtotal.StringFixed(2))
	assert.Equal(t, "Torta de Chocolate", view.Items[0].ProductName)
	assert.Equal(t, 5, view.ItemCount)
	assert.Equal(t, "75.00", view.Total.StringFixed(2))
}

func TestCart_AddItemRepricesLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "Ana", "ana@example.com")
	p := f.product(t, "Pie de Limón", "20.00", 10)

	_, err := f.cart.AddItem(ctx, c.ID, p.ID, 1)
	require.NoError(t, err)

	_, err = f.catalog.UpdateProduct(ctx, p.ID, ProductInput{Name: p.Name, Price: dec("22.00"), Stock: 10})
	require.NoError(t, err)

	view, err := f.cart.AddItem(ctx, c.ID, p.ID, 1)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "22.00", view.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "44.00", view.Total.StringFixed(2))
}

func TestCart_UpdateQuantityKeepsLinePrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "Ana", "ana@example.com")
	p := f.product(t, "Pie de Limón", "20.00", 10)

	_, err := f.cart.AddItem(ctx, c.ID, p.ID, 1)
	require.NoError(t, err)
	_, err = f.catalog.UpdateProduct(ctx, p.ID, ProductInput{Name: p.Name, Price: dec("30.00"), Stock: 10})
	require.NoError(t, err)

	view, err := f.cart.UpdateItemQuantity(ctx, c.ID, p.ID, 4)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 4, view.Items[0].Quantity)
	assert.Equal(t, "80.00", view.Total.StringFixed(2))
}

func TestCart_UpdateToZeroRemovesLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "Ana", "ana@example.com")
	p := f.product(t, "Alfajor", "8.00", 10)

	_, err := f.cart.AddItem(ctx, c.ID, p.ID, 2)
	require.NoError(t, err)

	view, err := f.cart.UpdateItemQuantity(ctx, c.ID, p.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Total.IsZero())
}

func TestCart_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "Ana", "ana@example.com")
	p := f.product(t, "Alfajor", "8.00", 10)

	_, err := f.cart.AddItem(ctx, c.ID, p.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.cart.AddItem(ctx, c.ID, 9999, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.cart.UpdateItemQuantity(ctx, c.ID, p.ID, 3)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.cart.RemoveItem(ctx, c.ID, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCart_RemoveAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "Ana", "ana@example.com")
	a := f.product(t, "Alfajor", "8.00", 10)
	b := f.product(t, "Empanada", "6.50", 10)

	_, err := f.cart.AddItem(ctx, c.ID, a.ID, 1)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, c.ID, b.ID, 2)
	require.NoError(t, err)

	view, err := f.cart.RemoveItem(ctx, c.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "13.00", view.Total.StringFixed(2))

	require.NoError(t, f.cart.Clear(ctx, c.ID))
	view, err = f.cart.GetOrCreateCart(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCart_QuantityBounded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "Ana", "ana@example.com")
	p := f.product(t, "Alfajor", "8.00", 10)

	_, err := f.cart.AddItem(ctx, c.ID, p.ID, math.MaxInt)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.cart.AddItem(ctx, c.ID, p.ID, MaxLineQuantity)
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, c.ID, p.ID, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.cart.UpdateItemQuantity(ctx, c.ID, p.ID, MaxLineQuantity+1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	view, err := f.cart.GetOrCreateCart(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, MaxLineQuantity, view.Items[0].Quantity)
}
