package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"pasteleria/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreview(t *testing.T) {
	assert.Equal(t, "corto", Preview("corto", 80))
	assert.Equal(t, strings.Repeat("a", 80), Preview(strings.Repeat("a", 80), 80))
	assert.Equal(t, strings.Repeat("é", 80)+"...", Preview(strings.Repeat("é", 81), 80))
}

func TestRelativeLabel(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{-time.Minute, "0m"},
		{30 * time.Second, "0m"},
		{59 * time.Minute, "59m"},
		{60 * time.Minute, "1h"},
		{23*time.Hour + 59*time.Minute, "23h"},
		{24 * time.Hour, "1d"},
		{6 * 24 * time.Hour, "6d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RelativeLabel(tt.age), tt.age.String())
	}
}

func TestNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.customer(t, "Ana", "ana@example.com")
	p := f.product(t, "Alfajor", "8.00", 100)

	var ids []int64
	for i := 0; i < 7; i++ {
		ids = append(ids, f.checkout(t, c.ID, map[*models.Product]int{p: 1}, "0").ID)
	}
	old := time.Now().UTC().Add(-8 * 24 * time.Hour)
	require.NoError(t, f.store.DB().Model(&models.Order{}).Where("id = ?", ids[0]).Update("created_at", old).Error)

	f.setStatus(t, ids[1], models.OrderStatusCompleted)
	_, err := f.reviews.Submit(ctx, c.ID, ReviewRequest{
		OrderID: ids[1], ProductID: p.ID, Rating: 4, Comment: strings.Repeat("rico ", 30),
	})
	require.NoError(t, err)

	svc := NewNotificationService(f.store, NotificationOptions{})

	alerts, err := svc.Alerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 5)
	assert.Equal(t, ids[6], alerts[0].OrderID)
	assert.Equal(t, "Ana", alerts[0].CustomerName)
	assert.Equal(t, "0m", alerts[0].Ago)
	for _, a := range alerts {
		assert.NotEqual(t, ids[0], a.OrderID)
	}

	messages, err := svc.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "Alfajor", messages[0].ProductName)
	assert.True(t, strings.HasSuffix(messages[0].Preview, "..."))
	assert.Equal(t, PreviewLength+3, len([]rune(messages[0].Preview)))

	counts, err := svc.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, counts.PendingOrders)
	assert.Equal(t, 1, counts.PendingReviews)
	assert.Equal(t, 7, counts.Total)
}
