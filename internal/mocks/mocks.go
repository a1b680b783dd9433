// Package mocks provides testify mocks for the service ports.
package mocks

import (
	"context"
	"time"

	"pasteleria/internal/models"

	"github.com/stretchr/testify/mock"
)

type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *EventPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *EventPublisher) PublishProductChanged(ctx context.Context, event *models.ProductChangedEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *EventPublisher) PublishReviewSubmitted(ctx context.Context, event *models.ReviewSubmittedEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *EventPublisher) PublishReviewModerated(ctx context.Context, event *models.ReviewModeratedEvent) error {
	return m.Called(ctx, event).Error(0)
}

// NewEventPublisher returns a publisher that accepts every event.
func NewEventPublisher() *EventPublisher {
	m := &EventPublisher{}
	for _, method := range []string{
		"PublishOrderCreated",
		"PublishOrderStatusChanged",
		"PublishProductChanged",
		"PublishReviewSubmitted",
		"PublishReviewModerated",
	} {
		m.On(method, mock.Anything, mock.Anything).Return(nil).Maybe()
	}
	return m
}

type Cache struct {
	mock.Mock
}

func (m *Cache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *Cache) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

type Locker struct {
	mock.Mock
}

func (m *Locker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *Locker) ReleaseLock(ctx context.Context, key, token string) error {
	return m.Called(ctx, key, token).Error(0)
}
