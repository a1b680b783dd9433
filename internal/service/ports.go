package service

import (
	"context"
	"time"

	"pasteleria/internal/models"
)

// EventPublisher emits domain events. *broker.EventPublisher implements it.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
	PublishProductChanged(ctx context.Context, event *models.ProductChangedEvent) error
	PublishReviewSubmitted(ctx context.Context, event *models.ReviewSubmittedEvent) error
	PublishReviewModerated(ctx context.Context, event *models.ReviewModeratedEvent) error
}

// Cache is a JSON key/value cache. *redisclient.Client implements it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Locker is a distributed mutex. *redisclient.Client implements it.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// ProductCache drops cached catalog entries. *CatalogService implements it.
type ProductCache interface {
	InvalidateProducts(ctx context.Context, ids ...int64)
}
