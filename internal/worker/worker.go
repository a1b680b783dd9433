package worker

import (
	"context"

	"pasteleria/internal/broker"
	"pasteleria/internal/models"
	"pasteleria/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Source delivers broker messages to a handler until its context ends.
// *broker.Consumer implements it.
type Source interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// ProductCache drops cached catalog entries. *service.CatalogService implements it.
type ProductCache interface {
	InvalidateProducts(ctx context.Context, ids ...int64)
}

// CatalogWorker keeps the product cache consistent with stock and catalog
// changes made by any instance of the service.
type CatalogWorker struct {
	source       Source
	eventHandler *broker.EventHandler
	cache        ProductCache
	logger       *zap.Logger
}

// NewCatalogWorker creates a new catalog worker
func NewCatalogWorker(source Source, cache ProductCache) *CatalogWorker {
	w := &CatalogWorker{
		source:       source,
		eventHandler: broker.NewEventHandler(),
		cache:        cache,
		logger:       util.Component("worker.catalog"),
	}

	w.eventHandler.OnOrderCreated(w.handleOrderCreated)
	w.eventHandler.OnProductChanged(w.handleProductChanged)
	w.eventHandler.OnReviewModerated(w.handleReviewModerated)
	return w
}

// Start starts the worker
func (w *CatalogWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting catalog worker")
	return w.source.StartConsuming(ctx, w.Handle)
}

// Stop stops the worker
func (w *CatalogWorker) Stop() error {
	w.logger.Info("Stopping catalog worker")
	return w.source.Close()
}

// Handle processes a single broker message
func (w *CatalogWorker) Handle(ctx context.Context, msg kafka.Message) error {
	return w.eventHandler.HandleMessage(ctx, msg)
}

// handleOrderCreated evicts products whose stock the checkout decremented
func (w *CatalogWorker) handleOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	ids := make([]int64, len(event.Items))
	for i, item := range event.Items {
		ids[i] = item.ProductID
	}
	w.cache.InvalidateProducts(ctx, ids...)

	w.logger.Debug("Invalidated products after checkout",
		zap.Int64("order_id", event.OrderID),
		zap.Int64s("product_ids", ids))
	return nil
}

func (w *CatalogWorker) handleProductChanged(ctx context.Context, event *models.ProductChangedEvent) error {
	w.cache.InvalidateProducts(ctx, event.ProductID)
	return nil
}

func (w *CatalogWorker) handleReviewModerated(ctx context.Context, event *models.ReviewModeratedEvent) error {
	w.logger.Info("Review moderated",
		zap.Int64("review_id", event.ReviewID),
		zap.Int64("product_id", event.ProductID),
		zap.Bool("approved", event.Approved))
	return nil
}
