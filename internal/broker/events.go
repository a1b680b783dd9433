package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pasteleria/internal/models"
	"pasteleria/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventSink is the transport EventPublisher writes to. *Producer is the
// production sink.
type EventSink interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing domain events
type EventPublisher struct {
	sink EventSink
	now  func() time.Time
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(sink EventSink) *EventPublisher {
	return &EventPublisher{sink: sink, now: time.Now}
}

func (ep *EventPublisher) base(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: ep.now().UTC(),
	}
}

func (ep *EventPublisher) publish(ctx context.Context, key, eventType string, event interface{}) error {
	err := ep.sink.PublishEvent(ctx, key, event)
	result := "ok"
	if err != nil {
		result = "error"
	}
	util.EventsPublishedTotal.WithLabelValues(eventType, result).Inc()
	return err
}

// PublishOrderCreated publishes OrderCreated event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	event.BaseEvent = ep.base(models.EventTypeOrderCreated)
	return ep.publish(ctx, fmt.Sprintf("order-%d", event.OrderID), event.EventType, event)
}

// PublishOrderStatusChanged publishes OrderStatusChanged event
func (ep *EventPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	event.BaseEvent = ep.base(models.EventTypeOrderStatusChanged)
	return ep.publish(ctx, fmt.Sprintf("order-%d", event.OrderID), event.EventType, event)
}

// PublishProductChanged publishes ProductChanged event
func (ep *EventPublisher) PublishProductChanged(ctx context.Context, event *models.ProductChangedEvent) error {
	event.BaseEvent = ep.base(models.EventTypeProductChanged)
	return ep.publish(ctx, fmt.Sprintf("product-%d", event.ProductID), event.EventType, event)
}

// PublishReviewSubmitted publishes ReviewSubmitted event
func (ep *EventPublisher) PublishReviewSubmitted(ctx context.Context, event *models.ReviewSubmittedEvent) error {
	event.BaseEvent = ep.base(models.EventTypeReviewSubmitted)
	return ep.publish(ctx, fmt.Sprintf("product-%d", event.ProductID), event.EventType, event)
}

// PublishReviewModerated publishes ReviewModerated event
func (ep *EventPublisher) PublishReviewModerated(ctx context.Context, event *models.ReviewModeratedEvent) error {
	event.BaseEvent = ep.base(models.EventTypeReviewModerated)
	return ep.publish(ctx, fmt.Sprintf("product-%d", event.ProductID), event.EventType, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onOrderCreated    func(context.Context, *models.OrderCreatedEvent) error
	onProductChanged  func(context.Context, *models.ProductChangedEvent) error
	onReviewModerated func(context.Context, *models.ReviewModeratedEvent) error
	logger            *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.Component("events")}
}

// OnOrderCreated registers a handler for OrderCreated events
func (eh *EventHandler) OnOrderCreated(handler func(context.Context, *models.OrderCreatedEvent) error) {
	eh.onOrderCreated = handler
}

// OnProductChanged registers a handler for ProductChanged events
func (eh *EventHandler) OnProductChanged(handler func(context.Context, *models.ProductChangedEvent) error) {
	eh.onProductChanged = handler
}

// OnReviewModerated registers a handler for ReviewModerated events
func (eh *EventHandler) OnReviewModerated(handler func(context.Context, *models.ReviewModeratedEvent) error) {
	eh.onReviewModerated = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID),
	)

	switch baseEvent.EventType {
	case models.EventTypeOrderCreated:
		if eh.onOrderCreated != nil {
			var event models.OrderCreatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderCreated event: %w", err)
			}
			return eh.onOrderCreated(ctx, &event)
		}

	case models.EventTypeProductChanged:
		if eh.onProductChanged != nil {
			var event models.ProductChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ProductChanged event: %w", err)
			}
			return eh.onProductChanged(ctx, &event)
		}

	case models.EventTypeReviewModerated:
		if eh.onReviewModerated != nil {
			var event models.ReviewModeratedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ReviewModerated event: %w", err)
			}
			return eh.onReviewModerated(ctx, &event)
		}

	default:
		eh.logger.Debug("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
