package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"pasteleria/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	keys   []string
	events []interface{}
	err    error
}

func (r *recordingSink) PublishEvent(ctx context.Context, key string, event interface{}) error {
	r.keys = append(r.keys, key)
	r.events = append(r.events, event)
	return r.err
}

func TestPublishOrderCreated_FillsEnvelope(t *testing.T) {
	sink := &recordingSink{}
	pub := NewEventPublisher(sink)

	event := &models.OrderCreatedEvent{OrderID: 42, CustomerID: 7, Total: decimal.RequireFromString("80.00")}
	require.NoError(t, pub.PublishOrderCreated(context.Background(), event))

	require.Len(t, sink.keys, 1)
	assert.Equal(t, "order-42", sink.keys[0])
	assert.Equal(t, models.EventTypeOrderCreated, event.EventType)
	assert.NotEmpty(t, event.EventID)
	assert.False(t, event.Timestamp.IsZero())
}

func TestPublish_PropagatesSinkError(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	pub := NewEventPublisher(sink)

	err := pub.PublishProductChanged(context.Background(), &models.ProductChangedEvent{ProductID: 3, Action: models.ProductActionUpdated})
	assert.EqualError(t, err, "broker down")
	assert.Equal(t, []string{"product-3"}, sink.keys)
}

func TestHandleMessage_RoutesByType(t *testing.T) {
	h := NewEventHandler()

	var gotOrder *models.OrderCreatedEvent
	var gotProduct *models.ProductChangedEvent
	h.OnOrderCreated(func(ctx context.Context, e *models.OrderCreatedEvent) error {
		gotOrder = e
		return nil
	})
	h.OnProductChanged(func(ctx context.Context, e *models.ProductChangedEvent) error {
		gotProduct = e
		return nil
	})

	orderEvent := models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{EventID: "e1", EventType: models.EventTypeOrderCreated},
		OrderID:   9,
		Items:     []models.OrderItemData{{ProductID: 1, Quantity: 2}},
	}
	value, err := json.Marshal(orderEvent)
	require.NoError(t, err)
	require.NoError(t, h.HandleMessage(context.Background(), kafka.Message{Value: value}))
	require.NotNil(t, gotOrder)
	assert.Equal(t, int64(9), gotOrder.OrderID)
	assert.Len(t, gotOrder.Items, 1)
	assert.Nil(t, gotProduct)

	value, err = json.Marshal(models.ProductChangedEvent{
		BaseEvent: models.BaseEvent{EventID: "e2", EventType: models.EventTypeProductChanged},
		ProductID: 5,
	})
	require.NoError(t, err)
	require.NoError(t, h.HandleMessage(context.Background(), kafka.Message{Value: value}))
	require.NotNil(t, gotProduct)
	assert.Equal(t, int64(5), gotProduct.ProductID)
}

func TestHandleMessage_IgnoresUnknownAndRejectsGarbage(t *testing.T) {
	h := NewEventHandler()

	assert.NoError(t, h.HandleMessage(context.Background(), kafka.Message{Value: []byte(`{"event_type":"SOMETHING_ELSE"}`)}))
	assert.Error(t, h.HandleMessage(context.Background(), kafka.Message{Value: []byte(`not json`)}))
}
