package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypeProductChanged     = "PRODUCT_CHANGED"
	EventTypeReviewSubmitted    = "REVIEW_SUBMITTED"
	EventTypeReviewModerated    = "REVIEW_MODERATED"
)

// Product change actions
const (
	ProductActionCreated = "created"
	ProductActionUpdated = "updated"
	ProductActionDeleted = "deleted"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published after a checkout commits
type OrderCreatedEvent struct {
	BaseEvent
	OrderID    int64           `json:"order_id"`
	CustomerID int64           `json:"customer_id"`
	Total      decimal.Decimal `json:"total"`
	Items      []OrderItemData `json:"items"`
}

// OrderStatusChangedEvent published when an admin moves an order
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// ProductChangedEvent published on admin catalog mutations
type ProductChangedEvent struct {
	BaseEvent
	ProductID int64  `json:"product_id"`
	Action    string `json:"action"`
}

// ReviewSubmittedEvent published when a review enters moderation
type ReviewSubmittedEvent struct {
	BaseEvent
	ReviewID   int64 `json:"review_id"`
	ProductID  int64 `json:"product_id"`
	CustomerID int64 `json:"customer_id"`
	Rating     int   `json:"rating"`
}

// ReviewModeratedEvent published when a review is approved or rejected
type ReviewModeratedEvent struct {
	BaseEvent
	ReviewID  int64 `json:"review_id"`
	ProductID int64 `json:"product_id"`
	Approved  bool  `json:"approved"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}
