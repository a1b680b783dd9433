package service

import (
	"context"
	"fmt"
	"time"

	"pasteleria/internal/models"
	"pasteleria/internal/repository"
	"pasteleria/internal/util"
)

// PreviewLength is the number of characters of a review shown in the feed
const PreviewLength = 80

// NotificationService builds the read-only admin notification feeds
type NotificationService struct {
	repo         repository.Repository
	window       time.Duration
	alertLimit   int
	messageLimit int
	now          func() time.Time
}

// NotificationOptions sizes the feeds. Zero values take the defaults: a
// 7 day window, 5 alerts and 10 messages.
type NotificationOptions struct {
	WindowDays   int
	AlertLimit   int
	MessageLimit int
	Now          func() time.Time
}

// NewNotificationService creates a notification service
func NewNotificationService(repo repository.Repository, opts NotificationOptions) *NotificationService {
	if opts.WindowDays <= 0 {
		opts.WindowDays = 7
	}
	if opts.AlertLimit <= 0 {
		opts.AlertLimit = 5
	}
	if opts.MessageLimit <= 0 {
		opts.MessageLimit = 10
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &NotificationService{
		repo:         repo,
		window:       time.Duration(opts.WindowDays) * 24 * time.Hour,
		alertLimit:   opts.AlertLimit,
		messageLimit: opts.MessageLimit,
		now:          opts.Now,
	}
}

// Alerts lists orders created inside the window, newest first
func (s *NotificationService) Alerts(ctx context.Context) ([]models.OrderAlert, error) {
	ctx, span := util.StartSpan(ctx, "NotificationService.Alerts")
	defer span.End()

	now := s.now()
	orders, err := s.repo.ListOrdersSince(ctx, now.Add(-s.window), s.alertLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent orders: %w", err)
	}

	alerts := make([]models.OrderAlert, len(orders))
	for i, o := range orders {
		alerts[i] = models.OrderAlert{
			OrderID:      o.ID,
			CustomerName: o.CustomerName,
			Total:        o.Total,
			Status:       o.Status,
			CreatedAt:    o.CreatedAt,
			Ago:          RelativeLabel(now.Sub(o.CreatedAt)),
		}
	}
	return alerts, nil
}

// Messages lists the most recent reviews regardless of moderation state
func (s *NotificationService) Messages(ctx context.Context) ([]models.ReviewMessage, error) {
	ctx, span := util.StartSpan(ctx, "NotificationService.Messages")
	defer span.End()

	now := s.now()
	reviews, err := s.repo.ListReviews(ctx, models.ReviewFilter{Limit: s.messageLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to list recent reviews: %w", err)
	}

	messages := make([]models.ReviewMessage, len(reviews))
	for i, r := range reviews {
		messages[i] = models.ReviewMessage{
			ReviewID:     r.ID,
			ProductName:  r.ProductName,
			CustomerName: r.CustomerName,
			Rating:       r.Rating,
			Preview:      Preview(r.Comment, PreviewLength),
			Approved:     r.Approved,
			CreatedAt:    r.CreatedAt,
			Ago:          RelativeLabel(now.Sub(r.CreatedAt)),
		}
	}
	return messages, nil
}

// Counts returns the badge counters
func (s *NotificationService) Counts(ctx context.Context) (models.NotificationCounts, error) {
	ctx, span := util.StartSpan(ctx, "NotificationService.Counts")
	defer span.End()

	var c models.NotificationCounts
	orders, err := s.repo.CountOrdersSince(ctx, s.now().Add(-s.window))
	if err != nil {
		return c, fmt.Errorf("failed to count recent orders: %w", err)
	}
	reviews, err := s.repo.CountPendingReviews(ctx)
	if err != nil {
		return c, fmt.Errorf("failed to count pending reviews: %w", err)
	}

	c.PendingOrders = orders
	c.PendingReviews = reviews
	c.Total = orders + reviews
	return c, nil
}

// Preview cuts text to at most n characters, appending "..." when it was cut
func Preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

// RelativeLabel renders an age as minutes under an hour, hours under a day
// and days otherwise
func RelativeLabel(age time.Duration) string {
	minutes := int64(age / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	switch {
	case minutes < 60:
		return fmt.Sprintf("%dm", minutes)
	case minutes < 24*60:
		return fmt.Sprintf("%dh", minutes/60)
	}
	return fmt.Sprintf("%dd", minutes/(24*60))
}
