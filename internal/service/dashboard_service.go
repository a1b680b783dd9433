package service

import (
	"context"
	"fmt"
	"time"

	"pasteleria/internal/models"
	"pasteleria/internal/repository"
	"pasteleria/internal/util"

	"github.com/shopspring/decimal"
)

const topProductsLimit = 5

// DashboardService computes admin statistics
type DashboardService struct {
	repo              repository.Repository
	lowStockThreshold int
	now               func() time.Time
}

// NewDashboardService creates a dashboard service
func NewDashboardService(repo repository.Repository, lowStockThreshold int) *DashboardService {
	if lowStockThreshold <= 0 {
		lowStockThreshold = 10
	}
	return &DashboardService{repo: repo, lowStockThreshold: lowStockThreshold, now: time.Now}
}

// Stats aggregates sales, customers, orders and inventory figures
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.Stats")
	defer span.End()

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	stats := &models.DashboardStats{GeneratedAt: now}
	var err error

	if stats.TotalSales, err = s.repo.SalesSince(ctx, time.Time{}); err != nil {
		return nil, fmt.Errorf("failed to sum sales: %w", err)
	}
	if stats.MonthSales, err = s.repo.SalesSince(ctx, monthStart); err != nil {
		return nil, fmt.Errorf("failed to sum month sales: %w", err)
	}
	if stats.TotalCustomers, err = s.repo.CountCustomers(ctx); err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	byStatus, err := s.repo.CountOrdersByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	stats.OrdersByStatus = make(map[string]int, len(models.OrderStatuses))
	for _, st := range models.OrderStatuses {
		stats.OrdersByStatus[st] = byStatus[st]
	}
	for _, n := range byStatus {
		stats.TotalOrders += n
	}

	if stats.TotalProducts, err = s.repo.CountProducts(ctx); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if stats.LowStockCount, err = s.repo.CountLowStock(ctx, s.lowStockThreshold); err != nil {
		return nil, fmt.Errorf("failed to count low stock: %w", err)
	}
	if stats.TopProducts, err = s.repo.TopProducts(ctx, topProductsLimit); err != nil {
		return nil, fmt.Errorf("failed to rank products: %w", err)
	}

	return stats, nil
}

// CustomerStats summarizes one customer's purchases and reviews
func (s *DashboardService) CustomerStats(ctx context.Context, customerID int64) (*models.CustomerStats, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.CustomerStats")
	defer span.End()

	user, err := s.repo.GetUser(ctx, customerID)
	if err != nil {
		return nil, notFoundOr(err, "customer", customerID, "get customer")
	}

	orders, spent, err := s.repo.CustomerOrderStats(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate orders: %w", err)
	}
	reviews, avgRating, err := s.repo.CustomerReviewStats(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	avgOrder := decimal.Zero
	if orders > 0 {
		avgOrder = spent.DivRound(decimal.NewFromInt(int64(orders)), 2)
	}

	return &models.CustomerStats{
		CustomerID:    user.ID,
		Name:          user.Name,
		Email:         user.Email,
		TotalOrders:   orders,
		TotalSpent:    spent,
		AverageOrder:  avgOrder,
		TotalReviews:  reviews,
		AverageRating: avgRating,
	}, nil
}
