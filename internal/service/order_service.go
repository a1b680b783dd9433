package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"pasteleria/internal/models"
	"pasteleria/internal/repository"
	"pasteleria/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService turns carts into orders and manages them afterwards
type OrderService struct {
	repo         repository.Repository
	invoices     *InvoiceService
	publisher    EventPublisher
	locker       Locker
	products     ProductCache
	lockTTL      time.Duration
	autoComplete bool
	logger       *zap.Logger
}

// OrderOptions tunes checkout behavior
type OrderOptions struct {
	// AutoComplete creates orders as COMPLETADO instead of PENDIENTE.
	AutoComplete bool
	// LockTTL bounds how long a customer's checkout lock is held.
	LockTTL time.Duration
	// Products is told which products changed stock after each checkout.
	Products ProductCache
}

// NewOrderService creates a new order service. locker may be nil, in which
// case concurrent checkouts of one customer are serialized by the database only.
func NewOrderService(
	repo repository.Repository,
	invoices *InvoiceService,
	publisher EventPublisher,
	locker Locker,
	opts OrderOptions,
) *OrderService {
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Second
	}
	return &OrderService{
		repo:         repo,
		invoices:     invoices,
		publisher:    publisher,
		locker:       locker,
		products:     opts.Products,
		lockTTL:      opts.LockTTL,
		autoComplete: opts.AutoComplete,
		logger:       util.GetLogger(),
	}
}

// CheckoutRequest represents a request to finalize the cart
type CheckoutRequest struct {
	PaymentMethod   string          `json:"payment_method" form:"metodoPago"`
	ShippingAddress string          `json:"shipping_address" form:"direccionEnvio"`
	ShippingCost    decimal.Decimal `json:"shipping_cost" form:"costoEnvio"`
	IdempotencyKey  string          `json:"-" form:"-"`
}

func (r *CheckoutRequest) normalize() error {
	r.PaymentMethod = strings.TrimSpace(r.PaymentMethod)
	r.ShippingAddress = strings.TrimSpace(r.ShippingAddress)
	r.IdempotencyKey = strings.TrimSpace(r.IdempotencyKey)

	if r.PaymentMethod == "" {
		return invalidArg("payment method is required")
	}
	if r.ShippingAddress == "" {
		return invalidArg("shipping address is required")
	}
	if r.ShippingCost.IsNegative() {
		return invalidArg("shipping cost must be >= 0")
	}
	if len(r.IdempotencyKey) > 100 {
		return invalidArg("idempotency key is too long")
	}
	return nil
}

// Finalize converts the customer's cart into an order in one transaction:
// stock is locked, checked and decremented, the order and its lines are
// stored, the invoice is issued and the cart is emptied. Any failure leaves
// every table untouched.
func (s *OrderService) Finalize(ctx context.Context, customerID int64, req CheckoutRequest) (*models.OrderDetail, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Finalize")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if err := req.normalize(); err != nil {
		util.CheckoutFailedTotal.WithLabelValues("invalid_argument").Inc()
		return nil, err
	}

	release, err := s.lockCheckout(ctx, customerID)
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("locked").Inc()
		return nil, err
	}
	defer release()

	if req.IdempotencyKey != "" {
		existing, err := s.repo.GetOrderByIdempotencyKey(ctx, customerID, req.IdempotencyKey)
		if err == nil {
			s.logger.Info("Duplicate checkout request detected",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.Int64("order_id", existing.ID))
			return s.detail(ctx, existing)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		}
	}

	var detail *models.OrderDetail
	err = s.repo.WithinTx(ctx, func(tx repository.Repository) error {
		var err error
		detail, err = s.finalizeTx(ctx, tx, customerID, req)
		return err
	})
	if err != nil {
		util.RecordError(span, err)
		util.CheckoutFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", detail.ID),
		zap.Int64("customer_id", customerID),
		zap.String("total", detail.Total.StringFixed(2)),
		zap.Int("lines", len(detail.Lines)))

	if s.products != nil {
		ids := make([]int64, len(detail.Lines))
		for i, l := range detail.Lines {
			ids[i] = l.ProductID
		}
		s.products.InvalidateProducts(ctx, ids...)
	}
	s.publishOrderCreated(ctx, detail)
	return detail, nil
}

func (s *OrderService) finalizeTx(ctx context.Context, tx repository.Repository, customerID int64, req CheckoutRequest) (*models.OrderDetail, error) {
	cart, err := tx.GetCartByCustomer(ctx, customerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalidState("empty cart")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	cartLines, err := tx.ListCartLines(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}
	if len(cartLines) == 0 {
		return nil, invalidState("empty cart")
	}

	ids := make([]int64, len(cartLines))
	for i, l := range cartLines {
		ids[i] = l.ProductID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products, err := tx.LockProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	subtotal := decimal.Zero
	lines := make([]models.OrderLine, 0, len(cartLines))
	for _, cl := range cartLines {
		p, ok := byID[cl.ProductID]
		if !ok {
			return nil, invalidState("product %d is no longer available", cl.ProductID)
		}
		if cl.Quantity <= 0 || cl.Quantity > MaxLineQuantity {
			return nil, invalidState("cart line for %s has invalid quantity %d", p.Name, cl.Quantity)
		}
		if cl.Quantity > p.Stock {
			return nil, invalidState("insufficient stock for %s: requested %d, available %d", p.Name, cl.Quantity, p.Stock)
		}

		lineTotal := lineSubtotal(cl.UnitPrice, cl.Quantity)
		subtotal = subtotal.Add(lineTotal)
		lines = append(lines, models.OrderLine{
			ProductID:   cl.ProductID,
			ProductName: p.Name,
			Quantity:    cl.Quantity,
			UnitPrice:   cl.UnitPrice,
			Subtotal:    lineTotal,
		})
	}

	for _, l := range lines {
		if err := tx.DecrementStock(ctx, l.ProductID, l.Quantity); err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				return nil, invalidState("insufficient stock for %s", l.ProductName)
			}
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
	}

	status := models.OrderStatusPending
	if s.autoComplete {
		status = models.OrderStatusCompleted
	}

	order := &models.Order{
		CustomerID:      customerID,
		Status:          status,
		Total:           subtotal.Add(req.ShippingCost),
		ShippingAddress: req.ShippingAddress,
		ShippingCost:    req.ShippingCost,
		PaymentMethod:   req.PaymentMethod,
		IdempotencyKey:  req.IdempotencyKey,
	}
	if err := tx.CreateOrder(ctx, order, lines); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: checkout with this idempotency key already processed", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	inv, err := s.invoices.generate(ctx, tx, order)
	if err != nil {
		return nil, err
	}

	if err := tx.ClearCart(ctx, cart.ID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	return &models.OrderDetail{Order: *order, Lines: lines, Invoice: inv}, nil
}

// lockCheckout takes the per-customer checkout lock. Redis outages degrade to
// running without it; the database transaction still protects stock.
func (s *OrderService) lockCheckout(ctx context.Context, customerID int64) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}

	key := "checkout:" + strconv.FormatInt(customerID, 10)
	token, ok, err := s.locker.AcquireLock(ctx, key, s.lockTTL)
	if err != nil {
		s.logger.Warn("Checkout lock unavailable, continuing without it",
			zap.Int64("customer_id", customerID), zap.Error(err))
		return noop, nil
	}
	if !ok {
		return nil, fmt.Errorf("%w: checkout already in progress", ErrConflict)
	}

	return func() {
		if err := s.locker.ReleaseLock(context.Background(), key, token); err != nil {
			s.logger.Warn("Failed to release checkout lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func (s *OrderService) publishOrderCreated(ctx context.Context, detail *models.OrderDetail) {
	items := make([]models.OrderItemData, len(detail.Lines))
	for i, l := range detail.Lines {
		items[i] = models.OrderItemData{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice}
	}

	event := &models.OrderCreatedEvent{
		OrderID:    detail.ID,
		CustomerID: detail.CustomerID,
		Total:      detail.Total,
		Items:      items,
	}
	if err := s.publisher.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCreated event", zap.Int64("order_id", detail.ID), zap.Error(err))
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidState):
		if strings.Contains(err.Error(), "empty cart") {
			return "empty_cart"
		}
		return "insufficient_stock"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrConflict):
		return "conflict"
	}
	return "db_error"
}

// ListCustomerOrders returns the customer's orders, newest first
func (s *OrderService) ListCustomerOrders(ctx context.Context, customerID int64) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListCustomerOrders")
	defer span.End()

	orders, err := s.repo.ListOrdersByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetCustomerOrder returns one of the customer's orders with lines and invoice
func (s *OrderService) GetCustomerOrder(ctx context.Context, customerID, orderID int64) (*models.OrderDetail, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetCustomerOrder")
	defer span.End()

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order", orderID, "get order")
	}
	if order.CustomerID != customerID {
		return nil, fmt.Errorf("%w: order %d belongs to another customer", ErrPermissionDenied, orderID)
	}
	return s.detail(ctx, order)
}

// GetOrderDetail returns any order with lines, invoice and customer name
func (s *OrderService) GetOrderDetail(ctx context.Context, orderID int64) (*models.OrderDetail, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrderDetail")
	defer span.End()

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order", orderID, "get order")
	}
	detail, err := s.detail(ctx, order)
	if err != nil {
		return nil, err
	}
	if customer, err := s.repo.GetUser(ctx, order.CustomerID); err == nil {
		detail.CustomerName = customer.Name
	}
	return detail, nil
}

func (s *OrderService) detail(ctx context.Context, order *models.Order) (*models.OrderDetail, error) {
	lines, err := s.repo.ListOrderLines(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order lines: %w", err)
	}

	detail := &models.OrderDetail{Order: *order, Lines: lines}
	inv, err := s.repo.GetInvoiceByOrder(ctx, order.ID)
	switch {
	case err == nil:
		detail.Invoice = inv
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return detail, nil
}

// ListOrders returns all orders for admins, optionally filtered by status
func (s *OrderService) ListOrders(ctx context.Context, status string) ([]models.OrderSummary, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders")
	defer span.End()

	status = strings.ToUpper(strings.TrimSpace(status))
	if status != "" && !models.ValidOrderStatus(status) {
		return nil, invalidArg("unknown order status %q", status)
	}

	orders, err := s.repo.ListOrders(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order to one of the known statuses
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateStatus")
	defer span.End()

	status = strings.ToUpper(strings.TrimSpace(status))
	if !models.ValidOrderStatus(status) {
		return nil, invalidArg("unknown order status %q", status)
	}

	var (
		order     *models.Order
		oldStatus string
	)
	err := s.repo.WithinTx(ctx, func(tx repository.Repository) error {
		var err error
		order, err = tx.GetOrder(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "order", orderID, "get order")
		}
		oldStatus = order.Status
		if err := tx.UpdateOrderStatus(ctx, orderID, status); err != nil {
			return notFoundOr(err, "order", orderID, "update order status")
		}
		order.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	util.OrderStatusChangesTotal.WithLabelValues(status).Inc()
	s.logger.Info("Order status updated",
		zap.Int64("order_id", orderID),
		zap.String("from", oldStatus),
		zap.String("to", status))

	event := &models.OrderStatusChangedEvent{OrderID: orderID, OldStatus: oldStatus, NewStatus: status}
	if err := s.publisher.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Int64("order_id", orderID), zap.Error(err))
	}
	return order, nil
}
