package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pasteleria/internal/invoice"
	"pasteleria/internal/models"
	"pasteleria/internal/repository"
	"pasteleria/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultTaxRate is the IGV applied to tax-inclusive order totals
var DefaultTaxRate = decimal.RequireFromString("0.18")

// InvoiceService issues boletas and renders them as PDF
type InvoiceService struct {
	repo    repository.Repository
	taxRate decimal.Decimal
	now     func() time.Time
	logger  *zap.Logger
}

// NewInvoiceService creates an invoice service. A zero taxRate selects DefaultTaxRate.
func NewInvoiceService(repo repository.Repository, taxRate decimal.Decimal) *InvoiceService {
	if taxRate.IsZero() {
		taxRate = DefaultTaxRate
	}
	return &InvoiceService{
		repo:    repo,
		taxRate: taxRate,
		now:     time.Now,
		logger:  util.Component("invoice"),
	}
}

// SplitTax splits a tax-inclusive total into its taxable base, rounded to
// cents, and the tax that makes up the difference.
func SplitTax(total, rate decimal.Decimal) (subtotal, tax decimal.Decimal) {
	subtotal = total.DivRound(decimal.NewFromInt(1).Add(rate), 2)
	tax = total.Sub(subtotal)
	return subtotal, tax
}

// InvoiceNumber formats the boleta series number for an order
func InvoiceNumber(orderID int64) string {
	return fmt.Sprintf("B001-%08d", orderID)
}

// GenerateForOrder returns the order's invoice, issuing it on first call
func (s *InvoiceService) GenerateForOrder(ctx context.Context, order *models.Order) (*models.Invoice, error) {
	ctx, span := util.StartSpan(ctx, "InvoiceService.GenerateForOrder")
	defer span.End()

	var inv *models.Invoice
	err := s.repo.WithinTx(ctx, func(tx repository.Repository) error {
		var err error
		inv, err = s.generate(ctx, tx, order)
		return err
	})
	return inv, err
}

// generate issues the invoice using repo, which may be transaction-scoped
func (s *InvoiceService) generate(ctx context.Context, repo repository.Repository, order *models.Order) (*models.Invoice, error) {
	if !order.Total.IsPositive() {
		return nil, invalidArg("order %d total must be positive", order.ID)
	}

	existing, err := repo.GetInvoiceByOrder(ctx, order.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up invoice: %w", err)
	}

	subtotal, tax := SplitTax(order.Total, s.taxRate)
	inv := &models.Invoice{
		OrderID:  order.ID,
		Number:   InvoiceNumber(order.ID),
		IssuedAt: s.now().UTC(),
		Subtotal: subtotal,
		Tax:      tax,
		Total:    order.Total,
	}
	if err := repo.CreateInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	util.InvoicesGeneratedTotal.Inc()
	s.logger.Info("Invoice issued",
		zap.Int64("order_id", order.ID),
		zap.String("number", inv.Number),
		zap.String("total", inv.Total.StringFixed(2)))
	return inv, nil
}

// GetByOrder returns the invoice of an order
func (s *InvoiceService) GetByOrder(ctx context.Context, orderID int64) (*models.Invoice, error) {
	inv, err := s.repo.GetInvoiceByOrder(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "invoice for order", orderID, "get invoice")
	}
	return inv, nil
}

// StatusLabel describes invoice availability for an order status
func StatusLabel(status string) string {
	switch status {
	case models.OrderStatusCompleted:
		return "Factura disponible"
	case models.OrderStatusProcessing:
		return "En proceso de preparación"
	case models.OrderStatusPending:
		return "Pendiente de confirmación"
	case models.OrderStatusCancelled:
		return "Pedido cancelado"
	}
	return "Estado desconocido"
}

// InvoiceStatus is the availability of an order's invoice download
type InvoiceStatus struct {
	OrderID   int64  `json:"order_id"`
	Status    string `json:"status"`
	Label     string `json:"label"`
	Available bool   `json:"available"`
}

// Status reports whether the requester can download the order's invoice yet
func (s *InvoiceService) Status(ctx context.Context, requesterID int64, isAdmin bool, orderID int64) (*InvoiceStatus, error) {
	order, err := s.authorizedOrder(ctx, requesterID, isAdmin, orderID)
	if err != nil {
		return nil, err
	}
	return &InvoiceStatus{
		OrderID:   order.ID,
		Status:    order.Status,
		Label:     StatusLabel(order.Status),
		Available: order.Status == models.OrderStatusCompleted,
	}, nil
}

// DownloadPDF renders the invoice of a completed order. Customers may only
// download their own invoices; admins may download any.
func (s *InvoiceService) DownloadPDF(ctx context.Context, requesterID int64, isAdmin bool, orderID int64) (string, []byte, error) {
	ctx, span := util.StartSpan(ctx, "InvoiceService.DownloadPDF")
	defer span.End()

	order, err := s.authorizedOrder(ctx, requesterID, isAdmin, orderID)
	if err != nil {
		return "", nil, err
	}
	if order.Status != models.OrderStatusCompleted {
		return "", nil, invalidState("invoice is only available for completed orders (%s)", StatusLabel(order.Status))
	}

	inv, err := s.GenerateForOrder(ctx, order)
	if err != nil {
		return "", nil, err
	}
	lines, err := s.repo.ListOrderLines(ctx, order.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list order lines: %w", err)
	}
	customer, err := s.repo.GetUser(ctx, order.CustomerID)
	if err != nil {
		return "", nil, notFoundOr(err, "customer", order.CustomerID, "get customer")
	}

	data, err := invoice.RenderBytes(invoice.Document{
		Order:    *order,
		Lines:    lines,
		Invoice:  *inv,
		Customer: *customer,
		TaxRate:  s.taxRate,
	})
	if err != nil {
		util.RecordError(span, err)
		return "", nil, err
	}

	util.InvoicePDFRenderedTotal.Inc()
	return invoice.FileName(order.ID), data, nil
}

func (s *InvoiceService) authorizedOrder(ctx context.Context, requesterID int64, isAdmin bool, orderID int64) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order", orderID, "get order")
	}
	if !isAdmin && order.CustomerID != requesterID {
		return nil, fmt.Errorf("%w: order %d belongs to another customer", ErrPermissionDenied, orderID)
	}
	return order, nil
}
