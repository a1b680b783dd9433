package store

import (
	"context"

	"pasteleria/internal/models"
)

// GetInvoiceByOrder retrieves the invoice issued for an order
func (s *Store) GetInvoiceByOrder(ctx context.Context, orderID int64) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.get(ctx, &inv, "SELECT * FROM invoices WHERE order_id = $1", orderID); err != nil {
		return nil, err
	}
	return &inv, nil
}

// CreateInvoice inserts an invoice. A second invoice for the same order
// yields repository.ErrDuplicate.
func (s *Store) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	query := `
		INSERT INTO invoices (order_id, number, issued_at, subtotal, tax, total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := s.q.QueryRowxContext(ctx, query,
		inv.OrderID, inv.Number, inv.IssuedAt, inv.Subtotal, inv.Tax, inv.Total).Scan(&inv.ID)
	return mapWriteErr(err)
}
