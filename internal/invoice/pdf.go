// Package invoice renders the customer-facing boleta PDF.
package invoice

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"pasteleria/internal/models"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const (
	storeName    = "Pastelería Dulce Hogar"
	storeAddress = "Av. Los Pasteles 456, Lima"
	dateLayout   = "02/01/2006 15:04"
)

// Document is everything printed on a boleta
type Document struct {
	Order    models.Order
	Lines    []models.OrderLine
	Invoice  models.Invoice
	Customer models.User
	TaxRate  decimal.Decimal
}

// FileName returns the download name for an order's invoice
func FileName(orderID int64) string {
	return fmt.Sprintf("Factura_Pedido_%d.pdf", orderID)
}

// Render writes the PDF for doc to w
func Render(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Boleta "+doc.Invoice.Number, true)
	pdf.SetCreationDate(doc.Invoice.IssuedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(storeName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(storeAddress), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, tr("BOLETA DE VENTA ELECTRÓNICA"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, doc.Invoice.Number, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	field := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
	}
	field("Pedido:", "#"+strconv.FormatInt(doc.Order.ID, 10))
	field("Fecha de emisión:", doc.Invoice.IssuedAt.Format(dateLayout))
	field("Cliente:", doc.Customer.Name)
	field("Email:", doc.Customer.Email)
	field("Dirección de envío:", doc.Order.ShippingAddress)
	field("Método de pago:", doc.Order.PaymentMethod)
	field("Estado:", doc.Order.Status)
	pdf.Ln(4)

	pdf.SetFillColor(240, 220, 225)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(90, 7, "Producto", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 7, "Cantidad", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "P. Unitario", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, "Subtotal", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, l := range doc.Lines {
		pdf.CellFormat(90, 7, tr(l.ProductName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, strconv.Itoa(l.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 7, money(l.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, money(l.Subtotal), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	total := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(150, 6, tr(label), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, value, "", 1, "R", false, 0, "")
	}
	total("Costo de envío:", money(doc.Order.ShippingCost), false)
	total("Op. gravada:", money(doc.Invoice.Subtotal), false)
	total(fmt.Sprintf("IGV (%s%%):", doc.TaxRate.Mul(decimal.NewFromInt(100)).String()), money(doc.Invoice.Tax), false)
	total("TOTAL:", money(doc.Invoice.Total), true)

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 5, tr("Gracias por su compra."), "", 1, "C", false, 0, "")

	return pdf.Output(w)
}

// RenderBytes renders doc into memory
func RenderBytes(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("failed to render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func money(d decimal.Decimal) string {
	return "S/ " + d.StringFixed(2)
}
