package orders

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/retailops/procurement/models"
)

const csvDateLayout = "02/01/2006"

var csvHeader = []string{
	"Order Number", "Vendor", "Status", "Priority", "Payment Terms",
	"Purchase Date", "Expected Delivery", "Subtotal", "Tax Rate", "Tax Amount",
	"Shipping Cost", "Discount", "Total Amount", "Item Count", "Notes", "Created At",
}

// sanitizeCSV strips the characters that would break a row: commas become
// semicolons, newlines become spaces.
func sanitizeCSV(v string) string {
	v = strings.ReplaceAll(v, ",", ";")
	v = strings.ReplaceAll(v, "\r\n", " ")
	v = strings.ReplaceAll(v, "\n", " ")
	v = strings.ReplaceAll(v, "\r", " ")
	return v
}

// ExportCSV streams all orders matching filter as CSV, one row per order.
// Rows are built by hand because the projection contract mandates sanitized
// fields rather than quoted ones.
func (s *Service) ExportCSV(w io.Writer, filter ListFilter) error {
	now := s.now()

	var orders []models.PurchaseOrder
	err := s.applyFilter(s.db.Model(&models.PurchaseOrder{}), filter, now).
		Preload("OrderItems").
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return internal("failed to load orders for export", err)
	}

	s.enrichBatch(orders, now)

	if _, err := io.WriteString(w, strings.Join(csvHeader, ",")+"\n"); err != nil {
		return internal("failed to write export", err)
	}

	for i := range orders {
		order := &orders[i]

		vendor := order.VendorRef
		if order.Supplier != nil {
			vendor = order.Supplier.SupplierName
		}
		notes := ""
		if order.Notes != nil {
			notes = *order.Notes
		}

		row := []string{
			sanitizeCSV(order.OrderNumber),
			sanitizeCSV(vendor),
			string(order.Status),
			string(order.Priority),
			string(order.PaymentTerms),
			order.PurchaseDate.Format(csvDateLayout),
			order.ExpectedDelivery.Format(csvDateLayout),
			formatAmount(order.Subtotal),
			formatAmount(order.TaxRate),
			formatAmount(order.TaxAmount),
			formatAmount(order.ShippingCost),
			formatAmount(order.Discount),
			formatAmount(order.TotalAmount),
			strconv.Itoa(len(order.OrderItems)),
			sanitizeCSV(notes),
			order.CreatedAt.Format(csvDateLayout),
		}
		if _, err := io.WriteString(w, strings.Join(row, ",")+"\n"); err != nil {
			return internal("failed to write export", err)
		}
	}
	return nil
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// CSVFilename names the download with the export date.
func CSVFilename(at time.Time) string {
	return "purchase-orders-" + at.Format("2006-01-02") + ".csv"
}
