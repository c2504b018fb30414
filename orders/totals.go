package orders

import (
	"fmt"
	"math"

	"github.com/retailops/procurement/models"
)

// round2 rounds to two decimal places, half away from zero. All monetary
// fields are stored at this precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RecomputeTotals rewrites every derived monetary field on the order from its
// line items: each item's line total, the subtotal, the tax amount and the
// grand total. It runs before every persist; values supplied by callers for
// these fields are discarded.
func RecomputeTotals(o *models.PurchaseOrder) {
	subtotal := 0.0
	for i := range o.OrderItems {
		item := &o.OrderItems[i]
		item.LineTotal = round2(item.UnitPrice * float64(item.Quantity))
		subtotal += item.UnitPrice * float64(item.Quantity)
	}
	o.Subtotal = round2(subtotal)
	o.TaxAmount = round2(o.Subtotal * o.TaxRate / 100)
	o.TotalAmount = round2(o.Subtotal + o.TaxAmount + o.ShippingCost - o.Discount)
}

// validateItems checks every order item and returns one detail string per
// offending field, indexed so the caller can point at the exact line.
func validateItems(items []models.OrderItem) []string {
	var details []string
	if len(items) == 0 {
		return []string{"order_items must contain at least one item"}
	}
	for i, item := range items {
		if item.ProductRef == "" {
			details = append(details, fmt.Sprintf("order_items[%d].product_ref is required", i))
		}
		if item.ProductName == "" {
			details = append(details, fmt.Sprintf("order_items[%d].product_name is required", i))
		}
		if item.CategoryRef == "" {
			details = append(details, fmt.Sprintf("order_items[%d].category_ref is required", i))
		}
		if item.UnitPrice <= 0 {
			details = append(details, fmt.Sprintf("order_items[%d].unit_price must be greater than zero", i))
		}
		if item.Quantity <= 0 {
			details = append(details, fmt.Sprintf("order_items[%d].quantity must be greater than zero", i))
		}
	}
	return details
}
