// Package restaurant serves the menu and restaurant orders.
package restaurant

import (
	"github.com/pawanbhattarai/PMS/internal/models"

	"github.com/shopspring/decimal"
)

var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:   {models.OrderPreparing, models.OrderCancelled},
	models.OrderPreparing: {models.OrderReady, models.OrderCancelled},
	models.OrderReady:     {models.OrderServed},
}

func validOrderStatus(s models.OrderStatus) bool {
	switch s {
	case models.OrderPending, models.OrderPreparing, models.OrderReady, models.OrderServed, models.OrderCancelled:
		return true
	}
	return false
}

// CanMove reports whether an order may go from one status to another.
func CanMove(from, to models.OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Totals sums the lines and applies the tax rate, rounding to cents.
func Totals(lines []models.OrderLine, taxRate decimal.Decimal) (subtotal, tax, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)
	tax = subtotal.Mul(taxRate).Round(2)
	return subtotal, tax, subtotal.Add(tax)
}
