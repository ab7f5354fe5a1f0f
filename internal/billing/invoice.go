// Package billing issues invoices for stays and extras and records payments.
package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/stay"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newInvoiceNumber() string {
	return "INV-" + strings.ToUpper(uuid.NewString())
}

// DisplayStatus reports a pending invoice whose due date has passed as overdue.
// The stored status is not changed.
func DisplayStatus(inv *models.Invoice, now time.Time) models.InvoiceStatus {
	if inv.Status == models.InvoicePending && stay.Day(now).After(stay.Day(inv.DueDate)) {
		return models.InvoiceOverdue
	}
	return inv.Status
}

// Totals prices every line and applies the tax rate, rounding to cents.
func Totals(lines []models.InvoiceLine, taxRate decimal.Decimal) (subtotal, tax, total decimal.Decimal) {
	subtotal = decimal.Zero
	for i := range lines {
		if lines[i].Amount.IsZero() {
			lines[i].Amount = lines[i].Rate.Mul(decimal.NewFromInt(int64(lines[i].Quantity))).Round(2)
		}
		subtotal = subtotal.Add(lines[i].Amount)
	}
	subtotal = subtotal.Round(2)
	tax = subtotal.Mul(taxRate).Round(2)
	return subtotal, tax, subtotal.Add(tax)
}

// StayLine bills a reservation as one line. The amount is the reservation
// total, which may differ from rate × nights when the price was set by hand.
func StayLine(r *models.Reservation, room *models.Room) models.InvoiceLine {
	nights := stay.Interval{CheckIn: r.CheckInDate, CheckOut: r.CheckOutDate}.Nights()
	if nights < 1 {
		nights = 1
	}
	unit := "nights"
	if nights == 1 {
		unit = "night"
	}
	return models.InvoiceLine{
		Description: fmt.Sprintf("Room %s × %d %s", room.Number, nights, unit),
		Quantity:    nights,
		Rate:        r.TotalAmount.Div(decimal.NewFromInt(int64(nights))).Round(2),
		Amount:      r.TotalAmount,
	}
}
