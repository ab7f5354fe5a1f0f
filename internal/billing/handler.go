package billing

import (
	"context"
	"errors"
	"time"

	"github.com/pawanbhattarai/PMS/internal/access"
	"github.com/pawanbhattarai/PMS/internal/apperr"
	"github.com/pawanbhattarai/PMS/internal/auth"
	"github.com/pawanbhattarai/PMS/internal/httpx"
	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/stay"
	"github.com/pawanbhattarai/PMS/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

type Store interface {
	store.InvoiceStore
	GetReservation(ctx context.Context, id uint) (*models.Reservation, error)
	GetRoom(ctx context.Context, id uint) (*models.Room, error)
	GetGuest(ctx context.Context, id uint) (*models.Guest, error)
}

type Handler struct {
	store   Store
	taxRate decimal.Decimal
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewHandler(st Store, taxRate decimal.Decimal, log logrus.FieldLogger) *Handler {
	return &Handler{store: st, taxRate: taxRate, log: log, now: time.Now}
}

type LineRequest struct {
	Description string          `json:"description" validate:"required,max=255"`
	Quantity    int             `json:"quantity" validate:"min=1"`
	Rate        decimal.Decimal `json:"rate"`
}

type CreateInvoiceRequest struct {
	BranchID      *uint         `json:"branchId"`
	GuestID       *uint         `json:"guestId"`
	ReservationID *uint         `json:"reservationId"`
	Items         []LineRequest `json:"items" validate:"omitempty,dive"`
	DueDate       *string       `json:"dueDate"`
	Notes         string        `json:"notes" validate:"max=1000"`
}

type PayInvoiceRequest struct {
	PaymentMethod models.PaymentMethod `json:"paymentMethod" validate:"required"`
}

type GuestSummary struct {
	ID       uint   `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type InvoiceResponse struct {
	ID            uint                 `json:"id"`
	InvoiceNumber string               `json:"invoiceNumber"`
	BranchID      uint                 `json:"branchId"`
	GuestID       uint                 `json:"guestId"`
	ReservationID *uint                `json:"reservationId"`
	Items         []models.InvoiceLine `json:"items"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	Tax           decimal.Decimal      `json:"tax"`
	Total         decimal.Decimal      `json:"total"`
	Status        models.InvoiceStatus `json:"status"`
	DueDate       string               `json:"dueDate"`
	PaidDate      *string              `json:"paidDate"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod,omitempty"`
	Notes         string               `json:"notes"`
	CreatedBy     uint                 `json:"createdBy"`
	CreatedAt     string               `json:"createdAt"`
	Guest         *GuestSummary        `json:"guest,omitempty"`
}

func (h *Handler) response(ctx context.Context, inv *models.Invoice) InvoiceResponse {
	res := InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		BranchID:      inv.BranchID,
		GuestID:       inv.GuestID,
		ReservationID: inv.ReservationID,
		Items:         inv.Items,
		Subtotal:      inv.Subtotal,
		Tax:           inv.Tax,
		Total:         inv.Total,
		Status:        DisplayStatus(inv, h.now()),
		DueDate:       inv.DueDate.Format(stay.Layout),
		PaidDate:      httpx.FormatOptionalTime(inv.PaidDate),
		PaymentMethod: inv.PaymentMethod,
		Notes:         inv.Notes,
		CreatedBy:     inv.CreatedBy,
		CreatedAt:     httpx.FormatTime(inv.CreatedAt),
	}
	if res.Items == nil {
		res.Items = []models.InvoiceLine{}
	}
	if g, err := h.store.GetGuest(ctx, inv.GuestID); err == nil {
		res.Guest = &GuestSummary{ID: g.ID, FullName: g.FullName(), Email: g.Email}
	}
	return res
}

func (h *Handler) load(c *fiber.Ctx) (*models.Invoice, error) {
	actx, err := auth.Identity(c)
	if err != nil {
		return nil, err
	}
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	inv, err := h.store.GetInvoice(c.UserContext(), id)
	if err != nil {
		return nil, httpx.StoreError(err, "invoice")
	}
	if err := access.CheckBranch(actx, inv.BranchID); err != nil {
		return nil, err
	}
	return inv, nil
}

// GET /api/invoices?branchId&status
func (h *Handler) List(c *fiber.Ctx) error {
	actx, err := auth.Identity(c)
	if err != nil {
		return err
	}
	requested, err := httpx.BranchQuery(c)
	if err != nil {
		return err
	}
	status := models.InvoiceStatus(c.Query("status"))
	scope := access.ResolveScope(actx, requested)
	if scope == nil {
		return c.JSON([]InvoiceResponse{})
	}

	invoices, err := h.store.ListInvoices(c.UserContext(), *scope)
	if err != nil {
		return apperr.Wrap(err, "list invoices")
	}
	res := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		r := h.response(c.UserContext(), &invoices[i])
		if status != "" && r.Status != status {
			continue
		}
		res = append(res, r)
	}
	return c.JSON(res)
}

// GET /api/invoices/:id
func (h *Handler) Get(c *fiber.Ctx) error {
	inv, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(h.response(c.UserContext(), inv))
}

// POST /api/invoices
// With a reservationId the invoice belongs to the reservation's branch and
// guest, and bills the stay when no items are given.
func (h *Handler) Create(c *fiber.Ctx) error {
	actx, err := auth.Identity(c)
	if err != nil {
		return err
	}
	var body CreateInvoiceRequest
	if err := httpx.ParseBody(c, &body); err != nil {
		return err
	}
	ctx := c.UserContext()
	today := stay.Day(h.now())

	inv := models.Invoice{
		InvoiceNumber: newInvoiceNumber(),
		ReservationID: body.ReservationID,
		Status:        models.InvoicePending,
		DueDate:       today,
		Notes:         body.Notes,
		CreatedBy:     actx.UserID,
	}

	var lines []models.InvoiceLine
	for _, l := range body.Items {
		if l.Rate.IsNegative() {
			return apperr.Field("items", "rate must not be negative")
		}
		lines = append(lines, models.InvoiceLine{Description: l.Description, Quantity: l.Quantity, Rate: l.Rate.Round(2)})
	}

	if body.ReservationID != nil {
		r, err := h.store.GetReservation(ctx, *body.ReservationID)
		if err != nil {
			return httpx.StoreError(err, "reservation")
		}
		if err := access.CheckBranch(actx, r.BranchID); err != nil {
			return err
		}
		if r.Status == models.ReservationCancelled {
			return apperr.Validationf("reservation %d is cancelled", r.ID)
		}
		if body.GuestID != nil && *body.GuestID != r.GuestID {
			return apperr.Field("guestId", "does not match the reservation guest")
		}
		inv.BranchID, inv.GuestID = r.BranchID, r.GuestID
		if r.CheckOutDate.After(today) {
			inv.DueDate = r.CheckOutDate
		}
		if len(lines) == 0 {
			room, err := h.store.GetRoom(ctx, r.RoomID)
			if err != nil {
				return httpx.StoreError(err, "room")
			}
			lines = []models.InvoiceLine{StayLine(r, room)}
		}
	} else {
		if body.GuestID == nil {
			return apperr.Field("guestId", "is required without a reservation")
		}
		if len(lines) == 0 {
			return apperr.Field("items", "at least one line is required")
		}
		if _, err := h.store.GetGuest(ctx, *body.GuestID); err != nil {
			return httpx.StoreError(err, "guest")
		}
		if inv.BranchID, err = access.WriteScope(actx, body.BranchID); err != nil {
			return err
		}
		inv.GuestID = *body.GuestID
	}

	due, err := httpx.ParseOptionalDate("dueDate", body.DueDate)
	if err != nil {
		return err
	}
	if due != nil {
		inv.DueDate = *due
	}

	inv.Subtotal, inv.Tax, inv.Total = Totals(lines, h.taxRate)
	inv.Items = datatypes.JSONSlice[models.InvoiceLine](lines)

	if err := h.store.CreateInvoice(ctx, &inv); err != nil {
		return httpx.StoreError(err, "invoice")
	}
	h.log.WithFields(logrus.Fields{
		"invoice_id": inv.ID,
		"branch_id":  inv.BranchID,
		"total":      inv.Total.String(),
		"user_id":    actx.UserID,
	}).Info("invoice created")
	return c.Status(fiber.StatusCreated).JSON(h.response(ctx, &inv))
}

// POST /api/invoices/:id/pay
func (h *Handler) Pay(c *fiber.Ctx) error {
	var body PayInvoiceRequest
	if err := httpx.ParseBody(c, &body); err != nil {
		return err
	}
	if !body.PaymentMethod.Valid() {
		return apperr.Field("paymentMethod", "must be one of cash, card, digital_wallet")
	}
	inv, err := h.load(c)
	if err != nil {
		return err
	}
	if inv.Status != models.InvoicePending {
		return apperr.InvalidTransitionf("invoice %s is %s and cannot be paid", inv.InvoiceNumber, inv.Status)
	}

	now := h.now()
	inv.Status = models.InvoicePaid
	inv.PaidDate = &now
	inv.PaymentMethod = body.PaymentMethod
	if err := h.store.PayInvoice(c.UserContext(), inv); err != nil {
		if errors.Is(err, store.ErrNotPending) {
			return apperr.InvalidTransitionf("invoice %s was settled by another request", inv.InvoiceNumber)
		}
		return httpx.StoreError(err, "invoice")
	}
	return c.JSON(h.response(c.UserContext(), inv))
}

// POST /api/invoices/:id/cancel
func (h *Handler) Cancel(c *fiber.Ctx) error {
	inv, err := h.load(c)
	if err != nil {
		return err
	}
	if inv.Status != models.InvoicePending {
		return apperr.InvalidTransitionf("invoice %s is %s and cannot be cancelled", inv.InvoiceNumber, inv.Status)
	}
	inv.Status = models.InvoiceCancelled
	if err := h.store.UpdateInvoice(c.UserContext(), inv); err != nil {
		return httpx.StoreError(err, "invoice")
	}
	return c.JSON(h.response(c.UserContext(), inv))
}
