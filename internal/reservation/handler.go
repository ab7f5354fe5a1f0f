package reservation

import (
	"context"

	"github.com/pawanbhattarai/PMS/internal/apperr"
	"github.com/pawanbhattarai/PMS/internal/auth"
	"github.com/pawanbhattarai/PMS/internal/httpx"
	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/stay"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateReservationRequest struct {
	GuestID      uint             `json:"guestId" validate:"required"`
	RoomID       uint             `json:"roomId" validate:"required"`
	BranchID     *uint            `json:"branchId"`
	CheckInDate  string           `json:"checkInDate" validate:"required"`
	CheckOutDate string           `json:"checkOutDate" validate:"required"`
	Adults       int              `json:"adults" validate:"min=1"`
	Children     int              `json:"children" validate:"min=0"`
	TotalAmount  *decimal.Decimal `json:"totalAmount"`
	Notes        string           `json:"notes" validate:"max=1000"`
}

type UpdateReservationRequest struct {
	GuestID      *uint                     `json:"guestId"`
	RoomID       *uint                     `json:"roomId"`
	CheckInDate  *string                   `json:"checkInDate"`
	CheckOutDate *string                   `json:"checkOutDate"`
	Adults       *int                      `json:"adults"`
	Children     *int                      `json:"children"`
	TotalAmount  *decimal.Decimal          `json:"totalAmount"`
	PaidAmount   *decimal.Decimal          `json:"paidAmount"`
	Notes        *string                   `json:"notes" validate:"omitempty,max=1000"`
	Status       *models.ReservationStatus `json:"status"`
}

type GuestSummary struct {
	ID       uint   `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type RoomSummary struct {
	ID     uint              `json:"id"`
	Number string            `json:"number"`
	Status models.RoomStatus `json:"status"`
}

type ReservationResponse struct {
	ID             uint                     `json:"id"`
	BranchID       uint                     `json:"branchId"`
	GuestID        uint                     `json:"guestId"`
	RoomID         uint                     `json:"roomId"`
	CheckInDate    string                   `json:"checkInDate"`
	CheckOutDate   string                   `json:"checkOutDate"`
	Nights         int                      `json:"nights"`
	ActualCheckIn  *string                  `json:"actualCheckIn"`
	ActualCheckOut *string                  `json:"actualCheckOut"`
	Adults         int                      `json:"adults"`
	Children       int                      `json:"children"`
	Status         models.ReservationStatus `json:"status"`
	TotalAmount    decimal.Decimal          `json:"totalAmount"`
	PaidAmount     decimal.Decimal          `json:"paidAmount"`
	Balance        decimal.Decimal          `json:"balance"`
	Notes          string                   `json:"notes"`
	CreatedBy      uint                     `json:"createdBy"`
	CreatedAt      string                   `json:"createdAt"`
	Guest          *GuestSummary            `json:"guest,omitempty"`
	Room           *RoomSummary             `json:"room,omitempty"`
}

func NewReservationResponse(r *models.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:             r.ID,
		BranchID:       r.BranchID,
		GuestID:        r.GuestID,
		RoomID:         r.RoomID,
		CheckInDate:    r.CheckInDate.Format(stay.Layout),
		CheckOutDate:   r.CheckOutDate.Format(stay.Layout),
		Nights:         stay.Interval{CheckIn: r.CheckInDate, CheckOut: r.CheckOutDate}.Nights(),
		ActualCheckIn:  httpx.FormatOptionalTime(r.ActualCheckIn),
		ActualCheckOut: httpx.FormatOptionalTime(r.ActualCheckOut),
		Adults:         r.Adults,
		Children:       r.Children,
		Status:         r.Status,
		TotalAmount:    r.TotalAmount,
		PaidAmount:     r.PaidAmount,
		Balance:        r.Balance(),
		Notes:          r.Notes,
		CreatedBy:      r.CreatedBy,
		CreatedAt:      httpx.FormatTime(r.CreatedAt),
	}
}

// respond enriches reservations with their guest and room. Lookups that fail
// leave the summary out; the reservation itself is still returned.
func (s *Service) respond(ctx context.Context, rs []models.Reservation) []ReservationResponse {
	guests := map[uint]*GuestSummary{}
	rooms := map[uint]*RoomSummary{}
	out := make([]ReservationResponse, 0, len(rs))
	for i := range rs {
		res := NewReservationResponse(&rs[i])

		g, ok := guests[res.GuestID]
		if !ok {
			if guest, err := s.store.GetGuest(ctx, res.GuestID); err == nil {
				g = &GuestSummary{ID: guest.ID, FullName: guest.FullName(), Email: guest.Email, Phone: guest.Phone}
			}
			guests[res.GuestID] = g
		}
		res.Guest = g

		rm, ok := rooms[res.RoomID]
		if !ok {
			if room, err := s.store.GetRoom(ctx, res.RoomID); err == nil {
				rm = &RoomSummary{ID: room.ID, Number: room.Number, Status: room.Status}
			}
			rooms[res.RoomID] = rm
		}
		res.Room = rm

		out = append(out, res)
	}
	return out
}

func (s *Service) respondOne(ctx context.Context, r *models.Reservation) ReservationResponse {
	return s.respond(ctx, []models.Reservation{*r})[0]
}

// GET /api/reservations?branchId&status
func ListHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		branchID, err := httpx.BranchQuery(c)
		if err != nil {
			return err
		}
		rs, err := svc.List(c.UserContext(), actx, branchID, models.ReservationStatus(c.Query("status")))
		if err != nil {
			return err
		}
		return c.JSON(svc.respond(c.UserContext(), rs))
	}
}

// POST /api/reservations
func CreateHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		var body CreateReservationRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		checkIn, err := httpx.ParseDate("checkInDate", body.CheckInDate)
		if err != nil {
			return err
		}
		checkOut, err := httpx.ParseDate("checkOutDate", body.CheckOutDate)
		if err != nil {
			return err
		}

		r, err := svc.Create(c.UserContext(), actx, CreateInput{
			GuestID:     body.GuestID,
			RoomID:      body.RoomID,
			BranchID:    body.BranchID,
			CheckIn:     checkIn,
			CheckOut:    checkOut,
			Adults:      body.Adults,
			Children:    body.Children,
			TotalAmount: body.TotalAmount,
			Notes:       body.Notes,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(svc.respondOne(c.UserContext(), r))
	}
}

// GET /api/reservations/:id
func GetHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		r, err := svc.Get(c.UserContext(), actx, id)
		if err != nil {
			return err
		}
		return c.JSON(svc.respondOne(c.UserContext(), r))
	}
}

// PUT /api/reservations/:id
func UpdateHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateReservationRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		in := UpdateInput{
			GuestID:     body.GuestID,
			RoomID:      body.RoomID,
			Adults:      body.Adults,
			Children:    body.Children,
			TotalAmount: body.TotalAmount,
			PaidAmount:  body.PaidAmount,
			Notes:       body.Notes,
			Status:      body.Status,
		}
		if in.CheckIn, err = httpx.ParseOptionalDate("checkInDate", body.CheckInDate); err != nil {
			return err
		}
		if in.CheckOut, err = httpx.ParseOptionalDate("checkOutDate", body.CheckOutDate); err != nil {
			return err
		}
		if in.Status != nil && !in.Status.Valid() {
			return apperr.Field("status", "must be one of confirmed, checked_in, checked_out, cancelled")
		}

		r, err := svc.Update(c.UserContext(), actx, id, in)
		if err != nil {
			return err
		}
		return c.JSON(svc.respondOne(c.UserContext(), r))
	}
}

// GET /api/reservations/quote?roomId&checkIn&checkOut
func QuoteHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		roomID, err := httpx.QueryUint(c, "roomId")
		if err != nil {
			return err
		}
		if roomID == nil {
			return apperr.Field("roomId", "is required")
		}
		iv, err := httpx.StayQuery(c)
		if err != nil {
			return err
		}
		q, err := svc.Quote(c.UserContext(), actx, *roomID, iv)
		if err != nil {
			return err
		}
		return c.JSON(q)
	}
}

// GET /api/guests/:id/reservations
func GuestHistoryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		branchID, err := httpx.BranchQuery(c)
		if err != nil {
			return err
		}
		rs, err := svc.ListByGuest(c.UserContext(), actx, id, branchID)
		if err != nil {
			return err
		}
		return c.JSON(svc.respond(c.UserContext(), rs))
	}
}
