// Package dashboard serves the front-desk summary for one branch.
package dashboard

import (
	"context"
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
)

type Source interface {
	ListRooms(ctx context.Context, branchID uint, status models.RoomStatus) ([]models.Room, error)
	ListReservations(ctx context.Context, branchID uint, f store.ReservationFilter) ([]models.Reservation, error)
}

type Stats struct {
	TotalRooms int             `json:"totalRooms"`
	Occupied   int             `json:"occupied"`
	CheckIns   int             `json:"checkins"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// ComputeStats counts today's check-ins and sums the value of reservations
// booked today. Cancelled reservations count for neither.
func ComputeStats(rooms []models.Room, reservations []models.Reservation, now time.Time) Stats {
	today := stay.Day(now.UTC())
	s := Stats{TotalRooms: len(rooms), Revenue: decimal.Zero}
	for _, r := range rooms {
		if r.Status == models.RoomOccupied {
			s.Occupied++
		}
	}
	for _, r := range reservations {
		if r.Status == models.ReservationCancelled {
			continue
		}
		if stay.Day(r.CheckInDate).Equal(today) {
			s.CheckIns++
		}
		if stay.Day(r.CreatedAt.UTC()).Equal(today) {
			s.Revenue = s.Revenue.Add(r.TotalAmount)
		}
	}
	return s
}

// GET /api/dashboard/stats?branchId
func StatsHandler(src Source, now func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		requested, err := httpx.BranchQuery(c)
		if err != nil {
			return err
		}
		scope := access.ResolveScope(actx, requested)
		if scope == nil {
			return c.JSON(ComputeStats(nil, nil, now()))
		}

		rooms, err := src.ListRooms(c.UserContext(), *scope, "")
		if err != nil {
			return apperr.Wrap(err, "list rooms")
		}
		reservations, err := src.ListReservations(c.UserContext(), *scope, store.ReservationFilter{ExcludeCancelled: true})
		if err != nil {
			return apperr.Wrap(err, "list reservations")
		}
		return c.JSON(ComputeStats(rooms, reservations, now()))
	}
}
