// Package availability answers which rooms of a branch can be booked for a
// stay. Room status gates a room first; date overlap with non-cancelled
// reservations is checked second.
package availability

import (
	"context"

	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/stay"
	"github.com/pawanbhattarai/PMS/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/pawanbhattarai/PMS/internal/availability")

type Source interface {
	ListRooms(ctx context.Context, branchID uint, status models.RoomStatus) ([]models.Room, error)
	ListReservations(ctx context.Context, branchID uint, f store.ReservationFilter) ([]models.Reservation, error)
}

type Engine struct {
	src Source
}

func New(src Source) *Engine {
	return &Engine{src: src}
}

// Available returns the branch's rooms with status available and no
// overlapping non-cancelled reservation. Every call reads fresh state.
func (e *Engine) Available(ctx context.Context, branchID uint, iv stay.Interval) ([]models.Room, error) {
	ctx, span := tracer.Start(ctx, "availability.Available")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("branch.id", int64(branchID)),
		attribute.String("stay", iv.String()),
	)

	rooms, err := e.src.ListRooms(ctx, branchID, models.RoomAvailable)
	if err != nil {
		return nil, err
	}
	reservations, err := e.src.ListReservations(ctx, branchID, store.ReservationFilter{ExcludeCancelled: true})
	if err != nil {
		return nil, err
	}

	out := Filter(rooms, reservations, iv)
	span.SetAttributes(attribute.Int("rooms.available", len(out)))
	return out, nil
}

// RoomFree reports whether roomID has no non-cancelled reservation
// overlapping iv, other than the reservation identified by except.
func (e *Engine) RoomFree(ctx context.Context, branchID, roomID uint, iv stay.Interval, except uint) (bool, error) {
	reservations, err := e.src.ListReservations(ctx, branchID, store.ReservationFilter{
		RoomID:           roomID,
		ExcludeCancelled: true,
		Overlapping:      &iv,
	})
	if err != nil {
		return false, err
	}
	for _, r := range reservations {
		if r.ID != except {
			return false, nil
		}
	}
	return true, nil
}

// Filter is the pure part of Available: rooms that are available by status
// and not referenced by a conflicting reservation.
func Filter(rooms []models.Room, reservations []models.Reservation, iv stay.Interval) []models.Room {
	busy := Conflicting(reservations, iv)
	out := make([]models.Room, 0, len(rooms))
	for _, r := range rooms {
		if r.Status != models.RoomAvailable || busy[r.ID] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Conflicting returns the ids of rooms held by a non-cancelled reservation
// overlapping iv.
func Conflicting(reservations []models.Reservation, iv stay.Interval) map[uint]bool {
	busy := make(map[uint]bool)
	for _, r := range reservations {
		if r.Status == models.ReservationCancelled {
			continue
		}
		if iv.Overlaps(stay.Interval{CheckIn: stay.Day(r.CheckInDate), CheckOut: stay.Day(r.CheckOutDate)}) {
			busy[r.RoomID] = true
		}
	}
	return busy
}
