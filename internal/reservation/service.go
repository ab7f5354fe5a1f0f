// Package reservation owns the booking lifecycle: creating stays, changing
// them and moving them through confirmed, checked_in, checked_out and
// cancelled.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/pawanbhattarai/PMS/internal/access"
	"github.com/pawanbhattarai/PMS/internal/apperr"
	"github.com/pawanbhattarai/PMS/internal/availability"
	"github.com/pawanbhattarai/PMS/internal/lock"
	"github.com/pawanbhattarai/PMS/internal/logging"
	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/stay"
	"github.com/pawanbhattarai/PMS/internal/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const lockTTL = 10 * time.Second

var tracer = otel.Tracer("github.com/pawanbhattarai/PMS/internal/reservation")

type Repository interface {
	store.ReservationStore
	store.RoomStore
	store.GuestStore
}

type Service struct {
	store  Repository
	engine *availability.Engine
	locker lock.Locker
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewService(st Repository, locker lock.Locker, log logrus.FieldLogger) *Service {
	return &Service{
		store:  st,
		engine: availability.New(st),
		locker: locker,
		log:    log,
		now:    time.Now,
	}
}

type CreateInput struct {
	GuestID     uint
	RoomID      uint
	BranchID    *uint
	CheckIn     time.Time
	CheckOut    time.Time
	Adults      int
	Children    int
	TotalAmount *decimal.Decimal
	Notes       string
}

// UpdateInput carries a partial change; nil fields are left as they are.
type UpdateInput struct {
	GuestID     *uint
	RoomID      *uint
	CheckIn     *time.Time
	CheckOut    *time.Time
	Adults      *int
	Children    *int
	TotalAmount *decimal.Decimal
	PaidAmount  *decimal.Decimal
	Notes       *string
	Status      *models.ReservationStatus
}

func (in UpdateInput) changesStay() bool {
	return in.RoomID != nil || in.CheckIn != nil || in.CheckOut != nil || in.Adults != nil || in.Children != nil
}

type Quote struct {
	RoomID   uint            `json:"roomId"`
	CheckIn  string          `json:"checkInDate"`
	CheckOut string          `json:"checkOutDate"`
	Nights   int             `json:"nights"`
	Rate     decimal.Decimal `json:"rate"`
	Total    decimal.Decimal `json:"total"`
}

// Price is base rate times nights, partial days rounded up.
func Price(rt *models.RoomType, iv stay.Interval) decimal.Decimal {
	return rt.BaseRate.Mul(decimal.NewFromInt(int64(iv.Nights()))).Round(2)
}

func (s *Service) Create(ctx context.Context, actx access.Context, in CreateInput) (*models.Reservation, error) {
	ctx, span := tracer.Start(ctx, "reservation.Create")
	defer span.End()

	if err := access.Require(actx, access.ManageReservations); err != nil {
		return nil, err
	}
	branchID, err := access.WriteScope(actx, in.BranchID)
	if err != nil {
		return nil, err
	}
	iv, err := stay.New(in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, apperr.Field("checkOutDate", "must be after checkInDate")
	}
	if in.Adults < 1 {
		return nil, apperr.Field("adults", "must be at least 1")
	}
	if in.Children < 0 {
		return nil, apperr.Field("children", "must not be negative")
	}
	if in.TotalAmount != nil && in.TotalAmount.IsNegative() {
		return nil, apperr.Field("totalAmount", "must not be negative")
	}
	span.SetAttributes(
		attribute.Int64("branch.id", int64(branchID)),
		attribute.Int64("room.id", int64(in.RoomID)),
		attribute.String("stay", iv.String()),
	)

	if _, err := s.guest(ctx, in.GuestID); err != nil {
		return nil, err
	}
	room, rt, err := s.roomInBranch(ctx, in.RoomID, branchID)
	if err != nil {
		return nil, err
	}
	if room.Status != models.RoomAvailable {
		return nil, apperr.Validationf("room %s is not available (%s)", room.Number, room.Status)
	}
	if in.Adults+in.Children > rt.MaxOccupancy {
		return nil, apperr.Validationf("room %s holds at most %d guests", room.Number, rt.MaxOccupancy)
	}

	total := Price(rt, iv)
	if in.TotalAmount != nil && in.TotalAmount.IsPositive() {
		total = *in.TotalAmount
	}

	r := &models.Reservation{
		GuestID:      in.GuestID,
		RoomID:       room.ID,
		BranchID:     branchID,
		CheckInDate:  iv.CheckIn,
		CheckOutDate: iv.CheckOut,
		Adults:       in.Adults,
		Children:     in.Children,
		Status:       models.ReservationConfirmed,
		TotalAmount:  total,
		PaidAmount:   decimal.Zero,
		Notes:        in.Notes,
		CreatedBy:    actx.UserID,
	}

	release, err := s.lockRooms(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	free, err := s.engine.RoomFree(ctx, branchID, room.ID, iv, 0)
	if err != nil {
		return nil, apperr.Wrap(err, "check availability")
	}
	if !free {
		return nil, conflict(room, iv)
	}
	if err := s.store.CreateReservation(ctx, r); err != nil {
		if errors.Is(err, store.ErrOverlap) {
			return nil, conflict(room, iv)
		}
		return nil, apperr.Wrap(err, "create reservation")
	}

	s.log.WithFields(logrus.Fields{
		"reservation_id": r.ID,
		"room_id":        r.RoomID,
		"branch_id":      r.BranchID,
		"stay":           iv.String(),
		"user_id":        actx.UserID,
	}).Info("reservation created")
	return r, nil
}

func (s *Service) Quote(ctx context.Context, actx access.Context, roomID uint, iv stay.Interval) (*Quote, error) {
	if err := access.Require(actx, access.ViewReservations); err != nil {
		return nil, err
	}
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, notFound(err, "room", roomID)
	}
	if err := access.CheckBranch(actx, room.BranchID); err != nil {
		return nil, err
	}
	rt, err := s.store.GetRoomType(ctx, room.RoomTypeID)
	if err != nil {
		return nil, notFound(err, "room type", room.RoomTypeID)
	}
	return &Quote{
		RoomID:   room.ID,
		CheckIn:  iv.CheckIn.Format(stay.Layout),
		CheckOut: iv.CheckOut.Format(stay.Layout),
		Nights:   iv.Nights(),
		Rate:     rt.BaseRate,
		Total:    Price(rt, iv),
	}, nil
}

func (s *Service) Get(ctx context.Context, actx access.Context, id uint) (*models.Reservation, error) {
	if err := access.Require(actx, access.ViewReservations); err != nil {
		return nil, err
	}
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, notFound(err, "reservation", id)
	}
	if err := access.CheckBranch(actx, r.BranchID); err != nil {
		return nil, err
	}
	return r, nil
}

// List returns the reservations of the resolved branch, or none when no
// branch is in scope.
func (s *Service) List(ctx context.Context, actx access.Context, branchID *uint, status models.ReservationStatus) ([]models.Reservation, error) {
	if err := access.Require(actx, access.ViewReservations); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, apperr.Field("status", "unknown reservation status")
	}
	scope := access.ResolveScope(actx, branchID)
	if scope == nil {
		return []models.Reservation{}, nil
	}
	out, err := s.store.ListReservations(ctx, *scope, store.ReservationFilter{Status: status})
	if err != nil {
		return nil, apperr.Wrap(err, "list reservations")
	}
	return out, nil
}

// ListByGuest is a guest's stay history inside the resolved branch.
func (s *Service) ListByGuest(ctx context.Context, actx access.Context, guestID uint, branchID *uint) ([]models.Reservation, error) {
	if err := access.Require(actx, access.ViewReservations); err != nil {
		return nil, err
	}
	if _, err := s.guest(ctx, guestID); err != nil {
		return nil, err
	}
	scope := access.ResolveScope(actx, branchID)
	if scope == nil {
		return []models.Reservation{}, nil
	}
	out, err := s.store.ListReservations(ctx, *scope, store.ReservationFilter{GuestID: guestID})
	if err != nil {
		return nil, apperr.Wrap(err, "list guest reservations")
	}
	return out, nil
}

func (s *Service) UpdateStatus(ctx context.Context, actx access.Context, id uint, status models.ReservationStatus) (*models.Reservation, error) {
	return s.Update(ctx, actx, id, UpdateInput{Status: &status})
}

// Update applies a partial change. Status changes follow the transition
// table; stay changes (room, dates, party size) are re-validated for
// availability under the room lock exactly like a create.
func (s *Service) Update(ctx context.Context, actx access.Context, id uint, in UpdateInput) (*models.Reservation, error) {
	ctx, span := tracer.Start(ctx, "reservation.Update",
		trace.WithAttributes(attribute.Int64("reservation.id", int64(id))))
	defer span.End()

	if err := access.Require(actx, access.ManageReservations); err != nil {
		return nil, err
	}
	current, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, notFound(err, "reservation", id)
	}
	if err := access.CheckBranch(actx, current.BranchID); err != nil {
		return nil, err
	}

	rooms := []uint{current.RoomID}
	if in.RoomID != nil && *in.RoomID != current.RoomID {
		rooms = append(rooms, *in.RoomID)
	}
	release, err := s.lockRooms(ctx, rooms...)
	if err != nil {
		return nil, err
	}
	defer release()

	// re-read under the lock
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, notFound(err, "reservation", id)
	}
	from, fromRoom := r.Status, r.RoomID

	if in.Status != nil && *in.Status != r.Status {
		if !in.Status.Valid() {
			return nil, apperr.Field("status", "unknown reservation status")
		}
		if !ValidTransition(r.Status, *in.Status) {
			return nil, apperr.InvalidTransitionf("reservation %d cannot move from %s to %s", r.ID, r.Status, *in.Status)
		}
	}
	if r.Status.Terminal() && (in.changesStay() || in.GuestID != nil || in.TotalAmount != nil) {
		return nil, apperr.InvalidTransitionf("reservation %d is %s and can no longer be changed", r.ID, r.Status)
	}

	if in.GuestID != nil && *in.GuestID != r.GuestID {
		if _, err := s.guest(ctx, *in.GuestID); err != nil {
			return nil, err
		}
		r.GuestID = *in.GuestID
	}
	if in.changesStay() {
		if err := s.applyStayChange(ctx, r, in); err != nil {
			return nil, err
		}
	}
	if in.TotalAmount != nil {
		if in.TotalAmount.IsNegative() {
			return nil, apperr.Field("totalAmount", "must not be negative")
		}
		r.TotalAmount = *in.TotalAmount
	}
	if in.PaidAmount != nil {
		if in.PaidAmount.IsNegative() {
			return nil, apperr.Field("paidAmount", "must not be negative")
		}
		r.PaidAmount = *in.PaidAmount
	}
	if in.Notes != nil {
		r.Notes = *in.Notes
	}

	now := s.now()
	if in.Status != nil && *in.Status != from {
		r.Status = *in.Status
		switch r.Status {
		case models.ReservationCheckedIn:
			r.ActualCheckIn = &now
		case models.ReservationCheckedOut:
			r.ActualCheckOut = &now
		}
	}

	if err := s.store.UpdateReservation(ctx, r); err != nil {
		if errors.Is(err, store.ErrOverlap) {
			return nil, apperr.Conflictf("room is already reserved between %s and %s",
				r.CheckInDate.Format(stay.Layout), r.CheckOutDate.Format(stay.Layout))
		}
		return nil, notFound(err, "reservation", id)
	}

	if r.RoomID != fromRoom && from == models.ReservationCheckedIn {
		s.moveGuest(ctx, r, fromRoom)
	}
	if r.Status != from {
		s.afterTransition(ctx, r, from)
		s.log.WithFields(logrus.Fields{
			"reservation_id": r.ID,
			"from":           from,
			"to":             r.Status,
			"user_id":        actx.UserID,
		}).Info("reservation status changed")
	}
	return r, nil
}

func (s *Service) applyStayChange(ctx context.Context, r *models.Reservation, in UpdateInput) error {
	checkIn, checkOut := r.CheckInDate, r.CheckOutDate
	if in.CheckIn != nil {
		checkIn = *in.CheckIn
	}
	if in.CheckOut != nil {
		checkOut = *in.CheckOut
	}
	iv, err := stay.New(checkIn, checkOut)
	if err != nil {
		return apperr.Field("checkOutDate", "must be after checkInDate")
	}
	if in.Adults != nil {
		r.Adults = *in.Adults
	}
	if in.Children != nil {
		r.Children = *in.Children
	}
	if r.Adults < 1 {
		return apperr.Field("adults", "must be at least 1")
	}
	if r.Children < 0 {
		return apperr.Field("children", "must not be negative")
	}

	roomID := r.RoomID
	if in.RoomID != nil {
		roomID = *in.RoomID
	}
	room, rt, err := s.roomInBranch(ctx, roomID, r.BranchID)
	if err != nil {
		return err
	}
	if roomID != r.RoomID && room.Status == models.RoomMaintenance {
		return apperr.Validationf("room %s is under maintenance", room.Number)
	}
	// a guest already in house can only move into a ready room
	if roomID != r.RoomID && r.Status == models.ReservationCheckedIn && room.Status != models.RoomAvailable {
		return apperr.Validationf("room %s is %s", room.Number, room.Status)
	}
	if r.Adults+r.Children > rt.MaxOccupancy {
		return apperr.Validationf("room %s holds at most %d guests", room.Number, rt.MaxOccupancy)
	}

	if r.Status != models.ReservationCancelled {
		free, err := s.engine.RoomFree(ctx, r.BranchID, roomID, iv, r.ID)
		if err != nil {
			return apperr.Wrap(err, "check availability")
		}
		if !free {
			return conflict(room, iv)
		}
	}
	r.RoomID = roomID
	r.CheckInDate, r.CheckOutDate = iv.CheckIn, iv.CheckOut
	return nil
}

// afterTransition moves the room along with the stay and counts completed
// stays. The reservation is already saved, so failures here are logged
// rather than returned.
func (s *Service) afterTransition(ctx context.Context, r *models.Reservation, from models.ReservationStatus) {
	var roomStatus models.RoomStatus
	switch {
	case r.Status == models.ReservationCheckedIn:
		roomStatus = models.RoomOccupied
	case r.Status == models.ReservationCheckedOut:
		roomStatus = models.RoomCleaning
	case r.Status == models.ReservationCancelled && from == models.ReservationCheckedIn:
		roomStatus = models.RoomCleaning
	}
	if roomStatus != "" {
		if err := s.store.SetRoomStatus(ctx, r.RoomID, roomStatus); err != nil {
			logging.LogError(s.log, "reservation", "afterTransition", "set room status", r.RoomID, err)
		}
	}
	if r.Status == models.ReservationCheckedOut {
		if err := s.store.IncrementGuestStays(ctx, r.GuestID); err != nil {
			logging.LogError(s.log, "reservation", "afterTransition", "increment guest stays", r.GuestID, err)
		}
	}
}

// moveGuest follows an in-house guest to another room: the room they left
// needs cleaning and the new one is occupied unless the same update also
// ended the stay.
func (s *Service) moveGuest(ctx context.Context, r *models.Reservation, fromRoom uint) {
	if err := s.store.SetRoomStatus(ctx, fromRoom, models.RoomCleaning); err != nil {
		logging.LogError(s.log, "reservation", "moveGuest", "release old room", fromRoom, err)
	}
	if r.Status != models.ReservationCheckedIn {
		return
	}
	if err := s.store.SetRoomStatus(ctx, r.RoomID, models.RoomOccupied); err != nil {
		logging.LogError(s.log, "reservation", "moveGuest", "occupy new room", r.RoomID, err)
	}
}

func (s *Service) guest(ctx context.Context, id uint) (*models.Guest, error) {
	if id == 0 {
		return nil, apperr.Field("guestId", "is required")
	}
	g, err := s.store.GetGuest(ctx, id)
	if err != nil {
		return nil, notFound(err, "guest", id)
	}
	return g, nil
}

func (s *Service) roomInBranch(ctx context.Context, roomID, branchID uint) (*models.Room, *models.RoomType, error) {
	if roomID == 0 {
		return nil, nil, apperr.Field("roomId", "is required")
	}
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, nil, notFound(err, "room", roomID)
	}
	if room.BranchID != branchID {
		return nil, nil, apperr.Validationf("room %d does not belong to branch %d", roomID, branchID)
	}
	rt, err := s.store.GetRoomType(ctx, room.RoomTypeID)
	if err != nil {
		return nil, nil, notFound(err, "room type", room.RoomTypeID)
	}
	return room, rt, nil
}

// lockRooms takes the booking lock of every room in ascending id order and
// returns a func releasing them all.
func (s *Service) lockRooms(ctx context.Context, ids ...uint) (func(), error) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var leases []lock.Lease
	release := func() {
		for i := len(leases) - 1; i >= 0; i-- {
			if err := leases[i].Release(context.WithoutCancel(ctx)); err != nil {
				s.log.WithError(err).Warn("release booking lock")
			}
		}
	}
	for _, id := range ids {
		l, err := s.locker.Obtain(ctx, fmt.Sprintf("booking:room:%d", id), lockTTL)
		if err != nil {
			release()
			if errors.Is(err, lock.ErrNotObtained) {
				return nil, apperr.Conflictf("room %d is being booked by another request, try again", id)
			}
			return nil, apperr.Wrap(err, "obtain booking lock")
		}
		leases = append(leases, l)
	}
	return release, nil
}

func conflict(room *models.Room, iv stay.Interval) error {
	return apperr.Conflictf("room %s is already reserved between %s and %s",
		room.Number, iv.CheckIn.Format(stay.Layout), iv.CheckOut.Format(stay.Layout))
}

func notFound(err error, what string, id uint) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFoundf("%s %d not found", what, id)
	}
	return apperr.Wrap(err, "load "+what)
}
