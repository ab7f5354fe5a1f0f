package availability

import (
	"context"
	"errors"
	"testing"

	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/stay"
	"github.com/pawanbhattarai/PMS/internal/store"
	"github.com/pawanbhattarai/PMS/internal/store/memstore"

	"github.com/shopspring/decimal"
)

func interval(t *testing.T, in, out string) stay.Interval {
	t.Helper()
	iv, err := stay.Parse(in, out)
	if err != nil {
		t.Fatal(err)
	}
	return iv
}

type hotel struct {
	st      *memstore.Store
	branch  uint
	room101 models.Room
	room102 models.Room
}

func newHotel(t *testing.T) hotel {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()

	b := models.Branch{Name: "Branch 1", Address: "x", Active: true}
	if err := st.CreateBranch(ctx, &b); err != nil {
		t.Fatal(err)
	}
	rt := models.RoomType{BranchID: b.ID, Name: "Standard", BaseRate: decimal.NewFromInt(100), MaxOccupancy: 2}
	if err := st.CreateRoomType(ctx, &rt); err != nil {
		t.Fatal(err)
	}
	h := hotel{st: st, branch: b.ID}
	h.room101 = models.Room{BranchID: b.ID, Number: "101", RoomTypeID: rt.ID, Status: models.RoomAvailable}
	h.room102 = models.Room{BranchID: b.ID, Number: "102", RoomTypeID: rt.ID, Status: models.RoomAvailable}
	for _, r := range []*models.Room{&h.room101, &h.room102} {
		if err := st.CreateRoom(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	return h
}

func (h hotel) book(t *testing.T, room uint, in, out string, status models.ReservationStatus) {
	t.Helper()
	iv := interval(t, in, out)
	r := models.Reservation{
		GuestID: 1, RoomID: room, BranchID: h.branch,
		CheckInDate: iv.CheckIn, CheckOutDate: iv.CheckOut,
		Adults: 1, Status: status,
	}
	if err := h.st.CreateReservation(context.Background(), &r); err != nil {
		t.Fatal(err)
	}
}

func ids(rooms []models.Room) map[uint]bool {
	m := map[uint]bool{}
	for _, r := range rooms {
		m[r.ID] = true
	}
	return m
}

func TestRoom101Scenario(t *testing.T) {
	h := newHotel(t)
	h.book(t, h.room101.ID, "2024-02-01", "2024-02-04", models.ReservationConfirmed)
	e := New(h.st)
	ctx := context.Background()

	got, err := e.Available(ctx, h.branch, interval(t, "2024-02-02", "2024-02-05"))
	if err != nil {
		t.Fatal(err)
	}
	if ids(got)[h.room101.ID] {
		t.Fatal("room 101 must be excluded for 02-02..02-05")
	}
	if !ids(got)[h.room102.ID] {
		t.Fatal("room 102 is free")
	}

	got, err = e.Available(ctx, h.branch, interval(t, "2024-02-04", "2024-02-06"))
	if err != nil {
		t.Fatal(err)
	}
	if !ids(got)[h.room101.ID] {
		t.Fatal("room 101 must be included for 02-04..02-06 (turnover)")
	}
}

func TestStatusGatesBeforeDates(t *testing.T) {
	h := newHotel(t)
	ctx := context.Background()
	if err := h.st.SetRoomStatus(ctx, h.room102.ID, models.RoomMaintenance); err != nil {
		t.Fatal(err)
	}

	got, err := New(h.st).Available(ctx, h.branch, interval(t, "2030-01-01", "2030-01-02"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != h.room101.ID {
		t.Fatalf("got %+v", got)
	}
}

func TestCancelledDoesNotBlock(t *testing.T) {
	h := newHotel(t)
	h.book(t, h.room101.ID, "2024-02-01", "2024-02-04", models.ReservationCancelled)

	got, _ := New(h.st).Available(context.Background(), h.branch, interval(t, "2024-02-02", "2024-02-03"))
	if !ids(got)[h.room101.ID] {
		t.Fatal("cancelled reservation blocked the room")
	}
}

func TestIdempotent(t *testing.T) {
	h := newHotel(t)
	h.book(t, h.room101.ID, "2024-02-01", "2024-02-04", models.ReservationCheckedIn)
	e := New(h.st)
	iv := interval(t, "2024-02-03", "2024-02-08")

	a, _ := e.Available(context.Background(), h.branch, iv)
	b, _ := e.Available(context.Background(), h.branch, iv)
	if len(a) != len(b) {
		t.Fatalf("%d != %d", len(a), len(b))
	}
	for id := range ids(a) {
		if !ids(b)[id] {
			t.Fatalf("room %d missing on second call", id)
		}
	}
}

func TestOtherBranchInvisible(t *testing.T) {
	h := newHotel(t)
	got, err := New(h.st).Available(context.Background(), h.branch+100, interval(t, "2024-02-01", "2024-02-02"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d rooms from another branch", len(got))
	}
}

func TestRoomFree(t *testing.T) {
	h := newHotel(t)
	h.book(t, h.room101.ID, "2024-02-01", "2024-02-04", models.ReservationConfirmed)
	e := New(h.st)
	ctx := context.Background()

	free, err := e.RoomFree(ctx, h.branch, h.room101.ID, interval(t, "2024-02-03", "2024-02-05"), 0)
	if err != nil || free {
		t.Fatalf("free=%v err=%v", free, err)
	}
	free, _ = e.RoomFree(ctx, h.branch, h.room101.ID, interval(t, "2024-02-04", "2024-02-05"), 0)
	if !free {
		t.Fatal("turnover day reported busy")
	}
}

// Property: a room is available iff its status is available and no
// non-cancelled reservation on it overlaps the request.
func TestFilterMatchesDefinition(t *testing.T) {
	statuses := []models.RoomStatus{models.RoomAvailable, models.RoomOccupied, models.RoomCleaning, models.RoomMaintenance}
	resStatuses := []models.ReservationStatus{models.ReservationConfirmed, models.ReservationCheckedIn, models.ReservationCheckedOut, models.ReservationCancelled}
	base := interval(t, "2024-03-10", "2024-03-20")

	var rooms []models.Room
	var reservations []models.Reservation
	id := uint(0)
	for i, st := range statuses {
		for j, rs := range resStatuses {
			id++
			rooms = append(rooms, models.Room{ID: id, Status: st})
			offset := (i*len(resStatuses) + j) % 25
			in := base.CheckIn.AddDate(0, 0, offset-5)
			reservations = append(reservations, models.Reservation{
				ID: id, RoomID: id, Status: rs, CheckInDate: in, CheckOutDate: in.AddDate(0, 0, 3),
			})
		}
	}

	got := ids(Filter(rooms, reservations, base))
	for k, room := range rooms {
		r := reservations[k]
		overlap := r.Status != models.ReservationCancelled &&
			base.Overlaps(stay.Interval{CheckIn: r.CheckInDate, CheckOut: r.CheckOutDate})
		want := room.Status == models.RoomAvailable && !overlap
		if got[room.ID] != want {
			t.Errorf("room %d (%s, res %s %s): got %v want %v",
				room.ID, room.Status, r.Status, r.CheckInDate.Format(stay.Layout), got[room.ID], want)
		}
	}
}

type failingSource struct{}

func (failingSource) ListRooms(context.Context, uint, models.RoomStatus) ([]models.Room, error) {
	return nil, errors.New("db down")
}

func (failingSource) ListReservations(context.Context, uint, store.ReservationFilter) ([]models.Reservation, error) {
	return nil, nil
}

func TestPropagatesStoreError(t *testing.T) {
	if _, err := New(failingSource{}).Available(context.Background(), 1, interval(t, "2024-01-01", "2024-01-02")); err == nil {
		t.Fatal("expected error")
	}
}
