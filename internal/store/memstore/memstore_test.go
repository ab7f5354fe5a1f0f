package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/store"
	"github.com/pawanbhattarai/PMS/internal/stay"

	"github.com/shopspring/decimal"
)

func day(s string) time.Time {
	t, err := stay.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func reservation(roomID uint, in, out string) *models.Reservation {
	return &models.Reservation{
		GuestID:      1,
		RoomID:       roomID,
		BranchID:     1,
		CheckInDate:  day(in),
		CheckOutDate: day(out),
		Adults:       1,
		Status:       models.ReservationConfirmed,
	}
}

func TestCreateReservationRejectsOverlap(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.CreateReservation(ctx, reservation(7, "2024-02-01", "2024-02-04")); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateReservation(ctx, reservation(7, "2024-02-03", "2024-02-05")); !errors.Is(err, store.ErrOverlap) {
		t.Fatalf("overlap: err = %v", err)
	}
	if err := s.CreateReservation(ctx, reservation(7, "2024-02-04", "2024-02-06")); err != nil {
		t.Fatalf("turnover: %v", err)
	}
	if err := s.CreateReservation(ctx, reservation(8, "2024-02-01", "2024-02-04")); err != nil {
		t.Fatalf("other room: %v", err)
	}
}

func TestCancelledStayFreesRoom(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := reservation(3, "2024-03-01", "2024-03-05")
	if err := s.CreateReservation(ctx, r); err != nil {
		t.Fatal(err)
	}
	r.Status = models.ReservationCancelled
	if err := s.UpdateReservation(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateReservation(ctx, reservation(3, "2024-03-02", "2024-03-04")); err != nil {
		t.Fatalf("cancelled stay still blocks: %v", err)
	}
}

func TestUpdateReservationIgnoresItself(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := reservation(3, "2024-03-01", "2024-03-05")
	if err := s.CreateReservation(ctx, r); err != nil {
		t.Fatal(err)
	}
	r.CheckOutDate = day("2024-03-06")
	if err := s.UpdateReservation(ctx, r); err != nil {
		t.Fatalf("extending own stay: %v", err)
	}
}

func TestConcurrentCreateSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := New()

	const n = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, lost int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.CreateReservation(ctx, reservation(1, "2024-05-01", "2024-05-03"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, store.ErrOverlap):
				lost++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || lost != n-1 {
		t.Fatalf("ok=%d lost=%d", ok, lost)
	}
}

func TestListReservationsFilter(t *testing.T) {
	ctx := context.Background()
	s := New()

	a := reservation(1, "2024-02-01", "2024-02-04")
	b := reservation(2, "2024-02-10", "2024-02-12")
	b.GuestID = 9
	if err := s.CreateReservation(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateReservation(ctx, b); err != nil {
		t.Fatal(err)
	}

	iv, _ := stay.Parse("2024-02-03", "2024-02-11")
	got, _ := s.ListReservations(ctx, 1, store.ReservationFilter{Overlapping: &iv})
	if len(got) != 2 {
		t.Fatalf("overlapping: got %d", len(got))
	}
	got, _ = s.ListReservations(ctx, 1, store.ReservationFilter{GuestID: 9})
	if len(got) != 1 || got[0].ID != b.ID {
		t.Fatalf("by guest: %+v", got)
	}
	got, _ = s.ListReservations(ctx, 2, store.ReservationFilter{})
	if len(got) != 0 {
		t.Fatalf("other branch leaked %d rows", len(got))
	}
}

func TestDuplicates(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.CreateUser(ctx, &models.User{Email: "a@x.io"}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateUser(ctx, &models.User{Email: "A@x.io"}); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("email: err = %v", err)
	}
	if err := s.CreateRoom(ctx, &models.Room{BranchID: 1, Number: "101"}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateRoom(ctx, &models.Room{BranchID: 1, Number: "101"}); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("room: err = %v", err)
	}
	if err := s.CreateRoom(ctx, &models.Room{BranchID: 2, Number: "101"}); err != nil {
		t.Fatalf("same number in another branch: %v", err)
	}
}

func TestAdjustStock(t *testing.T) {
	ctx := context.Background()
	s := New()

	it := &models.InventoryItem{BranchID: 1, CurrentStock: decimal.NewFromInt(5)}
	if err := s.CreateInventoryItem(ctx, it); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AdjustStock(ctx, it.ID, decimal.NewFromInt(-6), nil); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("err = %v", err)
	}
	now := time.Now()
	got, err := s.AdjustStock(ctx, it.ID, decimal.NewFromInt(10), &now)
	if err != nil {
		t.Fatal(err)
	}
	if !got.CurrentStock.Equal(decimal.NewFromInt(15)) || got.LastRestocked == nil {
		t.Fatalf("got %+v", got)
	}
}

func TestPayInvoiceCreditsReservation(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := reservation(1, "2024-02-01", "2024-02-03")
	if err := s.CreateReservation(ctx, r); err != nil {
		t.Fatal(err)
	}
	inv := &models.Invoice{InvoiceNumber: "INV-1", ReservationID: &r.ID, BranchID: 1,
		Total: decimal.RequireFromString("220.00"), Status: models.InvoicePending}
	if err := s.CreateInvoice(ctx, inv); err != nil {
		t.Fatal(err)
	}
	inv.Status = models.InvoicePaid
	if err := s.PayInvoice(ctx, inv); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetReservation(ctx, r.ID)
	if !got.PaidAmount.Equal(decimal.RequireFromString("220")) {
		t.Fatalf("paid = %s", got.PaidAmount)
	}

	if err := s.PayInvoice(ctx, inv); !errors.Is(err, store.ErrNotPending) {
		t.Fatalf("second payment err = %v", err)
	}
	missing := &models.Invoice{ID: 999, Status: models.InvoicePaid}
	if err := s.PayInvoice(ctx, missing); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing invoice err = %v", err)
	}
}

func TestConcurrentPayCreditsOnce(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := reservation(1, "2024-02-01", "2024-02-03")
	if err := s.CreateReservation(ctx, r); err != nil {
		t.Fatal(err)
	}
	inv := &models.Invoice{InvoiceNumber: "INV-2", ReservationID: &r.ID, BranchID: 1,
		Total: decimal.NewFromInt(100), Status: models.InvoicePending}
	if err := s.CreateInvoice(ctx, inv); err != nil {
		t.Fatal(err)
	}

	const n = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		ok, stale int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pay, err := s.GetInvoice(ctx, inv.ID)
			if err != nil {
				t.Error(err)
				return
			}
			pay.Status = models.InvoicePaid
			err = s.PayInvoice(ctx, pay)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, store.ErrNotPending):
				stale++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || stale != n-1 {
		t.Fatalf("ok=%d stale=%d", ok, stale)
	}
	got, _ := s.GetReservation(ctx, r.ID)
	if !got.PaidAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("paid = %s", got.PaidAmount)
	}
}
