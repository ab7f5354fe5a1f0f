package gormstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pawanbhattarai/PMS/internal/config"
	"github.com/pawanbhattarai/PMS/internal/database"
	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/stay"
	"github.com/pawanbhattarai/PMS/internal/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(&config.Config{
		DatabaseDriver: "sqlite",
		DatabaseDSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	if err := database.Migrate(db, log); err != nil {
		t.Fatal(err)
	}
	return New(db)
}

type fixture struct {
	branch models.Branch
	rt     models.RoomType
	room   models.Room
	guest  models.Guest
}

func seed(t *testing.T, s *Store) fixture {
	t.Helper()
	ctx := context.Background()
	f := fixture{
		branch: models.Branch{Name: "Downtown Hotel", Address: "1 Main St", Active: true},
	}
	if err := s.CreateBranch(ctx, &f.branch); err != nil {
		t.Fatal(err)
	}
	f.rt = models.RoomType{BranchID: f.branch.ID, Name: "Standard", BaseRate: decimal.NewFromInt(100), MaxOccupancy: 2}
	if err := s.CreateRoomType(ctx, &f.rt); err != nil {
		t.Fatal(err)
	}
	f.room = models.Room{BranchID: f.branch.ID, Number: "101", Floor: 1, RoomTypeID: f.rt.ID, Status: models.RoomAvailable}
	if err := s.CreateRoom(ctx, &f.room); err != nil {
		t.Fatal(err)
	}
	f.guest = models.Guest{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "+16502530000"}
	if err := s.CreateGuest(ctx, &f.guest); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f fixture) reservation(in, out string) *models.Reservation {
	iv, err := stay.Parse(in, out)
	if err != nil {
		panic(err)
	}
	return &models.Reservation{
		GuestID:      f.guest.ID,
		RoomID:       f.room.ID,
		BranchID:     f.branch.ID,
		CheckInDate:  iv.CheckIn,
		CheckOutDate: iv.CheckOut,
		Adults:       1,
		Status:       models.ReservationConfirmed,
		TotalAmount:  decimal.NewFromInt(300),
		CreatedBy:    1,
	}
}

func TestReservationOverlap(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	f := seed(t, s)

	first := f.reservation("2024-02-01", "2024-02-04")
	if err := s.CreateReservation(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateReservation(ctx, f.reservation("2024-02-02", "2024-02-05")); !errors.Is(err, store.ErrOverlap) {
		t.Fatalf("overlap: err = %v", err)
	}
	if err := s.CreateReservation(ctx, f.reservation("2024-02-04", "2024-02-06")); err != nil {
		t.Fatalf("turnover rejected: %v", err)
	}

	first.Status = models.ReservationCancelled
	if err := s.UpdateReservation(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateReservation(ctx, f.reservation("2024-02-01", "2024-02-03")); err != nil {
		t.Fatalf("cancelled stay still blocks: %v", err)
	}
}

func TestReservationRoundTripKeepsDates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	f := seed(t, s)

	r := f.reservation("2024-02-01", "2024-02-04")
	if err := s.CreateReservation(ctx, r); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetReservation(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CheckInDate.Format(stay.Layout) != "2024-02-01" || got.CheckOutDate.Format(stay.Layout) != "2024-02-04" {
		t.Fatalf("dates changed: %s %s", got.CheckInDate, got.CheckOutDate)
	}
	if !got.TotalAmount.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("total = %s", got.TotalAmount)
	}
}

func TestConcurrentCreateSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	f := seed(t, s)

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		overlap int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.CreateReservation(ctx, f.reservation("2024-06-01", "2024-06-05"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, store.ErrOverlap):
				overlap++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || overlap != n-1 {
		t.Fatalf("ok=%d overlap=%d", ok, overlap)
	}
}

func TestListReservationsOverlapping(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	f := seed(t, s)

	for _, r := range []*models.Reservation{
		f.reservation("2024-02-01", "2024-02-04"),
		f.reservation("2024-02-10", "2024-02-12"),
	} {
		if err := s.CreateReservation(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	iv, _ := stay.Parse("2024-02-04", "2024-02-10")
	got, err := s.ListReservations(ctx, f.branch.ID, store.ReservationFilter{Overlapping: &iv})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("turnover days counted as overlap: %d rows", len(got))
	}
	iv, _ = stay.Parse("2024-02-03", "2024-02-11")
	got, _ = s.ListReservations(ctx, f.branch.ID, store.ReservationFilter{Overlapping: &iv})
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
}

func TestDuplicateAndNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	f := seed(t, s)

	dup := models.Room{BranchID: f.branch.ID, Number: "101", RoomTypeID: f.rt.ID, Status: models.RoomAvailable}
	if err := s.CreateRoom(ctx, &dup); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("duplicate room: err = %v", err)
	}
	if _, err := s.GetRoom(ctx, 9999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing room: err = %v", err)
	}
	if err := s.SetRoomStatus(ctx, 9999, models.RoomCleaning); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing room status: err = %v", err)
	}
	if err := s.UpdateGuest(ctx, &models.Guest{ID: 9999, FirstName: "x"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing guest: err = %v", err)
	}
}

func TestGuestsSearchAndStays(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	f := seed(t, s)

	got, err := s.ListGuests(ctx, "ada love")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("search by full name: %d rows", len(got))
	}
	if got, _ := s.ListGuests(ctx, "nobody"); len(got) != 0 {
		t.Fatalf("unexpected match: %+v", got)
	}

	if err := s.IncrementGuestStays(ctx, f.guest.ID); err != nil {
		t.Fatal(err)
	}
	g, _ := s.GetGuest(ctx, f.guest.ID)
	if g.TotalStays != 1 {
		t.Fatalf("TotalStays = %d", g.TotalStays)
	}
}

func TestAdjustStockAndPayInvoice(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	f := seed(t, s)

	cat := models.InventoryCategory{BranchID: f.branch.ID, Name: "Linen", Type: models.HotelSupplies}
	if err := s.CreateInventoryCategory(ctx, &cat); err != nil {
		t.Fatal(err)
	}
	item := models.InventoryItem{BranchID: f.branch.ID, CategoryID: cat.ID, Name: "Towel", Unit: "pcs",
		CurrentStock: decimal.NewFromInt(4), MinStock: decimal.NewFromInt(2), CostPerUnit: decimal.NewFromInt(3)}
	if err := s.CreateInventoryItem(ctx, &item); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AdjustStock(ctx, item.ID, decimal.NewFromInt(-5), nil); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("err = %v", err)
	}
	now := time.Now()
	got, err := s.AdjustStock(ctx, item.ID, decimal.NewFromInt(6), &now)
	if err != nil {
		t.Fatal(err)
	}
	if !got.CurrentStock.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("stock = %s", got.CurrentStock)
	}

	r := f.reservation("2024-02-01", "2024-02-03")
	if err := s.CreateReservation(ctx, r); err != nil {
		t.Fatal(err)
	}
	inv := models.Invoice{
		InvoiceNumber: "INV-TEST-1", ReservationID: &r.ID, GuestID: f.guest.ID, BranchID: f.branch.ID,
		Items:    []models.InvoiceLine{{Description: "Room 101", Quantity: 2, Rate: decimal.NewFromInt(100), Amount: decimal.NewFromInt(200)}},
		Subtotal: decimal.NewFromInt(200), Tax: decimal.NewFromInt(20), Total: decimal.NewFromInt(220),
		Status: models.InvoicePending, DueDate: now, CreatedBy: 1,
	}
	if err := s.CreateInvoice(ctx, &inv); err != nil {
		t.Fatal(err)
	}
	inv.Status = models.InvoicePaid
	inv.PaidDate = &now
	inv.PaymentMethod = models.PaymentCard
	if err := s.PayInvoice(ctx, &inv); err != nil {
		t.Fatal(err)
	}
	res, _ := s.GetReservation(ctx, r.ID)
	if !res.PaidAmount.Equal(decimal.NewFromInt(220)) {
		t.Fatalf("paid = %s", res.PaidAmount)
	}
	stored, _ := s.GetInvoice(ctx, inv.ID)
	if len(stored.Items) != 1 || stored.Status != models.InvoicePaid {
		t.Fatalf("invoice = %+v", stored)
	}

	if err := s.PayInvoice(ctx, &inv); !errors.Is(err, store.ErrNotPending) {
		t.Fatalf("second payment err = %v", err)
	}
	res, _ = s.GetReservation(ctx, r.ID)
	if !res.PaidAmount.Equal(decimal.NewFromInt(220)) {
		t.Fatalf("paid after second attempt = %s", res.PaidAmount)
	}
	missing := inv
	missing.ID = 9999
	if err := s.PayInvoice(ctx, &missing); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing invoice err = %v", err)
	}
}
