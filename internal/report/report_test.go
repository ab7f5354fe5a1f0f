package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pawanbhattarai/PMS/internal/access"
	"github.com/pawanbhattarai/PMS/internal/auth"
	"github.com/pawanbhattarai/PMS/internal/httpx"
	"github.com/pawanbhattarai/PMS/internal/logging"
	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/stay"
	"github.com/pawanbhattarai/PMS/internal/store/memstore"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func day(s string) time.Time {
	t, _ := stay.ParseDate(s)
	return t
}

func TestBuild(t *testing.T) {
	rows := []Row{{
		Reservation: models.Reservation{ID: 7, CheckInDate: day("2024-03-01"), CheckOutDate: day("2024-03-04"), Adults: 2,
			Status: models.ReservationConfirmed, TotalAmount: decimal.NewFromInt(300), PaidAmount: decimal.NewFromInt(100)},
		Room:  "101",
		Guest: "Ada Lovelace",
	}}
	f, err := Build(rows)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	got, err := f.GetRows(sheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0][0] != "ID" {
		t.Fatalf("rows = %v", got)
	}
	want := []string{"7", "101", "Ada Lovelace", "2024-03-01", "2024-03-04", "3", "2", "0", "confirmed", "300", "100", "200"}
	for i, w := range want {
		if got[1][i] != w {
			t.Errorf("column %d = %q, want %q", i, got[1][i], w)
		}
	}
}

type fixture struct {
	st     *memstore.Store
	branch uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{st: memstore.New()}
	b := models.Branch{Name: "Downtown", Address: "1 Main", Active: true}
	_ = f.st.CreateBranch(ctx, &b)
	f.branch = b.ID
	rt := models.RoomType{BranchID: b.ID, Name: "Standard", BaseRate: decimal.NewFromInt(100), MaxOccupancy: 2}
	_ = f.st.CreateRoomType(ctx, &rt)
	room := models.Room{BranchID: b.ID, Number: "101", RoomTypeID: rt.ID, Status: models.RoomAvailable}
	_ = f.st.CreateRoom(ctx, &room)
	g := models.Guest{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "+16502530000"}
	_ = f.st.CreateGuest(ctx, &g)
	for _, d := range [][2]string{{"2024-03-01", "2024-03-04"}, {"2024-04-01", "2024-04-03"}} {
		r := models.Reservation{GuestID: g.ID, RoomID: room.ID, BranchID: b.ID, CheckInDate: day(d[0]), CheckOutDate: day(d[1]),
			Adults: 1, Status: models.ReservationConfirmed, TotalAmount: decimal.NewFromInt(200)}
		if err := f.st.CreateReservation(ctx, &r); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func (f *fixture) app(actx access.Context) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler(logging.Discard())})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxIdentityKey, actx)
		return c.Next()
	})
	app.Get("/reports/reservations.xlsx", ReservationsHandler(f.st, func() time.Time { return day("2024-03-10") }))
	return app
}

func TestReservationsHandler(t *testing.T) {
	f := newFixture(t)
	admin := access.Context{UserID: 2, Role: models.RoleBranchAdmin, BranchID: &f.branch}

	resp, err := f.app(admin).Test(httptest.NewRequest("GET", "/reports/reservations.xlsx?from=2024-03-01&to=2024-03-31", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 || !strings.Contains(resp.Header.Get("Content-Disposition"), "reservations-") {
		t.Fatalf("status %d headers %v", resp.StatusCode, resp.Header)
	}
	data, _ := io.ReadAll(resp.Body)
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer book.Close()
	rows, _ := book.GetRows(sheet)
	if len(rows) != 2 || rows[1][1] != "101" || rows[1][2] != "Ada Lovelace" {
		t.Fatalf("rows = %v", rows)
	}

	for _, q := range []string{"?from=2024-03-01", "?from=2024-03-31&to=2024-03-01", "?from=soon&to=later"} {
		resp, _ := f.app(admin).Test(httptest.NewRequest("GET", "/reports/reservations.xlsx"+q, nil))
		if resp.StatusCode != 400 {
			t.Errorf("%s: status %d", q, resp.StatusCode)
		}
	}

	super := access.Context{UserID: 1, Role: models.RoleSuperAdmin}
	resp, _ = f.app(super).Test(httptest.NewRequest("GET", "/reports/reservations.xlsx", nil))
	if resp.StatusCode != 400 {
		t.Fatalf("no branch status %d", resp.StatusCode)
	}
	resp, _ = f.app(super).Test(httptest.NewRequest("GET", fmt.Sprintf("/reports/reservations.xlsx?branchId=%d", f.branch), nil))
	if resp.StatusCode != 200 {
		t.Fatalf("super with branch status %d", resp.StatusCode)
	}
}
