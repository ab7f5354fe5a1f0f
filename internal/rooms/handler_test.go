package rooms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pawanbhattarai/PMS/internal/access"
	"github.com/pawanbhattarai/PMS/internal/auth"
	"github.com/pawanbhattarai/PMS/internal/httpx"
	"github.com/pawanbhattarai/PMS/internal/logging"
	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/stay"
	"github.com/pawanbhattarai/PMS/internal/store/memstore"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type fixture struct {
	st       *memstore.Store
	branch   uint
	other    uint
	standard models.RoomType
	foreign  models.RoomType
	room     models.Room
}

func uptr(v uint) *uint { return &v }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{st: memstore.New()}
	b1 := models.Branch{Name: "Downtown", Address: "1 Main", Active: true}
	b2 := models.Branch{Name: "Airport", Address: "2 Runway", Active: true}
	_ = f.st.CreateBranch(ctx, &b1)
	_ = f.st.CreateBranch(ctx, &b2)
	f.branch, f.other = b1.ID, b2.ID

	f.standard = models.RoomType{BranchID: b1.ID, Name: "Standard", BaseRate: decimal.RequireFromString("100.00"), MaxOccupancy: 2}
	f.foreign = models.RoomType{BranchID: b2.ID, Name: "Standard", BaseRate: decimal.RequireFromString("90.00"), MaxOccupancy: 2}
	_ = f.st.CreateRoomType(ctx, &f.standard)
	_ = f.st.CreateRoomType(ctx, &f.foreign)

	f.room = models.Room{BranchID: b1.ID, Number: "101", Floor: 1, RoomTypeID: f.standard.ID, Status: models.RoomAvailable}
	if err := f.st.CreateRoom(ctx, &f.room); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) app(actx access.Context) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler(logging.Discard())})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxIdentityKey, actx)
		return c.Next()
	})
	app.Get("/room-types", ListRoomTypesHandler(f.st))
	app.Post("/room-types", CreateRoomTypeHandler(f.st))
	app.Get("/rooms/available", AvailableRoomsHandler(f.st))
	app.Get("/rooms", ListRoomsHandler(f.st))
	app.Post("/rooms", CreateRoomHandler(f.st))
	app.Put("/rooms/:id", UpdateRoomHandler(f.st))
	return app
}

func (f *fixture) admin() access.Context {
	return access.Context{UserID: 2, Role: models.RoleBranchAdmin, BranchID: uptr(f.branch)}
}

func call(t *testing.T, app *fiber.App, method, path, body string, out any) int {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func TestCreateRoomType(t *testing.T) {
	f := newFixture(t)
	app := f.app(f.admin())

	var rt RoomTypeResponse
	code := call(t, app, "POST", "/room-types", `{"name":"Deluxe","baseRate":"150.00","maxOccupancy":4,"amenities":["wifi","minibar"]}`, &rt)
	if code != 201 {
		t.Fatalf("status %d", code)
	}
	if rt.BranchID != f.branch || len(rt.Amenities) != 2 || !rt.BaseRate.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("room type = %+v", rt)
	}

	for _, body := range []string{
		`{"name":"Free","baseRate":"0","maxOccupancy":2}`,
		`{"name":"","baseRate":"10","maxOccupancy":2}`,
		`{"name":"Tiny","baseRate":"10","maxOccupancy":0}`,
	} {
		if code := call(t, app, "POST", "/room-types", body, nil); code != 400 {
			t.Errorf("%s: status %d", body, code)
		}
	}

	body := fmt.Sprintf(`{"branchId":%d,"name":"Sneaky","baseRate":"10","maxOccupancy":2}`, f.other)
	if code := call(t, app, "POST", "/room-types", body, nil); code != 403 {
		t.Fatalf("foreign branch status %d", code)
	}
}

func TestCreateRoom(t *testing.T) {
	f := newFixture(t)
	app := f.app(f.admin())

	cases := []struct {
		name string
		body string
		want int
	}{
		{"ok", fmt.Sprintf(`{"number":"102","floor":1,"roomTypeId":%d}`, f.standard.ID), 201},
		{"duplicate number", fmt.Sprintf(`{"number":"101","floor":1,"roomTypeId":%d}`, f.standard.ID), 409},
		{"type of other branch", fmt.Sprintf(`{"number":"103","floor":1,"roomTypeId":%d}`, f.foreign.ID), 400},
		{"unknown type", `{"number":"104","floor":1,"roomTypeId":999}`, 404},
		{"bad status", fmt.Sprintf(`{"number":"105","roomTypeId":%d,"status":"haunted"}`, f.standard.ID), 400},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code := call(t, app, "POST", "/rooms", tc.body, nil); code != tc.want {
				t.Fatalf("status %d, want %d", code, tc.want)
			}
		})
	}
}

func TestUpdateRoomCapabilities(t *testing.T) {
	f := newFixture(t)
	path := fmt.Sprintf("/rooms/%d", f.room.ID)
	reception := access.Context{UserID: 3, Role: models.RoleReceptionist, BranchID: uptr(f.branch)}
	housekeeping := access.Context{UserID: 4, Role: models.RoleHousekeeping, BranchID: uptr(f.branch)}
	outsider := access.Context{UserID: 5, Role: models.RoleBranchAdmin, BranchID: uptr(f.other)}

	cases := []struct {
		name string
		actx access.Context
		body string
		want int
	}{
		{"reception flips status", reception, `{"status":"cleaning"}`, 200},
		{"reception edits notes", reception, `{"notes":"view"}`, 403},
		{"housekeeping cannot", housekeeping, `{"status":"available"}`, 403},
		{"admin edits floor", f.admin(), `{"floor":3,"status":"available"}`, 200},
		{"other branch admin", outsider, `{"status":"maintenance"}`, 403},
		{"foreign room type", f.admin(), fmt.Sprintf(`{"roomTypeId":%d}`, f.foreign.ID), 400},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code := call(t, f.app(tc.actx), "PUT", path, tc.body, nil); code != tc.want {
				t.Fatalf("status %d, want %d", code, tc.want)
			}
		})
	}

	room, _ := f.st.GetRoom(context.Background(), f.room.ID)
	if room.Floor != 3 || room.Status != models.RoomAvailable {
		t.Fatalf("room = %+v", room)
	}
	if code := call(t, f.app(f.admin()), "PUT", "/rooms/999", `{"status":"available"}`, nil); code != 404 {
		t.Fatalf("missing room status %d", code)
	}
}

func TestAvailableRooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	second := models.Room{BranchID: f.branch, Number: "102", Floor: 1, RoomTypeID: f.standard.ID, Status: models.RoomAvailable}
	_ = f.st.CreateRoom(ctx, &second)

	in, _ := stay.ParseDate("2024-03-01")
	out, _ := stay.ParseDate("2024-03-04")
	booked := models.Reservation{GuestID: 1, RoomID: f.room.ID, BranchID: f.branch, CheckInDate: in, CheckOutDate: out,
		Adults: 1, Status: models.ReservationConfirmed}
	if err := f.st.CreateReservation(ctx, &booked); err != nil {
		t.Fatal(err)
	}
	app := f.app(f.admin())

	var rooms []RoomResponse
	if code := call(t, app, "GET", "/rooms/available?checkIn=2024-03-02&checkOut=2024-03-03", "", &rooms); code != 200 {
		t.Fatalf("status %d", code)
	}
	if len(rooms) != 1 || rooms[0].Number != "102" || rooms[0].RoomType == nil {
		t.Fatalf("rooms = %+v", rooms)
	}

	rooms = nil
	call(t, app, "GET", "/rooms/available?checkIn=2024-03-04&checkOut=2024-03-06", "", &rooms)
	if len(rooms) != 2 {
		t.Fatalf("turnover day: %d rooms", len(rooms))
	}

	for _, q := range []string{"", "?checkIn=2024-03-02", "?checkIn=2024-03-05&checkOut=2024-03-02"} {
		if code := call(t, app, "GET", "/rooms/available"+q, "", nil); code != 400 {
			t.Errorf("%q: status %d", q, code)
		}
	}
}

func TestListRoomsScope(t *testing.T) {
	f := newFixture(t)
	super := access.Context{UserID: 1, Role: models.RoleSuperAdmin}

	var rooms []RoomResponse
	call(t, f.app(super), "GET", "/rooms", "", &rooms)
	if rooms == nil || len(rooms) != 0 {
		t.Fatalf("no scope: %v", rooms)
	}
	call(t, f.app(super), "GET", fmt.Sprintf("/rooms?branchId=%d", f.branch), "", &rooms)
	if len(rooms) != 1 {
		t.Fatalf("super with branch: %d", len(rooms))
	}

	// pinned to own branch whatever is asked for
	rooms = nil
	call(t, f.app(f.admin()), "GET", fmt.Sprintf("/rooms?branchId=%d", f.other), "", &rooms)
	if len(rooms) != 1 || rooms[0].BranchID != f.branch {
		t.Fatalf("pinned: %+v", rooms)
	}
	if code := call(t, f.app(f.admin()), "GET", "/rooms?status=haunted", "", nil); code != 400 {
		t.Fatalf("bad status filter %d", code)
	}
}
