package restaurant

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
	"github.com/pawanbhattarai/PMS/internal/store/memstore"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func uptr(v uint) *uint { return &v }

func TestTotals(t *testing.T) {
	lines := []models.OrderLine{
		{Quantity: 2, Price: dec("12.50")},
		{Quantity: 1, Price: dec("3.99")},
	}
	sub, tax, total := Totals(lines, dec("0.10"))
	if !sub.Equal(dec("28.99")) || !tax.Equal(dec("2.90")) || !total.Equal(dec("31.89")) {
		t.Fatalf("totals = %s %s %s", sub, tax, total)
	}
	sub, tax, total = Totals(nil, dec("0.10"))
	if !sub.IsZero() || !tax.IsZero() || !total.IsZero() {
		t.Fatal("empty order is not free")
	}
}

func TestCanMove(t *testing.T) {
	cases := []struct {
		from, to models.OrderStatus
		want     bool
	}{
		{models.OrderPending, models.OrderPreparing, true},
		{models.OrderPreparing, models.OrderReady, true},
		{models.OrderReady, models.OrderServed, true},
		{models.OrderPending, models.OrderCancelled, true},
		{models.OrderPreparing, models.OrderCancelled, true},
		{models.OrderReady, models.OrderCancelled, false},
		{models.OrderServed, models.OrderPending, false},
		{models.OrderCancelled, models.OrderPreparing, false},
		{models.OrderPending, models.OrderServed, false},
	}
	for _, tc := range cases {
		if got := CanMove(tc.from, tc.to); got != tc.want {
			t.Errorf("%s -> %s = %v", tc.from, tc.to, got)
		}
	}
}

type fixture struct {
	st     *memstore.Store
	branch uint
	other  uint
	cat    models.MenuCategory
	soup   models.MenuItem
	off    models.MenuItem
	room   models.Room
	staff  access.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{st: memstore.New()}
	b1 := models.Branch{Name: "Downtown", Address: "1 Main", Active: true}
	b2 := models.Branch{Name: "Airport", Address: "2 Runway", Active: true}
	_ = f.st.CreateBranch(ctx, &b1)
	_ = f.st.CreateBranch(ctx, &b2)
	f.branch, f.other = b1.ID, b2.ID

	f.cat = models.MenuCategory{BranchID: b1.ID, Name: "Starters", Active: true}
	_ = f.st.CreateMenuCategory(ctx, &f.cat)
	f.soup = models.MenuItem{BranchID: b1.ID, CategoryID: f.cat.ID, Name: "Tomato soup", Price: dec("8.00"), Available: true}
	f.off = models.MenuItem{BranchID: b1.ID, CategoryID: f.cat.ID, Name: "Lobster", Price: dec("40.00"), Available: false}
	_ = f.st.CreateMenuItem(ctx, &f.soup)
	_ = f.st.CreateMenuItem(ctx, &f.off)

	rt := models.RoomType{BranchID: b1.ID, Name: "Standard", BaseRate: dec("100"), MaxOccupancy: 2}
	_ = f.st.CreateRoomType(ctx, &rt)
	f.room = models.Room{BranchID: b1.ID, Number: "101", RoomTypeID: rt.ID, Status: models.RoomOccupied}
	_ = f.st.CreateRoom(ctx, &f.room)

	f.staff = access.Context{UserID: 9, Role: models.RoleRestaurantStaff, BranchID: uptr(b1.ID)}
	return f
}

func (f *fixture) app(actx access.Context) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler(logging.Discard())})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxIdentityKey, actx)
		return c.Next()
	})
	app.Get("/menu-categories", ListCategoriesHandler(f.st))
	app.Post("/menu-categories", CreateCategoryHandler(f.st))
	app.Put("/menu-categories/:id", UpdateCategoryHandler(f.st))
	app.Get("/menu-items", ListItemsHandler(f.st))
	app.Post("/menu-items", CreateItemHandler(f.st))
	app.Put("/menu-items/:id", UpdateItemHandler(f.st))
	app.Get("/restaurant-orders", ListOrdersHandler(f.st))
	app.Post("/restaurant-orders", CreateOrderHandler(f.st, dec("0.10"), logging.Discard()))
	app.Put("/restaurant-orders/:id/status", UpdateOrderStatusHandler(f.st))
	return app
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

func TestCreateOrderSnapshotsPrices(t *testing.T) {
	f := newFixture(t)
	app := f.app(f.staff)

	var order models.RestaurantOrder
	body := fmt.Sprintf(`{"orderType":"room_service","roomId":%d,"items":[{"itemId":%d,"quantity":3,"notes":"no cream"}]}`, f.room.ID, f.soup.ID)
	if code := call(t, app, "POST", "/restaurant-orders", body, &order); code != 201 {
		t.Fatalf("status %d", code)
	}
	if order.Status != models.OrderPending || !strings.HasPrefix(order.OrderNumber, "ORD-") {
		t.Fatalf("order = %+v", order)
	}
	if !order.Subtotal.Equal(dec("24")) || !order.Tax.Equal(dec("2.4")) || !order.Total.Equal(dec("26.4")) {
		t.Fatalf("totals = %s %s %s", order.Subtotal, order.Tax, order.Total)
	}

	// later price changes do not touch the order
	soup := f.soup
	soup.Price = dec("9.50")
	_ = f.st.UpdateMenuItem(context.Background(), &soup)
	saved, _ := f.st.GetOrder(context.Background(), order.ID)
	if !saved.Items[0].Price.Equal(dec("8")) || saved.Items[0].Name != "Tomato soup" {
		t.Fatalf("line = %+v", saved.Items[0])
	}
}

func TestCreateOrderRejects(t *testing.T) {
	f := newFixture(t)
	app := f.app(f.staff)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"room service without room", fmt.Sprintf(`{"orderType":"room_service","items":[{"itemId":%d,"quantity":1}]}`, f.soup.ID), 400},
		{"unknown type", fmt.Sprintf(`{"orderType":"drive_thru","items":[{"itemId":%d,"quantity":1}]}`, f.soup.ID), 400},
		{"no items", `{"orderType":"takeaway","items":[]}`, 400},
		{"zero quantity", fmt.Sprintf(`{"orderType":"takeaway","items":[{"itemId":%d,"quantity":0}]}`, f.soup.ID), 400},
		{"unavailable item", fmt.Sprintf(`{"orderType":"dine_in","items":[{"itemId":%d,"quantity":1}]}`, f.off.ID), 400},
		{"unknown item", `{"orderType":"dine_in","items":[{"itemId":999,"quantity":1}]}`, 404},
		{"unknown guest", fmt.Sprintf(`{"orderType":"dine_in","guestId":999,"items":[{"itemId":%d,"quantity":1}]}`, f.soup.ID), 404},
		{"other branch", fmt.Sprintf(`{"branchId":%d,"orderType":"dine_in","items":[{"itemId":%d,"quantity":1}]}`, f.other, f.soup.ID), 403},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code := call(t, app, "POST", "/restaurant-orders", tc.body, nil); code != tc.want {
				t.Fatalf("status %d, want %d", code, tc.want)
			}
		})
	}
}

func TestOrderStatusFlow(t *testing.T) {
	f := newFixture(t)
	app := f.app(f.staff)

	var order models.RestaurantOrder
	call(t, app, "POST", "/restaurant-orders", fmt.Sprintf(`{"orderType":"dine_in","items":[{"itemId":%d,"quantity":1}]}`, f.soup.ID), &order)
	path := fmt.Sprintf("/restaurant-orders/%d/status", order.ID)

	steps := []struct {
		status string
		want   int
	}{
		{"ready", 409},
		{"preparing", 200},
		{"ready", 200},
		{"cancelled", 409},
		{"served", 200},
		{"pending", 409},
		{"lost", 400},
	}
	for _, s := range steps {
		if code := call(t, app, "PUT", path, fmt.Sprintf(`{"status":%q}`, s.status), nil); code != s.want {
			t.Fatalf("-> %s: status %d, want %d", s.status, code, s.want)
		}
	}

	var served []models.RestaurantOrder
	call(t, app, "GET", "/restaurant-orders?status=served", "", &served)
	if len(served) != 1 {
		t.Fatalf("served orders = %d", len(served))
	}
}

func TestMenuManagement(t *testing.T) {
	f := newFixture(t)
	admin := access.Context{UserID: 2, Role: models.RoleBranchAdmin, BranchID: uptr(f.branch)}
	app := f.app(admin)

	var cat models.MenuCategory
	if code := call(t, app, "POST", "/menu-categories", `{"name":"Mains","sortOrder":2}`, &cat); code != 201 || !cat.Active {
		t.Fatalf("category %d: %+v", code, cat)
	}
	var item MenuItemResponse
	body := fmt.Sprintf(`{"categoryId":%d,"name":"Steak","price":"24.5","preparationTime":20,"ingredients":["beef"]}`, cat.ID)
	if code := call(t, app, "POST", "/menu-items", body, &item); code != 201 || item.BranchID != f.branch {
		t.Fatalf("item %d: %+v", code, item)
	}
	if code := call(t, app, "POST", "/menu-items", fmt.Sprintf(`{"categoryId":%d,"name":"Air","price":"0"}`, cat.ID), nil); code != 400 {
		t.Fatalf("free item status %d", code)
	}
	if code := call(t, app, "PUT", fmt.Sprintf("/menu-items/%d", item.ID), `{"available":false}`, &item); code != 200 || item.Available {
		t.Fatalf("update %d: %+v", code, item)
	}

	var items []MenuItemResponse
	call(t, app, "GET", "/menu-items", "", &items)
	if len(items) != 3 || items[0].Category == nil {
		t.Fatalf("items = %+v", items)
	}

	outsider := access.Context{UserID: 3, Role: models.RoleBranchAdmin, BranchID: uptr(f.other)}
	if code := call(t, f.app(outsider), "PUT", fmt.Sprintf("/menu-categories/%d", cat.ID), `{"active":false}`, nil); code != 403 {
		t.Fatalf("outsider status %d", code)
	}
}
