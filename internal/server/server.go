// Package server assembles the fiber app: middleware, the /api routes and the
// capability each route requires.
package server

import (
	"strings"
	"time"

	"github.com/pawanbhattarai/PMS/internal/access"
	"github.com/pawanbhattarai/PMS/internal/admin"
	"github.com/pawanbhattarai/PMS/internal/auth"
	"github.com/pawanbhattarai/PMS/internal/billing"
	"github.com/pawanbhattarai/PMS/internal/config"
	"github.com/pawanbhattarai/PMS/internal/dashboard"
	"github.com/pawanbhattarai/PMS/internal/guests"
	"github.com/pawanbhattarai/PMS/internal/httpx"
	"github.com/pawanbhattarai/PMS/internal/inventory"
	"github.com/pawanbhattarai/PMS/internal/lock"
	"github.com/pawanbhattarai/PMS/internal/logging"
	"github.com/pawanbhattarai/PMS/internal/report"
	"github.com/pawanbhattarai/PMS/internal/reservation"
	"github.com/pawanbhattarai/PMS/internal/restaurant"
	"github.com/pawanbhattarai/PMS/internal/rooms"
	"github.com/pawanbhattarai/PMS/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"
)

type Deps struct {
	Config *config.Config
	Store  store.Store
	Locker lock.Locker
	Log    logrus.FieldLogger
	Now    func() time.Time // defaults to time.Now
}

func New(d Deps) *fiber.App {
	if d.Now == nil {
		d.Now = time.Now
	}

	app := fiber.New(fiber.Config{
		AppName:      d.Config.ServiceName,
		ErrorHandler: httpx.ErrorHandler(d.Log),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins(d.Config.CORSOrigins),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(logging.Middleware(d.Log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	register(api, d)
	return app
}

func register(api fiber.Router, d Deps) {
	st := d.Store
	can := auth.RequireCapability

	api.Post("/auth/login", auth.LoginHandler(d.Config, st))
	api.Post("/auth/register-super-admin", auth.RegisterSuperAdminHandler(st))

	p := api.Group("", auth.JWTMiddleware(d.Config, st))
	p.Get("/auth/me", auth.MeHandler(st))
	p.Post("/auth/logout", auth.LogoutHandler())

	// branches and staff
	p.Get("/branches", can(access.ViewBranches), admin.ListBranchesHandler(st))
	p.Post("/branches", can(access.ManageBranches), admin.CreateBranchHandler(st))
	p.Put("/branches/:id", can(access.ManageBranches), admin.UpdateBranchHandler(st))
	p.Get("/users", can(access.ManageUsers), admin.ListUsersHandler(st))
	p.Post("/users", can(access.ManageUsers), admin.CreateUserHandler(st))
	p.Put("/users/:id", can(access.ManageUsers), admin.UpdateUserHandler(st))

	// rooms
	p.Get("/room-types", can(access.ViewRooms), rooms.ListRoomTypesHandler(st))
	p.Post("/room-types", can(access.ManageRooms), rooms.CreateRoomTypeHandler(st))
	p.Get("/rooms/available", can(access.ViewRooms), rooms.AvailableRoomsHandler(st))
	p.Get("/rooms", can(access.ViewRooms), rooms.ListRoomsHandler(st))
	p.Post("/rooms", can(access.ManageRooms), rooms.CreateRoomHandler(st))
	p.Put("/rooms/:id", rooms.UpdateRoomHandler(st)) // status-only edits need less than full edits

	// guests and reservations
	svc := reservation.NewService(st, d.Locker, d.Log)
	p.Get("/guests", can(access.ViewGuests), guests.ListHandler(st))
	p.Post("/guests", can(access.ManageGuests), guests.CreateHandler(st))
	p.Get("/guests/:id", can(access.ViewGuests), guests.GetHandler(st))
	p.Put("/guests/:id", can(access.ManageGuests), guests.UpdateHandler(st))
	p.Get("/guests/:id/reservations", can(access.ViewReservations), reservation.GuestHistoryHandler(svc))

	p.Get("/reservations/quote", can(access.ViewReservations), reservation.QuoteHandler(svc))
	p.Get("/reservations", can(access.ViewReservations), reservation.ListHandler(svc))
	p.Post("/reservations", can(access.ManageReservations), reservation.CreateHandler(svc))
	p.Get("/reservations/:id", can(access.ViewReservations), reservation.GetHandler(svc))
	p.Put("/reservations/:id", can(access.ManageReservations), reservation.UpdateHandler(svc))

	// restaurant
	p.Get("/menu-categories", can(access.ViewMenu), restaurant.ListCategoriesHandler(st))
	p.Post("/menu-categories", can(access.ManageMenu), restaurant.CreateCategoryHandler(st))
	p.Put("/menu-categories/:id", can(access.ManageMenu), restaurant.UpdateCategoryHandler(st))
	p.Get("/menu-items", can(access.ViewMenu), restaurant.ListItemsHandler(st))
	p.Post("/menu-items", can(access.ManageMenu), restaurant.CreateItemHandler(st))
	p.Put("/menu-items/:id", can(access.ManageMenu), restaurant.UpdateItemHandler(st))
	p.Get("/restaurant-orders", can(access.ViewOrders), restaurant.ListOrdersHandler(st))
	p.Post("/restaurant-orders", can(access.ManageOrders), restaurant.CreateOrderHandler(st, d.Config.TaxRate, d.Log))
	p.Put("/restaurant-orders/:id/status", can(access.ManageOrders), restaurant.UpdateOrderStatusHandler(st))

	// inventory
	stock := can(access.ManageInventory)
	p.Get("/inventory-categories", stock, inventory.ListCategoriesHandler(st))
	p.Post("/inventory-categories", stock, inventory.CreateCategoryHandler(st))
	p.Get("/inventory-items", stock, inventory.ListItemsHandler(st))
	p.Post("/inventory-items", stock, inventory.CreateItemHandler(st))
	p.Put("/inventory-items/:id", stock, inventory.UpdateItemHandler(st))
	p.Post("/inventory-items/:id/restock", stock, inventory.RestockHandler(st, d.Log))
	p.Post("/inventory-items/:id/consume", stock, inventory.ConsumeHandler(st, d.Log))

	// billing
	bills := billing.NewHandler(st, d.Config.TaxRate, d.Log)
	p.Get("/invoices", can(access.ViewInvoices), bills.List)
	p.Post("/invoices", can(access.ManageInvoices), bills.Create)
	p.Get("/invoices/:id", can(access.ViewInvoices), bills.Get)
	p.Post("/invoices/:id/pay", can(access.ManageInvoices), bills.Pay)
	p.Post("/invoices/:id/cancel", can(access.ManageInvoices), bills.Cancel)

	p.Get("/dashboard/stats", can(access.ViewDashboard), dashboard.StatsHandler(st, d.Now))
	p.Get("/reports/reservations.xlsx", can(access.ViewReports), report.ReservationsHandler(st, d.Now))
}

func corsOrigins(raw string) string {
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}
