package access

import (
	"github.com/pawanbhattarai/PMS/internal/apperr"
	"github.com/pawanbhattarai/PMS/internal/models"
)

type Capability string

const (
	ViewBranches       Capability = "view_branches"
	ManageBranches     Capability = "manage_branches"
	ManageUsers        Capability = "manage_users"
	ViewRooms          Capability = "view_rooms"
	ManageRooms        Capability = "manage_rooms"
	UpdateRoomStatus   Capability = "update_room_status"
	ViewGuests         Capability = "view_guests"
	ManageGuests       Capability = "manage_guests"
	ViewReservations   Capability = "view_reservations"
	ManageReservations Capability = "manage_reservations"
	ViewMenu           Capability = "view_menu"
	ManageMenu         Capability = "manage_menu"
	ViewOrders         Capability = "view_orders"
	ManageOrders       Capability = "manage_orders"
	ManageInventory    Capability = "manage_inventory"
	ViewInvoices       Capability = "view_invoices"
	ManageInvoices     Capability = "manage_invoices"
	ViewReports        Capability = "view_reports"
	ViewDashboard      Capability = "view_dashboard"
)

func set(caps ...Capability) map[Capability]bool {
	m := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		m[c] = true
	}
	return m
}

var capabilities = map[models.UserRole]map[Capability]bool{
	models.RoleSuperAdmin: set(
		ViewBranches, ManageBranches, ManageUsers,
		ViewRooms, ManageRooms, UpdateRoomStatus,
		ViewGuests, ManageGuests, ViewReservations, ManageReservations,
		ViewMenu, ManageMenu, ViewOrders, ManageOrders,
		ManageInventory, ViewInvoices, ManageInvoices,
		ViewReports, ViewDashboard,
	),
	models.RoleBranchAdmin: set(
		ViewBranches, ManageUsers,
		ViewRooms, ManageRooms, UpdateRoomStatus,
		ViewGuests, ManageGuests, ViewReservations, ManageReservations,
		ViewMenu, ManageMenu, ViewOrders, ManageOrders,
		ManageInventory, ViewInvoices, ManageInvoices,
		ViewReports, ViewDashboard,
	),
	models.RoleReceptionist: set(
		ViewBranches, ViewRooms, UpdateRoomStatus,
		ViewGuests, ManageGuests, ViewReservations, ManageReservations,
		ViewMenu, ViewOrders,
		ViewInvoices, ManageInvoices,
		ViewDashboard,
	),
	models.RoleRestaurantStaff: set(
		ViewBranches, ViewRooms, ViewGuests,
		ViewMenu, ViewOrders, ManageOrders,
		ViewDashboard,
	),
	models.RoleHousekeeping: set(
		ViewBranches, ViewRooms, ViewReservations,
		ViewDashboard,
	),
}

// Can reports whether role holds capability. Unknown roles hold nothing.
func Can(role models.UserRole, c Capability) bool {
	return capabilities[role][c]
}

func Require(c Context, want Capability) error {
	if !Can(c.Role, want) {
		return apperr.Permissionf("role %s may not %s", c.Role, want)
	}
	return nil
}
