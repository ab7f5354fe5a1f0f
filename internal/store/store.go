// Package store defines the persistence contract. memstore and gormstore
// implement it; services depend only on the narrow interfaces below.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/stay"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("duplicate record")
	ErrOverlap           = errors.New("room already reserved for an overlapping stay")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotPending        = errors.New("invoice is no longer pending")
)

type BranchStore interface {
	ListBranches(ctx context.Context) ([]models.Branch, error)
	GetBranch(ctx context.Context, id uint) (*models.Branch, error)
	CreateBranch(ctx context.Context, b *models.Branch) error
	UpdateBranch(ctx context.Context, b *models.Branch) error
}

type UserStore interface {
	// ListUsers returns every user when branchID is nil.
	ListUsers(ctx context.Context, branchID *uint) ([]models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User) error
}

type RoomStore interface {
	ListRoomTypes(ctx context.Context, branchID uint) ([]models.RoomType, error)
	GetRoomType(ctx context.Context, id uint) (*models.RoomType, error)
	CreateRoomType(ctx context.Context, rt *models.RoomType) error

	// ListRooms returns the branch's rooms, restricted to one status when
	// status is non-empty.
	ListRooms(ctx context.Context, branchID uint, status models.RoomStatus) ([]models.Room, error)
	GetRoom(ctx context.Context, id uint) (*models.Room, error)
	CreateRoom(ctx context.Context, r *models.Room) error
	UpdateRoom(ctx context.Context, r *models.Room) error
	SetRoomStatus(ctx context.Context, id uint, status models.RoomStatus) error
}

type GuestStore interface {
	// ListGuests matches search against name, email and phone; empty search
	// returns everyone.
	ListGuests(ctx context.Context, search string) ([]models.Guest, error)
	GetGuest(ctx context.Context, id uint) (*models.Guest, error)
	CreateGuest(ctx context.Context, g *models.Guest) error
	UpdateGuest(ctx context.Context, g *models.Guest) error
	IncrementGuestStays(ctx context.Context, id uint) error
}

// ReservationFilter narrows ListReservations. Zero values match everything.
type ReservationFilter struct {
	Status           models.ReservationStatus
	RoomID           uint
	GuestID          uint
	ExcludeCancelled bool
	Overlapping      *stay.Interval
}

type ReservationStore interface {
	ListReservations(ctx context.Context, branchID uint, f ReservationFilter) ([]models.Reservation, error)
	GetReservation(ctx context.Context, id uint) (*models.Reservation, error)
	// CreateReservation and UpdateReservation re-check overlap in the same unit
	// as the write and return ErrOverlap when another non-cancelled stay on the
	// room overlaps.
	CreateReservation(ctx context.Context, r *models.Reservation) error
	UpdateReservation(ctx context.Context, r *models.Reservation) error
	AddReservationPayment(ctx context.Context, id uint, amount decimal.Decimal) error
}

type RestaurantStore interface {
	ListMenuCategories(ctx context.Context, branchID uint) ([]models.MenuCategory, error)
	GetMenuCategory(ctx context.Context, id uint) (*models.MenuCategory, error)
	CreateMenuCategory(ctx context.Context, mc *models.MenuCategory) error
	UpdateMenuCategory(ctx context.Context, mc *models.MenuCategory) error

	ListMenuItems(ctx context.Context, branchID uint) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error)
	CreateMenuItem(ctx context.Context, mi *models.MenuItem) error
	UpdateMenuItem(ctx context.Context, mi *models.MenuItem) error

	ListOrders(ctx context.Context, branchID uint) ([]models.RestaurantOrder, error)
	GetOrder(ctx context.Context, id uint) (*models.RestaurantOrder, error)
	CreateOrder(ctx context.Context, o *models.RestaurantOrder) error
	UpdateOrder(ctx context.Context, o *models.RestaurantOrder) error
}

type InventoryStore interface {
	ListInventoryCategories(ctx context.Context, branchID uint) ([]models.InventoryCategory, error)
	GetInventoryCategory(ctx context.Context, id uint) (*models.InventoryCategory, error)
	CreateInventoryCategory(ctx context.Context, ic *models.InventoryCategory) error

	ListInventoryItems(ctx context.Context, branchID uint) ([]models.InventoryItem, error)
	GetInventoryItem(ctx context.Context, id uint) (*models.InventoryItem, error)
	CreateInventoryItem(ctx context.Context, it *models.InventoryItem) error
	UpdateInventoryItem(ctx context.Context, it *models.InventoryItem) error
	// AdjustStock adds delta (negative to consume) atomically and returns
	// ErrInsufficientStock instead of going below zero. restockedAt, when set,
	// is stored as the last restock time.
	AdjustStock(ctx context.Context, id uint, delta decimal.Decimal, restockedAt *time.Time) (*models.InventoryItem, error)
}

type InvoiceStore interface {
	ListInvoices(ctx context.Context, branchID uint) ([]models.Invoice, error)
	GetInvoice(ctx context.Context, id uint) (*models.Invoice, error)
	CreateInvoice(ctx context.Context, inv *models.Invoice) error
	UpdateInvoice(ctx context.Context, inv *models.Invoice) error
	// PayInvoice saves the paid invoice and credits its total to the linked
	// reservation, if any, as one unit. It returns ErrNotPending when the
	// stored invoice is no longer pending, so a total is credited at most once.
	PayInvoice(ctx context.Context, inv *models.Invoice) error
}

type Store interface {
	BranchStore
	UserStore
	RoomStore
	GuestStore
	ReservationStore
	RestaurantStore
	InventoryStore
	InvoiceStore
}

// Conflicts reports whether candidate collides with any of existing. Cancelled
// stays and candidate itself (same ID) never collide.
func Conflicts(candidate *models.Reservation, existing []models.Reservation) bool {
	if candidate.Status == models.ReservationCancelled {
		return false
	}
	iv := stay.Interval{CheckIn: candidate.CheckInDate, CheckOut: candidate.CheckOutDate}
	for i := range existing {
		e := &existing[i]
		if e.ID == candidate.ID && candidate.ID != 0 {
			continue
		}
		if e.RoomID != candidate.RoomID || e.Status == models.ReservationCancelled {
			continue
		}
		if iv.Overlaps(stay.Interval{CheckIn: e.CheckInDate, CheckOut: e.CheckOutDate}) {
			return true
		}
	}
	return false
}
