// Package memstore is an in-memory store.Store used by tests and by local runs
// that do not need a database. All state sits behind one mutex, so every
// method, including the reservation overlap re-check, is a single atomic unit.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/store"
	"github.com/pawanbhattarai/PMS/internal/stay"

	"github.com/shopspring/decimal"
)

type Store struct {
	mu  sync.Mutex
	seq uint
	now func() time.Time

	branches       map[uint]models.Branch
	users          map[uint]models.User
	roomTypes      map[uint]models.RoomType
	rooms          map[uint]models.Room
	guests         map[uint]models.Guest
	reservations   map[uint]models.Reservation
	menuCategories map[uint]models.MenuCategory
	menuItems      map[uint]models.MenuItem
	orders         map[uint]models.RestaurantOrder
	invCategories  map[uint]models.InventoryCategory
	invItems       map[uint]models.InventoryItem
	invoices       map[uint]models.Invoice
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:            time.Now,
		branches:       map[uint]models.Branch{},
		users:          map[uint]models.User{},
		roomTypes:      map[uint]models.RoomType{},
		rooms:          map[uint]models.Room{},
		guests:         map[uint]models.Guest{},
		reservations:   map[uint]models.Reservation{},
		menuCategories: map[uint]models.MenuCategory{},
		menuItems:      map[uint]models.MenuItem{},
		orders:         map[uint]models.RestaurantOrder{},
		invCategories:  map[uint]models.InventoryCategory{},
		invItems:       map[uint]models.InventoryItem{},
		invoices:       map[uint]models.Invoice{},
	}
}

func (s *Store) nextID() uint {
	s.seq++
	return s.seq
}

// sorted returns the map values matching keep, ordered by id.
func sorted[T any](m map[uint]T, keep func(*T) bool) []T {
	ids := make([]uint, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		v := m[id]
		if keep == nil || keep(&v) {
			out = append(out, v)
		}
	}
	return out
}

func get[T any](m map[uint]T, id uint) (*T, error) {
	v, ok := m[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &v, nil
}

// ---- branches ----

func (s *Store) ListBranches(ctx context.Context) ([]models.Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sorted(s.branches, nil), nil
}

func (s *Store) GetBranch(ctx context.Context, id uint) (*models.Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.branches, id)
}

func (s *Store) branchNameTaken(name string, except uint) bool {
	for _, b := range s.branches {
		if b.ID != except && strings.EqualFold(b.Name, name) {
			return true
		}
	}
	return false
}

func (s *Store) CreateBranch(ctx context.Context, b *models.Branch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.branchNameTaken(b.Name, 0) {
		return store.ErrDuplicate
	}
	b.ID = s.nextID()
	b.CreatedAt, b.UpdatedAt = s.now(), s.now()
	s.branches[b.ID] = *b
	return nil
}

func (s *Store) UpdateBranch(ctx context.Context, b *models.Branch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.branches[b.ID]
	if !ok {
		return store.ErrNotFound
	}
	if s.branchNameTaken(b.Name, b.ID) {
		return store.ErrDuplicate
	}
	b.CreatedAt, b.UpdatedAt = old.CreatedAt, s.now()
	s.branches[b.ID] = *b
	return nil
}

// ---- users ----

func (s *Store) ListUsers(ctx context.Context, branchID *uint) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sorted(s.users, func(u *models.User) bool {
		return branchID == nil || (u.BranchID != nil && *u.BranchID == *branchID)
	}), nil
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.users, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (s *Store) emailTaken(email string, except uint) bool {
	for _, u := range s.users {
		if u.ID != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(u.Email, 0) {
		return store.ErrDuplicate
	}
	u.ID = s.nextID()
	u.CreatedAt, u.UpdatedAt = s.now(), s.now()
	s.users[u.ID] = *u
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.users[u.ID]
	if !ok {
		return store.ErrNotFound
	}
	if s.emailTaken(u.Email, u.ID) {
		return store.ErrDuplicate
	}
	u.CreatedAt, u.UpdatedAt = old.CreatedAt, s.now()
	s.users[u.ID] = *u
	return nil
}

// ---- room types and rooms ----

func (s *Store) ListRoomTypes(ctx context.Context, branchID uint) ([]models.RoomType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sorted(s.roomTypes, func(rt *models.RoomType) bool { return rt.BranchID == branchID }), nil
}

func (s *Store) GetRoomType(ctx context.Context, id uint) (*models.RoomType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.roomTypes, id)
}

func (s *Store) CreateRoomType(ctx context.Context, rt *models.RoomType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt.ID = s.nextID()
	rt.CreatedAt, rt.UpdatedAt = s.now(), s.now()
	s.roomTypes[rt.ID] = *rt
	return nil
}

func (s *Store) ListRooms(ctx context.Context, branchID uint, status models.RoomStatus) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sorted(s.rooms, func(r *models.Room) bool {
		return r.BranchID == branchID && (status == "" || r.Status == status)
	}), nil
}

func (s *Store) GetRoom(ctx context.Context, id uint) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.rooms, id)
}

func (s *Store) roomNumberTaken(branchID uint, number string, except uint) bool {
	for _, r := range s.rooms {
		if r.ID != except && r.BranchID == branchID && r.Number == number {
			return true
		}
	}
	return false
}

func (s *Store) CreateRoom(ctx context.Context, r *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roomNumberTaken(r.BranchID, r.Number, 0) {
		return store.ErrDuplicate
	}
	r.ID = s.nextID()
	r.CreatedAt, r.UpdatedAt = s.now(), s.now()
	s.rooms[r.ID] = *r
	return nil
}

func (s *Store) UpdateRoom(ctx context.Context, r *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.rooms[r.ID]
	if !ok {
		return store.ErrNotFound
	}
	if s.roomNumberTaken(r.BranchID, r.Number, r.ID) {
		return store.ErrDuplicate
	}
	r.CreatedAt, r.UpdatedAt = old.CreatedAt, s.now()
	s.rooms[r.ID] = *r
	return nil
}

func (s *Store) SetRoomStatus(ctx context.Context, id uint, status models.RoomStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return store.ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = s.now()
	s.rooms[id] = r
	return nil
}

// ---- guests ----

func (s *Store) ListGuests(ctx context.Context, search string) ([]models.Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(search))
	return sorted(s.guests, func(g *models.Guest) bool {
		if q == "" {
			return true
		}
		for _, f := range []string{g.FirstName, g.LastName, g.FullName(), g.Email, g.Phone} {
			if strings.Contains(strings.ToLower(f), q) {
				return true
			}
		}
		return false
	}), nil
}

func (s *Store) GetGuest(ctx context.Context, id uint) (*models.Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.guests, id)
}

func (s *Store) CreateGuest(ctx context.Context, g *models.Guest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.nextID()
	g.CreatedAt, g.UpdatedAt = s.now(), s.now()
	s.guests[g.ID] = *g
	return nil
}

func (s *Store) UpdateGuest(ctx context.Context, g *models.Guest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.guests[g.ID]
	if !ok {
		return store.ErrNotFound
	}
	g.CreatedAt, g.UpdatedAt = old.CreatedAt, s.now()
	s.guests[g.ID] = *g
	return nil
}

func (s *Store) IncrementGuestStays(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guests[id]
	if !ok {
		return store.ErrNotFound
	}
	g.TotalStays++
	g.UpdatedAt = s.now()
	s.guests[id] = g
	return nil
}

// ---- reservations ----

func matches(r *models.Reservation, branchID uint, f store.ReservationFilter) bool {
	switch {
	case r.BranchID != branchID:
		return false
	case f.Status != "" && r.Status != f.Status:
		return false
	case f.RoomID != 0 && r.RoomID != f.RoomID:
		return false
	case f.GuestID != 0 && r.GuestID != f.GuestID:
		return false
	case f.ExcludeCancelled && r.Status == models.ReservationCancelled:
		return false
	case f.Overlapping != nil:
		return f.Overlapping.Overlaps(stay.Interval{CheckIn: r.CheckInDate, CheckOut: r.CheckOutDate})
	}
	return true
}

func (s *Store) ListReservations(ctx context.Context, branchID uint, f store.ReservationFilter) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sorted(s.reservations, func(r *models.Reservation) bool { return matches(r, branchID, f) }), nil
}

func (s *Store) GetReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return get(s.reservations, id)
}

func (s *Store) roomReservations(roomID uint) []models.Reservation {
	return sorted(s.reservations, func(r *models.Reservation) bool { return r.RoomID == roomID })
}

func (s *Store) CreateReservation(ctx context.Context, r *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if store.Conflicts(r, s.roomReservations(r.RoomID)) {
		return store.ErrOverlap
	}
	r.ID = s.nextID()
	r.CreatedAt, r.UpdatedAt = s.now(), s.now()
	s.reservations[r.ID] = *r
	return nil
}

func (s *Store) UpdateReservation(ctx context.Context, r *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.reservations[r.ID]
	if !ok {
		return store.ErrNotFound
	}
	if store.Conflicts(r, s.roomReservations(r.RoomID)) {
		return store.ErrOverlap
	}
	r.CreatedAt, r.UpdatedAt = old.CreatedAt, s.now()
	s.reservations[r.ID] = *r
	return nil
}

func (s *Store) AddReservationPayment(ctx context.Context, id uint, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addPayment(id, amount)
}

func (s *Store) addPayment(id uint, amount decimal.Decimal) error {
	r, ok := s.reservations[id]
	if !ok {
		return store.ErrNotFound
	}
	r.PaidAmount = r.PaidAmount.Add(amount)
	r.UpdatedAt = s.now()
	s.reservations[id] = r
	return nil
}
