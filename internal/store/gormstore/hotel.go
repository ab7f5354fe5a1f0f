package gormstore

import (
	"context"
	"strings"

	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/store"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ---- branches ----

func (s *Store) ListBranches(ctx context.Context) ([]models.Branch, error) {
	return find[models.Branch](s.db.WithContext(ctx))
}

func (s *Store) GetBranch(ctx context.Context, id uint) (*models.Branch, error) {
	return first[models.Branch](ctx, s.db, id)
}

func (s *Store) CreateBranch(ctx context.Context, b *models.Branch) error {
	return translate(s.db.WithContext(ctx).Create(b).Error)
}

func (s *Store) UpdateBranch(ctx context.Context, b *models.Branch) error {
	return update(s.db.WithContext(ctx), b)
}

// ---- users ----

func (s *Store) ListUsers(ctx context.Context, branchID *uint) ([]models.User, error) {
	q := s.db.WithContext(ctx)
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	return find[models.User](q)
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return first[models.User](ctx, s.db, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Count(&n).Error
	return n, translate(err)
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	return update(s.db.WithContext(ctx), u)
}

// ---- room types and rooms ----

func (s *Store) ListRoomTypes(ctx context.Context, branchID uint) ([]models.RoomType, error) {
	return byBranch[models.RoomType](ctx, s.db, branchID)
}

func (s *Store) GetRoomType(ctx context.Context, id uint) (*models.RoomType, error) {
	return first[models.RoomType](ctx, s.db, id)
}

func (s *Store) CreateRoomType(ctx context.Context, rt *models.RoomType) error {
	return translate(s.db.WithContext(ctx).Create(rt).Error)
}

func (s *Store) ListRooms(ctx context.Context, branchID uint, status models.RoomStatus) ([]models.Room, error) {
	q := s.db.WithContext(ctx).Where("branch_id = ?", branchID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return find[models.Room](q)
}

func (s *Store) GetRoom(ctx context.Context, id uint) (*models.Room, error) {
	return first[models.Room](ctx, s.db, id)
}

func (s *Store) CreateRoom(ctx context.Context, r *models.Room) error {
	return translate(s.db.WithContext(ctx).Create(r).Error)
}

func (s *Store) UpdateRoom(ctx context.Context, r *models.Room) error {
	return update(s.db.WithContext(ctx), r)
}

func (s *Store) SetRoomStatus(ctx context.Context, id uint, status models.RoomStatus) error {
	return affected(s.db.WithContext(ctx).Model(&models.Room{}).Where("id = ?", id).Update("status", status))
}

// ---- guests ----

func (s *Store) ListGuests(ctx context.Context, search string) ([]models.Guest, error) {
	q := s.db.WithContext(ctx)
	if term := strings.ToLower(strings.TrimSpace(search)); term != "" {
		like := "%" + term + "%"
		q = q.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(first_name || ' ' || last_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?",
			like, like, like, like, like,
		)
	}
	return find[models.Guest](q)
}

func (s *Store) GetGuest(ctx context.Context, id uint) (*models.Guest, error) {
	return first[models.Guest](ctx, s.db, id)
}

func (s *Store) CreateGuest(ctx context.Context, g *models.Guest) error {
	return translate(s.db.WithContext(ctx).Create(g).Error)
}

func (s *Store) UpdateGuest(ctx context.Context, g *models.Guest) error {
	return update(s.db.WithContext(ctx), g)
}

func (s *Store) IncrementGuestStays(ctx context.Context, id uint) error {
	return affected(s.db.WithContext(ctx).Model(&models.Guest{}).Where("id = ?", id).
		Update("total_stays", gorm.Expr("total_stays + 1")))
}

// ---- reservations ----

func (s *Store) ListReservations(ctx context.Context, branchID uint, f store.ReservationFilter) ([]models.Reservation, error) {
	q := s.db.WithContext(ctx).Where("branch_id = ?", branchID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.RoomID != 0 {
		q = q.Where("room_id = ?", f.RoomID)
	}
	if f.GuestID != 0 {
		q = q.Where("guest_id = ?", f.GuestID)
	}
	if f.ExcludeCancelled {
		q = q.Where("status <> ?", models.ReservationCancelled)
	}
	if f.Overlapping != nil {
		q = q.Where("check_in_date < ? AND check_out_date > ?", f.Overlapping.CheckOut, f.Overlapping.CheckIn)
	}
	return find[models.Reservation](q)
}

func (s *Store) GetReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	return first[models.Reservation](ctx, s.db, id)
}

// lockRoom takes a row lock on the room (FOR UPDATE on Postgres, a no-op
// clause on SQLite whose writers are already serialized), so two transactions
// booking the same room run their overlap checks one after the other.
func lockRoom(tx *gorm.DB, roomID uint) error {
	var room models.Room
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&room, roomID).Error
	return translate(err)
}

func checkOverlap(tx *gorm.DB, r *models.Reservation) error {
	if r.Status == models.ReservationCancelled {
		return nil
	}
	var existing []models.Reservation
	q := tx.Where("room_id = ? AND status <> ?", r.RoomID, models.ReservationCancelled)
	if r.ID != 0 {
		q = q.Where("id <> ?", r.ID)
	}
	if err := q.Find(&existing).Error; err != nil {
		return translate(err)
	}
	if store.Conflicts(r, existing) {
		return store.ErrOverlap
	}
	return nil
}

func (s *Store) CreateReservation(ctx context.Context, r *models.Reservation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRoom(tx, r.RoomID); err != nil {
			return err
		}
		if err := checkOverlap(tx, r); err != nil {
			return err
		}
		return translate(tx.Create(r).Error)
	})
}

func (s *Store) UpdateReservation(ctx context.Context, r *models.Reservation) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRoom(tx, r.RoomID); err != nil {
			return err
		}
		if err := checkOverlap(tx, r); err != nil {
			return err
		}
		return update(tx, r)
	})
}

func (s *Store) AddReservationPayment(ctx context.Context, id uint, amount decimal.Decimal) error {
	return addPayment(s.db.WithContext(ctx), id, amount)
}

func addPayment(db *gorm.DB, id uint, amount decimal.Decimal) error {
	return affected(db.Model(&models.Reservation{}).Where("id = ?", id).
		Update("paid_amount", gorm.Expr("paid_amount + ?", amount)))
}
