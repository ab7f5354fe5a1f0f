// Package seed loads the demo branch, staff accounts, room types and rooms.
// Running it again leaves existing records alone.
package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/pawanbhattarai/PMS/internal/auth"
	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Store interface {
	store.BranchStore
	store.UserStore
	store.RoomStore
}

const demoBranch = "Downtown Hotel"

type demoUser struct {
	name, email, password string
	role                  models.UserRole
}

var demoUsers = []demoUser{
	{"Super Admin", "admin@hotelchain.com", "admin123", models.RoleSuperAdmin},
	{"Branch Admin", "downtown@hotelchain.com", "branch123", models.RoleBranchAdmin},
	{"Reception Staff", "reception@hotelchain.com", "reception123", models.RoleReceptionist},
}

var demoRoomTypes = []models.RoomType{
	{Name: "Standard", Description: "Comfortable standard room", BaseRate: decimal.RequireFromString("100.00"), MaxOccupancy: 2,
		Amenities: []string{"WiFi", "TV", "AC"}},
	{Name: "Deluxe", Description: "Spacious deluxe room", BaseRate: decimal.RequireFromString("150.00"), MaxOccupancy: 4,
		Amenities: []string{"WiFi", "TV", "AC", "Mini Bar", "Room Service"}},
	{Name: "Executive Suite", Description: "Luxury suite with a kitchenette", BaseRate: decimal.RequireFromString("250.00"), MaxOccupancy: 6,
		Amenities: []string{"WiFi", "TV", "AC", "Mini Bar", "Room Service", "Kitchenette", "Balcony"}},
}

// room number -> room type name
var demoRooms = []struct {
	number string
	floor  int
	kind   string
}{
	{"101", 1, "Standard"},
	{"102", 1, "Standard"},
	{"103", 1, "Standard"},
	{"201", 2, "Deluxe"},
	{"202", 2, "Deluxe"},
	{"301", 3, "Executive Suite"},
}

func Run(ctx context.Context, st Store, log logrus.FieldLogger) error {
	branch, err := ensureBranch(ctx, st)
	if err != nil {
		return err
	}
	for _, u := range demoUsers {
		if err := ensureUser(ctx, st, u, branch.ID); err != nil {
			return err
		}
	}
	types, err := ensureRoomTypes(ctx, st, branch.ID)
	if err != nil {
		return err
	}
	if err := ensureRooms(ctx, st, branch.ID, types); err != nil {
		return err
	}
	log.WithField("branch_id", branch.ID).Info("demo data ready")
	return nil
}

func ensureBranch(ctx context.Context, st Store) (*models.Branch, error) {
	branches, err := st.ListBranches(ctx)
	if err != nil {
		return nil, err
	}
	for i := range branches {
		if strings.EqualFold(branches[i].Name, demoBranch) {
			return &branches[i], nil
		}
	}
	b := &models.Branch{
		Name:    demoBranch,
		Address: "123 Main St",
		Phone:   "+16502530000",
		Email:   "downtown@hotelchain.com",
		Active:  true,
	}
	return b, st.CreateBranch(ctx, b)
}

func ensureUser(ctx context.Context, st Store, u demoUser, branchID uint) error {
	_, err := st.GetUserByEmail(ctx, u.email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	hash, err := auth.HashPassword(u.password)
	if err != nil {
		return err
	}
	user := &models.User{Name: u.name, Email: u.email, PasswordHash: hash, Role: u.role, Active: true}
	if u.role != models.RoleSuperAdmin {
		user.BranchID = &branchID
	}
	return st.CreateUser(ctx, user)
}

func ensureRoomTypes(ctx context.Context, st Store, branchID uint) (map[string]uint, error) {
	existing, err := st.ListRoomTypes(ctx, branchID)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]uint, len(demoRoomTypes))
	for _, rt := range existing {
		ids[rt.Name] = rt.ID
	}
	for _, tmpl := range demoRoomTypes {
		if _, ok := ids[tmpl.Name]; ok {
			continue
		}
		rt := tmpl
		rt.BranchID = branchID
		if err := st.CreateRoomType(ctx, &rt); err != nil {
			return nil, err
		}
		ids[rt.Name] = rt.ID
	}
	return ids, nil
}

func ensureRooms(ctx context.Context, st Store, branchID uint, types map[string]uint) error {
	existing, err := st.ListRooms(ctx, branchID, "")
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, r := range existing {
		have[r.Number] = true
	}
	for _, d := range demoRooms {
		if have[d.number] {
			continue
		}
		room := &models.Room{
			BranchID:   branchID,
			Number:     d.number,
			Floor:      d.floor,
			RoomTypeID: types[d.kind],
			Status:     models.RoomAvailable,
		}
		if err := st.CreateRoom(ctx, room); err != nil {
			return err
		}
	}
	return nil
}
