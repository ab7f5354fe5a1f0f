package seed

import (
	"context"
	"testing"

	"github.com/pawanbhattarai/PMS/internal/logging"
	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/store/memstore"

	"golang.org/x/crypto/bcrypt"
)

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	for i := 0; i < 2; i++ {
		if err := Run(ctx, st, logging.Discard()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	branches, _ := st.ListBranches(ctx)
	if len(branches) != 1 || branches[0].Name != "Downtown Hotel" {
		t.Fatalf("branches = %+v", branches)
	}
	users, _ := st.ListUsers(ctx, nil)
	if len(users) != 3 {
		t.Fatalf("users = %d", len(users))
	}
	types, _ := st.ListRoomTypes(ctx, branches[0].ID)
	if len(types) != 3 {
		t.Fatalf("room types = %d", len(types))
	}
	rooms, _ := st.ListRooms(ctx, branches[0].ID, "")
	if len(rooms) != 6 {
		t.Fatalf("rooms = %d", len(rooms))
	}

	admin, err := st.GetUserByEmail(ctx, "admin@hotelchain.com")
	if err != nil {
		t.Fatal(err)
	}
	if admin.Role != models.RoleSuperAdmin || admin.BranchID != nil {
		t.Fatalf("super admin = %+v", admin)
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin123")) != nil {
		t.Fatal("admin password does not verify")
	}
	reception, _ := st.GetUserByEmail(ctx, "reception@hotelchain.com")
	if reception.BranchID == nil || *reception.BranchID != branches[0].ID {
		t.Fatalf("receptionist branch = %v", reception.BranchID)
	}
}
