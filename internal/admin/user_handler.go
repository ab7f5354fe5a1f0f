package admin

import (
	"context"
	"strings"

	"github.com/pawanbhattarai/PMS/internal/access"
	"github.com/pawanbhattarai/PMS/internal/apperr"
	"github.com/pawanbhattarai/PMS/internal/auth"
	"github.com/pawanbhattarai/PMS/internal/httpx"
	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/store"

	"github.com/gofiber/fiber/v2"
)

type Store interface {
	store.BranchStore
	store.UserStore
}

type CreateUserRequest struct {
	Name     string          `json:"name" validate:"required,max=100"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=6"`
	Role     models.UserRole `json:"role" validate:"required"`
	BranchID *uint           `json:"branchId"`
}

type UpdateUserRequest struct {
	Name     *string          `json:"name" validate:"omitempty,min=1,max=100"`
	Password *string          `json:"password" validate:"omitempty,min=6"`
	Role     *models.UserRole `json:"role"`
	BranchID *uint            `json:"branchId"`
	Active   *bool            `json:"active"`
}

// targetBranch fills in the caller's own branch for non super_admin callers
// that leave it out, and checks the branch exists.
func targetBranch(ctx context.Context, st store.BranchStore, actx access.Context, role models.UserRole, requested *uint) (*uint, error) {
	if role == models.RoleSuperAdmin {
		return requested, nil
	}
	if requested == nil && !actx.IsSuperAdmin() {
		requested = actx.BranchID
	}
	if requested == nil {
		return nil, apperr.Field("branchId", "is required for this role")
	}
	if _, err := st.GetBranch(ctx, *requested); err != nil {
		return nil, httpx.StoreError(err, "branch")
	}
	return requested, nil
}

// GET /api/users?branchId
func ListUsersHandler(st Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		requested, err := httpx.BranchQuery(c)
		if err != nil {
			return err
		}

		scope := access.ResolveScope(actx, requested)
		if scope == nil && !actx.IsSuperAdmin() {
			return c.JSON([]auth.UserResponse{})
		}
		// super_admin without a branch filter sees everyone
		users, err := st.ListUsers(c.UserContext(), scope)
		if err != nil {
			return apperr.Wrap(err, "list users")
		}
		res := make([]auth.UserResponse, 0, len(users))
		for i := range users {
			res = append(res, auth.NewUserResponse(&users[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/users
func CreateUserHandler(st Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		var body CreateUserRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		if !body.Role.Valid() {
			return apperr.Field("role", "unknown role")
		}
		branchID, err := targetBranch(c.UserContext(), st, actx, body.Role, body.BranchID)
		if err != nil {
			return err
		}
		if !access.CanAssignRole(actx, body.Role, branchID) {
			return apperr.Permissionf("you may not create a %s user here", body.Role)
		}

		hash, err := auth.HashPassword(body.Password)
		if err != nil {
			return apperr.Wrap(err, "hash password")
		}
		user := models.User{
			Name:         strings.TrimSpace(body.Name),
			Email:        strings.ToLower(strings.TrimSpace(body.Email)),
			PasswordHash: hash,
			Role:         body.Role,
			BranchID:     branchID,
			Active:       true,
		}
		if err := st.CreateUser(c.UserContext(), &user); err != nil {
			return httpx.StoreError(err, "user "+user.Email)
		}
		return c.Status(fiber.StatusCreated).JSON(auth.NewUserResponse(&user))
	}
}

// PUT /api/users/:id
// The caller must be allowed to manage the user both before and after the
// change.
func UpdateUserHandler(st Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateUserRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		user, err := st.GetUser(c.UserContext(), id)
		if err != nil {
			return httpx.StoreError(err, "user")
		}
		if !access.CanAssignRole(actx, user.Role, user.BranchID) {
			return apperr.Permissionf("you may not modify user %d", user.ID)
		}

		role := user.Role
		if body.Role != nil {
			if !body.Role.Valid() {
				return apperr.Field("role", "unknown role")
			}
			role = *body.Role
		}
		branchID := user.BranchID
		if body.BranchID != nil || role != user.Role {
			requested := body.BranchID
			if requested == nil {
				requested = user.BranchID
			}
			if role == models.RoleSuperAdmin {
				requested = nil
			}
			if branchID, err = targetBranch(c.UserContext(), st, actx, role, requested); err != nil {
				return err
			}
		}
		if !access.CanAssignRole(actx, role, branchID) {
			return apperr.Permissionf("you may not assign %s here", role)
		}
		if user.ID == actx.UserID && body.Active != nil && !*body.Active {
			return apperr.Validationf("you cannot deactivate your own account")
		}

		user.Role, user.BranchID = role, branchID
		if body.Name != nil {
			user.Name = strings.TrimSpace(*body.Name)
		}
		if body.Password != nil {
			if user.PasswordHash, err = auth.HashPassword(*body.Password); err != nil {
				return apperr.Wrap(err, "hash password")
			}
		}
		if body.Active != nil {
			user.Active = *body.Active
		}

		if err := st.UpdateUser(c.UserContext(), user); err != nil {
			return httpx.StoreError(err, "user "+user.Email)
		}
		return c.JSON(auth.NewUserResponse(user))
	}
}
