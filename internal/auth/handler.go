package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/pawanbhattarai/PMS/internal/apperr"
	"github.com/pawanbhattarai/PMS/internal/config"
	"github.com/pawanbhattarai/PMS/internal/httpx"
	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/store"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type Users interface {
	UserGetter
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CountUsersByRole(ctx context.Context, role models.UserRole) (int64, error)
	CreateUser(ctx context.Context, u *models.User) error
	GetBranch(ctx context.Context, id uint) (*models.Branch, error)
}

type RegisterSuperAdminRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	BranchID  *uint           `json:"branchId"`
	Active    bool            `json:"active"`
	CreatedAt string          `json:"createdAt"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		BranchID:  u.BranchID,
		Active:    u.Active,
		CreatedAt: httpx.FormatTime(u.CreatedAt),
	}
}

// HashPassword is shared by registration, user management and seeding.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// POST /api/auth/register-super-admin
// Only works while no super admin exists.
func RegisterSuperAdminHandler(users Users) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterSuperAdminRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		count, err := users.CountUsersByRole(c.UserContext(), models.RoleSuperAdmin)
		if err != nil {
			return apperr.Wrap(err, "count super admins")
		}
		if count > 0 {
			return apperr.Permissionf("a super admin already exists")
		}

		hash, err := HashPassword(body.Password)
		if err != nil {
			return apperr.Wrap(err, "hash password")
		}

		user := models.User{
			Name:         strings.TrimSpace(body.Name),
			Email:        body.Email,
			PasswordHash: hash,
			Role:         models.RoleSuperAdmin,
			Active:       true,
		}
		if err := users.CreateUser(c.UserContext(), &user); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperr.Conflictf("email %s is already registered", user.Email)
			}
			return apperr.Wrap(err, "create super admin")
		}

		return c.Status(fiber.StatusCreated).JSON(NewUserResponse(&user))
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config, users Users) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		user, err := users.GetUserByEmail(c.UserContext(), body.Email)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Authenticationf("invalid email or password")
		}
		if err != nil {
			return apperr.Wrap(err, "load user")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return apperr.Authenticationf("invalid email or password")
		}
		if !user.Active {
			return apperr.Authenticationf("account is disabled")
		}

		token, err := GenerateToken(cfg.JWTSecret, cfg.JWTTTL, user)
		if err != nil {
			return apperr.Wrap(err, "sign token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  NewUserResponse(user),
		})
	}
}

// POST /api/auth/logout
// Tokens are stateless; the client drops its copy.
func LogoutHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "logged out"})
	}
}

// GET /api/auth/me
func MeHandler(users Users) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := Identity(c)
		if err != nil {
			return err
		}
		user, err := users.GetUser(c.UserContext(), actx.UserID)
		if err != nil {
			return apperr.Wrap(err, "load user")
		}

		response := fiber.Map{"user": NewUserResponse(user)}
		if user.BranchID != nil {
			if branch, err := users.GetBranch(c.UserContext(), *user.BranchID); err == nil {
				response["branch"] = fiber.Map{
					"id":      branch.ID,
					"name":    branch.Name,
					"address": branch.Address,
					"phone":   branch.Phone,
				}
			}
		}
		return c.JSON(response)
	}
}
