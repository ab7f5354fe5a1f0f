package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/pawanbhattarai/PMS/internal/access"
	"github.com/pawanbhattarai/PMS/internal/apperr"
	"github.com/pawanbhattarai/PMS/internal/config"
	"github.com/pawanbhattarai/PMS/internal/logging"
	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/store"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey   = logging.UserIDKey
	CtxIdentityKey = "identity"
)

type UserGetter interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// JWTMiddleware verifies the bearer token and then re-reads the user, so a
// role change or deactivation takes effect on the next request rather than at
// token expiry.
func JWTMiddleware(cfg *config.Config, users UserGetter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return apperr.Authenticationf("missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return apperr.Authenticationf("Authorization header must be 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return apperr.Authenticationf("invalid or expired token")
		}

		user, err := users.GetUser(c.UserContext(), claims.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Authenticationf("user no longer exists")
		}
		if err != nil {
			return apperr.Wrap(err, "load session user")
		}
		if !user.Active {
			return apperr.Authenticationf("account is disabled")
		}

		c.Locals(CtxUserIDKey, user.ID)
		c.Locals(CtxIdentityKey, access.FromUser(user))

		return c.Next()
	}
}

// Identity returns the caller set by JWTMiddleware.
func Identity(c *fiber.Ctx) (access.Context, error) {
	actx, ok := c.Locals(CtxIdentityKey).(access.Context)
	if !ok {
		return access.Context{}, apperr.Authenticationf("not authenticated")
	}
	return actx, nil
}

// RequireCapability guards a route with the capability table.
func RequireCapability(want access.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := Identity(c)
		if err != nil {
			return err
		}
		if err := access.Require(actx, want); err != nil {
			return err
		}
		return c.Next()
	}
}
