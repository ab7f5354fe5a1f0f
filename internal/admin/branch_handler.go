// Package admin manages branches and staff accounts.
package admin

import (
	"strings"

	"github.com/pawanbhattarai/PMS/internal/access"
	"github.com/pawanbhattarai/PMS/internal/apperr"
	"github.com/pawanbhattarai/PMS/internal/auth"
	"github.com/pawanbhattarai/PMS/internal/httpx"
	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/store"

	"github.com/gofiber/fiber/v2"
)

type BranchResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"createdAt"`
}

type CreateBranchRequest struct {
	Name    string  `json:"name" validate:"required,max=100"`
	Address string  `json:"address" validate:"required,max=255"`
	Phone   *string `json:"phone" validate:"omitempty,phone"`
	Email   *string `json:"email" validate:"omitempty,email"`
}

type UpdateBranchRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=100"`
	Address *string `json:"address" validate:"omitempty,max=255"`
	Phone   *string `json:"phone" validate:"omitempty,phone"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Active  *bool   `json:"active"`
}

func NewBranchResponse(b *models.Branch) BranchResponse {
	return BranchResponse{
		ID:        b.ID,
		Name:      b.Name,
		Address:   b.Address,
		Phone:     b.Phone,
		Email:     b.Email,
		Active:    b.Active,
		CreatedAt: httpx.FormatTime(b.CreatedAt),
	}
}

// ----------------------------------------
// BRANCHES
// ----------------------------------------

// GET /api/branches
// super_admin sees every branch, everyone else only their own.
func ListBranchesHandler(st store.BranchStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}

		var branches []models.Branch
		switch {
		case access.Authorize(actx, models.RoleSuperAdmin):
			if branches, err = st.ListBranches(c.UserContext()); err != nil {
				return apperr.Wrap(err, "list branches")
			}
		case actx.BranchID != nil:
			b, err := st.GetBranch(c.UserContext(), *actx.BranchID)
			if err != nil {
				return httpx.StoreError(err, "branch")
			}
			branches = []models.Branch{*b}
		}

		res := make([]BranchResponse, 0, len(branches))
		for i := range branches {
			res = append(res, NewBranchResponse(&branches[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/branches
func CreateBranchHandler(st store.BranchStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBranchRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		branch := models.Branch{
			Name:    strings.TrimSpace(body.Name),
			Address: strings.TrimSpace(body.Address),
			Active:  true,
		}
		if body.Phone != nil {
			branch.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Email != nil {
			branch.Email = strings.ToLower(strings.TrimSpace(*body.Email))
		}

		if err := st.CreateBranch(c.UserContext(), &branch); err != nil {
			return httpx.StoreError(err, "branch "+branch.Name)
		}
		return c.Status(fiber.StatusCreated).JSON(NewBranchResponse(&branch))
	}
}

// PUT /api/branches/:id
// Branches are deactivated, never deleted.
func UpdateBranchHandler(st store.BranchStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateBranchRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}

		branch, err := st.GetBranch(c.UserContext(), id)
		if err != nil {
			return httpx.StoreError(err, "branch")
		}
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return apperr.Field("name", "must not be empty")
			}
			branch.Name = name
		}
		if body.Address != nil {
			branch.Address = strings.TrimSpace(*body.Address)
		}
		if body.Phone != nil {
			branch.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Email != nil {
			branch.Email = strings.ToLower(strings.TrimSpace(*body.Email))
		}
		if body.Active != nil {
			branch.Active = *body.Active
		}

		if err := st.UpdateBranch(c.UserContext(), branch); err != nil {
			return httpx.StoreError(err, "branch "+branch.Name)
		}
		return c.JSON(NewBranchResponse(branch))
	}
}
