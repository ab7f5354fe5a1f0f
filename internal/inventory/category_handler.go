// Package inventory tracks hotel and restaurant supplies per branch.
package inventory

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

type CreateCategoryRequest struct {
	BranchID    *uint                        `json:"branchId"`
	Name        string                       `json:"name" validate:"required,max=100"`
	Description string                       `json:"description" validate:"max=500"`
	Type        models.InventoryCategoryType `json:"type" validate:"required,oneof=hotel_supplies restaurant_supplies"`
}

// GET /api/inventory-categories
func ListCategoriesHandler(st store.InventoryStore) fiber.Handler {
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
		if scope == nil {
			return c.JSON([]models.InventoryCategory{})
		}
		cats, err := st.ListInventoryCategories(c.UserContext(), *scope)
		if err != nil {
			return apperr.Wrap(err, "list inventory categories")
		}
		if cats == nil {
			cats = []models.InventoryCategory{}
		}
		return c.JSON(cats)
	}
}

// POST /api/inventory-categories
func CreateCategoryHandler(st store.InventoryStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		var body CreateCategoryRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		branchID, err := access.WriteScope(actx, body.BranchID)
		if err != nil {
			return err
		}
		ic := models.InventoryCategory{
			BranchID:    branchID,
			Name:        strings.TrimSpace(body.Name),
			Description: body.Description,
			Type:        body.Type,
		}
		if err := st.CreateInventoryCategory(c.UserContext(), &ic); err != nil {
			return httpx.StoreError(err, "inventory category")
		}
		return c.Status(fiber.StatusCreated).JSON(ic)
	}
}
