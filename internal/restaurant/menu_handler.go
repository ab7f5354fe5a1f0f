package restaurant

import (
	"strings"

	"github.com/pawanbhattarai/PMS/internal/access"
	"github.com/pawanbhattarai/PMS/internal/apperr"
	"github.com/pawanbhattarai/PMS/internal/auth"
	"github.com/pawanbhattarai/PMS/internal/httpx"
	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type CreateCategoryRequest struct {
	BranchID    *uint  `json:"branchId"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	SortOrder   int    `json:"sortOrder"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Active      *bool   `json:"active"`
	SortOrder   *int    `json:"sortOrder"`
}

type CreateItemRequest struct {
	CategoryID      uint            `json:"categoryId" validate:"required"`
	Name            string          `json:"name" validate:"required,max=100"`
	Description     string          `json:"description" validate:"max=500"`
	Price           decimal.Decimal `json:"price"`
	PreparationTime *int            `json:"preparationTime" validate:"omitempty,min=0"`
	Ingredients     []string        `json:"ingredients"`
}

type UpdateItemRequest struct {
	CategoryID      *uint            `json:"categoryId"`
	Name            *string          `json:"name" validate:"omitempty,min=1,max=100"`
	Description     *string          `json:"description" validate:"omitempty,max=500"`
	Price           *decimal.Decimal `json:"price"`
	Available       *bool            `json:"available"`
	PreparationTime *int             `json:"preparationTime" validate:"omitempty,min=0"`
	Ingredients     []string         `json:"ingredients"`
}

type MenuItemResponse struct {
	models.MenuItem
	Category *models.MenuCategory `json:"category,omitempty"`
}

// GET /api/menu-categories
func ListCategoriesHandler(st store.RestaurantStore) fiber.Handler {
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
			return c.JSON([]models.MenuCategory{})
		}
		cats, err := st.ListMenuCategories(c.UserContext(), *scope)
		if err != nil {
			return apperr.Wrap(err, "list menu categories")
		}
		if cats == nil {
			cats = []models.MenuCategory{}
		}
		return c.JSON(cats)
	}
}

// POST /api/menu-categories
func CreateCategoryHandler(st store.RestaurantStore) fiber.Handler {
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
		mc := models.MenuCategory{
			BranchID:    branchID,
			Name:        strings.TrimSpace(body.Name),
			Description: body.Description,
			Active:      true,
			SortOrder:   body.SortOrder,
		}
		if err := st.CreateMenuCategory(c.UserContext(), &mc); err != nil {
			return httpx.StoreError(err, "menu category")
		}
		return c.Status(fiber.StatusCreated).JSON(mc)
	}
}

// PUT /api/menu-categories/:id
func UpdateCategoryHandler(st store.RestaurantStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateCategoryRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		mc, err := st.GetMenuCategory(c.UserContext(), id)
		if err != nil {
			return httpx.StoreError(err, "menu category")
		}
		if err := access.CheckBranch(actx, mc.BranchID); err != nil {
			return err
		}
		if body.Name != nil {
			mc.Name = strings.TrimSpace(*body.Name)
		}
		if body.Description != nil {
			mc.Description = *body.Description
		}
		if body.Active != nil {
			mc.Active = *body.Active
		}
		if body.SortOrder != nil {
			mc.SortOrder = *body.SortOrder
		}
		if err := st.UpdateMenuCategory(c.UserContext(), mc); err != nil {
			return httpx.StoreError(err, "menu category")
		}
		return c.JSON(mc)
	}
}

// GET /api/menu-items
func ListItemsHandler(st store.RestaurantStore) fiber.Handler {
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
			return c.JSON([]MenuItemResponse{})
		}
		items, err := st.ListMenuItems(c.UserContext(), *scope)
		if err != nil {
			return apperr.Wrap(err, "list menu items")
		}
		cats, err := st.ListMenuCategories(c.UserContext(), *scope)
		if err != nil {
			return apperr.Wrap(err, "list menu categories")
		}
		byID := make(map[uint]*models.MenuCategory, len(cats))
		for i := range cats {
			byID[cats[i].ID] = &cats[i]
		}

		res := make([]MenuItemResponse, 0, len(items))
		for _, it := range items {
			res = append(res, MenuItemResponse{MenuItem: it, Category: byID[it.CategoryID]})
		}
		return c.JSON(res)
	}
}

// POST /api/menu-items
// The item's branch is the branch of its category.
func CreateItemHandler(st store.RestaurantStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		var body CreateItemRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		if !body.Price.IsPositive() {
			return apperr.Field("price", "must be greater than zero")
		}
		cat, err := st.GetMenuCategory(c.UserContext(), body.CategoryID)
		if err != nil {
			return httpx.StoreError(err, "menu category")
		}
		if err := access.CheckBranch(actx, cat.BranchID); err != nil {
			return err
		}

		mi := models.MenuItem{
			BranchID:        cat.BranchID,
			CategoryID:      cat.ID,
			Name:            strings.TrimSpace(body.Name),
			Description:     body.Description,
			Price:           body.Price.Round(2),
			Available:       true,
			PreparationTime: body.PreparationTime,
			Ingredients:     datatypes.JSONSlice[string](body.Ingredients),
		}
		if err := st.CreateMenuItem(c.UserContext(), &mi); err != nil {
			return httpx.StoreError(err, "menu item")
		}
		return c.Status(fiber.StatusCreated).JSON(MenuItemResponse{MenuItem: mi, Category: cat})
	}
}

// PUT /api/menu-items/:id
func UpdateItemHandler(st store.RestaurantStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateItemRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		mi, err := st.GetMenuItem(c.UserContext(), id)
		if err != nil {
			return httpx.StoreError(err, "menu item")
		}
		if err := access.CheckBranch(actx, mi.BranchID); err != nil {
			return err
		}

		if body.CategoryID != nil {
			cat, err := st.GetMenuCategory(c.UserContext(), *body.CategoryID)
			if err != nil {
				return httpx.StoreError(err, "menu category")
			}
			if cat.BranchID != mi.BranchID {
				return apperr.Field("categoryId", "category belongs to another branch")
			}
			mi.CategoryID = cat.ID
		}
		if body.Name != nil {
			mi.Name = strings.TrimSpace(*body.Name)
		}
		if body.Description != nil {
			mi.Description = *body.Description
		}
		if body.Price != nil {
			if !body.Price.IsPositive() {
				return apperr.Field("price", "must be greater than zero")
			}
			mi.Price = body.Price.Round(2)
		}
		if body.Available != nil {
			mi.Available = *body.Available
		}
		if body.PreparationTime != nil {
			mi.PreparationTime = body.PreparationTime
		}
		if body.Ingredients != nil {
			mi.Ingredients = datatypes.JSONSlice[string](body.Ingredients)
		}

		if err := st.UpdateMenuItem(c.UserContext(), mi); err != nil {
			return httpx.StoreError(err, "menu item")
		}
		return c.JSON(MenuItemResponse{MenuItem: *mi})
	}
}
