package inventory

import (
	"strings"
	"time"

	"github.com/pawanbhattarai/PMS/internal/access"
	"github.com/pawanbhattarai/PMS/internal/apperr"
	"github.com/pawanbhattarai/PMS/internal/auth"
	"github.com/pawanbhattarai/PMS/internal/httpx"
	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type CreateItemRequest struct {
	CategoryID   uint            `json:"categoryId" validate:"required"`
	Name         string          `json:"name" validate:"required,max=100"`
	Description  string          `json:"description" validate:"max=500"`
	Unit         string          `json:"unit" validate:"required,max=20"`
	CurrentStock decimal.Decimal `json:"currentStock"`
	MinStock     decimal.Decimal `json:"minStock"`
	MaxStock     decimal.Decimal `json:"maxStock"`
	CostPerUnit  decimal.Decimal `json:"costPerUnit"`
	Supplier     string          `json:"supplier" validate:"max=100"`
}

// UpdateItemRequest leaves stock alone; stock moves through restock and
// consume only.
type UpdateItemRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	Unit        *string          `json:"unit" validate:"omitempty,min=1,max=20"`
	MinStock    *decimal.Decimal `json:"minStock"`
	MaxStock    *decimal.Decimal `json:"maxStock"`
	CostPerUnit *decimal.Decimal `json:"costPerUnit"`
	Supplier    *string          `json:"supplier" validate:"omitempty,max=100"`
}

type StockRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

type ItemResponse struct {
	models.InventoryItem
	LowStock bool `json:"lowStock"`
}

func NewItemResponse(it *models.InventoryItem) ItemResponse {
	return ItemResponse{InventoryItem: *it, LowStock: it.LowStock()}
}

func checkLevels(it *models.InventoryItem) error {
	switch {
	case it.CurrentStock.IsNegative():
		return apperr.Field("currentStock", "must not be negative")
	case it.MinStock.IsNegative():
		return apperr.Field("minStock", "must not be negative")
	case it.MaxStock.IsNegative():
		return apperr.Field("maxStock", "must not be negative")
	case it.MaxStock.IsPositive() && it.MaxStock.LessThan(it.MinStock):
		return apperr.Field("maxStock", "must not be below minStock")
	case it.CostPerUnit.IsNegative():
		return apperr.Field("costPerUnit", "must not be negative")
	}
	return nil
}

func loadItem(c *fiber.Ctx, st store.InventoryStore) (*models.InventoryItem, error) {
	actx, err := auth.Identity(c)
	if err != nil {
		return nil, err
	}
	id, err := httpx.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	it, err := st.GetInventoryItem(c.UserContext(), id)
	if err != nil {
		return nil, httpx.StoreError(err, "inventory item")
	}
	if err := access.CheckBranch(actx, it.BranchID); err != nil {
		return nil, err
	}
	return it, nil
}

// GET /api/inventory-items?branchId&lowStock
func ListItemsHandler(st store.InventoryStore) fiber.Handler {
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
			return c.JSON([]ItemResponse{})
		}
		items, err := st.ListInventoryItems(c.UserContext(), *scope)
		if err != nil {
			return apperr.Wrap(err, "list inventory items")
		}
		onlyLow := c.QueryBool("lowStock", false)

		res := make([]ItemResponse, 0, len(items))
		for i := range items {
			if onlyLow && !items[i].LowStock() {
				continue
			}
			res = append(res, NewItemResponse(&items[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/inventory-items
func CreateItemHandler(st store.InventoryStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		var body CreateItemRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		cat, err := st.GetInventoryCategory(c.UserContext(), body.CategoryID)
		if err != nil {
			return httpx.StoreError(err, "inventory category")
		}
		if err := access.CheckBranch(actx, cat.BranchID); err != nil {
			return err
		}

		it := models.InventoryItem{
			BranchID:     cat.BranchID,
			CategoryID:   cat.ID,
			Name:         strings.TrimSpace(body.Name),
			Description:  body.Description,
			Unit:         strings.TrimSpace(body.Unit),
			CurrentStock: body.CurrentStock,
			MinStock:     body.MinStock,
			MaxStock:     body.MaxStock,
			CostPerUnit:  body.CostPerUnit.Round(2),
			Supplier:     body.Supplier,
		}
		if err := checkLevels(&it); err != nil {
			return err
		}
		if it.CurrentStock.IsPositive() {
			now := time.Now()
			it.LastRestocked = &now
		}
		if err := st.CreateInventoryItem(c.UserContext(), &it); err != nil {
			return httpx.StoreError(err, "inventory item")
		}
		return c.Status(fiber.StatusCreated).JSON(NewItemResponse(&it))
	}
}

// PUT /api/inventory-items/:id
func UpdateItemHandler(st store.InventoryStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateItemRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		it, err := loadItem(c, st)
		if err != nil {
			return err
		}

		if body.Name != nil {
			it.Name = strings.TrimSpace(*body.Name)
		}
		if body.Description != nil {
			it.Description = *body.Description
		}
		if body.Unit != nil {
			it.Unit = strings.TrimSpace(*body.Unit)
		}
		if body.MinStock != nil {
			it.MinStock = *body.MinStock
		}
		if body.MaxStock != nil {
			it.MaxStock = *body.MaxStock
		}
		if body.CostPerUnit != nil {
			it.CostPerUnit = body.CostPerUnit.Round(2)
		}
		if body.Supplier != nil {
			it.Supplier = *body.Supplier
		}
		if err := checkLevels(it); err != nil {
			return err
		}

		if err := st.UpdateInventoryItem(c.UserContext(), it); err != nil {
			return httpx.StoreError(err, "inventory item")
		}
		return c.JSON(NewItemResponse(it))
	}
}

// POST /api/inventory-items/:id/restock
func RestockHandler(st store.InventoryStore, log logrus.FieldLogger) fiber.Handler {
	return stockHandler(st, log, true)
}

// POST /api/inventory-items/:id/consume
func ConsumeHandler(st store.InventoryStore, log logrus.FieldLogger) fiber.Handler {
	return stockHandler(st, log, false)
}

func stockHandler(st store.InventoryStore, log logrus.FieldLogger, restock bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body StockRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		if !body.Quantity.IsPositive() {
			return apperr.Field("quantity", "must be greater than zero")
		}
		it, err := loadItem(c, st)
		if err != nil {
			return err
		}

		delta := body.Quantity
		var restockedAt *time.Time
		if restock {
			now := time.Now()
			restockedAt = &now
		} else {
			delta = delta.Neg()
		}

		updated, err := st.AdjustStock(c.UserContext(), it.ID, delta, restockedAt)
		if err != nil {
			return httpx.StoreError(err, it.Name)
		}
		if updated.LowStock() {
			log.WithFields(logrus.Fields{
				"item_id":   updated.ID,
				"branch_id": updated.BranchID,
				"stock":     updated.CurrentStock.String(),
				"min_stock": updated.MinStock.String(),
			}).Warn("inventory item at or below minimum stock")
		}
		return c.JSON(NewItemResponse(updated))
	}
}
