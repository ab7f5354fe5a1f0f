package restaurant

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
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

type OrderStore interface {
	store.RestaurantStore
	GetRoom(ctx context.Context, id uint) (*models.Room, error)
	GetGuest(ctx context.Context, id uint) (*models.Guest, error)
}

type OrderLineRequest struct {
	ItemID   uint   `json:"itemId" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1"`
	Notes    string `json:"notes" validate:"max=255"`
}

type CreateOrderRequest struct {
	BranchID  *uint              `json:"branchId"`
	OrderType models.OrderType   `json:"orderType" validate:"required"`
	GuestID   *uint              `json:"guestId"`
	RoomID    *uint              `json:"roomId"`
	Items     []OrderLineRequest `json:"items" validate:"required,min=1,dive"`
	Notes     string             `json:"notes" validate:"max=1000"`
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.NewString())
}

// snapshot turns requested lines into priced order lines. Every item must be
// on the branch menu and currently available.
func snapshot(ctx context.Context, st OrderStore, branchID uint, req []OrderLineRequest) ([]models.OrderLine, error) {
	lines := make([]models.OrderLine, 0, len(req))
	for _, l := range req {
		item, err := st.GetMenuItem(ctx, l.ItemID)
		if err != nil {
			return nil, httpx.StoreError(err, "menu item")
		}
		if item.BranchID != branchID {
			return nil, apperr.Validationf("menu item %d is not on this branch's menu", item.ID)
		}
		if !item.Available {
			return nil, apperr.Validationf("%s is not available", item.Name)
		}
		lines = append(lines, models.OrderLine{
			ItemID:   item.ID,
			Name:     item.Name,
			Quantity: l.Quantity,
			Price:    item.Price,
			Notes:    l.Notes,
		})
	}
	return lines, nil
}

// GET /api/restaurant-orders?branchId&status
func ListOrdersHandler(st OrderStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		requested, err := httpx.BranchQuery(c)
		if err != nil {
			return err
		}
		status := models.OrderStatus(c.Query("status"))
		if status != "" && !validOrderStatus(status) {
			return apperr.Field("status", "unknown order status")
		}
		scope := access.ResolveScope(actx, requested)
		if scope == nil {
			return c.JSON([]models.RestaurantOrder{})
		}

		orders, err := st.ListOrders(c.UserContext(), *scope)
		if err != nil {
			return apperr.Wrap(err, "list orders")
		}
		res := make([]models.RestaurantOrder, 0, len(orders))
		for _, o := range orders {
			if status == "" || o.Status == status {
				res = append(res, o)
			}
		}
		return c.JSON(res)
	}
}

// POST /api/restaurant-orders
func CreateOrderHandler(st OrderStore, taxRate decimal.Decimal, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		var body CreateOrderRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		if !body.OrderType.Valid() {
			return apperr.Field("orderType", "must be one of room_service, dine_in, takeaway")
		}
		branchID, err := access.WriteScope(actx, body.BranchID)
		if err != nil {
			return err
		}
		ctx := c.UserContext()

		if body.OrderType == models.OrderRoomService && body.RoomID == nil {
			return apperr.Field("roomId", "is required for room service")
		}
		if body.RoomID != nil {
			room, err := st.GetRoom(ctx, *body.RoomID)
			if err != nil {
				return httpx.StoreError(err, "room")
			}
			if room.BranchID != branchID {
				return apperr.Field("roomId", "room belongs to another branch")
			}
		}
		if body.GuestID != nil {
			if _, err := st.GetGuest(ctx, *body.GuestID); err != nil {
				return httpx.StoreError(err, "guest")
			}
		}

		lines, err := snapshot(ctx, st, branchID, body.Items)
		if err != nil {
			return err
		}
		subtotal, tax, total := Totals(lines, taxRate)

		order := models.RestaurantOrder{
			OrderNumber: newOrderNumber(),
			BranchID:    branchID,
			GuestID:     body.GuestID,
			RoomID:      body.RoomID,
			OrderType:   body.OrderType,
			Status:      models.OrderPending,
			Items:       datatypes.JSONSlice[models.OrderLine](lines),
			Subtotal:    subtotal,
			Tax:         tax,
			Total:       total,
			Notes:       body.Notes,
			CreatedBy:   actx.UserID,
		}
		if err := st.CreateOrder(ctx, &order); err != nil {
			return httpx.StoreError(err, "order")
		}

		log.WithFields(logrus.Fields{
			"order_id":  order.ID,
			"branch_id": order.BranchID,
			"total":     order.Total.String(),
			"user_id":   actx.UserID,
		}).Info("restaurant order created")
		return c.Status(fiber.StatusCreated).JSON(order)
	}
}

// PUT /api/restaurant-orders/:id/status
func UpdateOrderStatusHandler(st OrderStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateOrderStatusRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		if !validOrderStatus(body.Status) {
			return apperr.Field("status", "unknown order status")
		}

		order, err := st.GetOrder(c.UserContext(), id)
		if err != nil {
			return httpx.StoreError(err, "order")
		}
		if err := access.CheckBranch(actx, order.BranchID); err != nil {
			return err
		}
		if order.Status == body.Status {
			return c.JSON(order)
		}
		if !CanMove(order.Status, body.Status) {
			return apperr.InvalidTransitionf("order %s cannot move from %s to %s", order.OrderNumber, order.Status, body.Status)
		}

		order.Status = body.Status
		if err := st.UpdateOrder(c.UserContext(), order); err != nil {
			return httpx.StoreError(err, "order")
		}
		return c.JSON(order)
	}
}
