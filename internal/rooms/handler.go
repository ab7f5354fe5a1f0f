// Package rooms serves room types, rooms and the availability search.
package rooms

import (
	"context"
	"strings"

	"github.com/pawanbhattarai/PMS/internal/access"
	"github.com/pawanbhattarai/PMS/internal/apperr"
	"github.com/pawanbhattarai/PMS/internal/auth"
	"github.com/pawanbhattarai/PMS/internal/availability"
	"github.com/pawanbhattarai/PMS/internal/httpx"
	"github.com/pawanbhattarai/PMS/internal/models"
	"github.com/pawanbhattarai/PMS/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Store interface {
	store.RoomStore
	availability.Source
}

type CreateRoomTypeRequest struct {
	BranchID     *uint           `json:"branchId"`
	Name         string          `json:"name" validate:"required,max=100"`
	Description  string          `json:"description" validate:"max=500"`
	BaseRate     decimal.Decimal `json:"baseRate"`
	MaxOccupancy int             `json:"maxOccupancy" validate:"min=1"`
	Amenities    []string        `json:"amenities"`
}

type CreateRoomRequest struct {
	BranchID   *uint             `json:"branchId"`
	Number     string            `json:"number" validate:"required,max=20"`
	Floor      int               `json:"floor"`
	RoomTypeID uint              `json:"roomTypeId" validate:"required"`
	Status     models.RoomStatus `json:"status"`
	Notes      string            `json:"notes" validate:"max=500"`
}

type UpdateRoomRequest struct {
	Number     *string            `json:"number" validate:"omitempty,max=20"`
	Floor      *int               `json:"floor"`
	RoomTypeID *uint              `json:"roomTypeId"`
	Status     *models.RoomStatus `json:"status"`
	Notes      *string            `json:"notes" validate:"omitempty,max=500"`
}

// onlyStatus reports whether the request touches nothing but the status,
// which housekeeping-facing roles may change without manage_rooms.
func (r UpdateRoomRequest) onlyStatus() bool {
	return r.Number == nil && r.Floor == nil && r.RoomTypeID == nil && r.Notes == nil
}

type RoomTypeResponse struct {
	ID           uint            `json:"id"`
	BranchID     uint            `json:"branchId"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	BaseRate     decimal.Decimal `json:"baseRate"`
	MaxOccupancy int             `json:"maxOccupancy"`
	Amenities    []string        `json:"amenities"`
	CreatedAt    string          `json:"createdAt"`
}

type RoomResponse struct {
	ID         uint              `json:"id"`
	BranchID   uint              `json:"branchId"`
	Number     string            `json:"number"`
	Floor      int               `json:"floor"`
	RoomTypeID uint              `json:"roomTypeId"`
	Status     models.RoomStatus `json:"status"`
	Notes      string            `json:"notes"`
	RoomType   *RoomTypeResponse `json:"roomType,omitempty"`
	CreatedAt  string            `json:"createdAt"`
	UpdatedAt  string            `json:"updatedAt"`
}

func NewRoomTypeResponse(rt *models.RoomType) RoomTypeResponse {
	amenities := []string(rt.Amenities)
	if amenities == nil {
		amenities = []string{}
	}
	return RoomTypeResponse{
		ID:           rt.ID,
		BranchID:     rt.BranchID,
		Name:         rt.Name,
		Description:  rt.Description,
		BaseRate:     rt.BaseRate,
		MaxOccupancy: rt.MaxOccupancy,
		Amenities:    amenities,
		CreatedAt:    httpx.FormatTime(rt.CreatedAt),
	}
}

func NewRoomResponse(r *models.Room) RoomResponse {
	return RoomResponse{
		ID:         r.ID,
		BranchID:   r.BranchID,
		Number:     r.Number,
		Floor:      r.Floor,
		RoomTypeID: r.RoomTypeID,
		Status:     r.Status,
		Notes:      r.Notes,
		CreatedAt:  httpx.FormatTime(r.CreatedAt),
		UpdatedAt:  httpx.FormatTime(r.UpdatedAt),
	}
}

// withTypes attaches each room's type, loading every branch type once.
func withTypes(ctx context.Context, st store.RoomStore, branchID uint, rooms []models.Room) ([]RoomResponse, error) {
	types, err := st.ListRoomTypes(ctx, branchID)
	if err != nil {
		return nil, apperr.Wrap(err, "list room types")
	}
	byID := make(map[uint]*models.RoomType, len(types))
	for i := range types {
		byID[types[i].ID] = &types[i]
	}
	out := make([]RoomResponse, 0, len(rooms))
	for i := range rooms {
		res := NewRoomResponse(&rooms[i])
		if rt, ok := byID[rooms[i].RoomTypeID]; ok {
			t := NewRoomTypeResponse(rt)
			res.RoomType = &t
		}
		out = append(out, res)
	}
	return out, nil
}

// typeInBranch loads a room type and checks it belongs to branchID.
func typeInBranch(ctx context.Context, st store.RoomStore, id, branchID uint) (*models.RoomType, error) {
	rt, err := st.GetRoomType(ctx, id)
	if err != nil {
		return nil, httpx.StoreError(err, "room type")
	}
	if rt.BranchID != branchID {
		return nil, apperr.Field("roomTypeId", "room type belongs to another branch")
	}
	return rt, nil
}

// GET /api/room-types
func ListRoomTypesHandler(st Store) fiber.Handler {
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
			return c.JSON([]RoomTypeResponse{})
		}

		types, err := st.ListRoomTypes(c.UserContext(), *scope)
		if err != nil {
			return apperr.Wrap(err, "list room types")
		}
		res := make([]RoomTypeResponse, 0, len(types))
		for i := range types {
			res = append(res, NewRoomTypeResponse(&types[i]))
		}
		return c.JSON(res)
	}
}

// POST /api/room-types
func CreateRoomTypeHandler(st Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		var body CreateRoomTypeRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		if !body.BaseRate.IsPositive() {
			return apperr.Field("baseRate", "must be greater than zero")
		}
		branchID, err := access.WriteScope(actx, body.BranchID)
		if err != nil {
			return err
		}

		rt := models.RoomType{
			BranchID:     branchID,
			Name:         strings.TrimSpace(body.Name),
			Description:  body.Description,
			BaseRate:     body.BaseRate.Round(2),
			MaxOccupancy: body.MaxOccupancy,
			Amenities:    datatypes.JSONSlice[string](body.Amenities),
		}
		if err := st.CreateRoomType(c.UserContext(), &rt); err != nil {
			return httpx.StoreError(err, "room type")
		}
		return c.Status(fiber.StatusCreated).JSON(NewRoomTypeResponse(&rt))
	}
}

// GET /api/rooms?branchId&status
func ListRoomsHandler(st Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		requested, err := httpx.BranchQuery(c)
		if err != nil {
			return err
		}
		status := models.RoomStatus(c.Query("status"))
		if status != "" && !status.Valid() {
			return apperr.Field("status", "unknown room status")
		}
		scope := access.ResolveScope(actx, requested)
		if scope == nil {
			return c.JSON([]RoomResponse{})
		}

		rooms, err := st.ListRooms(c.UserContext(), *scope, status)
		if err != nil {
			return apperr.Wrap(err, "list rooms")
		}
		res, err := withTypes(c.UserContext(), st, *scope, rooms)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// POST /api/rooms
func CreateRoomHandler(st Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		var body CreateRoomRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		if body.Status == "" {
			body.Status = models.RoomAvailable
		}
		if !body.Status.Valid() {
			return apperr.Field("status", "unknown room status")
		}
		branchID, err := access.WriteScope(actx, body.BranchID)
		if err != nil {
			return err
		}
		if _, err := typeInBranch(c.UserContext(), st, body.RoomTypeID, branchID); err != nil {
			return err
		}

		room := models.Room{
			BranchID:   branchID,
			Number:     strings.TrimSpace(body.Number),
			Floor:      body.Floor,
			RoomTypeID: body.RoomTypeID,
			Status:     body.Status,
			Notes:      body.Notes,
		}
		if err := st.CreateRoom(c.UserContext(), &room); err != nil {
			return httpx.StoreError(err, "room "+room.Number)
		}
		return c.Status(fiber.StatusCreated).JSON(NewRoomResponse(&room))
	}
}

// PUT /api/rooms/:id
// A status-only change needs update_room_status; anything else manage_rooms.
func UpdateRoomHandler(st Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateRoomRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		want := access.ManageRooms
		if body.onlyStatus() {
			want = access.UpdateRoomStatus
		}
		if err := access.Require(actx, want); err != nil {
			return err
		}

		room, err := st.GetRoom(c.UserContext(), id)
		if err != nil {
			return httpx.StoreError(err, "room")
		}
		if err := access.CheckBranch(actx, room.BranchID); err != nil {
			return err
		}

		if body.Number != nil {
			number := strings.TrimSpace(*body.Number)
			if number == "" {
				return apperr.Field("number", "must not be empty")
			}
			room.Number = number
		}
		if body.Floor != nil {
			room.Floor = *body.Floor
		}
		if body.RoomTypeID != nil {
			if _, err := typeInBranch(c.UserContext(), st, *body.RoomTypeID, room.BranchID); err != nil {
				return err
			}
			room.RoomTypeID = *body.RoomTypeID
		}
		if body.Status != nil {
			if !body.Status.Valid() {
				return apperr.Field("status", "unknown room status")
			}
			room.Status = *body.Status
		}
		if body.Notes != nil {
			room.Notes = *body.Notes
		}

		if err := st.UpdateRoom(c.UserContext(), room); err != nil {
			return httpx.StoreError(err, "room "+room.Number)
		}
		return c.JSON(NewRoomResponse(room))
	}
}

// GET /api/rooms/available?branchId&checkIn&checkOut
func AvailableRoomsHandler(st Store) fiber.Handler {
	engine := availability.New(st)
	return func(c *fiber.Ctx) error {
		actx, err := auth.Identity(c)
		if err != nil {
			return err
		}
		requested, err := httpx.BranchQuery(c)
		if err != nil {
			return err
		}
		iv, err := httpx.StayQuery(c)
		if err != nil {
			return err
		}
		scope := access.ResolveScope(actx, requested)
		if scope == nil {
			return c.JSON([]RoomResponse{})
		}

		rooms, err := engine.Available(c.UserContext(), *scope, iv)
		if err != nil {
			return apperr.Wrap(err, "search availability")
		}
		res, err := withTypes(c.UserContext(), st, *scope, rooms)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}
