package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type MenuCategory struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	BranchID    uint   `gorm:"index;not null" json:"branchId"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"size:500" json:"description"`
	Active      bool   `gorm:"not null" json:"active"`
	SortOrder   int    `gorm:"not null" json:"sortOrder"`
}

type MenuItem struct {
	ID              uint                        `gorm:"primaryKey" json:"id"`
	BranchID        uint                        `gorm:"index;not null" json:"branchId"`
	CategoryID      uint                        `gorm:"index;not null" json:"categoryId"`
	Name            string                      `gorm:"size:100;not null" json:"name"`
	Description     string                      `gorm:"size:500" json:"description"`
	Price           decimal.Decimal             `gorm:"type:numeric(10,2);not null" json:"price"`
	Available       bool                        `gorm:"not null" json:"available"`
	PreparationTime *int                        `json:"preparationTime"` // minutes
	Ingredients     datatypes.JSONSlice[string] `json:"ingredients"`
}

type OrderType string

const (
	OrderRoomService OrderType = "room_service"
	OrderDineIn      OrderType = "dine_in"
	OrderTakeaway    OrderType = "takeaway"
)

func (t OrderType) Valid() bool {
	return t == OrderRoomService || t == OrderDineIn || t == OrderTakeaway
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderServed    OrderStatus = "served"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderLine is a snapshot of a menu item at order time.
type OrderLine struct {
	ItemID   uint            `json:"itemId"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Notes    string          `json:"notes,omitempty"`
}

type RestaurantOrder struct {
	ID          uint                           `gorm:"primaryKey" json:"id"`
	OrderNumber string                         `gorm:"size:50;not null;uniqueIndex" json:"orderNumber"`
	BranchID    uint                           `gorm:"index;not null" json:"branchId"`
	GuestID     *uint                          `gorm:"index" json:"guestId"`
	RoomID      *uint                          `json:"roomId"`
	OrderType   OrderType                      `gorm:"size:20;not null" json:"orderType"`
	Status      OrderStatus                    `gorm:"size:20;not null;index" json:"status"`
	Items       datatypes.JSONSlice[OrderLine] `gorm:"not null" json:"items"`
	Subtotal    decimal.Decimal                `gorm:"type:numeric(10,2);not null" json:"subtotal"`
	Tax         decimal.Decimal                `gorm:"type:numeric(10,2);not null" json:"tax"`
	Total       decimal.Decimal                `gorm:"type:numeric(10,2);not null" json:"total"`
	Notes       string                         `gorm:"size:1000" json:"notes"`
	CreatedBy   uint                           `gorm:"not null" json:"createdBy"`
	CreatedAt   time.Time                      `json:"createdAt"`
	UpdatedAt   time.Time                      `json:"updatedAt"`
}
