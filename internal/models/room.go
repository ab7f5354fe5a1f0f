package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomOccupied    RoomStatus = "occupied"
	RoomMaintenance RoomStatus = "maintenance"
	RoomCleaning    RoomStatus = "cleaning"
)

func (s RoomStatus) Valid() bool {
	switch s {
	case RoomAvailable, RoomOccupied, RoomMaintenance, RoomCleaning:
		return true
	}
	return false
}

type RoomType struct {
	ID           uint                        `gorm:"primaryKey" json:"id"`
	BranchID     uint                        `gorm:"index;not null" json:"branchId"`
	Name         string                      `gorm:"size:100;not null" json:"name"`
	Description  string                      `gorm:"size:500" json:"description"`
	BaseRate     decimal.Decimal             `gorm:"type:numeric(10,2);not null" json:"baseRate"`
	MaxOccupancy int                         `gorm:"not null" json:"maxOccupancy"`
	Amenities    datatypes.JSONSlice[string] `json:"amenities"`
	CreatedAt    time.Time                   `json:"createdAt"`
	UpdatedAt    time.Time                   `json:"updatedAt"`
}

// Room: room number is unique within a branch, and RoomTypeID must point to a
// room type of the same branch.
type Room struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	BranchID   uint       `gorm:"not null;uniqueIndex:idx_rooms_branch_number" json:"branchId"`
	Number     string     `gorm:"size:20;not null;uniqueIndex:idx_rooms_branch_number" json:"number"`
	Floor      int        `gorm:"not null" json:"floor"`
	RoomTypeID uint       `gorm:"index;not null" json:"roomTypeId"`
	Status     RoomStatus `gorm:"size:20;not null;index" json:"status"`
	Notes      string     `gorm:"size:500" json:"notes"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}
