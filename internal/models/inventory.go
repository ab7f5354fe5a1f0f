package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InventoryCategoryType string

const (
	HotelSupplies      InventoryCategoryType = "hotel_supplies"
	RestaurantSupplies InventoryCategoryType = "restaurant_supplies"
)

type InventoryCategory struct {
	ID          uint                  `gorm:"primaryKey" json:"id"`
	BranchID    uint                  `gorm:"index;not null" json:"branchId"`
	Name        string                `gorm:"size:100;not null" json:"name"`
	Description string                `gorm:"size:500" json:"description"`
	Type        InventoryCategoryType `gorm:"size:30;not null" json:"type"`
}

type InventoryItem struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	BranchID      uint            `gorm:"index;not null" json:"branchId"`
	CategoryID    uint            `gorm:"index;not null" json:"categoryId"`
	Name          string          `gorm:"size:100;not null" json:"name"`
	Description   string          `gorm:"size:500" json:"description"`
	Unit          string          `gorm:"size:20;not null" json:"unit"` // pcs, kg, ltr
	CurrentStock  decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"currentStock"`
	MinStock      decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"minStock"`
	MaxStock      decimal.Decimal `gorm:"type:numeric(12,3)" json:"maxStock"`
	CostPerUnit   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"costPerUnit"`
	Supplier      string          `gorm:"size:100" json:"supplier"`
	LastRestocked *time.Time      `json:"lastRestocked"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (i InventoryItem) LowStock() bool {
	return i.CurrentStock.LessThanOrEqual(i.MinStock)
}
