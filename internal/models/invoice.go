package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "pending"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentCash          PaymentMethod = "cash"
	PaymentCard          PaymentMethod = "card"
	PaymentDigitalWallet PaymentMethod = "digital_wallet"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard || m == PaymentDigitalWallet
}

type InvoiceLine struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

type Invoice struct {
	ID            uint                             `gorm:"primaryKey" json:"id"`
	InvoiceNumber string                           `gorm:"size:50;not null;uniqueIndex" json:"invoiceNumber"`
	ReservationID *uint                            `gorm:"index" json:"reservationId"`
	GuestID       uint                             `gorm:"index;not null" json:"guestId"`
	BranchID      uint                             `gorm:"index;not null" json:"branchId"`
	Items         datatypes.JSONSlice[InvoiceLine] `gorm:"not null" json:"items"`
	Subtotal      decimal.Decimal                  `gorm:"type:numeric(10,2);not null" json:"subtotal"`
	Tax           decimal.Decimal                  `gorm:"type:numeric(10,2);not null" json:"tax"`
	Total         decimal.Decimal                  `gorm:"type:numeric(10,2);not null" json:"total"`
	Status        InvoiceStatus                    `gorm:"size:20;not null;index" json:"status"`
	DueDate       time.Time                        `gorm:"type:date;not null" json:"dueDate"`
	PaidDate      *time.Time                       `json:"paidDate"`
	PaymentMethod PaymentMethod                    `gorm:"size:20" json:"paymentMethod"`
	Notes         string                           `gorm:"size:1000" json:"notes"`
	CreatedBy     uint                             `gorm:"not null" json:"createdBy"`
	CreatedAt     time.Time                        `json:"createdAt"`
	UpdatedAt     time.Time                        `json:"updatedAt"`
}
