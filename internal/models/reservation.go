package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationConfirmed  ReservationStatus = "confirmed"
	ReservationCheckedIn  ReservationStatus = "checked_in"
	ReservationCheckedOut ReservationStatus = "checked_out"
	ReservationCancelled  ReservationStatus = "cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationConfirmed, ReservationCheckedIn, ReservationCheckedOut, ReservationCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationCheckedOut || s == ReservationCancelled
}

// Reservation: CheckInDate/CheckOutDate are calendar dates (UTC midnight) and
// form the half-open stay [CheckInDate, CheckOutDate).
type Reservation struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	GuestID        uint              `gorm:"index;not null" json:"guestId"`
	RoomID         uint              `gorm:"index;not null" json:"roomId"`
	BranchID       uint              `gorm:"index;not null" json:"branchId"`
	CheckInDate    time.Time         `gorm:"type:date;not null;index" json:"checkInDate"`
	CheckOutDate   time.Time         `gorm:"type:date;not null" json:"checkOutDate"`
	ActualCheckIn  *time.Time        `json:"actualCheckIn"`
	ActualCheckOut *time.Time        `json:"actualCheckOut"`
	Adults         int               `gorm:"not null" json:"adults"`
	Children       int               `gorm:"not null" json:"children"`
	Status         ReservationStatus `gorm:"size:20;not null;index" json:"status"`
	TotalAmount    decimal.Decimal   `gorm:"type:numeric(10,2);not null" json:"totalAmount"`
	PaidAmount     decimal.Decimal   `gorm:"type:numeric(10,2);not null" json:"paidAmount"`
	Notes          string            `gorm:"size:1000" json:"notes"`
	CreatedBy      uint              `gorm:"not null" json:"createdBy"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Balance is what is still owed on the stay.
func (r Reservation) Balance() decimal.Decimal {
	return r.TotalAmount.Sub(r.PaidAmount)
}
