package models

import "time"

// Guest records are shared by all branches; stays are tracked per reservation.
type Guest struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	FirstName   string     `gorm:"size:100;not null" json:"firstName"`
	LastName    string     `gorm:"size:100;not null" json:"lastName"`
	Email       string     `gorm:"size:100;not null;index" json:"email"`
	Phone       string     `gorm:"size:50;not null" json:"phone"`
	Address     string     `gorm:"size:255" json:"address"`
	IDNumber    string     `gorm:"size:100" json:"idNumber"`
	IDType      string     `gorm:"size:30" json:"idType"` // passport, driver_license, national_id
	DateOfBirth *time.Time `json:"dateOfBirth"`
	Nationality string     `gorm:"size:100" json:"nationality"`
	TotalStays  int        `gorm:"not null;default:0" json:"totalStays"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (g Guest) FullName() string {
	return g.FirstName + " " + g.LastName
}
