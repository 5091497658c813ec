package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a saved delivery destination. Orders copy it by value at
// submission time so later edits never alter order history.
type Address struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Title        string    `gorm:"column:title;not null"`
	FullName     string    `gorm:"column:full_name;not null"`
	Phone        string    `gorm:"column:phone;not null"`
	City         string    `gorm:"column:city;not null"`
	District     string    `gorm:"column:district;not null"`
	Neighborhood string    `gorm:"column:neighborhood;not null"`
	FullAddress  string    `gorm:"column:full_address;not null"`
	IsDefault    bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// AddressSnapshot is the by-value copy embedded into orders.
type AddressSnapshot struct {
	Title        string `gorm:"column:title" json:"title"`
	FullName     string `gorm:"column:full_name" json:"full_name"`
	Phone        string `gorm:"column:phone" json:"phone"`
	City         string `gorm:"column:city" json:"city"`
	District     string `gorm:"column:district" json:"district"`
	Neighborhood string `gorm:"column:neighborhood" json:"neighborhood"`
	FullAddress  string `gorm:"column:full_address" json:"full_address"`
}

// Snapshot copies the address by value.
func (a Address) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		Title:        a.Title,
		FullName:     a.FullName,
		Phone:        a.Phone,
		City:         a.City,
		District:     a.District,
		Neighborhood: a.Neighborhood,
		FullAddress:  a.FullAddress,
	}
}
