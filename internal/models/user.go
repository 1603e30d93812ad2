package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the kind of account a user holds.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
)

// User represents a marketplace account. Only the fields needed to route push
// notifications are kept here.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name      string    `json:"name" gorm:"type:varchar(255)"`
	Phone     string    `json:"phone" gorm:"type:varchar(15);index"`
	Role      Role      `json:"role" gorm:"type:varchar(10);not null" validate:"required,oneof=customer seller"`
	FCMToken  string    `json:"-" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Shop is a seller's storefront. Every product and order belongs to one shop.
// A null CommissionRate means new products take the pricing policy default.
type Shop struct {
	ID             string              `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	OwnerID        string              `json:"owner_id" gorm:"uniqueIndex;type:varchar(36);not null" validate:"required"`
	Name           string              `json:"name" gorm:"type:varchar(255);not null" validate:"required,min=3,max=255"`
	ContactNumber  string              `json:"contact_number" gorm:"type:varchar(15)"`
	CommissionRate decimal.NullDecimal `json:"commission_rate" gorm:"type:decimal(5,4)"`
	IsActive       bool                `json:"is_active" gorm:"not null"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}
