package models

import (
	"time"

	"gorm.io/gorm"
)

// ShoppingItem is an entry on a colocation's shared shopping list
type ShoppingItem struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ColocationID     uint       `gorm:"index" json:"colocation_id"`
	UserID           uint       `gorm:"index" json:"user_id"`
	Name             string     `gorm:"type:varchar(255)" json:"name"`
	Quantity         int        `gorm:"default:1" json:"quantity"`
	Unit             string     `gorm:"type:varchar(50)" json:"unit,omitempty"`
	Price            *float64   `gorm:"type:decimal(12,2)" json:"price,omitempty"`
	Category         string     `gorm:"type:varchar(100)" json:"category,omitempty"`
	Shared           bool       `gorm:"default:false" json:"shared"`
	NeedVerification bool       `gorm:"default:false" json:"need_verification"`
	Purchased        bool       `gorm:"default:false" json:"purchased"`
	PurchasedByID    *uint      `json:"purchased_by_id,omitempty"`
	PurchasedAt      *time.Time `json:"purchased_at,omitempty"`

	// Relationships
	User        User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PurchasedBy *User `gorm:"foreignKey:PurchasedByID" json:"purchased_by,omitempty"`
}
