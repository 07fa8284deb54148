package models

import (
	"time"

	"gorm.io/gorm"
)

// Colocation represents a shared household
type Colocation struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name    string `gorm:"type:varchar(255)" json:"name"`
	Address string `gorm:"type:varchar(512)" json:"address"`

	// Relationships
	Memberships []Membership `gorm:"foreignKey:ColocationID" json:"memberships,omitempty"`
	Expenses    []Expense    `gorm:"foreignKey:ColocationID" json:"expenses,omitempty"`
}
