package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account in the system
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name         string `gorm:"type:varchar(255)" json:"name"`
	Email        string `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Avatar       string `gorm:"type:varchar(512)" json:"avatar,omitempty"`
	PasswordHash string `gorm:"type:varchar(255)" json:"-"`

	// Relationships
	Memberships []Membership `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
}
