package models

import (
	"time"

	"gorm.io/gorm"
)

// InvitationStatus represents the lifecycle state of an invitation
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusExpired  InvitationStatus = "expired"
)

// Invitation is an emailed offer to join a colocation, identified by a
// single-use token
type Invitation struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ColocationID uint             `gorm:"index" json:"colocation_id"`
	Email        string           `gorm:"type:varchar(255);index" json:"email"`
	Token        string           `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	Status       InvitationStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	ExpiresAt    time.Time        `json:"expires_at"`

	// Relationships
	Colocation Colocation `gorm:"foreignKey:ColocationID" json:"colocation,omitempty"`
}

// IsUsable reports whether the invitation can still be accepted
func (i Invitation) IsUsable(now time.Time) bool {
	return i.Status == InvitationStatusPending && now.Before(i.ExpiresAt)
}
