package models

import (
	"time"

	"gorm.io/gorm"
)

// MembershipRole represents a member's role inside a colocation
type MembershipRole string

const (
	MembershipRoleAdmin  MembershipRole = "ADMIN"
	MembershipRoleMember MembershipRole = "MEMBER"
)

// Membership links a user to a colocation. Leaving sets LeftAt instead of
// deleting the row, so historical expenses keep a valid reference.
type Membership struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID       uint           `gorm:"index:idx_membership_user_coloc,priority:1" json:"user_id"`
	ColocationID uint           `gorm:"index:idx_membership_user_coloc,priority:2" json:"colocation_id"`
	Role         MembershipRole `gorm:"type:varchar(20);default:'MEMBER'" json:"role"`
	JoinedAt     time.Time      `json:"joined_at"`
	LeftAt       *time.Time     `json:"left_at,omitempty"`

	// Relationships
	User       User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Colocation Colocation `gorm:"foreignKey:ColocationID" json:"colocation,omitempty"`
}

// IsActive reports whether the member has not left the colocation
func (m Membership) IsActive() bool {
	return m.LeftAt == nil
}
