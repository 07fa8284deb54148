package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Settlement records a real-world reimbursement between two members.
// Rows are append-only facts for balance purposes: there are no update or
// delete paths, and recording the same transfer twice nets it twice.
type Settlement struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ColocationID uint    `gorm:"index" json:"colocation_id"`
	FromUserID   uint    `gorm:"index" json:"from_user_id"`
	ToUserID     uint    `gorm:"index" json:"to_user_id"`
	Amount       float64 `gorm:"type:decimal(12,2)" json:"amount"`
	Description  string  `gorm:"type:varchar(255)" json:"description,omitempty"`
	Reference    string  `gorm:"type:varchar(36);uniqueIndex" json:"reference"`

	// Relationships
	FromUser User `gorm:"foreignKey:FromUserID" json:"from_user,omitempty"`
	ToUser   User `gorm:"foreignKey:ToUserID" json:"to_user,omitempty"`
}

// BeforeCreate assigns an external reference for the settlement
func (s *Settlement) BeforeCreate(tx *gorm.DB) error {
	if s.Reference == "" {
		s.Reference = uuid.New().String()
	}
	return nil
}
