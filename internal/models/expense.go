package models

import (
	"time"

	"gorm.io/gorm"
)

// SplitType represents how an expense is divided between participants
type SplitType string

const (
	SplitTypeEqual  SplitType = "EQUAL"
	SplitTypeCustom SplitType = "CUSTOM"
)

// Expense represents a monetary event paid by one member on behalf of the
// colocation. Amounts are major-unit decimals (euros, two decimals).
type Expense struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ColocationID uint      `gorm:"index" json:"colocation_id"`
	PaidByID     uint      `gorm:"index" json:"paid_by_id"`
	Amount       float64   `gorm:"type:decimal(12,2)" json:"amount"`
	Description  string    `gorm:"type:varchar(255)" json:"description"`
	Category     string    `gorm:"type:varchar(100)" json:"category"`
	Date         time.Time `gorm:"index" json:"date"`
	SplitType    SplitType `gorm:"type:varchar(20);default:'EQUAL'" json:"split_type"`

	// Relationships
	PaidBy       User                 `gorm:"foreignKey:PaidByID" json:"paid_by,omitempty"`
	Participants []ExpenseParticipant `gorm:"foreignKey:ExpenseID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
}

// ExpenseParticipant is one member's share of an expense. IsPaid marks a
// share settled through the expense record itself, distinct from the
// settlement ledger.
type ExpenseParticipant struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ExpenseID uint    `gorm:"index" json:"expense_id"`
	UserID    uint    `gorm:"index" json:"user_id"`
	Amount    float64 `gorm:"type:decimal(12,2)" json:"amount"`
	IsPaid    bool    `gorm:"default:false" json:"is_paid"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
