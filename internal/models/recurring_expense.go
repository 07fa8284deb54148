package models

import (
	"time"

	"github.com/teambition/rrule-go"
	"gorm.io/gorm"
)

// RecurringExpense is a template for expenses that repeat on an RFC 5545
// RRULE schedule (rent, utilities). The worker materializes a regular
// Expense for each occurrence.
type RecurringExpense struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ColocationID uint      `gorm:"index" json:"colocation_id"`
	PaidByID     uint      `json:"paid_by_id"`
	Amount       float64   `gorm:"type:decimal(12,2)" json:"amount"`
	Description  string    `gorm:"type:varchar(255)" json:"description"`
	Category     string    `gorm:"type:varchar(100)" json:"category"`
	SplitType    SplitType `gorm:"type:varchar(20);default:'EQUAL'" json:"split_type"`
	StartDate    time.Time `json:"start_date"`
	RRule        string    `gorm:"type:text" json:"rrule"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`

	ScheduledTaskID *uint          `json:"scheduled_task_id,omitempty"`
	ScheduledTask   *ScheduledTask `gorm:"foreignKey:ScheduledTaskID" json:"scheduled_task,omitempty"`

	// Relationships
	PaidBy     User       `gorm:"foreignKey:PaidByID" json:"paid_by,omitempty"`
	Colocation Colocation `gorm:"foreignKey:ColocationID" json:"colocation,omitempty"`
}

// NextOccurrence calculates the next date the expense should be created
func (r RecurringExpense) NextOccurrence() time.Time {
	return r.nextOccurrenceFrom(time.Now())
}

func (r RecurringExpense) nextOccurrenceFrom(now time.Time) time.Time {
	if r.RRule != "" {
		rule, err := rrule.StrToRRule(r.RRule)
		if err == nil {
			rule.DTStart(r.StartDate)
			// strictly after, so an occurrence at the query instant is
			// not materialized twice
			next := rule.After(now, false)
			if !next.IsZero() {
				return next
			}
		}
	}
	// Fallback to the start date if parsing fails
	return r.StartDate
}
