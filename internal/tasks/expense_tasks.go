package tasks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"collocshare/internal/balance"
	"collocshare/internal/logging"
	"collocshare/internal/models"
)

// CreateRecurringExpenseHandler materializes one occurrence of a recurring
// expense template as a regular expense, split equally across whoever is an
// active member at the time the occurrence falls due.
func CreateRecurringExpenseHandler(ctx context.Context, db *gorm.DB, args map[string]interface{}) (map[string]interface{}, error) {
	recurringID, err := uintArg(args, "recurring_expense_id")
	if err != nil {
		return nil, err
	}

	var recurring models.RecurringExpense
	if err := db.WithContext(ctx).First(&recurring, recurringID).Error; err != nil {
		return nil, fmt.Errorf("recurring expense %d: %w", recurringID, err)
	}
	if !recurring.IsActive {
		logging.Logger.WithField("recurring_expense_id", recurringID).
			Info("recurring expense is disabled, skipping occurrence")
		return map[string]interface{}{"skipped": true, "reason": "disabled"}, nil
	}

	var memberships []models.Membership
	err = db.WithContext(ctx).
		Where("colocation_id = ? AND left_at IS NULL", recurring.ColocationID).
		Order("joined_at ASC, id ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, fmt.Errorf("roster for colocation %d: %w", recurring.ColocationID, err)
	}
	if len(memberships) == 0 {
		return map[string]interface{}{"skipped": true, "reason": "no active members"}, nil
	}

	amount := balance.Round(recurring.Amount)
	expense := models.Expense{
		ColocationID: recurring.ColocationID,
		PaidByID:     recurring.PaidByID,
		Amount:       amount,
		Description:  recurring.Description,
		Category:     recurring.Category,
		Date:         time.Now(),
		SplitType:    models.SplitTypeEqual,
	}

	n := len(memberships)
	base := balance.Round(amount / float64(n))
	remaining := amount
	participants := make([]models.ExpenseParticipant, 0, n)
	for i, m := range memberships {
		share := base
		if i == n-1 {
			share = balance.Round(remaining)
		}
		remaining -= share
		participants = append(participants, models.ExpenseParticipant{
			UserID: m.UserID,
			Amount: share,
			IsPaid: m.UserID == recurring.PaidByID,
		})
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&expense).Error; err != nil {
			return err
		}
		for i := range participants {
			participants[i].ExpenseID = expense.ID
		}
		return tx.Create(&participants).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create expense from recurring %d: %w", recurringID, err)
	}

	logging.Logger.WithFields(map[string]interface{}{
		"recurring_expense_id": recurringID,
		"expense_id":           expense.ID,
		"amount":               amount,
	}).Info("recurring expense materialized")

	return map[string]interface{}{
		"expense_id":   expense.ID,
		"amount":       amount,
		"participants": len(participants),
	}, nil
}
