package handlers

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/teambition/rrule-go"
	"gorm.io/gorm"

	"collocshare/internal/balance"
	"collocshare/internal/models"
	"collocshare/internal/tasks"
)

type RecurringExpenseHandler struct {
	db *gorm.DB
}

func NewRecurringExpenseHandler(db *gorm.DB) *RecurringExpenseHandler {
	return &RecurringExpenseHandler{db: db}
}

type createRecurringExpenseRequest struct {
	Amount      Amount     `json:"amount"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	StartDate   *time.Time `json:"startDate"`
	RRule       string     `json:"rrule"`
}

// ListRecurring returns a colocation's recurring expense templates
func (h *RecurringExpenseHandler) ListRecurring(c echo.Context) error {
	colocationID, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	if _, err := requireMembership(c, h.db, colocationID); err != nil {
		return err
	}

	var recurring []models.RecurringExpense
	err = h.db.Preload("PaidBy").Preload("ScheduledTask").
		Where("colocation_id = ?", colocationID).
		Order("created_at DESC").
		Find(&recurring).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch recurring expenses")
	}

	return c.JSON(http.StatusOK, map[string]any{"recurringExpenses": recurring})
}

// CreateRecurring registers a recurring expense template and schedules the
// worker task that materializes its occurrences.
func (h *RecurringExpenseHandler) CreateRecurring(c echo.Context) error {
	colocationID, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	if _, err := requireMembership(c, h.db, colocationID); err != nil {
		return err
	}

	var req createRecurringExpenseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	amount := float64(req.Amount)
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return echo.NewHTTPError(http.StatusBadRequest, "Amount must be a positive number")
	}
	if req.Description == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Description is required")
	}
	if req.RRule == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "A recurrence rule is required")
	}

	startDate := time.Now()
	if req.StartDate != nil {
		startDate = *req.StartDate
	}

	rule, err := rrule.StrToRRule(req.RRule)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid recurrence rule: "+err.Error())
	}
	rule.DTStart(startDate)
	firstDue := rule.After(time.Now(), true)
	if firstDue.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "The recurrence rule has no future occurrences")
	}

	recurring := models.RecurringExpense{
		ColocationID: colocationID,
		PaidByID:     currentUserID(c),
		Amount:       balance.Round(amount),
		Description:  req.Description,
		Category:     req.Category,
		SplitType:    models.SplitTypeEqual,
		StartDate:    startDate,
		RRule:        req.RRule,
		IsActive:     true,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&recurring).Error; err != nil {
			return err
		}

		interval := recurring.RRule
		task, err := tasks.BuildScheduledTask(
			tasks.TaskCreateRecurringExpense,
			map[string]uint{"recurring_expense_id": recurring.ID},
			firstDue,
			&interval,
			models.ScheduledTaskTypeRecurring,
			3,
		)
		if err != nil {
			return err
		}
		if err := tx.Create(task).Error; err != nil {
			return err
		}

		recurring.ScheduledTaskID = &task.ID
		return tx.Model(&recurring).Update("scheduled_task_id", task.ID).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create recurring expense")
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message":          "Recurring expense created",
		"recurringExpense": recurring,
		"nextOccurrence":   firstDue,
	})
}

// DeleteRecurring disables a recurring expense template and its scheduled
// task. Already materialized expenses are untouched.
func (h *RecurringExpenseHandler) DeleteRecurring(c echo.Context) error {
	recurringID, err := paramUint(c, "recurringId")
	if err != nil {
		return err
	}

	var recurring models.RecurringExpense
	err = h.db.First(&recurring, recurringID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Recurring expense not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch recurring expense")
	}

	membership, err := requireMembership(c, h.db, recurring.ColocationID)
	if err != nil {
		return err
	}
	if recurring.PaidByID != currentUserID(c) && membership.Role != models.MembershipRoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "Only the payer or an administrator can delete this recurring expense")
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if recurring.ScheduledTaskID != nil {
			if err := tx.Model(&models.ScheduledTask{}).
				Where("id = ?", *recurring.ScheduledTaskID).
				Update("status", models.ScheduledTaskStatusDisabled).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&recurring).Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Delete(&recurring).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete recurring expense")
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Recurring expense deleted"})
}
