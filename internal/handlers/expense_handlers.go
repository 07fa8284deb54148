package handlers

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"collocshare/internal/balance"
	"collocshare/internal/models"
	"collocshare/internal/services"
)

type ExpenseHandler struct {
	db    *gorm.DB
	cache *services.RedisCache
}

func NewExpenseHandler(db *gorm.DB, cache *services.RedisCache) *ExpenseHandler {
	return &ExpenseHandler{db: db, cache: cache}
}

type expenseShareRequest struct {
	UserID uint   `json:"userId"`
	Amount Amount `json:"amount"`
}

type createExpenseRequest struct {
	Amount      Amount                `json:"amount"`
	Description string                `json:"description"`
	Category    string                `json:"category"`
	Date        *time.Time            `json:"date"`
	SplitType   models.SplitType      `json:"splitType"`
	Shares      []expenseShareRequest `json:"shares"`
}

type updateExpenseRequest struct {
	Amount      *Amount               `json:"amount"`
	Description *string               `json:"description"`
	Category    *string               `json:"category"`
	Date        *time.Time            `json:"date"`
	Shares      []expenseShareRequest `json:"shares"`
}

// ListExpenses returns a colocation's expenses, newest first
func (h *ExpenseHandler) ListExpenses(c echo.Context) error {
	colocationID, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	if _, err := requireMembership(c, h.db, colocationID); err != nil {
		return err
	}

	var expenses []models.Expense
	err = h.db.Preload("PaidBy").Preload("Participants.User").
		Where("colocation_id = ?", colocationID).
		Order("date DESC, id DESC").
		Find(&expenses).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch expenses")
	}

	return c.JSON(http.StatusOK, map[string]any{"expenses": expenses})
}

// CreateExpense records an expense paid by the caller. EQUAL splits divide
// the amount across the active roster; CUSTOM splits take explicit shares
// that must add up to the expense amount.
func (h *ExpenseHandler) CreateExpense(c echo.Context) error {
	colocationID, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	if _, err := requireMembership(c, h.db, colocationID); err != nil {
		return err
	}

	var req createExpenseRequest
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
	if req.SplitType == "" {
		req.SplitType = models.SplitTypeEqual
	}
	if req.SplitType != models.SplitTypeEqual && req.SplitType != models.SplitTypeCustom {
		return echo.NewHTTPError(http.StatusBadRequest, "Split type must be EQUAL or CUSTOM")
	}

	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}

	payerID := currentUserID(c)
	members, err := activeMembers(h.db, colocationID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch members")
	}

	participants, err := buildParticipants(req, amount, payerID, members)
	if err != nil {
		return err
	}

	expense := models.Expense{
		ColocationID: colocationID,
		PaidByID:     payerID,
		Amount:       balance.Round(amount),
		Description:  req.Description,
		Category:     req.Category,
		Date:         date,
		SplitType:    req.SplitType,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&expense).Error; err != nil {
			return err
		}
		for i := range participants {
			participants[i].ExpenseID = expense.ID
		}
		return tx.Create(&participants).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create expense")
	}

	h.invalidateBalance(c, colocationID)

	expense.Participants = participants
	return c.JSON(http.StatusCreated, map[string]any{
		"message": "Expense created",
		"expense": expense,
	})
}

// GetExpense returns one expense with participants
func (h *ExpenseHandler) GetExpense(c echo.Context) error {
	expense, err := h.loadExpense(c)
	if err != nil {
		return err
	}
	if _, err := requireMembership(c, h.db, expense.ColocationID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"expense": expense})
}

// UpdateExpense updates an expense. Changing the amount of an EQUAL split
// rescales the shares automatically; changing a CUSTOM split's amount
// requires resubmitting shares, which replace the old ones in a tx.
func (h *ExpenseHandler) UpdateExpense(c echo.Context) error {
	expense, err := h.loadExpense(c)
	if err != nil {
		return err
	}
	if err := h.requirePayerOrAdmin(c, expense); err != nil {
		return err
	}

	var req updateExpenseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	if req.Description != nil {
		if *req.Description == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "Description cannot be empty")
		}
		expense.Description = *req.Description
	}
	if req.Category != nil {
		expense.Category = *req.Category
	}
	if req.Date != nil {
		expense.Date = *req.Date
	}
	if req.Amount != nil {
		newAmount := float64(*req.Amount)
		if newAmount <= 0 || math.IsNaN(newAmount) || math.IsInf(newAmount, 0) {
			return echo.NewHTTPError(http.StatusBadRequest, "Amount must be a positive number")
		}
		if expense.SplitType == models.SplitTypeCustom && len(req.Shares) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest,
				"Changing the amount of a custom split requires resubmitting the shares")
		}
		expense.Amount = balance.Round(newAmount)
	}

	var replacement []models.ExpenseParticipant
	switch {
	case len(req.Shares) > 0:
		members, err := activeMembers(h.db, expense.ColocationID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch members")
		}
		shareReq := createExpenseRequest{SplitType: models.SplitTypeCustom, Shares: req.Shares}
		replacement, err = buildParticipants(shareReq, expense.Amount, expense.PaidByID, members)
		if err != nil {
			return err
		}
		expense.SplitType = models.SplitTypeCustom
	case req.Amount != nil && expense.SplitType == models.SplitTypeEqual:
		replacement = equalShares(expense.Amount, expense.PaidByID, participantIDs(expense.Participants))
	}
	for i := range replacement {
		replacement[i].ExpenseID = expense.ID
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if replacement != nil {
			if err := tx.Where("expense_id = ?", expense.ID).Delete(&models.ExpenseParticipant{}).Error; err != nil {
				return err
			}
			if err := tx.Create(&replacement).Error; err != nil {
				return err
			}
			expense.Participants = replacement
		}
		return tx.Save(expense).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update expense")
	}

	h.invalidateBalance(c, expense.ColocationID)

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Expense updated",
		"expense": expense,
	})
}

// DeleteExpense soft-deletes an expense and its shares
func (h *ExpenseHandler) DeleteExpense(c echo.Context) error {
	expense, err := h.loadExpense(c)
	if err != nil {
		return err
	}
	if err := h.requirePayerOrAdmin(c, expense); err != nil {
		return err
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expense_id = ?", expense.ID).Delete(&models.ExpenseParticipant{}).Error; err != nil {
			return err
		}
		return tx.Delete(expense).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete expense")
	}

	h.invalidateBalance(c, expense.ColocationID)

	return c.JSON(http.StatusOK, map[string]string{"message": "Expense deleted"})
}

func (h *ExpenseHandler) loadExpense(c echo.Context) (*models.Expense, error) {
	id, err := paramUint(c, "expenseId")
	if err != nil {
		return nil, err
	}

	var expense models.Expense
	err = h.db.Preload("PaidBy").Preload("Participants.User").First(&expense, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Expense not found")
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch expense")
	}
	return &expense, nil
}

// requirePayerOrAdmin lets the payer or a colocation admin modify an expense
func (h *ExpenseHandler) requirePayerOrAdmin(c echo.Context, expense *models.Expense) error {
	membership, err := requireMembership(c, h.db, expense.ColocationID)
	if err != nil {
		return err
	}
	if expense.PaidByID != currentUserID(c) && membership.Role != models.MembershipRoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "Only the payer or an administrator can modify this expense")
	}
	return nil
}

func (h *ExpenseHandler) invalidateBalance(c echo.Context, colocationID uint) {
	_ = h.cache.Delete(c.Request().Context(), services.BalanceCacheKey(colocationID))
}

// buildParticipants derives the share rows for a new expense
func buildParticipants(req createExpenseRequest, amount float64, payerID uint, members []models.Membership) ([]models.ExpenseParticipant, error) {
	if req.SplitType == models.SplitTypeEqual {
		ids := make([]uint, 0, len(members))
		for _, m := range members {
			ids = append(ids, m.UserID)
		}
		if len(ids) == 0 {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "The colocation has no active members")
		}
		return equalShares(amount, payerID, ids), nil
	}

	if len(req.Shares) == 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Custom splits require at least one share")
	}

	active := make(map[uint]bool, len(members))
	for _, m := range members {
		active[m.UserID] = true
	}

	participants := make([]models.ExpenseParticipant, 0, len(req.Shares))
	seen := make(map[uint]bool, len(req.Shares))
	total := 0.0
	for _, s := range req.Shares {
		share := float64(s.Amount)
		if share < 0 || math.IsNaN(share) || math.IsInf(share, 0) {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "Shares must be non-negative numbers")
		}
		if !active[s.UserID] {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "All shares must belong to active members")
		}
		if seen[s.UserID] {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "Duplicate share for the same member")
		}
		seen[s.UserID] = true
		total += share
		participants = append(participants, models.ExpenseParticipant{
			UserID: s.UserID,
			Amount: balance.Round(share),
			IsPaid: s.UserID == payerID,
		})
	}

	if math.Abs(total-amount) >= balance.Epsilon {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Shares must add up to the expense amount")
	}
	return participants, nil
}

// equalShares splits an amount evenly, absorbing rounding residue into the
// last share so the shares always add up to the amount.
func equalShares(amount float64, payerID uint, userIDs []uint) []models.ExpenseParticipant {
	n := len(userIDs)
	base := balance.Round(amount / float64(n))
	participants := make([]models.ExpenseParticipant, 0, n)
	remaining := amount
	for i, id := range userIDs {
		share := base
		if i == n-1 {
			share = balance.Round(remaining)
		}
		remaining -= share
		participants = append(participants, models.ExpenseParticipant{
			UserID: id,
			Amount: share,
			IsPaid: id == payerID,
		})
	}
	return participants
}

func participantIDs(participants []models.ExpenseParticipant) []uint {
	ids := make([]uint, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.UserID)
	}
	return ids
}
