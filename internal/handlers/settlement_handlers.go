package handlers

import (
	"math"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"collocshare/internal/balance"
	"collocshare/internal/models"
	"collocshare/internal/services"
)

type SettlementHandler struct {
	db    *gorm.DB
	cache *services.RedisCache
}

func NewSettlementHandler(db *gorm.DB, cache *services.RedisCache) *SettlementHandler {
	return &SettlementHandler{db: db, cache: cache}
}

type createSettlementRequest struct {
	FromUserID  uint   `json:"fromUserId"`
	ToUserID    uint   `json:"toUserId"`
	Amount      Amount `json:"amount"`
	Description string `json:"description"`
}

// ListSettlements returns a colocation's settlement history, newest first
func (h *SettlementHandler) ListSettlements(c echo.Context) error {
	colocationID, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	if _, err := requireMembership(c, h.db, colocationID); err != nil {
		return err
	}

	var settlements []models.Settlement
	err = h.db.Preload("FromUser").Preload("ToUser").
		Where("colocation_id = ?", colocationID).
		Order("created_at DESC, id DESC").
		Find(&settlements).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch settlements")
	}

	return c.JSON(http.StatusOK, map[string]any{"settlements": settlements})
}

// CreateSettlement records a reimbursement between two members. Settlements
// are append-only: they cannot be edited or removed once recorded, and
// posting the same transfer twice counts it twice.
func (h *SettlementHandler) CreateSettlement(c echo.Context) error {
	colocationID, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	if _, err := requireMembership(c, h.db, colocationID); err != nil {
		return err
	}

	var req createSettlementRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	amount := float64(req.Amount)
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return echo.NewHTTPError(http.StatusBadRequest, "Amount must be a positive number")
	}
	if req.FromUserID == req.ToUserID {
		return echo.NewHTTPError(http.StatusBadRequest, "A settlement needs two distinct members")
	}

	members, err := activeMembers(h.db, colocationID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch members")
	}
	active := make(map[uint]bool, len(members))
	for _, m := range members {
		active[m.UserID] = true
	}
	if !active[req.FromUserID] || !active[req.ToUserID] {
		return echo.NewHTTPError(http.StatusBadRequest, "Both members must be active members of the colocation")
	}

	settlement := models.Settlement{
		ColocationID: colocationID,
		FromUserID:   req.FromUserID,
		ToUserID:     req.ToUserID,
		Amount:       balance.Round(amount),
		Description:  req.Description,
	}
	if err := h.db.Create(&settlement).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to record settlement")
	}

	_ = h.cache.Delete(c.Request().Context(), services.BalanceCacheKey(colocationID))

	return c.JSON(http.StatusCreated, map[string]any{
		"message":    "Settlement recorded",
		"settlement": settlement,
	})
}
