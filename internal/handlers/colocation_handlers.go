package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"collocshare/internal/models"
)

type ColocationHandler struct {
	db *gorm.DB
}

func NewColocationHandler(db *gorm.DB) *ColocationHandler {
	return &ColocationHandler{db: db}
}

type createColocationRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// ListColocations returns the colocations the caller actively belongs to
func (h *ColocationHandler) ListColocations(c echo.Context) error {
	var memberships []models.Membership
	err := h.db.Preload("Colocation").
		Where("user_id = ? AND left_at IS NULL", currentUserID(c)).
		Find(&memberships).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch colocations")
	}

	colocations := make([]models.Colocation, 0, len(memberships))
	for _, m := range memberships {
		colocations = append(colocations, m.Colocation)
	}

	return c.JSON(http.StatusOK, map[string]any{"colocations": colocations})
}

// CreateColocation creates a colocation and its first ADMIN membership
func (h *ColocationHandler) CreateColocation(c echo.Context) error {
	var req createColocationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if len(req.Name) < 2 {
		return echo.NewHTTPError(http.StatusBadRequest, "Name must contain at least 2 characters")
	}
	if len(req.Address) < 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "Address must be valid")
	}

	colocation := models.Colocation{Name: req.Name, Address: req.Address}
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&colocation).Error; err != nil {
			return err
		}
		membership := models.Membership{
			UserID:       currentUserID(c),
			ColocationID: colocation.ID,
			Role:         models.MembershipRoleAdmin,
			JoinedAt:     time.Now(),
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create colocation")
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message":    "Colocation created",
		"colocation": colocation,
	})
}

// GetColocation returns a colocation's details and active members
func (h *ColocationHandler) GetColocation(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	membership, err := requireMembership(c, h.db, id)
	if err != nil {
		return err
	}

	var colocation models.Colocation
	if err := h.db.First(&colocation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Colocation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch colocation")
	}

	members, err := activeMembers(h.db, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch members")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"colocation": colocation,
		"members":    members,
		"isAdmin":    membership.Role == models.MembershipRoleAdmin,
	})
}

// DeleteColocation soft-deletes a colocation (admin only)
func (h *ColocationHandler) DeleteColocation(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	if _, err := requireAdmin(c, h.db, id); err != nil {
		return err
	}

	if err := h.db.Delete(&models.Colocation{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete colocation")
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Colocation deleted"})
}

// RemoveMember marks a member as having left the colocation. Memberships
// are never hard-deleted: historical expenses keep referencing the user.
func (h *ColocationHandler) RemoveMember(c echo.Context) error {
	colocationID, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	memberUserID, err := paramUint(c, "userId")
	if err != nil {
		return err
	}

	if _, err := requireAdmin(c, h.db, colocationID); err != nil {
		return err
	}

	var target models.Membership
	err = h.db.Where("user_id = ? AND colocation_id = ? AND left_at IS NULL", memberUserID, colocationID).
		First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "This member does not exist or already left")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch member")
	}

	if target.Role == models.MembershipRoleAdmin {
		var adminCount int64
		h.db.Model(&models.Membership{}).
			Where("colocation_id = ? AND role = ? AND left_at IS NULL", colocationID, models.MembershipRoleAdmin).
			Count(&adminCount)
		if adminCount <= 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "Cannot remove the last administrator of the colocation")
		}
	}

	now := time.Now()
	if err := h.db.Model(&target).Update("left_at", &now).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to remove member")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message":    "Member removed",
		"membership": target,
	})
}
