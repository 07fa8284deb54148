package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"collocshare/internal/models"
)

func currentUserID(c echo.Context) uint {
	if id, ok := c.Get("userID").(uint); ok {
		return id
	}
	return 0
}

func currentUserEmail(c echo.Context) string {
	if email, ok := c.Get("userEmail").(string); ok {
		return email
	}
	return ""
}

func paramUint(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// requireMembership loads the caller's active membership in a colocation,
// failing with 403 when they are not an active member.
func requireMembership(c echo.Context, db *gorm.DB, colocationID uint) (*models.Membership, error) {
	var membership models.Membership
	err := db.Where("user_id = ? AND colocation_id = ? AND left_at IS NULL", currentUserID(c), colocationID).
		First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, echo.NewHTTPError(http.StatusForbidden, "You are not a member of this colocation")
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to check membership")
	}
	return &membership, nil
}

// requireAdmin is requireMembership plus an ADMIN role check
func requireAdmin(c echo.Context, db *gorm.DB, colocationID uint) (*models.Membership, error) {
	membership, err := requireMembership(c, db, colocationID)
	if err != nil {
		return nil, err
	}
	if membership.Role != models.MembershipRoleAdmin {
		return nil, echo.NewHTTPError(http.StatusForbidden, "You must be an administrator of this colocation")
	}
	return membership, nil
}

// activeMembers lists the active memberships of a colocation with user
// data preloaded, in join order so downstream tie-breaks are stable.
func activeMembers(db *gorm.DB, colocationID uint) ([]models.Membership, error) {
	var members []models.Membership
	err := db.Preload("User").
		Where("colocation_id = ? AND left_at IS NULL", colocationID).
		Order("joined_at ASC, id ASC").
		Find(&members).Error
	return members, err
}
