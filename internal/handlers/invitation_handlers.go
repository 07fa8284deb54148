package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"collocshare/internal/logging"
	"collocshare/internal/models"
	"collocshare/internal/services"
)

const invitationTTL = 7 * 24 * time.Hour

type InvitationHandler struct {
	db    *gorm.DB
	cache *services.RedisCache
	email *services.EmailService
}

func NewInvitationHandler(db *gorm.DB, cache *services.RedisCache, email *services.EmailService) *InvitationHandler {
	return &InvitationHandler{db: db, cache: cache, email: email}
}

type inviteRequest struct {
	Email string `json:"email"`
}

// Invite emails a join link for a colocation. Admin only. A pending
// invitation for the same email is refreshed instead of duplicated, and
// resends are rate-limited so the mailbox is not flooded.
func (h *InvitationHandler) Invite(c echo.Context) error {
	colocationID, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	if _, err := requireAdmin(c, h.db, colocationID); err != nil {
		return err
	}

	var req inviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return echo.NewHTTPError(http.StatusBadRequest, "A valid email is required")
	}

	var colocation models.Colocation
	if err := h.db.First(&colocation, colocationID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Colocation not found")
	}

	// Already an active member?
	var existing int64
	h.db.Model(&models.Membership{}).
		Joins("JOIN users ON users.id = memberships.user_id").
		Where("users.email = ? AND memberships.colocation_id = ? AND memberships.left_at IS NULL", email, colocationID).
		Count(&existing)
	if existing > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "This person is already a member of the colocation")
	}

	delay := resendDelay()
	rateKey := services.InviteRateKey(colocationID, email)
	var lastSent int64
	if err := h.cache.Get(c.Request().Context(), rateKey, &lastSent); err == nil {
		minutes := int(delay.Minutes())
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("An invitation was sent to this address recently. Please wait %d minute(s) before resending.", minutes))
	}

	token, err := generateInviteToken()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create invitation")
	}
	expiresAt := time.Now().Add(invitationTTL)

	var invitation models.Invitation
	isResend := false
	err = h.db.Where("email = ? AND colocation_id = ? AND status = ?", email, colocationID, models.InvitationStatusPending).
		First(&invitation).Error
	switch {
	case err == nil:
		// Refresh the pending invitation with a new token and expiry
		isResend = true
		invitation.Token = token
		invitation.ExpiresAt = expiresAt
		err = h.db.Save(&invitation).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		invitation = models.Invitation{
			ColocationID: colocationID,
			Email:        email,
			Token:        token,
			Status:       models.InvitationStatusPending,
			ExpiresAt:    expiresAt,
		}
		err = h.db.Create(&invitation).Error
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create invitation")
	}

	// Claim the resend slot only once the invitation exists, so a failed
	// attempt does not lock the admin out for the whole delay
	_ = h.cache.Set(c.Request().Context(), rateKey, time.Now().Unix(), delay)

	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:8080"
	}
	inviteURL := fmt.Sprintf("%s/join-colocation/%s", appURL, token)

	inviterName, _ := c.Get("userName").(string)
	if inviterName == "" {
		inviterName = currentUserEmail(c)
	}

	emailSent := true
	if err := h.email.SendInvitationEmail(email, inviteURL, colocation.Name, inviterName); err != nil {
		// The admin can still share the link manually, so the invitation
		// is created even when delivery fails.
		emailSent = false
		logging.Logger.WithError(err).Warnf("could not deliver invitation email to %s", email)
	}

	message := "Invitation sent"
	if !emailSent {
		message = "Invitation created but the email could not be sent"
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message":    message,
		"invitation": invitation,
		"emailSent":  emailSent,
		"isResend":   isResend,
	})
}

// CheckInvitation reports whether a token is still usable. No auth: the
// join page calls this before the invitee has an account.
func (h *InvitationHandler) CheckInvitation(c echo.Context) error {
	invitation, err := h.findByToken(c.Param("token"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"valid":      invitation.IsUsable(time.Now()),
		"email":      invitation.Email,
		"colocation": invitation.Colocation.Name,
		"expiresAt":  invitation.ExpiresAt,
	})
}

// AcceptInvitation turns a valid invitation into a membership. The caller
// must be logged in with the invited email address.
func (h *InvitationHandler) AcceptInvitation(c echo.Context) error {
	invitation, err := h.findByToken(c.Param("token"))
	if err != nil {
		return err
	}

	now := time.Now()
	if now.After(invitation.ExpiresAt) {
		return echo.NewHTTPError(http.StatusBadRequest, "This invitation has expired")
	}
	if invitation.Status != models.InvitationStatusPending {
		return echo.NewHTTPError(http.StatusBadRequest, "This invitation is no longer valid")
	}
	if !strings.EqualFold(currentUserEmail(c), invitation.Email) {
		return echo.NewHTTPError(http.StatusForbidden,
			"This invitation was sent to a different email address. Please log in with the account for "+invitation.Email)
	}

	userID := currentUserID(c)
	err = h.db.Transaction(func(tx *gorm.DB) error {
		var membership models.Membership
		err := tx.Where("user_id = ? AND colocation_id = ?", userID, invitation.ColocationID).
			First(&membership).Error
		switch {
		case err == nil && membership.LeftAt == nil:
			return echo.NewHTTPError(http.StatusBadRequest, "You are already a member of this colocation")
		case err == nil:
			// Returning member: reactivate the old row
			membership.LeftAt = nil
			membership.JoinedAt = now
			if err := tx.Save(&membership).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			membership = models.Membership{
				UserID:       userID,
				ColocationID: invitation.ColocationID,
				Role:         models.MembershipRoleMember,
				JoinedAt:     now,
			}
			if err := tx.Create(&membership).Error; err != nil {
				return err
			}
		default:
			return err
		}

		return tx.Model(invitation).Update("status", models.InvitationStatusAccepted).Error
	})
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to accept invitation")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message":      "Invitation accepted",
		"colocationId": invitation.ColocationID,
	})
}

func (h *InvitationHandler) findByToken(token string) (*models.Invitation, error) {
	if token == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invitation token missing")
	}

	var invitation models.Invitation
	err := h.db.Preload("Colocation").Where("token = ?", token).First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Invitation not found")
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch invitation")
	}
	return &invitation, nil
}

// generateInviteToken is a var so tests can force the failure path
var generateInviteToken = func() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func resendDelay() time.Duration {
	if raw := os.Getenv("INVITATION_RESEND_DELAY_SECONDS"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return time.Hour
}
