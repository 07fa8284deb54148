package handlers

import (
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"collocshare/internal/models"
	"collocshare/internal/services"
)

func TestGenerateInviteTokenFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		token, err := generateInviteToken()
		require.NoError(t, err)

		assert.Len(t, token, 64)
		raw, err := hex.DecodeString(token)
		require.NoError(t, err, "token must be hex")
		assert.Len(t, raw, 32)

		assert.False(t, seen[token], "tokens must not repeat")
		seen[token] = true
	}
}

// newInviteTestHandler wires the handler against a throwaway sqlite file
// and an in-process redis, seeded with one admin in one colocation.
func newInviteTestHandler(t *testing.T) *InvitationHandler {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "app.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Colocation{}, &models.Membership{}, &models.Invitation{},
	))

	admin := models.User{Name: "Alice", Email: "alice@example.com"}
	require.NoError(t, db.Create(&admin).Error)
	colocation := models.Colocation{Name: "Rue des Lilas", Address: "12 rue des Lilas, Paris"}
	require.NoError(t, db.Create(&colocation).Error)
	membership := models.Membership{
		UserID:       admin.ID,
		ColocationID: colocation.ID,
		Role:         models.MembershipRoleAdmin,
		JoinedAt:     time.Now(),
	}
	require.NoError(t, db.Create(&membership).Error)

	mr := miniredis.RunT(t)
	cache, err := services.NewRedisCache("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	return NewInvitationHandler(db, cache, services.NewEmailService())
}

func newInviteContext(t *testing.T) echo.Context {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/colocations/1/invite",
		strings.NewReader(`{"email":"newbie@example.com"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("1")
	c.Set("userID", uint(1))
	c.Set("userEmail", "alice@example.com")
	c.Set("userName", "Alice")
	return c
}

func TestInviteFailureDoesNotConsumeResendSlot(t *testing.T) {
	h := newInviteTestHandler(t)

	orig := generateInviteToken
	t.Cleanup(func() { generateInviteToken = orig })
	generateInviteToken = func() (string, error) { return "", errors.New("entropy exhausted") }

	err := h.Invite(newInviteContext(t))
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusInternalServerError, he.Code)

	// The failed attempt must not have claimed the resend slot: an
	// immediate retry goes through.
	generateInviteToken = orig
	c := newInviteContext(t)
	require.NoError(t, h.Invite(c))
	assert.Equal(t, http.StatusCreated, c.Response().Status)

	// The successful one claims it.
	err = h.Invite(newInviteContext(t))
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	message, _ := he.Message.(string)
	assert.Contains(t, message, "recently")
}
