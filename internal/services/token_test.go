package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collocshare/internal/models"
)

func TestSessionRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	user := &models.User{Name: "Alice", Email: "alice@example.com"}
	user.ID = 42

	token, err := IssueSession(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := VerifySession(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "Alice", claims.Name)
}

func TestVerifySessionRejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := VerifySession("not-a-token")
	assert.Error(t, err)
}

func TestVerifySessionRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "first-secret")
	user := &models.User{Email: "bob@example.com"}
	user.ID = 1

	token, err := IssueSession(user)
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "second-secret")
	_, err = VerifySession(token)
	assert.Error(t, err)
}

func TestIssueSessionRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := IssueSession(&models.User{})
	assert.Error(t, err)
}
