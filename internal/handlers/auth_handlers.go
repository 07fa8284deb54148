package handlers

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"collocshare/internal/logging"
	"collocshare/internal/models"
	"collocshare/internal/services"
)

const otpTTL = 10 * time.Minute

type AuthHandler struct {
	db    *gorm.DB
	cache *services.RedisCache
	email *services.EmailService
}

func NewAuthHandler(db *gorm.DB, cache *services.RedisCache, email *services.EmailService) *AuthHandler {
	return &AuthHandler{db: db, cache: cache, email: email}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type requestOTPRequest struct {
	Email string `json:"email"`
}

type verifyOTPRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// Register creates a new user account
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || !strings.Contains(req.Email, "@") {
		return echo.NewHTTPError(http.StatusBadRequest, "Name and a valid email are required")
	}
	if len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "Password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create account")
	}

	user := models.User{Name: req.Name, Email: req.Email, PasswordHash: string(hash)}
	if err := h.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusConflict, "An account with this email already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create account")
	}

	return c.JSON(http.StatusCreated, user)
}

// Login verifies credentials and sets the session cookie
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	var user models.User
	err := h.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Login failed")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	token, err := services.IssueSession(&user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Login failed")
	}

	c.SetCookie(&http.Cookie{
		Name:     services.SessionCookieName,
		Value:    token,
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, user)
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     services.SessionCookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	})
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

// RequestOTP issues a password-reset code, stores it in redis and mails it.
// The response is identical whether or not the account exists.
func (h *AuthHandler) RequestOTP(c echo.Context) error {
	var req requestOTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	response := map[string]string{"message": "If the account exists, a reset code has been sent"}

	var user models.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		return c.JSON(http.StatusOK, response)
	}

	code, err := generateOTP()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate reset code")
	}

	if err := h.cache.Set(c.Request().Context(), services.OTPKey(email), code, otpTTL); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store reset code")
	}

	if err := h.email.SendOTPEmail(email, code); err != nil {
		logging.Logger.WithError(err).Warnf("could not deliver OTP email to %s", email)
	}

	return c.JSON(http.StatusOK, response)
}

// VerifyOTP checks a reset code and updates the password
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if len(req.NewPassword) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "Password must be at least 8 characters")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var stored string
	if err := h.cache.Get(c.Request().Context(), services.OTPKey(email), &stored); err != nil || stored != req.OTP {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid or expired code")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to reset password")
	}

	if err := h.db.Model(&models.User{}).Where("email = ?", email).
		Update("password_hash", string(hash)).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to reset password")
	}

	// Single use
	_ = h.cache.Delete(c.Request().Context(), services.OTPKey(email))

	return c.JSON(http.StatusOK, map[string]string{"message": "Password updated"})
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
