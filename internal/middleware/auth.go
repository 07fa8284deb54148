package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"collocshare/internal/services"
)

// RequireAuth returns a middleware that verifies the session cookie and
// loads the caller's identity into the request context.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(services.SessionCookieName)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Please log in to continue")
			}

			claims, err := services.VerifySession(cookie.Value)
			if err != nil {
				// Invalid session, clear the cookie so the client stops retrying it
				c.SetCookie(&http.Cookie{
					Name:     services.SessionCookieName,
					Value:    "",
					MaxAge:   -1,
					HttpOnly: true,
					Path:     "/",
				})
				return echo.NewHTTPError(http.StatusUnauthorized, "Session expired, please log in again")
			}

			// Set user info in context for downstream handlers
			c.Set("userID", claims.UserID)
			c.Set("userEmail", claims.Email)
			c.Set("userName", claims.Name)

			return next(c)
		}
	}
}
