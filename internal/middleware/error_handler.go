package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"collocshare/internal/logging"
)

// JSONErrorHandler renders every error as a {"message": ...} JSON body.
// Data-quality problems never reach this path (the balance core reports
// warnings instead of failing); anything unexpected becomes a generic 500
// so internals do not leak to clients.
func JSONErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Something went wrong. Please try again later."

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" {
			message = msg
		} else {
			switch code {
			case http.StatusNotFound:
				message = "Resource not found"
			case http.StatusForbidden:
				message = "You don't have permission to access this resource"
			case http.StatusUnauthorized:
				message = "Please log in to continue"
			case http.StatusBadRequest:
				message = "The request could not be processed"
			}
		}
	}

	if code >= http.StatusInternalServerError {
		logging.Logger.WithError(err).Errorf("request failed: %s %s", c.Request().Method, c.Request().URL.Path)
	}

	if err := c.JSON(code, map[string]string{"message": message}); err != nil {
		logging.Logger.WithError(err).Error("failed to write error response")
	}
}
