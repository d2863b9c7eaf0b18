package handlers

import (
	"mime"
	"net/http"

	"github.com/anonto42/follow-graph/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// bindJSON rejects non-JSON bodies with 415 before binding
func bindJSON(c echo.Context, dst interface{}) error {
	ct, _, _ := mime.ParseMediaType(c.Request().Header.Get(echo.HeaderContentType))
	if ct != echo.MIMEApplicationJSON {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "Content-Type must be application/json")
	}
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return nil
}

// httpError converts a service error into an echo HTTP error
func httpError(err error) error {
	status := services.StatusFor(err)
	if status == http.StatusInternalServerError {
		return echo.NewHTTPError(status, "Internal server error").SetInternal(err)
	}
	return echo.NewHTTPError(status, err.Error())
}
