package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/threads/internal/apperr"
)

// httpError maps an engine error onto the HTTP status its kind stands for
func httpError(err error) error {
	if err == nil {
		return nil
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	status := http.StatusInternalServerError
	switch apperr.Kind(err) {
	case apperr.ErrValidation:
		status = http.StatusBadRequest
	case apperr.ErrConflict:
		status = http.StatusConflict
	case apperr.ErrUnauthenticated:
		status = http.StatusUnauthorized
	case apperr.ErrForbidden:
		status = http.StatusForbidden
	case apperr.ErrNotFound:
		status = http.StatusNotFound
	case apperr.ErrTransient:
		status = http.StatusServiceUnavailable
	}

	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	return echo.NewHTTPError(status, msg).SetInternal(err)
}

// bindValid binds the request body into req and validates it
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return httpError(err)
	}
	return nil
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{
		"success": true,
		"data":    data,
	})
}
