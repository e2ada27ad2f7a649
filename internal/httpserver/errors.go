package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/graphkart/storefront/internal/service"
)

// fail maps a service error to an HTTP error and logs it under event.
func fail(l *slog.Logger, event string, err error) error {
	code, msg := http.StatusInternalServerError, "Internal server error"
	switch {
	case errors.Is(err, service.ErrValidation):
		code, msg = http.StatusBadRequest, reason(err, service.ErrValidation)
	case errors.Is(err, service.ErrNotFound):
		code, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, service.ErrConflict):
		code, msg = http.StatusConflict, reason(err, service.ErrConflict)
	case errors.Is(err, service.ErrInvalidCredentials):
		code, msg = http.StatusUnauthorized, "Invalid email or password."
	case errors.Is(err, service.ErrNotVerified):
		code, msg = http.StatusForbidden, "Please verify your email before logging in."
	case errors.Is(err, service.ErrInvalidToken):
		code, msg = http.StatusBadRequest, "Invalid or expired token."
	case errors.Is(err, service.ErrInvalidRefreshToken):
		code, msg = http.StatusUnauthorized, "invalid refresh token"
	}

	if code == http.StatusInternalServerError {
		l.Error(event, "status", code, "error", err)
		return echo.NewHTTPError(code, echo.Map{"message": msg, "error": err.Error()})
	}
	l.Warn(event, "status", code, "reason", msg, "error", err)
	return echo.NewHTTPError(code, echo.Map{"message": msg})
}

// reason strips the sentinel text from a wrapped error.
func reason(err, sentinel error) string {
	s := err.Error()
	s = strings.TrimPrefix(s, sentinel.Error()+": ")
	s = strings.TrimSuffix(s, ": "+sentinel.Error())
	return s
}

func badRequest(l *slog.Logger, event, msg string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", msg, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"message": msg})
}
