package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphkart/storefront/internal/models"
	"github.com/graphkart/storefront/internal/tokens"
)

func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.require(next, func(claims *tokens.AccessClaims) error {
		if claims.Role != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}
