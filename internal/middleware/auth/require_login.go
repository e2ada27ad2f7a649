// Package auth guards routes with JWT access tokens and refreshes expired
// ones transparently.
package auth

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/graphkart/storefront/internal/logging"
	"github.com/graphkart/storefront/internal/tokens"
)

type ValidatorFunc func(claims *tokens.AccessClaims) error

type Middleware struct {
	AccessSecret []byte
	Refresher    Refresher
}

func New(accessSecret []byte, refresher Refresher) *Middleware {
	return &Middleware{AccessSecret: accessSecret, Refresher: refresher}
}

func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.require(next, nil)
}

func (m *Middleware) require(next echo.HandlerFunc, validate ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("mw", "auth")

		access := accessToken(c)
		if access != "" {
			claims, err := tokens.AccessClaimsFromToken(access, m.AccessSecret)
			if err == nil {
				return m.accept(c, next, claims, validate)
			}
			if !errors.Is(err, jwt.ErrTokenExpired) {
				ClearAuthCookies(c)
				l.Warn("auth_failed", "status", 401, "reason", "invalid access token", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
			}
		}

		refresh := refreshToken(c)
		if refresh == "" || m.Refresher == nil {
			if access == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}
			ClearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
		}

		res, err := m.Refresher.Refresh(c.Request().Context(), refresh)
		if err != nil {
			ClearAuthCookies(c)
			l.Warn("auth_failed", "status", 401, "reason", "refresh failed", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh failed")
		}
		SetAuthCookies(c, res)

		claims, err := tokens.AccessClaimsFromToken(res.AccessToken, m.AccessSecret)
		if err != nil {
			ClearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "new access token invalid")
		}
		l.Debug("access_token_refreshed", "username", claims.Subject)
		return m.accept(c, next, claims, validate)
	}
}

func (m *Middleware) accept(c echo.Context, next echo.HandlerFunc, claims *tokens.AccessClaims, validate ValidatorFunc) error {
	if validate != nil {
		if err := validate(claims); err != nil {
			return err
		}
	}
	setUserContext(c, claims)
	return next(c)
}
