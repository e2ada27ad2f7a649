package auth

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/graphkart/storefront/internal/tokens"
	"github.com/graphkart/storefront/internal/transport"
)

const (
	ctxUsername = "username"
	ctxRole     = "role"
	ctxEmail    = "email"
)

// Refresher rotates a refresh token into a new token pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*transport.LoginResult, error)
}

// accessToken reads the access cookie, falling back to a bearer header.
func accessToken(c echo.Context) string {
	if ck, err := c.Cookie(tokens.AccessCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func refreshToken(c echo.Context) string {
	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil {
		return ck.Value
	}
	return ""
}

// SetAuthCookies writes both token cookies from a login or refresh result.
func SetAuthCookies(c echo.Context, res *transport.LoginResult) {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", res.AccessExp))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, res.RefreshToken, "/", res.RefreshExp))
}

func ClearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/"))
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(ctxUsername, claims.Subject)
	c.Set(ctxRole, claims.Role)
	c.Set(ctxEmail, claims.Email)
}

// Username returns the authenticated user set by RequireAuth.
func Username(c echo.Context) string {
	s, _ := c.Get(ctxUsername).(string)
	return s
}

func Role(c echo.Context) string {
	s, _ := c.Get(ctxRole).(string)
	return s
}
