package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphkart/storefront/internal/logging"
	authmw "github.com/graphkart/storefront/internal/middleware/auth"
	"github.com/graphkart/storefront/internal/service"
	"github.com/graphkart/storefront/internal/tokens"
	"github.com/graphkart/storefront/internal/transport"
)

const (
	msgRegistered = "Registration successful! Please check your email to verify your account."
	msgVerified   = "Email verified successfully!"
	msgTokenMiss  = "Token is required."
	msgResent     = "If the account exists and is not verified yet, a verification email has been sent."
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "register_error", err.Error(), err)
	}

	u, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_error", err)
	}
	l.Info("register_successful", "username", u.Username)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: msgRegistered})
}

func (h *AuthHTTP) verify(c echo.Context, token string) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_verify")

	if token == "" {
		return badRequest(l, "verify_error", msgTokenMiss, nil)
	}
	u, err := h.Svc.Verify(ctx, token)
	if err != nil {
		return fail(l, "verify_error", err)
	}
	l.Info("verify_successful", "username", u.Username)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: msgVerified})
}

// VerifyQuery serves the emailed link: GET ...?token=.
func (h *AuthHTTP) VerifyQuery(c echo.Context) error {
	return h.verify(c, c.QueryParam("token"))
}

// VerifyBody serves POST {token}.
func (h *AuthHTTP) VerifyBody(c echo.Context) error {
	var req transport.VerifyRequest
	if err := c.Bind(&req); err != nil {
		l := logging.FromContext(c.Request().Context()).With("handler", "auth_verify")
		return badRequest(l, "verify_error", "invalid body", err)
	}
	return h.verify(c, req.Token)
}

func (h *AuthHTTP) ResendVerification(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_resend_verification")

	var req transport.ResendVerificationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "resend_verification_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "resend_verification_error", err.Error(), err)
	}
	if err := h.Svc.ResendVerification(ctx, req.Email); err != nil {
		return fail(l, "resend_verification_error", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: msgResent})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "login_error", err.Error(), err)
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}
	authmw.SetAuthCookies(c, res)
	l.Info("login_successful", "username", res.Username)

	return c.JSON(http.StatusOK, echo.Map{
		"username": res.Username,
		"role":     res.Role,
		"isAdmin":  res.Role == "admin",
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	ck, err := c.Cookie(tokens.RefreshCookie)
	if err != nil || ck.Value == "" {
		l.Warn("refresh_failed", "status", 401, "reason", "refresh token missing")
		return echo.NewHTTPError(http.StatusUnauthorized, echo.Map{"message": "refresh token missing"})
	}

	res, err := h.Svc.Refresh(ctx, ck.Value)
	if err != nil {
		authmw.ClearAuthCookies(c)
		return fail(l, "refresh_failed", err)
	}
	authmw.SetAuthCookies(c, res)
	return c.JSON(http.StatusOK, echo.Map{"username": res.Username, "role": res.Role})
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	var refresh string
	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil {
		refresh = ck.Value
	}
	err := h.Svc.LogOut(ctx, refresh)
	authmw.ClearAuthCookies(c)
	if err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke refreshToken", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, echo.Map{"message": "logout failed", "error": err.Error()})
	}

	l.Info("successful_logout")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "logged out"})
}
