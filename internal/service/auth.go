package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/graphkart/storefront/internal/events"
	"github.com/graphkart/storefront/internal/hash"
	"github.com/graphkart/storefront/internal/logging"
	"github.com/graphkart/storefront/internal/mail"
	"github.com/graphkart/storefront/internal/models"
	"github.com/graphkart/storefront/internal/tokens"
	"github.com/graphkart/storefront/internal/tokenstore"
	"github.com/graphkart/storefront/internal/transport"
)

type AuthService struct {
	Users  UserRepo
	Tokens TokenStore
	Mailer mail.Mailer
	Events events.Publisher

	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AdminEmails   []string
}

func (s *AuthService) roleFor(email string) string {
	for _, admin := range s.AdminEmails {
		if strings.EqualFold(admin, email) {
			return models.RoleAdmin
		}
	}
	return models.RoleUser
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return nil, invalid("username, email and password are required")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		if hash.IsTooLong(err) {
			return nil, invalid("password is too long")
		}
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	u := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Token:        uuid.NewString(),
		Role:         s.roleFor(email),
	}
	if err := s.Users.CreateUser(ctx, u); err != nil {
		if errors.Is(fromRepo(err, ""), ErrConflict) {
			l.Warn("register_error", "status", 409, "reason", "email or username already registered")
			return nil, fmt.Errorf("email or username already registered: %w", ErrConflict)
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	if s.Mailer != nil {
		if err := s.Mailer.SendVerification(ctx, u.Email, u.Token); err != nil {
			l.Error("verification_mail_failed", "username", u.Username, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicUsers, u.Username, map[string]any{
		"type":     "user_registered",
		"username": u.Username,
		"role":     u.Role,
	})
	return u, nil
}

// Verify consumes a single-use verification token.
func (s *AuthService) Verify(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, invalid("token is required")
	}
	u, err := s.Users.VerifyUser(ctx, token)
	if err != nil {
		if errors.Is(fromRepo(err, ""), ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	publish(ctx, s.Events, events.TopicUsers, u.Username, map[string]any{"type": "user_verified", "username": u.Username})
	return u, nil
}

func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return invalid("email is required")
	}
	l := logging.FromContext(ctx).With("svc", "auth.resend_verification")

	// unknown and already verified addresses answer the same as a sent mail
	u, err := s.Users.ResetVerificationToken(ctx, email, uuid.NewString())
	if err != nil {
		if err = fromRepo(err, "unverified account"); errors.Is(err, ErrNotFound) {
			l.Info("verification resend skipped", "reason", "no unverified account")
			return nil
		}
		return err
	}
	if s.Mailer == nil {
		return nil
	}
	if err := s.Mailer.SendVerification(ctx, u.Email, u.Token); err != nil {
		l.Error("verification mail failed", "username", u.Username, "error", err)
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*transport.LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, invalid("email and password are required")
	}
	u, err := s.Users.FindUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(fromRepo(err, ""), ErrNotFound) {
			l.Warn("login failed", "status", 401, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(u.PasswordHash, password) {
		l.Warn("login failed", "status", 401, "reason", "wrong password", "username", u.Username)
		return nil, ErrInvalidCredentials
	}
	if !u.Verified {
		l.Warn("login failed", "status", 403, "reason", "not verified", "username", u.Username)
		return nil, ErrNotVerified
	}

	res, refreshJTI, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	if err := s.Tokens.Save(ctx, tokenstore.Record(res.RefreshToken, refreshJTI, u.Username, u.Role, res.RefreshExp)); err != nil {
		l.Error("internal error", "error", err)
		return nil, err
	}
	return res, nil
}

func (s *AuthService) issue(u *models.User) (*transport.LoginResult, string, error) {
	now := time.Now()
	accessExp := now.Add(s.AccessTTL)
	refreshExp := now.Add(s.RefreshTTL)

	access, err := tokens.NewAccessToken(s.AccessSecret, u.Username, u.Email, u.Role, accessExp)
	if err != nil {
		return nil, "", err
	}
	refresh, jti, err := tokens.NewRefreshToken(s.RefreshSecret, u.Username, refreshExp)
	if err != nil {
		return nil, "", err
	}
	return &transport.LoginResult{
		Username:     u.Username,
		Role:         u.Role,
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, jti, nil
}

// Refresh rotates the refresh token and issues a new pair. The role is
// re-read from the user record.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*transport.LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}
	u, err := s.Users.FindUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(fromRepo(err, ""), ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	res, jti, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	next := tokenstore.Record(res.RefreshToken, jti, u.Username, u.Role, res.RefreshExp)
	if err := s.Tokens.Rotate(ctx, claims.ID, next); err != nil {
		if errors.Is(err, tokenstore.ErrNotFound) || errors.Is(err, tokenstore.ErrExpiredRevoked) {
			l.Warn("refresh failed", "status", 401, "reason", err.Error(), "username", u.Username)
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	return res, nil
}

func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Tokens.RevokeToken(ctx, refreshToken)
}
