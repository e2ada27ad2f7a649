package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/graphkart/storefront/internal/graph"
	"github.com/graphkart/storefront/internal/models"
)

// CreateUser inserts the user unless the email (case-insensitive) or the
// username is already registered. Check and insert run as one query.
func (r *GraphRepo) CreateUser(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	res, err := r.Runner.Run(ctx, `OPTIONAL MATCH (e:User)
WHERE toLower(e.email) = toLower($email) OR e.username = $username
WITH collect(e) AS existing
FOREACH (_ IN CASE WHEN size(existing) = 0 THEN [1] ELSE [] END |
    CREATE (:User {
        username: $username,
        email: $email,
        passwordHash: $passwordHash,
        token: $token,
        verified: false,
        role: $role,
        createdAt: $createdAt
    })
)
RETURN size(existing) = 0 AS created`, map[string]any{
		"username":     u.Username,
		"email":        u.Email,
		"passwordHash": u.PasswordHash,
		"token":        u.Token,
		"role":         u.Role,
		"createdAt":    u.CreatedAt,
	})
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("user %s: %w", u.Username, ErrAlreadyExists)
		}
		return err
	}
	if len(res.Records) == 0 || !graph.BoolAt(res.Records[0], "created") {
		return fmt.Errorf("user %s: %w", u.Username, ErrAlreadyExists)
	}
	return nil
}

func (r *GraphRepo) findUser(ctx context.Context, query string, params map[string]any) (*models.User, error) {
	res, err := r.Runner.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if len(res.Records) == 0 {
		return nil, ErrNotFound
	}
	node, err := graph.NodeAt(res.Records[0], "u")
	if err != nil {
		return nil, err
	}
	u := userFromNode(node)
	return &u, nil
}

func (r *GraphRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findUser(ctx, `MATCH (u:User)
WHERE toLower(u.email) = toLower($email)
RETURN u LIMIT 1`, map[string]any{"email": email})
}

func (r *GraphRepo) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findUser(ctx, "MATCH (u:User {username: $username}) RETURN u", map[string]any{"username": username})
}

// VerifyUser consumes a verification token.
func (r *GraphRepo) VerifyUser(ctx context.Context, token string) (*models.User, error) {
	return r.findUser(ctx, `MATCH (u:User {token: $token})
SET u.verified = true
REMOVE u.token
RETURN u`, map[string]any{"token": token})
}

// ResetVerificationToken replaces the token of an unverified account.
func (r *GraphRepo) ResetVerificationToken(ctx context.Context, email, token string) (*models.User, error) {
	return r.findUser(ctx, `MATCH (u:User)
WHERE toLower(u.email) = toLower($email) AND u.verified = false
SET u.token = $token
RETURN u LIMIT 1`, map[string]any{"email": email, "token": token})
}
