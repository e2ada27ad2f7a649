package tokenstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphkart/storefront/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	s, err := Open(context.Background(), "sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "mysql", "x")
	require.Error(t, err)

	_, err = Open(context.Background(), "sqlite", "")
	require.Error(t, err)
}

func TestStore_SaveAndFind(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	rt := Record("raw-token", "jti-1", "ann", models.RoleUser, time.Now().Add(time.Hour))
	require.NoError(t, s.Save(ctx, rt))

	got, err := s.FindByJTI(ctx, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, "ann", got.Username)
	assert.NotEqual(t, "raw-token", got.Token)
	assert.False(t, got.Revoked)

	_, err = s.FindByJTI(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Rotate(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()
	s.Clock = func() time.Time { return now }
	exp := now.Add(time.Hour)

	require.NoError(t, s.Save(ctx, Record("t1", "jti-1", "ann", models.RoleUser, exp)))
	require.NoError(t, s.Rotate(ctx, "jti-1", Record("t2", "jti-2", "ann", models.RoleUser, exp)))

	old, err := s.FindByJTI(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, old.Revoked)

	now = now.Add(RotationGrace + time.Second)
	err = s.Rotate(ctx, "jti-1", Record("t3", "jti-3", "ann", models.RoleUser, exp))
	require.ErrorIs(t, err, ErrExpiredRevoked)

	_, err = s.FindByJTI(ctx, "jti-3")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RotateExpired(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Record("t1", "jti-1", "ann", models.RoleUser, time.Now().Add(-time.Minute))))
	err := s.Rotate(ctx, "jti-1", Record("t2", "jti-2", "ann", models.RoleUser, time.Now().Add(time.Hour)))
	require.ErrorIs(t, err, ErrExpiredRevoked)
}

func TestStore_RevokeToken(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Record("t1", "jti-1", "ann", models.RoleUser, time.Now().Add(time.Hour))))
	require.NoError(t, s.RevokeToken(ctx, "t1"))
	require.NoError(t, s.RevokeToken(ctx, "unknown"))

	rt, err := s.FindByJTI(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, rt.Revoked)
}

func TestStore_RotateWithinGrace(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()
	s.Clock = func() time.Time { return now }
	exp := now.Add(time.Hour)

	require.NoError(t, s.Save(ctx, Record("t1", "jti-1", "ann", models.RoleUser, exp)))
	require.NoError(t, s.Rotate(ctx, "jti-1", Record("t2", "jti-2", "ann", models.RoleUser, exp)))

	// a parallel request still holding t1
	now = now.Add(2 * time.Second)
	require.NoError(t, s.Rotate(ctx, "jti-1", Record("t3", "jti-3", "ann", models.RoleUser, exp)))

	old, err := s.FindByJTI(ctx, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, now.Add(-2*time.Second).Unix(), old.RotatedAt)

	_, err = s.FindByJTI(ctx, "jti-3")
	require.NoError(t, err)
}

func TestStore_RevokedTokenHasNoGrace(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	require.NoError(t, s.Save(ctx, Record("t1", "jti-1", "ann", models.RoleUser, exp)))
	require.NoError(t, s.RevokeToken(ctx, "t1"))

	err := s.Rotate(ctx, "jti-1", Record("t2", "jti-2", "ann", models.RoleUser, exp))
	require.ErrorIs(t, err, ErrExpiredRevoked)
}
