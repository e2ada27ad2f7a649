// Package tokenstore persists issued refresh tokens so they can be rotated
// and revoked.
package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/graphkart/storefront/internal/models"
	"github.com/graphkart/storefront/internal/tokens"
)

var (
	ErrNotFound       = errors.New("refresh token not found")
	ErrExpiredRevoked = errors.New("token expired or revoked")
)

// RotationGrace is how long a rotated refresh token keeps working, so
// parallel requests that refresh with the same cookie all succeed.
const RotationGrace = 10 * time.Second

func configurePool(sqlDB *sql.DB) {
	const (
		maxOpenConns    = 20
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite", "":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported token db driver %q", driver)
	}
}

// Open connects to the token database and migrates the refresh token table.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("TOKEN_DB_URL is empty")
	}
	d, err := dialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		PrepareStmt: true,
		NowFunc:     func() time.Time { return time.Now().UTC() },
		Logger:      logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect token db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	configurePool(sqlDB)
	if driver != "postgres" {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping token db: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&models.RefreshToken{}); err != nil {
		return nil, fmt.Errorf("migrate token db: %w", err)
	}
	return &Store{DB: db}, nil
}

type Store struct {
	DB *gorm.DB

	// Clock defaults to time.Now.
	Clock func() time.Time
}

func (s *Store) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record builds the row stored for a freshly signed refresh token.
func Record(token, jti, username, role string, exp time.Time) models.RefreshToken {
	return models.RefreshToken{
		Username:  username,
		Role:      role,
		Token:     tokens.Sha256Hex(token),
		JTI:       jti,
		ExpiresAt: exp.Unix(),
	}
}

func (s *Store) Save(ctx context.Context, rt models.RefreshToken) error {
	return s.DB.WithContext(ctx).Create(&rt).Error
}

func (s *Store) FindByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	if err := s.DB.WithContext(ctx).Where("jti = ?", jti).First(&rt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rt, nil
}

func usable(tx *gorm.DB, jti string, now time.Time) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	if err := tx.Where("jti = ?", jti).First(&rt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rt.ExpiresAt < now.Unix() {
		return nil, ErrExpiredRevoked
	}
	if rt.Revoked && (rt.RotatedAt == 0 || now.Sub(time.Unix(rt.RotatedAt, 0)) > RotationGrace) {
		return nil, ErrExpiredRevoked
	}
	return &rt, nil
}

// Rotate revokes oldJTI and stores next in one transaction. A token rotated
// less than RotationGrace ago may be rotated again.
func (s *Store) Rotate(ctx context.Context, oldJTI string, next models.RefreshToken) error {
	now := s.now()
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old, err := usable(tx, oldJTI, now)
		if err != nil {
			return err
		}
		if !old.Revoked {
			if err := tx.Model(&models.RefreshToken{}).
				Where("jti = ?", oldJTI).
				Updates(map[string]any{"revoked": true, "rotated_at": now.Unix()}).Error; err != nil {
				return err
			}
		}
		return tx.Create(&next).Error
	})
}

// RevokeToken revokes by the raw token value; unknown tokens are ignored.
// A revoked token gets no rotation grace.
func (s *Store) RevokeToken(ctx context.Context, token string) error {
	return s.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", tokens.Sha256Hex(token)).
		Updates(map[string]any{"revoked": true, "rotated_at": 0}).Error
}
