package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/datacleaner/internal/common"
	"github.com/dmitrijs2005/datacleaner/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetPassword(ctx context.Context, userID string, passwordHash string) error
	SetMFASecret(ctx context.Context, userID string, secret []byte, nonce []byte) error
	EnableMFA(ctx context.Context, userID string) error
	ClearMFASecret(ctx context.Context, userID string) error
	IncrementFailedLogins(ctx context.Context, userID string) (int64, error)
	SetLockedUntil(ctx context.Context, userID string, until time.Time) error
	ResetLoginState(ctx context.Context, userID string, lastLogin time.Time) error
	Unlock(ctx context.Context, userID string) error
}

// scanUser reads a full users row. Column order must match the SELECT
// lists in the backend implementations: id, email, name, password_hash,
// mfa_secret, mfa_secret_nonce, mfa_enabled, failed_login_attempts,
// locked_until, last_login, created_at.
func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var lockedUntil, lastLogin sql.NullTime

	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&user.MFASecretEncrypted, &user.MFASecretNonce, &user.MFAEnabled,
		&user.FailedLoginAttempts, &lockedUntil, &lastLogin, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lockedUntil.Valid {
		user.LockedUntil = &lockedUntil.Time
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return user, nil
}

// checkAffected maps zero affected rows to common.ErrorNotFound.
func checkAffected(res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}
