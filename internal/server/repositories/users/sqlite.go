package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/datacleaner/internal/common"
	"github.com/dmitrijs2005/datacleaner/internal/dbx"
	"github.com/dmitrijs2005/datacleaner/internal/server/models"
	"github.com/google/uuid"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new user. SQLite has no server-side id generation here,
// so ids and timestamps are assigned by the application.
func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	query :=
		`INSERT INTO users (id, email, name, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash, user.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, email, name, password_hash, mfa_secret, mfa_secret_nonce, mfa_enabled,
		        failed_login_attempts, locked_until, last_login, created_at
		 FROM users
		 WHERE email = ?
		 `

	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, email, name, password_hash, mfa_secret, mfa_secret_nonce, mfa_enabled,
		        failed_login_attempts, locked_until, last_login, created_at
		 FROM users
		 WHERE id = ?
		 `

	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteRepository) SetPassword(ctx context.Context, userID string, passwordHash string) error {
	query :=
		`UPDATE users SET password_hash = ?
		 WHERE id = ?
		 `

	return checkAffected(r.db.ExecContext(ctx, query, passwordHash, userID))
}

func (r *SQLiteRepository) SetMFASecret(ctx context.Context, userID string, secret []byte, nonce []byte) error {
	query :=
		`UPDATE users SET mfa_secret = ?, mfa_secret_nonce = ?
		 WHERE id = ?
		 `

	return checkAffected(r.db.ExecContext(ctx, query, secret, nonce, userID))
}

func (r *SQLiteRepository) EnableMFA(ctx context.Context, userID string) error {
	query :=
		`UPDATE users SET mfa_enabled = 1
		 WHERE id = ?
		 `

	return checkAffected(r.db.ExecContext(ctx, query, userID))
}

func (r *SQLiteRepository) ClearMFASecret(ctx context.Context, userID string) error {
	query :=
		`UPDATE users SET mfa_secret = NULL, mfa_secret_nonce = NULL, mfa_enabled = 0
		 WHERE id = ?
		 `

	return checkAffected(r.db.ExecContext(ctx, query, userID))
}

// IncrementFailedLogins bumps the counter atomically and returns the new
// value, so concurrent failures each observe a distinct count.
func (r *SQLiteRepository) IncrementFailedLogins(ctx context.Context, userID string) (int64, error) {
	query :=
		`UPDATE users SET failed_login_attempts = failed_login_attempts + 1
		 WHERE id = ?
		 RETURNING failed_login_attempts
		 `

	var attempts int64
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&attempts)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	return attempts, nil
}

func (r *SQLiteRepository) SetLockedUntil(ctx context.Context, userID string, until time.Time) error {
	query :=
		`UPDATE users SET locked_until = ?
		 WHERE id = ?
		 `

	return checkAffected(r.db.ExecContext(ctx, query, until, userID))
}

func (r *SQLiteRepository) ResetLoginState(ctx context.Context, userID string, lastLogin time.Time) error {
	query :=
		`UPDATE users SET failed_login_attempts = 0, locked_until = NULL, last_login = ?
		 WHERE id = ?
		 `

	return checkAffected(r.db.ExecContext(ctx, query, lastLogin, userID))
}

func (r *SQLiteRepository) Unlock(ctx context.Context, userID string) error {
	query :=
		`UPDATE users SET failed_login_attempts = 0, locked_until = NULL
		 WHERE id = ?
		 `

	return checkAffected(r.db.ExecContext(ctx, query, userID))
}
