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
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (email, name, password_hash)
         VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.Name, user.PasswordHash).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, email, name, password_hash, mfa_secret, mfa_secret_nonce, mfa_enabled,
		        failed_login_attempts, locked_until, last_login, created_at
		 FROM users
		 WHERE email = $1
		 `

	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, email, name, password_hash, mfa_secret, mfa_secret_nonce, mfa_enabled,
		        failed_login_attempts, locked_until, last_login, created_at
		 FROM users
		 WHERE id = $1
		 `

	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) SetPassword(ctx context.Context, userID string, passwordHash string) error {
	query :=
		`UPDATE users SET password_hash = $2
		 WHERE id = $1
		 `

	return checkAffected(r.db.ExecContext(ctx, query, userID, passwordHash))
}

func (r *PostgresRepository) SetMFASecret(ctx context.Context, userID string, secret []byte, nonce []byte) error {
	query :=
		`UPDATE users SET mfa_secret = $2, mfa_secret_nonce = $3
		 WHERE id = $1
		 `

	return checkAffected(r.db.ExecContext(ctx, query, userID, secret, nonce))
}

func (r *PostgresRepository) EnableMFA(ctx context.Context, userID string) error {
	query :=
		`UPDATE users SET mfa_enabled = TRUE
		 WHERE id = $1
		 `

	return checkAffected(r.db.ExecContext(ctx, query, userID))
}

func (r *PostgresRepository) ClearMFASecret(ctx context.Context, userID string) error {
	query :=
		`UPDATE users SET mfa_secret = NULL, mfa_secret_nonce = NULL, mfa_enabled = FALSE
		 WHERE id = $1
		 `

	return checkAffected(r.db.ExecContext(ctx, query, userID))
}

// IncrementFailedLogins bumps the counter atomically and returns the new
// value, so concurrent failures each observe a distinct count.
func (r *PostgresRepository) IncrementFailedLogins(ctx context.Context, userID string) (int64, error) {
	query :=
		`UPDATE users SET failed_login_attempts = failed_login_attempts + 1
		 WHERE id = $1
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

func (r *PostgresRepository) SetLockedUntil(ctx context.Context, userID string, until time.Time) error {
	query :=
		`UPDATE users SET locked_until = $2
		 WHERE id = $1
		 `

	return checkAffected(r.db.ExecContext(ctx, query, userID, until))
}

// ResetLoginState clears the failure counter and lock after a successful
// login and stamps last_login.
func (r *PostgresRepository) ResetLoginState(ctx context.Context, userID string, lastLogin time.Time) error {
	query :=
		`UPDATE users SET failed_login_attempts = 0, locked_until = NULL, last_login = $2
		 WHERE id = $1
		 `

	return checkAffected(r.db.ExecContext(ctx, query, userID, lastLogin))
}

// Unlock clears the failure counter and lock without touching last_login.
func (r *PostgresRepository) Unlock(ctx context.Context, userID string) error {
	query :=
		`UPDATE users SET failed_login_attempts = 0, locked_until = NULL
		 WHERE id = $1
		 `

	return checkAffected(r.db.ExecContext(ctx, query, userID))
}
