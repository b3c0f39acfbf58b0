// Package services contains server-side business logic. This file implements
// AuthService, which owns user accounts, TOTP enrollment, login lockout
// bookkeeping, and the server-side session rows behind issued JWTs.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/datacleaner/internal/common"
	"github.com/dmitrijs2005/datacleaner/internal/cryptox"
	"github.com/dmitrijs2005/datacleaner/internal/server/auth"
	"github.com/dmitrijs2005/datacleaner/internal/server/config"
	"github.com/dmitrijs2005/datacleaner/internal/server/models"
	"github.com/dmitrijs2005/datacleaner/internal/server/repositories/repomanager"
)

// dummyPasswordHash keeps the bcrypt comparison on the same code path when
// the email is unknown, so response timing does not leak account existence.
var dummyPasswordHash = func() string {
	h, err := auth.HashPassword("timing-equalizer")
	if err != nil {
		panic(err)
	}
	return h
}()

// MFAEnrollment is returned from EnrollMFA so the account owner can add the
// secret to an authenticator app. The URI is the otpauth:// provisioning URL.
type MFAEnrollment struct {
	Secret string
	URI    string
}

// AuthService provides account and session operations:
//   - Register / EnrollMFA / VerifyMFAEnrollment: account setup
//   - Login / CompleteRegistration: credential + TOTP verification with
//     lockout bookkeeping, minting session tokens
//   - VerifySession / RevokeSession / PurgeExpiredSessions: session lifecycle
type AuthService struct {
	db               *sql.DB
	repomanager      repomanager.RepositoryManager
	jwtSecret        []byte
	sessionValidity  time.Duration
	lockoutThreshold int64
	lockoutDuration  time.Duration
	totpIssuer       string
	mfaKey           []byte

	// now is replaceable in tests so lockout and expiry boundaries are exact.
	now func() time.Time
}

// NewAuthService constructs an AuthService using repositories and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) (*AuthService, error) {
	mfaKey, err := cryptox.KeyFromHex(cfg.MFAEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("mfa encryption key: %w", err)
	}
	return &AuthService{
		db:               db,
		repomanager:      m,
		jwtSecret:        []byte(cfg.SecretKey),
		sessionValidity:  cfg.SessionValidityDuration,
		lockoutThreshold: cfg.LockoutThreshold,
		lockoutDuration:  cfg.LockoutDuration,
		totpIssuer:       cfg.TOTPIssuer,
		mfaKey:           mfaKey,
		now:              time.Now,
	}, nil
}

// Register creates a new account with a policy-checked password. The account
// starts with MFA disabled and no session; the caller decides whether to
// enroll a second factor next.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if err := auth.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return nil, common.ErrEmailTaken
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error checking email: %v", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user, err := repo.Create(ctx, &models.User{Email: email, Name: name, PasswordHash: hash})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %v", err)
	}
	return user, nil
}

// EnrollMFA generates a fresh TOTP secret for the user and stores it
// encrypted in pending state; MFAEnabled stays false until the user proves
// possession via VerifyMFAEnrollment. Re-enrolling while pending replaces
// the pending secret.
func (s *AuthService) EnrollMFA(ctx context.Context, userID string) (*MFAEnrollment, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading user: %v", err)
	}
	if user.MFAEnabled {
		return nil, common.ErrMFAAlreadyEnabled
	}

	key, err := auth.GenerateTOTPKey(s.totpIssuer, user.Email)
	if err != nil {
		return nil, common.ErrorInternal
	}
	ciphertext, nonce, err := cryptox.Encrypt([]byte(key.Secret()), s.mfaKey)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := repo.SetMFASecret(ctx, userID, ciphertext, nonce); err != nil {
		return nil, fmt.Errorf("error storing mfa secret: %v", err)
	}

	return &MFAEnrollment{Secret: key.Secret(), URI: key.URL()}, nil
}

// VerifyMFAEnrollment checks a TOTP code against the pending secret and, on
// success, flips MFAEnabled on. Failed codes can be retried without limit;
// enrollment mistakes do not count toward the login lockout.
func (s *AuthService) VerifyMFAEnrollment(ctx context.Context, userID string, code string) error {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error loading user: %v", err)
	}
	if user.MFAEnabled {
		return common.ErrMFAAlreadyEnabled
	}
	if len(user.MFASecretEncrypted) == 0 {
		return common.ErrMFANotEnrolled
	}

	secret, err := s.decryptMFASecret(user)
	if err != nil {
		return common.ErrorInternal
	}
	if !auth.VerifyTOTPCode(code, secret, s.now()) {
		return common.ErrInvalidMFACode
	}

	if err := repo.EnableMFA(ctx, userID); err != nil {
		return fmt.Errorf("error enabling mfa: %v", err)
	}
	return nil
}

// VerifyMFAEnrollmentByEmail is VerifyMFAEnrollment keyed by email, for the
// setup flow where the client has no session yet. An unknown email answers
// the same as an account with no enrollment in progress, so the endpoint
// cannot be used to probe which addresses are registered.
func (s *AuthService) VerifyMFAEnrollmentByEmail(ctx context.Context, email string, code string) error {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrMFANotEnrolled
		}
		return fmt.Errorf("error loading user: %v", err)
	}
	return s.VerifyMFAEnrollment(ctx, user.ID, code)
}

// Login verifies credentials (and the TOTP code when MFA is enabled) and
// returns a signed session token plus the account. Wrong passwords and wrong
// login-time codes increment the failed counter; crossing the threshold arms
// a lockout window. Those writes persist even though the login itself fails.
func (s *AuthService) Login(ctx context.Context, email, password, mfaCode string) (string, *models.User, error) {
	repo := s.repomanager.Users(s.db)
	now := s.now()

	user, err := repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.CheckPassword(dummyPasswordHash, password)
			return "", nil, common.ErrInvalidCredentials
		}
		return "", nil, common.ErrorInternal
	}

	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return "", nil, common.NewLockedError(*user.LockedUntil, now)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		if err := s.recordFailedAttempt(ctx, user.ID, now); err != nil {
			return "", nil, err
		}
		return "", nil, common.ErrInvalidCredentials
	}

	if user.MFAEnabled {
		if mfaCode == "" {
			return "", nil, common.ErrMFARequired
		}
		secret, err := s.decryptMFASecret(user)
		if err != nil {
			return "", nil, common.ErrorInternal
		}
		if !auth.VerifyTOTPCode(mfaCode, secret, now) {
			if err := s.recordFailedAttempt(ctx, user.ID, now); err != nil {
				return "", nil, err
			}
			return "", nil, common.ErrInvalidMFACode
		}
	}

	token, err := s.establishSession(ctx, user, now)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// CompleteRegistration finishes the register → enroll → confirm handshake in
// one call: it verifies the password like Login, then either confirms the
// pending TOTP secret (code present) or discards it (code absent, "skip MFA
// for now"). Accounts whose MFA is already active go through normal TOTP
// verification, so this endpoint cannot bypass a configured second factor.
func (s *AuthService) CompleteRegistration(ctx context.Context, email, password, mfaCode string) (string, *models.User, error) {
	repo := s.repomanager.Users(s.db)
	now := s.now()

	user, err := repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.CheckPassword(dummyPasswordHash, password)
			return "", nil, common.ErrInvalidCredentials
		}
		return "", nil, common.ErrorInternal
	}

	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return "", nil, common.NewLockedError(*user.LockedUntil, now)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		if err := s.recordFailedAttempt(ctx, user.ID, now); err != nil {
			return "", nil, err
		}
		return "", nil, common.ErrInvalidCredentials
	}

	switch {
	case user.MFAEnabled:
		if mfaCode == "" {
			return "", nil, common.ErrMFARequired
		}
		secret, err := s.decryptMFASecret(user)
		if err != nil {
			return "", nil, common.ErrorInternal
		}
		if !auth.VerifyTOTPCode(mfaCode, secret, now) {
			if err := s.recordFailedAttempt(ctx, user.ID, now); err != nil {
				return "", nil, err
			}
			return "", nil, common.ErrInvalidMFACode
		}

	case mfaCode != "":
		if len(user.MFASecretEncrypted) == 0 {
			return "", nil, common.ErrMFANotEnrolled
		}
		secret, err := s.decryptMFASecret(user)
		if err != nil {
			return "", nil, common.ErrorInternal
		}
		if !auth.VerifyTOTPCode(mfaCode, secret, now) {
			return "", nil, common.ErrInvalidMFACode
		}
		if err := repo.EnableMFA(ctx, user.ID); err != nil {
			return "", nil, fmt.Errorf("error enabling mfa: %v", err)
		}
		user.MFAEnabled = true

	case len(user.MFASecretEncrypted) > 0:
		if err := repo.ClearMFASecret(ctx, user.ID); err != nil {
			return "", nil, fmt.Errorf("error clearing mfa secret: %v", err)
		}
	}

	token, err := s.establishSession(ctx, user, now)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// VerifySession validates a session token and returns the owning user id.
// The JWT must parse and verify, and the session row behind its jti must
// still exist and be unexpired; the stored expiry is authoritative.
func (s *AuthService) VerifySession(ctx context.Context, token string) (string, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return "", err
	}

	session, err := s.repomanager.Sessions(s.db).Find(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidToken
		}
		return "", common.ErrorInternal
	}
	if !s.now().Before(session.ExpiresAt) {
		return "", common.ErrTokenExpired
	}
	return session.UserID, nil
}

// RevokeSession deletes the session row behind a token. Expired tokens can
// still be revoked; unparseable or forged tokens are a no-op, as is revoking
// twice. Only storage failures error.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	claims, err := auth.ParseTokenAllowExpired(token, s.jwtSecret)
	if err != nil {
		return nil
	}
	if err := s.repomanager.Sessions(s.db).Delete(ctx, claims.ID); err != nil {
		return fmt.Errorf("error deleting session: %v", err)
	}
	return nil
}

// PurgeExpiredSessions removes session rows whose expiry has passed and
// reports how many were dropped. Verification never depends on this sweep;
// it is storage hygiene.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("error purging sessions: %v", err)
	}
	return n, nil
}

// GetUser returns the account backing an authenticated session.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading user: %v", err)
	}
	return user, nil
}

// SetPassword replaces a user's password after policy validation. Used by
// admin tooling; lockout bookkeeping is not touched.
func (s *AuthService) SetPassword(ctx context.Context, email, password string) error {
	if err := auth.ValidatePassword(password); err != nil {
		return err
	}
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error loading user: %v", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return common.ErrorInternal
	}
	if err := repo.SetPassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("error setting password: %v", err)
	}
	return nil
}

// ResetMFA drops a user's TOTP secret and disables MFA so they can re-enroll
// from scratch. Admin recovery path for lost authenticators.
func (s *AuthService) ResetMFA(ctx context.Context, email string) error {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error loading user: %v", err)
	}
	if err := repo.ClearMFASecret(ctx, user.ID); err != nil {
		return fmt.Errorf("error clearing mfa secret: %v", err)
	}
	return nil
}

// UnlockAccount clears the lockout state without waiting out the window.
func (s *AuthService) UnlockAccount(ctx context.Context, email string) error {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error loading user: %v", err)
	}
	if err := repo.Unlock(ctx, user.ID); err != nil {
		return fmt.Errorf("error unlocking account: %v", err)
	}
	return nil
}

// --- helpers below ---

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) decryptMFASecret(user *models.User) (string, error) {
	secret, err := cryptox.Decrypt(user.MFASecretEncrypted, user.MFASecretNonce, s.mfaKey)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

// recordFailedAttempt bumps the failed-login counter and arms the lockout
// once the threshold is crossed. The increment is a single SQL statement, so
// parallel failures each count exactly once.
func (s *AuthService) recordFailedAttempt(ctx context.Context, userID string, now time.Time) error {
	repo := s.repomanager.Users(s.db)
	n, err := repo.IncrementFailedLogins(ctx, userID)
	if err != nil {
		return fmt.Errorf("error recording failed login: %v", err)
	}
	if n >= s.lockoutThreshold {
		if err := repo.SetLockedUntil(ctx, userID, now.Add(s.lockoutDuration)); err != nil {
			return fmt.Errorf("error locking account: %v", err)
		}
	}
	return nil
}

// establishSession resets the login state (counter, lock, last login) and
// issues a fresh session. The two writes commit independently; a crash in
// between leaves a retryable login, never a half-authenticated state.
func (s *AuthService) establishSession(ctx context.Context, user *models.User, now time.Time) (string, error) {
	if err := s.repomanager.Users(s.db).ResetLoginState(ctx, user.ID, now); err != nil {
		return "", fmt.Errorf("error resetting login state: %v", err)
	}
	return s.issueSession(ctx, user, now)
}

// issueSession persists a session row and signs the matching JWT. The row id
// doubles as the token's jti claim.
func (s *AuthService) issueSession(ctx context.Context, user *models.User, now time.Time) (string, error) {
	sessionID, err := common.MakeRandHexString(32)
	if err != nil {
		return "", common.ErrorInternal
	}

	session := &models.Session{
		ID:        sessionID,
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.sessionValidity),
	}
	if err := s.repomanager.Sessions(s.db).Create(ctx, session); err != nil {
		return "", fmt.Errorf("error creating session: %v", err)
	}

	token, err := auth.GenerateToken(user.ID, user.Email, session.ID, s.jwtSecret, now, s.sessionValidity)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}
