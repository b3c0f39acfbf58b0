// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account holder. Passwords are stored as bcrypt hashes and the
// TOTP secret is kept encrypted at rest.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string

	// MFAEnabled is set once TOTP enrollment has been confirmed with a
	// valid code. A user may carry a pending secret with MFAEnabled false.
	MFAEnabled bool
	// MFASecretEncrypted is the AES-GCM ciphertext of the base32 TOTP
	// secret, nil when the user never enrolled.
	MFASecretEncrypted []byte
	// MFASecretNonce is the AEAD nonce used to encrypt the secret.
	MFASecretNonce []byte

	// FailedLoginAttempts counts consecutive failed logins. Reset on success.
	FailedLoginAttempts int64
	// LockedUntil is non-nil while the account is locked out.
	LockedUntil *time.Time

	LastLogin *time.Time
	CreatedAt time.Time
}
