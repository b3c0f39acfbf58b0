package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ResetMFA removes an account's MFA configuration so the owner can enroll
// again, for users who lost their authenticator.
func (a *App) ResetMFA(ctx context.Context, email string) error {
	email, err := a.resolveEmail(email)
	if err != nil {
		return err
	}
	if err := a.authService.ResetMFA(ctx, email); err != nil {
		return err
	}
	fmt.Printf("MFA reset for %s.\n", email)
	return nil
}

// UnlockAccount clears a failed-login lockout before it expires on its own.
func (a *App) UnlockAccount(ctx context.Context, email string) error {
	email, err := a.resolveEmail(email)
	if err != nil {
		return err
	}
	if err := a.authService.UnlockAccount(ctx, email); err != nil {
		return err
	}
	fmt.Printf("Account %s unlocked.\n", email)
	return nil
}

// PurgeSessions deletes expired sessions immediately instead of waiting for
// the server's background sweep.
func (a *App) PurgeSessions(ctx context.Context) error {
	n, err := a.authService.PurgeExpiredSessions(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d expired sessions.\n", n)
	return nil
}

func (a *App) resolveEmail(email string) (string, error) {
	if email != "" {
		return email, nil
	}
	email, err := getSimpleText(a.reader, "Enter email address", os.Stdout)
	if err != nil {
		return "", err
	}
	if email == "" {
		return "", errors.New("email is required")
	}
	return email, nil
}
