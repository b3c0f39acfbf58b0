package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/datacleaner/internal/common"
)

// Bootstrap credentials used by -defaults mode.
const (
	defaultAdminEmail    = "admin@apextsgroup.com"
	defaultAdminName     = "Admin User"
	defaultAdminPassword = "Admin@123"
)

// getSimpleText, getPassword and getConfirm are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var getConfirm = GetConfirm

// CreateAdmin interactively creates the first account. An existing email is
// reported and turns into an optional password reset instead of an error.
func (a *App) CreateAdmin(ctx context.Context) error {
	fmt.Println("Data Cleaner - Admin User Setup")

	name, err := getSimpleText(a.reader, "Enter full name", os.Stdout)
	if err != nil {
		return err
	}
	if name == "" {
		return errors.New("name is required")
	}

	email, err := getSimpleText(a.reader, "Enter email address", os.Stdout)
	if err != nil {
		return err
	}
	if email == "" {
		return errors.New("email is required")
	}

	password, err := getPassword(os.Stdout, "Enter password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword(os.Stdout, "Confirm password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(password, confirm) {
		return errors.New("passwords do not match")
	}

	user, err := a.authService.Register(ctx, name, email, string(password))
	if errors.Is(err, common.ErrEmailTaken) {
		fmt.Printf("User with email %s already exists!\n", email)
		reset, err := getConfirm(a.reader, "Do you want to reset the password?", os.Stdout)
		if err != nil {
			return err
		}
		if !reset {
			return nil
		}
		if err := a.authService.SetPassword(ctx, email, string(password)); err != nil {
			return err
		}
		fmt.Printf("User %s updated successfully!\n", email)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("User %s created successfully!\n", email)

	enable, err := getConfirm(a.reader, "Enable MFA?", os.Stdout)
	if err != nil {
		return err
	}
	if !enable {
		fmt.Println("You can enroll MFA later through the API.")
		return nil
	}

	enrollment, err := a.authService.EnrollMFA(ctx, user.ID)
	if err != nil {
		return err
	}

	fmt.Println("MFA Setup")
	fmt.Printf("Secret: %s\n", enrollment.Secret)
	fmt.Printf("Provisioning URI: %s\n", enrollment.URI)
	fmt.Println("Scan the URI or enter the secret in your authenticator app.")

	code, err := getSimpleText(a.reader, "Enter the 6-digit code to confirm (leave empty to finish later)", os.Stdout)
	if err != nil {
		return err
	}
	if code == "" {
		fmt.Println("Enrollment left pending. Confirm it with a code on first login.")
		return nil
	}
	if err := a.authService.VerifyMFAEnrollment(ctx, user.ID, code); err != nil {
		return err
	}
	fmt.Println("MFA enabled.")
	return nil
}

// CreateDefaultAdmin creates the well-known bootstrap account without
// prompting, for scripted setups.
func (a *App) CreateDefaultAdmin(ctx context.Context) error {
	fmt.Println("Data Cleaner - Quick Admin Setup")

	_, err := a.authService.Register(ctx, defaultAdminName, defaultAdminEmail, defaultAdminPassword)
	if errors.Is(err, common.ErrEmailTaken) {
		fmt.Printf("User %s already exists, nothing to do.\n", defaultAdminEmail)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println("Admin user created successfully!")
	fmt.Printf("  Email:    %s\n", defaultAdminEmail)
	fmt.Printf("  Password: %s\n", defaultAdminPassword)
	fmt.Println("IMPORTANT: change this password after the first login!")
	return nil
}
