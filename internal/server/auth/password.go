package auth

import (
	"regexp"

	"github.com/dmitrijs2005/datacleaner/internal/common"
	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 12

const passwordMinLength = 8

// Requirement order is fixed so the first unmet rule is always the one
// reported back to the caller.
var passwordRequirements = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"uppercase", regexp.MustCompile(`[A-Z]`)},
	{"lowercase", regexp.MustCompile(`[a-z]`)},
	{"digit", regexp.MustCompile(`[0-9]`)},
	{"special", regexp.MustCompile(`[@$!%*?&]`)},
}

// ValidatePassword checks the account password policy. The returned error
// unwraps to common.ErrValidation and its message names the unmet rule.
func ValidatePassword(password string) error {
	if len(password) < passwordMinLength {
		return common.NewValidationError("Password must be at least %d characters", passwordMinLength)
	}

	for _, req := range passwordRequirements {
		if !req.pattern.MatchString(password) {
			return common.NewValidationError("Password must contain at least one %s character", req.name)
		}
	}

	return nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
