package auth

import (
	"regexp"

	"github.com/dmitrijs2005/datacleaner/internal/common"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks address syntax. The returned error unwraps to
// common.ErrValidation.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return common.NewValidationError("Invalid email format")
	}
	return nil
}
