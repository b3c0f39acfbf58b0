package auth

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTPSkew is the number of 30-second steps accepted either side of now.
const TOTPSkew = 1

// GenerateTOTPKey mints a fresh TOTP secret for account under issuer. The
// returned key exposes the base32 secret and the otpauth:// URL clients
// render as a QR code.
func GenerateTOTPKey(issuer string, account string) (*otp.Key, error) {
	return totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
	})
}

// VerifyTOTPCode checks code against the base32 secret at the given time.
func VerifyTOTPCode(code string, secret string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    30,
		Skew:      TOTPSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
