// Package auth holds the credential primitives of the service: signed
// session tokens, the password policy with bcrypt hashing, email syntax
// checks and TOTP generation and verification.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/datacleaner/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the registered claim set plus the account identity the token
// was issued for. The jti (RegisteredClaims.ID) doubles as the session ID
// in the sessions table.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func GenerateToken(userID string, email string, tokenID string, secretKey []byte, issuedAt time.Time, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(validityDuration)),
		},
		UserID: userID,
		Email:  email,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and claim validity. Expired tokens map
// to common.ErrTokenExpired, every other failure to common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// ParseTokenAllowExpired verifies the signature but skips claim validation,
// so logout can still locate the session row behind an expired token.
func ParseTokenAllowExpired(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
