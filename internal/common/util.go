package common

import (
	"crypto/rand"
	"encoding/hex"
)

// MakeRandHexString generates a random hexadecimal string from size random
// bytes, so the result is 2*size characters long. Session identifiers are
// minted this way.
//
// It returns an error if the random number generator fails.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateRandByteArray returns a slice of size cryptographically random
// bytes. It panics if the random source fails, which on supported platforms
// does not happen.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray overwrites the contents of the provided byte slice with
// zeros. Useful for passwords and key material after use. A nil slice is a
// no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
