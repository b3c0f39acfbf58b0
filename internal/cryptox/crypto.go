// Package cryptox provides the AES-GCM primitives used to keep MFA secrets
// encrypted at rest.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/datacleaner/internal/common"
)

// Encrypt seals plaintext with AES-GCM under the given key.
//
// The key must be a valid AES key length (16, 24, or 32 bytes). A fresh
// random nonce is generated for each call; ciphertext and nonce are returned
// separately and both must be stored to decrypt later.
//
// Example:
//
//	key, _ := cryptox.KeyFromHex(cfg.MFAEncryptionKey)
//	ciphertext, nonce, err := cryptox.Encrypt([]byte(secret), key)
//	if err != nil {
//	    return err
//	}
func Encrypt(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	nonce = common.GenerateRandByteArray(aesgcm.NonceSize())
	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)

	return ciphertext, nonce, nil
}

// Decrypt opens ciphertext produced by Encrypt using the same key and nonce.
// Authentication failure (wrong key, tampered data) returns an error.
func Decrypt(ciphertext, nonce, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return aesgcm.Open(nil, nonce, ciphertext, nil)
}

// KeyFromHex decodes a hex-encoded AES key and checks its length.
func KeyFromHex(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decoding key: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	default:
		return nil, fmt.Errorf("invalid key length: %d bytes", len(key))
	}
}
