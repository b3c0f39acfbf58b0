package cryptox

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dmitrijs2005/datacleaner/internal/common"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := common.GenerateRandByteArray(32)
	secret := []byte("JBSWY3DPEHPK3PXP")

	ciphertext, nonce, err := Encrypt(secret, key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if bytes.Equal(ciphertext, secret) {
		t.Errorf("ciphertext equals plaintext")
	}

	plaintext, err := Decrypt(ciphertext, nonce, key)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}

	if !bytes.Equal(plaintext, secret) {
		t.Errorf("expected %q, got %q", secret, plaintext)
	}
}

func TestEncrypt_FreshNoncePerCall(t *testing.T) {
	key := common.GenerateRandByteArray(32)
	secret := []byte("JBSWY3DPEHPK3PXP")

	_, nonce1, err := Encrypt(secret, key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	_, nonce2, err := Encrypt(secret, key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if bytes.Equal(nonce1, nonce2) {
		t.Errorf("expected different nonces for separate calls, got same")
	}
}

func TestDecrypt_WrongKeyFails(t *testing.T) {
	key := common.GenerateRandByteArray(32)
	other := common.GenerateRandByteArray(32)

	ciphertext, nonce, err := Encrypt([]byte("JBSWY3DPEHPK3PXP"), key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if _, err := Decrypt(ciphertext, nonce, other); err == nil {
		t.Errorf("expected error for wrong key, got nil")
	}
}

func TestDecrypt_TamperedCiphertextFails(t *testing.T) {
	key := common.GenerateRandByteArray(32)

	ciphertext, nonce, err := Encrypt([]byte("JBSWY3DPEHPK3PXP"), key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	ciphertext[0] ^= 0xff

	if _, err := Decrypt(ciphertext, nonce, key); err == nil {
		t.Errorf("expected error for tampered ciphertext, got nil")
	}
}

func TestEncrypt_InvalidKeyLength(t *testing.T) {
	if _, _, err := Encrypt([]byte("data"), []byte("short")); err == nil {
		t.Errorf("expected error for invalid key length, got nil")
	}
}

func TestKeyFromHex(t *testing.T) {
	key, err := KeyFromHex(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(key) != 32 {
		t.Errorf("expected 32-byte key, got %d", len(key))
	}

	if _, err := KeyFromHex("zz"); err == nil {
		t.Errorf("expected error for non-hex input, got nil")
	}

	if _, err := KeyFromHex("abcd"); err == nil {
		t.Errorf("expected error for invalid key size, got nil")
	}
}
