// Package secrets encrypts provider tokens before they are stored.
package secrets

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

//nolint:gochecknoglobals // sentinel error
var ErrInvalidKey = errors.New("secrets: invalid encryption key")

// argon2id parameters used to stretch a passphrase into a vault key.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // 64 MiB
	argonThreads = 4
	argonSalt    = "okrs-provider-token-vault"
)

// Vault encrypts and decrypts values with XChaCha20-Poly1305.
type Vault struct {
	aead cipher.AEAD
}

// NewVault creates a Vault with the given 32-byte encryption key.
func NewVault(key []byte) (*Vault, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKey
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("secrets.NewVault: %w", err)
	}

	return &Vault{aead: aead}, nil
}

// ParseKey accepts either 64 hex characters, used as the raw key, or any
// other non-empty passphrase, which is stretched with argon2id.
func ParseKey(s string) ([]byte, error) {
	if s == "" {
		return nil, ErrInvalidKey
	}
	if raw, err := hex.DecodeString(s); err == nil && len(raw) == chacha20poly1305.KeySize {
		return raw, nil
	}
	return argon2.IDKey([]byte(s), []byte(argonSalt), argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize), nil
}

// Encrypt encrypts plaintext and returns base64(nonce || ciphertext).
func (v *Vault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secrets.Encrypt: generate nonce: %w", err)
	}

	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("secrets.Decrypt: base64 decode: %w", err)
	}

	nonceSize := v.aead.NonceSize()
	if len(data) < nonceSize+v.aead.Overhead() {
		return "", errors.New("secrets.Decrypt: ciphertext too short")
	}

	plaintext, err := v.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("secrets.Decrypt: %w", err)
	}

	return string(plaintext), nil
}
