package cryptox

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Encryption protects request and response bodies exchanged with the game
// server. Implementations must be safe for concurrent use.
type Encryption interface {
	IsEnabled() bool
	Encrypt(plaintext string) ([]byte, error)
	Decrypt(ciphertext []byte) (string, error)
}

// Supported encryption modes.
const (
	ModeNone    = "none"
	ModeAESGCM  = "aes-gcm"
	ModeXChaCha = "xchacha20poly1305"
)

var (
	ErrUnknownMode        = errors.New("cryptox: unknown encryption mode")
	ErrMissingKey         = errors.New("cryptox: encryption key material is required")
	ErrCiphertextTooShort = errors.New("cryptox: ciphertext too short")
)

// NoEncryption passes bodies through unchanged.
type NoEncryption struct{}

func (NoEncryption) IsEnabled() bool { return false }

func (NoEncryption) Encrypt(plaintext string) ([]byte, error) { return []byte(plaintext), nil }

func (NoEncryption) Decrypt(ciphertext []byte) (string, error) { return string(ciphertext), nil }

// New returns the Encryption for mode keyed by material.
func New(mode string, material []byte) (Encryption, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeNone:
		return NoEncryption{}, nil
	case ModeAESGCM:
		return NewAESGCM(material)
	case ModeXChaCha, "xchacha":
		return NewXChaCha(material, nil)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// LoadKeyMaterial reads key material from path if set, otherwise from the
// environment variable envVar. Surrounding whitespace is trimmed.
func LoadKeyMaterial(path, envVar string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read encryption key file: %w", err)
		}
		return []byte(strings.TrimSpace(string(data))), nil
	}

	if envVar != "" {
		if v := os.Getenv(envVar); v != "" {
			return []byte(strings.TrimSpace(v)), nil
		}
	}

	return nil, ErrMissingKey
}

// deriveKey stretches arbitrary material into a 32-byte key.
func deriveKey(material []byte) ([]byte, error) {
	if len(material) == 0 {
		return nil, ErrMissingKey
	}
	sum := sha256.Sum256(material)
	return sum[:], nil
}
