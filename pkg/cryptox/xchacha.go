package cryptox

import (
	"crypto/cipher"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// DefaultHKDFInfo binds derived keys to body encryption.
var DefaultHKDFInfo = []byte("arcade body encryption v1")

// XChaCha encrypts bodies with XChaCha20-Poly1305. The 24-byte nonce is
// large enough to be drawn at random for every message.
type XChaCha struct {
	aead cipher.AEAD
}

// NewXChaCha derives the key from material with HKDF-SHA256. A nil info uses
// DefaultHKDFInfo.
func NewXChaCha(material, info []byte) (*XChaCha, error) {
	if len(material) == 0 {
		return nil, ErrMissingKey
	}
	if info == nil {
		info = DefaultHKDFInfo
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, material, nil, info), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create XChaCha20-Poly1305: %w", err)
	}

	return &XChaCha{aead: aead}, nil
}

func (e *XChaCha) IsEnabled() bool { return true }

func (e *XChaCha) Encrypt(plaintext string) ([]byte, error) {
	return seal(e.aead, []byte(plaintext))
}

func (e *XChaCha) Decrypt(ciphertext []byte) (string, error) {
	return open(e.aead, ciphertext)
}
