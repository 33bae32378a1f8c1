package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// AESGCM encrypts bodies with AES-256-GCM.
// The output format is: [12-byte nonce][encrypted data][16-byte auth tag]
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM derives a 32-byte key from material using SHA-256.
func NewAESGCM(material []byte) (*AESGCM, error) {
	key, err := deriveKey(material)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	// GCM mode provides authentication
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCM{aead: gcm}, nil
}

func (e *AESGCM) IsEnabled() bool { return true }

// Encrypt seals plaintext under a fresh random nonce.
func (e *AESGCM) Encrypt(plaintext string) ([]byte, error) {
	return seal(e.aead, []byte(plaintext))
}

// Decrypt opens data produced by Encrypt.
func (e *AESGCM) Decrypt(ciphertext []byte) (string, error) {
	return open(e.aead, ciphertext)
}

func seal(aead cipher.AEAD, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends the ciphertext and auth tag to nonce
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func open(aead cipher.AEAD, data []byte) (string, error) {
	nonceSize := aead.NonceSize()
	if len(data) < nonceSize+aead.Overhead() {
		return "", ErrCiphertextTooShort
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plaintext), nil
}
