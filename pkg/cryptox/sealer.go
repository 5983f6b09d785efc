package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// MasterKeyEnv is read when no master key file is configured.
const MasterKeyEnv = "ESTATE_MASTER_KEY"

// ErrNoMasterKey is returned when neither a key file nor the environment
// variable provides key material.
var ErrNoMasterKey = errors.New("cryptox: no master key configured")

var sealerInfo = []byte("estate/kv-seal/v1")

// LoadMasterKey reads key material from path, falling back to MasterKeyEnv.
func LoadMasterKey(path string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read master key file: %w", err)
		}
		data = []byte(strings.TrimSpace(string(data)))
		if len(data) == 0 {
			return nil, ErrNoMasterKey
		}
		return data, nil
	}

	if envKey := os.Getenv(MasterKeyEnv); envKey != "" {
		return []byte(envKey), nil
	}

	return nil, ErrNoMasterKey
}

// Sealer encrypts small values with AES-256-GCM. The AES key is derived from
// the master key material with HKDF-SHA256.
// Output format: [12-byte nonce][ciphertext][16-byte tag].
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives an AES-256 key from master and returns a Sealer.
func NewSealer(master []byte) (*Sealer, error) {
	if len(master) == 0 {
		return nil, ErrNoMasterKey
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, sealerInfo), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Sealer{aead: gcm}, nil
}

// Seal encrypts plaintext with a fresh random nonce. additional is
// authenticated but not encrypted; binding it to the storage key stops a
// sealed value being moved to another key.
func (s *Sealer) Seal(plaintext, additional []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return s.aead.Seal(nonce, nonce, plaintext, additional), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed, additional []byte) ([]byte, error) {
	nonceSize := s.aead.NonceSize()
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, additional)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plaintext, nil
}
