package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Encryptor seals and opens strings.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Algorithm names a supported AEAD.
type Algorithm string

const (
	AlgorithmAESGCM   Algorithm = "aes-256-gcm"
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
)

// Config selects the key and cipher. An empty Key disables encryption.
type Config struct {
	Key       string    `yaml:"key" mapstructure:"key"`
	Algorithm Algorithm `yaml:"algorithm" mapstructure:"algorithm" validate:"omitempty,oneof=aes-256-gcm chacha20-poly1305"`
}

// Enabled reports whether a key is configured.
func (c Config) Enabled() bool { return c.Key != "" }

// New builds the Encryptor described by cfg. The default algorithm is
// AES-256-GCM.
func New(cfg Config) (Encryptor, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("encryption: key is required")
	}
	key := sha256.Sum256([]byte(cfg.Key))

	var (
		a   cipher.AEAD
		err error
	)
	switch cfg.Algorithm {
	case "", AlgorithmAESGCM:
		var block cipher.Block
		if block, err = aes.NewCipher(key[:]); err == nil {
			a, err = cipher.NewGCM(block)
		}
	case AlgorithmChaCha20:
		a, err = chacha20poly1305.New(key[:])
	default:
		return nil, fmt.Errorf("encryption: unknown algorithm %q", cfg.Algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("encryption: %w", err)
	}
	return &aead{a: a}, nil
}

type aead struct {
	a cipher.AEAD
}

func (s *aead) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, s.a.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("encryption: nonce: %w", err)
	}
	sealed := s.a.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *aead) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("encryption: decode: %w", err)
	}
	n := s.a.NonceSize()
	if len(data) < n+s.a.Overhead() {
		return "", fmt.Errorf("encryption: ciphertext too short")
	}
	plain, err := s.a.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", fmt.Errorf("encryption: open: %w", err)
	}
	return string(plain), nil
}
