package seal

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Seal errors.
var (
	ErrKeyTooShort = errors.New("seal: secret too short (minimum 16 bytes)")
	ErrMalformed   = errors.New("seal: not a sealed document")
	ErrOpenFailed  = errors.New("seal: decryption failed - wrong key or corrupted data")
)

const (
	// MinSecretLength is the minimum secret length.
	MinSecretLength = 16

	// SaltSize is the length of the per-document HKDF salt.
	SaltSize = 16

	hkdfInfo = "ledgerd export v1"
)

// Magic prefixes every sealed document.
var Magic = []byte("LDX1")

// HeaderSize is the number of bytes preceding the ciphertext.
var HeaderSize = len(Magic) + SaltSize + chacha20poly1305.NonceSize

// Sealer encrypts and decrypts documents with a shared secret.
// It is safe for concurrent use.
type Sealer struct {
	secret []byte
}

// New creates a Sealer. The secret is copied.
func New(secret []byte) (*Sealer, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrKeyTooShort
	}
	return &Sealer{secret: bytes.Clone(secret)}, nil
}

// Seal encrypts plaintext, binding additionalData to the result.
func (s *Sealer) Seal(plaintext, additionalData []byte) ([]byte, error) {
	out := make([]byte, HeaderSize, HeaderSize+len(plaintext)+chacha20poly1305.Overhead)
	copy(out, Magic)

	salt := out[len(Magic) : len(Magic)+SaltSize]
	nonce := out[len(Magic)+SaltSize : HeaderSize]
	if _, err := io.ReadFull(rand.Reader, out[len(Magic):HeaderSize]); err != nil {
		return nil, fmt.Errorf("seal: read random: %w", err)
	}

	aead, err := s.aead(salt)
	if err != nil {
		return nil, err
	}
	return aead.Seal(out, nonce, plaintext, additionalData), nil
}

// Open decrypts a document produced by Seal.
func (s *Sealer) Open(sealed, additionalData []byte) ([]byte, error) {
	if !IsSealed(sealed) || len(sealed) < HeaderSize+chacha20poly1305.Overhead {
		return nil, ErrMalformed
	}
	salt := sealed[len(Magic) : len(Magic)+SaltSize]
	nonce := sealed[len(Magic)+SaltSize : HeaderSize]

	aead, err := s.aead(salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, sealed[HeaderSize:], additionalData)
	if err != nil {
		return nil, ErrOpenFailed
	}
	return plaintext, nil
}

// IsSealed reports whether data starts with the sealed-document magic.
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(data, Magic)
}

func (s *Sealer) aead(salt []byte) (cipher.AEAD, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, s.secret, salt, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("seal: derive key: %w", err)
	}
	return chacha20poly1305.New(key)
}
