package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const separator = ":"

var ErrInvalidToken = errors.New("invalid token")

// Sealer produces opaque, tamper-proof tokens from a list of identifiers.
type Sealer struct {
	aead cipher.AEAD
}

// New derives an AES-256 key from secret. An empty secret gets a random key,
// so tokens are only valid for the lifetime of the process.
func New(secret string) (*Sealer, error) {
	var key [32]byte
	if secret == "" {
		if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
			return nil, err
		}
	} else {
		key = sha256.Sum256([]byte(secret))
	}

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Sealer{aead: aesgcm}, nil
}

func (s *Sealer) Seal(parts ...string) (string, error) {
	for _, p := range parts {
		if strings.Contains(p, separator) {
			return "", fmt.Errorf("token part %q contains %q", p, separator)
		}
	}
	plaintext := []byte(strings.Join(parts, separator))

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ct := s.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(ct), nil
}

func (s *Sealer) Open(token string) ([]string, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, ErrInvalidToken
	}
	nonce := data[:nonceSize]
	ciphertext := data[nonceSize:]

	pt, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return strings.Split(string(pt), separator), nil
}
