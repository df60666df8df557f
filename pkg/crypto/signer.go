// Package crypto provides tamper-evident signing for resume tokens.
package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
)

// TokenSigner signs and verifies resume-token payloads with HMAC-SHA256.
// Tokens cross a process boundary (they come back as the user's next query),
// so the key is persisted under the config directory to survive restarts.
type TokenSigner struct {
	key []byte
}

// NewTokenSigner creates a signer with an explicit key.
func NewTokenSigner(key []byte) (*TokenSigner, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("token signer requires a key")
	}
	return &TokenSigner{key: key}, nil
}

// LoadSigner loads the token key from keyDir, generating and persisting a
// fresh one on first use.
func LoadSigner(keyDir string) (*TokenSigner, error) {
	if err := os.MkdirAll(keyDir, 0700); err != nil {
		return nil, err
	}

	keyPath := filepath.Join(keyDir, "resume.key")
	key, err := os.ReadFile(keyPath)
	if err != nil {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate token key: %w", err)
		}
		if err := os.WriteFile(keyPath, key, 0600); err != nil {
			return nil, fmt.Errorf("persist token key: %w", err)
		}
	}

	return NewTokenSigner(key)
}

// Sign returns the base64url HMAC-SHA256 signature of the payload.
func (s *TokenSigner) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether sig is a valid signature of payload.
func (s *TokenSigner) Verify(payload []byte, sig string) bool {
	want, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), want)
}
