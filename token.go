package bloghost

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// tokenSaltKey names the shared settings row holding the token salt.
	tokenSaltKey = "token_salt"

	// tokenMinuteLayout truncates a timestamp to minute granularity for
	// token derivation.
	tokenMinuteLayout = "200601021504"
)

// TokenService implements the stateless time-windowed bot-defense token
// protocol guarding public write endpoints. Tokens are bound to a URL and to
// the minute they were issued in; verification also accepts the previous
// minute, giving submitters up to two minutes of think-time.
type TokenService struct {
	store *Store
}

// NewTokenService returns a TokenService backed by the shared settings store.
func NewTokenService(store *Store) *TokenService {
	return &TokenService{store: store}
}

// salt returns the shared secret salt, lazily creating it on first use. The
// salt is read through the store on every call rather than cached in-process:
// other instances share it, and if it is ever lost a regenerated salt only
// causes a brief burst of false rejections.
func (t *TokenService) salt() (string, error) {
	salt, err := t.store.GetSetting(tokenSaltKey)
	if err != nil {
		return "", fmt.Errorf("read token salt: %w", err)
	}
	if salt == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("generate token salt: %w", err)
		}
		salt = hex.EncodeToString(b)
		if err := t.store.SetSetting(tokenSaltKey, salt); err != nil {
			return "", fmt.Errorf("store token salt: %w", err)
		}
	}
	return salt, nil
}

// Generate derives the token for url at the given time.
func (t *TokenService) Generate(url string, at time.Time) (string, error) {
	salt, err := t.salt()
	if err != nil {
		return "", err
	}
	sum := sha512.Sum512([]byte(url + salt + at.Format(tokenMinuteLayout)))
	return hex.EncodeToString(sum[:]), nil
}

// Verify reports whether token is valid for url at the given time. A token
// from the current or the previous minute is accepted.
func (t *TokenService) Verify(url, token string, at time.Time) (bool, error) {
	for _, when := range []time.Time{at, at.Add(-time.Minute)} {
		expected, err := t.Generate(url, when)
		if err != nil {
			return false, err
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1 {
			return true, nil
		}
	}
	return false, nil
}
