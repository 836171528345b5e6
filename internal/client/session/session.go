// Package session holds the client's authenticated state and the derived vault key.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/and161185/zkvault/internal/client/clipboard"
	"github.com/and161185/zkvault/internal/crypto/clientcrypto"
	"github.com/and161185/zkvault/internal/errs"
	"github.com/and161185/zkvault/internal/model"
)

// ErrLocked is returned by operations that need the key before Unlock.
var ErrLocked = errors.New("session locked")

// Auth is what a session persists between runs. It never includes the key
// or the master password.
type Auth struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	KDFSalt   []byte    `json:"kdf_salt"`
}

// Expired reports whether the token is past its expiry at now.
func (a Auth) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// Session is one logged-in client. The derived key lives only here and is
// wiped by Close.
type Session struct {
	Auth

	mu   sync.Mutex
	key  clientcrypto.Key
	clip *clipboard.Clearer
}

// New wraps persisted auth data. clip may be nil when copying is not needed.
func New(a Auth, clip *clipboard.Clearer) *Session {
	return &Session{Auth: a, clip: clip}
}

// FromResult builds Auth from a signup or login response.
func FromResult(email string, r model.AuthResult) Auth {
	return Auth{Email: email, Token: r.Token, ExpiresAt: r.ExpiresAt, KDFSalt: r.KDFSalt}
}

// Unlock derives the vault key from the master password and the account salt.
func (s *Session) Unlock(master string) error {
	k, err := clientcrypto.DeriveKey(master, s.KDFSalt)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key.Wipe()
	s.key = k
	return nil
}

// Unlocked reports whether a key is present.
func (s *Session) Unlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key != nil
}

// Seal encrypts an entry with the session key.
func (s *Session) Seal(e model.Entry) (model.Ciphertext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == nil {
		return "", ErrLocked
	}
	return clientcrypto.Encrypt(e, s.key)
}

// Open decrypts a ciphertext with the session key.
func (s *Session) Open(ct model.Ciphertext) (model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == nil {
		return model.Entry{}, ErrLocked
	}
	return clientcrypto.Decrypt(ct, s.key)
}

// Copy puts text on the clipboard and clears it after the delay.
func (s *Session) Copy(ctx context.Context, text string, after time.Duration) error {
	if s.clip == nil {
		return fmt.Errorf("%w: clipboard not available", errs.ErrValidation)
	}
	return s.clip.CopyAndClear(ctx, text, after)
}

// Close wipes the key and clears any secret still on the clipboard.
func (s *Session) Close() {
	s.mu.Lock()
	s.key.Wipe()
	s.key = nil
	s.mu.Unlock()

	if s.clip != nil {
		s.clip.Cancel()
	}
}
