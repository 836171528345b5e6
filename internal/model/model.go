// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Account represents a registered user. PwdHash is never the plaintext and never leaves the server.
type Account struct {
	ID        uuid.UUID // PK
	Email     string    // unique, case-sensitive as stored
	PwdHash   string    // self-describing hash (argon2id PHC or legacy bcrypt)
	KDFSalt   []byte    // per-account, non-secret salt for client-side key derivation
	CreatedAt time.Time
}

// Claims is the identity carried by a session token.
type Claims struct {
	UserID    string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	KDFSalt   []byte // salt the client feeds into key derivation
}

// Ciphertext is an opaque blob produced on the client side.
type Ciphertext string

// VaultItem is a single stored record. The server only ever sees Ciphertext.
type VaultItem struct {
	ID         uuid.UUID
	Owner      uuid.UUID // immutable after creation
	Ciphertext Ciphertext
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Entry holds the plaintext fields of a vault item. Exists only in client memory.
type Entry struct {
	Title    string `json:"title"`
	Username string `json:"username"`
	Password string `json:"password"`
	URL      string `json:"url,omitempty"`
	Notes    string `json:"notes,omitempty"`
}
