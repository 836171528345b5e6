// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrValidation indicates missing or malformed caller input.
	ErrValidation = errors.New("validation")

	// ErrNotFound indicates the requested entity does not exist or is not owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates bad credentials or an invalid/expired token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrDecryption indicates a wrong key or corrupted ciphertext. Client side only.
	ErrDecryption = errors.New("decryption failed")

	// ErrMissingSigningKey indicates the token signing key is not configured. Fatal at startup.
	ErrMissingSigningKey = errors.New("missing signing key")
)
