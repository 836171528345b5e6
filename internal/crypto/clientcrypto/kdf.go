// Package clientcrypto contains client-side key derivation and vault entry encryption.
// Nothing here is ever imported by the server.
package clientcrypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/and161185/zkvault/internal/errs"
)

// Params
const (
	KeyLen = 32

	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 1
)

var errInvalidKey = errors.New("invalid key length")

// Key is a symmetric key derived from the master password. Keep it in memory
// only for the lifetime of a session and Wipe it afterwards.
type Key []byte

// Wipe zeroes the key bytes in place.
func (k Key) Wipe() { clear(k) }

// DeriveKey derives the vault key from masterPassword and a non-secret salt
// using Argon2id. The result is deterministic for identical inputs.
func DeriveKey(masterPassword string, salt []byte) (Key, error) {
	if masterPassword == "" {
		return nil, fmt.Errorf("%w: empty master password", errs.ErrValidation)
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", errs.ErrValidation)
	}
	return argon2.IDKey([]byte(masterPassword), salt, argonTime, argonMemory, argonThreads, KeyLen), nil
}
