// Package crypto implements server-side password hashing and verification.
package crypto

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Params are Argon2id cost parameters. They are encoded into every hash,
// so changing them does not break verification of stored hashes.
type Params struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

// DefaultParams are tuned for server-side hashing.
var DefaultParams = Params{
	Time:    3,
	Memory:  64 * 1024, // 64 MB
	Threads: 1,
	KeyLen:  32,
	SaltLen: 16,
}

var errMalformedHash = errors.New("malformed hash")

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// Hasher hashes and verifies account passwords. At most `concurrency`
// hash computations run at once; the rest wait for a slot.
type Hasher struct {
	params Params
	sem    *semaphore.Weighted

	dummyOnce sync.Once
	dummy     string
}

// NewHasher constructs a Hasher. concurrency <= 0 means one slot.
func NewHasher(p Params, concurrency int) *Hasher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Hasher{params: p, sem: semaphore.NewWeighted(int64(concurrency))}
}

// Hash returns an encoded Argon2id hash with a fresh random salt:
// $argon2id$v=19$m=<mem>,t=<time>,p=<threads>$<salt>$<key>
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	salt, err := RandBytes(h.params.SaltLen)
	if err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)
	return encode(h.params, salt, hashArgon(h.params, []byte(password), salt)), nil
}

// Verify reports whether password matches encoded. It never fails on mismatch
// or malformed input; it returns false.
func (h *Hasher) Verify(ctx context.Context, password, encoded string) bool {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)
	return VerifyPassword(password, encoded)
}

// VerifyDummy spends the same work as a real Verify against a throwaway hash.
// Used when the account does not exist so both login failures cost alike.
func (h *Hasher) VerifyDummy(ctx context.Context, password string) {
	h.dummyOnce.Do(func() {
		salt := make([]byte, h.params.SaltLen)
		h.dummy = encode(h.params, salt, hashArgon(h.params, []byte("dummy"), salt))
	})
	_ = h.Verify(ctx, password, h.dummy)
}

// VerifyPassword checks password against an Argon2id or legacy bcrypt hash.
func VerifyPassword(password, encoded string) bool {
	if isBcrypt(encoded) {
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
	}
	p, salt, want, err := decode(encoded)
	if err != nil {
		return false
	}
	got := hashArgon(p, []byte(password), salt)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func hashArgon(p Params, password, salt []byte) []byte {
	return argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

func encode(p Params, salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func decode(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return Params{}, nil, nil, errMalformedHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Params{}, nil, nil, errMalformedHash
	}
	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return Params{}, nil, nil, errMalformedHash
	}
	if p.Time == 0 || p.Threads == 0 {
		return Params{}, nil, nil, errMalformedHash
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, errMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Params{}, nil, nil, errMalformedHash
	}
	p.SaltLen = len(salt)
	p.KeyLen = uint32(len(key))
	return p, salt, key, nil
}
