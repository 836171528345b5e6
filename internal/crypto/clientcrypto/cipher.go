package clientcrypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/and161185/zkvault/internal/errs"
	"github.com/and161185/zkvault/internal/model"
)

const formatV1 byte = 1

// blob layout: version(1) || nonce(24) || XChaCha20-Poly1305(JSON(entry)), base64 std with padding.
var b64 = base64.StdEncoding.Strict()

// Encrypt serializes e to JSON and seals it with key under a random nonce.
func Encrypt(e model.Entry, key Key) (model.Ciphertext, error) {
	if len(key) != KeyLen {
		return "", errInvalidKey
	}
	plaintext, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	aad := []byte{formatV1}
	out := make([]byte, 0, 1+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, formatV1)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plaintext, aad)
	clear(plaintext)
	return model.Ciphertext(b64.EncodeToString(out)), nil
}

// Decrypt opens ct with key. Every failure (wrong key, tampering, bad
// encoding, malformed content) is reported as errs.ErrDecryption.
func Decrypt(ct model.Ciphertext, key Key) (model.Entry, error) {
	if len(key) != KeyLen {
		return model.Entry{}, fmt.Errorf("%w: %v", errs.ErrDecryption, errInvalidKey)
	}
	s := string(ct)
	if s == "" || strings.ContainsAny(s, "\r\n") {
		return model.Entry{}, fmt.Errorf("%w: malformed ciphertext", errs.ErrDecryption)
	}
	blob, err := b64.DecodeString(s)
	if err != nil {
		return model.Entry{}, fmt.Errorf("%w: encoding", errs.ErrDecryption)
	}
	if len(blob) < 1+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return model.Entry{}, fmt.Errorf("%w: blob too short", errs.ErrDecryption)
	}
	if blob[0] != formatV1 {
		return model.Entry{}, fmt.Errorf("%w: unsupported version %d", errs.ErrDecryption, blob[0])
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return model.Entry{}, fmt.Errorf("%w: %v", errs.ErrDecryption, err)
	}
	nonce := blob[1 : 1+chacha20poly1305.NonceSizeX]
	sealed := blob[1+chacha20poly1305.NonceSizeX:]
	plaintext, err := aead.Open(nil, nonce, sealed, blob[:1])
	if err != nil {
		return model.Entry{}, fmt.Errorf("%w: authentication failed", errs.ErrDecryption)
	}
	defer clear(plaintext)

	var e model.Entry
	if err := json.Unmarshal(plaintext, &e); err != nil {
		return model.Entry{}, fmt.Errorf("%w: malformed content", errs.ErrDecryption)
	}
	return e, nil
}
