// Package passgen generates random passwords from configurable character classes.
package passgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/and161185/zkvault/internal/errs"
)

const (
	MinLength     = 6
	MaxLength     = 64
	DefaultLength = 12
)

const (
	lower   = "abcdefghijklmnopqrstuvwxyz"
	upper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits  = "23456789"
	symbols = "!@#$%^&*()-_=+[]{}"

	lookAlike = "O0Il1"
)

// Options select the character classes. Lowercase is always included.
type Options struct {
	Length       int
	Upper        bool
	Digits       bool
	Symbols      bool
	NoLookAlikes bool
}

// DefaultOptions enables every class and drops look-alike characters.
func DefaultOptions() Options {
	return Options{Length: DefaultLength, Upper: true, Digits: true, Symbols: true, NoLookAlikes: true}
}

// Charset returns the alphabet the options draw from.
func (o Options) Charset() string {
	chars := lower
	if o.Upper {
		chars += upper
	}
	if o.Digits {
		chars += digits
	}
	if o.Symbols {
		chars += symbols
	}
	if o.NoLookAlikes {
		chars = strings.Map(func(r rune) rune {
			if strings.ContainsRune(lookAlike, r) {
				return -1
			}
			return r
		}, chars)
	}
	return chars
}

// Generate draws Length characters uniformly from the charset using crypto/rand.
func Generate(o Options) (string, error) {
	if o.Length < MinLength || o.Length > MaxLength {
		return "", fmt.Errorf("%w: length must be %d..%d", errs.ErrValidation, MinLength, MaxLength)
	}
	chars := o.Charset()
	n := big.NewInt(int64(len(chars)))

	out := make([]byte, o.Length)
	for i := range out {
		j, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", err
		}
		out[i] = chars[j.Int64()]
	}
	return string(out), nil
}
