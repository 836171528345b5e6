package passgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/and161185/zkvault/internal/errs"
)

func TestGenerate_LengthBounds(t *testing.T) {
	t.Parallel()
	o := DefaultOptions()

	for _, n := range []int{MinLength, DefaultLength, MaxLength} {
		o.Length = n
		pw, err := Generate(o)
		require.NoError(t, err)
		assert.Len(t, pw, n)
	}
	for _, n := range []int{0, MinLength - 1, MaxLength + 1} {
		o.Length = n
		_, err := Generate(o)
		require.ErrorIs(t, err, errs.ErrValidation, "length %d", n)
	}
}

func TestGenerate_OnlyFromCharset(t *testing.T) {
	t.Parallel()
	o := Options{Length: MaxLength, Digits: true, NoLookAlikes: true}
	charset := o.Charset()

	for i := 0; i < 50; i++ {
		pw, err := Generate(o)
		require.NoError(t, err)
		for _, r := range pw {
			require.True(t, strings.ContainsRune(charset, r), "unexpected %q in %q", r, pw)
		}
	}
}

func TestCharset(t *testing.T) {
	t.Parallel()

	onlyLower := Options{}.Charset()
	assert.Equal(t, lower, onlyLower)

	all := Options{Upper: true, Digits: true, Symbols: true}.Charset()
	assert.Contains(t, all, "O")
	assert.Contains(t, all, "I")
	assert.Contains(t, all, "l")
	assert.NotContains(t, all, "0", "0 and 1 are never in the digit class")
	assert.NotContains(t, all, "1")

	clean := DefaultOptions().Charset()
	assert.False(t, strings.ContainsAny(clean, lookAlike))
	assert.Contains(t, clean, "!")
	assert.Contains(t, clean, "9")
}

func TestGenerate_Varies(t *testing.T) {
	t.Parallel()
	a, err := Generate(DefaultOptions())
	require.NoError(t, err)
	b, err := Generate(DefaultOptions())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
