package token

import (
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/and161185/zkvault/internal/errs"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newSvc(t *testing.T, opts ...Option) *Service {
	t.Helper()
	s, err := NewService(testKey, 0, opts...)
	require.NoError(t, err)
	return s
}

func TestNewService_RequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewService(nil, time.Hour)
	require.ErrorIs(t, err, errs.ErrMissingSigningKey)

	_, err = NewService([]byte("short"), time.Hour)
	require.ErrorIs(t, err, errs.ErrMissingSigningKey)

	s, err := NewService(testKey, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, s.ttl)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newSvc(t)
	uid := uuid.Must(uuid.NewV4()).String()

	tok, exp, err := s.Issue(uid, "a@x.com")
	require.NoError(t, err)
	assert.Len(t, strings.Split(tok, "."), 3)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), exp, 5*time.Second)

	c, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, uid, c.UserID)
	assert.Equal(t, "a@x.com", c.Email)
	assert.Equal(t, exp.Unix(), c.ExpiresAt.Unix())
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()
	past := func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
	issuer := newSvc(t, WithClock(past))
	verifier := newSvc(t)

	tok, _, err := issuer.Issue(uuid.Must(uuid.NewV4()).String(), "a@x.com")
	require.NoError(t, err)

	_, err = verifier.Verify(tok)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.Contains(t, err.Error(), "expired")
}

func TestVerify_StillValidJustBeforeExpiry(t *testing.T) {
	t.Parallel()
	almost := func() time.Time { return time.Now().Add(-7*24*time.Hour + time.Minute) }
	issuer := newSvc(t, WithClock(almost))

	tok, _, err := issuer.Issue(uuid.Must(uuid.NewV4()).String(), "a@x.com")
	require.NoError(t, err)

	_, err = newSvc(t).Verify(tok)
	require.NoError(t, err)
}

func TestVerify_BadSignature(t *testing.T) {
	t.Parallel()
	other, err := NewService([]byte("ffffffffffffffffffffffffffffffff"), 0)
	require.NoError(t, err)

	tok, _, err := other.Issue(uuid.Must(uuid.NewV4()).String(), "a@x.com")
	require.NoError(t, err)

	_, err = newSvc(t).Verify(tok)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()
	s := newSvc(t)

	for _, tok := range []string{"", "abc", "a.b.c", "a.b", strings.Repeat(".", 5)} {
		_, err := s.Verify(tok)
		require.ErrorIs(t, err, errs.ErrUnauthorized, "token %q", tok)
	}

	tok, _, err := s.Issue(uuid.Must(uuid.NewV4()).String(), "a@x.com")
	require.NoError(t, err)
	parts := strings.Split(tok, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	_, err = s.Verify(tampered)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()
	s := newSvc(t)
	uid := uuid.Must(uuid.NewV4()).String()
	now := time.Now()
	c := wireClaims{
		UserID: uid,
		Email:  "a@x.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString(testKey)
	require.NoError(t, err)
	_, err = s.Verify(hs512)
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.Verify(none)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestVerify_ClaimsShapeChecked(t *testing.T) {
	t.Parallel()
	s := newSvc(t)
	now := time.Now()

	sign := func(c wireClaims) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(testKey)
		require.NoError(t, err)
		return tok
	}
	reg := func(sub string, exp *jwt.NumericDate) jwt.RegisteredClaims {
		return jwt.RegisteredClaims{Subject: sub, IssuedAt: jwt.NewNumericDate(now), ExpiresAt: exp}
	}
	uid := uuid.Must(uuid.NewV4()).String()
	exp := jwt.NewNumericDate(now.Add(time.Hour))

	cases := map[string]wireClaims{
		"non-uuid user":     {UserID: "42", Email: "a@x.com", RegisteredClaims: reg("42", exp)},
		"missing email":     {UserID: uid, RegisteredClaims: reg(uid, exp)},
		"subject mismatch":  {UserID: uid, Email: "a@x.com", RegisteredClaims: reg("other", exp)},
		"missing expiry":    {UserID: uid, Email: "a@x.com", RegisteredClaims: reg(uid, nil)},
		"missing user info": {RegisteredClaims: reg("", exp)},
	}
	for name, c := range cases {
		_, err := s.Verify(sign(c))
		require.ErrorIs(t, err, errs.ErrUnauthorized, name)
	}
}
