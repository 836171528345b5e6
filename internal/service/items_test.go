package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/and161185/zkvault/internal/errs"
	"github.com/and161185/zkvault/internal/model"
)

func issueFor(t *testing.T) (string, uuid.UUID) {
	t.Helper()
	id := uuid.Must(uuid.NewV4())
	tok, _, err := newTokens().Issue(id.String(), id.String()[:8]+"@x.com")
	require.NoError(t, err)
	return tok, id
}

func TestVault_AllOperationsRequireValidToken(t *testing.T) {
	t.Parallel()
	s := NewVaultService(&fakeItems{}, newTokens())
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4()).String()

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, err := s.Create(ctx, tok, "c")
		require.ErrorIs(t, err, errs.ErrUnauthorized)
		_, err = s.List(ctx, tok)
		require.ErrorIs(t, err, errs.ErrUnauthorized)
		require.ErrorIs(t, s.Update(ctx, id, tok, "c"), errs.ErrUnauthorized)
		require.ErrorIs(t, s.Delete(ctx, id, tok), errs.ErrUnauthorized)
	}
}

func TestVault_CreateListIsolation(t *testing.T) {
	t.Parallel()
	s := NewVaultService(&fakeItems{}, newTokens())
	ctx := context.Background()
	tokA, ownerA := issueFor(t)
	tokB, _ := issueFor(t)

	id, err := s.Create(ctx, tokA, "ctext1")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	itemsA, err := s.List(ctx, tokA)
	require.NoError(t, err)
	require.Len(t, itemsA, 1)
	assert.Equal(t, id, itemsA[0].ID)
	assert.Equal(t, ownerA, itemsA[0].Owner)
	assert.Equal(t, model.Ciphertext("ctext1"), itemsA[0].Ciphertext)
	assert.Equal(t, itemsA[0].CreatedAt, itemsA[0].UpdatedAt)

	itemsB, err := s.List(ctx, tokB)
	require.NoError(t, err)
	assert.Empty(t, itemsB)
}

func TestVault_UpdateDeleteOwnership(t *testing.T) {
	t.Parallel()
	s := NewVaultService(&fakeItems{}, newTokens())
	ctx := context.Background()
	tokA, _ := issueFor(t)
	tokB, _ := issueFor(t)

	id, err := s.Create(ctx, tokA, "ctext1")
	require.NoError(t, err)

	require.ErrorIs(t, s.Update(ctx, id.String(), tokB, "ctext2"), errs.ErrNotFound)
	require.ErrorIs(t, s.Delete(ctx, id.String(), tokB), errs.ErrNotFound)

	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	require.NoError(t, s.Update(ctx, id.String(), tokA, "ctext2"))

	items, err := s.List(ctx, tokA)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.Ciphertext("ctext2"), items[0].Ciphertext)
	assert.True(t, items[0].UpdatedAt.After(items[0].CreatedAt))

	require.NoError(t, s.Delete(ctx, id.String(), tokA))
	require.ErrorIs(t, s.Delete(ctx, id.String(), tokA), errs.ErrNotFound)
	items, err = s.List(ctx, tokA)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestVault_Validation(t *testing.T) {
	t.Parallel()
	s := NewVaultService(&fakeItems{}, newTokens())
	ctx := context.Background()
	tok, _ := issueFor(t)

	_, err := s.Create(ctx, tok, "")
	require.ErrorIs(t, err, errs.ErrValidation)
	_, err = s.Create(ctx, tok, model.Ciphertext(strings.Repeat("a", MaxCiphertextLen+1)))
	require.ErrorIs(t, err, errs.ErrValidation)

	id, err := s.Create(ctx, tok, "c")
	require.NoError(t, err)
	require.ErrorIs(t, s.Update(ctx, id.String(), tok, ""), errs.ErrValidation)

	require.ErrorIs(t, s.Update(ctx, "not-a-uuid", tok, "c"), errs.ErrNotFound)
	require.ErrorIs(t, s.Delete(ctx, "not-a-uuid", tok), errs.ErrNotFound)
	require.ErrorIs(t, s.Delete(ctx, uuid.Nil.String(), tok), errs.ErrNotFound)
}

func TestVault_RepoErrorsPropagate(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	s := NewVaultService(&fakeItems{err: boom}, newTokens())
	ctx := context.Background()
	tok, _ := issueFor(t)

	_, err := s.Create(ctx, tok, "c")
	require.ErrorIs(t, err, boom)
	_, err = s.List(ctx, tok)
	require.ErrorIs(t, err, boom)
}
