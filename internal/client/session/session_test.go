package session

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/and161185/zkvault/internal/client/clipboard"
	"github.com/and161185/zkvault/internal/errs"
	"github.com/and161185/zkvault/internal/model"
)

type memClipboard struct {
	mu  sync.Mutex
	cur string
}

func (m *memClipboard) WriteClipboard(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur = text
	return nil
}

func (m *memClipboard) get() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur
}

var testAuth = Auth{
	Email:     "a@x.com",
	Token:     "tok",
	ExpiresAt: time.Now().Add(time.Hour),
	KDFSalt:   []byte("0123456789abcdef"),
}

func TestSession_LockedUntilUnlock(t *testing.T) {
	s := New(testAuth, nil)
	assert.False(t, s.Unlocked())

	_, err := s.Seal(model.Entry{Title: "t"})
	require.ErrorIs(t, err, ErrLocked)
	_, err = s.Open("x")
	require.ErrorIs(t, err, ErrLocked)

	require.ErrorIs(t, s.Unlock(""), errs.ErrValidation)
	assert.False(t, s.Unlocked())
}

func TestSession_SealOpenAndClose(t *testing.T) {
	clip := &memClipboard{}
	s := New(testAuth, clipboard.NewClearer(clip))
	require.NoError(t, s.Unlock("master"))
	require.True(t, s.Unlocked())

	entry := model.Entry{Title: "mail", Username: "alice", Password: "hunter2"}
	ct, err := s.Seal(entry)
	require.NoError(t, err)
	got, err := s.Open(ct)
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	key := s.key
	require.NoError(t, s.Copy(context.Background(), "hunter2", time.Hour))
	assert.Equal(t, "hunter2", clip.get())

	s.Close()
	assert.False(t, s.Unlocked())
	assert.True(t, bytes.Equal(key, make([]byte, len(key))), "key must be zeroed, not just dropped")
	assert.Empty(t, clip.get(), "close clears the clipboard")

	_, err = s.Open(ct)
	require.ErrorIs(t, err, ErrLocked)
}

func TestSession_WrongMasterFailsToDecrypt(t *testing.T) {
	s := New(testAuth, nil)
	require.NoError(t, s.Unlock("right"))
	ct, err := s.Seal(model.Entry{Title: "t"})
	require.NoError(t, err)

	require.NoError(t, s.Unlock("wrong"))
	_, err = s.Open(ct)
	require.ErrorIs(t, err, errs.ErrDecryption)

	require.ErrorIs(t, s.Copy(context.Background(), "x", 0), errs.ErrValidation)
}

func TestStore_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	st, err := Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	defer st.Close()

	_, err = st.Load(ctx)
	require.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, st.Save(ctx, testAuth))
	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, testAuth.Email, got.Email)
	assert.Equal(t, testAuth.Token, got.Token)
	assert.Equal(t, testAuth.KDFSalt, got.KDFSalt)
	assert.True(t, testAuth.ExpiresAt.Equal(got.ExpiresAt))

	st.now = func() time.Time { return testAuth.ExpiresAt.Add(time.Second) }
	_, err = st.Load(ctx)
	require.ErrorIs(t, err, ErrNoSession, "expired token counts as no session")
	st.now = time.Now

	require.NoError(t, st.Delete(ctx))
	require.NoError(t, st.Delete(ctx))
	_, err = st.Load(ctx)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Save(ctx, testAuth))
	require.NoError(t, st.Close())

	st, err = Open(path)
	require.NoError(t, err)
	defer st.Close()
	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)
}
