package service

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/zkvault/internal/crypto"
	"github.com/and161185/zkvault/internal/errs"
	"github.com/and161185/zkvault/internal/model"
	"github.com/and161185/zkvault/internal/repository"
	"github.com/and161185/zkvault/internal/token"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

func newHasher() *crypto.Hasher {
	return crypto.NewHasher(crypto.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}, 4)
}

func newTokens() *token.Service {
	s, err := token.NewService(testSigningKey, 0)
	if err != nil {
		panic(err)
	}
	return s
}

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*model.Account

	createErr error
	getErr    error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, a *model.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if f.byEmail == nil {
		f.byEmail = map[string]*model.Account{}
	}
	if _, exists := f.byEmail[a.Email]; exists {
		return errs.ErrAlreadyExists
	}
	cpy := *a
	f.byEmail[a.Email] = &cpy
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *a
	return &c, nil
}

type fakeItems struct {
	mu    sync.Mutex
	items []model.VaultItem

	err error
}

var _ repository.ItemRepository = (*fakeItems)(nil)

func (f *fakeItems) Insert(_ context.Context, it *model.VaultItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.items = append(f.items, *it)
	return nil
}

func (f *fakeItems) ListByOwner(_ context.Context, owner uuid.UUID) ([]model.VaultItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []model.VaultItem{}
	for _, it := range f.items {
		if it.Owner == owner {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeItems) Update(_ context.Context, id, owner uuid.UUID, ct model.Ciphertext, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i := range f.items {
		if f.items[i].ID == id && f.items[i].Owner == owner {
			f.items[i].Ciphertext = ct
			f.items[i].UpdatedAt = at
			return nil
		}
	}
	return errs.ErrNotFound
}

func (f *fakeItems) Delete(_ context.Context, id, owner uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i := range f.items {
		if f.items[i].ID == id && f.items[i].Owner == owner {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}
