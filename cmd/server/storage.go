package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/and161185/zkvault/internal/migrate"
	"github.com/and161185/zkvault/internal/repository"
	"github.com/and161185/zkvault/internal/repository/postgres"
	"github.com/and161185/zkvault/internal/repository/sqlite"
)

const sqlitePrefix = "sqlite:"

// storage bundles the repositories of one backend.
type storage struct {
	users repository.UserRepository
	items repository.ItemRepository
	ping  func(context.Context) error
	close func()
}

func (s *storage) Ping(ctx context.Context) error { return s.ping(ctx) }

func (s *storage) Close() { s.close() }

// openStorage picks the backend by DSN: "sqlite:<path>" or a postgres URL.
// Migrations run before the storage is returned.
func openStorage(ctx context.Context, dsn string) (*storage, error) {
	if path, ok := strings.CutPrefix(dsn, sqlitePrefix); ok {
		st, err := sqlite.New(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return &storage{
			users: st.Users(),
			items: st.Items(),
			ping:  st.Ping,
			close: func() { _ = st.Close() },
		}, nil
	}

	if err := migrate.Up(ctx, dsn); err != nil {
		return nil, fmt.Errorf("migrate up: %w", err)
	}
	db, err := postgres.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &storage{
		users: postgres.NewUserRepo(db),
		items: postgres.NewItemRepo(db),
		ping:  db.Ping,
		close: db.Close,
	}, nil
}
