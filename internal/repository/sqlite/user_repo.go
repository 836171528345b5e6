package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/and161185/zkvault/internal/errs"
	"github.com/and161185/zkvault/internal/model"
)

// UserRepo implements UserRepository on SQLite.
type UserRepo struct{ db *sql.DB }

// Create inserts a new account row.
func (r *UserRepo) Create(ctx context.Context, a *model.Account) error {
	const q = `INSERT INTO accounts (id, email, pwd_hash, kdf_salt, created_at) VALUES (?, ?, ?, ?, ?)`
	salt := a.KDFSalt
	if salt == nil {
		salt = []byte{}
	}
	_, err := r.db.ExecContext(ctx, q, a.ID.String(), a.Email, a.PwdHash, salt, a.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByEmail selects an account by exact email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	const q = `SELECT id, email, pwd_hash, kdf_salt, created_at FROM accounts WHERE email = ?`
	var a model.Account
	err := r.db.QueryRowContext(ctx, q, email).Scan(&a.ID, &a.Email, &a.PwdHash, &a.KDFSalt, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select account: %w", err)
	}
	return &a, nil
}
