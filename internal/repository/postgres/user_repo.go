package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/zkvault/internal/errs"
	"github.com/and161185/zkvault/internal/model"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new account row. Email uniqueness is enforced by the accounts_email_key index.
func (r *UserRepo) Create(ctx context.Context, a *model.Account) error {
	const q = `
INSERT INTO accounts (id, email, pwd_hash, kdf_salt, created_at)
VALUES ($1, $2, $3, $4, $5)`
	salt := a.KDFSalt
	if salt == nil {
		salt = []byte{}
	}
	_, err := r.db.Pool.Exec(ctx, q, a.ID, a.Email, a.PwdHash, salt, a.CreatedAt)
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
	const q = `
SELECT id, email, pwd_hash, kdf_salt, created_at
FROM accounts WHERE email=$1`
	row := r.db.Pool.QueryRow(ctx, q, email)
	var a model.Account
	if err := row.Scan(&a.ID, &a.Email, &a.PwdHash, &a.KDFSalt, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("select account: %w", err)
	}
	return &a, nil
}
