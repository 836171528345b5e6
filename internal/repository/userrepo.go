// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/zkvault/internal/model"
)

// UserRepository stores accounts keyed by unique email.
type UserRepository interface {
	// Create inserts a new account; errs.ErrAlreadyExists if the email is taken.
	Create(ctx context.Context, a *model.Account) error
	// GetByEmail loads an account by exact email; errs.ErrNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
}
