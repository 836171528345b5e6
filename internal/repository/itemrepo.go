package repository

import (
	"context"
	"time"

	"github.com/and161185/zkvault/internal/model"
	"github.com/gofrs/uuid/v5"
)

// ItemRepository provides owner-scoped access to vault ciphertext.
// Every mutating call matches on (id, owner) together.
type ItemRepository interface {
	// Insert stores a new item.
	Insert(ctx context.Context, it *model.VaultItem) error

	// ListByOwner returns the owner's items in storage (insertion) order.
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]model.VaultItem, error)

	// Update replaces ciphertext and updated_at; errs.ErrNotFound if no row matches (id, owner).
	Update(ctx context.Context, id, owner uuid.UUID, ct model.Ciphertext, updatedAt time.Time) error

	// Delete removes the item; errs.ErrNotFound if no row matches (id, owner).
	Delete(ctx context.Context, id, owner uuid.UUID) error
}
