package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/and161185/zkvault/internal/errs"
	"github.com/and161185/zkvault/internal/model"
	"github.com/gofrs/uuid/v5"
)

// ItemRepo implements ItemRepository using PostgreSQL.
type ItemRepo struct{ db *DB }

// NewItemRepo constructs an item repository.
func NewItemRepo(db *DB) *ItemRepo { return &ItemRepo{db: db} }

// Insert stores a new vault item.
func (r *ItemRepo) Insert(ctx context.Context, it *model.VaultItem) error {
	const q = `
INSERT INTO vault_items (id, owner_id, ciphertext, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.Pool.Exec(ctx, q, it.ID, it.Owner, string(it.Ciphertext), it.CreatedAt, it.UpdatedAt); err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's items ordered by insertion sequence.
func (r *ItemRepo) ListByOwner(ctx context.Context, owner uuid.UUID) ([]model.VaultItem, error) {
	const q = `
SELECT id, owner_id, ciphertext, created_at, updated_at
FROM vault_items
WHERE owner_id=$1
ORDER BY seq ASC`
	rows, err := r.db.Pool.Query(ctx, q, owner)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	out := []model.VaultItem{}
	for rows.Next() {
		var (
			it model.VaultItem
			ct string
		)
		if err = rows.Scan(&it.ID, &it.Owner, &ct, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		it.Ciphertext = model.Ciphertext(ct)
		out = append(out, it)
	}
	return out, rows.Err()
}

// Update replaces the ciphertext of an owned item.
func (r *ItemRepo) Update(ctx context.Context, id, owner uuid.UUID, ct model.Ciphertext, updatedAt time.Time) error {
	const q = `UPDATE vault_items SET ciphertext=$3, updated_at=$4 WHERE id=$1 AND owner_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, owner, string(ct), updatedAt)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes an owned item.
func (r *ItemRepo) Delete(ctx context.Context, id, owner uuid.UUID) error {
	const q = `DELETE FROM vault_items WHERE id=$1 AND owner_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, owner)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
