package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/zkvault/internal/errs"
	"github.com/and161185/zkvault/internal/model"
)

// ItemRepo implements ItemRepository on SQLite.
type ItemRepo struct{ db *sql.DB }

// Insert stores a new vault item.
func (r *ItemRepo) Insert(ctx context.Context, it *model.VaultItem) error {
	const q = `INSERT INTO vault_items (id, owner_id, ciphertext, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, it.ID.String(), it.Owner.String(), string(it.Ciphertext),
		it.CreatedAt.UTC(), it.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's items in insertion order.
func (r *ItemRepo) ListByOwner(ctx context.Context, owner uuid.UUID) ([]model.VaultItem, error) {
	const q = `
SELECT id, owner_id, ciphertext, created_at, updated_at
FROM vault_items
WHERE owner_id = ?
ORDER BY seq ASC`
	rows, err := r.db.QueryContext(ctx, q, owner.String())
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
		if err := rows.Scan(&it.ID, &it.Owner, &ct, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		it.Ciphertext = model.Ciphertext(ct)
		out = append(out, it)
	}
	return out, rows.Err()
}

// Update replaces the ciphertext of an owned item.
func (r *ItemRepo) Update(ctx context.Context, id, owner uuid.UUID, ct model.Ciphertext, updatedAt time.Time) error {
	const q = `UPDATE vault_items SET ciphertext = ?, updated_at = ? WHERE id = ? AND owner_id = ?`
	res, err := r.db.ExecContext(ctx, q, string(ct), updatedAt.UTC(), id.String(), owner.String())
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return affectedOrNotFound(res)
}

// Delete removes an owned item.
func (r *ItemRepo) Delete(ctx context.Context, id, owner uuid.UUID) error {
	const q = `DELETE FROM vault_items WHERE id = ? AND owner_id = ?`
	res, err := r.db.ExecContext(ctx, q, id.String(), owner.String())
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return affectedOrNotFound(res)
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}
