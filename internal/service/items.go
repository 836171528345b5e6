package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/zkvault/internal/errs"
	"github.com/and161185/zkvault/internal/model"
	"github.com/and161185/zkvault/internal/repository"
	"github.com/and161185/zkvault/internal/token"
)

// MaxCiphertextLen bounds a single stored blob.
const MaxCiphertextLen = 64 << 10

// VaultService defines owner-scoped operations over ciphertext blobs.
// Every call takes the caller's bearer token and is authorized the same way.
type VaultService interface {
	// Create stores a new item owned by the token's user and returns its id.
	Create(ctx context.Context, tok string, ct model.Ciphertext) (uuid.UUID, error)
	// List returns the caller's items in storage order.
	List(ctx context.Context, tok string) ([]model.VaultItem, error)
	// Update replaces the ciphertext of an owned item.
	Update(ctx context.Context, id, tok string, ct model.Ciphertext) error
	// Delete removes an owned item.
	Delete(ctx context.Context, id, tok string) error
}

type VaultServiceImpl struct {
	repo   repository.ItemRepository
	tokens token.Verifier
	now    func() time.Time
}

// NewVaultService constructs VaultService.
func NewVaultService(repo repository.ItemRepository, tokens token.Verifier) *VaultServiceImpl {
	return &VaultServiceImpl{repo: repo, tokens: tokens, now: time.Now}
}

// Create validates and stores a new item.
func (s *VaultServiceImpl) Create(ctx context.Context, tok string, ct model.Ciphertext) (uuid.UUID, error) {
	owner, err := s.authorize(tok)
	if err != nil {
		return uuid.Nil, err
	}
	if err := validateCiphertext(ct); err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	now := s.now().UTC()
	it := &model.VaultItem{ID: id, Owner: owner, Ciphertext: ct, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Insert(ctx, it); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// List returns only the caller's items.
func (s *VaultServiceImpl) List(ctx context.Context, tok string) ([]model.VaultItem, error) {
	owner, err := s.authorize(tok)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByOwner(ctx, owner)
}

// Update replaces ciphertext wholesale. Missing and foreign items are both ErrNotFound.
func (s *VaultServiceImpl) Update(ctx context.Context, id, tok string, ct model.Ciphertext) error {
	owner, err := s.authorize(tok)
	if err != nil {
		return err
	}
	if err := validateCiphertext(ct); err != nil {
		return err
	}
	itemID, err := parseItemID(id)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, itemID, owner, ct, s.now().UTC())
}

// Delete removes an owned item. Missing and foreign items are both ErrNotFound.
func (s *VaultServiceImpl) Delete(ctx context.Context, id, tok string) error {
	owner, err := s.authorize(tok)
	if err != nil {
		return err
	}
	itemID, err := parseItemID(id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, itemID, owner)
}

// authorize is the single gate for all vault operations.
func (s *VaultServiceImpl) authorize(tok string) (uuid.UUID, error) {
	c, err := s.tokens.Verify(tok)
	if err != nil {
		return uuid.Nil, err
	}
	owner, err := uuid.FromString(c.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", errs.ErrUnauthorized)
	}
	return owner, nil
}

func validateCiphertext(ct model.Ciphertext) error {
	switch {
	case ct == "":
		return fmt.Errorf("%w: empty ciphertext", errs.ErrValidation)
	case len(ct) > MaxCiphertextLen:
		return fmt.Errorf("%w: ciphertext too large", errs.ErrValidation)
	}
	return nil
}

// parseItemID maps malformed ids to ErrNotFound: no such item can exist.
func parseItemID(id string) (uuid.UUID, error) {
	u, err := uuid.FromString(id)
	if err != nil || u == uuid.Nil {
		return uuid.Nil, errs.ErrNotFound
	}
	return u, nil
}
