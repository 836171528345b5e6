// Package service contains application services for accounts and vault items.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/zkvault/internal/crypto"
	"github.com/and161185/zkvault/internal/errs"
	"github.com/and161185/zkvault/internal/model"
	"github.com/and161185/zkvault/internal/repository"
	"github.com/and161185/zkvault/internal/token"
)

const (
	maxEmailLen    = 254
	maxPasswordLen = 1024
	kdfSaltLen     = 16
)

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, encoded string) bool
	VerifyDummy(ctx context.Context, password string)
}

// AccountService defines signup and login.
type AccountService interface {
	// Signup registers a new account and returns a session token.
	Signup(ctx context.Context, email, password string) (model.AuthResult, error)
	// Login authenticates and returns a session token.
	Login(ctx context.Context, email, password string) (model.AuthResult, error)
}

type AccountServiceImpl struct {
	users        repository.UserRepository
	hasher       PasswordHasher
	tokens       token.Issuer
	fallbackSalt []byte
	log          *zap.Logger
	now          func() time.Time
}

// NewAccountService constructs AccountService. fallbackSalt is handed to
// clients of accounts created before per-account salts existed.
func NewAccountService(
	users repository.UserRepository, hasher PasswordHasher, tokens token.Issuer, fallbackSalt []byte, log *zap.Logger,
) *AccountServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountServiceImpl{
		users:        users,
		hasher:       hasher,
		tokens:       tokens,
		fallbackSalt: fallbackSalt,
		log:          log,
		now:          time.Now,
	}
}

// Signup creates the account with a fresh per-account KDF salt.
func (s *AccountServiceImpl) Signup(ctx context.Context, email, password string) (model.AuthResult, error) {
	if err := validateCredentials(email, password); err != nil {
		return model.AuthResult{}, err
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return model.AuthResult{}, errs.ErrAlreadyExists
	case !errors.Is(err, errs.ErrNotFound):
		return model.AuthResult{}, err
	}

	uid, err := uuid.NewV4()
	if err != nil {
		return model.AuthResult{}, err
	}
	salt, err := pkgcrypto.RandBytes(kdfSaltLen)
	if err != nil {
		return model.AuthResult{}, err
	}
	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	a := &model.Account{
		ID:        uid,
		Email:     email,
		PwdHash:   hash,
		KDFSalt:   salt,
		CreatedAt: s.now().UTC(),
	}
	if err := s.users.Create(ctx, a); err != nil {
		return model.AuthResult{}, err
	}
	s.log.Info("account created", zap.String("user_id", uid.String()))

	return s.issue(a)
}

// Login verifies credentials. Unknown email and wrong password are the same
// ErrUnauthorized and cost one hash verification each.
func (s *AccountServiceImpl) Login(ctx context.Context, email, password string) (model.AuthResult, error) {
	if email == "" || password == "" {
		return model.AuthResult{}, fmt.Errorf("%w: missing email or password", errs.ErrValidation)
	}

	a, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			return model.AuthResult{}, err
		}
		s.hasher.VerifyDummy(ctx, password)
		return model.AuthResult{}, errs.ErrUnauthorized
	}
	if !s.hasher.Verify(ctx, password, a.PwdHash) {
		return model.AuthResult{}, errs.ErrUnauthorized
	}
	return s.issue(a)
}

func (s *AccountServiceImpl) issue(a *model.Account) (model.AuthResult, error) {
	tok, exp, err := s.tokens.Issue(a.ID.String(), a.Email)
	if err != nil {
		return model.AuthResult{}, err
	}
	salt := a.KDFSalt
	if len(salt) == 0 {
		salt = s.fallbackSalt
	}
	return model.AuthResult{Token: tok, ExpiresAt: exp, KDFSalt: salt}, nil
}

func validateCredentials(email, password string) error {
	switch {
	case email == "" || password == "":
		return fmt.Errorf("%w: missing email or password", errs.ErrValidation)
	case len(email) > maxEmailLen || !strings.Contains(email, "@"):
		return fmt.Errorf("%w: malformed email", errs.ErrValidation)
	case len(password) > maxPasswordLen:
		return fmt.Errorf("%w: password too long", errs.ErrValidation)
	}
	return nil
}
