package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// ErrNoSession means nothing is persisted or the stored token has expired.
var ErrNoSession = errors.New("no session")

var (
	bucketAuth = []byte("auth")
	authKey    = []byte("current")
)

// Store persists Auth in a local bbolt file.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAuth)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init session store: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored session.
func (s *Store) Save(_ context.Context, a Auth) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal auth: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAuth).Put(authKey, data)
	})
}

// Load returns the stored session, or ErrNoSession when absent or expired.
func (s *Store) Load(_ context.Context) (Auth, error) {
	var a Auth
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketAuth).Get(authKey)
		if data == nil {
			return ErrNoSession
		}
		if err := json.Unmarshal(data, &a); err != nil {
			return fmt.Errorf("unmarshal auth: %w", err)
		}
		return nil
	})
	if err != nil {
		return Auth{}, err
	}
	if a.Expired(s.now()) {
		return Auth{}, ErrNoSession
	}
	return a, nil
}

// Delete forgets the stored session. Deleting nothing is not an error.
func (s *Store) Delete(_ context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAuth).Delete(authKey)
	})
}
