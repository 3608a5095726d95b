package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/dataportal/internal/common"
)

// ErrMalformedValue reports a stored value that does not decode into the
// requested type. It also matches common.ErrPersistence.
var ErrMalformedValue = fmt.Errorf("%w: malformed value", common.ErrPersistence)

// Store gives string and JSON access to a Repository.
type Store struct {
	repo Repository
}

func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// Get returns the value stored under key and whether it exists.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	b, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", common.ErrPersistence, err)
	}
	if b == nil {
		return "", false, nil
	}
	return string(b), true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.repo.Set(ctx, key, []byte(value)); err != nil {
		return fmt.Errorf("%w: %w", common.ErrPersistence, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.repo.Delete(ctx, key); err != nil {
		return fmt.Errorf("%w: %w", common.ErrPersistence, err)
	}
	return nil
}

// GetJSON decodes the value under key into v. It reports false, leaving v
// untouched, when the key is absent.
func (s *Store) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrMalformedValue, key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func (s *Store) SetJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", common.ErrPersistence, key, err)
	}
	return s.Set(ctx, key, string(b))
}

// IsMalformed reports whether err came from a value that failed to decode.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedValue)
}
