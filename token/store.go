package token

import (
	"context"
	"fmt"
)

// Store reads and writes the session tokens on top of a Storage.
type Store struct {
	storage Storage
}

func NewStore(storage Storage) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	return &Store{storage: storage}
}

// AccessToken returns the stored access token, empty when there is none
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, AccessTokenKey)
}

// RefreshToken returns the stored refresh token, empty when there is none
func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, RefreshTokenKey)
}

func (s *Store) Tokens(ctx context.Context) (Tokens, error) {
	access, err := s.AccessToken(ctx)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := s.RefreshToken(ctx)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// Save replaces both tokens. An empty refresh token removes the stored one
// so an old refresh token never outlives the access token it belonged to.
func (s *Store) Save(ctx context.Context, t Tokens) error {
	if err := s.put(ctx, AccessTokenKey, t.AccessToken); err != nil {
		return err
	}
	return s.put(ctx, RefreshTokenKey, t.RefreshToken)
}

// Clear removes both tokens.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.storage.Delete(ctx, AccessTokenKey); err != nil {
		return fmt.Errorf("Store.Clear %s: %w", AccessTokenKey, err)
	}
	if err := s.storage.Delete(ctx, RefreshTokenKey); err != nil {
		return fmt.Errorf("Store.Clear %s: %w", RefreshTokenKey, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	value, ok, err := s.storage.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("Store.get %s: %w", key, err)
	}
	if !ok {
		return "", nil
	}
	return value, nil
}

func (s *Store) put(ctx context.Context, key, value string) error {
	var err error
	if value == "" {
		err = s.storage.Delete(ctx, key)
	} else {
		err = s.storage.Set(ctx, key, value)
	}
	if err != nil {
		return fmt.Errorf("Store.put %s: %w", key, err)
	}
	return nil
}
