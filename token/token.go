package token

import (
	"context"
	"errors"
)

// Storage keys the session tokens are persisted under.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

var (
	ErrDecrypt      = errors.New("token file could not be decrypted")
	ErrNotEncrypted = errors.New("token file is not encrypted")
)

// Tokens is the access/refresh pair issued on login and on every refresh.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Storage is a small string key/value store for client-side session state.
// Get reports ok=false for a missing key; it is not an error.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
