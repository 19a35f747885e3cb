package authmodel

import "github.com/jrsteele09/go-bank-client/token"

// TokenResponse is returned by the login and refresh endpoints.
type TokenResponse struct {
	// AccessToken is sent with every API call.
	// Usage: Include in Authorization header: "Bearer <accessToken>"
	// Lifespan: Short-lived (minutes)
	AccessToken string `json:"accessToken"`

	// RefreshToken is used solely to obtain a new access token.
	// Lifespan: Long-lived, rotates on each use
	RefreshToken string `json:"refreshToken"`

	// TokenType is always "Bearer".
	TokenType string `json:"tokenType,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Note: This is a hint, the server decides when a token stops working
	ExpiresIn int `json:"expiresIn,omitempty"`
}

// Tokens returns the pair the client persists.
func (r TokenResponse) Tokens() (token.Tokens, error) {
	if r.AccessToken == "" {
		return token.Tokens{}, ErrMissingAccessToken
	}
	return token.Tokens{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}, nil
}
