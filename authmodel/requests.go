package authmodel

import "strings"

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	// Username identifies the account holder.
	// Example: "jdoe"
	Username string `json:"username" validate:"required"`

	// Password is sent once and never stored by the client.
	// Security: Never log or expose this value
	Password string `json:"password" validate:"required"`
}

func (r LoginRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" || r.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	// RefreshToken is the long-lived credential obtained at login or at the
	// previous refresh.
	// Behavior: Single use, the server rotates it on every refresh
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LogoutRequest is the body of POST /auth/logout. The refresh token is
// optional; when present the server revokes it.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}
