package authmodel

import "errors"

var (
	ErrMissingAccessToken = errors.New("token response has no access token")
	ErrMissingCredentials = errors.New("username and password are required")
)
