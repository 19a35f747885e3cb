package token

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

var ErrNoAccessToken = errors.New("no access token stored")

// OAuth2Token returns the stored tokens in x/oauth2 form. Expiry is filled
// from the JWT exp claim when the access token carries one.
func (s *Store) OAuth2Token(ctx context.Context) (*oauth2.Token, error) {
	t, err := s.Tokens(ctx)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    "Bearer",
	}
	if exp, ok := ExpiresAt(t.AccessToken); ok {
		tok.Expiry = exp
	}
	return tok, nil
}

// Source adapts a Store to oauth2.TokenSource so the current session can be
// handed to libraries built on x/oauth2.
func Source(ctx context.Context, s *Store) oauth2.TokenSource {
	return storeSource{ctx: ctx, store: s}
}

type storeSource struct {
	ctx   context.Context
	store *Store
}

func (s storeSource) Token() (*oauth2.Token, error) {
	tok, err := s.store.OAuth2Token(s.ctx)
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, ErrNoAccessToken
	}
	return tok, nil
}
