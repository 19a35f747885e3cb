package mockserver

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/pkg/errors"

	bankerrors "github.com/jrsteele09/go-bank-client/internal/errors"
)

// refreshSession is what a refresh token grants
type refreshSession struct {
	Username  string
	ExpiresAt time.Time
}

// refreshTokens holds single use refresh tokens. Redeeming one deletes it, so
// a replayed or stale token is rejected.
type refreshTokens struct {
	mu     sync.Mutex
	tokens map[string]refreshSession
}

func newRefreshTokens() *refreshTokens {
	return &refreshTokens{tokens: make(map[string]refreshSession)}
}

func (r *refreshTokens) Issue(username string, expiresAt time.Time) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "generate refresh token")
	}
	token := hex.EncodeToString(b)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = refreshSession{Username: username, ExpiresAt: expiresAt}
	return token, nil
}

// Redeem consumes token and returns its session.
func (r *refreshTokens) Redeem(token string, now time.Time) (refreshSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.tokens[token]
	if !ok {
		return refreshSession{}, bankerrors.ErrInvalidRefreshToken
	}
	delete(r.tokens, token)
	if now.After(session.ExpiresAt) {
		return refreshSession{}, bankerrors.Wrapf(bankerrors.ErrInvalidRefreshToken, "expired at %s", session.ExpiresAt.Format(time.RFC3339))
	}
	return session, nil
}

func (r *refreshTokens) Revoke(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
}

func (r *refreshTokens) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}
