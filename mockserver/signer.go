package mockserver

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	bankerrors "github.com/jrsteele09/go-bank-client/internal/errors"
)

// accessClaims is the payload of an issued access token
type accessClaims struct {
	jwt.RegisteredClaims
}

// hmacSigner issues and verifies HS256 access tokens
type hmacSigner struct {
	secret []byte
	now    func() time.Time
}

func newHMACSigner(secret string, now func() time.Time) *hmacSigner {
	return &hmacSigner{secret: []byte(secret), now: now}
}

func (h *hmacSigner) Sign(username string, ttl time.Duration) (string, *accessClaims, error) {
	now := h.now()
	claims := &accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to sign token with HMAC")
	}
	return signed, claims, nil
}

// Verify returns the claims of a valid token. Expired tokens yield
// ErrTokenExpired, everything else ErrInvalidToken.
func (h *hmacSigner) Verify(raw string) (*accessClaims, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, h.verificationKey,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(h.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, bankerrors.ErrTokenExpired
	default:
		return nil, bankerrors.Wrapf(bankerrors.ErrInvalidToken, "%v", err)
	}
}

func (h *hmacSigner) verificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.secret, nil
}
