package mockserver

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-bank-client/authmodel"
	bankerrors "github.com/jrsteele09/go-bank-client/internal/errors"
)

// Login exchanges username and password for a token pair
func (s *Server) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authmodel.LoginRequest
		if err := s.decodeBody(r, &req, false); err != nil {
			writeDomainError(w, err)
			return
		}
		if !s.checkPassword(req.Username, req.Password) {
			s.logger.Info().Str("username", req.Username).Msg("login rejected")
			writeDomainError(w, bankerrors.ErrInvalidCredentials)
			return
		}

		resp, err := s.issueTokens(req.Username)
		if err != nil {
			s.logger.Error().Err(err).Msg("issue tokens")
			writeDomainError(w, err)
			return
		}
		s.logins.Add(1)
		writeJSON(w, http.StatusOK, resp)
	}
}

// Refresh redeems a refresh token and rotates it
func (s *Server) Refresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.refreshDelay > 0 {
			select {
			case <-time.After(s.refreshDelay):
			case <-r.Context().Done():
				return
			}
		}

		var req authmodel.RefreshRequest
		if err := s.decodeBody(r, &req, false); err != nil {
			writeDomainError(w, err)
			return
		}

		session, err := s.sessions.Redeem(req.RefreshToken, s.now())
		if err != nil {
			s.logger.Info().Err(err).Msg("refresh rejected")
			writeDomainError(w, err)
			return
		}

		resp, err := s.issueTokens(session.Username)
		if err != nil {
			s.logger.Error().Err(err).Msg("issue tokens")
			writeDomainError(w, err)
			return
		}
		s.refreshes.Add(1)
		s.revoked.Cleanup(s.now())
		writeJSON(w, http.StatusOK, resp)
	}
}

// Logout revokes the presented refresh token and, if the bearer is still
// valid, the access token too. It always succeeds.
func (s *Server) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authmodel.LogoutRequest
		if err := s.decodeBody(r, &req, true); err != nil {
			writeDomainError(w, err)
			return
		}
		if req.RefreshToken != "" {
			s.sessions.Revoke(req.RefreshToken)
		}
		if claims, err := s.bearerClaims(r); err == nil {
			s.revoked.Add(claims.ID, claims.ExpiresAt.Time)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) bearerClaims(r *http.Request) (*accessClaims, error) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) <= len(prefix) {
		return nil, bankerrors.ErrInvalidToken
	}
	return s.signer.Verify(header[len(prefix):])
}

func (s *Server) issueTokens(username string) (*authmodel.TokenResponse, error) {
	access, _, err := s.signer.Sign(username, s.accessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sessions.Issue(username, s.now().Add(s.refreshTokenTTL))
	if err != nil {
		return nil, err
	}
	return &authmodel.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.accessTokenTTL / time.Second),
	}, nil
}
