package mockserver

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	bankerrors "github.com/jrsteele09/go-bank-client/internal/errors"
)

const contentTypeJSON = "application/json"

// errorResponse is the body of every non-2xx reply
type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

// writeDomainError maps ledger and auth errors onto HTTP statuses
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case bankerrors.Is(err, bankerrors.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case bankerrors.Is(err, bankerrors.ErrInsufficientFunds):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case bankerrors.Is(err, bankerrors.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case bankerrors.Is(err, bankerrors.ErrInvalidCredentials),
		bankerrors.Is(err, bankerrors.ErrInvalidRefreshToken),
		bankerrors.Is(err, bankerrors.ErrInvalidToken),
		bankerrors.Is(err, bankerrors.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, unauthorizedMessage(err))
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func unauthorizedMessage(err error) string {
	switch {
	case bankerrors.Is(err, bankerrors.ErrTokenExpired):
		return "token expired"
	case bankerrors.Is(err, bankerrors.ErrInvalidRefreshToken):
		return "invalid refresh token"
	case bankerrors.Is(err, bankerrors.ErrInvalidCredentials):
		return "invalid credentials"
	default:
		return "invalid token"
	}
}

// decodeBody reads a JSON body into v and runs struct validation. An empty
// body is allowed when optional is set.
func (s *Server) decodeBody(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return bankerrors.Wrapf(bankerrors.ErrInvalidRequest, "malformed body: %v", err)
	}
	if err := s.validate.Struct(v); err != nil {
		return bankerrors.Wrapf(bankerrors.ErrInvalidRequest, "%v", err)
	}
	return nil
}
