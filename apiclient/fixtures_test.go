package apiclient_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-bank-client/apiclient"
	"github.com/jrsteele09/go-bank-client/token"
	"github.com/stretchr/testify/require"
)

const (
	staleAccess    = "stale-access"
	initialRefresh = "refresh-0"
)

// seenRequest is what the fake API recorded for one resource call
type seenRequest struct {
	Method        string
	Path          string
	Query         string
	Body          string
	Authorization string
	Trace         string
}

// fakeAPI is a bank API with rotating single-use refresh tokens
type fakeAPI struct {
	mu           sync.Mutex
	validAccess  string
	validRefresh string
	generation   int
	failRefresh  bool
	seen         []seenRequest
	logouts      []string

	refreshCalls atomic.Int32
	refreshGate  chan struct{}
	refreshSeen  chan struct{}
	unauthorized atomic.Int32
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		validAccess:  "access-0",
		validRefresh: initialRefresh,
		refreshSeen:  make(chan struct{}, 16),
	}
}

func (f *fakeAPI) router() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/refresh", f.refresh).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", f.login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", f.logout).Methods(http.MethodPost)
	api.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": map[string]string{"message": "database down"}})
	})
	api.HandleFunc("/always-401", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
	})
	api.PathPrefix("/").HandlerFunc(f.resource)
	return r
}

func (f *fakeAPI) refresh(w http.ResponseWriter, r *http.Request) {
	f.refreshCalls.Add(1)
	f.refreshSeen <- struct{}{}
	if f.refreshGate != nil {
		<-f.refreshGate
	}

	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRefresh || r.Header.Get("Authorization") != "" || body.RefreshToken != f.validRefresh {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid refresh token"})
		return
	}
	f.generation++
	f.validAccess = fmt.Sprintf("access-%d", f.generation)
	f.validRefresh = fmt.Sprintf("refresh-%d", f.generation)
	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  f.validAccess,
		"refreshToken": f.validRefresh,
		"tokenType":    "Bearer",
	})
}

func (f *fakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Username != "alice" || body.Password != "secret" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid credentials"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": f.validAccess, "refreshToken": f.validRefresh})
}

func (f *fakeAPI) logout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.mu.Lock()
	f.logouts = append(f.logouts, body.RefreshToken)
	f.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeAPI) resource(w http.ResponseWriter, r *http.Request) {
	f.record(r)
	f.mu.Lock()
	valid := r.Header.Get("Authorization") == "Bearer "+f.validAccess
	f.mu.Unlock()
	if !valid {
		f.unauthorized.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": r.URL.Path, "ok": true})
}

func (f *fakeAPI) record(r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, seenRequest{
		Method:        r.Method,
		Path:          r.URL.Path,
		Query:         r.URL.RawQuery,
		Body:          string(raw),
		Authorization: r.Header.Get("Authorization"),
		Trace:         r.Header.Get("X-Trace"),
	})
}

func (f *fakeAPI) requests() []seenRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]seenRequest(nil), f.seen...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// redirectRecorder collects login redirects
type redirectRecorder struct {
	mu     sync.Mutex
	routes []string
}

func (r *redirectRecorder) RedirectToLogin(_ context.Context, route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

func (r *redirectRecorder) Routes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.routes...)
}

type fixture struct {
	api      *fakeAPI
	server   *httptest.Server
	client   *apiclient.Client
	storage  *token.MemoryStorage
	redirect *redirectRecorder
}

// newFixture starts the fake API and a client holding an expired access token
func newFixture(t *testing.T, seed token.Tokens, opts ...apiclient.Option) *fixture {
	t.Helper()
	f := &fixture{
		api:      newFakeAPI(),
		storage:  token.NewMemoryStorage(),
		redirect: &redirectRecorder{},
	}
	f.server = httptest.NewServer(f.api.router())
	t.Cleanup(f.server.Close)

	require.NoError(t, token.NewStore(f.storage).Save(context.Background(), seed))

	base := []apiclient.Option{
		apiclient.WithStorage(f.storage),
		apiclient.WithRedirector(f.redirect),
	}
	client, err := apiclient.New(f.server.URL+"/api", append(base, opts...)...)
	require.NoError(t, err)
	f.client = client
	return f
}

func expiredSession() token.Tokens {
	return token.Tokens{AccessToken: staleAccess, RefreshToken: initialRefresh}
}

func (f *fixture) storedTokens(t *testing.T) token.Tokens {
	t.Helper()
	tokens, err := f.client.Tokens().Tokens(context.Background())
	require.NoError(t, err)
	return tokens
}
