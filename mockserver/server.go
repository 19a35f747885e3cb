// Package mockserver is an in-memory bank API used by tests and local demos.
// It issues short lived JWT access tokens and single use refresh tokens and
// answers 401 once an access token expires, which is what the client's
// refresh pipeline is built around.
package mockserver

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-bank-client/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultAccessTokenTTL  = 5 * time.Minute
	DefaultRefreshTokenTTL = 24 * time.Hour
	DefaultSecret          = "mock-bank-signing-secret"
)

// DefaultUsers are the customers created when no WithUser option is given.
var DefaultUsers = map[string]string{
	"alice": "secret",
	"bob":   "hunter2",
}

type Server struct {
	router *mux.Router
	prefix string
	env    string
	cors   config.CorsConfig
	logger zerolog.Logger

	now             func() time.Time
	secret          string
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	refreshDelay    time.Duration

	users    map[string][]byte
	usersMu  sync.RWMutex
	signer   *hmacSigner
	sessions *refreshTokens
	revoked  *revokedTokens
	ledger   *ledger
	validate *validator.Validate

	logins    atomic.Int64
	refreshes atomic.Int64
	rejected  atomic.Int64
}

type Option func(*Server)

// WithNowFunc replaces the clock used to issue and check tokens.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func WithAccessTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.accessTokenTTL = ttl
	}
}

func WithRefreshTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.refreshTokenTTL = ttl
	}
}

// WithRefreshDelay slows down the refresh endpoint so queued requests can be
// observed.
func WithRefreshDelay(d time.Duration) Option {
	return func(s *Server) {
		s.refreshDelay = d
	}
}

func WithSecret(secret string) Option {
	return func(s *Server) {
		s.secret = secret
	}
}

// WithUser adds a customer. The first WithUser replaces DefaultUsers.
func WithUser(username, password string) Option {
	return func(s *Server) {
		if s.users == nil {
			s.users = make(map[string][]byte)
		}
		s.users[username] = []byte(password)
	}
}

func WithPrefix(prefix string) Option {
	return func(s *Server) {
		s.prefix = prefix
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithCors(cfg config.CorsConfig) Option {
	return func(s *Server) {
		s.cors = cfg
	}
}

// WithEnv controls request logging: DEV logs every request at info level.
func WithEnv(env string) Option {
	return func(s *Server) {
		s.env = env
	}
}

func New(options ...Option) (*Server, error) {
	s := &Server{
		router:          mux.NewRouter(),
		prefix:          DefaultPrefix,
		env:             "DEV",
		logger:          log.Logger,
		now:             time.Now,
		secret:          DefaultSecret,
		accessTokenTTL:  DefaultAccessTokenTTL,
		refreshTokenTTL: DefaultRefreshTokenTTL,
		sessions:        newRefreshTokens(),
		revoked:         newRevokedTokens(),
		validate:        validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range options {
		opt(s)
	}

	if s.users == nil {
		s.users = make(map[string][]byte)
		for username, password := range DefaultUsers {
			s.users[username] = []byte(password)
		}
	}

	s.signer = newHMACSigner(s.secret, s.now)
	s.ledger = newLedger(s.now)
	for username, password := range s.users {
		hash, err := bcrypt.GenerateFromPassword(password, bcrypt.MinCost)
		if err != nil {
			return nil, errors.Wrapf(err, "hash password for %s", username)
		}
		s.users[username] = hash
		s.ledger.addCustomer(username)
	}

	s.routes()
	return s, nil
}

// NewFromConfig builds the server for cmd/mockbank.
func NewFromConfig(c config.Config, options ...Option) (*Server, error) {
	base := []Option{
		WithEnv(c.GetEnv()),
		WithCors(c),
	}
	return New(append(base, options...)...)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Stats counts what the server has handled so far.
type Stats struct {
	Logins    int64
	Refreshes int64
	Rejected  int64
}

func (s *Server) Stats() Stats {
	return Stats{
		Logins:    s.logins.Load(),
		Refreshes: s.refreshes.Load(),
		Rejected:  s.rejected.Load(),
	}
}

func (s *Server) checkPassword(username, password string) bool {
	s.usersMu.RLock()
	hash, ok := s.users[username]
	s.usersMu.RUnlock()
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
