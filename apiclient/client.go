// Package apiclient is the authenticated HTTP pipeline every bank call goes
// through. It attaches the stored bearer token, and when the API answers 401
// it refreshes the session once, queues concurrent callers behind that refresh
// and replays their requests with the new token.
package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-bank-client/internal/config"
	"github.com/jrsteele09/go-bank-client/token"
	"github.com/jrsteele09/go-bank-client/token/refresh"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultRefreshPath = "/auth/refresh"
	DefaultLoginPath   = "/auth/login"
	DefaultLogoutPath  = "/auth/logout"
	DefaultLoginRoute  = "/login"

	tracerName = "github.com/jrsteele09/go-bank-client/apiclient"
)

// Redirector sends the user back to the login entry point once the session
// cannot be recovered.
type Redirector interface {
	RedirectToLogin(ctx context.Context, route string)
}

type RedirectFunc func(ctx context.Context, route string)

func (f RedirectFunc) RedirectToLogin(ctx context.Context, route string) {
	f(ctx, route)
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
	headers    http.Header
	store      *token.Store
	redirector Redirector
	logger     zerolog.Logger
	tracer     trace.Tracer

	refreshPath  string
	loginPath    string
	logoutPath   string
	loginRoute   string
	queueTimeout time.Duration

	coordinator *refresh.Coordinator
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout. Zero or less means DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithStorage(storage token.Storage) Option {
	return func(c *Client) {
		c.store = token.NewStore(storage)
	}
}

func WithRedirector(r Redirector) Option {
	return func(c *Client) {
		c.redirector = r
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracer = tp.Tracer(tracerName)
	}
}

func WithRefreshPath(path string) Option {
	return func(c *Client) {
		c.refreshPath = path
	}
}

func WithLoginPath(path string) Option {
	return func(c *Client) {
		c.loginPath = path
	}
}

func WithLogoutPath(path string) Option {
	return func(c *Client) {
		c.logoutPath = path
	}
}

func WithLoginRoute(route string) Option {
	return func(c *Client) {
		c.loginRoute = route
	}
}

// WithQueueTimeout bounds how long a request waits on another caller's refresh.
func WithQueueTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.queueTimeout = timeout
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

func New(baseURL string, options ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("[apiclient New] invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("[apiclient New] base url %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		headers: http.Header{
			"Content-Type": []string{"application/json"},
			"Accept":       []string{"application/json"},
		},
		logger:       log.Logger,
		tracer:       otel.GetTracerProvider().Tracer(tracerName),
		refreshPath:  DefaultRefreshPath,
		loginPath:    DefaultLoginPath,
		logoutPath:   DefaultLogoutPath,
		loginRoute:   DefaultLoginRoute,
		queueTimeout: refresh.DefaultQueueTimeout,
	}

	for _, opt := range options {
		opt(c)
	}

	if c.store == nil {
		c.store = token.NewStore(token.NewMemoryStorage())
	}
	if c.redirector == nil {
		c.redirector = RedirectFunc(func(ctx context.Context, route string) {
			c.logger.Warn().Str("route", route).Msg("session ended, login required")
		})
	}
	// The refresh call runs detached from the caller's context, so the client
	// timeout is its only bound.
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	hc := *c.httpClient
	hc.Timeout = c.timeout
	c.httpClient = &hc

	c.coordinator = refresh.New(c.refreshSession,
		refresh.WithQueueTimeout(c.queueTimeout),
		refresh.WithLogger(c.logger),
	)
	return c, nil
}

// NewFromConfig builds a client from the loaded configuration.
func NewFromConfig(cfg config.ClientConfig, storage token.Storage, options ...Option) (*Client, error) {
	base := []Option{
		WithStorage(storage),
		WithTimeout(cfg.GetRequestTimeout()),
		WithQueueTimeout(cfg.GetQueueTimeout()),
		WithRefreshPath(cfg.GetRefreshPath()),
		WithLoginPath(cfg.GetLoginPath()),
		WithLogoutPath(cfg.GetLogoutPath()),
		WithLoginRoute(cfg.GetLoginRoute()),
	}
	return New(cfg.GetBaseURL(), append(base, options...)...)
}

// Tokens exposes the session token store.
func (c *Client) Tokens() *token.Store {
	return c.store
}

// Do sends req and returns the 2xx response. A 401 is recovered through a
// token refresh when possible; every other failure is returned as is.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	a := attempt{req: req}
	resp, err := c.dispatch(ctx, a)
	if err == nil || !c.refreshable(a, err) {
		return resp, err
	}
	return c.recoverUnauthorized(ctx, a, err)
}

// Request sends req and decodes the JSON response body into out.
func (c *Client) Request(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.Method, req.Path, err)
	}
	return nil
}
