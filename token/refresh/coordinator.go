package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultQueueTimeout bounds how long a queued request waits for a refresh.
const DefaultQueueTimeout = 15 * time.Second

var (
	ErrRefreshFailed  = errors.New("token refresh failed")
	ErrRefreshTimeout = errors.New("token refresh timeout")
)

// Func performs the refresh call and returns the new access token.
type Func func(ctx context.Context) (string, error)

// Grant is handed to every caller released by a settled refresh.
type Grant struct {
	AccessToken string
	// Position is 0 for the caller that ran the refresh and 1..n, in queue
	// order, for the callers that waited on it.
	Position int
}

type result struct {
	grant Grant
	err   error
}

// pending is one queued continuation. done is buffered so resolving never blocks.
type pending struct {
	id    string
	done  chan result
	timer *time.Timer
}

// Coordinator makes sure only one refresh call is in flight at a time.
// Callers that need a fresh token while a refresh is running are queued and
// released in arrival order once it settles.
type Coordinator struct {
	refresh Func
	timeout time.Duration
	logger  zerolog.Logger

	mu         sync.Mutex
	refreshing bool
	queue      []*pending
}

type Option func(*Coordinator)

func WithQueueTimeout(timeout time.Duration) Option {
	return func(c *Coordinator) {
		c.timeout = timeout
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func New(refresh Func, options ...Option) *Coordinator {
	c := &Coordinator{
		refresh: refresh,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.timeout <= 0 {
		c.timeout = DefaultQueueTimeout
	}
	return c
}

// Acquire returns a fresh access token. The first caller runs the refresh;
// callers arriving while it is in flight wait for its outcome.
func (c *Coordinator) Acquire(ctx context.Context) (Grant, error) {
	c.mu.Lock()
	if c.refreshing {
		p := c.enqueueLocked()
		c.mu.Unlock()
		return c.wait(ctx, p)
	}
	c.refreshing = true
	c.mu.Unlock()

	accessToken, err := c.run(ctx)
	if err != nil {
		return Grant{}, err
	}
	return Grant{AccessToken: accessToken}, nil
}

// run calls the refresh func and settles the queue. A panic in the refresh
// func still settles, so the flag is never left set, and is then re-raised.
func (c *Coordinator) run(ctx context.Context) (accessToken string, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.settle("", fmt.Errorf("%w: panic: %v", ErrRefreshFailed, r))
			panic(r)
		}
		c.settle(accessToken, err)
	}()

	c.logger.Debug().Msg("token refresh started")
	// The refresh outlives a cancelled leader so queued callers still get an answer.
	accessToken, err = c.refresh(context.WithoutCancel(ctx))
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	return accessToken, err
}

// Refreshing reports whether a refresh call is outstanding.
func (c *Coordinator) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshing
}

// Pending returns the number of queued callers.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *Coordinator) enqueueLocked() *pending {
	p := &pending{
		id:   uuid.NewString(),
		done: make(chan result, 1),
	}
	p.timer = time.AfterFunc(c.timeout, func() { c.expire(p) })
	c.queue = append(c.queue, p)
	c.logger.Debug().Str("pending_id", p.id).Int("position", len(c.queue)).Msg("request queued behind token refresh")
	return p
}

func (c *Coordinator) wait(ctx context.Context, p *pending) (Grant, error) {
	select {
	case r := <-p.done:
		return r.grant, r.err
	case <-ctx.Done():
		c.mu.Lock()
		removed := c.removeLocked(p)
		c.mu.Unlock()
		if removed {
			p.timer.Stop()
			return Grant{}, ctx.Err()
		}
		// settled or expired concurrently with the cancellation
		r := <-p.done
		return r.grant, r.err
	}
}

// settle drains the queue exactly once, in arrival order, and resets the flag.
func (c *Coordinator) settle(accessToken string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	queue := c.queue
	c.queue = nil
	c.refreshing = false

	for i, p := range queue {
		p.timer.Stop()
		if err != nil {
			p.done <- result{err: err}
			continue
		}
		p.done <- result{grant: Grant{AccessToken: accessToken, Position: i + 1}}
	}

	if err != nil {
		c.logger.Warn().Err(err).Int("rejected", len(queue)).Msg("token refresh failed")
		return
	}
	c.logger.Debug().Int("released", len(queue)).Msg("token refresh succeeded")
}

func (c *Coordinator) expire(p *pending) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.removeLocked(p) {
		return
	}
	c.logger.Warn().Str("pending_id", p.id).Dur("timeout", c.timeout).Msg("queued request gave up waiting for token refresh")
	p.done <- result{err: fmt.Errorf("%w after %s", ErrRefreshTimeout, c.timeout)}
}

func (c *Coordinator) removeLocked(p *pending) bool {
	for i, q := range c.queue {
		if q == p {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			return true
		}
	}
	return false
}
