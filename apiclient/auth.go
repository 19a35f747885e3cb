package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-bank-client/authmodel"
	"go.opentelemetry.io/otel/codes"
)

// refreshable reports whether a failed attempt may be recovered by a refresh:
// a 401 that is not itself the refresh call and has not been replayed yet.
func (c *Client) refreshable(a attempt, err error) bool {
	if !IsUnauthorized(err) {
		return false
	}
	if a.retried || a.anonymous || c.isRefreshPath(a.req.Path) {
		return false
	}
	return true
}

func (c *Client) isRefreshPath(path string) bool {
	return c.resolve(path).Path == c.resolve(c.refreshPath).Path
}

// recoverUnauthorized obtains a fresh access token, either by running the
// refresh or by waiting for the one already in flight, and replays a once.
func (c *Client) recoverUnauthorized(ctx context.Context, a attempt, authErr error) (*Response, error) {
	refreshToken, err := c.store.RefreshToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("read refresh token: %w", err)
	}
	if refreshToken == "" {
		c.logger.Info().Str("path", a.req.Path).Msg("access token rejected and no refresh token stored")
		c.redirector.RedirectToLogin(ctx, c.loginRoute)
		return nil, authErr
	}

	grant, err := c.coordinator.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Str("path", a.req.Path).Int("position", grant.Position).Msg("replaying request with refreshed token")
	return c.dispatch(ctx, attempt{req: a.req, retried: true, accessToken: grant.AccessToken})
}

// refreshSession is the coordinator's refresh call. On failure it ends the
// session before the coordinator rejects the queued callers.
func (c *Client) refreshSession(ctx context.Context) (string, error) {
	ctx, span := c.tracer.Start(ctx, "bank.refresh")
	defer span.End()

	accessToken, err := c.exchangeRefreshToken(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")
		c.endSession(ctx, err)
		return "", err
	}
	return accessToken, nil
}

func (c *Client) exchangeRefreshToken(ctx context.Context) (string, error) {
	refreshToken, err := c.store.RefreshToken(ctx)
	if err != nil {
		return "", fmt.Errorf("read refresh token: %w", err)
	}
	if refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	resp, err := c.dispatch(ctx, attempt{
		req:       Post(c.refreshPath, authmodel.RefreshRequest{RefreshToken: refreshToken}),
		anonymous: true,
	})
	if err != nil {
		return "", err
	}

	var tr authmodel.TokenResponse
	if err := resp.Decode(&tr); err != nil {
		return "", fmt.Errorf("decode refresh response: %w", err)
	}
	tokens, err := tr.Tokens()
	if err != nil {
		return "", err
	}
	if err := c.store.Save(ctx, tokens); err != nil {
		return "", fmt.Errorf("store refreshed tokens: %w", err)
	}
	return tokens.AccessToken, nil
}

// endSession purges the stored tokens and sends the user to the login route
func (c *Client) endSession(ctx context.Context, cause error) {
	c.logger.Warn().Err(cause).Msg("token refresh failed, ending session")
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Error().Err(err).Msg("failed to clear session tokens")
	}
	c.redirector.RedirectToLogin(ctx, c.loginRoute)
}

// Login exchanges credentials for a token pair and stores it.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body := authmodel.LoginRequest{Username: username, Password: password}
	if err := body.Validate(); err != nil {
		return err
	}

	resp, err := c.dispatch(ctx, attempt{req: Post(c.loginPath, body), anonymous: true})
	if err != nil {
		return err
	}

	var tr authmodel.TokenResponse
	if err := resp.Decode(&tr); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	tokens, err := tr.Tokens()
	if err != nil {
		return err
	}
	if err := c.store.Save(ctx, tokens); err != nil {
		return fmt.Errorf("store session tokens: %w", err)
	}
	c.logger.Info().Str("username", username).Msg("logged in")
	return nil
}

// Logout revokes the refresh token on the server when possible and always
// clears the local session.
func (c *Client) Logout(ctx context.Context) error {
	refreshToken, err := c.store.RefreshToken(ctx)
	if err != nil {
		return fmt.Errorf("read refresh token: %w", err)
	}
	if refreshToken != "" {
		_, err := c.dispatch(ctx, attempt{req: Post(c.logoutPath, authmodel.LogoutRequest{RefreshToken: refreshToken})})
		if err != nil && StatusCode(err) != http.StatusUnauthorized {
			c.logger.Warn().Err(err).Msg("server logout failed")
		}
	}
	return c.store.Clear(ctx)
}

// LoggedIn reports whether a session token is stored.
func (c *Client) LoggedIn(ctx context.Context) (bool, error) {
	tokens, err := c.store.Tokens(ctx)
	if err != nil {
		return false, err
	}
	return tokens.AccessToken != "" || tokens.RefreshToken != "", nil
}
