package mockserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-bank-client/authmodel"
	"github.com/jrsteele09/go-bank-client/bank"
	"github.com/jrsteele09/go-bank-client/internal/config"
	"github.com/jrsteele09/go-bank-client/mockserver"
	"github.com/stretchr/testify/require"
)

// clock is a settable time source
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	t      *testing.T
	clock  *clock
	server *mockserver.Server
}

func newHarness(t *testing.T, opts ...mockserver.Option) *harness {
	t.Helper()
	c := newClock()
	s, err := mockserver.New(append([]mockserver.Option{
		mockserver.WithNowFunc(c.Now),
		mockserver.WithAccessTokenTTL(time.Minute),
	}, opts...)...)
	require.NoError(t, err)
	return &harness{t: t, clock: c, server: s}
}

// call performs one request against the handler and decodes a JSON reply into out
func (h *harness) call(method, path, bearer string, body any, out any) int {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.server.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func (h *harness) login(username, password string) authmodel.TokenResponse {
	h.t.Helper()
	var tokens authmodel.TokenResponse
	status := h.call(http.MethodPost, mockserver.RouteAuthLogin, "", authmodel.LoginRequest{Username: username, Password: password}, &tokens)
	require.Equal(h.t, http.StatusOK, status)
	require.NotEmpty(h.t, tokens.AccessToken)
	require.NotEmpty(h.t, tokens.RefreshToken)
	return tokens
}

type message struct {
	Message string `json:"message"`
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	t.Run("valid credentials", func(t *testing.T) {
		tokens := h.login("alice", "secret")
		require.Equal(t, "Bearer", tokens.TokenType)
		require.Equal(t, 60, tokens.ExpiresIn)
	})

	t.Run("wrong password", func(t *testing.T) {
		var msg message
		status := h.call(http.MethodPost, mockserver.RouteAuthLogin, "", authmodel.LoginRequest{Username: "alice", Password: "nope"}, &msg)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, "invalid credentials", msg.Message)
	})

	t.Run("missing fields", func(t *testing.T) {
		status := h.call(http.MethodPost, mockserver.RouteAuthLogin, "", map[string]string{"username": "alice"}, nil)
		require.Equal(t, http.StatusBadRequest, status)
	})

	require.Equal(t, int64(1), h.server.Stats().Logins)
}

func TestBearerMiddleware(t *testing.T) {
	h := newHarness(t)
	tokens := h.login("alice", "secret")

	var msg message
	require.Equal(t, http.StatusUnauthorized, h.call(http.MethodGet, mockserver.RouteAccounts, "", nil, &msg))
	require.Equal(t, "missing bearer token", msg.Message)

	require.Equal(t, http.StatusUnauthorized, h.call(http.MethodGet, mockserver.RouteAccounts, "garbage", nil, &msg))
	require.Equal(t, "invalid token", msg.Message)

	var accounts []bank.Account
	require.Equal(t, http.StatusOK, h.call(http.MethodGet, mockserver.RouteAccounts, tokens.AccessToken, nil, &accounts))
	require.Len(t, accounts, 2)

	h.clock.Advance(2 * time.Minute)
	require.Equal(t, http.StatusUnauthorized, h.call(http.MethodGet, mockserver.RouteAccounts, tokens.AccessToken, nil, &msg))
	require.Equal(t, "token expired", msg.Message)
	require.Equal(t, int64(3), h.server.Stats().Rejected)
}

func TestRefreshRotation(t *testing.T) {
	h := newHarness(t)
	first := h.login("alice", "secret")
	h.clock.Advance(2 * time.Minute)

	var second authmodel.TokenResponse
	require.Equal(t, http.StatusOK, h.call(http.MethodPost, mockserver.RouteAuthRefresh, "", authmodel.RefreshRequest{RefreshToken: first.RefreshToken}, &second))
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)
	require.NotEqual(t, first.AccessToken, second.AccessToken)

	require.Equal(t, http.StatusOK, h.call(http.MethodGet, mockserver.RouteAccounts, second.AccessToken, nil, nil))

	var msg message
	require.Equal(t, http.StatusUnauthorized, h.call(http.MethodPost, mockserver.RouteAuthRefresh, "", authmodel.RefreshRequest{RefreshToken: first.RefreshToken}, &msg))
	require.Equal(t, "invalid refresh token", msg.Message)
	require.Equal(t, int64(1), h.server.Stats().Refreshes)

	t.Run("expired refresh token", func(t *testing.T) {
		h := newHarness(t, mockserver.WithRefreshTokenTTL(time.Hour))
		tokens := h.login("bob", "hunter2")
		h.clock.Advance(2 * time.Hour)
		require.Equal(t, http.StatusUnauthorized, h.call(http.MethodPost, mockserver.RouteAuthRefresh, "", authmodel.RefreshRequest{RefreshToken: tokens.RefreshToken}, nil))
	})
}

func TestLogoutRevokes(t *testing.T) {
	h := newHarness(t)
	tokens := h.login("alice", "secret")

	require.Equal(t, http.StatusNoContent, h.call(http.MethodPost, mockserver.RouteAuthLogout, tokens.AccessToken, authmodel.LogoutRequest{RefreshToken: tokens.RefreshToken}, nil))

	var msg message
	require.Equal(t, http.StatusUnauthorized, h.call(http.MethodGet, mockserver.RouteAccounts, tokens.AccessToken, nil, &msg))
	require.Equal(t, "token revoked", msg.Message)
	require.Equal(t, http.StatusUnauthorized, h.call(http.MethodPost, mockserver.RouteAuthRefresh, "", authmodel.RefreshRequest{RefreshToken: tokens.RefreshToken}, nil))

	// logout without a body or bearer still succeeds
	require.Equal(t, http.StatusNoContent, h.call(http.MethodPost, mockserver.RouteAuthLogout, "", nil, nil))
}

func TestTransfers(t *testing.T) {
	h := newHarness(t)
	alice := h.login("alice", "secret").AccessToken
	bob := h.login("bob", "hunter2").AccessToken

	var aliceAccounts, bobAccounts []bank.Account
	h.call(http.MethodGet, mockserver.RouteAccounts, alice, nil, &aliceAccounts)
	h.call(http.MethodGet, mockserver.RouteAccounts, bob, nil, &bobAccounts)
	from, to := aliceAccounts[0], bobAccounts[0]

	t.Run("insufficient funds", func(t *testing.T) {
		status := h.call(http.MethodPost, mockserver.RouteTransfers, alice, bank.TransferRequest{FromAccountID: from.ID, ToAccount: to.Number, Amount: from.Balance + 1}, nil)
		require.Equal(t, http.StatusUnprocessableEntity, status)
	})

	t.Run("not the owner", func(t *testing.T) {
		status := h.call(http.MethodPost, mockserver.RouteTransfers, bob, bank.TransferRequest{FromAccountID: from.ID, ToAccount: to.Number, Amount: 1}, nil)
		require.Equal(t, http.StatusNotFound, status)
	})

	t.Run("invalid amount", func(t *testing.T) {
		status := h.call(http.MethodPost, mockserver.RouteTransfers, alice, bank.TransferRequest{FromAccountID: from.ID, ToAccount: to.Number}, nil)
		require.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("moves money between customers", func(t *testing.T) {
		var transfer bank.Transfer
		status := h.call(http.MethodPost, mockserver.RouteTransfers, alice, bank.TransferRequest{FromAccountID: from.ID, ToAccount: to.Number, Amount: 1250, Description: "lunch"}, &transfer)
		require.Equal(t, http.StatusCreated, status)
		require.Equal(t, int64(1250), transfer.Amount)
		require.True(t, h.clock.Now().Equal(transfer.CreatedAt))

		var after bank.Account
		h.call(http.MethodGet, "/accounts/"+from.ID, alice, nil, &after)
		require.Equal(t, from.Balance-1250, after.Balance)
		h.call(http.MethodGet, "/accounts/"+to.ID, bob, nil, &after)
		require.Equal(t, to.Balance+1250, after.Balance)

		var history []bank.Transfer
		h.call(http.MethodGet, mockserver.RouteTransfers, bob, nil, &history)
		require.Len(t, history, 1)
		h.call(http.MethodGet, mockserver.RouteTransfers+"?accountId="+aliceAccounts[1].ID, alice, nil, &history)
		require.Empty(t, history)
	})
}

func TestRecipients(t *testing.T) {
	h := newHarness(t)
	alice := h.login("alice", "secret").AccessToken

	var r bank.Recipient
	require.Equal(t, http.StatusCreated, h.call(http.MethodPost, mockserver.RouteRecipients, alice, bank.RecipientRequest{Name: "Bob", AccountNumber: "2000-0001"}, &r))
	require.NotNil(t, r.Nickname)
	require.Equal(t, "Bob", *r.Nickname)

	require.Equal(t, http.StatusBadRequest, h.call(http.MethodPost, mockserver.RouteRecipients, alice, bank.RecipientRequest{Name: "Bob again", AccountNumber: "2000-0001"}, nil))

	var saved []bank.Recipient
	h.call(http.MethodGet, mockserver.RouteRecipients, alice, nil, &saved)
	require.Len(t, saved, 1)

	require.Equal(t, http.StatusNoContent, h.call(http.MethodDelete, "/recipients/"+r.ID, alice, nil, nil))
	require.Equal(t, http.StatusNotFound, h.call(http.MethodDelete, "/recipients/"+r.ID, alice, nil, nil))
}

func TestDebts(t *testing.T) {
	h := newHarness(t)
	alice := h.login("alice", "secret").AccessToken
	bob := h.login("bob", "hunter2").AccessToken

	var bobAccounts []bank.Account
	h.call(http.MethodGet, mockserver.RouteAccounts, bob, nil, &bobAccounts)

	var debt bank.Debt
	require.Equal(t, http.StatusCreated, h.call(http.MethodPost, mockserver.RouteDebts, alice, bank.DebtRequest{Debtor: "bob", Amount: 500, Description: "pizza"}, &debt))
	require.Equal(t, bank.DebtPending, debt.Status)

	require.Equal(t, http.StatusBadRequest, h.call(http.MethodPost, mockserver.RouteDebts, alice, bank.DebtRequest{Debtor: "alice", Amount: 1}, nil))
	require.Equal(t, http.StatusNotFound, h.call(http.MethodPost, mockserver.RouteDebts, alice, bank.DebtRequest{Debtor: "carol", Amount: 1}, nil))

	// only the debtor can pay
	require.Equal(t, http.StatusNotFound, h.call(http.MethodPost, "/debts/"+debt.ID+"/pay", alice, bank.PayDebtRequest{FromAccountID: bobAccounts[0].ID}, nil))

	var paid bank.Debt
	require.Equal(t, http.StatusOK, h.call(http.MethodPost, "/debts/"+debt.ID+"/pay", bob, bank.PayDebtRequest{FromAccountID: bobAccounts[0].ID}, &paid))
	require.Equal(t, bank.DebtPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	require.Equal(t, http.StatusBadRequest, h.call(http.MethodDelete, "/debts/"+debt.ID, alice, nil, nil))

	h.clock.Advance(time.Second)
	var second bank.Debt
	h.call(http.MethodPost, mockserver.RouteDebts, alice, bank.DebtRequest{Debtor: "bob", Amount: 100}, &second)
	require.Equal(t, http.StatusNoContent, h.call(http.MethodDelete, "/debts/"+second.ID, bob, nil, nil))

	var debts []bank.Debt
	h.call(http.MethodGet, mockserver.RouteDebts, alice, nil, &debts)
	require.Len(t, debts, 2)
	require.Equal(t, bank.DebtCancelled, debts[1].Status)
}

func TestCors(t *testing.T) {
	t.Setenv("BANK_CORS_ORIGINS", "http://localhost:3000")
	cfg, err := config.Load()
	require.NoError(t, err)
	s, err := mockserver.NewFromConfig(cfg)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/api"+mockserver.RouteAccounts, nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest(http.MethodOptions, "/api"+mockserver.RouteAccounts, nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t)
	var msg message
	require.Equal(t, http.StatusNotFound, h.call(http.MethodGet, "/nope", "", nil, &msg))
	require.Equal(t, "route not found", msg.Message)
}
