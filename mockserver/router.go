package mockserver

import (
	"net/http"
	"strings"
)

func (s *Server) routes() {
	api := s.router.PathPrefix(strings.TrimRight(s.prefix, "/")).Subrouter()

	public := s.APIMiddleware()
	protected := s.APIMiddleware(s.RequireBearer)

	handle := func(method, route string, h http.HandlerFunc, mw []func(http.HandlerFunc) http.HandlerFunc) {
		api.HandleFunc(route, ChainMiddleware(h, mw...)).Methods(method, http.MethodOptions)
	}

	handle(http.MethodPost, RouteAuthLogin, s.Login(), public)
	handle(http.MethodPost, RouteAuthRefresh, s.Refresh(), public)
	handle(http.MethodPost, RouteAuthLogout, s.Logout(), public)

	handle(http.MethodGet, RouteAccounts, s.ListAccounts(), protected)
	handle(http.MethodGet, RouteAccount, s.GetAccount(), protected)
	handle(http.MethodGet, RouteTransfers, s.ListTransfers(), protected)
	handle(http.MethodPost, RouteTransfers, s.CreateTransfer(), protected)
	handle(http.MethodGet, RouteRecipients, s.ListRecipients(), protected)
	handle(http.MethodPost, RouteRecipients, s.AddRecipient(), protected)
	handle(http.MethodDelete, RouteRecipient, s.RemoveRecipient(), protected)
	handle(http.MethodGet, RouteDebts, s.ListDebts(), protected)
	handle(http.MethodPost, RouteDebts, s.CreateDebt(), protected)
	handle(http.MethodPost, RouteDebtPay, s.PayDebt(), protected)
	handle(http.MethodDelete, RouteDebt, s.CancelDebt(), protected)

	s.router.NotFoundHandler = ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	}, s.LoggingMiddleware)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}
