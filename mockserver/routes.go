package mockserver

// Route path constants, relative to the API prefix
const (
	DefaultPrefix = "/api"

	// Auth routes
	RouteAuthLogin   = "/auth/login"
	RouteAuthRefresh = "/auth/refresh"
	RouteAuthLogout  = "/auth/logout"

	// Bank routes
	RouteAccounts   = "/accounts"
	RouteAccount    = "/accounts/{id}"
	RouteTransfers  = "/transfers"
	RouteRecipients = "/recipients"
	RouteRecipient  = "/recipients/{id}"
	RouteDebts      = "/debts"
	RouteDebt       = "/debts/{id}"
	RouteDebtPay    = "/debts/{id}/pay"
)
