package bank

import "time"

// Amounts are in minor currency units (cents).

type Account struct {
	ID       string `json:"id"`
	Number   string `json:"number"`
	Name     string `json:"name"`
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
}

type Transfer struct {
	ID            string    `json:"id"`
	FromAccountID string    `json:"fromAccountId"`
	ToAccount     string    `json:"toAccount"`
	Amount        int64     `json:"amount"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type TransferRequest struct {
	FromAccountID string `json:"fromAccountId" validate:"required"`
	ToAccount     string `json:"toAccount" validate:"required"`
	Amount        int64  `json:"amount" validate:"gt=0"`
	Description   string `json:"description,omitempty" validate:"max=140"`
}

type Recipient struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	AccountNumber string  `json:"accountNumber"`
	BankName      string  `json:"bankName,omitempty"`
	Nickname      *string `json:"nickname,omitempty"`
}

type RecipientRequest struct {
	Name          string  `json:"name" validate:"required"`
	AccountNumber string  `json:"accountNumber" validate:"required"`
	BankName      string  `json:"bankName,omitempty"`
	Nickname      *string `json:"nickname,omitempty"`
}

type DebtStatus string

const (
	DebtPending   DebtStatus = "pending"
	DebtPaid      DebtStatus = "paid"
	DebtCancelled DebtStatus = "cancelled"
)

// Debt is a payment reminder sent from a creditor to a debtor account.
type Debt struct {
	ID          string     `json:"id"`
	Creditor    string     `json:"creditor"`
	Debtor      string     `json:"debtor"`
	Amount      int64      `json:"amount"`
	Description string     `json:"description,omitempty"`
	Status      DebtStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
}

type DebtRequest struct {
	Debtor      string `json:"debtor" validate:"required"`
	Amount      int64  `json:"amount" validate:"gt=0"`
	Description string `json:"description,omitempty" validate:"max=140"`
}

// PayDebtRequest names the account the payment is taken from.
type PayDebtRequest struct {
	FromAccountID string `json:"fromAccountId" validate:"required"`
}

// Overview is the dashboard snapshot of a session.
type Overview struct {
	Accounts   []Account   `json:"accounts"`
	Recipients []Recipient `json:"recipients"`
	Debts      []Debt      `json:"debts"`
}

// TotalBalance sums the balances of all accounts.
func (o Overview) TotalBalance() int64 {
	var total int64
	for _, a := range o.Accounts {
		total += a.Balance
	}
	return total
}

// PendingDebts returns the debts still awaiting payment.
func (o Overview) PendingDebts() []Debt {
	var pending []Debt
	for _, d := range o.Debts {
		if d.Status == DebtPending {
			pending = append(pending, d)
		}
	}
	return pending
}
