package mockserver

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-bank-client/bank"
	bankerrors "github.com/jrsteele09/go-bank-client/internal/errors"
	"github.com/jrsteele09/go-bank-client/internal/utils"
)

const defaultCurrency = "EUR"

// ledger is the in-memory bank: accounts, transfers, saved recipients and
// debt reminders, all scoped to the customer that owns them
type ledger struct {
	mu  sync.Mutex
	now func() time.Time

	customers  []string
	accounts   map[string]*bank.Account
	owners     map[string]string
	byOwner    map[string][]string
	transfers  []bank.Transfer
	recipients map[string][]bank.Recipient
	debts      map[string]*bank.Debt
}

func newLedger(now func() time.Time) *ledger {
	return &ledger{
		now:        now,
		accounts:   make(map[string]*bank.Account),
		owners:     make(map[string]string),
		byOwner:    make(map[string][]string),
		recipients: make(map[string][]bank.Recipient),
		debts:      make(map[string]*bank.Debt),
	}
}

// addCustomer opens an everyday and a savings account for username
func (l *ledger) addCustomer(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byOwner[username]; exists {
		return
	}
	l.customers = append(l.customers, username)
	n := len(l.customers)
	l.openAccountLocked(username, fmt.Sprintf("%d000-0001", n), "Everyday", 250000)
	l.openAccountLocked(username, fmt.Sprintf("%d000-0002", n), "Savings", 1000000)
}

func (l *ledger) openAccountLocked(username, number, name string, balance int64) {
	a := &bank.Account{
		ID:       uuid.NewString(),
		Number:   number,
		Name:     name,
		Balance:  balance,
		Currency: defaultCurrency,
	}
	l.accounts[a.ID] = a
	l.owners[a.ID] = username
	l.byOwner[username] = append(l.byOwner[username], a.ID)
}

func (l *ledger) Accounts(username string) []bank.Account {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts := make([]bank.Account, 0, len(l.byOwner[username]))
	for _, id := range l.byOwner[username] {
		accounts = append(accounts, *l.accounts[id])
	}
	return accounts
}

func (l *ledger) Account(username, id string) (bank.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, err := l.ownedLocked(username, id)
	if err != nil {
		return bank.Account{}, err
	}
	return *a, nil
}

func (l *ledger) ownedLocked(username, accountID string) (*bank.Account, error) {
	a, ok := l.accounts[accountID]
	if !ok || l.owners[accountID] != username {
		return nil, bankerrors.Wrapf(bankerrors.ErrNotFound, "account %s", accountID)
	}
	return a, nil
}

func (l *ledger) byNumberLocked(number string) *bank.Account {
	for _, a := range l.accounts {
		if a.Number == number {
			return a
		}
	}
	return nil
}

func (l *ledger) Transfer(username string, req bank.TransferRequest) (bank.Transfer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transferLocked(username, req)
}

func (l *ledger) transferLocked(username string, req bank.TransferRequest) (bank.Transfer, error) {
	from, err := l.ownedLocked(username, req.FromAccountID)
	if err != nil {
		return bank.Transfer{}, err
	}
	if req.ToAccount == from.Number {
		return bank.Transfer{}, bankerrors.Wrapf(bankerrors.ErrInvalidRequest, "cannot transfer to the source account")
	}
	if from.Balance < req.Amount {
		return bank.Transfer{}, bankerrors.Wrapf(bankerrors.ErrInsufficientFunds, "balance %d, amount %d", from.Balance, req.Amount)
	}

	from.Balance -= req.Amount
	// payments to unknown account numbers leave the bank
	if to := l.byNumberLocked(req.ToAccount); to != nil {
		to.Balance += req.Amount
	}

	t := bank.Transfer{
		ID:            uuid.NewString(),
		FromAccountID: from.ID,
		ToAccount:     req.ToAccount,
		Amount:        req.Amount,
		Description:   req.Description,
		CreatedAt:     l.now().UTC(),
	}
	l.transfers = append(l.transfers, t)
	return t, nil
}

// Transfers lists the transfers touching the customer's accounts, newest
// first, optionally limited to one account.
func (l *ledger) Transfers(username, accountID string) ([]bank.Transfer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if accountID != "" {
		if _, err := l.ownedLocked(username, accountID); err != nil {
			return nil, err
		}
	}

	numbers := make(map[string]string)
	for _, id := range l.byOwner[username] {
		numbers[l.accounts[id].Number] = id
	}

	transfers := []bank.Transfer{}
	for i := len(l.transfers) - 1; i >= 0; i-- {
		t := l.transfers[i]
		outgoing := l.owners[t.FromAccountID] == username
		incomingID, incoming := numbers[t.ToAccount]
		if !outgoing && !incoming {
			continue
		}
		if accountID != "" && t.FromAccountID != accountID && incomingID != accountID {
			continue
		}
		transfers = append(transfers, t)
	}
	return transfers, nil
}

func (l *ledger) Recipients(username string) []bank.Recipient {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]bank.Recipient{}, l.recipients[username]...)
}

func (l *ledger) AddRecipient(username string, req bank.RecipientRequest) (bank.Recipient, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, r := range l.recipients[username] {
		if r.AccountNumber == req.AccountNumber {
			return bank.Recipient{}, bankerrors.Wrapf(bankerrors.ErrInvalidRequest, "recipient %s already saved", req.AccountNumber)
		}
	}
	r := bank.Recipient{
		ID:            uuid.NewString(),
		Name:          req.Name,
		AccountNumber: req.AccountNumber,
		BankName:      req.BankName,
		Nickname:      req.Nickname,
	}
	if r.Nickname == nil {
		r.Nickname = utils.Ptr(req.Name)
	}
	l.recipients[username] = append(l.recipients[username], r)
	return r, nil
}

func (l *ledger) RemoveRecipient(username, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	saved := l.recipients[username]
	for i, r := range saved {
		if r.ID == id {
			l.recipients[username] = append(saved[:i:i], saved[i+1:]...)
			return nil
		}
	}
	return bankerrors.Wrapf(bankerrors.ErrNotFound, "recipient %s", id)
}

// Debts lists the reminders the customer sent or received, oldest first.
func (l *ledger) Debts(username string) []bank.Debt {
	l.mu.Lock()
	defer l.mu.Unlock()

	debts := []bank.Debt{}
	for _, d := range l.debts {
		if d.Creditor == username || d.Debtor == username {
			debts = append(debts, *d)
		}
	}
	sort.Slice(debts, func(i, j int) bool {
		if debts[i].CreatedAt.Equal(debts[j].CreatedAt) {
			return debts[i].ID < debts[j].ID
		}
		return debts[i].CreatedAt.Before(debts[j].CreatedAt)
	})
	return debts
}

func (l *ledger) CreateDebt(username string, req bank.DebtRequest) (bank.Debt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if req.Debtor == username {
		return bank.Debt{}, bankerrors.Wrapf(bankerrors.ErrInvalidRequest, "cannot send a debt reminder to yourself")
	}
	if _, known := l.byOwner[req.Debtor]; !known {
		return bank.Debt{}, bankerrors.Wrapf(bankerrors.ErrNotFound, "customer %s", req.Debtor)
	}
	d := &bank.Debt{
		ID:          uuid.NewString(),
		Creditor:    username,
		Debtor:      req.Debtor,
		Amount:      req.Amount,
		Description: req.Description,
		Status:      bank.DebtPending,
		CreatedAt:   l.now().UTC(),
	}
	l.debts[d.ID] = d
	return *d, nil
}

// PayDebt settles a pending reminder addressed to username by transferring
// the amount to the creditor's first account.
func (l *ledger) PayDebt(username, id, fromAccountID string) (bank.Debt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	d, ok := l.debts[id]
	if !ok || d.Debtor != username {
		return bank.Debt{}, bankerrors.Wrapf(bankerrors.ErrNotFound, "debt %s", id)
	}
	if d.Status != bank.DebtPending {
		return bank.Debt{}, bankerrors.Wrapf(bankerrors.ErrInvalidRequest, "debt is %s", d.Status)
	}
	creditorAccounts := l.byOwner[d.Creditor]
	if len(creditorAccounts) == 0 {
		return bank.Debt{}, bankerrors.Wrapf(bankerrors.ErrInternal, "creditor %s has no account", d.Creditor)
	}

	_, err := l.transferLocked(username, bank.TransferRequest{
		FromAccountID: fromAccountID,
		ToAccount:     l.accounts[creditorAccounts[0]].Number,
		Amount:        d.Amount,
		Description:   "Debt payment: " + d.Description,
	})
	if err != nil {
		return bank.Debt{}, err
	}
	d.Status = bank.DebtPaid
	d.PaidAt = utils.Ptr(l.now().UTC())
	return *d, nil
}

// CancelDebt withdraws a pending reminder; either party may cancel it.
func (l *ledger) CancelDebt(username, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	d, ok := l.debts[id]
	if !ok || (d.Creditor != username && d.Debtor != username) {
		return bankerrors.Wrapf(bankerrors.ErrNotFound, "debt %s", id)
	}
	if d.Status != bank.DebtPending {
		return bankerrors.Wrapf(bankerrors.ErrInvalidRequest, "debt is %s", d.Status)
	}
	d.Status = bank.DebtCancelled
	return nil
}
