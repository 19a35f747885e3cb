// Package bank exposes the bank API as typed calls on top of the
// authenticated apiclient pipeline.
package bank

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-bank-client/apiclient"
	"golang.org/x/sync/errgroup"
)

const (
	PathAccounts   = "/accounts"
	PathTransfers  = "/transfers"
	PathRecipients = "/recipients"
	PathDebts      = "/debts"
)

// Requester sends one API request and decodes the reply into out.
type Requester interface {
	Request(ctx context.Context, req apiclient.Request, out any) error
}

type Service struct {
	api Requester
}

func New(api Requester) *Service {
	return &Service{api: api}
}

func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := s.api.Request(ctx, apiclient.Get(PathAccounts, nil), &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *Service) GetAccount(ctx context.Context, id string) (*Account, error) {
	var account Account
	if err := s.api.Request(ctx, apiclient.Get(PathAccounts+"/"+url.PathEscape(id), nil), &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// ListTransfers returns the transfer history, optionally for one account.
func (s *Service) ListTransfers(ctx context.Context, accountID string) ([]Transfer, error) {
	var params url.Values
	if accountID != "" {
		params = url.Values{"accountId": []string{accountID}}
	}
	var transfers []Transfer
	if err := s.api.Request(ctx, apiclient.Get(PathTransfers, params), &transfers); err != nil {
		return nil, err
	}
	return transfers, nil
}

func (s *Service) CreateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	var transfer Transfer
	if err := s.api.Request(ctx, apiclient.Post(PathTransfers, req), &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (s *Service) ListRecipients(ctx context.Context) ([]Recipient, error) {
	var recipients []Recipient
	if err := s.api.Request(ctx, apiclient.Get(PathRecipients, nil), &recipients); err != nil {
		return nil, err
	}
	return recipients, nil
}

func (s *Service) AddRecipient(ctx context.Context, req RecipientRequest) (*Recipient, error) {
	var recipient Recipient
	if err := s.api.Request(ctx, apiclient.Post(PathRecipients, req), &recipient); err != nil {
		return nil, err
	}
	return &recipient, nil
}

func (s *Service) RemoveRecipient(ctx context.Context, id string) error {
	return s.api.Request(ctx, apiclient.Delete(PathRecipients+"/"+url.PathEscape(id)), nil)
}

func (s *Service) ListDebts(ctx context.Context) ([]Debt, error) {
	var debts []Debt
	if err := s.api.Request(ctx, apiclient.Get(PathDebts, nil), &debts); err != nil {
		return nil, err
	}
	return debts, nil
}

func (s *Service) CreateDebt(ctx context.Context, req DebtRequest) (*Debt, error) {
	var debt Debt
	if err := s.api.Request(ctx, apiclient.Post(PathDebts, req), &debt); err != nil {
		return nil, err
	}
	return &debt, nil
}

func (s *Service) PayDebt(ctx context.Context, id string, req PayDebtRequest) (*Debt, error) {
	var debt Debt
	if err := s.api.Request(ctx, apiclient.Post(PathDebts+"/"+url.PathEscape(id)+"/pay", req), &debt); err != nil {
		return nil, err
	}
	return &debt, nil
}

func (s *Service) CancelDebt(ctx context.Context, id string) error {
	return s.api.Request(ctx, apiclient.Delete(PathDebts+"/"+url.PathEscape(id)), nil)
}

// Overview loads accounts, recipients and debts concurrently. With an
// expired session the three calls share a single token refresh.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var o Overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		o.Accounts, err = s.ListAccounts(ctx)
		return err
	})
	g.Go(func() (err error) {
		o.Recipients, err = s.ListRecipients(ctx)
		return err
	})
	g.Go(func() (err error) {
		o.Debts, err = s.ListDebts(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &o, nil
}
