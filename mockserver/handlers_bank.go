package mockserver

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-bank-client/bank"
)

func (s *Server) ListAccounts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.ledger.Accounts(usernameFrom(r.Context())))
	}
}

func (s *Server) GetAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := s.ledger.Account(usernameFrom(r.Context()), mux.Vars(r)["id"])
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, account)
	}
}

func (s *Server) ListTransfers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transfers, err := s.ledger.Transfers(usernameFrom(r.Context()), r.URL.Query().Get("accountId"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, transfers)
	}
}

func (s *Server) CreateTransfer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bank.TransferRequest
		if err := s.decodeBody(r, &req, false); err != nil {
			writeDomainError(w, err)
			return
		}
		transfer, err := s.ledger.Transfer(usernameFrom(r.Context()), req)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, transfer)
	}
}

func (s *Server) ListRecipients() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.ledger.Recipients(usernameFrom(r.Context())))
	}
}

func (s *Server) AddRecipient() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bank.RecipientRequest
		if err := s.decodeBody(r, &req, false); err != nil {
			writeDomainError(w, err)
			return
		}
		recipient, err := s.ledger.AddRecipient(usernameFrom(r.Context()), req)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, recipient)
	}
}

func (s *Server) RemoveRecipient() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.ledger.RemoveRecipient(usernameFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) ListDebts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.ledger.Debts(usernameFrom(r.Context())))
	}
}

func (s *Server) CreateDebt() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bank.DebtRequest
		if err := s.decodeBody(r, &req, false); err != nil {
			writeDomainError(w, err)
			return
		}
		debt, err := s.ledger.CreateDebt(usernameFrom(r.Context()), req)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, debt)
	}
}

func (s *Server) PayDebt() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bank.PayDebtRequest
		if err := s.decodeBody(r, &req, false); err != nil {
			writeDomainError(w, err)
			return
		}
		debt, err := s.ledger.PayDebt(usernameFrom(r.Context()), mux.Vars(r)["id"], req.FromAccountID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, debt)
	}
}

func (s *Server) CancelDebt() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.ledger.CancelDebt(usernameFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
