package main

import (
	"fmt"

	"github.com/jrsteele09/go-bank-client/bank"
	"github.com/jrsteele09/go-bank-client/internal/utils"
	"github.com/spf13/cobra"
)

func newAccountsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts [ID]",
		Short: "List accounts or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var accounts []bank.Account
			if len(args) == 1 {
				account, err := a.bank.GetAccount(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				accounts = []bank.Account{*account}
			} else {
				var err error
				if accounts, err = a.bank.ListAccounts(cmd.Context()); err != nil {
					return err
				}
			}

			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNUMBER\tNAME\tBALANCE")
			for _, acc := range accounts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", acc.ID, acc.Number, acc.Name, money(acc.Balance, acc.Currency))
			}
			return w.Flush()
		},
	}
}

func newTransfersCommand(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "transfers",
		Short: "List or create transfers",
	}

	var accountID string
	list := &cobra.Command{
		Use:   "list",
		Short: "Show the transfer history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			transfers, err := a.bank.ListTransfers(cmd.Context(), accountID)
			if err != nil {
				return err
			}
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tFROM\tTO\tAMOUNT\tWHEN\tDESCRIPTION")
			for _, t := range transfers {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.FromAccountID, t.ToAccount, money(t.Amount, ""), when(t.CreatedAt), t.Description)
			}
			return w.Flush()
		},
	}
	list.Flags().StringVar(&accountID, "account", "", "only transfers touching this account ID")

	var req bank.TransferRequest
	var amount string
	create := &cobra.Command{
		Use:   "create",
		Short: "Send money from one of your accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Amount, err = parseAmount(amount); err != nil {
				return err
			}
			t, err := a.bank.CreateTransfer(cmd.Context(), req)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Transfer %s: %s to %s\n", t.ID, money(t.Amount, ""), t.ToAccount)
			return err
		},
	}
	create.Flags().StringVar(&req.FromAccountID, "from", "", "source account ID")
	create.Flags().StringVar(&req.ToAccount, "to", "", "destination account number")
	create.Flags().StringVar(&amount, "amount", "", "amount, e.g. 12.50")
	create.Flags().StringVar(&req.Description, "description", "", "payment reference")
	_ = create.MarkFlagRequired("from")
	_ = create.MarkFlagRequired("to")
	_ = create.MarkFlagRequired("amount")

	c.AddCommand(list, create)
	return c
}

func newRecipientsCommand(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "recipients",
		Short: "Manage saved recipients",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show saved recipients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recipients, err := a.bank.ListRecipients(cmd.Context())
			if err != nil {
				return err
			}
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tNICKNAME\tACCOUNT\tBANK")
			for _, r := range recipients {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, utils.Value(r.Nickname), r.AccountNumber, r.BankName)
			}
			return w.Flush()
		},
	}

	var req bank.RecipientRequest
	var nickname string
	add := &cobra.Command{
		Use:   "add",
		Short: "Save a recipient",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if nickname != "" {
				req.Nickname = utils.Ptr(nickname)
			}
			r, err := a.bank.AddRecipient(cmd.Context(), req)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved recipient %s (%s)\n", r.Name, r.ID)
			return err
		},
	}
	add.Flags().StringVar(&req.Name, "name", "", "recipient name")
	add.Flags().StringVar(&req.AccountNumber, "account", "", "recipient account number")
	add.Flags().StringVar(&req.BankName, "bank", "", "recipient bank")
	add.Flags().StringVar(&nickname, "nickname", "", "short name")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("account")

	remove := &cobra.Command{
		Use:   "remove ID",
		Short: "Delete a saved recipient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.bank.RemoveRecipient(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Removed")
			return err
		},
	}

	c.AddCommand(list, add, remove)
	return c
}

func newDebtsCommand(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "debts",
		Short: "Manage debt reminders",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show debt reminders you sent or received",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			debts, err := a.bank.ListDebts(cmd.Context())
			if err != nil {
				return err
			}
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tCREDITOR\tDEBTOR\tAMOUNT\tSTATUS\tCREATED")
			for _, d := range debts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", d.ID, d.Creditor, d.Debtor, money(d.Amount, ""), d.Status, when(d.CreatedAt))
			}
			return w.Flush()
		},
	}

	var req bank.DebtRequest
	var amount string
	create := &cobra.Command{
		Use:   "create",
		Short: "Send a debt reminder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Amount, err = parseAmount(amount); err != nil {
				return err
			}
			d, err := a.bank.CreateDebt(cmd.Context(), req)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Debt reminder %s sent to %s\n", d.ID, d.Debtor)
			return err
		},
	}
	create.Flags().StringVar(&req.Debtor, "debtor", "", "customer who owes the money")
	create.Flags().StringVar(&amount, "amount", "", "amount, e.g. 12.50")
	create.Flags().StringVar(&req.Description, "description", "", "what it is for")
	_ = create.MarkFlagRequired("debtor")
	_ = create.MarkFlagRequired("amount")

	var pay bank.PayDebtRequest
	payCmd := &cobra.Command{
		Use:   "pay ID",
		Short: "Pay a debt reminder addressed to you",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.bank.PayDebt(cmd.Context(), args[0], pay)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Paid %s to %s\n", money(d.Amount, ""), d.Creditor)
			return err
		},
	}
	payCmd.Flags().StringVar(&pay.FromAccountID, "from", "", "account ID to pay from")
	_ = payCmd.MarkFlagRequired("from")

	cancel := &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a pending debt reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.bank.CancelDebt(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
			return err
		},
	}

	c.AddCommand(list, create, payCmd, cancel)
	return c
}

func newOverviewCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Accounts, recipients and open debts at a glance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := a.bank.Overview(cmd.Context())
			if err != nil {
				return err
			}
			currency := ""
			if len(o.Accounts) > 0 {
				currency = o.Accounts[0].Currency
			}

			w := table(cmd.OutOrStdout())
			for _, acc := range o.Accounts {
				fmt.Fprintf(w, "%s\t%s\t%s\n", acc.Name, acc.Number, money(acc.Balance, acc.Currency))
			}
			fmt.Fprintf(w, "Total\t\t%s\n", money(o.TotalBalance(), currency))
			fmt.Fprintf(w, "Saved recipients\t\t%d\n", len(o.Recipients))
			fmt.Fprintf(w, "Pending debts\t\t%d\n", len(o.PendingDebts()))
			return w.Flush()
		},
	}
}
