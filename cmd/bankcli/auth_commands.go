package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-bank-client/internal/config"
	"github.com/jrsteele09/go-bank-client/token"
	"github.com/spf13/cobra"
)

func newLoginCommand(a *app) *cobra.Command {
	var username, password string
	c := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = config.GetEnv("BANK_PASSWORD", "")
			}
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if err := a.client.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", username)
			return err
		},
	}
	c.Flags().StringVarP(&username, "username", "u", "", "username")
	c.Flags().StringVarP(&password, "password", "p", "", "password (default: BANK_PASSWORD or prompt)")
	_ = c.MarkFlagRequired("username")
	return c
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and remove stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Logout(cmd.Context()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return err
		},
	}
}

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := token.Source(cmd.Context(), a.client.Tokens()).Token()
			if err != nil && !errors.Is(err, token.ErrNoAccessToken) {
				return err
			}

			w := table(cmd.OutOrStdout())
			fmt.Fprintf(w, "API\t%s\n", a.cfg.GetBaseURL())
			fmt.Fprintf(w, "Storage\t%s\n", a.cfg.GetStorageBackend())
			if tok == nil {
				fmt.Fprintf(w, "Session\tlogged out\n")
				return w.Flush()
			}
			fmt.Fprintf(w, "Session\tlogged in\n")
			if !tok.Expiry.IsZero() {
				fmt.Fprintf(w, "Access token expires\t%s\n", when(tok.Expiry))
			}
			fmt.Fprintf(w, "Refresh token\t%s\n", presence(tok.RefreshToken))
			return w.Flush()
		},
	}
}

func presence(v string) string {
	if v == "" {
		return "missing"
	}
	return "stored"
}
