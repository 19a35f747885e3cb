package main

import (
	"context"
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-bank-client/apiclient"
	"github.com/jrsteele09/go-bank-client/bank"
	"github.com/jrsteele09/go-bank-client/internal/config"
	"github.com/jrsteele09/go-bank-client/internal/logging"
	"github.com/jrsteele09/go-bank-client/token"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app is the state shared by all commands once the root command has run setup
type app struct {
	cfg    config.Config
	client *apiclient.Client
	bank   *bank.Service

	closeStorage func() error
	closeLog     io.Closer

	flags struct {
		configFile string
		baseURL    string
		storage    string
		tokenFile  string
		logLevel   string
	}
}

func newRootCommand() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:               "bankcli",
		Short:             "Command line client for the bank API",
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "config file (yaml, json or toml)")
	pf.StringVar(&a.flags.baseURL, "base-url", "", "bank API base URL")
	pf.StringVar(&a.flags.storage, "storage", "", "token storage: memory, file or redis")
	pf.StringVar(&a.flags.tokenFile, "token-file", "", "token file for file storage")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "trace, debug, info, warn or error")

	root.AddCommand(
		newLoginCommand(a),
		newLogoutCommand(a),
		newStatusCommand(a),
		newAccountsCommand(a),
		newTransfersCommand(a),
		newRecipientsCommand(a),
		newDebtsCommand(a),
		newOverviewCommand(a),
		newRequestCommand(a),
		newVersionCommand(),
	)
	return root, a
}

// execute runs the command tree and releases what setup opened, also when
// the command failed. cobra skips post-run hooks on error.
func execute(ctx context.Context, root *cobra.Command, a *app) error {
	err := root.ExecuteContext(ctx)
	if terr := a.teardown(); terr != nil && err == nil {
		err = terr
	}
	return err
}

// flagOverrides maps changed persistent flags onto config keys
func (a *app) flagOverrides(cmd *cobra.Command) []config.Option {
	bindings := []struct {
		flag, key string
		value     *string
	}{
		{"base-url", "base_url", &a.flags.baseURL},
		{"storage", "storage", &a.flags.storage},
		{"token-file", "token_file", &a.flags.tokenFile},
		{"log-level", "log_level", &a.flags.logLevel},
	}

	opts := []config.Option{config.WithFile(a.flags.configFile)}
	for _, b := range bindings {
		if cmd.Flags().Changed(b.flag) {
			opts = append(opts, config.WithOverride(b.key, *b.value))
		}
	}
	return opts
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(a.flagOverrides(cmd)...)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.closeLog, err = logging.Setup(cfg); err != nil {
		return err
	}

	storage, closeStorage, err := token.NewStorageFromConfig(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	a.closeStorage = closeStorage

	stderr := cmd.ErrOrStderr()
	a.client, err = apiclient.NewFromConfig(cfg, storage,
		apiclient.WithLogger(log.Logger),
		apiclient.WithRedirector(apiclient.RedirectFunc(func(_ context.Context, route string) {
			fmt.Fprintf(stderr, "Session ended. Log in again with `bankcli login` (login route %s).\n", route)
		})),
	)
	if err != nil {
		return err
	}
	a.bank = bank.New(a.client)
	return nil
}

func (a *app) teardown() error {
	if a.closeStorage != nil {
		if err := a.closeStorage(); err != nil {
			log.Warn().Err(err).Msg("close token storage")
		}
		a.closeStorage = nil
	}
	if a.closeLog != nil {
		err := a.closeLog.Close()
		a.closeLog = nil
		return err
	}
	return nil
}
