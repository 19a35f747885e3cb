package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-bank-client/internal/config"
	"github.com/jrsteele09/go-bank-client/internal/logging"
	"github.com/jrsteele09/go-bank-client/mockserver"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	c, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %s\n", err)
		os.Exit(1)
	}
	closer, err := logging.Setup(c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup: %s\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	for {
		if err := run(c); err != nil {
			log.Error().Err(err).Msg("error running mock bank")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("mock bank stopped")
}

func run(c config.Config) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	options, err := serverOptions()
	if err != nil {
		return err
	}
	handler, err := mockserver.NewFromConfig(c, options...)
	if err != nil {
		return fmt.Errorf("mockserver.New: %w", err)
	}

	displayAppname(c.GetAppName() + " Mock")
	server := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(server) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

// serverOptions reads the token lifetimes of the mock backend
func serverOptions() ([]mockserver.Option, error) {
	accessTTL, err := time.ParseDuration(config.GetEnv("BANK_MOCK_ACCESS_TTL", mockserver.DefaultAccessTokenTTL.String()))
	if err != nil {
		return nil, fmt.Errorf("BANK_MOCK_ACCESS_TTL: %w", err)
	}
	refreshTTL, err := time.ParseDuration(config.GetEnv("BANK_MOCK_REFRESH_TTL", mockserver.DefaultRefreshTokenTTL.String()))
	if err != nil {
		return nil, fmt.Errorf("BANK_MOCK_REFRESH_TTL: %w", err)
	}
	refreshDelay, err := time.ParseDuration(config.GetEnv("BANK_MOCK_REFRESH_DELAY", "0s"))
	if err != nil {
		return nil, fmt.Errorf("BANK_MOCK_REFRESH_DELAY: %w", err)
	}
	return []mockserver.Option{
		mockserver.WithAccessTokenTTL(accessTTL),
		mockserver.WithRefreshTokenTTL(refreshTTL),
		mockserver.WithRefreshDelay(refreshDelay),
		mockserver.WithSecret(config.GetEnv("BANK_MOCK_SECRET", mockserver.DefaultSecret)),
		mockserver.WithLogger(log.Logger),
	}, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("mock bank listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
