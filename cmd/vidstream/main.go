package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := run(ctx, os.Getenv, os.Getwd, os.Args[1:])
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err.Error())
		os.Exit(1)
	}
}

// run loads configuration in precedence order (.env file, environment,
// flags) and serves until the context is cancelled.
func run(ctx context.Context, getenv func(string) string, getwd func() (string, error), args []string) error {
	config := NewConfig()

	if err := config.LoadDotEnv(getwd); err != nil {
		return err
	}
	config.LoadEnv(getenv)
	if err := config.ParseFlags(args); err != nil {
		return err
	}

	srv, err := NewServerApp(ctx, config)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
