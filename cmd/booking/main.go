package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"romaantica/internal/app"
	"romaantica/internal/config"
	"romaantica/internal/console"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger := app.NewLogger(os.Stderr, "info")
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	// Logs go to stderr so they do not mix with the session on stdout.
	logger := app.NewLogger(os.Stderr, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init app error")
	}
	defer a.Close()

	c := console.New(os.Stdin, os.Stdout, a.NewController, console.Options{
		MenuURL: cfg.MenuURL,
		Logger:  a.Logger(),
	})
	route, err := c.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("booking session failed")
		return
	}
	logger.Debug().Str("route", string(route)).Msg("booking session ended")
}
