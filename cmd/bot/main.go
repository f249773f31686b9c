package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"romaantica/internal/app"
	"romaantica/internal/bot"
	"romaantica/internal/config"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		logger := app.NewLogger(os.Stdout, "info")
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := app.NewLogger(os.Stdout, cfg.Log.Level)

	if cfg.Telegram.BotToken == "" || cfg.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		logger.Fatal().Msg("set telegram.bot_token in config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init app error")
	}
	defer a.Close()

	b, err := bot.New(cfg.Telegram.BotToken, a.NewController, bot.Options{MenuURL: cfg.MenuURL}, a.Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("create bot error")
	}

	a.StartServers(ctx)

	logger.Info().Msg("Roma Antica booking bot started")
	b.Start(ctx)
}
