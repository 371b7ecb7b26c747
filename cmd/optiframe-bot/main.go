package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/optiframe/optiframe/internal/bot"
	"github.com/optiframe/optiframe/internal/config"
	"github.com/optiframe/optiframe/internal/inventory"
	"github.com/optiframe/optiframe/internal/logging"
	"github.com/optiframe/optiframe/internal/ops"
	"github.com/optiframe/optiframe/internal/store"
)

// resolveToken returns the bot token from the environment, falling back
// to the token file. With BOT_DEBUG it reports where each attempt landed.
func resolveToken(cfg config.BotConfig) (string, error) {
	if tok := strings.TrimSpace(cfg.Token); tok != "" {
		if cfg.Debug {
			slog.Debug("token resolved from environment", "length", len(tok))
		}
		return tok, nil
	}
	if cfg.Debug {
		slog.Debug("TELEGRAM_BOT_TOKEN not set, trying token file", "path", cfg.TokenFile)
	}

	data, err := os.ReadFile(cfg.TokenFile)
	if err != nil {
		return "", fmt.Errorf("no token in environment and reading %s failed: %w", cfg.TokenFile, err)
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", fmt.Errorf("token file %s is empty", cfg.TokenFile)
	}
	if cfg.Debug {
		slog.Debug("token resolved from file", "path", cfg.TokenFile, "length", len(tok))
	}
	return tok, nil
}

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err == nil {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	token, err := resolveToken(cfg.Bot)
	if err != nil {
		slog.Error("failed to resolve bot token", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.New(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Bootstrap(ctx, false); err != nil {
		slog.Error("schema bootstrap failed", "error", err)
		os.Exit(1)
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		slog.Error("failed to authenticate with Telegram", "error", err)
		os.Exit(1)
	}
	api.Debug = cfg.Bot.Debug

	engine := inventory.NewEngine(st, cfg.Export.MaxRows)
	b := bot.New(api, engine, cfg.Bot, cfg.Export.InlineThreshold)

	var opsServer *ops.Server
	if cfg.Ops.Enabled {
		opsServer = ops.NewServer(st, cfg.Ops.Host, cfg.Ops.Port)
		go func() {
			if err := opsServer.Start(); err != nil {
				slog.Error("ops listener failed", "error", err)
			}
		}()
	}

	slog.Info("bot starting", "username", api.Self.UserName)
	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("bot stopped", "error", err)
	}

	if opsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Ops.ShutdownTimeout)
		defer cancel()
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("ops shutdown error", "error", err)
		}
	}
	slog.Info("shutdown complete")
}
