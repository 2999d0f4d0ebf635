package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MikeSquared-Agency/codemanager/internal/actions"
	"github.com/MikeSquared-Agency/codemanager/internal/api"
	"github.com/MikeSquared-Agency/codemanager/internal/bus"
	"github.com/MikeSquared-Agency/codemanager/internal/chat"
	"github.com/MikeSquared-Agency/codemanager/internal/config"
	"github.com/MikeSquared-Agency/codemanager/internal/openai"
	"github.com/MikeSquared-Agency/codemanager/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)

	slog.Info("codemanager starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Completion client
	if cfg.OpenAIAPIKey == "" {
		slog.Warn("OpenAI key not set. Please set it in the settings.")
	}
	provider := openai.NewProvider(openai.NewClient(cfg.OpenAIAPIKey, openai.Options{
		BaseURL:         cfg.OpenAIBaseURL,
		CompletionModel: cfg.CompletionModel,
		ChatModel:       cfg.ChatModel,
		Timeout:         cfg.RequestTimeout,
		Logger:          slog.Default(),
	}))
	slog.Info("completion client ready", "completion_model", cfg.CompletionModel, "chat_model", cfg.ChatModel)

	// Transcript archive (optional)
	var (
		chatRecorder chat.Recorder
		genRecorder  actions.GenerationRecorder
		stats        api.StatsSource
	)
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		chatRecorder, genRecorder, stats = db, db, db
		slog.Info("database connected")
	} else {
		slog.Warn("DATABASE_URL not set, chat transcripts are not archived")
	}

	// NATS (optional)
	var publisher actions.Publisher
	if cfg.NatsURL != "" {
		busClient, err := bus.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer busClient.Close()

		if err := busClient.SubscribeSettings(func(apiKey string) { provider.Reconfigure(apiKey) }); err != nil {
			slog.Error("failed to subscribe to settings updates", "error", err)
			os.Exit(1)
		}
		publisher = busClient
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS_URL not set, running without settings bus")
	}

	runner := actions.New(provider, publisher, genRecorder, slog.Default())

	chats := chat.NewRegistry(provider, chatRecorder, cfg.SessionTTL, slog.Default())
	defer chats.Close()

	// HTTP API
	srv := api.NewServer(cfg.Port, api.Deps{
		Actions:  runner,
		Chats:    chats,
		Provider: provider,
		Stats:    stats,
		APIToken: cfg.APIToken,
		Logger:   slog.Default(),
	})
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("codemanager ready", "port", cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range sigCh {
		if sig == syscall.SIGHUP {
			reloadSettings(provider, &cfg)
			continue
		}
		break
	}
	slog.Info("shutting down")
	cancel()
	slog.Info("codemanager stopped")
}

// reloadSettings re-reads the config and applies a changed API key.
func reloadSettings(provider *openai.Provider, cfg *config.Config) {
	next, err := config.Load()
	if err != nil {
		slog.Error("failed to reload config", "error", err)
		return
	}
	if next.OpenAIAPIKey == cfg.OpenAIAPIKey {
		slog.Info("config reloaded, api key unchanged")
		return
	}
	if next.OpenAIAPIKey == "" {
		slog.Warn("OpenAI key not set. Please set it in the settings.")
	}
	provider.Reconfigure(next.OpenAIAPIKey)
	cfg.OpenAIAPIKey = next.OpenAIAPIKey
	slog.Info("settings updated")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
