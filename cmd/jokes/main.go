package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"joke-browser/internal/bot"
	"joke-browser/internal/config"
	"joke-browser/internal/database"
	"joke-browser/internal/jokeapi"
	"joke-browser/internal/jokes"
	"joke-browser/internal/queue"
	"joke-browser/internal/server"
	"joke-browser/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrEmptyBotToken) {
			fmt.Fprintln(os.Stderr, "Error: BOT_TOKEN environment variable is required when the bot is enabled")
		} else if errors.Is(err, config.ErrEmptyDBPassword) {
			fmt.Fprintln(os.Stderr, "Error: STORAGE_DB_PASSWORD environment variable is required for the postgres driver")
		} else {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		}
		os.Exit(1)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.LogFormat, nil)
	logger.Info("Starting joke-browser",
		logger.String("app", cfg.App.Name),
		logger.String("environment", cfg.App.Environment),
		logger.String("storage", cfg.Storage.Driver),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, err := database.Open(ctx, cfg.Storage)
	if err != nil {
		var dbErr *database.ConnectionError
		if errors.As(err, &dbErr) {
			logger.Error("Failed to connect to database",
				logger.Err(dbErr),
				logger.String("host", cfg.Storage.Postgres.Host),
				logger.Int("port", cfg.Storage.Postgres.Port),
			)
		} else {
			logger.Error("Failed to open storage", logger.Err(err))
		}
		os.Exit(1)
	}
	defer kv.Close()
	logger.Info("Storage ready", logger.String("driver", cfg.Storage.Driver))

	var storeOpts []jokes.Option
	if cfg.NATS.Enabled {
		q, err := queue.New(cfg.NATS)
		if err != nil {
			logger.Error("Failed to connect to NATS", logger.Err(err))
			os.Exit(1)
		}
		defer q.Close()
		logger.Info("Connected to NATS", logger.String("url", cfg.NATS.URL))

		storeOpts = append(storeOpts, jokes.WithPublisher(q))

		go func() {
			logger.Info("Starting favorites consumer...")
			if err := q.ConsumeFavorites(ctx, func(event *queue.FavoriteEvent) error {
				logger.Info("Favorite event",
					logger.String("action", string(event.Action)),
					logger.String("key", event.Key),
					logger.Int64("joke_id", event.JokeID),
				)
				return nil
			}); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Favorites consumer error", logger.Err(err))
			}
		}()
	}

	client := jokeapi.New(cfg.API)

	store, err := jokes.NewStore(ctx, kv, append([]jokes.Option{jokes.WithFavoritesKey(cfg.Storage.FavoritesKey)}, storeOpts...)...)
	if err != nil {
		logger.Error("Failed to load favorites", logger.Err(err), logger.String("key", cfg.Storage.FavoritesKey))
		os.Exit(1)
	}
	logger.Info("Favorites loaded", logger.Int("count", len(store.FavoriteJokes())))

	loader := jokes.NewLoader(client, store)

	var stopBot func()
	if cfg.Bot.Enabled {
		sessions := bot.NewSessions(kv, client, cfg.Storage.FavoritesKey, storeOpts...)
		telegramBot, err := bot.New(cfg.Bot, sessions)
		if err != nil {
			logger.Error("Failed to create bot", logger.Err(err))
			os.Exit(1)
		}

		tbot, err := telegramBot.Start()
		if err != nil {
			logger.Error("Failed to start bot", logger.Err(err))
			os.Exit(1)
		}
		stopBot = tbot.Stop
		logger.Info("Telegram bot started")
	}

	var httpServer *http.Server
	if cfg.HTTP.Enabled {
		httpServer = server.NewServer(cfg.HTTP, server.NewRouter(cfg.HTTP, loader, kv))

		go func() {
			logger.Info("HTTP server starting", logger.Int("port", cfg.HTTP.Port))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", logger.Err(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if stopBot != nil {
		stopBot()
	}

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down HTTP server", logger.Err(err))
		}
	}

	logger.Info("Stopped gracefully")
}
