package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thib420/AI-Table-sub000/internal/ai"
	"github.com/thib420/AI-Table-sub000/internal/api"
	"github.com/thib420/AI-Table-sub000/internal/config"
	"github.com/thib420/AI-Table-sub000/internal/contacts"
	"github.com/thib420/AI-Table-sub000/internal/database"
	"github.com/thib420/AI-Table-sub000/internal/logger"
	"github.com/thib420/AI-Table-sub000/internal/provider"
	"github.com/thib420/AI-Table-sub000/internal/repository"
	"github.com/thib420/AI-Table-sub000/internal/retry"
	"github.com/thib420/AI-Table-sub000/internal/services"
	"github.com/thib420/AI-Table-sub000/internal/websocket"
)

func main() {
	cfg, err := config.LoadWithValidation()
	if err != nil {
		slog.Error("configuration error", slog.Any("error", err))
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(log)

	slog.Info("Starting mail mirror server...")
	cfg.LogConfig(log)

	// A database failure is survivable: the store degrades to empty reads
	// and the API keeps serving instead of crash-looping.
	db, err := database.Connect(cfg.DatabaseURL, cfg.AppEnv)
	if err != nil {
		slog.Warn("database unavailable, running degraded", slog.Any("error", err))
		db = nil
	} else if err := database.Migrate(db); err != nil {
		slog.Warn("migrations failed, running degraded", slog.Any("error", err))
		database.Close(db)
		db = nil
	}

	syncLog := logger.NewSyncLogger(log)
	store := repository.NewStore(db, syncLog)

	providerClient := provider.NewClient(provider.Config{
		BaseURL:  cfg.ProviderBaseURL,
		Token:    cfg.ProviderToken,
		PageSize: cfg.PageSize,
		MaxPages: cfg.MaxPages,
		QPS:      cfg.ProviderQPS,
		Timeout:  cfg.ProviderTimeout,
	})

	exclusion := contacts.NewExclusionPolicy(cfg.ExcludePrefixes, cfg.ExcludeDomains, cfg.IncludePrefixes)

	completer := ai.NewCompleter(ai.Config{
		BaseURL: cfg.AIEndpoint,
		APIKey:  cfg.AIAPIKey,
		Model:   cfg.AIModel,
	})
	enricher := services.NewEnricher(store.Contacts, completer, syncLog)

	engine := services.NewSyncEngine(store, providerClient, exclusion, enricher, services.SyncEngineConfig{
		OwnerID:           cfg.OwnerID,
		MinSyncInterval:   cfg.MinSyncInterval,
		MessagesPerFolder: cfg.MessagesPerFolder,
		EnrichLimit:       cfg.AIEnrichLimit,
	}, syncLog)

	cache := services.NewMailCache(store, providerClient, engine, services.MailCacheConfig{
		OwnerID:        cfg.OwnerID,
		SnapshotTTL:    cfg.SnapshotTTL,
		DebounceWindow: cfg.DebounceWindow,
	}, syncLog)

	propagator := services.NewContactPropagator(providerClient, exclusion, services.PropagatorConfig{
		BatchSize:  cfg.ContactBatchSize,
		BatchDelay: cfg.ContactBatchDelay,
		Retry: retry.Policy{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
		},
	}, syncLog)

	// Websocket hub: snapshot updates and sync completions flow out,
	// client refresh requests flow back into the cache.
	hub := websocket.NewHub(log)
	go hub.Run()
	cache.Subscribe("websocket-hub", hub.BroadcastSnapshot)
	engine.OnComplete(hub.BroadcastSyncCompleted)
	hub.OnRefresh(func() {
		cache.Refresh(context.Background(), false)
	})

	// Background sync only makes sense with somewhere to persist; in
	// degraded mode clients still get read-through snapshots on demand.
	var scheduler *services.SyncScheduler
	if db != nil {
		scheduler = services.NewSyncScheduler(engine, store, services.SyncSchedulerConfig{
			OwnerID:  cfg.OwnerID,
			Interval: cfg.SyncInterval,
		}, syncLog)
		scheduler.Start()
	} else {
		slog.Warn("background sync disabled while degraded")
	}

	router := api.NewRouter(&api.RouterConfig{
		DB:             db,
		Store:          store,
		Engine:         engine,
		Cache:          cache,
		Propagator:     propagator,
		Scheduler:      scheduler,
		Hub:            hub,
		Upgrader:       websocket.NewSecureUpgrader(cfg.Origins(), log),
		Logger:         log,
		OwnerID:        cfg.OwnerID,
		APIKey:         cfg.APIKey,
		AllowedOrigins: cfg.Origins(),
		RateLimit:      cfg.RateLimitRequests,
		RateBurst:      cfg.RateLimitBurst,
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		slog.Info("API server listening", slog.String("addr", addr))
		if err := router.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := router.Shutdown(shutdownCtx); err != nil {
		slog.Error("API server shutdown error", slog.Any("error", err))
	}

	if db != nil {
		if err := database.Close(db); err != nil {
			slog.Error("database close error", slog.Any("error", err))
		}
	}

	slog.Info("Server stopped")
}

// parseLogLevel maps the LOG_LEVEL setting to a slog level, defaulting to
// info on anything unrecognized
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
