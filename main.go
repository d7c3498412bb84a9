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

	"github.com/joho/godotenv"

	"github.com/ANAVHEOBA/softwaresystem/internal/adapter/llm"
	"github.com/ANAVHEOBA/softwaresystem/internal/adapter/stt"
	"github.com/ANAVHEOBA/softwaresystem/internal/cache"
	"github.com/ANAVHEOBA/softwaresystem/internal/config"
	"github.com/ANAVHEOBA/softwaresystem/internal/domain"
	"github.com/ANAVHEOBA/softwaresystem/internal/logging"
	"github.com/ANAVHEOBA/softwaresystem/internal/policy"
	"github.com/ANAVHEOBA/softwaresystem/internal/repository"
	"github.com/ANAVHEOBA/softwaresystem/internal/service"
	"github.com/ANAVHEOBA/softwaresystem/internal/session"
	server "github.com/ANAVHEOBA/softwaresystem/internal/transport/http"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("relay stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	slog.Info("starting relay",
		"port", cfg.HTTPPort,
		"store", cfg.StoreDriver,
		"cache", cfg.RedisURI != "",
		"preset", cfg.PromptPreset)

	ctx := context.Background()

	// Initialize store
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// Initialize session cache
	var sessionCache cache.Cache = cache.Nop{}
	if cfg.RedisURI != "" {
		dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		rc, err := cache.Dial(dialCtx, cfg.RedisURI)
		cancel()
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rc.Close()
		sessionCache = rc
	} else {
		slog.Warn("REDIS_URI not set, session cache disabled")
	}
	sessions := session.NewStore(store, sessionCache, session.WithTTL(cfg.SessionCacheTTL))

	// Initialize LLM client
	llmClient, err := llm.NewLLMClient(cfg)
	if err != nil {
		return fmt.Errorf("create llm client: %w", err)
	}

	// Initialize STT client
	var transcriber stt.Transcriber
	sttClient, err := stt.NewClient(cfg.STTBaseURL, cfg.STTAPIKey,
		stt.WithModel(cfg.STTModel), stt.WithTimeout(cfg.STTTimeout))
	switch {
	case err == nil:
		transcriber = sttClient
	case errors.Is(err, domain.ErrMissingAPIKey):
		slog.Warn("GROQ_API_KEY not set, speech-to-text disabled")
	default:
		return fmt.Errorf("create stt client: %w", err)
	}

	// Initialize policy engine
	policyEngine, err := policy.NewEngineFromFile(ctx, cfg.PolicyFile)
	if err != nil {
		return fmt.Errorf("initialize policy engine: %w", err)
	}

	// Initialize service
	svc := service.New(store, sessions, llmClient, transcriber, cfg, policyEngine)

	e := server.NewServer(svc)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	slog.Info("shutting down relay")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Warn("graceful shutdown failed", "error", err)
	}

	slog.Info("relay stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		s, err := repository.NewMongoStore(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		return s, nil
	default:
		s, err := repository.NewSQLiteStore(cfg.SQLiteDSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return s, nil
	}
}
