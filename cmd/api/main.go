package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-tongue/backend/internal/config"
	"github.com/zhouzirui/z-tongue/backend/internal/handler"
	"github.com/zhouzirui/z-tongue/backend/internal/handler/health"
	"github.com/zhouzirui/z-tongue/backend/internal/model/product"
	"github.com/zhouzirui/z-tongue/backend/internal/repository/catalog"
	"github.com/zhouzirui/z-tongue/backend/internal/service/ai"
	"github.com/zhouzirui/z-tongue/backend/internal/service/diagnosis"
	"github.com/zhouzirui/z-tongue/backend/internal/service/recommend"
	"github.com/zhouzirui/z-tongue/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	var checks []health.Check

	sessions, err := newSessionStore(cfg.Session, logger)
	if err != nil {
		return err
	}
	defer closeQuietly(logger, "session store", sessions)
	if p, ok := sessions.(interface{ Ping(context.Context) error }); ok {
		checks = append(checks, health.Check{Name: "sessions", Run: p.Ping})
	}

	products, err := newCatalog(ctx, cfg.Catalog, logger)
	if err != nil {
		return err
	}
	if c, ok := products.(io.Closer); ok {
		defer closeQuietly(logger, "catalog", c)
	}
	if p, ok := products.(product.Pinger); ok {
		checks = append(checks, health.Check{Name: "catalog", Run: p.Ping})
	}

	completer, err := newCompleter(ctx, cfg.AI)
	if err != nil {
		logger.Warn("failed to initialize inference client, continuing with local synthesis only", zap.Error(err))
		completer = nil
	} else if completer == nil {
		logger.Info("inference credentials not configured, stage one uses local synthesis", zap.String("provider", cfg.AI.Provider))
	} else {
		logger.Info("inference client initialized", zap.String("provider", cfg.AI.Provider))
	}

	inference := ai.NewClient(completer, cfg.AI.Timeout, logger.Named("ai"))
	matcher := recommend.NewMatcher(products, logger.Named("recommend"))
	svc := diagnosis.NewService(sessions, inference, matcher, diagnosis.Config{
		RecommendLimit: cfg.Diagnosis.RecommendLimit,
		MaxImageBytes:  cfg.Diagnosis.MaxImageBytes,
	}, logger.Named("diagnosis"))
	defer svc.Close()

	router := handler.NewRouter(handler.Dependencies{
		Diagnosis:      svc,
		Catalog:        products,
		Checks:         checks,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxImageBytes:  cfg.Diagnosis.MaxImageBytes,
		Logger:         logger,
	})

	return startServer(ctx, cfg.Server, router, logger)
}

func newSessionStore(cfg config.SessionConfig, logger *zap.Logger) (session.Store, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		logger.Info("using redis session store", zap.String("addr", cfg.RedisAddr))
		return session.NewRedisStore(client, cfg.TTL), nil
	default:
		logger.Info("using in-memory session store", zap.Duration("ttl", cfg.TTL))
		return session.NewMemoryStore(
			session.WithTTL(cfg.TTL),
			session.WithCleanupInterval(cfg.CleanupInterval),
			session.WithLogger(logger.Named("session")),
		), nil
	}
}

func newCatalog(ctx context.Context, cfg config.CatalogConfig, logger *zap.Logger) (product.Store, error) {
	seed := product.Seed()
	if cfg.SeedFile != "" {
		items, err := product.LoadFile(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		seed = items
	}

	switch cfg.Driver {
	case config.DriverSQLite:
		logger.Info("using sqlite catalog", zap.String("dsn", cfg.SQLitePath))
		return catalog.NewSQLiteStore(ctx, cfg.SQLitePath, seed)
	case config.DriverSupabase:
		logger.Info("using supabase catalog", zap.String("url", cfg.SupabaseURL))
		return catalog.NewSupabaseStore(catalog.SupabaseConfig{URL: cfg.SupabaseURL, APIKey: cfg.SupabaseKey})
	default:
		logger.Info("using in-memory catalog", zap.Int("products", len(seed)))
		return product.NewMemoryStore(seed), nil
	}
}

// newCompleter returns nil without error when the provider has no credentials.
func newCompleter(ctx context.Context, cfg config.AIConfig) (ai.Completer, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	switch cfg.Provider {
	case config.ProviderGemini:
		return ai.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, float32(cfg.Temperature), cfg.MaxTokens)
	default:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("create ark chat model: %w", err)
		}
		return ai.NewChatModelCompleter(chatModel, float32(cfg.Temperature), cfg.MaxTokens), nil
	}
}

func closeQuietly(logger *zap.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Warn("close failed", zap.String("resource", name), zap.Error(err))
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("Z Tongue backend listening", zap.String("addr", addr))
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
