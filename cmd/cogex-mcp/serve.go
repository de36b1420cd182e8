package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/backend"
	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/cache"
	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/config"
	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/format"
	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/handlers"
	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/httpserver"
	"github.com/ejmockler/indra-cogex-mcp-sub002/internal/metrics"
	"github.com/ejmockler/indra-cogex-mcp-sub002/pkg/logging/logging"
)

type serveFlags struct {
	opsAddr  string
	noCache  bool
	charLim  int
	logLevel string
}

func newServeCmd() *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP tools over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("ops-addr") {
				cfg.Server.OpsAddr = f.opsAddr
			}
			if f.noCache {
				cfg.Cache.Enabled = false
			}
			if cmd.Flags().Changed("character-limit") {
				cfg.Format.CharacterLimit = f.charLim
			}
			if f.logLevel != "" {
				cfg.LogLevel = f.logLevel
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&f.opsAddr, "ops-addr", "", "ops HTTP listen address (empty disables)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().IntVar(&f.charLim, "character-limit", 0, "response character budget (0 disables truncation)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	// ----- Logger (stderr only; stdout is the MCP stream) -----
	logger, err := logging.New(logging.Options{Env: cfg.Env, Level: cfg.LogLevel})
	if err != nil {
		return errors.Wrap(err, "build logger")
	}
	defer func() { _ = logger.Sync() }()
	ctx = logging.WithLogger(ctx, logger)

	// ----- Metrics -----
	metrics.Register()

	logger.Info("loaded config",
		zap.String("backend_url", cfg.Backend.URL),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Int("cache_max_size", cfg.Cache.MaxSize),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
		zap.String("cache_remote", cfg.Cache.Remote),
		zap.Int("character_limit", cfg.Format.CharacterLimit),
		zap.String("ops_addr", cfg.Server.OpsAddr),
	)

	// ----- Redis client (only if needed) -----
	var redisClient *redis.Client
	if cfg.Cache.Enabled && cfg.Cache.Remote == cache.RemoteRedis {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return errors.Wrapf(err, "redis connection to %s failed", cfg.Cache.RedisAddr)
		}
		logger.Info("redis connection established", zap.String("addr", cfg.Cache.RedisAddr))
	}

	// ----- Cache -----
	opts := []cache.Option{cache.WithLogger(logger)}
	if remote := cache.NewRemote(cache.RemoteConfig{Backend: cfg.Cache.Remote, Prefix: cfg.Cache.Prefix}, redisClient); remote != nil {
		opts = append(opts, cache.WithRemote(remote))
	}
	resultCache, err := cache.New(cache.Config{
		Enabled: cfg.Cache.Enabled,
		MaxSize: cfg.Cache.MaxSize,
		TTL:     cfg.Cache.TTL,
	}, opts...)
	if err != nil {
		return err
	}
	defer resultCache.Close()

	// ----- Backend client -----
	client, err := backend.NewClient(backend.Config{
		BaseURL:    cfg.Backend.URL,
		APIKey:     cfg.Backend.APIKey,
		Timeout:    cfg.Backend.Timeout,
		MaxRetries: cfg.Backend.MaxRetries,
	}, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	// ----- Tools -----
	h, err := handlers.New(handlers.Deps{
		Backend:   client,
		Cache:     resultCache,
		Formatter: format.New(cfg.Format.CharacterLimit, logger),
		Timeout:   cfg.Server.ToolTimeout,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	mcpServer := handlers.NewServer(Version, h)

	// ----- Ops HTTP server -----
	var srv *http.Server
	if cfg.Server.OpsAddr != "" {
		r := chi.NewRouter()
		httpserver.SetupRouter(r, logger, resultCache)
		srv = &http.Server{
			Addr:              cfg.Server.OpsAddr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("ops server error", zap.Error(err))
			}
		}()
		logger.Info("ops server listening", zap.String("addr", srv.Addr))
	}

	logger.Info("serving MCP over stdio", zap.String("version", Version))
	serveErr := handlers.Serve(ctx, mcpServer, os.Stdin, os.Stdout, logger)
	if errors.Is(serveErr, context.Canceled) {
		serveErr = nil
	}
	logger.Info("shutdown", zap.Error(serveErr))

	// ----- Graceful shutdown -----
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("ops server shutdown error", zap.Error(err))
		}
	}

	stats := resultCache.Stats()
	logger.Info("cache summary",
		zap.Uint64("hits", stats.Hits),
		zap.Uint64("misses", stats.Misses),
		zap.Uint64("evictions", stats.Evictions),
		zap.Float64("hit_rate", stats.HitRate),
	)
	return serveErr
}
