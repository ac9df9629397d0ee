// Package main is the entrypoint for the Shelf product catalogue API server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/shelfapi/shelf/internal/auth"
	"github.com/shelfapi/shelf/internal/cache"
	"github.com/shelfapi/shelf/internal/config"
	"github.com/shelfapi/shelf/internal/handler"
	"github.com/shelfapi/shelf/internal/media"
	"github.com/shelfapi/shelf/internal/metrics"
	"github.com/shelfapi/shelf/internal/middleware"
	"github.com/shelfapi/shelf/internal/repository"
	"github.com/shelfapi/shelf/internal/server"
	"github.com/shelfapi/shelf/internal/service"
)

const metricsNamespace = "shelf"

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL, repository.Options{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL, cache.Options{
		PoolSize:  cfg.RedisPoolSize,
		KeyPrefix: cfg.RedisKeyPrefix,
	})
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsRecorder, err := metrics.NewPrometheus(registry)
	if err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}
	httpMetrics, err := middleware.HTTPMetrics(middleware.MetricsConfig{
		Registerer: registry,
		Namespace:  metricsNamespace,
		Skip: func(r *http.Request) bool {
			return r.URL.Path == "/metrics"
		},
	})
	if err != nil {
		logger.Error("failed to register HTTP metrics", "error", err)
		os.Exit(1)
	}

	// Initialize media storage
	mediaStore, err := media.NewLocalStore(repo, media.LocalStoreConfig{
		Root:    cfg.MediaRoot,
		BaseURL: cfg.MediaBaseURL(),
		MaxSize: cfg.MediaMaxUploadSize,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialize media storage", "error", err, "media_root", cfg.MediaRoot)
		os.Exit(1)
	}

	// Initialize services
	provider := auth.NewProvider(repo, cacheClient, auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL), logger)
	authService := service.NewAuthService(provider, metricsRecorder)
	productService := service.NewProductService(
		repo,
		mediaStore,
		cacheClient,
		service.ProductPolicy{OwnerOnly: cfg.ProductOwnerOnly},
		metricsRecorder,
		logger,
	)
	userProductService := service.NewUserProductService(repo, mediaStore, metricsRecorder)
	tokenPruner := service.NewTokenPruner(repo, cfg.TokenPruneInterval, logger, metricsRecorder)

	// Initialize handlers
	validator := handler.NewValidator()
	healthHandler := handler.NewHealthHandler(map[string]handler.HealthChecker{
		"postgres": repo,
		"redis":    cacheClient,
		"media":    mediaStore,
	})

	// Setup router
	r := handler.NewRouter(handler.RouterConfig{
		APIPrefix:    cfg.APIPrefix,
		MediaRoot:    mediaStore.Root(),
		Handler:      handler.New(),
		Health:       healthHandler,
		Metrics:      handler.NewMetricsHandler(registry),
		Auth:         handler.NewAuthHandler(authService, validator, logger),
		Products:     handler.NewProductHandler(productService, cfg.BaseURL, logger),
		Images:       handler.NewProductImageHandler(productService, cfg.MediaMaxUploadSize, logger),
		UserProducts: handler.NewUserProductHandler(userProductService, validator, cfg.BaseURL, logger),
		Global:       globalMiddleware(cfg, logger, httpMetrics),
		Authenticate: middleware.Auth(middleware.AuthConfig{
			Logger:   logger,
			Verifier: provider,
		}),
		RateLimitToken: middleware.RateLimitIP(rateLimitConfig(cfg, logger, cacheClient)),
		RateLimitAPI:   middleware.RateLimitAPI(rateLimitConfig(cfg, logger, cacheClient)),
	})

	// Create and run server
	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	srv.Go("token_pruner", tokenPruner.Run)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"api_prefix", cfg.APIPrefix,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// globalMiddleware returns the middleware applied to every request, outermost first.
func globalMiddleware(cfg *config.Config, logger *slog.Logger, httpMetrics handler.Middleware) []handler.Middleware {
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	return []handler.Middleware{
		chimiddleware.RealIP,
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recoverer(logger),
		middleware.Security(middleware.SecurityConfig{
			IsDevelopment:  cfg.IsDevelopment(),
			PublicPrefixes: []string{"/media/"},
		}),
		middleware.CORS(corsCfg),
		httpMetrics,
		middleware.MaxBodySize(cfg.MaxRequestBodySize),
	}
}

func rateLimitConfig(cfg *config.Config, logger *slog.Logger, limiter middleware.RateLimiter) middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Logger:      logger,
		Limiter:     limiter,
		APIEnabled:  cfg.RateLimitAPIEnabled,
		APIRPM:      cfg.RateLimitAPIRPM,
		APIBurst:    cfg.RateLimitAPIBurst,
		AuthEnabled: cfg.RateLimitAuthEnabled,
		AuthRPS:     cfg.RateLimitAuthRPS,
		AuthBurst:   cfg.RateLimitAuthBurst,
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
