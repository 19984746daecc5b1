package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/yussieik/pazpaz-sub002/internal/common/pagination"
	pgRepo "github.com/yussieik/pazpaz-sub002/internal/infra/adapter/persistence/postgres"
	infraAI "github.com/yussieik/pazpaz-sub002/internal/infra/ai"
	"github.com/yussieik/pazpaz-sub002/internal/infra/db"
	"github.com/yussieik/pazpaz-sub002/internal/observability/slo"
	"github.com/yussieik/pazpaz-sub002/internal/observability/tracing"
	"github.com/yussieik/pazpaz-sub002/internal/resilience/circuitbreaker"
	"github.com/yussieik/pazpaz-sub002/internal/resilience/retry"
	"github.com/yussieik/pazpaz-sub002/pkg/config"
	"github.com/yussieik/pazpaz-sub002/pkg/ratelimit"
	"github.com/yussieik/pazpaz-sub002/pkg/security/csp"

	aiUC "github.com/yussieik/pazpaz-sub002/internal/usecase/ai"
	apptUC "github.com/yussieik/pazpaz-sub002/internal/usecase/appointment"
	clientUC "github.com/yussieik/pazpaz-sub002/internal/usecase/client"
	sessionUC "github.com/yussieik/pazpaz-sub002/internal/usecase/session"

	hhttp "github.com/yussieik/pazpaz-sub002/internal/handler/http"
	hai "github.com/yussieik/pazpaz-sub002/internal/handler/http/ai"
	happt "github.com/yussieik/pazpaz-sub002/internal/handler/http/appointment"
	hauth "github.com/yussieik/pazpaz-sub002/internal/handler/http/auth"
	hclient "github.com/yussieik/pazpaz-sub002/internal/handler/http/client"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/middleware"
	"github.com/yussieik/pazpaz-sub002/internal/handler/http/requestid"
	hsession "github.com/yussieik/pazpaz-sub002/internal/handler/http/session"
	authservice "github.com/yussieik/pazpaz-sub002/internal/service/auth"
)

func main() {
	logger := initLogger()
	validateAdminCredentials(logger)
	validateAssistantCredentials(logger)
	validateJWTSecret(logger)
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	version := getVersion()
	serverComponents := setupServer(logger, database, version)

	runServer(logger, serverComponents, version)
}

// initLogger initializes and returns a structured logger based on environment configuration.
func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// validateAdminCredentials validates the admin credentials at startup.
// This prevents the server from starting with empty or weak admin credentials.
func validateAdminCredentials(logger *slog.Logger) {
	if err := hauth.ValidateAdminCredentials(); err != nil {
		logger.Error("admin credentials validation failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// validateAssistantCredentials validates the assistant credentials at startup.
// Unlike admin validation, this implements graceful degradation:
// if assistant credentials are misconfigured, the assistant role is disabled
// but the application continues to run in admin-only mode.
func validateAssistantCredentials(logger *slog.Logger) {
	_ = hauth.ValidateAssistantCredentials(logger)
}

// validateJWTSecret validates the JWT_SECRET environment variable for security requirements.
func validateJWTSecret(logger *slog.Logger) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Error("JWT_SECRET must be set")
		os.Exit(1)
	}
	// Security: enforce a minimum of 32 characters (256 bits)
	if len(secret) < 32 {
		logger.Error("JWT_SECRET must be at least 32 characters (256 bits)")
		os.Exit(1)
	}
	// Security: reject well-known weak secrets
	weakSecrets := []string{"secret", "password", "test", "admin", "default"}
	for _, weak := range weakSecrets {
		if secret == weak || secret == weak+"123" {
			logger.Error("JWT_SECRET must not be a common weak value", slog.String("weak_value", weak))
			os.Exit(1)
		}
	}
}

// initDatabase opens the database connection and runs migrations.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// apiServices bundles the use case services wired into the HTTP routes.
type apiServices struct {
	Client      *clientUC.Service
	Appointment *apptUC.Service
	Session     *sessionUC.Service
	AI          *aiUC.Service
}

// ServerComponents holds components needed for server operation and cleanup.
type ServerComponents struct {
	Handler     http.Handler
	IPStore     *ratelimit.InMemoryRateLimitStore
	UserStore   *ratelimit.InMemoryRateLimitStore
	IPWindow    time.Duration
	UserWindow  time.Duration
	AuthLimiter *middleware.RateLimiter // Legacy rate limiter for cleanup
	AILimiter   *middleware.RateLimiter // Legacy rate limiter for cleanup
	AIProvider  aiUC.Provider           // Closed on shutdown
}

// setupServer configures and returns the HTTP handler with all routes and middleware.
func setupServer(logger *slog.Logger, database *sql.DB, version string) *ServerComponents {
	// Repositories run through the database circuit breaker so a down
	// database fails fast instead of piling up connections
	dbGuard := circuitbreaker.NewDBGuard(database, circuitbreaker.DefaultDBConfig())

	clientSvc := clientUC.Service{Repo: pgRepo.NewClientRepo(dbGuard)}
	apptSvc := apptUC.Service{Repo: pgRepo.NewAppointmentRepo(dbGuard)}
	sessionRepo := pgRepo.NewSessionRepo(dbGuard)
	embeddingRepo := pgRepo.NewSessionEmbeddingRepo(dbGuard)

	// AI provider configuration. A disabled config still yields a provider
	// (the noop one), so the session and AI services are always wired.
	aiCfg, err := infraAI.LoadConfig()
	if err != nil {
		logger.Error("failed to load AI configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// One breaker registry and executor for the whole process; all AI
	// backend calls share the per-backend breakers it manages.
	registry := circuitbreaker.NewRegistry()
	executor := retry.NewExecutor(registry, retry.NewPrometheusMetrics())
	provider := infraAI.NewProvider(aiCfg, executor)

	hook := aiUC.NewEmbeddingHook(provider, embeddingRepo, aiCfg.Enabled)
	sessionSvc := sessionUC.NewService(sessionRepo, embeddingRepo, hook)
	aiSvc := aiUC.NewService(provider, sessionRepo, embeddingRepo, aiCfg.Enabled)

	logger.Info("AI features configured",
		slog.Bool("enabled", aiCfg.Enabled),
		slog.String("insight_provider", aiCfg.InsightProvider))

	services := apiServices{
		Client:      &clientSvc,
		Appointment: &apptSvc,
		Session:     sessionSvc,
		AI:          aiSvc,
	}

	// Load rate limiting configuration
	rateLimitConfig, err := config.LoadRateLimitConfig()
	if err != nil {
		logger.Error("failed to load rate limit configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Load trusted proxy configuration for IP extraction
	proxyConfig, err := middleware.LoadTrustedProxyConfig()
	if err != nil {
		logger.Error("failed to load trusted proxy configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Create appropriate IPExtractor based on configuration
	var ipExtractor middleware.IPExtractor
	if proxyConfig.Enabled {
		ipExtractor = middleware.NewTrustedProxyExtractor(*proxyConfig)
		logger.Info("rate limiting: trusted proxy mode enabled",
			slog.Int("trusted_proxies_count", len(proxyConfig.AllowedCIDRs)))
	} else {
		ipExtractor = &middleware.RemoteAddrExtractor{}
		logger.Info("rate limiting: using RemoteAddr (secure mode, proxy headers ignored)")
	}

	// IP and user limiters get separate stores so their cleanup and
	// memory pressure stay independent
	var ipRateLimiter *middleware.IPRateLimiter
	var userRateLimiter *middleware.UserRateLimiter
	var ipStore *ratelimit.InMemoryRateLimitStore
	var userStore *ratelimit.InMemoryRateLimitStore

	if rateLimitConfig.Enabled {
		ipStore = ratelimit.NewInMemoryRateLimitStore(ratelimit.InMemoryStoreConfig{
			MaxKeys: rateLimitConfig.MaxActiveKeys,
		})
		userStore = ratelimit.NewInMemoryRateLimitStore(ratelimit.InMemoryStoreConfig{
			MaxKeys: rateLimitConfig.MaxActiveKeys,
		})

		algorithm := ratelimit.NewSlidingWindowAlgorithm(&ratelimit.SystemClock{})
		metrics := ratelimit.NewPrometheusMetrics()

		ipRateLimiter = middleware.NewIPRateLimiter(
			middleware.IPRateLimiterConfig{
				Limit:   rateLimitConfig.DefaultIPLimit,
				Window:  rateLimitConfig.DefaultIPWindow,
				Enabled: true,
			},
			ipExtractor,
			ipStore,
			algorithm,
			metrics,
			newLimiterBreaker(rateLimitConfig),
		)
		ipRateLimiter.SetDegradationManager(newDegradationManager("ip", metrics))

		tierLimits := make(map[ratelimit.UserTier]middleware.TierLimit)
		for _, tierCfg := range rateLimitConfig.TierLimits {
			tierLimits[tierCfg.Tier] = middleware.TierLimit{
				Limit:  tierCfg.Limit,
				Window: tierCfg.Window,
			}
		}

		userRateLimiter = middleware.NewUserRateLimiter(middleware.UserRateLimiterConfig{
			Store:               userStore,
			Algorithm:           algorithm,
			Metrics:             metrics,
			CircuitBreaker:      newLimiterBreaker(rateLimitConfig),
			UserExtractor:       middleware.NewJWTUserExtractor("user", nil),
			TierLimits:          tierLimits,
			DefaultLimit:        rateLimitConfig.DefaultUserLimit,
			DefaultWindow:       rateLimitConfig.DefaultUserWindow,
			SkipUnauthenticated: true,
			Clock:               &ratelimit.SystemClock{},
		})
		userRateLimiter.SetDegradationManager(newDegradationManager("user", metrics))

		logger.Info("rate limiting initialized",
			slog.Bool("enabled", true),
			slog.Int("ip_limit", rateLimitConfig.DefaultIPLimit),
			slog.Duration("ip_window", rateLimitConfig.DefaultIPWindow),
			slog.Int("user_limit", rateLimitConfig.DefaultUserLimit),
			slog.Duration("user_window", rateLimitConfig.DefaultUserWindow),
			slog.Int("max_keys", rateLimitConfig.MaxActiveKeys),
		)
	} else {
		logger.Warn("rate limiting is DISABLED - not recommended for production")
	}

	// Setup routes with rate limiting middleware
	rootMux, authLimiter, aiLimiter := setupRoutes(database, version, services, ipExtractor, ipRateLimiter, userRateLimiter, logger)
	handler := applyMiddleware(logger, rootMux, ipRateLimiter)

	// Return server components including stores for cleanup
	return &ServerComponents{
		Handler:     handler,
		IPStore:     ipStore,
		UserStore:   userStore,
		IPWindow:    rateLimitConfig.DefaultIPWindow,
		UserWindow:  rateLimitConfig.DefaultUserWindow,
		AuthLimiter: authLimiter,
		AILimiter:   aiLimiter,
		AIProvider:  provider,
	}
}

// newLimiterBreaker builds a circuit breaker from the rate limit config.
// Each limiter gets its own so one failing store cannot open the other's.
func newLimiterBreaker(cfg *ratelimit.RateLimitConfig) *ratelimit.CircuitBreaker {
	return ratelimit.NewCircuitBreaker(ratelimit.CircuitBreakerConfig{
		FailureThreshold: cfg.CircuitBreakerFailureThreshold,
		RecoveryTimeout:  cfg.CircuitBreakerResetTimeout,
	})
}

// newDegradationManager builds the auto-adjusting degradation manager that
// widens limits when the limiter's breaker opens or memory pressure rises.
func newDegradationManager(limiterType string, metrics ratelimit.RateLimitMetrics) *middleware.DegradationManager {
	return middleware.NewDegradationManager(middleware.DegradationConfig{
		AutoAdjust:        true,
		CooldownPeriod:    1 * time.Minute,
		RelaxedMultiplier: 2,
		MinimalMultiplier: 10,
		Clock:             &ratelimit.SystemClock{},
		Metrics:           metrics,
		LimiterType:       limiterType,
	})
}

// setupRoutes registers all HTTP routes (public and protected).
func setupRoutes(
	database *sql.DB,
	version string,
	services apiServices,
	ipExtractor middleware.IPExtractor,
	ipRateLimiter *middleware.IPRateLimiter,
	userRateLimiter *middleware.UserRateLimiter,
	logger *slog.Logger,
) (*http.ServeMux, *middleware.RateLimiter, *middleware.RateLimiter) {
	// Rate limit: the auth endpoint takes at most 5 requests per minute per IP
	authRateLimiter := middleware.NewRateLimiter(5, 1*time.Minute, ipExtractor)

	// Rate limit: AI endpoints fan out to external model backends, so they
	// get a tighter per-IP budget than regular CRUD routes
	aiRateLimiter := middleware.NewRateLimiter(30, 1*time.Minute, ipExtractor)

	// Initialize AuthService with MultiUserAuthProvider
	weakPasswords := []string{"password", "123456", "admin", "test", "secret"}
	authProvider := hauth.NewMultiUserAuthProvider(12, weakPasswords)
	authService := authservice.NewAuthService(authProvider, hauth.PublicEndpoints)

	publicMux := http.NewServeMux()
	publicMux.Handle("/auth/token", authRateLimiter.Middleware(hauth.TokenHandler(authService)))

	// Health check endpoints (no authentication required)
	publicMux.Handle("/health", &hhttp.HealthHandler{DB: database, Version: version})
	publicMux.Handle("/ready", &hhttp.ReadyHandler{DB: database})
	publicMux.Handle("/live", &hhttp.LiveHandler{})
	publicMux.Handle("/metrics", hhttp.MetricsHandler())

	// AI health endpoints report provider reachability and breaker state
	aiHealth := hhttp.NewAIHealthHandler(services.AI)
	publicMux.HandleFunc("/health/ai", aiHealth.Health)
	publicMux.HandleFunc("/ready/ai", aiHealth.Ready)

	// Load pagination configuration
	paginationCfg := pagination.LoadFromEnv()

	privateMux := http.NewServeMux()
	hclient.Register(privateMux, services.Client, paginationCfg, logger)
	happt.Register(privateMux, services.Appointment)
	hsession.Register(privateMux, services.Session)

	// AI routes live on their own mux so the AI rate limiter wraps only them
	aiMux := http.NewServeMux()
	hai.Register(aiMux, services.AI)
	privateMux.Handle("/ai/", aiRateLimiter.Middleware(aiMux))

	// Apply authentication middleware
	protected := hauth.Authz(privateMux)

	// Apply user rate limiter AFTER authentication (so we have user context)
	if userRateLimiter != nil {
		protected = userRateLimiter.Middleware()(protected)
	}

	rootMux := http.NewServeMux()
	for _, endpoint := range hauth.PublicEndpoints {
		rootMux.Handle(endpoint, publicMux)
	}
	rootMux.Handle("/", protected)

	// Return the legacy rate limiters for cleanup management
	return rootMux, authRateLimiter, aiRateLimiter
}

// applyMiddleware wraps the handler with the outer middleware chain;
// see the ordering comment where the chain is assembled below.
func applyMiddleware(logger *slog.Logger, handler http.Handler, ipRateLimiter *middleware.IPRateLimiter) http.Handler {
	// Load CORS configuration from environment variables
	corsConfig, err := middleware.LoadCORSConfig()
	if err != nil {
		logger.Error("failed to load CORS configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Inject SlogAdapter for logging
	corsConfig.Logger = &middleware.SlogAdapter{Logger: logger}

	// Log CORS startup configuration
	logger.Info("CORS enabled",
		slog.Int("allowed_origins_count", len(corsConfig.Validator.GetAllowedOrigins())),
		slog.Any("allowed_origins", corsConfig.Validator.GetAllowedOrigins()),
		slog.Any("allowed_methods", corsConfig.AllowedMethods),
		slog.Any("allowed_headers", corsConfig.AllowedHeaders),
		slog.Int("max_age", corsConfig.MaxAge))

	// Load CSP configuration
	cspConfig, err := config.LoadCSPConfig()
	if err != nil {
		logger.Error("failed to load CSP configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Create CSP middleware
	var cspMiddleware func(http.Handler) http.Handler
	if cspConfig.Enabled {
		cspMW := middleware.NewCSPMiddleware(middleware.CSPMiddlewareConfig{
			Enabled:       true,
			DefaultPolicy: csp.StrictPolicy(),
			ReportOnly:    cspConfig.ReportOnly,
		})
		cspMiddleware = cspMW.Middleware()
		logger.Info("CSP enabled",
			slog.Bool("report_only", cspConfig.ReportOnly))
	} else {
		// No-op middleware if CSP is disabled
		cspMiddleware = func(next http.Handler) http.Handler {
			return next
		}
		logger.Warn("CSP is disabled")
	}

	// Built innermost-out; requests traverse CORS first, then request ID,
	// tracing, IP rate limit, input limits, timeout, recovery, logging,
	// body limit, CSP, metrics. Recovery sits inside the timeout so a
	// panic in the handler goroutine is caught there. Auth and the user
	// rate limiter sit in the routes layer so the user limiter sees
	// authenticated context.
	middlewareChain := handler
	middlewareChain = hhttp.MetricsMiddleware(middlewareChain)
	middlewareChain = cspMiddleware(middlewareChain)
	middlewareChain = hhttp.LimitRequestBody(1 << 20)(middlewareChain) // 1MB limit
	middlewareChain = hhttp.Logging(logger)(middlewareChain)
	middlewareChain = hhttp.Recover(logger)(middlewareChain)
	middlewareChain = hhttp.Timeout(30 * time.Second)(middlewareChain)
	middlewareChain = hhttp.InputValidation()(middlewareChain)

	// Apply IP rate limiting if enabled
	if ipRateLimiter != nil {
		middlewareChain = ipRateLimiter.Middleware()(middlewareChain)
	}

	middlewareChain = tracing.Middleware(middlewareChain)
	middlewareChain = requestid.Middleware(middlewareChain)
	middlewareChain = middleware.CORS(*corsConfig)(middlewareChain)

	return middlewareChain
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(logger *slog.Logger, components *ServerComponents, version string) {
	// Create a context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load cleanup configuration
	cleanupCfg := hhttp.LoadCleanupConfigFromEnv()

	// Start background cleanup goroutines for rate limit stores
	if components.IPStore != nil {
		go hhttp.StartRateLimitCleanup(ctx, components.IPStore, cleanupCfg.Interval, components.IPWindow, "ip")
		logger.Info("IP rate limit cleanup started",
			slog.Duration("interval", cleanupCfg.Interval),
			slog.Duration("window", components.IPWindow))
	}

	if components.UserStore != nil {
		go hhttp.StartRateLimitCleanup(ctx, components.UserStore, cleanupCfg.Interval, components.UserWindow, "user")
		logger.Info("user rate limit cleanup started",
			slog.Duration("interval", cleanupCfg.Interval),
			slog.Duration("window", components.UserWindow))
	}

	// Start cleanup for legacy endpoint rate limiters
	if components.AuthLimiter != nil {
		go hhttp.StartRateLimitCleanupLegacy(ctx, components.AuthLimiter, cleanupCfg.Interval, "auth")
		logger.Info("auth rate limit cleanup started (legacy)",
			slog.Duration("interval", cleanupCfg.Interval))
	}

	if components.AILimiter != nil {
		go hhttp.StartRateLimitCleanupLegacy(ctx, components.AILimiter, cleanupCfg.Interval, "ai")
		logger.Info("ai rate limit cleanup started (legacy)",
			slog.Duration("interval", cleanupCfg.Interval))
	}

	// Publish SLO gauges from the live request window every 30s
	go slo.Run(ctx, 30*time.Second)

	srv := &http.Server{
		Addr:              ":8080",
		Handler:           components.Handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", ":8080"),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	// Cancel background goroutines (rate limit cleanup)
	cancel()
	logger.Debug("background cleanup goroutines cancelled")

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}

	// Release AI provider resources after in-flight requests drain
	if components.AIProvider != nil {
		if err := components.AIProvider.Close(); err != nil {
			logger.Error("failed to close AI provider", slog.Any("error", err))
		}
	}

	logger.Info("server stopped")
}
