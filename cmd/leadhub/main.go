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

	"leadhub/internal/adapter/gateway"
	adapterhandler "leadhub/internal/adapter/handler"
	"leadhub/internal/driver/postgres"
	infracache "leadhub/internal/infrastructure/cache"
	"leadhub/internal/infrastructure/colorcache"
	"leadhub/internal/infrastructure/colorpool"
	"leadhub/internal/infrastructure/ratelimit"
	"leadhub/internal/infrastructure/security"
	infratoken "leadhub/internal/infrastructure/token"
	"leadhub/internal/usecase"

	"leadhub/config"
	appmiddleware "leadhub/middleware"
	"leadhub/utils/logger"
	"leadhub/utils/otel"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Handle healthcheck subcommand (for Docker healthcheck in distroless image)
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := runHealthcheck(); err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Initialize OpenTelemetry
	otelCfg := otel.ConfigFromEnv()
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		slog.Warn("failed to initialize OpenTelemetry, continuing without tracing", "error", err)
		otelCfg.Enabled = false
	}

	// Initialize structured logger
	logger.Init(otelCfg.Enabled)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.InfoContext(ctx, "configuration loaded",
		"kratos_url", cfg.KratosURL,
		"port", cfg.Port,
		"auth_cache_fresh_ttl", cfg.AuthCacheFreshTTL,
		"auth_cache_stale_ttl", cfg.AuthCacheStaleTTL)

	// Postgres
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	repo := postgres.NewRepository(pool, slog.Default())

	// Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Infrastructure
	authCache := infracache.NewAuthCache(cfg.AuthCacheFreshTTL, cfg.AuthCacheStaleTTL, 5*time.Minute, slog.Default())
	defer authCache.Close()
	backoff := ratelimit.NewBackoff(slog.Default())
	monitor := security.NewMonitor(slog.Default())

	kratosGateway := gateway.NewKratosGateway(cfg.KratosURL, cfg.KratosAdminURL, 5*time.Second)
	webhookGateway := gateway.NewWebhookGateway(gateway.WebhookConfig{
		VerifyAddressURL: cfg.WebhookVerifyAddressURL,
		CreateBookingURL: cfg.WebhookCreateBookingURL,
		RescheduleURL:    cfg.WebhookRescheduleURL,
		CancelURL:        cfg.WebhookCancelURL,
		FreeSlotsURL:     cfg.WebhookFreeSlotsURL,
		Timeout:          10 * time.Second,
	}, slog.Default())

	jwtIssuer, err := infratoken.NewJWTIssuer(infratoken.JWTConfig{
		Secret:   cfg.BackendTokenSecret,
		Issuer:   cfg.BackendTokenIssuer,
		Audience: cfg.BackendTokenAudience,
		TTL:      cfg.BackendTokenTTL,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create token issuer", "error", err)
		os.Exit(1)
	}

	// Color pipeline
	workerPool := colorpool.NewPool(slog.Default())
	defer workerPool.Close()
	extractor := colorpool.NewExtractor(workerPool, slog.Default())
	memoryTier := colorcache.NewMemoryTier(cfg.ColorMemoryCapacity, 5*time.Minute)
	redisTier := colorcache.NewRedisTier(redisClient, 24*time.Hour, cfg.ColorRedisCapacity, "leadhub:colors", slog.Default())

	// Usecases
	accessUC := usecase.NewResolveAccess(repo, authCache, backoff, slog.Default())
	userUC := usecase.NewResolveUser(kratosGateway, repo, accessUC, authCache, backoff, slog.Default())
	colorUC := usecase.NewColorPipeline(memoryTier, redisTier, repo, extractor, slog.Default())
	bookingUC := usecase.NewBookings(webhookGateway, repo, repo, slog.Default())
	dashboardUC := usecase.NewDashboard(repo, repo, slog.Default())
	adminUC := usecase.NewAdmin(repo, repo, authCache, slog.Default())

	// Handlers
	sessionHandler := adapterhandler.NewSessionHandler()
	dashboardHandler := adapterhandler.NewDashboardHandler(dashboardUC, slog.Default())
	bookingHandler := adapterhandler.NewBookingHandler(bookingUC, slog.Default())
	colorHandler := adapterhandler.NewColorHandler(colorUC)
	adminHandler := adapterhandler.NewAdminHandler(adminUC)
	internalHandler := adapterhandler.NewInternalHandler(userUC, authCache, slog.Default())
	healthHandler := adapterhandler.NewHealthHandler()

	// Setup Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Security middleware
	e.Use(appmiddleware.SecurityHeaders())

	// OpenTelemetry tracing
	if otelCfg.Enabled {
		e.Use(otelecho.Middleware(otelCfg.ServiceName))
		e.Use(appmiddleware.OTelStatusMiddleware())
	}

	// Request logging
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			if v.Error == nil {
				slog.InfoContext(rctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				slog.ErrorContext(rctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())

	// Rate limiters per endpoint group
	apiRL := appmiddleware.NewRateLimiter(300.0/60.0, 30)    // 300 req/min
	bookingRL := appmiddleware.NewRateLimiter(60.0/60.0, 10) // 60 req/min
	adminRL := appmiddleware.NewRateLimiter(30.0/60.0, 5)    // 30 req/min
	internalRL := appmiddleware.NewRateLimiter(60.0/60.0, 10)

	e.GET("/health", healthHandler.Handle)

	// Authenticated API
	authMW := appmiddleware.Auth(appmiddleware.AuthConfig{
		Resolver: userUC,
		Monitor:  monitor,
		Identity: kratosGateway,
		Tokens:   jwtIssuer,
		Logger:   slog.Default(),
	})

	api := e.Group("/api", apiRL.Middleware(), authMW)
	api.GET("/auth/me", sessionHandler.Me)
	api.GET("/metrics", dashboardHandler.Metrics)
	api.GET("/businesses/:businessID/leads", dashboardHandler.Leads)
	api.GET("/leads/:leadID", dashboardHandler.Lead)
	api.GET("/businesses/:businessID/bookings", bookingHandler.List)
	api.GET("/businesses/:businessID/slots", bookingHandler.FreeSlots)
	api.POST("/colors", colorHandler.Get)
	api.POST("/colors/invalidate", colorHandler.Invalidate)

	bookings := api.Group("/bookings", bookingRL.Middleware())
	bookings.POST("/verify-address", bookingHandler.VerifyAddress)
	bookings.POST("", bookingHandler.Create)
	bookings.POST("/:bookingID/reschedule", bookingHandler.Reschedule)
	bookings.POST("/:bookingID/cancel", bookingHandler.Cancel)

	admin := api.Group("/admin", adminRL.Middleware())
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/businesses", adminHandler.ListBusinesses)
	admin.POST("/assignments", adminHandler.Assign)
	admin.DELETE("/assignments", adminHandler.Unassign)

	// Internal routes (protected by shared secret)
	internalGroup := e.Group("/internal", internalRL.Middleware())
	if cfg.InternalSharedSecret != "" {
		internalGroup.Use(appmiddleware.InternalAuth(cfg.InternalSharedSecret))
	}
	internalGroup.GET("/validate", internalHandler.Validate)
	internalGroup.POST("/cache/invalidate", internalHandler.InvalidateCache)

	// Start server with errgroup for graceful shutdown
	address := fmt.Sprintf(":%s", cfg.Port)
	slog.InfoContext(ctx, "starting leadhub server", "address", address)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		colorUC.PurgeLoop(gCtx)
		return nil
	})

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return otelShutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited properly")
}

// runHealthcheck performs a health check against the local server.
func runHealthcheck() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8888"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%s/health", port))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
	}
	return nil
}
