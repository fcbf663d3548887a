package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/repair_api/internal/cache"
	"github.com/GTDGit/repair_api/internal/config"
	"github.com/GTDGit/repair_api/internal/database"
	"github.com/GTDGit/repair_api/internal/handler"
	"github.com/GTDGit/repair_api/internal/middleware"
	"github.com/GTDGit/repair_api/internal/repository"
	"github.com/GTDGit/repair_api/internal/service"
	"github.com/GTDGit/repair_api/internal/utils"
	"github.com/GTDGit/repair_api/internal/worker"
)

// main is the application entrypoint for the repair shop API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting repair api")
	utils.SetJWTSecret(cfg.JWTSecret)

	schedule, err := service.NewSchedule(cfg.Schedule)
	if err != nil {
		log.Error().Err(err).Msg("invalid operating schedule")
		fmt.Fprintf(os.Stderr, "invalid operating schedule: %v\n", err)
		os.Exit(1)
	}

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 4. Initialize repositories
	catalogRepo := repository.NewCatalogRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)

	// 5. Initialize services
	resolver := service.NewCatalogResolver(catalogRepo)
	quoteSvc := service.NewQuoteService(resolver, service.NewPricingEngine(), settingsRepo)
	settingsSvc := service.NewSettingsService(settingsRepo)
	allocator := service.NewSlotAllocator(bookingRepo, resolver, schedule, cfg.Ledger.Timeout, cache.NewReservationCache(redisClient))
	adminAuthSvc := service.NewAdminAuthService(adminRepo)

	if cfg.Admin.BootstrapEmail != "" {
		created, err := adminAuthSvc.EnsureAdmin(context.Background(), cfg.Admin.BootstrapEmail, cfg.Admin.BootstrapPassword, cfg.Admin.BootstrapName)
		if err != nil {
			log.Error().Err(err).Msg("admin bootstrap failed")
		} else if created {
			log.Info().Str("email", cfg.Admin.BootstrapEmail).Msg("bootstrap admin created")
		}
	}

	// 6. Initialize handlers
	handlers := &Handlers{
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"database": db.PingContext,
			"redis":    redisClient.Ping,
		}),
		Catalog:  handler.NewCatalogHandler(catalogRepo),
		Quote:    handler.NewQuoteHandler(quoteSvc),
		Booking:  handler.NewBookingHandler(allocator),
		Auth:     handler.NewAuthHandler(adminAuthSvc),
		Settings: handler.NewSettingsHandler(settingsSvc),
	}

	// 7. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 8. Initialize middleware
	mws := &Middlewares{
		JWT:          middleware.NewJWTMiddleware(),
		ReserveLimit: middleware.NewIPRateLimiter(cfg.RateLimit.ReservePerMinute),
		LoginLimit:   middleware.NewLoginFailureLimiter(),
	}
	go mws.ReserveLimit.Cleanup(ctx)
	go mws.LoginLimit.Cleanup(ctx)

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, mws, cfg.RequestTimeout)

	// 10. Start workers
	go worker.NewAvailabilityWorker(allocator, cfg.Worker.AvailabilityMetricsInterval, cfg.Worker.AvailabilityMetricsDays).Start(ctx)

	// 11. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 13. Cancel context to stop workers
	cancel()

	// 14. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health   *handler.HealthHandler
	Catalog  *handler.CatalogHandler
	Quote    *handler.QuoteHandler
	Booking  *handler.BookingHandler
	Auth     *handler.AuthHandler
	Settings *handler.SettingsHandler
}

// Middlewares groups the route-scoped middleware.
type Middlewares struct {
	JWT          *middleware.JWTMiddleware
	ReserveLimit *middleware.IPRateLimiter
	LoginLimit   *middleware.LoginFailureLimiter
}

func setupRoutes(r *gin.Engine, h *Handlers, m *Middlewares, requestTimeout time.Duration) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1", middleware.TimeoutMiddleware(requestTimeout))
	{
		v1.GET("/health", h.Health.GetHealth)

		catalog := v1.Group("/catalog")
		catalog.GET("/brands", h.Catalog.ListBrands)
		catalog.GET("/brands/:id/models", h.Catalog.ListModels)
		catalog.GET("/models/:id/repairs", h.Catalog.ListRepairs)

		v1.POST("/quotes", h.Quote.CreateQuote)

		v1.GET("/availability", h.Booking.GetAvailability)
		v1.POST("/bookings", m.ReserveLimit.Handle(), h.Booking.CreateBooking)
		v1.GET("/bookings/:reference", h.Booking.GetBooking)

		admin := v1.Group("/admin")
		admin.POST("/auth/login", m.LoginLimit.Handle(), h.Auth.Login)

		protected := admin.Group("")
		protected.Use(m.JWT.Handle())
		protected.GET("/settings", h.Settings.GetSettings)
		protected.PUT("/settings", h.Settings.UpdateSettings)
		protected.GET("/bookings", h.Booking.ListBookings)
	}
}

func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
