package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/geecurly-receptionist/cmd/mainconfig"
	"github.com/wolfman30/geecurly-receptionist/internal/api/router"
	"github.com/wolfman30/geecurly-receptionist/internal/bookings"
	"github.com/wolfman30/geecurly-receptionist/internal/catalog"
	appconfig "github.com/wolfman30/geecurly-receptionist/internal/config"
	"github.com/wolfman30/geecurly-receptionist/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/geecurly-receptionist/internal/http/middleware"
	"github.com/wolfman30/geecurly-receptionist/internal/kvstore"
	"github.com/wolfman30/geecurly-receptionist/internal/notify"
	"github.com/wolfman30/geecurly-receptionist/internal/observability/metrics"
	"github.com/wolfman30/geecurly-receptionist/internal/receptionist"
	"github.com/wolfman30/geecurly-receptionist/internal/transcript"
	"github.com/wolfman30/geecurly-receptionist/internal/webchat"
	"github.com/wolfman30/geecurly-receptionist/pkg/logging"
)

const janitorInterval = 5 * time.Minute

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting geecurly receptionist",
		"env", cfg.Env,
		"port", cfg.Port,
		"default_location", cfg.DefaultLocation,
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	metricsHandler, chatMetrics := setupMetrics()
	checks := map[string]router.HealthCheck{}

	// Session memory and transcripts.
	var kv kvstore.Store = kvstore.NewMemory()
	var transcripts transcript.Store = transcript.NewMemoryStore()
	if redisClient := connectRedis(ctx, cfg, logger); redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		kv = kvstore.NewRedis(redisClient, cfg.SessionTTL)
		transcripts = transcript.NewRedisStore(redisClient, cfg.SessionTTL)
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	// Booking ledger.
	var repo bookings.Repository = bookings.NewMemoryRepository()
	if pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger); pool != nil {
		defer pool.Close()
		repo = bookings.NewPostgresRepository(pool)
		checks["postgres"] = pool.Ping
	}

	salon := receptionist.DefaultSalonInfo()
	emailSender := setupEmailSender(ctx, cfg, logger)
	notifier := notify.NewService(emailSender, notify.BookingConfig{
		SalonName:  salon.Name,
		Branches:   branchesFrom(salon),
		Recipients: cfg.BookingNotifyEmails,
	}, logger)
	bookingSvc := bookings.NewService(repo, notifier, logger)

	// Catalog: Postgres when available, otherwise the built-in menu.
	var cat catalog.Catalog = catalog.NewInMemory(nil, nil, logger, catalog.WithBooked(bookingSvc))
	if db := openCatalogDB(ctx, cfg.DatabaseURL, logger); db != nil {
		defer func() { _ = db.Close() }()
		cat = catalog.NewPostgres(db, bookingSvc, logger)
	}

	flow := receptionist.NewFlow(cat, bookingSvc, logger,
		receptionist.WithSalonInfo(salon),
		receptionist.WithTimezone(cfg.Location()),
		receptionist.WithSlotSearch(cfg.SlotSearchDays, cfg.SlotSearchMaxDaysWithSlot),
		receptionist.WithMetrics(chatMetrics),
	)
	manager := receptionist.NewManager(flow, kv, transcripts, receptionist.ManagerConfig{
		DefaultLocation: cfg.DefaultLocation,
		TypingDelay:     cfg.TypingDelay,
		WelcomeDelay:    cfg.WelcomeDelay,
		IdleTTL:         cfg.SessionTTL,
	}, logger, chatMetrics)
	go manager.StartJanitor(ctx, janitorInterval)

	r := router.New(&router.Config{
		Logger:             logger,
		WebChat:            webchat.NewHandler(manager, transcripts, nil, logger),
		AdminBookings:      handlers.NewAdminBookingsHandler(bookingSvc, cfg.Location(), logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        httpmiddleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst),
		HealthChecks:       checks,
	})
	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET not set; admin routes disabled")
	}

	// WriteTimeout stays zero: hijacked WebSocket connections manage their own deadlines.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics registers the chat metrics and the Go runtime collectors on a fresh registry.
func setupMetrics() (http.Handler, *metrics.ChatMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewChatMetrics(reg)
}

// connectRedis returns nil when Redis is not configured or unreachable; callers fall back to memory.
func connectRedis(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set; using in-memory session storage")
		return nil
	}
	opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable; using in-memory session storage", "error", err, "addr", cfg.RedisAddr)
		_ = client.Close()
		return nil
	}
	logger.Info("connected to redis", "addr", cfg.RedisAddr)
	return client
}

// connectPostgresPool returns nil for an empty URL or a failed connection.
func connectPostgresPool(ctx context.Context, url string, logger *logging.Logger) *pgxpool.Pool {
	if url == "" {
		logger.Info("DATABASE_URL not set; bookings kept in memory")
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("postgres unreachable; bookings kept in memory", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// openCatalogDB opens the catalog tables through database/sql.
func openCatalogDB(ctx context.Context, url string, logger *logging.Logger) *sql.DB {
	if url == "" {
		return nil
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		logger.Error("failed to open catalog db", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Error("catalog db unreachable; using built-in catalog", "error", err)
		_ = db.Close()
		return nil
	}
	db.SetMaxOpenConns(5)
	return db
}

// setupEmailSender picks the confirmation e-mail provider. Misconfiguration falls back to the log-only stub.
func setupEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); s != nil {
			return s
		}
		logger.Warn("SENDGRID_API_KEY not set; booking e-mails will only be logged")
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Warn("failed to load AWS config; booking e-mails will only be logged", "error", err)
			break
		}
		return notify.NewSESSender(mainconfig.NewSESClient(awsCfg, cfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	}
	return notify.NewStubEmailSender(logger)
}

func branchesFrom(salon receptionist.SalonInfo) map[string]notify.Branch {
	out := make(map[string]notify.Branch, len(salon.Locations))
	for key, loc := range salon.Locations {
		out[key] = notify.Branch{
			Name:    loc.Name,
			Address: loc.Address,
			Phone:   loc.Phone,
		}
	}
	return out
}
