package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/SscSPs/ledger_sync/internal/adapters/lock"
	"github.com/SscSPs/ledger_sync/internal/adapters/quickbooks"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"github.com/SscSPs/ledger_sync/internal/core/services"
	"github.com/SscSPs/ledger_sync/internal/handlers"
	"github.com/SscSPs/ledger_sync/internal/middleware"
	"github.com/SscSPs/ledger_sync/internal/platform/config"
	"github.com/SscSPs/ledger_sync/internal/platform/cron"
	"github.com/SscSPs/ledger_sync/internal/platform/crypto"
	"github.com/SscSPs/ledger_sync/internal/repositories/database/pgsql"
	"github.com/SscSPs/ledger_sync/internal/utils"
	"github.com/SscSPs/ledger_sync/pkg/database"
)

const shutdownTimeout = 15 * time.Second

// @title Ledger Sync API
// @version 1.0
// @description Bidirectional sync between the local AR/AP ledger and an external accounting system.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey SyncSecret
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the SYNC_SECRET value.
func main() {
	once := flag.Bool("once", false, "run one sync for DEFAULT_TENANT_ID and exit instead of serving")
	mode := flag.String("mode", string(domain.SyncModeFull), "sync mode for -once: full or bidirectional")
	force := flag.Bool("force", false, "with -once, bypass the token gate of a full sync")
	issueToken := flag.String("issue-token", "", "print an operator JWT for this user ID and exit")
	tokenTenant := flag.String("tenant", "", "tenant for -issue-token, defaults to DEFAULT_TENANT_ID")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the token printed by -issue-token")
	flag.Parse()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if *issueToken != "" {
		if err := printOperatorToken(*issueToken, *tokenTenant, *tokenTTL); err != nil {
			logger.Error("Failed to issue token", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	if err := run(logger, *once, domain.SyncMode(*mode), *force); err != nil {
		logger.Error("Exiting", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, once bool, mode domain.SyncMode, force bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("initialize database pool: %w", err)
	}
	defer database.ClosePgxPool(dbPool, logger)

	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		return err
	}

	sealer, err := newSealer(cfg, logger)
	if err != nil {
		return err
	}

	locker, closeLocker, err := newLocker(ctx, cfg, dbPool, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	qbClient := quickbooks.NewClient(quickbooks.Config{
		ClientID:      cfg.QuickBooks.ClientID,
		ClientSecret:  cfg.QuickBooks.ClientSecret,
		AuthURL:       cfg.QuickBooks.AuthURL,
		TokenURL:      cfg.QuickBooks.TokenURL,
		RedirectURL:   cfg.QuickBooks.RedirectURL,
		APIBaseURL:    cfg.QuickBooks.APIBaseURL,
		MinorVersion:  cfg.QuickBooks.MinorVersion,
		ServiceItemID: cfg.QuickBooks.ServiceItemID,
		MaxAttempts:   cfg.ExternalMaxAttempts,
	}, &http.Client{Timeout: cfg.ExternalCallTimeout}, logger)

	repos := pgsql.NewRepositoryProvider(dbPool, sealer)
	svc := services.NewServiceContainer(cfg, repos, qbClient, qbClient, locker)

	if once {
		return runOnce(middleware.WithLogger(ctx, logger), svc.Scheduler, cfg.DefaultTenantID, mode, force, logger)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	if err := r.SetTrustedProxies(nil); err != nil {
		return fmt.Errorf("set trusted proxies: %w", err)
	}
	r.Use(cors.New(corsConfig(cfg)))

	rate, err := limiter.NewRateFromFormatted(cfg.SyncRateLimit)
	if err != nil {
		return fmt.Errorf("invalid SYNC_RATE_LIMIT %q: %w", cfg.SyncRateLimit, err)
	}
	syncLimiter := limiter.New(memory.NewStore(), rate)

	var dbCheck func(context.Context) error
	if cfg.EnableDBCheck {
		dbCheck = dbPool.Ping
	}
	handlers.RegisterRoutes(r, cfg, svc, syncLimiter, dbCheck)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		serverErrCh <- srv.ListenAndServe()
	}()

	schedulerDone := make(chan struct{})
	if cfg.SchedulerEnabled {
		runner := cron.NewRunner(cfg.SchedulerInterval, scheduledSync(svc.Scheduler, cfg.DefaultTenantID, logger), logger)
		go func() {
			defer close(schedulerDone)
			_ = runner.Run(middleware.WithLogger(ctx, logger))
		}()
	} else {
		close(schedulerDone)
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			stop()
			<-schedulerDone
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
	// an in-flight scheduled sync finishes its current phase before the pool closes
	<-schedulerDone
	logger.Info("Server stopped")
	return nil
}

// scheduledSync is the in-process cron job: the token-gated full sync.
func scheduledSync(scheduler portssvc.SyncSchedulerSvc, tenantID string, logger *slog.Logger) cron.Job {
	return func(ctx context.Context, now time.Time) {
		result, skipped, err := scheduler.MaybeRun(ctx, tenantID, now.UTC())
		switch {
		case err != nil:
			logger.Error("Scheduled sync failed to start", slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
		case skipped != nil:
			logger.Debug("Scheduled sync skipped", slog.String("tenant_id", tenantID), slog.String("reason", skipped.Reason))
		default:
			logger.Info("Scheduled sync finished",
				slog.String("tenant_id", tenantID),
				slog.String("status", string(result.Status)),
				slog.Int("errors", len(result.Errors)))
		}
	}
}

func runOnce(ctx context.Context, scheduler portssvc.SyncSchedulerSvc, tenantID string, mode domain.SyncMode, force bool, logger *slog.Logger) error {
	if tenantID == "" {
		return errors.New("-once requires DEFAULT_TENANT_ID")
	}
	var (
		result  *domain.SyncResult
		skipped *domain.Skipped
		err     error
	)
	now := time.Now().UTC()
	switch {
	case mode == domain.SyncModeFull && !force:
		result, skipped, err = scheduler.MaybeRun(ctx, tenantID, now)
	case mode == domain.SyncModeFull, mode == domain.SyncModeBidirectional:
		result, skipped, err = scheduler.Run(ctx, tenantID, mode, now)
	default:
		return fmt.Errorf("unknown sync mode %q", mode)
	}
	if err != nil {
		return err
	}
	if skipped != nil {
		logger.Info("Sync skipped", slog.String("reason", skipped.Reason), slog.Time("next_eligible_at", skipped.NextEligibleAt))
		return nil
	}
	logger.Info("Sync finished", slog.String("status", string(result.Status)), slog.Any("errors", result.Errors))
	if result.Status == domain.SyncFailed {
		return errors.New("sync run failed")
	}
	return nil
}

func printOperatorToken(userID, tenantID string, ttl time.Duration) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if tenantID == "" {
		tenantID = cfg.DefaultTenantID
	}
	token, err := utils.GenerateOperatorJWT(userID, tenantID, cfg.JWTSecret, cfg.JWTIssuer, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func newSealer(cfg *config.Config, logger *slog.Logger) (crypto.Sealer, error) {
	if cfg.TokenEncryptionKey == "" {
		logger.Warn("TOKEN_ENCRYPTION_KEY not set; OAuth tokens are stored unencrypted")
		return crypto.Plaintext{}, nil
	}
	key, err := crypto.ParseKey(cfg.TokenEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("TOKEN_ENCRYPTION_KEY: %w", err)
	}
	return crypto.NewTokenSealer(key)
}

func newLocker(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (portssvc.TenantLocker, func(), error) {
	switch cfg.LockBackend {
	case config.LockBackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddress, err)
		}
		logger.Info("Using Redis tenant lock", slog.String("address", cfg.RedisAddress))
		return lock.NewRedisLocker(client, cfg.LockTTL), func() { _ = client.Close() }, nil
	case config.LockBackendLocal:
		logger.Warn("Using in-process tenant lock; do not run more than one replica")
		return lock.NewLocal(), func() {}, nil
	default:
		return lock.NewPostgresLocker(pool), func() {}, nil
	}
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	if len(cfg.CORSAllowedOrigins) > 0 {
		c.AllowOrigins = cfg.CORSAllowedOrigins
		c.AllowCredentials = true
	} else if cfg.IsProduction {
		// no browser origins in production unless configured
		c.AllowOriginFunc = func(string) bool { return false }
	} else {
		c.AllowAllOrigins = true
	}
	c.AddAllowHeaders("Authorization")
	return c
}
