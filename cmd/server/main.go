// Package main is the entry point for the complaint management API server.
// It serves the REST API for filing, assigning, transferring and resolving
// citizen complaints across agencies.
//
// Architecture:
//   - Every complaint change is recorded in the append-only complaint_history ledger
//   - Assignment, status and transfer changes commit in one transaction with their ledger row
//   - Emails are queued after commit and delivered by a background worker
//   - A Merkle root over the ledger is rebuilt periodically for tamper detection
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/citivoice/complaint-server/internal/auth"
	"github.com/citivoice/complaint-server/internal/config"
	"github.com/citivoice/complaint-server/internal/database"
	"github.com/citivoice/complaint-server/internal/handlers"
	"github.com/citivoice/complaint-server/internal/middleware"
	"github.com/citivoice/complaint-server/internal/notify"
	"github.com/citivoice/complaint-server/internal/repository"
	"github.com/citivoice/complaint-server/internal/services"
	"github.com/citivoice/complaint-server/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		boot, _ := zap.NewProduction()
		boot.Sugar().Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logger
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Infow("Starting complaint server",
		"port", cfg.Port,
		"env", cfg.Environment,
		"password_hasher", cfg.PasswordHasher,
	)

	// Background workers stop when ctx is cancelled on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	db, err := database.NewPool(ctx, cfg.DatabaseURL, database.PoolOptions{
		MaxConns:   int32(cfg.DBMaxConns),
		MinConns:   int32(cfg.DBMinConns),
		Logger:     sugar,
		LogQueries: cfg.DBLogQueries,
	})
	if err != nil {
		sugar.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := migrateUp(cfg.DatabaseURL, sugar); err != nil {
			sugar.Fatalf("Failed to apply migrations: %v", err)
		}
	}
	store := repository.NewPgStore(db)

	// Single-use verification and reset tokens
	var tokens auth.TokenStore = auth.NewMemoryTokenStore()
	var redisPing handlers.Pinger
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			sugar.Fatalf("Invalid REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		tokens = auth.NewRedisTokenStore(rdb)
		redisPing = handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	} else {
		sugar.Warn("REDIS_URL not set, verification tokens are kept in memory")
	}

	hasher, err := auth.NewPasswordHasher(cfg.PasswordHasher)
	if err != nil {
		sugar.Fatalf("Failed to create password hasher: %v", err)
	}
	jwt := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.VerificationTokenTTL)

	// Outbound notifications
	queue, closeQueue, err := startNotifications(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalf("Failed to start notifications: %v", err)
	}
	defer closeQueue()

	var uploader storage.Uploader = storage.NoopUploader{}
	if cfg.Storage.Enabled() {
		s3u, err := storage.NewS3Uploader(ctx, cfg.Storage, storage.WithLogger(sugar))
		if err != nil {
			sugar.Fatalf("Failed to create S3 uploader: %v", err)
		}
		uploader = s3u
	}

	links := services.Links{API: cfg.PublicBaseURL, Frontend: cfg.FrontendURL}

	// Initialize services
	complaintSvc := services.NewComplaintService(store, queue, links, sugar)
	historySvc := services.NewHistoryService(store, sugar)
	agencySvc := services.NewAgencyService(store, sugar)
	categorySvc := services.NewCategoryService(store, sugar)
	userSvc := services.NewUserService(store, hasher, jwt, tokens, queue, links, sugar)
	authSvc := services.NewAuthService(store, userSvc, cfg.RegistrationSecretKey, sugar)
	analyticsSvc := services.NewAnalyticsService(store, sugar)
	fileSvc := services.NewFileService(store, uploader, sugar)
	ledgerSvc := services.NewLedgerService(sugar)
	ledgerWorker := services.NewLedgerWorker(ledgerSvc, store, sugar)

	// Start background ledger worker (rebuilds Merkle tree periodically)
	go ledgerWorker.Start(ctx, cfg.LedgerRebuildInterval)

	app := &api{
		logger:  logger,
		jwt:     jwt,
		limiter: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		origins: cfg.AllowedOrigins,

		health:     handlers.NewHealthHandler(db, redisPing, sugar),
		auth:       handlers.NewAuthHandler(authSvc, links, sugar),
		complaints: handlers.NewComplaintHandler(complaintSvc, historySvc, sugar),
		history:    handlers.NewHistoryHandler(historySvc, sugar),
		agencies:   handlers.NewAgencyHandler(agencySvc, sugar),
		categories: handlers.NewCategoryHandler(categorySvc, sugar),
		users:      handlers.NewUserHandler(userSvc, sugar),
		dashboard:  handlers.NewDashboardHandler(analyticsSvc, sugar),
		files:      handlers.NewFileHandler(fileSvc, sugar),
		integrity:  handlers.NewIntegrityHandler(ledgerSvc, sugar),
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      app.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorf("Forced shutdown: %v", err)
	}
	cancel()

	sugar.Info("Server stopped")
}

// newLogger builds the production logger, or the development one outside production
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func migrateUp(databaseURL string, logger *zap.SugaredLogger) error {
	m, err := database.NewMigrator(databaseURL, logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

// startNotifications wires the queue services publish to and the worker that
// delivers from it. With NOTIFY_AMQP_URL set messages travel through RabbitMQ,
// otherwise through an in-process channel.
func startNotifications(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (notify.Queue, func(), error) {
	renderer, err := notify.NewRenderer()
	if err != nil {
		return nil, nil, err
	}

	var mailer notify.Mailer
	if cfg.Mail.Enabled() {
		mailer = notify.NewSMTPMailer(cfg.Mail)
	} else {
		logger.Warn("SMTP not configured, emails are logged instead of sent")
		mailer = notify.NewLogMailer(logger)
	}
	worker := notify.NewWorker(renderer, mailer, logger)

	if cfg.Notify.AMQPURL == "" {
		q := notify.NewChannelQueue(cfg.Notify.Buffer)
		go worker.Run(ctx, q.Messages())
		return q, func() {}, nil
	}

	q, err := notify.NewRabbitQueue(cfg.Notify.AMQPURL, cfg.Notify.Exchange)
	if err != nil {
		return nil, nil, err
	}
	consumer, err := notify.NewRabbitConsumer(cfg.Notify.AMQPURL, cfg.Notify.Exchange, cfg.Notify.Queue, logger)
	if err != nil {
		q.Close()
		return nil, nil, err
	}
	go func() {
		if err := consumer.Consume(ctx, worker.Handle); err != nil {
			logger.Errorw("Notification consumer stopped", "error", err)
		}
	}()

	closeAll := func() {
		_ = consumer.Close()
		_ = q.Close()
	}
	return q, closeAll, nil
}
