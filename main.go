package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"greendrake/blast/internal/api"
	"greendrake/blast/internal/cache"
	"greendrake/blast/internal/config"
	"greendrake/blast/internal/db"
	"greendrake/blast/internal/email"
	"greendrake/blast/internal/fixtures"
	"greendrake/blast/internal/services"
	"greendrake/blast/internal/storage"
	"greendrake/blast/internal/store"
	"greendrake/blast/internal/tasks"
)

var (
	runMode   = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'all' (default)")
	seedMongo = flag.Bool("seed", false, "Seed MongoDB with the built-in fixtures before loading them")
)

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*runMode)
	if err != nil {
		fatal("Failed to load configuration", err)
	}
	logger := setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Cache (Redis). Without it sessions live in memory and tasks run inline.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			fatal("Failed to connect to Redis", err)
		}
		defer func() {
			if err := cache.DisconnectRedis(redisClient); err != nil {
				slog.Error("Error disconnecting from Redis", "error", err)
			}
		}()
	}

	// Load fixtures from the first configured source
	sources := fixtures.Sources{Path: cfg.FixturesPath}
	if cfg.MongoURI != "" {
		mongoClient, mongoDb, err := db.ConnectDB(ctx, cfg.MongoURI, cfg.MongoDbName)
		if err != nil {
			fatal("Failed to connect to database", err)
		}
		defer func() {
			if err := db.DisconnectDB(mongoClient); err != nil {
				slog.Error("Error disconnecting from MongoDB", "error", err)
			}
		}()
		if *seedMongo {
			ds, err := fixtures.Embedded()
			if err != nil {
				fatal("Failed to read built-in fixtures", err)
			}
			if err := fixtures.SeedMongo(ctx, mongoDb, ds); err != nil {
				fatal("Failed to seed MongoDB", err)
			}
		}
		sources.Mongo = mongoDb
	} else if cfg.FixturesS3Bucket != "" {
		s3Client, err := storage.NewS3Client(ctx, cfg)
		if err != nil {
			fatal("Failed to initialize S3 client", err)
		}
		sources.Objects = storage.NewS3Storage(s3Client, cfg.FixturesS3Bucket)
		sources.ObjectKey = cfg.FixturesS3Key
	}
	fx, origin, err := fixtures.Open(ctx, sources)
	if err != nil {
		fatal("Failed to load fixtures from "+origin, err)
	}
	slog.Info("Fixtures loaded", "source", origin)

	// Initialize Email and SMS senders
	var primaryEmailSender email.Sender
	var smsSender email.SMSSender = email.LoggingSMSSender{}
	if cfg.MockServices && redisClient != nil {
		slog.Info("MOCK_SERVICES enabled: keeping messages in Redis")
		redisSender := email.NewRedisSender(redisClient, cfg.SmtpFromAddress)
		primaryEmailSender = redisSender
		smsSender = redisSender
	} else {
		primaryEmailSender = email.NewSMTPSender(cfg)
	}
	compositeSender := email.NewCompositeEmailSender(primaryEmailSender)
	if cfg.LogEmailsPath != "" {
		fileSender, err := email.NewFileEmailSender(cfg.LogEmailsPath)
		if err != nil {
			slog.Warn("Failed to initialize file email sender, proceeding without file logging", "path", cfg.LogEmailsPath, "error", err)
		} else {
			compositeSender.AddSender(fileSender)
			slog.Info("File email logger enabled", "path", cfg.LogEmailsPath)
		}
	}

	taskProcessor := tasks.NewTaskProcessor(cfg, compositeSender, smsSender)

	// Session stores and task dispatch
	var (
		codes       store.CodeStore
		campaigns   store.CampaignStore
		idempotency store.IdempotencyStore
		dispatcher  tasks.Dispatcher
	)
	if redisClient != nil {
		codes = store.NewRedisCodeStore(redisClient)
		campaigns = store.NewRedisCampaignStore(redisClient, cfg.SessionTTL)
		idempotency = store.NewRedisIdempotencyStore(redisClient, cfg.IdempotencyTTL)
		taskClient := tasks.NewClient(redisClient)
		defer taskClient.Close()
		dispatcher = tasks.NewQueueDispatcher(taskClient)
	} else {
		slog.Warn("REDIS_ADDR not set: using in-memory stores and inline task delivery")
		codes = store.NewMemoryCodeStore()
		campaigns = store.NewMemoryCampaignStore()
		idempotency = store.NewMemoryIdempotencyStore(ctx, cfg.IdempotencyTTL)
		dispatcher = tasks.NewInlineDispatcher(taskProcessor)
	}

	deps := api.Deps{
		Config:       cfg,
		Logger:       logger,
		Catalog:      services.NewCatalogService(fx),
		Verification: services.NewVerificationService(cfg, fx, codes, dispatcher),
		Campaigns:    services.NewCampaignService(cfg, fx, campaigns),
		Checkout:     services.NewCheckoutService(campaigns, dispatcher),
		Idempotency:  idempotency,
	}

	var wg sync.WaitGroup
	serverErr := make(chan error, 3)
	shutdownChan := make(chan struct{}, 1)

	listen := func(name string, srv *http.Server) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slog.Info(name+" listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
			slog.Info(name + " stopped")
		}()
	}

	// Service API always runs
	serviceSrv := &http.Server{
		Addr:              ":" + cfg.ServiceApiPort,
		Handler:           api.SetupServiceRouter(redisClient, shutdownChan),
		ReadHeaderTimeout: 5 * time.Second,
	}
	listen("Service API", serviceSrv)

	var mainApiSrv *http.Server
	var backgroundTaskSrv *asynq.Server

	slog.Info("Starting application", "mode", cfg.RunMode)

	apiMode := func() {
		mainApiSrv = &http.Server{
			Addr:              ":" + cfg.ApiPort,
			Handler:           api.SetupRouter(ctx, deps),
			ReadHeaderTimeout: 5 * time.Second,
		}
		listen("Main API", mainApiSrv)
	}

	bgMode := func() {
		if redisClient == nil {
			slog.Warn("Background worker disabled without Redis; tasks are delivered inline")
			return
		}
		backgroundTaskSrv = tasks.SetupServer(redisClient, cfg.WorkerConcurrency)
		wg.Add(1)
		go func() {
			defer wg.Done()
			slog.Info("Background task server starting", "concurrency", cfg.WorkerConcurrency)
			if err := backgroundTaskSrv.Run(tasks.NewServeMux(taskProcessor)); err != nil {
				serverErr <- err
			}
			slog.Info("Background task server stopped")
		}()
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		fatal("Invalid run mode", errors.New(cfg.RunMode))
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("Received signal, shutting down gracefully", "signal", sig.String())
	case <-shutdownChan:
		slog.Info("Shutdown requested via Service API, shutting down gracefully")
	case err := <-serverErr:
		slog.Error("Server failed, shutting down", "error", err)
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		slog.Error("Service API server shutdown error", "error", err)
	}
	if mainApiSrv != nil {
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			slog.Error("Main API server shutdown error", "error", err)
		}
	}
	if backgroundTaskSrv != nil {
		backgroundTaskSrv.Shutdown()
	}
	cancel()

	wg.Wait()
	slog.Info("Server gracefully stopped")
}
