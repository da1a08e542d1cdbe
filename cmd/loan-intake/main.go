// cmd/loan-intake/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"loan-intake/internal/api"
	"loan-intake/internal/common/aws"
	"loan-intake/internal/common/camunda"
	"loan-intake/internal/common/config"
	"loan-intake/internal/common/database"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/common/observability"
	"loan-intake/internal/intake/engine"
	"loan-intake/internal/intake/repository"

	fa "loan-intake/internal/workers/application/finalize-application"
	sn "loan-intake/internal/workers/application/send-notification"
	sci "loan-intake/internal/workers/application/submit-contact-info"
	sfi "loan-intake/internal/workers/application/submit-financial-info"
	sli "loan-intake/internal/workers/application/submit-loan-info"
	spi "loan-intake/internal/workers/application/submit-personal-info"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format).With(zap.String("service", cfg.App.Name))
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting loan intake service...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("storage", cfg.Storage.Backend),
	)

	obs := observability.New(cfg.App.Name, log)
	ctx := context.Background()

	// --- Storage ---
	repo, checks, closeStorage := buildRepository(ctx, cfg, zapLog, log)
	defer closeStorage()

	eng := engine.New(repo,
		engine.WithLogger(log.WithFields(map[string]interface{}{"component": "engine"})),
		engine.WithObservability(obs),
	)

	// --- Zeebe workers ---
	var registry *camunda.Registry
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		zeebe, err = camunda.NewClient(ctx, cfg.Camunda)
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully", zap.String("gateway", cfg.Camunda.BrokerAddress))
		checks = append(checks, zeebe)

		registry = camunda.NewRegistry(zeebe.GetClient(), obs, log)
		startWorkers(ctx, cfg, registry, eng, log, zapLog)
	} else {
		zapLog.Info("Camunda integration disabled, serving REST only")
	}

	// --- HTTP ---
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.NewHandler(eng, log), log, checks...)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.HTTP.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.HTTP.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	if registry != nil {
		registry.Close()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down observability", zap.Error(err))
	}

	zapLog.Info("Loan intake service stopped gracefully")
}

// buildRepository selects the storage backend and returns the readiness checks for it.
func buildRepository(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, log logger.Logger) (repository.Repository, []database.HealthChecker, func()) {
	var checks []database.HealthChecker
	closers := []func() error{}
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				zapLog.Error("Error closing storage", zap.Error(err))
			}
		}
	}

	if cfg.Storage.Backend != config.StoragePostgres {
		zapLog.Info("Using in-memory storage")
		return repository.NewMemory(), checks, closeAll
	}

	var pg *database.PostgresClient
	err := retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	closers = append(closers, pg.Close)
	checks = append(checks, pg)
	zapLog.Info("PostgreSQL connected successfully")

	pgRepo := repository.NewPostgres(pg)
	if err := pgRepo.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("schema migration failed", zap.Error(err))
	}

	var repo repository.Repository = pgRepo

	if cfg.Storage.CacheEnabled {
		rdb := database.NewRedis(cfg.Database.Redis)
		err := retryWithBackoff(func() error {
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		closers = append(closers, rdb.Close)
		checks = append(checks, rdb)
		zapLog.Info("Redis connected successfully")

		repo = repository.NewCached(repo, rdb.Client,
			config.GetDuration(cfg.Storage.CacheTTL), cfg.Storage.CachePrefix,
			log.WithFields(map[string]interface{}{"component": "cache"}))
	}

	return repo, checks, closeAll
}

func startWorkers(ctx context.Context, cfg *config.Config, registry *camunda.Registry, eng *engine.Engine, log logger.Logger, zapLog *zap.Logger) {
	wc := func(taskType string) config.WorkerConfig {
		return config.GetWorkerConfig(cfg, taskType)
	}

	registry.Start(spi.TaskType, wc(spi.TaskType),
		spi.NewHandler(spi.LoadConfig(wc(spi.TaskType)), eng, log).Handle)
	registry.Start(sci.TaskType, wc(sci.TaskType),
		sci.NewHandler(sci.LoadConfig(wc(sci.TaskType)), eng, log).Handle)
	registry.Start(sli.TaskType, wc(sli.TaskType),
		sli.NewHandler(sli.LoadConfig(wc(sli.TaskType)), eng, log).Handle)
	registry.Start(sfi.TaskType, wc(sfi.TaskType),
		sfi.NewHandler(sfi.LoadConfig(wc(sfi.TaskType)), eng, log).Handle)
	registry.Start(fa.TaskType, wc(fa.TaskType),
		fa.NewHandler(fa.LoadConfig(wc(fa.TaskType)), eng, log).Handle)

	if wc(sn.TaskType).Enabled {
		snCfg := sn.LoadConfig(wc(sn.TaskType), cfg.Notifications)

		var mailer sn.Mailer
		var texter sn.Texter
		if snCfg.EmailEnabled || snCfg.SMSEnabled {
			awsCfg, err := aws.LoadConfig(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("failed to create send-notification handler", zap.Error(err))
			}
			if snCfg.EmailEnabled {
				mailer = aws.NewSESEmailSender(awsCfg, cfg.Notifications.AWS.SES.FromEmail)
			}
			if snCfg.SMSEnabled {
				texter = aws.NewSNSSMSSender(awsCfg, cfg.Notifications.AWS.SNS.DefaultSMSSenderID)
			}
		}

		registry.Start(sn.TaskType, wc(sn.TaskType), sn.NewHandler(snCfg, eng, mailer, texter, log).Handle)
	}

	zapLog.Info("Workers registered", zap.Strings("taskTypes", registry.Running()))
}
