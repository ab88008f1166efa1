// cmd/worker-manager/main.go
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

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"

	"places-workers/internal/api"
	"places-workers/internal/app"
	"places-workers/internal/batch"
	"places-workers/internal/common/aws"
	"places-workers/internal/common/camunda"
	"places-workers/internal/common/config"
	"places-workers/internal/common/database"
	"places-workers/internal/common/logger"
	"places-workers/internal/common/observability"
	"places-workers/internal/common/places"
	"places-workers/internal/common/validation"
	"places-workers/internal/invite"
	"places-workers/internal/restaurants"
	"places-workers/pkg/registry"

	at "places-workers/internal/workers/tours/aggregate-tours"
	rr "places-workers/internal/workers/restaurants/refresh-restaurants"
	si "places-workers/internal/workers/communication/send-invite"
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
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
		zap.String("database", cfg.Database.Driver),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("observability disabled", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Database with retry ---
	var db *database.SQLClient
	err = retryWithBackoff(func() error {
		var err error
		db, err = database.Open(cfg.Database)
		if err != nil {
			return err
		}
		return db.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Database connection")
	if err != nil {
		zapLog.Fatal("database failed after retries", zap.Error(err))
	}
	defer db.Close()

	store := restaurants.NewSQLStore(db.DB, db.Driver)
	if err := store.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("restaurant schema migration failed", zap.Error(err))
	}
	zapLog.Info("Database ready", zap.String("driver", db.Driver))

	// --- Redis detail cache, optional ---
	rdb := database.NewRedis(cfg.Database.Redis)
	if rdb != nil {
		if err := database.PingRedis(ctx, rdb); err != nil {
			zapLog.Warn("redis unavailable, detail cache disabled", zap.Error(err))
			_ = rdb.Close()
			rdb = nil
		} else {
			defer rdb.Close()
			zapLog.Info("Redis detail cache enabled", zap.String("address", cfg.Database.Redis.Address))
		}
	}

	// --- Services ---
	placesClient := places.NewClient(app.PlacesConfig(cfg), log)
	toursService := app.ToursService(cfg, placesClient, rdb, log)
	restaurantService := restaurants.NewService(placesClient, store, log)

	var inviteSender *invite.Sender
	if cfg.Invite.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Invite.Region)
		if err != nil {
			zapLog.Fatal("failed to create SES client", zap.Error(err))
		}
		inviteSender = invite.NewSender(sesClient, invite.Config{
			From:    cfg.Invite.FromEmail,
			Subject: cfg.Invite.Subject,
		}, log)
	}

	validator, err := validation.New()
	if err != nil {
		zapLog.Fatal("schema compilation failed", zap.Error(err))
	}

	// --- HTTP API ---
	deps := api.Deps{
		Tours:       toursService,
		Restaurants: restaurantService,
		Ready:       db.Ping,
	}
	if inviteSender != nil {
		deps.Invites = inviteSender
	}
	server := &http.Server{
		Addr: cfg.Server.Address,
		Handler: api.NewServer(deps, api.Options{
			HashSecret:   cfg.Auth.HashSecret,
			MaxBodyBytes: cfg.Server.MaxBodyBytes,
		}, validator, log, obs),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Zeebe workers, optional ---
	var (
		zeebeClient zbc.Client
		jobWorkers  []worker.JobWorker
	)
	if cfg.Camunda.BrokerAddress != "" {
		err = retryWithBackoff(func() error {
			var err error
			zeebeClient, err = camunda.NewClient(ctx, cfg.Camunda)
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")

		jobWorkers = startWorkers(cfg, zeebeClient, workerDeps{
			tours:       toursService,
			restaurants: restaurantService,
			invites:     inviteSender,
			validator:   validator,
			obs:         obs,
		}, log, zapLog)
	} else {
		zapLog.Info("No Zeebe broker configured, running HTTP API only")
	}

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range jobWorkers {
		w.Close()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if zeebeClient != nil {
		if err := zeebeClient.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Worker manager stopped gracefully")
}

type workerDeps struct {
	tours       batch.UnitFetcher
	restaurants *restaurants.Service
	invites     *invite.Sender
	validator   *validation.Validator
	obs         *observability.Observability
}

func startWorkers(cfg *config.Config, client zbc.Client, deps workerDeps, log logger.Logger, zapLog *zap.Logger) []worker.JobWorker {
	var started []worker.JobWorker
	start := func(taskType, configName string, handler camunda.JobHandler) {
		if w := camunda.StartWorker(client, taskType, config.GetWorkerConfig(cfg, configName), handler, log); w != nil {
			started = append(started, w)
		}
	}

	reg, err := registry.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		zapLog.Warn("activity registry unavailable", zap.String("path", cfg.RegistryPath), zap.Error(err))
	} else if missing := reg.Missing(at.TaskType, rr.TaskType, si.TaskType); len(missing) > 0 {
		zapLog.Warn("task types missing from activity registry", zap.Strings("taskTypes", missing))
	}

	// --- aggregate-tours ---
	{
		pacer, err := app.Pacer(cfg)
		if err != nil {
			zapLog.Fatal("invalid batch pacing", zap.Error(err))
		}
		handler, err := at.NewHandler(at.HandlerOptions{
			AppConfig:     cfg,
			Runner:        batch.NewRunner(deps.tours, pacer, log),
			Validator:     deps.validator,
			Observability: deps.obs,
			Logger:        log,
		})
		if err != nil {
			zapLog.Fatal("failed to create aggregate-tours handler", zap.Error(err))
		}
		start(at.TaskType, at.ConfigName, handler)
	}

	// --- refresh-restaurants ---
	{
		handler, err := rr.NewHandler(rr.HandlerOptions{
			AppConfig:     cfg,
			Service:       deps.restaurants,
			Validator:     deps.validator,
			Observability: deps.obs,
			Logger:        log,
		})
		if err != nil {
			zapLog.Fatal("failed to create refresh-restaurants handler", zap.Error(err))
		}
		start(rr.TaskType, rr.ConfigName, handler)
	}

	// --- send-invite ---
	if deps.invites != nil {
		handler, err := si.NewHandler(si.HandlerOptions{
			AppConfig:     cfg,
			Sender:        deps.invites,
			Validator:     deps.validator,
			Observability: deps.obs,
			Logger:        log,
		})
		if err != nil {
			zapLog.Fatal("failed to create send-invite handler", zap.Error(err))
		}
		start(si.TaskType, si.ConfigName, handler)
	} else {
		zapLog.Info("invites disabled, send-invite worker not started")
	}

	zapLog.Info("Workers registered", zap.Int("count", len(started)))
	return started
}
