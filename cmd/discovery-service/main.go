// cmd/discovery-service/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"marketplace-discovery/internal/api"
	"marketplace-discovery/internal/common/camunda"
	"marketplace-discovery/internal/common/config"
	"marketplace-discovery/internal/common/database"
	"marketplace-discovery/internal/common/logger"
	"marketplace-discovery/internal/common/observability"
	"marketplace-discovery/internal/discovery/service"

	cle "marketplace-discovery/internal/workers/discovery/check-listing-eligibility"
	rs "marketplace-discovery/internal/workers/discovery/rank-suppliers"
)

const serviceName = "discovery-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting discovery service...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs, err := observability.New(serviceName)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	tracing, err := observability.NewTracing(cfg.Tracing, serviceName, cfg.App.Version)
	if err != nil {
		zapLog.Fatal("tracing init failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- PostgreSQL (required) ---
	var pg *database.PostgresClient
	err = database.RetryWithBackoff(ctx, func() error {
		var err error
		pg, err = database.OpenAndPing(ctx, func() (*database.PostgresClient, error) {
			return database.NewPostgres(cfg.Database.Postgres)
		})
		return err
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	checks := map[string]api.Pinger{"postgres": pg}
	backends := service.Backends{DB: pg.DB}

	// --- Redis (optional shared baseline cache) ---
	if cfg.Database.Redis.Address != "" {
		var rdb *database.RedisClient
		err = database.RetryWithBackoff(ctx, func() error {
			var err error
			rdb, err = database.OpenAndPing(ctx, func() (*database.RedisClient, error) {
				return database.NewRedis(cfg.Database.Redis)
			})
			return err
		}, 5, time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("redis unavailable, baseline cache stays per-process", zap.Error(err))
		} else {
			defer rdb.Close()
			backends.Redis = rdb.Client
			checks["redis"] = rdb
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Elasticsearch (optional search prefilter) ---
	if cfg.Database.Elasticsearch.Enabled() {
		var es *database.ElasticsearchClient
		err = database.RetryWithBackoff(ctx, func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 5, time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Warn("elasticsearch unavailable, search scans the catalogue", zap.Error(err))
		} else {
			backends.Elasticsearch = es.Client
			backends.SupplierIndex = cfg.Database.Elasticsearch.SupplierIndex
			checks["elasticsearch"] = es
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	discovery, err := service.New(cfg.Discovery, backends, log, tracing.Tracer())
	if err != nil {
		zapLog.Fatal("discovery init failed", zap.Error(err))
	}

	// --- Zeebe workers (optional) ---
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		err = database.RetryWithBackoff(ctx, func() error {
			var err error
			zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}

		rankHandler := rs.NewHandler(rs.LoadConfig(config.GetWorkerConfig(cfg, rs.TaskType)), discovery.Pipeline, log)
		zeebe.StartWorker(rs.TaskType, config.GetWorkerConfig(cfg, rs.TaskType), camunda.Instrument(rs.TaskType, rankHandler, obs, zapLog), zapLog)

		eligibilityHandler := cle.NewHandler(cle.LoadConfig(config.GetWorkerConfig(cfg, cle.TaskType)),
			discovery.Store, discovery.Gate, log)
		zeebe.StartWorker(cle.TaskType, config.GetWorkerConfig(cfg, cle.TaskType), camunda.Instrument(cle.TaskType, eligibilityHandler, obs, zapLog), zapLog)

		checks["zeebe"] = pingFunc(zeebe.HealthCheck)
		zapLog.Info("Zeebe workers registered")
	}

	// --- HTTP ---
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(discovery.Pipeline, checks, log)
	server := api.NewServer(cfg.HTTP, api.NewRouter(handler, log, obs), log)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
		zapLog.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP shutdown failed", zap.Error(err))
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("tracing shutdown failed", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("metrics shutdown failed", zap.Error(err))
	}

	zapLog.Info("Discovery service stopped gracefully")
}

// pingFunc adapts a health check to api.Pinger.
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
