// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"career-readiness/internal/aiclient"
	"career-readiness/internal/common/auth"
	awsclient "career-readiness/internal/common/aws"
	"career-readiness/internal/common/camunda"
	"career-readiness/internal/common/config"
	"career-readiness/internal/common/database"
	"career-readiness/internal/common/logger"
	"career-readiness/internal/common/observability"
	"career-readiness/internal/common/validation"
	"career-readiness/internal/search"
	"career-readiness/internal/store"
	"career-readiness/pkg/registry"

	ac "career-readiness/internal/workers/assessment/assign-clerk"
	far "career-readiness/internal/workers/assessment/finalize-assessment-results"
	rai "career-readiness/internal/workers/assessment/request-ai-analysis"
	rap "career-readiness/internal/workers/assessment/route-assessment-processing"
	saf "career-readiness/internal/workers/assessment/score-assessment-form"
	sn "career-readiness/internal/workers/assessment/send-notification"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func fatal(log logger.Logger, msg string, err error) {
	log.Error(msg, map[string]interface{}{"error": err})
	os.Exit(1)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewStructured("info", "console").Error("config load failed", map[string]interface{}{"error": err})
		os.Exit(1)
	}
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output).
		WithFields(map[string]interface{}{"service": "worker-manager"})
	log.Info("Starting worker manager...", map[string]interface{}{"version": cfg.App.Version})

	if err := cfg.Require(config.SectionCamunda, config.SectionRedis); err != nil {
		fatal(log, "configuration incomplete", err)
	}

	obs := observability.New(cfg.Observability, log)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Activity registry ---
	reg, err := registry.LoadRegistry(cfg.Camunda.RegistryPath)
	if err != nil {
		fatal(log, "activity registry load failed", err)
	}
	validators, err := reg.InputValidators()
	if err != nil {
		fatal(log, "activity registry invalid", err)
	}

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		fatal(log, "zeebe client failed after retries", err)
	}
	log.Info("Zeebe client connected successfully", nil)

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		if pg, err = database.NewPostgres(cfg.Database.Postgres); err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		fatal(log, "postgres failed after retries", err)
	}
	defer pg.Close()

	// --- Redis ---
	redis := database.NewRedis(cfg.Database.Redis)
	if err := retryWithBackoff(func() error { return redis.Ping(ctx) }, 10, 2*time.Second, log, "Redis connection"); err != nil {
		fatal(log, "redis failed after retries", err)
	}
	defer redis.Close()

	repo := store.NewRepository(pg.DB)
	cache := store.NewCache(redis.Client,
		config.GetDuration(cfg.Database.Redis.ResultsCacheTTL),
		config.GetDuration(cfg.Database.Redis.RouteCacheTTL))

	// --- Optional collaborators ---
	var indexer far.Indexer
	if len(cfg.Database.Elasticsearch.Addresses) > 0 {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			log.Warn("elasticsearch unavailable, search indexing disabled", map[string]interface{}{"error": err})
		} else {
			indexer = search.NewIndex(es, cfg.Database.Elasticsearch.Index)
		}
	}

	var directory ac.Directory
	if kc := auth.NewKeycloakDirectory(cfg.Auth.Keycloak); kc != nil {
		directory = kc
	} else {
		log.Warn("keycloak clerk group not configured, manual assessments cannot be assigned", nil)
	}

	var (
		mailer sn.EmailSender
		texter sn.SMSSender
	)
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		awsCfg, err := awsclient.LoadConfig(ctx, cfg.Notifications.AWSRegion)
		if err != nil {
			fatal(log, "aws config failed", err)
		}
		if cfg.Notifications.Email.Enabled {
			mailer = awsclient.NewMailer(awsCfg, cfg.Notifications.Email.FromEmail)
		}
		if cfg.Notifications.SMS.Enabled {
			texter = awsclient.NewTexter(awsCfg, cfg.Notifications.SMS.SenderID)
		}
	}

	// --- Workers ---
	var workers []worker.JobWorker
	start := func(taskType string, handler worker.JobHandler) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		handler = camunda.Chain(handler,
			camunda.Instrument(taskType, obs),
			camunda.ValidateInput(taskType, inputValidator(validators, taskType), log),
		)
		if jw := camunda.Open(zeebe.GetClient(), taskType, wcfg, handler, log); jw != nil {
			workers = append(workers, jw)
		}
	}

	start(saf.TaskType, saf.NewHandler(saf.LoadConfig(config.GetWorkerConfig(cfg, saf.TaskType)), repo, log).Handle)
	start(rap.TaskType, rap.NewHandler(rap.LoadConfig(config.GetWorkerConfig(cfg, rap.TaskType)), repo, cache, log).Handle)
	start(rai.TaskType, rai.NewHandler(rai.LoadConfig(config.GetWorkerConfig(cfg, rai.TaskType)), repo, aiclient.New(cfg.APIs.AIService), log).Handle)
	start(ac.TaskType, ac.NewHandler(ac.LoadConfig(config.GetWorkerConfig(cfg, ac.TaskType)), repo, directory, log).Handle)
	start(far.TaskType, far.NewHandler(far.LoadConfig(config.GetWorkerConfig(cfg, far.TaskType), cfg.Scoring), repo, cache, indexer, log).Handle)
	start(sn.TaskType, sn.NewHandler(sn.LoadConfig(config.GetWorkerConfig(cfg, sn.TaskType), cfg), repo, mailer, texter, log).Handle)

	log.Info("workers registered", map[string]interface{}{"count": len(workers)})

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		checks := map[string]string{"postgres": "ok", "redis": "ok", "zeebe": "ok"}
		status := http.StatusOK
		if err := pg.Ping(ctx); err != nil {
			checks["postgres"], status = err.Error(), http.StatusServiceUnavailable
		}
		if err := redis.Ping(ctx); err != nil {
			checks["redis"], status = err.Error(), http.StatusServiceUnavailable
		}
		if err := zeebe.HealthCheck(ctx); err != nil {
			checks["zeebe"], status = err.Error(), http.StatusServiceUnavailable
		}
		label := "ready"
		if status != http.StatusOK {
			label = "not ready"
		}
		writeStatus(w, status, label, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: cfg.Observability.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("Health/Metrics server listening", map[string]interface{}{"address": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Health/Metrics server failed", map[string]interface{}{"error": err})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutdown signal received, stopping workers...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, jw := range workers {
		jw.Close()
	}
	for _, jw := range workers {
		jw.AwaitClose()
	}
	_ = srv.Shutdown(shutdownCtx)

	if err := zeebe.Close(); err != nil {
		log.Error("Error closing Zeebe client", map[string]interface{}{"error": err})
	}
	log.Info("Worker manager stopped gracefully", nil)
}

func inputValidator(validators map[string]*validation.Validator, taskType string) camunda.InputValidator {
	v, ok := validators[taskType]
	if !ok {
		return nil
	}
	return v.Check
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	body := map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if checks != nil {
		body["checks"] = checks
	}
	_ = json.NewEncoder(w).Encode(body)
}
