// cmd/assessment-api/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"career-readiness/internal/api"
	"career-readiness/internal/common/auth"
	"career-readiness/internal/common/camunda"
	"career-readiness/internal/common/config"
	"career-readiness/internal/common/database"
	"career-readiness/internal/common/logger"
	"career-readiness/internal/common/observability"
	"career-readiness/internal/report"
	"career-readiness/internal/resume"
	"career-readiness/internal/search"
	"career-readiness/internal/store"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

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
		WithFields(map[string]interface{}{"service": "assessment-api"})

	if err := cfg.Require(config.SectionServer, config.SectionRedis); err != nil {
		fatal(log, "configuration incomplete", err)
	}

	obs := observability.New(cfg.Observability, log)
	defer obs.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		fatal(log, "postgres open failed", err)
	}
	defer pg.Close()
	if err := pg.Ping(ctx); err != nil {
		fatal(log, "postgres unreachable", err)
	}
	applied, err := store.Migrate(ctx, pg.DB)
	if err != nil {
		fatal(log, "migrations failed", err)
	}
	if len(applied) > 0 {
		log.Info("migrations applied", map[string]interface{}{"versions": applied})
	}

	redis := database.NewRedis(cfg.Database.Redis)
	if err := redis.Ping(ctx); err != nil {
		fatal(log, "redis unreachable", err)
	}
	defer redis.Close()

	deps := api.Deps{
		Repo: store.NewRepository(pg.DB),
		Cache: store.NewCache(redis.Client,
			config.GetDuration(cfg.Database.Redis.ResultsCacheTTL),
			config.GetDuration(cfg.Database.Redis.RouteCacheTTL)),
		Resumes:   resume.NewStore(cfg.Server.UploadDir),
		Extractor: resume.PlainText{},
		Report:    report.NewRenderer(cfg.Report.BrandName),
		Logger:    log,
	}

	if len(cfg.Database.Elasticsearch.Addresses) > 0 {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			log.Warn("elasticsearch unavailable, admin search disabled", map[string]interface{}{"error": err})
		} else {
			idx := search.NewIndex(es, cfg.Database.Elasticsearch.Index)
			if err := idx.Ensure(ctx); err != nil {
				log.Warn("search index not ensured", map[string]interface{}{"error": err})
			}
			deps.Search = idx
		}
	}

	if cfg.Camunda.BrokerAddress != "" {
		zeebe, err := camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		if err != nil {
			fatal(log, "zeebe client failed", err)
		}
		defer zeebe.Close()
		deps.Processes = zeebe
	}

	if cfg.APIs.GoogleVision.Enabled {
		vision, err := resume.NewVision(ctx, cfg.APIs.GoogleVision, resume.PlainText{})
		if err != nil {
			log.Warn("google vision unavailable, using plain extraction", map[string]interface{}{"error": err})
		} else {
			deps.Vision = vision
		}
	}

	if kc := auth.NewKeycloakDirectory(cfg.Auth.Keycloak); kc != nil {
		deps.Clerks = kc
	}

	if pdf := report.NewPDFRenderer(cfg.Report.ChromePath, config.GetDuration(cfg.Report.PDFTimeout)); pdf.Available() {
		deps.PDF = pdf
	} else {
		log.Warn("no chrome binary found, PDF export disabled", nil)
	}

	srv, err := api.New(api.Options{
		JWTSecret:      cfg.Server.JWTSecret,
		ProcessID:      cfg.Camunda.ProcessID,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ReadTimeout:    config.GetDuration(cfg.Server.ReadTimeout),
		DefaultScore:   cfg.Scoring.DefaultAIScore,
	}, deps)
	if err != nil {
		fatal(log, "api setup failed", err)
	}

	srv.App().Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	go func() {
		log.Info("assessment API listening", map[string]interface{}{"address": cfg.Server.Address})
		if err := srv.App().Listen(cfg.Server.Address); err != nil {
			fatal(log, "api server failed", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down assessment API", nil)
	if err := srv.App().ShutdownWithTimeout(30 * time.Second); err != nil {
		log.Error("api shutdown failed", map[string]interface{}{"error": err})
	}
}
