// Command server wires configuration, infrastructure, stores, services,
// and handlers, then runs the HTTP API next to the audit outbox worker and
// the analysis worker pool.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"lexdraft/internal/analysis/analyzer"
	analysiscache "lexdraft/internal/analysis/cache"
	analysishandler "lexdraft/internal/analysis/handler"
	analysismetrics "lexdraft/internal/analysis/metrics"
	analysisservice "lexdraft/internal/analysis/service"
	analysisstore "lexdraft/internal/analysis/store"
	"lexdraft/internal/audit"
	audithandler "lexdraft/internal/audit/handler"
	authhandler "lexdraft/internal/auth/handler"
	authmetrics "lexdraft/internal/auth/metrics"
	authservice "lexdraft/internal/auth/service"
	sessionstore "lexdraft/internal/auth/store/session"
	userstore "lexdraft/internal/auth/store/user"
	clausehandler "lexdraft/internal/clause/handler"
	"lexdraft/internal/clause/segmenter"
	clauseservice "lexdraft/internal/clause/service"
	claustore "lexdraft/internal/clause/store"
	"lexdraft/internal/document/extract"
	documenthandler "lexdraft/internal/document/handler"
	docmetrics "lexdraft/internal/document/metrics"
	documentservice "lexdraft/internal/document/service"
	docstore "lexdraft/internal/document/store"
	"lexdraft/internal/export"
	exporthandler "lexdraft/internal/export/handler"
	"lexdraft/internal/llm"
	"lexdraft/internal/platform/blob"
	"lexdraft/internal/platform/config"
	"lexdraft/internal/platform/httpserver"
	"lexdraft/internal/platform/logger"
	"lexdraft/internal/platform/metrics"
	"lexdraft/internal/platform/postgres"
	redisplatform "lexdraft/internal/platform/redis"
	redlinehandler "lexdraft/internal/redline/handler"
	redlinemetrics "lexdraft/internal/redline/metrics"
	redlineservice "lexdraft/internal/redline/service"
	redlinestore "lexdraft/internal/redline/store"
	"lexdraft/internal/search"
	searchhandler "lexdraft/internal/search/handler"
	tenanthandler "lexdraft/internal/tenant/handler"
	tenantmetrics "lexdraft/internal/tenant/metrics"
	tenantservice "lexdraft/internal/tenant/service"
	tenantstore "lexdraft/internal/tenant/store"
	httptransport "lexdraft/internal/transport/http"
	versionhandler "lexdraft/internal/version/handler"
	versionservice "lexdraft/internal/version/service"
	versionstore "lexdraft/internal/version/store"
	"lexdraft/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := redisplatform.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	blobs, err := blob.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		return err
	}

	// Search: Meilisearch when configured, Postgres FTS always.
	var meili *search.Meili
	if cfg.MeiliURL != "" {
		meili = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, log)
	}
	index := search.NewComposite(meili, search.NewPgFTS(db))

	model, err := buildModel(ctx, cfg, log)
	if err != nil {
		return err
	}

	var seg segmenter.Segmenter
	if cfg.SegmenterMode == "heuristic" {
		seg = segmenter.NewHeuristic()
	} else {
		seg = segmenter.NewLLM(model, log)
	}

	// Stores and services, bottom up: ledger before documents, documents
	// before everything that scopes through them. The runner commits each
	// domain mutation together with its audit outbox row.
	runner := tx.NewSQLRunner(db)
	auditStore := audit.NewPostgresStore(db)
	auditor := audit.NewPublisher(auditStore)

	tenantSvc := tenantservice.New(tenantstore.NewPostgresStore(db), auditor, tenantmetrics.New(), runner)

	tokens := authservice.NewTokenManager([]byte(cfg.JWTSigningKey))
	authSvc := authservice.New(
		userstore.NewPostgresStore(db),
		sessionstore.NewRedisStore(redisClient),
		tokens,
		tenantSvc,
		auditor,
		authmetrics.New(),
		cfg.SessionTTL,
		runner,
	)

	ledger := versionservice.NewLedger(versionstore.NewPostgresStore(db), auditor, runner)
	docSvc := documentservice.New(
		docstore.NewPostgresStore(db),
		ledger,
		blobs,
		extract.New(),
		index,
		tenantSvc,
		auditor,
		docmetrics.New(),
		log,
		runner,
	)
	versionSvc := versionservice.New(ledger, docSvc)

	clauseStore := claustore.NewPostgresStore(db)
	clauseSvc := clauseservice.New(clauseStore, seg, ledger, docSvc, tenantSvc, auditor, runner)

	analysisSvc := analysisservice.New(
		analysisstore.NewPostgresStore(db),
		clauseStore,
		analyzer.New(model),
		analysiscache.NewRedisCache(redisClient, 0),
		ledger,
		docSvc,
		tenantSvc,
		auditor,
		analysismetrics.New(),
		log,
		runner,
	)

	redlineSvc := redlineservice.New(redlinestore.NewPostgresStore(db), ledger, clauseStore, docSvc, auditor, redlinemetrics.New(), runner)
	exportSvc := export.New(docSvc, redlineSvc, versionSvc, auditor)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:     log,
		Metrics:    metrics.New(),
		Tokens:     authSvc,
		AdminToken: cfg.AdminToken,
	}, httptransport.Handlers{
		Auth:     authhandler.New(authSvc, log),
		Tenant:   tenanthandler.New(tenantSvc, auditor, log),
		Audit:    audithandler.New(auditor, log),
		Document: documenthandler.New(docSvc, log),
		Version:  versionhandler.New(versionSvc, log),
		Clause:   clausehandler.New(clauseSvc, log),
		Analysis: analysishandler.New(analysisSvc, log),
		Redline:  redlinehandler.New(redlineSvc, log),
		Export:   exporthandler.New(exportSvc, log),
		Search:   searchhandler.New(index, log),
	})

	group, ctx := errgroup.WithContext(ctx)

	// Audit outbox drains into Kafka when brokers are configured; without
	// them events stay queued in Postgres.
	if cfg.KafkaBrokers != "" {
		sink, err := audit.NewKafkaSink(ctx, strings.Split(cfg.KafkaBrokers, ","), cfg.AuditTopic)
		if err != nil {
			return err
		}
		defer sink.Close()
		worker := audit.NewWorker(auditStore, sink, log, cfg.OutboxInterval)
		group.Go(func() error { return worker.Run(ctx) })
	} else {
		log.Warn("no kafka brokers configured, audit events stay in the outbox")
	}

	group.Go(func() error { return analysisSvc.RunWorkers(ctx, cfg.AnalysisWorkers) })

	srv := httpserver.New(cfg.Addr, router)
	group.Go(func() error {
		log.Info("starting lexdraft", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// buildModel assembles the provider failover chain with the configured
// primary first.
func buildModel(ctx context.Context, cfg config.Config, log *slog.Logger) (llm.Client, error) {
	build := map[string]func() (llm.Client, error){
		"openai": func() (llm.Client, error) {
			if cfg.OpenAIAPIKey == "" {
				return nil, nil
			}
			return llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		},
		"anthropic": func() (llm.Client, error) {
			if cfg.AnthropicAPIKey == "" {
				return nil, nil
			}
			return llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		},
		"gemini": func() (llm.Client, error) {
			if cfg.GeminiAPIKey == "" {
				return nil, nil
			}
			return llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		},
	}

	order := []string{cfg.LLMProvider}
	for _, name := range []string{"openai", "anthropic", "gemini"} {
		if name != cfg.LLMProvider {
			order = append(order, name)
		}
	}

	var clients []llm.Client
	for _, name := range order {
		builder, ok := build[name]
		if !ok {
			continue
		}
		client, err := builder()
		if err != nil {
			return nil, err
		}
		if client != nil {
			clients = append(clients, client)
		}
	}
	return llm.NewManager(log, clients...)
}
