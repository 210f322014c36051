package bootstrap

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/api/option"

	"github.com/visionops/camsight/internal/config"
	"github.com/visionops/camsight/internal/core/ports"
	"github.com/visionops/camsight/internal/core/usecase"
	"github.com/visionops/camsight/internal/infrastructure/metadata/excel"
	"github.com/visionops/camsight/internal/infrastructure/queue/nats"
	"github.com/visionops/camsight/internal/infrastructure/repository/postgres"
	"github.com/visionops/camsight/internal/infrastructure/resilience"
	"github.com/visionops/camsight/internal/infrastructure/source/cached"
	"github.com/visionops/camsight/internal/infrastructure/source/gcs"
	"github.com/visionops/camsight/internal/infrastructure/source/localdir"
	"github.com/visionops/camsight/internal/infrastructure/vision/openai"
	"github.com/visionops/camsight/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Source      ports.ImageSource
	Store       ports.SessionStore
	SessionUC   ports.SessionService
	AnalyzeUC   ports.QueryStreamer
	HTTPMetrics *metrics.HTTPServerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	store := postgres.NewSessionStore(db)

	source, err := buildSource(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	source = cached.New(source, cached.Config{
		ListingTTL: time.Duration(cfg.ListingCacheTTLSeconds) * time.Second,
		LocatorTTL: time.Duration(cfg.LocatorCacheTTLSeconds) * time.Second,
	})

	catalog, err := excel.Load(cfg.MetadataXLSX)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load camera catalog: %w", err)
	}

	var notifier ports.AnalysisNotifier
	var natsNotifier *nats.Notifier
	if cfg.NATSURL != "" {
		natsNotifier, err = nats.New(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("init notifier: %w", err)
		}
		notifier = natsNotifier
	}

	classifier := openai.New(openai.Config{
		BaseURL:           cfg.OpenAIBaseURL,
		APIKey:            cfg.OpenAIAPIKey,
		Model:             cfg.VisionModel,
		CallTimeout:       time.Duration(cfg.VisionCallTimeout) * time.Second,
		RequestsPerSecond: cfg.VisionRateLimit,
		Resilience: resilience.Config{
			RetryMaxAttempts:    cfg.RetryMaxAttempts,
			RetryInitialBackoff: time.Duration(cfg.RetryInitialBackoffMS) * time.Millisecond,
			RetryMaxBackoff:     time.Duration(cfg.RetryMaxBackoffMS) * time.Millisecond,
			RetryMultiplier:     2.0,
			BreakerEnabled:      true,
		},
	})

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPServerMetrics("camsight-api", registry)
	analysisMetrics := metrics.NewAnalysisMetrics("camsight-api", registry)

	resolver := usecase.NewContextResolver(source, usecase.NewKeywordFollowUpClassifier())
	executor := usecase.NewWorkerPoolExecutor(source, classifier, catalog, analysisMetrics, cfg.MaxWorkers)
	analyzeUC := usecase.NewAnalyzeUseCase(resolver, executor, classifier, store, notifier)
	sessionUC := usecase.NewSessionUseCase(store)

	return &App{
		Config: cfg,

		Source:      source,
		Store:       store,
		SessionUC:   sessionUC,
		AnalyzeUC:   analyzeUC,
		HTTPMetrics: httpMetrics,

		closeFn: func() {
			if natsNotifier != nil {
				natsNotifier.Close()
			}
			_ = db.Close()
		},
	}, nil
}

func buildSource(ctx context.Context, cfg config.Config) (ports.ImageSource, error) {
	if cfg.UseGCS {
		var opts []option.ClientOption
		if cfg.GCSCredentials != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentials))
		}
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		return gcs.New(client, gcs.Config{Bucket: cfg.GCSBucket, Prefix: cfg.GCSPrefix})
	}
	source, err := localdir.New(cfg.ImagesDir)
	if err != nil {
		return nil, fmt.Errorf("init local image source: %w", err)
	}
	return source, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
