// Package app builds and owns the long-lived services of one categorizer run.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/domain-categorizer/internal/categorizer"
	"github.com/JakeFAU/domain-categorizer/internal/category"
	"github.com/JakeFAU/domain-categorizer/internal/clock/system"
	"github.com/JakeFAU/domain-categorizer/internal/config"
	"github.com/JakeFAU/domain-categorizer/internal/extract"
	collyfetcher "github.com/JakeFAU/domain-categorizer/internal/fetcher/colly"
	"github.com/JakeFAU/domain-categorizer/internal/id/uuid"
	"github.com/JakeFAU/domain-categorizer/internal/llm/ollama"
	"github.com/JakeFAU/domain-categorizer/internal/pipeline"
	"github.com/JakeFAU/domain-categorizer/internal/policy/ratelimit"
	"github.com/JakeFAU/domain-categorizer/internal/resume"
	"github.com/JakeFAU/domain-categorizer/internal/sink"
	"github.com/JakeFAU/domain-categorizer/internal/storage"
	"github.com/JakeFAU/domain-categorizer/internal/storage/gcs"
	"github.com/JakeFAU/domain-categorizer/internal/storage/local"
	"github.com/JakeFAU/domain-categorizer/internal/telemetry"
)

const serviceName = "categorizer"

// App holds the services of a run. Build it with New and release it with
// Finish.
type App struct {
	cfg          config.Config
	logger       *zap.Logger
	runID        string
	orchestrator *pipeline.Orchestrator
	sink         *sink.Sink
	archiver     *storage.Archiver
	closers      []func(context.Context) error
}

type options struct {
	fetcher   categorizer.Fetcher
	completer categorizer.Completer
	ids       categorizer.IDGenerator
	clock     categorizer.Clock
}

// Option overrides a collaborator, mainly for tests.
type Option func(*options)

// WithFetcher replaces the colly homepage fetcher.
func WithFetcher(f categorizer.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithCompleter replaces the Ollama client.
func WithCompleter(c categorizer.Completer) Option {
	return func(o *options) { o.completer = c }
}

// WithIDGenerator replaces the run ID generator.
func WithIDGenerator(g categorizer.IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// WithClock replaces the clock used to stamp records.
func WithClock(c categorizer.Clock) Option {
	return func(o *options) { o.clock = c }
}

// New initializes every service named by cfg. It fails fast: any error
// releases what was already built.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (_ *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{ids: uuid.New(), clock: system.New()}
	for _, opt := range opts {
		opt(&o)
	}

	runID, err := o.ids.NewID()
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("run_id", runID))
	a := &App{cfg: cfg, logger: logger, runID: runID}
	defer func() {
		if err != nil {
			_ = a.closeAll(context.WithoutCancel(ctx))
		}
	}()

	traceOpts, err := telemetry.CloudTraceOptions(cfg.Tracing.ProjectID)
	if err != nil {
		return nil, err
	}
	tp, err := telemetry.InitTracerProvider(ctx, serviceName, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.closers = append(a.closers, tp.Shutdown)

	extractor, err := a.buildExtractor(o.fetcher)
	if err != nil {
		return nil, err
	}
	classifier := category.NewValidator(a.buildCompleter(o.completer), logger)

	if err := a.buildSink(ctx, o.clock); err != nil {
		return nil, err
	}

	idx, err := resume.Load(cfg.Output.SuccessPath, cfg.Pipeline.ResumeMode)
	if err != nil {
		return nil, fmt.Errorf("load resume index: %w", err)
	}

	a.orchestrator, err = pipeline.New(
		pipeline.Config{
			BatchSize:      cfg.Pipeline.BatchSize,
			Shuffle:        cfg.Pipeline.Shuffle,
			Seed:           cfg.Pipeline.Seed,
			Limit:          cfg.Pipeline.Limit,
			MinDigestChars: cfg.Pipeline.MinDigestChars,
		},
		extractor,
		classifier,
		a.sink,
		pipeline.WithSkipper(idx),
		pipeline.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("init pipeline: %w", err)
	}

	if err := a.buildArchiver(ctx); err != nil {
		return nil, err
	}
	logger.Info("application services initialized",
		zap.String("endpoint", cfg.LLM.Endpoint),
		zap.String("model", cfg.LLM.Model),
		zap.String("resume_mode", idx.Mode()),
	)
	return a, nil
}

func (a *App) buildExtractor(fetcher categorizer.Fetcher) (*extract.Extractor, error) {
	if fetcher == nil {
		fetcher = collyfetcher.New(collyfetcher.Config{
			UserAgent:   a.cfg.Fetch.UserAgent,
			Timeout:     a.cfg.FetchTimeout(),
			MaxBodySize: a.cfg.Fetch.MaxBodyBytes,
		}, a.logger)
	}
	ex, err := extract.NewExtractor(fetcher, extract.Config{
		Selectors: a.cfg.Extract.Selectors,
		MaxTokens: a.cfg.Extract.MaxTokens,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("init extractor: %w", err)
	}
	return ex, nil
}

func (a *App) buildCompleter(completer categorizer.Completer) categorizer.Completer {
	if completer != nil {
		return completer
	}
	return ollama.New(
		ollama.Config{
			Endpoint: a.cfg.LLM.Endpoint,
			Model:    a.cfg.LLM.Model,
			Timeout:  a.cfg.LLMTimeout(),
		},
		ollama.WithLimiter(ratelimit.New(ratelimit.Config{DefaultRPS: a.cfg.LLM.RequestsPerSecond})),
		ollama.WithLogger(a.logger),
	)
}

func (a *App) buildSink(ctx context.Context, clock categorizer.Clock) error {
	success := []sink.Appender{sink.NewFileAppender(a.cfg.Output.SuccessPath, sink.SuccessLine)}
	failure := []sink.Appender{sink.NewFileAppender(a.cfg.Output.FailurePath, sink.FailureLine)}

	if a.cfg.DB.DSN != "" {
		pg, err := sink.NewPostgresAppender(ctx, sink.PostgresConfig{
			DSN:             a.cfg.DB.DSN,
			Table:           a.cfg.DB.Table,
			MaxConns:        a.cfg.DB.MaxConns,
			MaxConnLifetime: time.Hour,
		})
		if err != nil {
			return fmt.Errorf("init postgres mirror: %w", err)
		}
		if err := pg.EnsureTable(ctx); err != nil {
			_ = pg.Close(ctx)
			return err
		}
		success = append(success, pg)
		a.logger.Info("mirroring classifications to postgres", zap.String("table", a.cfg.DB.Table))
	}

	if a.cfg.PubSub.ProjectID != "" {
		client, err := pubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
		if err != nil {
			return fmt.Errorf("init pubsub client: %w", err)
		}
		publisher := client.Publisher(a.cfg.PubSub.TopicName)
		a.closers = append(a.closers, func(context.Context) error {
			publisher.Stop()
			return client.Close()
		})
		topic := sink.NewTopicPublisher(publisher)
		success = append(success, sink.NewPubSubAppender(topic, sink.LogSuccess, nil))
		failure = append(failure, sink.NewPubSubAppender(topic, sink.LogFailure, nil))
		a.logger.Info("publishing outcomes to pubsub", zap.String("topic", a.cfg.PubSub.TopicName))
	}

	a.sink = sink.New(
		sink.NewWriter(sink.WriterConfig{Name: sink.LogSuccess, QueueDepth: a.cfg.Pipeline.QueueDepth, Logger: a.logger}, success...),
		sink.NewWriter(sink.WriterConfig{Name: sink.LogFailure, QueueDepth: a.cfg.Pipeline.QueueDepth, Logger: a.logger}, failure...),
		a.runID,
		clock,
	)
	return nil
}

func (a *App) buildArchiver(ctx context.Context) error {
	var store storage.BlobStore
	switch a.cfg.Archive.Kind {
	case config.ArchiveNone:
		return nil
	case config.ArchiveLocal:
		s, err := local.New(local.Config{BaseDir: a.cfg.Archive.BaseDir})
		if err != nil {
			return fmt.Errorf("init local archive: %w", err)
		}
		store = s
	case config.ArchiveGCS:
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("init gcs client: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		s, err := gcs.New(client, gcs.Config{Bucket: a.cfg.Archive.GCSBucket})
		if err != nil {
			return fmt.Errorf("init gcs archive: %w", err)
		}
		store = s
	default:
		return fmt.Errorf("unknown archive.kind %q", a.cfg.Archive.Kind)
	}
	a.archiver = storage.NewArchiver(store, a.cfg.Archive.Prefix, a.logger)
	return nil
}

// RunID identifies this run in records, archives and the API.
func (a *App) RunID() string {
	return a.runID
}

// Logger returns the run-scoped logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Orchestrator returns the pipeline.
func (a *App) Orchestrator() *pipeline.Orchestrator {
	return a.orchestrator
}

// Progress reports the pipeline's live counters.
func (a *App) Progress() pipeline.Progress {
	return a.orchestrator.Progress()
}

// Run plans domains and processes them.
func (a *App) Run(ctx context.Context, domains []categorizer.Domain) (pipeline.Summary, error) {
	return a.orchestrator.Run(ctx, a.orchestrator.Plan(domains))
}

// Finish drains the result logs, archives them when configured and releases
// every service.
func (a *App) Finish(ctx context.Context) error {
	var errs []error
	if a.sink != nil {
		if err := a.sink.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		a.sink = nil
	}
	if a.archiver != nil {
		if _, err := a.archiver.Archive(ctx, a.runID, a.cfg.Output.SuccessPath, a.cfg.Output.FailurePath); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.closeAll(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) closeAll(ctx context.Context) error {
	var errs []error
	if a.sink != nil {
		if err := a.sink.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		a.sink = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
