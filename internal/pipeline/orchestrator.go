// Package pipeline drives per-domain categorization workflows in fixed-size
// batches and routes every outcome to a Recorder.
package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/domain-categorizer/internal/categorizer"
	"github.com/JakeFAU/domain-categorizer/internal/metrics"
	"github.com/JakeFAU/domain-categorizer/internal/telemetry"
)

const (
	defaultBatchSize      = 32
	defaultMinDigestChars = 3
)

// Config tunes planning and batching.
type Config struct {
	BatchSize      int
	Shuffle        bool
	Seed           uint64
	Limit          int
	MinDigestChars int
}

// Skipper reports domains that a previous run already classified.
type Skipper interface {
	Done(domain categorizer.Domain) bool
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithSkipper filters planned domains through s.
func WithSkipper(s Skipper) Option {
	return func(o *Orchestrator) {
		o.skipper = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator owns the run: planning, batching and outcome routing.
type Orchestrator struct {
	cfg        Config
	extractor  categorizer.Extractor
	classifier categorizer.Classifier
	recorder   categorizer.Recorder
	skipper    Skipper
	logger     *zap.Logger
	rng        *rand.Rand
	progress   tracker
}

// New builds an Orchestrator.
func New(
	cfg Config,
	extractor categorizer.Extractor,
	classifier categorizer.Classifier,
	recorder categorizer.Recorder,
	opts ...Option,
) (*Orchestrator, error) {
	if extractor == nil || classifier == nil || recorder == nil {
		return nil, fmt.Errorf("extractor, classifier and recorder are required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.MinDigestChars <= 0 {
		cfg.MinDigestChars = defaultMinDigestChars
	}
	if cfg.Limit < 0 {
		return nil, fmt.Errorf("limit must be >= 0")
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	o := &Orchestrator{
		cfg:        cfg,
		extractor:  extractor,
		classifier: classifier,
		recorder:   recorder,
		logger:     zap.NewNop(),
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Plan dedupes, shuffles, drops resumed domains and applies the limit.
func (o *Orchestrator) Plan(domains []categorizer.Domain) []categorizer.Domain {
	set := make([]categorizer.Domain, 0, len(domains))
	for _, d := range domains {
		if d = categorizer.NormalizeDomain(string(d)); d != "" {
			set = append(set, d)
		}
	}
	slices.Sort(set)
	set = slices.Compact(set)

	if o.cfg.Shuffle {
		o.rng.Shuffle(len(set), func(i, j int) {
			set[i], set[j] = set[j], set[i]
		})
	}

	planned := set[:0]
	skipped := 0
	for _, d := range set {
		if o.skipper != nil && o.skipper.Done(d) {
			skipped++
			continue
		}
		planned = append(planned, d)
	}
	if o.cfg.Limit > 0 && len(planned) > o.cfg.Limit {
		planned = planned[:o.cfg.Limit]
	}

	o.progress.update(func(p *Progress) {
		p.Planned = len(planned)
		p.Skipped = skipped
	})
	o.logger.Info("run planned",
		zap.Int("domains", len(set)),
		zap.Int("skipped", skipped),
		zap.Int("planned", len(planned)),
	)
	return planned
}

// Run processes domains one batch at a time. Every workflow of a batch
// reaches a terminal state before the next batch starts. Once ctx is done
// no further batch starts and Run returns the context error.
func (o *Orchestrator) Run(ctx context.Context, domains []categorizer.Domain) (Summary, error) {
	start := time.Now()
	batches := (len(domains) + o.cfg.BatchSize - 1) / o.cfg.BatchSize
	o.progress.update(func(p *Progress) {
		p.Planned = len(domains)
		p.Batches = batches
		p.StartedAt = start
	})

	var runErr error
	for i, batch := range chunk(domains, o.cfg.BatchSize) {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		o.progress.update(func(p *Progress) { p.Batch = i + 1 })
		o.logger.Info("batch started", zap.Int("batch", i+1), zap.Int("of", batches), zap.Int("size", len(batch)))

		var g errgroup.Group
		for _, d := range batch {
			g.Go(func() error {
				o.Process(ctx, d)
				return nil
			})
		}
		_ = g.Wait()
	}
	if runErr == nil {
		runErr = ctx.Err()
	}

	p := o.progress.snapshot()
	sum := Summary{
		Planned:   len(domains),
		Succeeded: p.Succeeded,
		Failed:    p.Failed,
		Canceled:  p.Canceled,
		Duration:  time.Since(start),
	}
	o.logger.Info("run finished",
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed),
		zap.Int("canceled", sum.Canceled),
		zap.Duration("duration", sum.Duration),
	)
	if runErr != nil {
		return sum, fmt.Errorf("run interrupted: %w", runErr)
	}
	return sum, nil
}

// Process runs one domain through extraction and classification and records
// the outcome. Failures caused by ctx being done are not recorded.
func (o *Orchestrator) Process(ctx context.Context, domain categorizer.Domain) categorizer.Outcome {
	start := time.Now()
	o.progress.begin()
	metrics.IncInFlight()
	defer metrics.DecInFlight()

	ctx, span := telemetry.Tracer().Start(ctx, "categorize",
		trace.WithAttributes(attribute.String("domain", domain.String())))
	defer span.End()

	out := o.workflow(ctx, domain)
	out.Duration = time.Since(start)

	canceled := out.Err != nil && ctx.Err() != nil
	if canceled {
		out.Err = fmt.Errorf("%w: %w", ctx.Err(), out.Err)
	}
	o.progress.end(out.State.Succeeded(), canceled)

	reason := categorizer.Reason(out.Err)
	metrics.ObserveDomain(string(out.State), reason)
	span.SetAttributes(attribute.String("state", string(out.State)))
	if out.Err != nil {
		span.SetStatus(codes.Error, reason)
	}

	switch {
	case canceled:
		o.logger.Info("domain interrupted",
			zap.String("domain", domain.String()),
			zap.String("state", string(out.State)),
		)
	case out.State.Succeeded():
		o.logger.Info("domain classified",
			zap.String("domain", domain.String()),
			zap.String("category", out.Category.String()),
			zap.Duration("duration", out.Duration),
		)
		o.record(ctx, domain, func(rctx context.Context) error {
			return o.recorder.RecordSuccess(rctx, categorizer.Classification{Domain: domain, Category: out.Category})
		})
	default:
		o.logger.Warn("domain failed",
			zap.String("domain", domain.String()),
			zap.String("state", string(out.State)),
			zap.String("reason", reason),
			zap.Error(out.Err),
		)
		o.record(ctx, domain, func(rctx context.Context) error {
			return o.recorder.RecordFailure(rctx, domain)
		})
	}
	return out
}

func (o *Orchestrator) workflow(ctx context.Context, domain categorizer.Domain) categorizer.Outcome {
	out := categorizer.Outcome{Domain: domain, State: categorizer.StateFetching}

	stageStart := time.Now()
	digest, err := o.extractor.Extract(ctx, domain)
	metrics.ObserveStage("extract", time.Since(stageStart))
	if err != nil {
		out.State, out.Err = categorizer.StateFetchFailed, err
		return out
	}
	if n := digest.Chars(); n < o.cfg.MinDigestChars {
		out.State = categorizer.StateFetchFailed
		out.Err = fmt.Errorf("%w: %d chars", categorizer.ErrExtractionTooShort, n)
		return out
	}
	out.State = categorizer.StateExtracted
	o.logger.Debug("digest ready",
		zap.String("domain", domain.String()),
		zap.String("state", string(out.State)),
		zap.Int("tokens", len(digest)),
	)

	out.State = categorizer.StateClassifying
	stageStart = time.Now()
	c, err := o.classifier.Classify(ctx, domain, digest)
	metrics.ObserveStage("classify", time.Since(stageStart))
	if err != nil {
		out.State, out.Err = categorizer.StateClassifyFailed, err
		return out
	}
	out.State, out.Category = categorizer.StateClassified, c.Category
	return out
}

// record submits with a context that outlives cancellation so finished
// outcomes still reach the queue during shutdown.
func (o *Orchestrator) record(ctx context.Context, domain categorizer.Domain, submit func(context.Context) error) {
	if err := submit(context.WithoutCancel(ctx)); err != nil {
		o.logger.Error("record outcome",
			zap.String("domain", domain.String()),
			zap.Error(err),
		)
	}
}

// Progress returns a snapshot of the current run.
func (o *Orchestrator) Progress() Progress {
	return o.progress.snapshot()
}

func chunk(domains []categorizer.Domain, size int) [][]categorizer.Domain {
	var out [][]categorizer.Domain
	for batch := range slices.Chunk(domains, size) {
		out = append(out, batch)
	}
	return out
}
