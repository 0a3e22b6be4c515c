package sink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/domain-categorizer/internal/categorizer"
	"github.com/JakeFAU/domain-categorizer/internal/metrics"
)

const (
	defaultQueueDepth    = 32
	defaultAppendTimeout = 10 * time.Second
)

// ErrClosed is returned by Submit after Close has been called.
var ErrClosed = errors.New("sink writer closed")

// WriterConfig controls a Writer.
//   - Name: log name used in logs and metric labels.
//   - QueueDepth: records buffered before Submit blocks (default 32).
//   - AppendTimeout: per-appender timeout for one record (default 10s).
//   - Logger: receives appender failures; defaults to a no-op logger.
type WriterConfig struct {
	Name          string
	QueueDepth    int
	AppendTimeout time.Duration
	Logger        *zap.Logger
}

// Writer serializes records from many producers onto its appenders. Records
// reach every appender in the order Submit accepted them. Appender failures
// are logged and counted, never returned to producers.
type Writer struct {
	cfg       WriterConfig
	appenders []Appender
	queue     chan Record
	doneCh    chan struct{}
	logger    *zap.Logger

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	closeCtx  context.Context
}

// NewWriter starts a Writer draining into appenders.
func NewWriter(cfg WriterConfig, appenders ...Appender) *Writer {
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = defaultQueueDepth
	}
	if cfg.AppendTimeout <= 0 {
		cfg.AppendTimeout = defaultAppendTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Writer{
		cfg:       cfg,
		appenders: append([]Appender(nil), appenders...),
		queue:     make(chan Record, cfg.QueueDepth),
		doneCh:    make(chan struct{}),
		logger:    logger.With(zap.String("log", cfg.Name)),
	}
	go w.run()
	return w
}

// Submit enqueues rec. It blocks only while the queue is full.
func (w *Writer) Submit(ctx context.Context, rec Record) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrClosed
	}
	select {
	case w.queue <- rec:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("submit %s record: %w", w.cfg.Name, ctx.Err())
	}
}

// Close stops intake, drains queued records, closes the appenders and waits
// for the consumer to exit. It is safe to call multiple times.
func (w *Writer) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.closeCtx = ctx
		close(w.queue)
		w.mu.Unlock()
	})
	select {
	case <-w.doneCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s writer close wait: %w", w.cfg.Name, ctx.Err())
	}
}

func (w *Writer) run() {
	defer close(w.doneCh)
	for rec := range w.queue {
		w.append(rec)
	}
	w.closeAppenders()
}

func (w *Writer) append(rec Record) {
	ok := true
	for _, a := range w.appenders {
		ctx, cancel := context.WithTimeout(context.Background(), w.cfg.AppendTimeout)
		err := a.Append(ctx, rec)
		cancel()
		if err != nil {
			ok = false
			metrics.ObserveSinkWriteError(w.cfg.Name)
			w.logger.Error("append failed, record dropped",
				zap.String("domain", rec.Domain.String()),
				zap.Error(fmt.Errorf("%w: %w", categorizer.ErrSinkWrite, err)),
			)
		}
	}
	if ok {
		metrics.ObserveRecord(w.cfg.Name)
	}
}

func (w *Writer) closeAppenders() {
	ctx := w.closeCtx
	if ctx == nil {
		ctx = context.Background()
	}
	for _, a := range w.appenders {
		if err := a.Close(ctx); err != nil {
			w.logger.Warn("appender close failed", zap.Error(err))
		}
	}
}
