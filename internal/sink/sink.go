package sink

import (
	"context"
	"fmt"

	"github.com/JakeFAU/domain-categorizer/internal/categorizer"
	"github.com/JakeFAU/domain-categorizer/internal/telemetry"
)

// Sink routes outcomes to the success and failure writers. It implements
// categorizer.Recorder. Recording a domain twice produces two records.
type Sink struct {
	success *Writer
	failure *Writer
	runID   string
	clock   categorizer.Clock
}

// New builds a Sink over the two writers.
func New(success, failure *Writer, runID string, clock categorizer.Clock) *Sink {
	return &Sink{success: success, failure: failure, runID: runID, clock: clock}
}

// RecordSuccess queues a classification for the success log.
func (s *Sink) RecordSuccess(ctx context.Context, c categorizer.Classification) error {
	return s.success.Submit(ctx, Record{
		RunID:      s.runID,
		Domain:     c.Domain,
		Category:   c.Category,
		RecordedAt: s.clock.Now(),
		Trace:      telemetry.Carrier(ctx),
	})
}

// RecordFailure queues a domain for the failure log.
func (s *Sink) RecordFailure(ctx context.Context, domain categorizer.Domain) error {
	return s.failure.Submit(ctx, Record{
		RunID:      s.runID,
		Domain:     domain,
		RecordedAt: s.clock.Now(),
		Trace:      telemetry.Carrier(ctx),
	})
}

// Close drains and closes both writers.
func (s *Sink) Close(ctx context.Context) error {
	errSuccess := s.success.Close(ctx)
	errFailure := s.failure.Close(ctx)
	if errSuccess != nil {
		return fmt.Errorf("close success log: %w", errSuccess)
	}
	if errFailure != nil {
		return fmt.Errorf("close failure log: %w", errFailure)
	}
	return nil
}
