// Package sink persists classification outcomes. Each log is owned by a
// Writer whose single consumer goroutine appends records in arrival order.
package sink

import (
	"context"
	"time"

	"github.com/JakeFAU/domain-categorizer/internal/categorizer"
)

// Log names, used as metric labels.
const (
	LogSuccess = "success"
	LogFailure = "failure"
)

// Record is one outcome queued for persistence. Category is empty for
// failures. Trace holds the W3C trace context of the workflow that produced
// the outcome; it travels as message attributes, not in the payload.
type Record struct {
	RunID      string               `json:"run_id"`
	Domain     categorizer.Domain   `json:"domain"`
	Category   categorizer.Category `json:"category,omitempty"`
	RecordedAt time.Time            `json:"recorded_at"`
	Trace      map[string]string    `json:"-"`
}

// Appender persists records. Writers call Append from a single goroutine.
type Appender interface {
	Append(ctx context.Context, rec Record) error
	Close(ctx context.Context) error
}

// SuccessLine renders a success log line without the trailing newline.
func SuccessLine(rec Record) string {
	return rec.Domain.String() + "," + string(rec.Category)
}

// FailureLine renders a failure log line without the trailing newline.
func FailureLine(rec Record) string {
	return rec.Domain.String()
}
