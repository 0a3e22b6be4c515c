package categorizer

import (
	"context"
	"time"
)

// Fetcher retrieves the homepage of a domain.
type Fetcher interface {
	Fetch(ctx context.Context, domain Domain) (Page, error)
}

// Extractor reduces a domain's homepage to a keyword digest.
type Extractor interface {
	Extract(ctx context.Context, domain Domain) (Digest, error)
}

// Completer sends a prompt to the completion service and returns its answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Classifier turns a digest into a validated classification.
type Classifier interface {
	Classify(ctx context.Context, domain Domain, digest Digest) (Classification, error)
}

// Recorder persists workflow outcomes. Implementations serialize writes and
// never surface storage failures to the caller.
type Recorder interface {
	RecordSuccess(ctx context.Context, c Classification) error
	RecordFailure(ctx context.Context, domain Domain) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
