// Package uuid names categorizer runs. Run IDs are UUIDv7, so they sort by
// start time and the archive prefixes derived from them list in run order.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator hands out run IDs. The zero value is ready to use.
type Generator struct{}

// New returns a Generator for app wiring.
func New() *Generator {
	return &Generator{}
}

// NewID returns the ID stamped on a run's records, logs and archive path.
func (Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return id.String(), nil
}
