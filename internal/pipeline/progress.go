package pipeline

import (
	"sync"
	"time"
)

// Progress is a point-in-time view of a run.
type Progress struct {
	Planned      int       `json:"planned"`
	Skipped      int       `json:"skipped"`
	Completed    int       `json:"completed"`
	Succeeded    int       `json:"succeeded"`
	Failed       int       `json:"failed"`
	Canceled     int       `json:"canceled"`
	InFlight     int       `json:"in_flight"`
	PeakInFlight int       `json:"peak_in_flight"`
	Batch        int       `json:"batch"`
	Batches      int       `json:"batches"`
	StartedAt    time.Time `json:"started_at,omitzero"`
}

// Summary is returned by Run once the last batch finishes.
type Summary struct {
	Planned   int
	Succeeded int
	Failed    int
	Canceled  int
	Duration  time.Duration
}

type tracker struct {
	mu sync.Mutex
	p  Progress
}

func (t *tracker) snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.p
}

func (t *tracker) update(fn func(p *Progress)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.p)
}

func (t *tracker) begin() {
	t.update(func(p *Progress) {
		p.InFlight++
		p.PeakInFlight = max(p.PeakInFlight, p.InFlight)
	})
}

func (t *tracker) end(succeeded, canceled bool) {
	t.update(func(p *Progress) {
		p.InFlight--
		switch {
		case canceled:
			p.Canceled++
			return
		case succeeded:
			p.Succeeded++
		default:
			p.Failed++
		}
		p.Completed++
	})
}
