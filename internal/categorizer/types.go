package categorizer

import (
	"strings"
	"time"
)

// Domain is a lowercase, trimmed hostname. Identity is string equality.
type Domain string

// NormalizeDomain lowercases and trims a raw hostname.
func NormalizeDomain(raw string) Domain {
	return Domain(strings.ToLower(strings.TrimSpace(raw)))
}

// String returns the hostname.
func (d Domain) String() string {
	return string(d)
}

// Category is a single allow-list label.
type Category string

// String returns the label.
func (c Category) String() string {
	return string(c)
}

// Digest is the ranked keyword summary extracted from a page, most frequent
// token first.
type Digest []string

// String joins the tokens with single spaces, the form sent to the model.
func (d Digest) String() string {
	return strings.Join(d, " ")
}

// Chars returns the byte length of the joined digest.
func (d Digest) Chars() int {
	return len(d.String())
}

// Classification pairs a domain with its accepted category.
type Classification struct {
	Domain   Domain
	Category Category
}

// Page is a fetched homepage.
type Page struct {
	Domain     Domain
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// State is a step of the per-domain workflow.
type State string

// Workflow states. FetchFailed, ClassifyFailed and Classified are terminal.
const (
	StatePending        State = "pending"
	StateFetching       State = "fetching"
	StateFetchFailed    State = "fetch_failed"
	StateExtracted      State = "extracted"
	StateClassifying    State = "classifying"
	StateClassifyFailed State = "classify_failed"
	StateClassified     State = "classified"
)

// Terminal reports whether no further transition can happen from s.
func (s State) Terminal() bool {
	switch s {
	case StateFetchFailed, StateClassifyFailed, StateClassified:
		return true
	default:
		return false
	}
}

// Succeeded reports whether s ends in a recorded classification.
func (s State) Succeeded() bool {
	return s == StateClassified
}

// Outcome is the terminal result of one domain workflow.
type Outcome struct {
	Domain   Domain
	State    State
	Category Category
	Err      error
	Duration time.Duration
}
