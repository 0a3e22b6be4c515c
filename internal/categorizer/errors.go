package categorizer

import (
	"context"
	"errors"
)

// Failure taxonomy. Components wrap these with %w so callers can route on
// errors.Is.
var (
	// ErrFetch covers transport errors, timeouts and non-success statuses,
	// for both the homepage fetch and the completion service call.
	ErrFetch = errors.New("fetch failed")
	// ErrParse is returned when markup or a selector cannot be processed.
	ErrParse = errors.New("parse failed")
	// ErrExtractionTooShort marks a digest below the minimum length.
	ErrExtractionTooShort = errors.New("extraction too short")
	// ErrEmptyResponse marks an empty model answer.
	ErrEmptyResponse = errors.New("empty response")
	// ErrMultiWordResponse marks a model answer with more than one token.
	ErrMultiWordResponse = errors.New("multi-word response")
	// ErrNotInAllowList marks a single-token answer that is not a known label.
	ErrNotInAllowList = errors.New("response not in allow-list")
	// ErrSinkWrite marks a failure to persist a result.
	ErrSinkWrite = errors.New("sink write failed")
)

// Reason maps an error to a short code for logs and metric labels.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrExtractionTooShort):
		return "too_short"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, ErrMultiWordResponse):
		return "multi_word"
	case errors.Is(err, ErrNotInAllowList):
		return "not_in_allow_list"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrFetch), errors.Is(err, context.DeadlineExceeded):
		return "fetch"
	case errors.Is(err, ErrSinkWrite):
		return "sink_write"
	default:
		return "unknown"
	}
}
