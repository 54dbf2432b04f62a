package models

import (
	"errors"
	"fmt"
)

// Recoverable pipeline conditions. None of these is fatal to a batch run;
// the orchestrator converts them into per-company outcomes.
var (
	// ErrMalformedDocument means the normalizer could not produce usable
	// text (empty or purely tabular filing). Skip the company/year.
	ErrMalformedDocument = errors.New("malformed document: no extractable text")

	// ErrSectionNotFound means no valid Item 1A heading was located.
	// Smaller reporting companies may legitimately omit the section.
	ErrSectionNotFound = errors.New("item 1A risk factors section not found")

	// ErrAnalysisUnavailable means the external analysis capability failed
	// for every chunk pair of a comparison.
	ErrAnalysisUnavailable = errors.New("analysis capability unavailable")
)

// RetrievalKind classifies filing retrieval failures.
type RetrievalKind string

const (
	RetrievalNotFound    RetrievalKind = "not_found"
	RetrievalRateLimited RetrievalKind = "rate_limited"
	RetrievalTransient   RetrievalKind = "transient"
)

// RetrievalError wraps a filing retrieval failure with its classification.
// RateLimited and Transient are retryable by the caller; the core itself
// never retries.
type RetrievalError struct {
	Kind RetrievalKind
	Op   string // e.g. "fetch submissions", "download filing"
	Err  error
}

func (e *RetrievalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("retrieval %s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("retrieval %s: %s", e.Kind, e.Op)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a retrieval failure the caller may
// retry (rate limiting or a transient network condition).
func IsRetryable(err error) bool {
	var re *RetrievalError
	if errors.As(err, &re) {
		return re.Kind == RetrievalRateLimited || re.Kind == RetrievalTransient
	}
	return false
}
