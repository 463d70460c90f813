// Package cortexerrors provides the closed set of error kinds Cortex's
// components classify every collaborator failure into.
package cortexerrors

import "fmt"

// Kind is the closed set of error classifications from the error handling
// design: validation failures, degraded upstream calls, invariant
// violations, missed lifecycle ticks, and fatal store unavailability.
type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindUpstream      Kind = "UPSTREAM_FAILURE"
	KindInvariant     Kind = "INVARIANT"
	KindScheduleMiss  Kind = "SCHEDULE_MISS"
	KindFatal         Kind = "FATAL"
)

// CortexError is the error type every core component returns. Kind carries
// the classification used by callers to decide whether to surface, degrade,
// or log-and-continue.
type CortexError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *CortexError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CortexError) Unwrap() error {
	return e.Err
}

// NewValidation reports malformed input, an unknown category/predicate, or
// an out-of-range numeric field. Surfaced to the caller with 4xx semantics;
// never logged at error level.
func NewValidation(message string) error {
	return &CortexError{Kind: KindValidation, Message: message}
}

// NewUpstream reports an LLM, embedding, or vector backend call that failed
// or timed out. Always recoverable locally: the caller degrades to a safe
// default rather than aborting the operation.
func NewUpstream(message string, err error) error {
	return &CortexError{Kind: KindUpstream, Message: message, Err: err}
}

// NewInvariant reports a store write that would violate a data-model
// invariant (layer/expires mismatch, a supersede cycle). Fatal for the
// single operation; the store itself remains consistent.
func NewInvariant(message string) error {
	return &CortexError{Kind: KindInvariant, Message: message}
}

// NewScheduleMiss reports a lifecycle tick that overran its batch budget.
// Not surfaced to API callers; the remaining work is picked up next tick.
func NewScheduleMiss(message string) error {
	return &CortexError{Kind: KindScheduleMiss, Message: message}
}

// NewFatal reports the store being unavailable or corrupted. The process
// should refuse writes and report itself unhealthy.
func NewFatal(message string, err error) error {
	return &CortexError{Kind: KindFatal, Message: message, Err: err}
}

// Is reports whether err is a CortexError of the given kind.
func Is(err error, kind Kind) bool {
	ce, ok := err.(*CortexError)
	return ok && ce.Kind == kind
}
