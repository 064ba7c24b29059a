package genai

import (
	"errors"
	"fmt"
)

// FailureKind classifies generation failures so the retry loop can branch on
// structure instead of matching error text.
type FailureKind int

const (
	// FailureUnknown covers errors that did not come from a provider.
	FailureUnknown FailureKind = iota
	// FailureRateLimited signals upstream quota or throughput exhaustion. Retryable.
	FailureRateLimited
	// FailureMalformedResponse signals output that does not satisfy the
	// expected schema. Not retryable: malformed output is not transient.
	FailureMalformedResponse
	// FailureUpstreamUnavailable signals a network or auth failure, or an
	// exhausted retry budget. Not retryable.
	FailureUpstreamUnavailable
)

func (k FailureKind) String() string {
	switch k {
	case FailureRateLimited:
		return "rate_limited"
	case FailureMalformedResponse:
		return "malformed_response"
	case FailureUpstreamUnavailable:
		return "upstream_unavailable"
	default:
		return "unknown"
	}
}

// Failure is the typed error surfaced by providers and the client.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("genai: %s", f.Kind)
	}
	return fmt.Sprintf("genai: %s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// NewFailure wraps err with a failure kind.
func NewFailure(kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

// KindOf extracts the failure kind from an error chain.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return FailureUnknown
}

// IsRateLimited reports whether err is a retryable quota failure.
func IsRateLimited(err error) bool {
	return KindOf(err) == FailureRateLimited
}
