// Package classify maps arbitrary host-call failures into a small typed
// taxonomy with a retryability flag and a suggested recovery action.
//
// No raw host error ever crosses to the presentation layer: every failure
// is classified at the call site and surfaced as a Failure value.
package classify

import (
	"strings"
	"time"

	"github.com/brieflex/brieflex/errors"
)

// Kind is the failure classification.
type Kind string

const (
	KindNotAvailable  Kind = "ai_not_available"
	KindRateLimited   Kind = "rate_limited"
	KindModelLoading  Kind = "model_loading"
	KindNetworkError  Kind = "network_error"
	KindTimeout       Kind = "timeout"
	KindInputTooLarge Kind = "input_too_large"
	KindUnknown       Kind = "unknown"
)

// Action is the recovery suggestion surfaced with a failure.
type Action string

const (
	ActionSetupRequired Action = "setup_required"
	ActionRetryLater    Action = "retry_later"
	ActionRetry         Action = "retry"
	ActionReduceInput   Action = "reduce_input"
)

// Failure is the structured form every invocation error is reduced to.
type Failure struct {
	Kind            Kind      `json:"kind"`
	Operation       string    `json:"operation"`
	Message         string    `json:"message"`
	SuggestedAction Action    `json:"suggested_action"`
	Retryable       bool      `json:"retryable"`
	Timestamp       time.Time `json:"timestamp"`
}

// Classify reduces err to a Failure. Sentinel errors are recognized first
// via errors.Is; otherwise classification falls back to substring matching
// over the error message, first match wins:
//
//	"not available"/"undefined" → ai_not_available
//	"quota"/"limit"             → rate_limited
//	"model"                     → model_loading
//	"network"/"fetch"           → network_error
//	anything else               → unknown
//
// Classify never panics and always returns a structured Failure.
func Classify(err error, operation string) Failure {
	f := Failure{
		Operation: operation,
		Timestamp: time.Now(),
	}

	if err == nil {
		f.Kind = KindUnknown
		f.Message = "unknown error"
		f.SuggestedAction = ActionRetry
		f.Retryable = true
		return f
	}

	f.Message = err.Error()

	switch {
	case errors.Is(err, errors.ErrInvocationTimeout):
		f.Kind = KindTimeout
		f.SuggestedAction = ActionRetry
		f.Retryable = true
		return f
	case errors.Is(err, errors.ErrInputTooLarge):
		f.Kind = KindInputTooLarge
		f.SuggestedAction = ActionReduceInput
		f.Retryable = false
		return f
	case errors.Is(err, errors.ErrCapabilityUnavailable):
		f.Kind = KindNotAvailable
		f.SuggestedAction = ActionSetupRequired
		f.Retryable = false
		return f
	case errors.Is(err, errors.ErrRateLimited):
		f.Kind = KindRateLimited
		f.SuggestedAction = ActionRetryLater
		f.Retryable = true
		return f
	case errors.Is(err, errors.ErrModelLoading):
		f.Kind = KindModelLoading
		f.SuggestedAction = ActionRetryLater
		f.Retryable = true
		return f
	}

	msg := strings.ToLower(f.Message)
	switch {
	case strings.Contains(msg, "not available") || strings.Contains(msg, "undefined"):
		f.Kind = KindNotAvailable
		f.SuggestedAction = ActionSetupRequired
		f.Retryable = false

	case strings.Contains(msg, "quota") || strings.Contains(msg, "limit"):
		f.Kind = KindRateLimited
		f.SuggestedAction = ActionRetryLater
		f.Retryable = true

	case strings.Contains(msg, "model"):
		f.Kind = KindModelLoading
		f.SuggestedAction = ActionRetryLater
		f.Retryable = true

	case strings.Contains(msg, "network") || strings.Contains(msg, "fetch"):
		f.Kind = KindNetworkError
		f.SuggestedAction = ActionRetry
		f.Retryable = true

	default:
		f.Kind = KindUnknown
		f.SuggestedAction = ActionRetry
		f.Retryable = true
	}

	return f
}
