// Package errors provides error handling for brieflex.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := createSession(); err != nil {
//	    return errors.Wrap(err, "failed to create capability session")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrInvocationTimeout) {
//	    // handle timeout
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinel errors for the AI invocation layer.
// Use these with errors.Is() for type-safe error checking.
// Wrap them with errors.Wrap() to add context while preserving the type.
var (
	// ErrCapabilityUnavailable indicates the host exposes no usable binding
	// for the requested capability family on this device.
	ErrCapabilityUnavailable = New("ai capability not available")

	// ErrInvocationTimeout indicates a bounded invocation expired before the
	// host capability call resolved.
	ErrInvocationTimeout = New("invocation timed out")

	// ErrRateLimited indicates the host rejected a call due to quota or
	// rate limits.
	ErrRateLimited = New("rate limited")

	// ErrModelLoading indicates the model behind a capability is still
	// downloading or warming up.
	ErrModelLoading = New("model loading")

	// ErrInputTooLarge indicates an input exceeded what a single host call
	// can accept even after chunking.
	ErrInputTooLarge = New("input too large")

	// ErrEmptyResult indicates the host returned an empty completion where a
	// non-empty string was required.
	ErrEmptyResult = New("empty result from capability")
)

// IsCapabilityUnavailable checks if an error is or wraps ErrCapabilityUnavailable.
func IsCapabilityUnavailable(err error) bool {
	return err != nil && Is(err, ErrCapabilityUnavailable)
}

// IsInvocationTimeout checks if an error is or wraps ErrInvocationTimeout.
func IsInvocationTimeout(err error) bool {
	return err != nil && Is(err, ErrInvocationTimeout)
}

// IsRateLimited checks if an error is or wraps ErrRateLimited.
func IsRateLimited(err error) bool {
	return err != nil && Is(err, ErrRateLimited)
}

// NewUnavailableError creates a capability-unavailable error with a formatted message.
func NewUnavailableError(format string, args ...interface{}) error {
	return Wrap(ErrCapabilityUnavailable, Newf(format, args...).Error())
}
