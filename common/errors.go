// Package common provides shared constants, types, and utilities
// used across the Nebula Tower application.
package common

import (
	"errors"
	"fmt"
)

// Sentinel errors for supervision and provisioning.
// These can be checked with errors.Is() for proper error handling.
var (
	// Process errors.
	ErrBinaryNotFound = errors.New("nebula binary not found (install via tray or scripts/install_nebula.sh)")
	ErrSpawnFailure   = errors.New("failed to spawn nebula")
	ErrNotReady       = errors.New("nebula is not ready")

	// Provisioning errors.
	ErrRedeemRejected    = errors.New("invite redemption rejected")
	ErrNetworkFailure    = errors.New("network failure")
	ErrMalformedArchive  = errors.New("malformed provisioning archive")
	ErrExtractionFailure = errors.New("failed to extract archive entry")

	// Configuration errors.
	ErrPersistFailure = errors.New("failed to persist settings")
)

// RedeemRejectedError reports a non-success HTTP status from the enrollment service.
type RedeemRejectedError struct {
	StatusCode int
	// Body is the response body captured for diagnostics, possibly truncated.
	Body string
}

func (e *RedeemRejectedError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", ErrRedeemRejected, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", ErrRedeemRejected, e.StatusCode, e.Body)
}

func (e *RedeemRejectedError) Is(target error) bool {
	return target == ErrRedeemRejected
}

// ExtractionError reports the archive entry whose write failed.
type ExtractionError struct {
	Entry string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s %q: %v", ErrExtractionFailure, e.Entry, e.Err)
}

func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtractionFailure
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
