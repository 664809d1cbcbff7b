// Package errors provides error handling for the Vay ingestion pipeline.
//
// It re-exports github.com/cockroachdb/errors so the rest of the codebase gets
// stack traces, wrapping, and errors.Is/As inspection from a single import,
// plus the pipeline's sentinel errors.
//
// Usage:
//
//	if err := store.UpsertProduct(p); err != nil {
//	    return errors.Wrap(err, "persist product")
//	}
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

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors for the ingestion pipeline.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrStoreUnavailable indicates the embedded database could not be opened
	// or initialized. This is the fatal infrastructure class: a run must not
	// start when it is raised.
	ErrStoreUnavailable = New("store unavailable")

	// ErrNotFound indicates the requested row does not exist
	ErrNotFound = New("not found")

	// ErrInvalidConfig indicates the effective configuration is unusable
	ErrInvalidConfig = New("invalid configuration")
)

// IsStoreUnavailable checks if an error is or wraps ErrStoreUnavailable
func IsStoreUnavailable(err error) bool {
	return err != nil && Is(err, ErrStoreUnavailable)
}

// IsNotFound checks if an error is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}
