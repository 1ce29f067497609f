// Package errors provides centralized error handling for vcsync.
//
// This package defines sentinel errors used for programmatic error
// categorization throughout the application. All error types can be checked
// using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrToolMissing indicates that a required external VCS binary could not
	// be invoked at all. Surfaced once at adapter construction, never retried.
	ErrToolMissing = errors.New("required tool missing")

	// ErrCommandLaunch indicates that the operating system failed to start an
	// external process (as opposed to the process running and failing).
	ErrCommandLaunch = errors.New("command launch failed")

	// ErrCommandFailed indicates that an external tool ran and returned a
	// nonzero exit code. Adapters recover this into a boolean-false result.
	ErrCommandFailed = errors.New("command failed")

	// ErrCommandTimeout indicates that an external command exceeded its
	// wall-clock timeout and its process group was terminated.
	ErrCommandTimeout = errors.New("command timed out")

	// ErrUnsafeMove indicates that a requested update would leave the current
	// commit unreachable from any branch or tag.
	ErrUnsafeMove = errors.New("update would orphan current commit")

	// ErrRebaseConflict indicates that a fast-forward attempt hit a conflict
	// the underlying tool could not resolve.
	ErrRebaseConflict = errors.New("fast-forward conflict")

	// ErrNotWorkingCopy indicates that a path is not a working copy of the
	// expected VCS kind.
	ErrNotWorkingCopy = errors.New("not a working copy")

	// ErrUnknownKind indicates a VCS kind tag with no registered adapter.
	ErrUnknownKind = errors.New("unknown vcs kind")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrManifestInvalid indicates a workspace manifest that failed validation.
	ErrManifestInvalid = errors.New("invalid manifest")

	// ErrConfigInvalid indicates an invalid configuration value.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrArchiveInvalid indicates a tarball that could not be read or that
	// contains unsafe member paths.
	ErrArchiveInvalid = errors.New("invalid archive")

	// ErrCommandNotConfigured indicates that a scripted command was not
	// configured in tests.
	ErrCommandNotConfigured = errors.New("command not configured")
)
