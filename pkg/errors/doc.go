// Package errors provides structured error types for apexctl.
//
// StructuredError carries a stable error code alongside the human-readable
// message and the wrapped cause, so callers can branch on failure class
// (not-found vs. unreachable vs. invalid input) without string matching.
package errors
