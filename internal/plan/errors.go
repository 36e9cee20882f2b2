// Package plan implements the declarative plan engine: selector compilation
// into concrete targets, atomic multi-step execution with position
// remapping, non-uniform inline-style resolution, cross-block span targets,
// and optimistic revision control.
package plan

import (
	"errors"
	"fmt"
	"strings"
)

// Code is a machine-readable failure class. Every pre-commit failure the
// engine raises carries one.
type Code string

const (
	// CodeTargetNotFound: a selector matched zero candidates where at least
	// one was required.
	CodeTargetNotFound Code = "TARGET_NOT_FOUND"
	// CodeAmbiguousTarget: a selector matched several candidates where
	// exactly one was required.
	CodeAmbiguousTarget Code = "AMBIGUOUS_TARGET"
	// CodeInvalidInput: malformed step arguments, an unknown operation, or
	// a schema missing a required node type.
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeStyleConflict: non-uniform styling under a require-uniform policy.
	CodeStyleConflict Code = "STYLE_CONFLICT"
	// CodeSpanFragmented: a prior step in the same plan broke a span
	// target's contiguity.
	CodeSpanFragmented Code = "SPAN_FRAGMENTED"
	// CodePreconditionFailed: an assert step's expected count did not match
	// the post-mutation count.
	CodePreconditionFailed Code = "PRECONDITION_FAILED"
	// CodeRevisionMismatch: the caller's expected revision is stale.
	CodeRevisionMismatch Code = "REVISION_MISMATCH"
	// CodeRevisionChangedSinceCompile: the document moved between compiling
	// a plan and executing it.
	CodeRevisionChangedSinceCompile Code = "REVISION_CHANGED_SINCE_COMPILE"
	// CodeInternal: an engine-owned invariant was violated. Not caller
	// recoverable.
	CodeInternal Code = "INTERNAL_ERROR"
)

// Error is the engine's typed failure: code, human message, originating
// step id and structured details. The whole plan is discarded whenever one
// is returned.
type Error struct {
	Code    Code
	Message string
	StepID  string
	Details map[string]any
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.StepID != "" {
		fmt.Fprintf(&b, " (step %s)", e.StepID)
	}
	return b.String()
}

func newError(code Code, stepID, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), StepID: stepID}
}

func (e *Error) withDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// CodeOf extracts the failure code, or empty when err is not a plan error.
func CodeOf(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsCode reports whether err is a plan error with the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
