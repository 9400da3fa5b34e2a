package tone

import (
	"context"
	"errors"
)

var (
	// ErrServiceUnavailable means the rewrite service reported not ready.
	ErrServiceUnavailable = errors.New("rewrite service unavailable")
	// ErrEmptyDocument means the selector found no eligible units.
	ErrEmptyDocument = errors.New("no eligible text units")
	// ErrTornDown means the document was closed or replaced mid-operation.
	ErrTornDown = errors.New("document torn down")
)

// Error codes carried in the error field of a failed result.
const (
	CodeNoRewriter    = "no_rewriter"
	CodeEmptyDocument = "empty_document"
	CodeTornDown      = "torn_down"
	CodeCanceled      = "canceled"
	CodeInternal      = "internal"
)

// Code maps a whole-pass error onto its wire code.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrServiceUnavailable):
		return CodeNoRewriter
	case errors.Is(err, ErrEmptyDocument):
		return CodeEmptyDocument
	case errors.Is(err, ErrTornDown):
		return CodeTornDown
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCanceled
	default:
		return CodeInternal
	}
}
