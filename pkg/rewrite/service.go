// Package rewrite defines the Rewrite Service contract consumed by the tone
// engine, its error kinds, and the cleanup applied to every service answer.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultDirective is the style directive used when none is configured.
const DefaultDirective = "Rewrite the text so it sounds calm, kind, clear and emotionally safe for autistic readers. " +
	"Keep the meaning and every fact. Soften harsh words, shouting and exaggeration. " +
	"Reply with the rewritten text only."

var (
	// ErrUnavailable means no rewriting capability is present.
	ErrUnavailable = errors.New("rewrite service unavailable")
	// ErrRejected means the service refused this input.
	ErrRejected = errors.New("rewrite input rejected")
	// ErrTimeout means no result arrived within the call's time bound.
	ErrTimeout = errors.New("rewrite timed out")
	// ErrFailed is any other failed call.
	ErrFailed = errors.New("rewrite failed")
)

// Availability is the answer to an availability check.
type Availability struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

// Ready is a convenience for an available service.
func Ready() Availability { return Availability{Ready: true} }

// NotReady builds an unavailable answer with a reason.
func NotReady(reason string) Availability { return Availability{Reason: reason} }

// Service rewrites one unit of text according to a style directive.
//
// Implementations may stream internally but must return the complete result.
// The answer may contain explanatory noise; callers clean it with Sanitize.
type Service interface {
	IsAvailable(ctx context.Context) Availability
	Rewrite(ctx context.Context, text, directive string) (string, error)
}

// Kind classifies a service error.
type Kind string

const (
	KindNone        Kind = ""
	KindUnavailable Kind = "unavailable"
	KindRejected    Kind = "rejected"
	KindTimeout     Kind = "timeout"
	KindCanceled    Kind = "canceled"
	KindFailure     Kind = "failure"
)

// Classify maps err onto a Kind using sentinel errors only.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrRejected):
		return KindRejected
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	default:
		return KindFailure
	}
}

type timeoutService struct {
	Service
	timeout time.Duration
}

// WithTimeout bounds every Rewrite call on svc. A call that outlives the bound
// fails with ErrTimeout; cancellation of the caller's context is passed
// through unchanged. A non-positive timeout returns svc as is.
func WithTimeout(svc Service, timeout time.Duration) Service {
	if timeout <= 0 {
		return svc
	}
	return &timeoutService{Service: svc, timeout: timeout}
}

func (s *timeoutService) Rewrite(ctx context.Context, text, directive string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		out, err := s.Service.Rewrite(callCtx, text, directive)
		done <- result{out, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s: %v", ErrTimeout, s.timeout, r.err)
		}
		return r.text, r.err
	case <-callCtx.Done():
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("%w after %s", ErrTimeout, s.timeout)
	}
}
