// Package llmrewriter implements the Rewrite Service on top of a chat model.
package llmrewriter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/LuyGGG/MonoMind/pkg/llm"
	"github.com/LuyGGG/MonoMind/pkg/llm/openai"
	"github.com/LuyGGG/MonoMind/pkg/llm/tokenizer"
	"github.com/LuyGGG/MonoMind/pkg/logging"
	"github.com/LuyGGG/MonoMind/pkg/rewrite"
	"github.com/LuyGGG/MonoMind/pkg/types"
)

// SharedContext frames every request to the model.
const SharedContext = "This tool rewrites web page text to sound calm, kind, clear, and emotionally safe for autistic readers. " +
	"You receive one fragment of a page at a time. Answer with the rewritten fragment only: " +
	"no preamble, no quotes, no explanations, no markup."

// DefaultMaxInputTokens caps the size of a single unit sent to the model.
const DefaultMaxInputTokens = 2048

// Rewriter is a rewrite.Service backed by an llm.Provider.
type Rewriter struct {
	provider       llm.Provider
	counter        tokenizer.Counter
	maxInputTokens int
	sharedContext  string
	logger         *logging.Logger
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithCounter sets the token counter used by the input-size guard.
func WithCounter(c tokenizer.Counter) Option {
	return func(r *Rewriter) {
		if c != nil {
			r.counter = c
		}
	}
}

// WithMaxInputTokens overrides DefaultMaxInputTokens. Zero or less disables
// the guard.
func WithMaxInputTokens(n int) Option {
	return func(r *Rewriter) {
		r.maxInputTokens = n
	}
}

// WithSharedContext replaces SharedContext.
func WithSharedContext(s string) Option {
	return func(r *Rewriter) {
		if s != "" {
			r.sharedContext = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Rewriter) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Rewriter over provider.
func New(provider llm.Provider, opts ...Option) *Rewriter {
	r := &Rewriter{
		provider:       provider,
		counter:        tokenizer.New(""),
		maxInputTokens: DefaultMaxInputTokens,
		sharedContext:  SharedContext,
		logger:         logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsAvailable asks the provider for readiness when it supports it.
func (r *Rewriter) IsAvailable(ctx context.Context) rewrite.Availability {
	if r.provider == nil {
		return rewrite.NotReady("no model provider configured")
	}
	checker, ok := r.provider.(llm.AvailabilityChecker)
	if !ok {
		return rewrite.Ready()
	}
	if err := checker.CheckAvailability(ctx); err != nil {
		r.logger.Warnf("Model %s not available: %v", r.provider.GetModel(), err)
		return rewrite.NotReady(err.Error())
	}
	return rewrite.Ready()
}

// Rewrite asks the model to rewrite text following directive. The raw answer
// is returned; callers sanitize it.
func (r *Rewriter) Rewrite(ctx context.Context, text, directive string) (string, error) {
	if r.provider == nil {
		return "", rewrite.ErrUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if r.maxInputTokens > 0 {
		if n := r.counter.Count(text); n > r.maxInputTokens {
			return "", fmt.Errorf("%w: %d tokens exceeds limit of %d", rewrite.ErrRejected, n, r.maxInputTokens)
		}
	}

	msg, err := r.provider.Complete(ctx, r.buildMessages(text, directive))
	if err != nil {
		return "", r.classify(err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("%w: empty answer from %s", rewrite.ErrFailed, r.provider.GetModel())
	}
	return msg.Content, nil
}

func (r *Rewriter) buildMessages(text, directive string) []*types.Message {
	if directive == "" {
		directive = rewrite.DefaultDirective
	}
	return []*types.Message{
		types.NewSystemMessage(r.sharedContext + "\n\n" + directive),
		types.NewUserMessage(text),
	}
}

// classify maps provider errors onto the rewrite error kinds. Context errors
// pass through untouched so callers can tell cancellation from failure.
func (r *Rewriter) classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var statusErr *openai.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
			return fmt.Errorf("%w: %v", rewrite.ErrRejected, err)
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return fmt.Errorf("%w: %v", rewrite.ErrUnavailable, err)
		}
	}

	r.logger.Debugf("Rewrite call failed: %v", err)
	return fmt.Errorf("%w: %v", rewrite.ErrFailed, err)
}

var _ rewrite.Service = (*Rewriter)(nil)
