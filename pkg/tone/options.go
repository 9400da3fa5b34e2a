package tone

import (
	"context"
	"runtime"

	"github.com/LuyGGG/MonoMind/pkg/logging"
	"github.com/LuyGGG/MonoMind/pkg/rewrite"
	"github.com/LuyGGG/MonoMind/pkg/tone/selector"
)

const (
	// DefaultConcurrency is the number of rewrite calls allowed in flight.
	DefaultConcurrency = 3
	// DefaultBatchSize is how many units are processed between yields.
	DefaultBatchSize = 15
)

type options struct {
	directive   string
	concurrency int
	batchSize   int
	maxAttempts int
	selector    *selector.Selector
	logger      *logging.Logger
	yield       func(ctx context.Context)
}

func defaultOptions() options {
	return options{
		directive:   rewrite.DefaultDirective,
		concurrency: DefaultConcurrency,
		batchSize:   DefaultBatchSize,
		selector:    selector.Default(),
		logger:      logging.Nop(),
		yield:       func(context.Context) { runtime.Gosched() },
	}
}

// Option configures a Controller.
type Option func(*options)

// WithDirective sets the style directive passed to every rewrite call.
func WithDirective(d string) Option {
	return func(o *options) {
		if d != "" {
			o.directive = d
		}
	}
}

// WithConcurrency caps in-flight rewrite calls. Values below one are ignored.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithBatchSize sets how many units are processed between yields.
func WithBatchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithMaxAttempts stops calling the service for a unit after n failed calls
// across passes. Zero means unbounded.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxAttempts = n
		}
	}
}

// WithSelector replaces the default unit selector.
func WithSelector(s *selector.Selector) Option {
	return func(o *options) {
		if s != nil {
			o.selector = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithYield replaces the hook run after every batch.
func WithYield(fn func(ctx context.Context)) Option {
	return func(o *options) {
		if fn != nil {
			o.yield = fn
		}
	}
}
