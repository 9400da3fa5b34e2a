// Package tone softens the text of a document in place and restores it
// exactly on request.
//
// A Controller owns one document lifetime: the unit ledger, the cached
// availability of the rewrite service and the applied flag. Apply and Revert
// are whole-document operations and never overlap.
//
// Example usage:
//
//	doc, _ := dom.ParseString(page)
//	ctrl := tone.NewController(doc, dictionary.New(dictionary.Medium))
//	res := ctrl.Apply(ctx) // {ok:true, scanned:…, changed:…}
//	ctrl.Revert(ctx)       // byte-identical original text
package tone

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/LuyGGG/MonoMind/pkg/dom"
	"github.com/LuyGGG/MonoMind/pkg/rewrite"
	"github.com/LuyGGG/MonoMind/pkg/tone/ledger"
)

// Controller is the apply/revert entry point for one document.
type Controller struct {
	mu     sync.Mutex // serializes whole-document operations
	doc    *dom.Document
	svc    rewrite.Service
	ledger *ledger.Ledger
	opts   options
	ready  bool

	applied atomic.Bool

	cancelMu sync.Mutex
	cancel   context.CancelFunc
	active   *dom.Document
}

// NewController creates a Controller over doc using svc for rewrites.
func NewController(doc *dom.Document, svc rewrite.Service, opts ...Option) *Controller {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Controller{
		doc:    doc,
		svc:    svc,
		ledger: ledger.New(o.logger.With("ledger")),
		opts:   o,
	}
}

// Apply rewrites every eligible unit that has not been rewritten yet and
// replays cached rewrites for reverted units.
func (c *Controller) Apply(ctx context.Context) ApplyResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.doc == nil || !c.doc.Alive() {
		return ApplyResult{Error: CodeTornDown}
	}
	if err := c.ensureAvailable(ctx); err != nil {
		return ApplyResult{Error: Code(err)}
	}

	ctx, cancel := context.WithCancel(ctx)
	c.setActive(cancel, c.doc)
	defer func() {
		c.setActive(nil, nil)
		cancel()
	}()

	orch := &orchestrator{doc: c.doc, svc: c.svc, ledger: c.ledger, opts: &c.opts}
	counts, err := orch.apply(ctx)
	if counts.changed > 0 {
		c.applied.Store(true)
	}

	res := ApplyResult{
		OK:      true,
		Scanned: counts.scanned,
		Changed: counts.changed,
		Failed:  counts.failed,
	}
	switch {
	case errors.Is(err, ErrEmptyDocument):
		c.opts.logger.Debugf("Apply found no eligible units")
	case err != nil:
		res.OK = false
		res.Error = Code(err)
		c.opts.logger.Warnf("Apply aborted after %d changes: %v", counts.changed, err)
	default:
		c.opts.logger.Infof("Apply: scanned=%d changed=%d failed=%d", counts.scanned, counts.changed, counts.failed)
	}
	return res
}

// Revert writes the original text back into every applied unit. Units
// never touched by Apply are left alone.
func (c *Controller) Revert(ctx context.Context) RevertResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.doc == nil {
		return RevertResult{Error: CodeTornDown}
	}
	if err := ctx.Err(); err != nil {
		return RevertResult{Error: Code(err)}
	}

	orch := &orchestrator{doc: c.doc, svc: c.svc, ledger: c.ledger, opts: &c.opts}
	restored, err := orch.revert()
	c.applied.Store(false)
	if err != nil {
		return RevertResult{Error: Code(err)}
	}
	c.opts.logger.Infof("Revert: restored=%d", restored)
	return RevertResult{OK: true, Restored: restored}
}

// IsApplied reports whether the last whole-document operation applied
// changes.
func (c *Controller) IsApplied() bool {
	return c.applied.Load()
}

// Stats summarises the ledger.
func (c *Controller) Stats() StatsResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return StatsResult{OK: true, ToneApplied: c.applied.Load(), Counts: c.ledger.Counts()}
}

// Navigate swaps in a new document. In-flight work on the old one is
// abandoned and all per-document state is reset. Navigating to the current
// document resets state without closing it.
func (c *Controller) Navigate(doc *dom.Document) {
	c.abort(doc)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc != nil && c.doc != doc {
		c.doc.Close()
	}
	c.doc = doc
	c.resetLocked()
}

// Teardown abandons in-flight work, closes the document and clears all
// per-document state.
func (c *Controller) Teardown() {
	c.abort(nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc != nil {
		c.doc.Close()
	}
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	c.ledger.Reset()
	c.ready = false
	c.applied.Store(false)
}

// abort cancels an in-flight Apply without waiting for the lock it holds.
// The document being worked on is closed unless it is keep; the canceled
// context alone stops late results from being written.
func (c *Controller) abort(keep *dom.Document) {
	c.cancelMu.Lock()
	defer c.cancelMu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	if c.active != nil && c.active != keep {
		c.active.Close()
	}
}

func (c *Controller) setActive(cancel context.CancelFunc, doc *dom.Document) {
	c.cancelMu.Lock()
	c.cancel = cancel
	c.active = doc
	c.cancelMu.Unlock()
}

// ensureAvailable asks the service for readiness until it reports ready once.
func (c *Controller) ensureAvailable(ctx context.Context) error {
	if c.ready {
		return nil
	}
	if c.svc == nil {
		return ErrServiceUnavailable
	}
	a := c.svc.IsAvailable(ctx)
	if !a.Ready {
		c.opts.logger.Warnf("Rewrite service not ready: %s", a.Reason)
		return ErrServiceUnavailable
	}
	c.ready = true
	return nil
}
