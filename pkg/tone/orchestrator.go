package tone

import (
	"context"
	"strings"
	"unicode"

	"github.com/LuyGGG/MonoMind/pkg/dom"
	"github.com/LuyGGG/MonoMind/pkg/rewrite"
	"github.com/LuyGGG/MonoMind/pkg/tone/ledger"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// orchestrator runs whole-document passes. Rewrite calls run on worker
// goroutines; every ledger and document write happens on the caller's
// goroutine, in document order, after the batch's calls have returned.
type orchestrator struct {
	doc    *dom.Document
	svc    rewrite.Service
	ledger *ledger.Ledger
	opts   *options
}

type passCounts struct {
	scanned int
	changed int
	failed  int
}

type job struct {
	node *html.Node
	text string
}

type outcome struct {
	text string
	err  error
}

func (o *orchestrator) apply(ctx context.Context) (passCounts, error) {
	var counts passCounts
	if !o.doc.Alive() {
		return counts, ErrTornDown
	}

	units := o.opts.selector.Select(o.doc.Body())
	if len(units) == 0 {
		return counts, ErrEmptyDocument
	}
	counts.scanned = len(units)

	visited := make(map[*html.Node]struct{}, len(units))
	for start := 0; start < len(units); start += o.opts.batchSize {
		end := min(start+o.opts.batchSize, len(units))

		var jobs []job
		for _, u := range units[start:end] {
			if _, dup := visited[u.Node]; dup {
				continue
			}
			visited[u.Node] = struct{}{}

			if o.replay(u.Node, &counts) {
				continue
			}
			if o.opts.maxAttempts > 0 && o.ledger.Failures(u.Node) >= o.opts.maxAttempts {
				continue
			}
			jobs = append(jobs, job{node: u.Node, text: u.Text})
		}

		outcomes := o.dispatch(ctx, jobs)
		if err := o.live(ctx); err != nil {
			return counts, err
		}
		for i, j := range jobs {
			o.settle(j, outcomes[i], &counts)
		}

		o.opts.yield(ctx)
	}
	return counts, nil
}

// replay handles units that already have an entry and reports whether the
// unit needs no service call.
func (o *orchestrator) replay(n *html.Node, counts *passCounts) bool {
	e, ok := o.ledger.Get(n)
	if !ok {
		return false
	}
	switch e.Status {
	case ledger.Applied:
		return true
	case ledger.Reverted:
		if e.HasRewrite {
			if !o.doc.SetText(n, e.Rewrite) {
				return true
			}
			counts.changed++
		}
		_ = o.ledger.MarkAppliedFromCache(n)
		return true
	default:
		// An Untouched entry has its original captured but no result yet.
		return false
	}
}

// dispatch runs one rewrite call per job with bounded concurrency. Per-unit
// errors are returned in the outcome, never through the group.
func (o *orchestrator) dispatch(ctx context.Context, jobs []job) []outcome {
	outcomes := make([]outcome, len(jobs))
	if len(jobs) == 0 {
		return outcomes
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			_, core, _ := splitSpace(j.text)
			out, err := o.svc.Rewrite(gctx, core, o.opts.directive)
			outcomes[i] = outcome{text: out, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// live reports why results must be discarded, if they must.
func (o *orchestrator) live(ctx context.Context) error {
	if !o.doc.Alive() {
		return ErrTornDown
	}
	return ctx.Err()
}

func (o *orchestrator) settle(j job, res outcome, counts *passCounts) {
	log := o.opts.logger
	if res.err != nil {
		attempts := o.ledger.NoteFailure(j.node)
		counts.failed++
		log.Debugf("Rewrite failed (%s, attempt %d): %v", rewrite.Classify(res.err), attempts, res.err)
		return
	}

	// Discard results for units that left the document or changed underneath us.
	if !o.doc.Attached(j.node) || dom.Text(j.node) != j.text {
		log.Debugf("Discarding result for a detached or modified unit")
		return
	}

	lead, core, trail := splitSpace(j.text)
	cleaned := rewrite.SanitizeFor(res.text, core)
	if cleaned == "" {
		o.ledger.NoteFailure(j.node)
		counts.failed++
		log.Debugf("Rewrite returned nothing usable for %q", truncate(core, 40))
		return
	}

	if _, exists := o.ledger.Get(j.node); !exists {
		if err := o.ledger.RecordOriginal(j.node, j.text); err != nil {
			return
		}
	}
	// Answers that differ only in whitespace are no-ops
	if cleaned == rewrite.Normalize(core) {
		_ = o.ledger.ConfirmNoop(j.node)
		return
	}

	next := lead + cleaned + trail
	if !o.doc.SetText(j.node, next) {
		return
	}
	_ = o.ledger.RecordRewrite(j.node, next)
	counts.changed++
}

func (o *orchestrator) revert() (int, error) {
	if !o.doc.Alive() {
		return 0, ErrTornDown
	}
	restored := 0
	for _, it := range o.ledger.Items(ledger.Applied) {
		if it.Entry.HasRewrite && o.doc.SetText(it.Node, it.Entry.Original) {
			restored++
		}
		_ = o.ledger.MarkReverted(it.Node)
	}
	return restored, nil
}

// splitSpace separates surrounding whitespace from the text it wraps.
func splitSpace(s string) (lead, core, trail string) {
	start := len(s) - len(strings.TrimLeftFunc(s, unicode.IsSpace))
	end := len(strings.TrimRightFunc(s, unicode.IsSpace))
	if end < start {
		return s, "", ""
	}
	return s[:start], s[start:end], s[end:]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
