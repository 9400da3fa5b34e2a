// Package ledger records, per text unit, the original content, the last
// applied rewrite and the unit's lifecycle status.
//
// Entries are keyed by weak pointers to the unit's text node, so the ledger
// never keeps a removed node alive. Once a node is collected its entry can no
// longer be resolved and is dropped on the next iteration; correctness does
// not depend on when that happens.
//
// The ledger is a pure state container with no locking. Callers serialize
// access (the tone controller runs one whole-document operation at a time and
// applies results from a single goroutine).
package ledger

import (
	"errors"
	"fmt"
	"weak"

	"github.com/LuyGGG/MonoMind/pkg/logging"
	"golang.org/x/net/html"
)

// ErrInvariantViolation marks a rejected transition: a second capture of the
// original text, or a transition the lifecycle does not allow.
var ErrInvariantViolation = errors.New("invariant violation")

// Status is a unit's lifecycle state.
type Status int

const (
	Untouched Status = iota
	Applied
	Reverted
)

func (s Status) String() string {
	switch s {
	case Untouched:
		return "untouched"
	case Applied:
		return "applied"
	case Reverted:
		return "reverted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Entry is the recorded state of one unit.
type Entry struct {
	Status   Status
	Original string
	// Rewrite is the cached replacement text; valid only when HasRewrite.
	Rewrite    string
	HasRewrite bool
}

// Item pairs a live node with its entry.
type Item struct {
	Node  *html.Node
	Entry Entry
}

type key = weak.Pointer[html.Node]

// Ledger is the authoritative per-unit record for one document lifetime.
type Ledger struct {
	entries  map[key]*Entry
	order    []key
	failures map[key]int
	logger   *logging.Logger
}

// New creates an empty ledger. A nil logger discards violation reports.
func New(logger *logging.Logger) *Ledger {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Ledger{
		entries:  make(map[key]*Entry),
		failures: make(map[key]int),
		logger:   logger,
	}
}

// Get returns a copy of the entry for n.
func (l *Ledger) Get(n *html.Node) (Entry, bool) {
	if n == nil {
		return Entry{}, false
	}
	e, ok := l.entries[weak.Make(n)]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// RecordOriginal creates the entry for n in Untouched state. The first write
// wins: a second capture is logged and rejected.
func (l *Ledger) RecordOriginal(n *html.Node, text string) error {
	k := weak.Make(n)
	if _, exists := l.entries[k]; exists {
		return l.violation("original text already captured")
	}
	l.entries[k] = &Entry{Status: Untouched, Original: text}
	l.order = append(l.order, k)
	delete(l.failures, k)
	return nil
}

// RecordRewrite caches text as the unit's rewrite and moves it to Applied.
func (l *Ledger) RecordRewrite(n *html.Node, text string) error {
	e, err := l.expect(n, Untouched, "record rewrite")
	if err != nil {
		return err
	}
	e.Rewrite = text
	e.HasRewrite = true
	e.Status = Applied
	return nil
}

// ConfirmNoop moves an Untouched unit to Applied without caching anything;
// the service returned the text unchanged.
func (l *Ledger) ConfirmNoop(n *html.Node) error {
	e, err := l.expect(n, Untouched, "confirm no-op")
	if err != nil {
		return err
	}
	e.Status = Applied
	return nil
}

// MarkReverted moves an Applied unit to Reverted, keeping its cached rewrite
// for a later replay. Reverting an already reverted unit is a no-op.
func (l *Ledger) MarkReverted(n *html.Node) error {
	e, ok := l.entries[weak.Make(n)]
	if ok && e.Status == Reverted {
		return nil
	}
	e, err := l.expect(n, Applied, "mark reverted")
	if err != nil {
		return err
	}
	e.Status = Reverted
	return nil
}

// MarkAppliedFromCache moves a Reverted unit back to Applied without a new
// service call.
func (l *Ledger) MarkAppliedFromCache(n *html.Node) error {
	e, err := l.expect(n, Reverted, "mark applied from cache")
	if err != nil {
		return err
	}
	e.Status = Applied
	return nil
}

func (l *Ledger) expect(n *html.Node, want Status, op string) (*Entry, error) {
	e, ok := l.entries[weak.Make(n)]
	if !ok {
		return nil, l.violation("%s: no entry", op)
	}
	if e.Status != want {
		return nil, l.violation("%s: status is %s, want %s", op, e.Status, want)
	}
	return e, nil
}

func (l *Ledger) violation(format string, args ...interface{}) error {
	err := fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
	l.logger.Warnf("%v", err)
	return err
}

// Items returns the live entries with the given status in the order they were
// first recorded. Entries and failure tallies whose node has been collected
// are dropped.
func (l *Ledger) Items(status Status) []Item {
	l.pruneFailures()

	var items []Item
	live := l.order[:0]
	for _, k := range l.order {
		n := k.Value()
		if n == nil {
			delete(l.entries, k)
			continue
		}
		live = append(live, k)
		if e := l.entries[k]; e.Status == status {
			items = append(items, Item{Node: n, Entry: *e})
		}
	}
	clear(l.order[len(live):])
	l.order = live
	return items
}

func (l *Ledger) pruneFailures() {
	for k := range l.failures {
		if k.Value() == nil {
			delete(l.failures, k)
		}
	}
}

// NoteFailure records a failed service call for a unit that has no entry and
// returns the number of failures so far. Failures never create entries.
func (l *Ledger) NoteFailure(n *html.Node) int {
	k := weak.Make(n)
	l.failures[k]++
	return l.failures[k]
}

// Failures returns how many service calls have failed for n.
func (l *Ledger) Failures(n *html.Node) int {
	return l.failures[weak.Make(n)]
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Counts summarises the ledger by status.
type Counts struct {
	Tracked   int `json:"tracked"`
	Untouched int `json:"untouched"`
	Applied   int `json:"applied"`
	Reverted  int `json:"reverted"`
	Cached    int `json:"cached"`
	Failed    int `json:"failed"`
}

// Counts returns a summary of every entry and failure tally.
func (l *Ledger) Counts() Counts {
	l.pruneFailures()
	c := Counts{Tracked: len(l.entries), Failed: len(l.failures)}
	for _, e := range l.entries {
		switch e.Status {
		case Untouched:
			c.Untouched++
		case Applied:
			c.Applied++
		case Reverted:
			c.Reverted++
		}
		if e.HasRewrite {
			c.Cached++
		}
	}
	return c
}

// Reset clears every entry and failure tally.
func (l *Ledger) Reset() {
	clear(l.entries)
	clear(l.failures)
	l.order = nil
}
