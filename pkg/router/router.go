// Package router answers tone requests from the host surface. Each request
// names an action; each answer is a small JSON object with an ok flag.
package router

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/LuyGGG/MonoMind/pkg/logging"
	"github.com/LuyGGG/MonoMind/pkg/tone"
)

// Actions understood by the router.
const (
	ActionApply  = "tone:apply"
	ActionRevert = "tone:revert"
	ActionState  = "tone:state"
	ActionStats  = "tone:stats"
)

// Error codes for requests the router itself refuses.
const (
	CodeUnknownAction = "unknown_action"
	CodeBadRequest    = "bad_request"
)

// maxLineSize bounds one request line.
const maxLineSize = 1 << 20

// Tone is the façade the router drives. *tone.Controller implements it.
type Tone interface {
	Apply(ctx context.Context) tone.ApplyResult
	Revert(ctx context.Context) tone.RevertResult
	IsApplied() bool
	Stats() tone.StatsResult
}

// Request is one message from the host.
type Request struct {
	Action string `json:"action"`
}

// StateResult answers tone:state.
type StateResult struct {
	OK      bool `json:"ok"`
	Applied bool `json:"applied"`
}

// ErrorResult answers a request the router cannot serve.
type ErrorResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Router dispatches requests to a Tone.
type Router struct {
	tone   Tone
	logger *logging.Logger
}

// New creates a Router. A nil logger discards output.
func New(t Tone, logger *logging.Logger) *Router {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Router{tone: t, logger: logger}
}

// Handle answers req. The boolean is false for actions this router does not
// know, so callers can chain another handler.
func (r *Router) Handle(ctx context.Context, req Request) (any, bool) {
	switch req.Action {
	case ActionApply:
		return r.tone.Apply(ctx), true
	case ActionRevert:
		return r.tone.Revert(ctx), true
	case ActionState:
		return StateResult{OK: true, Applied: r.tone.IsApplied()}, true
	case ActionStats:
		return r.tone.Stats(), true
	default:
		return nil, false
	}
}

// Serve reads newline-delimited JSON requests from in and writes one JSON
// answer per request to out, in order. It returns when in is exhausted or
// ctx is done.
func (r *Router) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := enc.Encode(r.answer(ctx, line)); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}
	return ctx.Err()
}

func (r *Router) answer(ctx context.Context, line string) any {
	var req Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		r.logger.Warnf("Malformed request: %v", err)
		return ErrorResult{Error: CodeBadRequest}
	}
	resp, ok := r.Handle(ctx, req)
	if !ok {
		r.logger.Debugf("Unknown action %q", req.Action)
		return ErrorResult{Error: CodeUnknownAction}
	}
	return resp
}
