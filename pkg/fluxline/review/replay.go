// Package review implements line reviewers: an interactive terminal prompt
// and a scripted replay.
package review

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/himanishpuri/fluxline/pkg/fluxline"
)

var ErrReplayExhausted = errors.New("replay has no decision left")

// Replay answers reviews from a fixed decision list, in order.
type Replay struct {
	mu        sync.Mutex
	decisions []bool
	seen      []fluxline.LineView
}

func NewReplay(decisions ...bool) *Replay {
	return &Replay{decisions: decisions}
}

func (r *Replay) Review(ctx context.Context, view fluxline.LineView) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := len(r.seen)
	if i >= len(r.decisions) {
		return false, fmt.Errorf("%w: line %d of %d", ErrReplayExhausted, view.Index+1, view.Total)
	}
	r.seen = append(r.seen, view)
	return r.decisions[i], nil
}

// Calls is the number of reviews answered so far.
func (r *Replay) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

// Seen returns the views answered so far.
func (r *Replay) Seen() []fluxline.LineView {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]fluxline.LineView, len(r.seen))
	copy(out, r.seen)
	return out
}

// Constant answers every review with the same decision.
type Constant bool

func (c Constant) Review(ctx context.Context, _ fluxline.LineView) (bool, error) {
	return bool(c), ctx.Err()
}
