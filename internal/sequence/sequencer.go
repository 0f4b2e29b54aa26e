// Package sequence keeps one in-flight request per user action: starting a new
// request cancels the previous one and only the newest may render.
package sequence

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is the cancellation cause of a request replaced by a newer one.
var ErrSuperseded = errors.New("superseded by a newer request")

type slot struct {
	gen    uint64
	cancel context.CancelCauseFunc
}

// Sequencer stamps requests per action with increasing generations.
type Sequencer struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// New returns a Sequencer with no requests in flight.
func New() *Sequencer {
	return &Sequencer{slots: make(map[string]*slot)}
}

// Begin starts a request for action. The returned context is canceled with
// ErrSuperseded as soon as another request for the same action begins.
// Callers must call Ticket.Done when finished.
func (s *Sequencer) Begin(ctx context.Context, action string) (context.Context, *Ticket) {
	cctx, cancel := context.WithCancelCause(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[action]
	if !ok {
		sl = &slot{}
		s.slots[action] = sl
	}
	if sl.cancel != nil {
		sl.cancel(ErrSuperseded)
	}
	sl.gen++
	sl.cancel = cancel
	return cctx, &Ticket{seq: s, action: action, gen: sl.gen, cancel: cancel}
}

// Generation returns the latest generation issued for action.
func (s *Sequencer) Generation(action string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl, ok := s.slots[action]; ok {
		return sl.gen
	}
	return 0
}

// Ticket identifies one request.
type Ticket struct {
	seq    *Sequencer
	action string
	gen    uint64
	cancel context.CancelCauseFunc
}

func (t *Ticket) Generation() uint64 { return t.gen }

// Current reports whether no newer request for the same action has begun.
func (t *Ticket) Current() bool {
	return t.seq.Generation(t.action) == t.gen
}

// Done releases the request's context.
func (t *Ticket) Done() {
	t.seq.mu.Lock()
	if sl := t.seq.slots[t.action]; sl != nil && sl.gen == t.gen {
		sl.cancel = nil
	}
	t.seq.mu.Unlock()
	t.cancel(context.Canceled)
}

// Superseded reports whether ctx was canceled because a newer request began.
func Superseded(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrSuperseded)
}
