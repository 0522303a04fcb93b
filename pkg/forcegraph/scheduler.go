package forcegraph

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ManualScheduler queues frames until Step is called. It suits tests and
// static rendering, where nothing should advance on its own.
type ManualScheduler struct {
	next    FrameID
	pending []pendingFrame
}

type pendingFrame struct {
	id FrameID
	fn func(time.Time)
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (m *ManualScheduler) RequestFrame(fn func(time.Time)) FrameID {
	m.next++
	m.pending = append(m.pending, pendingFrame{m.next, fn})
	return m.next
}

func (m *ManualScheduler) CancelFrame(id FrameID) {
	for i, f := range m.pending {
		if f.id == id {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return
		}
	}
}

// Pending returns the number of queued frames.
func (m *ManualScheduler) Pending() int { return len(m.pending) }

// Step runs the frames queued before the call, in request order, and
// returns how many ran. Frames requested during Step wait for the next one.
func (m *ManualScheduler) Step(now time.Time) int {
	batch := m.pending
	m.pending = nil
	for _, f := range batch {
		f.fn(now)
	}
	return len(batch)
}

// ErrLoopStopped is returned by LoopScheduler.Do after Run has returned.
var ErrLoopStopped = errors.New("forcegraph: loop stopped")

// LoopScheduler runs frame callbacks on a single goroutine at a fixed rate.
// Everything that touches an engine driven by it must go through Do, so
// the engine is only ever used from the loop goroutine.
type LoopScheduler struct {
	interval time.Duration

	mu      sync.Mutex
	next    FrameID
	pending map[FrameID]func(time.Time)
	order   []FrameID

	jobs chan func()
	done chan struct{}
}

// NewLoopScheduler returns a scheduler ticking fps times per second.
func NewLoopScheduler(fps int) *LoopScheduler {
	if fps <= 0 {
		fps = 60
	}
	return &LoopScheduler{
		interval: time.Second / time.Duration(fps),
		pending:  map[FrameID]func(time.Time){},
		jobs:     make(chan func()),
		done:     make(chan struct{}),
	}
}

func (s *LoopScheduler) RequestFrame(fn func(time.Time)) FrameID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.pending[s.next] = fn
	s.order = append(s.order, s.next)
	return s.next
}

func (s *LoopScheduler) CancelFrame(id FrameID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
}

// Run owns the loop goroutine until ctx is cancelled.
func (s *LoopScheduler) Run(ctx context.Context) error {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-s.jobs:
			job()
		case now := <-ticker.C:
			s.fire(now)
		}
	}
}

func (s *LoopScheduler) fire(now time.Time) {
	s.mu.Lock()
	order := s.order
	due := s.pending
	s.order = nil
	s.pending = map[FrameID]func(time.Time){}
	s.mu.Unlock()

	for _, id := range order {
		if fn, ok := due[id]; ok {
			fn(now)
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to finish. It must not
// be called from inside a frame or another Do.
func (s *LoopScheduler) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	job := func() {
		defer close(finished)
		fn()
	}
	select {
	case s.jobs <- job:
	case <-s.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}
