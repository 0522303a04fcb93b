package main

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ha1tch/relgraph/pkg/forcegraph"
)

// frameEvent is the interrupt payload that asks the event loop to run a
// pending animation frame.
type frameEvent struct {
	id forcegraph.FrameID
}

type poster interface {
	PostEvent(ev tcell.Event) error
}

// screenScheduler delivers engine frames through the tcell event queue, so
// frame callbacks run on the event loop goroutine like every other engine
// call. Only the timers run elsewhere, and they just post events.
type screenScheduler struct {
	post     poster
	interval time.Duration
	next     forcegraph.FrameID
	pending  map[forcegraph.FrameID]func(time.Time)
	timers   map[forcegraph.FrameID]*time.Timer
}

func newScreenScheduler(post poster, fps int) *screenScheduler {
	if fps <= 0 {
		fps = 60
	}
	return &screenScheduler{
		post:     post,
		interval: time.Second / time.Duration(fps),
		pending:  map[forcegraph.FrameID]func(time.Time){},
		timers:   map[forcegraph.FrameID]*time.Timer{},
	}
}

func (s *screenScheduler) RequestFrame(fn func(time.Time)) forcegraph.FrameID {
	s.next++
	id := s.next
	s.pending[id] = fn
	post := s.post
	s.timers[id] = time.AfterFunc(s.interval, func() {
		post.PostEvent(tcell.NewEventInterrupt(frameEvent{id: id}))
	})
	return id
}

func (s *screenScheduler) CancelFrame(id forcegraph.FrameID) {
	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	delete(s.timers, id)
	delete(s.pending, id)
}

// fire runs frame id if it is still pending.
func (s *screenScheduler) fire(id forcegraph.FrameID, now time.Time) bool {
	fn, ok := s.pending[id]
	if !ok {
		return false
	}
	delete(s.pending, id)
	delete(s.timers, id)
	fn(now)
	return true
}

// stop cancels everything still pending.
func (s *screenScheduler) stop() {
	for id := range s.pending {
		s.CancelFrame(id)
	}
}
