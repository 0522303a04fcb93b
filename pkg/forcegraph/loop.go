package forcegraph

import (
	"time"

	"go.uber.org/zap"
)

// LoopState is the state of the animation loop.
type LoopState int

const (
	Idle LoopState = iota
	Running
)

func (s LoopState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// FrameID identifies a requested frame. Zero is never a valid id.
type FrameID uint64

// Scheduler delivers frame callbacks, one per request.
type Scheduler interface {
	RequestFrame(fn func(now time.Time)) FrameID
	CancelFrame(id FrameID)
}

// State returns the loop state.
func (e *Engine) State() LoopState { return e.state }

// Start enters Running from Idle and requests the first frame. It does
// nothing when the loop already runs, the graph is empty or the engine is
// closed.
func (e *Engine) Start() {
	if e.state == Running || e.closed || len(e.nodes) == 0 {
		return
	}
	e.state = Running
	e.started = e.now()
	e.frame = e.sched.RequestFrame(e.step)
	e.log.Debug("animation started", zap.Int("nodes", len(e.nodes)))
}

// Stop cancels the pending frame and returns to Idle. Stopping an idle
// loop does nothing.
func (e *Engine) Stop() {
	if e.state == Idle {
		return
	}
	if e.frame != 0 {
		e.sched.CancelFrame(e.frame)
		e.frame = 0
	}
	e.state = Idle
	e.log.Debug("animation stopped")
}

// restart gives the loop a fresh budget, starting it if idle.
func (e *Engine) restart() {
	if e.state == Running {
		e.started = e.now()
		return
	}
	e.Start()
}

// step is one animation frame.
func (e *Engine) step(now time.Time) {
	e.frame = 0
	if e.state != Running {
		return
	}
	e.Tick(AnimatedDamping)
	e.Draw()
	if now.Sub(e.started) >= LoopBudget {
		e.state = Idle
		e.log.Debug("animation settled")
		return
	}
	e.frame = e.sched.RequestFrame(e.step)
}
