package forcegraph

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoop_StartsAfterBuildAndSettles(t *testing.T) {
	hs := newHarness(t, 800, 600)
	hs.eng.SetGraph(ringDoc(5))

	if hs.eng.State() != Running {
		t.Fatalf("state after build = %v, want running", hs.eng.State())
	}
	frames := 0
	for hs.sched.Pending() > 0 {
		hs.sched.Step(hs.clock.Advance(16 * time.Millisecond))
		frames++
		if frames > 1000 {
			t.Fatal("loop never settled")
		}
	}
	// 2.2s at 16ms per frame
	if frames != 138 {
		t.Errorf("ran %d frames, want 138", frames)
	}
	if hs.eng.State() != Idle {
		t.Errorf("state after budget = %v, want idle", hs.eng.State())
	}
}

func TestLoop_StartStopIdempotent(t *testing.T) {
	hs := newHarness(t, 800, 600)
	hs.eng.SetGraph(ringDoc(3))

	hs.eng.Stop()
	hs.eng.Stop()
	if hs.eng.State() != Idle || hs.sched.Pending() != 0 {
		t.Fatalf("after two stops: state=%v pending=%d", hs.eng.State(), hs.sched.Pending())
	}

	hs.eng.Start()
	started := hs.eng.started
	hs.clock.Advance(time.Second)
	hs.eng.Start()
	if hs.eng.State() != Running || hs.sched.Pending() != 1 {
		t.Fatalf("after two starts: state=%v pending=%d", hs.eng.State(), hs.sched.Pending())
	}
	if !hs.eng.started.Equal(started) {
		t.Error("second start reset the budget")
	}

	hs.eng.Stop()
	if hs.sched.Step(hs.clock.Now()) != 0 {
		t.Error("stop left a frame queued")
	}
}

func TestLoop_HoverDoesNotRestart(t *testing.T) {
	hs := newHarness(t, 800, 600)
	hs.eng.SetGraph(ringDoc(3))
	hs.sched.Step(hs.clock.Advance(LoopBudget))
	hs.place(map[string]Point{"n00": {200, 200}})

	hs.eng.PointerMove(Pt(200, 200))
	if hs.eng.Hovered() != 0 {
		t.Fatalf("hovered = %d, want 0", hs.eng.Hovered())
	}
	if hs.eng.State() != Idle || hs.sched.Pending() != 0 {
		t.Error("hover restarted the loop")
	}
}

func TestLoop_DragRefreshesBudget(t *testing.T) {
	hs := newHarness(t, 800, 600)
	hs.eng.SetGraph(ringDoc(3))
	hs.sched.Step(hs.clock.Advance(LoopBudget))
	hs.place(map[string]Point{"n00": {200, 200}})

	hs.eng.PointerDown(Pt(200, 200))
	if hs.eng.State() != Running {
		t.Fatal("press on a node did not start the loop")
	}

	// Keep dragging past the original budget.
	for i := 0; i < 5; i++ {
		hs.sched.Step(hs.clock.Advance(time.Second))
		hs.eng.PointerMove(Pt(200+float64(i), 200))
	}
	if hs.eng.State() != Running {
		t.Fatal("loop stopped while dragging")
	}

	hs.eng.PointerUp(Pt(204, 200))
	hs.sched.Step(hs.clock.Advance(2 * time.Second))
	if hs.eng.State() != Running {
		t.Error("release did not give the loop a fresh budget")
	}
	hs.sched.Step(hs.clock.Advance(200 * time.Millisecond))
	if hs.eng.State() != Idle {
		t.Error("loop did not stop once the budget after release ran out")
	}
}

func TestLoop_Close(t *testing.T) {
	hs := newHarness(t, 800, 600)
	src := &fakeSizes{}
	hs.eng.Observe(src)
	hs.eng.SetGraph(ringDoc(3))

	src.emit(500, 400)
	if w, h := hs.eng.Size(); w != 500 || h != 400 {
		t.Fatalf("observer did not resize: %vx%v", w, h)
	}

	hs.eng.Close()
	hs.eng.Close()
	if hs.eng.State() != Idle || hs.sched.Pending() != 0 {
		t.Error("close left the loop running")
	}
	if src.cancels != 1 || len(src.subs) != 0 {
		t.Errorf("observer released %d times, %d subscribers left", src.cancels, len(src.subs))
	}
	hs.eng.Start()
	if hs.eng.State() != Idle {
		t.Error("closed engine started")
	}
}

func TestLoop_ObserveReplacesPrevious(t *testing.T) {
	hs := newHarness(t, 800, 600)
	first, second := &fakeSizes{}, &fakeSizes{}
	hs.eng.Observe(first)
	hs.eng.Observe(second)

	if first.cancels != 1 {
		t.Errorf("first observer released %d times, want 1", first.cancels)
	}
	first.emit(100, 100)
	second.emit(640, 480)
	if w, h := hs.eng.Size(); w != 640 || h != 480 {
		t.Errorf("size = %vx%v, want 640x480", w, h)
	}
}

type fakeSizes struct {
	subs    map[int]func(w, h float64)
	next    int
	cancels int
}

func (f *fakeSizes) Subscribe(fn func(w, h float64)) func() {
	if f.subs == nil {
		f.subs = map[int]func(w, h float64){}
	}
	f.next++
	id := f.next
	f.subs[id] = fn
	return func() {
		delete(f.subs, id)
		f.cancels++
	}
}

func (f *fakeSizes) emit(w, h float64) {
	for _, fn := range f.subs {
		fn(w, h)
	}
}

func TestManualScheduler(t *testing.T) {
	s := NewManualScheduler()
	var order []int
	a := s.RequestFrame(func(time.Time) { order = append(order, 1) })
	s.RequestFrame(func(time.Time) {
		order = append(order, 2)
		s.RequestFrame(func(time.Time) { order = append(order, 3) })
	})
	b := s.RequestFrame(func(time.Time) { order = append(order, 4) })
	if a == 0 || a == b {
		t.Fatalf("bad frame ids %d %d", a, b)
	}
	s.CancelFrame(b)

	if n := s.Step(time.Time{}); n != 2 {
		t.Errorf("first step ran %d frames, want 2", n)
	}
	if n := s.Step(time.Time{}); n != 1 {
		t.Errorf("second step ran %d frames, want 1", n)
	}
	want := []int{1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestLoopScheduler_RunsFramesAndJobs(t *testing.T) {
	s := NewLoopScheduler(200)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	var frames atomic.Int32
	done := make(chan struct{})
	var tick func(time.Time)
	tick = func(time.Time) {
		if frames.Add(1) == 3 {
			close(done)
			return
		}
		s.RequestFrame(tick)
	}
	if err := s.Do(ctx, func() { s.RequestFrame(tick) }); err != nil {
		t.Fatalf("Do: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("frames did not run")
	}

	err := s.Do(ctx, func() {
		id := s.RequestFrame(func(time.Time) { t.Error("cancelled frame ran") })
		s.CancelFrame(id)
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	cancel()
	if err := <-errc; err != context.Canceled {
		t.Errorf("Run returned %v", err)
	}
	if err := s.Do(context.Background(), func() {}); err != ErrLoopStopped {
		t.Errorf("Do after stop = %v, want ErrLoopStopped", err)
	}
}

func TestLoopScheduler_DrivesEngine(t *testing.T) {
	s := NewLoopScheduler(500)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	eng := New(Options{Width: 400, Height: 300, Scheduler: s})
	if err := s.Do(ctx, func() { eng.SetGraph(ringDoc(4)) }); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		var state LoopState
		if err := s.Do(ctx, func() { state = eng.State() }); err != nil {
			t.Fatal(err)
		}
		if state == Idle {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("engine loop never went idle")
		}
		time.Sleep(50 * time.Millisecond)
	}
}
