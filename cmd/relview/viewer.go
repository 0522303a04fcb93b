package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/ha1tch/relgraph/pkg/config"
	"github.com/ha1tch/relgraph/pkg/forcegraph"
	"github.com/ha1tch/relgraph/pkg/graphdoc"
	"github.com/ha1tch/relgraph/pkg/layoutfile"
	"github.com/ha1tch/relgraph/pkg/source"
)

const defaultSidebarWidth = 34

// Interrupt payloads posted to the event loop from other goroutines.
type (
	docEvent    struct{ doc *graphdoc.Document }
	sourceError struct{ err error }
	buildResult struct {
		meta graphdoc.Meta
		err  error
	}
	quitEvent struct{}
)

// Viewer is the terminal front end of one engine. All fields are owned
// by the event loop goroutine.
type Viewer struct {
	screen  tcell.Screen
	cfg     *config.Config
	cfgPath string
	log     *zap.Logger
	ctx     context.Context
	open    func(target string) error
	post    func(ev tcell.Event) error

	eng     *forcegraph.Engine
	surface *termSurface
	sched   *screenScheduler
	panel   sidePanel
	subs    map[int]func(w, h float64)
	nextSub int

	location   string
	src        source.Source
	doc        *graphdoc.Document
	report     graphdoc.Report
	layoutPath string
	restore    map[string]forcegraph.Point // applied to the next graph

	sidebarOpen  bool
	sidebarWidth int
	pressed      bool
	pressLeft    bool // the held button left the canvas
	inCanvas     bool

	message           string
	messageType       MessageType
	messageFlashStart atomic.Int64
}

func newViewer(screen tcell.Screen, cfg *config.Config, log *zap.Logger) *Viewer {
	v := &Viewer{
		screen:       screen,
		cfg:          cfg,
		log:          log,
		ctx:          context.Background(),
		open:         systemOpen,
		post:         screen.PostEvent,
		subs:         map[int]func(w, h float64){},
		sidebarOpen:  true,
		sidebarWidth: defaultSidebarWidth,
	}
	v.sched = newScreenScheduler(screen, cfg.View.FPS)
	v.surface = newTermSurface(v.canvasSize())
	w, h := v.surface.logicalSize()
	theme := terminalTheme()
	v.eng = forcegraph.New(forcegraph.Options{
		Width:     w,
		Height:    h,
		Surface:   v.surface,
		Scheduler: v.sched,
		Tooltip:   &v.panel,
		Navigator: forcegraph.NavigatorFunc(v.navigate),
		Theme:     &theme,
		Logger:    log.Named("engine"),
	})
	v.eng.Observe(v)
	v.eng.Draw()
	return v
}

// canvasSize is the cell area left of the sidebar and above the bars.
func (v *Viewer) canvasSize() (cols, rows int) {
	w, h := v.screen.Size()
	cols, rows = w, h-2
	if v.sidebarOpen {
		cols -= v.sidebarWidth
	}
	return max(cols, 0), max(rows, 0)
}

// Subscribe lets the engine follow canvas size changes.
func (v *Viewer) Subscribe(fn func(w, h float64)) (cancel func()) {
	id := v.nextSub
	v.nextSub++
	v.subs[id] = fn
	return func() { delete(v.subs, id) }
}

// fitCanvas resizes the cell grid to the screen and tells subscribers.
func (v *Viewer) fitCanvas() {
	cols, rows := v.canvasSize()
	if cols == v.surface.cols && rows == v.surface.rows {
		return
	}
	v.surface.resize(cols, rows)
	w, h := v.surface.logicalSize()
	for _, fn := range v.subs {
		fn(w, h)
	}
	v.log.Debug("canvas resized", zap.Int("cols", cols), zap.Int("rows", rows))
}

// useLayout restores l into the first graph that arrives.
func (v *Viewer) useLayout(path string, l *layoutfile.Layout) {
	v.layoutPath = path
	w, h := v.eng.Size()
	v.restore = l.Points(w, h)
}

// watch starts delivering documents from location.
func (v *Viewer) watch(ctx context.Context, location string) {
	v.location = location
	v.src = source.New(location, source.Options{
		PollInterval: v.cfg.Source.PollInterval.Duration,
		Debounce:     v.cfg.Source.Debounce.Duration,
		Logger:       v.log.Named("source"),
	})
	go func() {
		err := v.src.Run(ctx, func(doc *graphdoc.Document) {
			v.post(tcell.NewEventInterrupt(docEvent{doc}))
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			v.post(tcell.NewEventInterrupt(sourceError{err}))
		}
	}()
}

func (v *Viewer) isBackend() bool {
	_, ok := v.src.(*source.HTTPSource)
	return ok
}

func (v *Viewer) run(ctx context.Context, location string) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	v.ctx = ctx
	v.watch(ctx, location)

	// Periodic refresh events while a message flashes
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond) // 20fps for smooth flash
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				v.post(tcell.NewEventInterrupt(quitEvent{}))
				return
			case <-ticker.C:
				start := v.messageFlashStart.Load()
				if elapsed := time.Now().UnixMilli() - start; start > 0 && elapsed < flashDuration+200 {
					v.post(tcell.NewEventInterrupt(nil))
				}
			}
		}
	}()

	for {
		v.draw()
		v.screen.Show()

		if v.handleEvent(v.screen.PollEvent()) {
			break
		}
	}
	v.sched.stop()
	v.eng.Close()
}

// handleEvent processes one event and reports whether the viewer should
// quit.
func (v *Viewer) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case nil:
		return true
	case *tcell.EventResize:
		v.screen.Sync()
		v.fitCanvas()
	case *tcell.EventKey:
		return v.handleKey(ev)
	case *tcell.EventMouse:
		v.handleMouse(ev)
	case *tcell.EventInterrupt:
		return v.handleInterrupt(ev.Data(), ev.When())
	}
	return false
}

func (v *Viewer) handleInterrupt(data any, when time.Time) bool {
	switch d := data.(type) {
	case frameEvent:
		v.sched.fire(d.id, when)
	case docEvent:
		v.apply(d.doc)
	case sourceError:
		v.log.Warn("source stopped", zap.Error(d.err))
		v.showMessage("Source: "+d.err.Error(), MsgError)
	case buildResult:
		if d.err != nil {
			v.showMessage("Rebuild failed: "+d.err.Error(), MsgError)
			return false
		}
		v.showMessage("Rebuild "+d.meta.State, MsgSuccess)
	case quitEvent:
		return true
	}
	// nil: refresh for flash animation
	return false
}

// apply shows a newly delivered document.
func (v *Viewer) apply(doc *graphdoc.Document) {
	v.doc = doc
	v.eng.SetGraph(doc)
	v.report = v.eng.Report()
	v.log.Info("graph loaded", zap.Int("papers", len(v.eng.Nodes())), zap.Int("dropped", v.report.Dropped()))

	if v.restore != nil {
		n := v.eng.RestorePositions(v.restore)
		v.restore = nil
		if n > 0 {
			v.eng.Stop()
			v.showMessage(fmt.Sprintf("Restored %d positions", n), MsgInfo)
			return
		}
	}
	v.showMessage(fmt.Sprintf("Loaded %d papers, %d relationships", len(v.eng.Nodes()), len(v.eng.Edges())), MsgSuccess)
}

func (v *Viewer) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		return true
	case tcell.KeyTab:
		v.toggleSidebar()
		return false
	case tcell.KeyRune:
	default:
		return false
	}

	switch ev.Rune() {
	case 'q', 'Q':
		return true
	case 'r':
		v.relayout()
	case 's':
		v.saveLayout()
	case 'l':
		v.loadLayout()
	case 'p':
		v.renderView()
	case 'g':
		v.toggleRenderer()
	case 'f':
		v.toggleFileType()
	case 'b':
		v.requestBuild()
	}
	return false
}

func (v *Viewer) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	p := cellCentre(x, y)
	down := ev.Buttons()&tcell.Button1 != 0

	if x < 0 || y < 0 || x >= v.surface.cols || y >= v.surface.rows {
		if v.pressed && !down {
			v.pressed = false
			v.eng.PointerUp(p)
		}
		if v.inCanvas {
			v.inCanvas = false
			v.pressLeft = v.pressed
			v.eng.PointerLeave()
		}
		return
	}
	v.inCanvas = true

	switch {
	case down && !v.pressed:
		v.pressed = true
		v.pressLeft = false
		v.eng.PointerDown(p)
	case down:
		v.eng.PointerMove(p)
	case v.pressed:
		v.pressed = false
		v.eng.PointerUp(p)
		if !v.pressLeft {
			v.eng.Click(p)
		}
		v.pressLeft = false
	default:
		v.eng.PointerMove(p)
	}
}

func (v *Viewer) showMessage(msg string, msgType MessageType) {
	v.message = msg
	v.messageType = msgType
	v.messageFlashStart.Store(time.Now().UnixMilli())
	// Trigger immediate refresh for flash animation
	v.post(tcell.NewEventInterrupt(nil))
}

func (v *Viewer) relayout() {
	if v.doc == nil {
		v.showMessage("No graph loaded", MsgWarning)
		return
	}
	v.eng.SetGraph(v.doc)
	v.showMessage("Re-layout", MsgInfo)
}

// layoutFile is where s and l save and load positions.
func (v *Viewer) layoutFile() string {
	switch {
	case v.layoutPath != "":
		return v.layoutPath
	case v.location != "" && !source.IsURL(v.location):
		return layoutfile.PathFor(v.location)
	default:
		return filepath.Join(config.Dir(), "relationship.layout.toml")
	}
}

func (v *Viewer) saveLayout() {
	if len(v.eng.Nodes()) == 0 {
		v.showMessage("Nothing to save", MsgWarning)
		return
	}
	path := v.layoutFile()
	w, h := v.eng.Size()
	if err := layoutfile.Write(path, layoutfile.Generate(v.eng.Positions(), w, h)); err != nil {
		v.log.Warn("save layout", zap.String("path", path), zap.Error(err))
		v.showMessage("Save failed: "+err.Error(), MsgError)
		return
	}
	v.showMessage("Layout saved: "+path, MsgSuccess)
}

func (v *Viewer) loadLayout() {
	path := v.layoutFile()
	l, err := layoutfile.Read(path)
	if err != nil {
		v.showMessage("Load failed: "+err.Error(), MsgError)
		return
	}
	w, h := v.eng.Size()
	n := v.eng.RestorePositions(l.Points(w, h))
	if n > 0 {
		v.eng.Stop()
	}
	v.showMessage(fmt.Sprintf("Restored %d positions", n), MsgSuccess)
}

func (v *Viewer) toggleSidebar() {
	v.sidebarOpen = !v.sidebarOpen
	v.fitCanvas()
	if v.sidebarOpen {
		v.showMessage("Sidebar expanded", MsgInfo)
	} else {
		v.showMessage("Sidebar collapsed", MsgInfo)
	}
}

func (v *Viewer) toggleRenderer() {
	if v.cfg.Render.Renderer == "native" {
		v.cfg.Render.Renderer = "graphviz"
		v.showMessage("Renderer set to Graphviz", MsgInfo)
	} else {
		v.cfg.Render.Renderer = "native"
		v.showMessage("Renderer set to Native", MsgInfo)
	}
	v.saveConfig()
}

func (v *Viewer) toggleFileType() {
	if v.cfg.Render.FileType == "png" {
		v.cfg.Render.FileType = "svg"
		v.showMessage("File type set to SVG", MsgInfo)
	} else {
		v.cfg.Render.FileType = "png"
		v.showMessage("File type set to PNG", MsgInfo)
	}
	v.saveConfig()
}

func (v *Viewer) saveConfig() {
	if v.cfgPath == "" {
		return
	}
	if err := config.Save(v.cfgPath, v.cfg); err != nil {
		v.log.Warn("save config", zap.String("path", v.cfgPath), zap.Error(err))
	}
}

// requestBuild asks the backend to rebuild the relationship graph. The
// new graph arrives through the normal poll.
func (v *Viewer) requestBuild() {
	hs, ok := v.src.(*source.HTTPSource)
	if !ok {
		v.showMessage("Rebuild needs a backend URL", MsgWarning)
		return
	}
	ctx, maxPapers := v.ctx, v.cfg.Source.MaxPapers
	go func() {
		meta, err := hs.RequestBuild(ctx, maxPapers, false)
		v.post(tcell.NewEventInterrupt(buildResult{meta: meta, err: err}))
	}()
	v.showMessage("Rebuild requested", MsgInfo)
}
