// Package server exposes a live relationship graph over HTTP: static
// snapshots, the current layout, and a websocket that streams every drawn
// frame and accepts pointer input.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ha1tch/relgraph/pkg/forcegraph"
	"github.com/ha1tch/relgraph/pkg/graphdoc"
	"github.com/ha1tch/relgraph/pkg/render"
)

const maxGraphBytes = 32 << 20

// Config holds server configuration.
type Config struct {
	Addr           string
	Width, Height  float64
	FPS            int
	AllowedOrigins []string
	DetailURL      func(id string) string // nil sends the bare id
}

// Server owns one engine. Every engine call happens on the loop
// goroutine, either as an animation frame or through do.
type Server struct {
	cfg     Config
	log     *zap.Logger
	metrics *Metrics

	loop   *forcegraph.LoopScheduler
	eng    *forcegraph.Engine
	frames *frameRecorder
	hub    *hub
	doc    *graphdoc.Document // loop goroutine only

	upgrader   websocket.Upgrader
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with an empty graph.
func New(cfg Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Width <= 0 {
		cfg.Width = 960
	}
	if cfg.Height <= 0 {
		cfg.Height = 640
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		cfg:     cfg,
		log:     log,
		metrics: NewMetrics("relgraph"),
		loop:    forcegraph.NewLoopScheduler(cfg.FPS),
		frames:  &frameRecorder{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.hub = newHub(s.metrics, log)
	s.eng = forcegraph.New(forcegraph.Options{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Surface:   s.frames,
		Tooltip:   s.frames,
		Navigator: forcegraph.NavigatorFunc(s.navigate),
		Scheduler: publishingScheduler{LoopScheduler: s.loop, after: s.publish},
		Logger:    log.Named("engine"),
	})
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", s.metrics.Handler().ServeHTTP)
	r.Get("/ws", s.handleWS)
	r.Get("/graph.svg", s.handleSVG)
	r.Get("/graph.png", s.handlePNG)
	r.Route("/api", func(r chi.Router) {
		r.Get("/layout", s.handleLayout)
		r.Post("/graph", s.handleGraph)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// RunLoop drives the engine until ctx ends.
func (s *Server) RunLoop(ctx context.Context) error {
	defer s.hub.closeAll()
	err := s.loop.Run(ctx)
	s.eng.Close()
	return err
}

// Run serves HTTP on cfg.Addr and drives the engine until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.RunLoop(ctx) })
	g.Go(func() error {
		s.log.Info("relgraph server listening", zap.String("addr", s.cfg.Addr))
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdown)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// SetGraph replaces the graph shown by the server.
func (s *Server) SetGraph(ctx context.Context, doc *graphdoc.Document) (graphdoc.Report, error) {
	var rep graphdoc.Report
	err := s.do(ctx, func() {
		s.doc = doc
		s.eng.SetGraph(doc)
		rep = s.eng.Report()
	})
	if err != nil {
		return rep, err
	}
	s.metrics.Builds.Inc()
	return rep, nil
}

// do runs fn on the loop goroutine and publishes whatever it drew.
func (s *Server) do(ctx context.Context, fn func()) error {
	return s.loop.Do(ctx, func() {
		fn()
		s.publish()
	})
}

// publish broadcasts the pending frame, if any. Loop goroutine only.
func (s *Server) publish() {
	w, h := s.eng.Size()
	f, ok := s.frames.take(w, h)
	if !ok {
		return
	}
	data, err := json.Marshal(f)
	if err != nil {
		s.log.Error("encode frame", zap.Error(err))
		return
	}
	s.hub.broadcast(data, true)
	s.metrics.Frames.Inc()
}

// navigate is the engine's Navigator. Loop goroutine only.
func (s *Server) navigate(id string) {
	url := id
	if s.cfg.DetailURL != nil {
		url = s.cfg.DetailURL(id)
	}
	data, err := json.Marshal(OpenMessage{Type: "open", ID: id, URL: url})
	if err != nil {
		return
	}
	s.hub.broadcast(data, false)
	s.metrics.Navigations.Inc()
	s.log.Info("open paper", zap.String("id", id), zap.String("url", url))
}

// pointer applies a client message to the engine.
func (s *Server) pointer(ctx context.Context, m PointerMessage) error {
	p := forcegraph.Pt(m.X, m.Y)
	return s.do(ctx, func() {
		switch m.Kind {
		case KindMove:
			s.eng.PointerMove(p)
		case KindDown:
			s.eng.PointerDown(p)
		case KindUp:
			s.eng.PointerUp(p)
		case KindClick:
			s.eng.Click(p)
		case KindLeave:
			s.eng.PointerLeave()
		case KindResize:
			s.eng.Resize(m.Width, m.Height)
		}
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "clients": s.hub.count()})
}

type layoutNode struct {
	ID     string  `json:"id"`
	Title  string  `json:"title,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Colour string  `json:"colour"`
	Degree int     `json:"degree"`
	Fixed  bool    `json:"fixed,omitempty"`
}

type layoutEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
	Weight int    `json:"weight"`
}

type layoutResponse struct {
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	State  string       `json:"state"`
	Nodes  []layoutNode `json:"nodes"`
	Edges  []layoutEdge `json:"edges"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var resp layoutResponse
	err := s.loop.Do(r.Context(), func() {
		resp.Width, resp.Height = s.eng.Size()
		resp.State = s.eng.State().String()
		nodes := s.eng.Nodes()
		resp.Nodes = make([]layoutNode, len(nodes))
		for i, n := range nodes {
			resp.Nodes[i] = layoutNode{
				ID: n.ID, Title: n.Title,
				X: n.Pos.X, Y: n.Pos.Y, Radius: n.Radius,
				Colour: n.Colour.Hex(), Degree: n.Degree, Fixed: n.Fixed,
			}
		}
		edges := s.eng.Edges()
		resp.Edges = make([]layoutEdge, len(edges))
		for i, ed := range edges {
			resp.Edges[i] = layoutEdge{
				Source: nodes[ed.A].ID, Target: nodes[ed.B].ID,
				Type: ed.Type, Weight: ed.Weight,
			}
		}
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type graphResponse struct {
	Nodes   int `json:"nodes"`
	Edges   int `json:"edges"`
	Dropped int `json:"dropped"`
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxGraphBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	doc, err := graphdoc.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rep, err := s.SetGraph(r.Context(), doc)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, graphResponse{Nodes: rep.NodesKept, Edges: rep.EdgesKept, Dropped: rep.Dropped()})
}

// snapshotOptions captures what a static render needs from the live engine.
func (s *Server) snapshotOptions(ctx context.Context) (*graphdoc.Document, render.Options, error) {
	var (
		doc  *graphdoc.Document
		opts render.Options
	)
	err := s.loop.Do(ctx, func() {
		doc = s.doc
		w, h := s.eng.Size()
		opts = render.Options{Width: int(w), Height: int(h), Positions: s.eng.Positions()}
	})
	if doc == nil {
		doc = &graphdoc.Document{}
	}
	return doc, opts, err
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	doc, opts, err := s.snapshotOptions(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	io.WriteString(w, render.RenderSVG(doc, opts))
}

func (s *Server) handlePNG(w http.ResponseWriter, r *http.Request) {
	doc, opts, err := s.snapshotOptions(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := render.RenderPNG(doc, w, opts); err != nil {
		s.log.Warn("render png", zap.Error(err))
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	c := newClient(conn, s.log)
	s.hub.add(c)
	go c.writePump()

	c.readPump(func(m PointerMessage) error { return s.pointer(r.Context(), m) })
	s.hub.remove(c)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
