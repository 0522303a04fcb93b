package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ha1tch/relgraph/pkg/graphdoc"
)

// HTTPSource polls GET {base}/api/relationship.
type HTTPSource struct {
	base     string
	interval time.Duration
	client   *http.Client
	log      *zap.Logger

	last      uint64
	lastState string
}

// NewHTTP returns a source polling the backend at base.
func NewHTTP(base string, opts Options) *HTTPSource {
	opts = opts.withDefaults()
	return &HTTPSource{
		base:     strings.TrimRight(base, "/"),
		interval: opts.PollInterval,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      opts.Logger,
	}
}

// Run polls immediately and then every interval. Fetch errors are logged
// and polling continues.
func (h *HTTPSource) Run(ctx context.Context, deliver func(*graphdoc.Document)) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		if _, err := h.Poll(ctx, deliver); err != nil && ctx.Err() == nil {
			h.log.Warn("poll relationship graph", zap.String("base", h.base), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll fetches the envelope once and delivers the graph if it differs from
// the last one delivered. It reports whether deliver was called.
func (h *HTTPSource) Poll(ctx context.Context, deliver func(*graphdoc.Document)) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.base+"/api/relationship", nil)
	if err != nil {
		return false, err
	}
	body, err := h.do(req)
	if err != nil {
		return false, err
	}
	env, err := graphdoc.ParseEnvelope(body)
	if err != nil {
		return false, err
	}

	h.noteState(env.Meta)
	if env.Graph == nil {
		return false, nil
	}
	sum := fingerprint(env.Graph)
	if sum == h.last {
		return false, nil
	}
	h.last = sum
	h.log.Info("relationship graph updated",
		zap.Int("nodes", len(env.Graph.Nodes)),
		zap.Int("edges", len(env.Graph.Edges)),
		zap.String("updated_at", env.Meta.UpdatedAt))
	deliver(env.Graph)
	return true, nil
}

func (h *HTTPSource) noteState(meta graphdoc.Meta) {
	if meta.State == h.lastState {
		return
	}
	h.lastState = meta.State
	switch meta.State {
	case graphdoc.StateFailed:
		h.log.Warn("relationship build failed", zap.String("error", meta.Error))
	case graphdoc.StateRunning:
		h.log.Info("relationship build running", zap.Int("papers", meta.PapersCount))
	default:
		h.log.Debug("relationship build state", zap.String("state", meta.State))
	}
}

// RequestBuild asks the backend to rebuild the graph from up to maxPapers
// analysed papers. The new graph arrives through Run once the build
// succeeds.
func (h *HTTPSource) RequestBuild(ctx context.Context, maxPapers int, force bool) (graphdoc.Meta, error) {
	payload, err := json.Marshal(map[string]any{"max_papers": maxPapers, "force": force})
	if err != nil {
		return graphdoc.Meta{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.base+"/api/relationship/build", bytes.NewReader(payload))
	if err != nil {
		return graphdoc.Meta{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := h.do(req)
	if err != nil {
		return graphdoc.Meta{}, err
	}
	env, err := graphdoc.ParseEnvelope(body)
	if err != nil {
		return graphdoc.Meta{}, err
	}
	h.log.Info("relationship build requested", zap.Int("max_papers", maxPapers), zap.Bool("force", force))
	return env.Meta, nil
}

func (h *HTTPSource) do(req *http.Request) ([]byte, error) {
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, e.Error)
		}
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, errStatus(resp.StatusCode))
	}
	return body, nil
}

type errStatus int

func (e errStatus) Error() string { return fmt.Sprintf("unexpected status %d", int(e)) }

// StatusCode extracts the HTTP status from an error returned by a source,
// or 0 when there is none.
func StatusCode(err error) int {
	var s errStatus
	if errors.As(err, &s) {
		return int(s)
	}
	return 0
}
