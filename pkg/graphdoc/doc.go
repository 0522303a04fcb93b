// Package graphdoc defines the paper relationship graph exchanged with the
// analysis backend and the single pass that turns a loosely shaped document
// into a consistent set of papers, relationships and clusters.
package graphdoc

// Document is a relationship graph as delivered by the analysis backend.
// Every field may be absent or malformed in the source; Normalize decides
// what survives.
type Document struct {
	Version     int          `json:"version" yaml:"version"`
	Nodes       []RawNode    `json:"nodes" yaml:"nodes"`
	Edges       []RawEdge    `json:"edges" yaml:"edges"`
	Clusters    []RawCluster `json:"clusters,omitempty" yaml:"clusters,omitempty"`
	Notes       string       `json:"notes,omitempty" yaml:"notes,omitempty"`
	GeneratedAt string       `json:"generated_at,omitempty" yaml:"generated_at,omitempty"`
}

// RawNode is one paper.
type RawNode struct {
	ID       string   `json:"id" yaml:"id" validate:"required"`
	Title    string   `json:"title,omitempty" yaml:"title,omitempty"`
	Authors  string   `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year     string   `json:"year,omitempty" yaml:"year,omitempty"`
	Summary  string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Tags     []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// RawEdge is an inferred relationship between two papers. Weight is nil
// when the source carried no usable number.
type RawEdge struct {
	Source string   `json:"source" yaml:"source" validate:"required"`
	Target string   `json:"target" yaml:"target" validate:"required,nefield=Source"`
	Type   string   `json:"type,omitempty" yaml:"type,omitempty"`
	Weight *float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
	Reason string   `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// RawCluster groups papers under a topic. Only used for colouring.
type RawCluster struct {
	ID       string   `json:"id,omitempty" yaml:"id,omitempty"`
	Name     string   `json:"name,omitempty" yaml:"name,omitempty"`
	NodeIDs  []string `json:"node_ids" yaml:"node_ids"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// Meta is the build status the backend reports next to the graph.
type Meta struct {
	State       string `json:"state"`
	Error       string `json:"error,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
	PapersCount int    `json:"papers_count,omitempty"`
}

// Build states reported in Meta.State.
const (
	StateIdle      = "idle"
	StateRunning   = "running"
	StateSucceeded = "succeeded"
	StateFailed    = "failed"
)

// Envelope is the body of GET /api/relationship.
type Envelope struct {
	Meta  Meta      `json:"meta"`
	Graph *Document `json:"graph"`
}
