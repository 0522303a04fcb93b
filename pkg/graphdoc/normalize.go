package graphdoc

import (
	"errors"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Weight bounds for relationships.
const (
	MinWeight     = 1
	MaxWeight     = 5
	DefaultWeight = 3
)

// DefaultEdgeType labels relationships that carry no type.
const DefaultEdgeType = "related"

// Edge is a validated relationship with its weight resolved.
type Edge struct {
	Source string
	Target string
	Type   string
	Weight int
	Reason string
}

// Normalized is a document in which every edge references a known node,
// no edge is a self-loop, node ids are unique and cluster members exist.
type Normalized struct {
	Version  int
	Nodes    []RawNode
	Edges    []Edge
	Clusters []RawCluster
	Notes    string
}

// Report counts what Normalize kept and dropped. The engine keeps the last
// one for its hosts; the CLI prints it.
type Report struct {
	NodesIn         int
	NodesKept       int
	NodesMissingID  int
	NodesDuplicate  int
	EdgesIn         int
	EdgesKept       int
	EdgesMissingEnd int
	EdgesSelfLoop   int
	EdgesUnknownEnd int
	EdgesDuplicate  int
	ClustersIn      int
	ClustersKept    int
	ClusterIDsDrop  int
}

// Dropped returns the number of nodes and edges removed.
func (r Report) Dropped() int {
	return r.NodesMissingID + r.NodesDuplicate +
		r.EdgesMissingEnd + r.EdgesSelfLoop + r.EdgesUnknownEnd + r.EdgesDuplicate
}

var validate = validator.New()

// Normalize is the single place where a loosely shaped document is made
// consistent. It never fails: invalid entities are dropped and counted.
func Normalize(doc *Document) (*Normalized, Report) {
	out := &Normalized{Version: 1}
	var rep Report
	if doc == nil {
		return out, rep
	}
	if doc.Version > 0 {
		out.Version = doc.Version
	}
	out.Notes = strings.TrimSpace(doc.Notes)

	known := make(map[string]bool, len(doc.Nodes))
	rep.NodesIn = len(doc.Nodes)
	for _, n := range doc.Nodes {
		n = trimNode(n)
		if err := validate.Struct(n); err != nil {
			rep.NodesMissingID++
			continue
		}
		if known[n.ID] {
			rep.NodesDuplicate++
			continue
		}
		known[n.ID] = true
		out.Nodes = append(out.Nodes, n)
	}
	rep.NodesKept = len(out.Nodes)

	// One edge per unordered pair and type.
	type edgeKey struct{ lo, hi, typ string }
	seen := make(map[edgeKey]bool, len(doc.Edges))
	rep.EdgesIn = len(doc.Edges)
	for _, e := range doc.Edges {
		e.Source = strings.TrimSpace(e.Source)
		e.Target = strings.TrimSpace(e.Target)
		if err := validate.Struct(e); err != nil {
			if failedTag(err, "nefield") {
				rep.EdgesSelfLoop++
			} else {
				rep.EdgesMissingEnd++
			}
			continue
		}
		if !known[e.Source] || !known[e.Target] {
			rep.EdgesUnknownEnd++
			continue
		}
		typ := strings.TrimSpace(e.Type)
		if typ == "" {
			typ = DefaultEdgeType
		}
		key := edgeKey{e.Source, e.Target, typ}
		if key.hi < key.lo {
			key.lo, key.hi = key.hi, key.lo
		}
		if seen[key] {
			rep.EdgesDuplicate++
			continue
		}
		seen[key] = true
		out.Edges = append(out.Edges, Edge{
			Source: e.Source,
			Target: e.Target,
			Type:   typ,
			Weight: ResolveWeight(e.Weight),
			Reason: strings.TrimSpace(e.Reason),
		})
	}
	rep.EdgesKept = len(out.Edges)

	rep.ClustersIn = len(doc.Clusters)
	for _, c := range doc.Clusters {
		var ids []string
		for _, id := range c.NodeIDs {
			id = strings.TrimSpace(id)
			if !known[id] {
				rep.ClusterIDsDrop++
				continue
			}
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			continue
		}
		c.NodeIDs = ids
		out.Clusters = append(out.Clusters, c)
	}
	rep.ClustersKept = len(out.Clusters)

	return out, rep
}

// ResolveWeight rounds a raw weight to the nearest integer in
// [MinWeight, MaxWeight]. Absent or non-finite weights become DefaultWeight.
func ResolveWeight(w *float64) int {
	if w == nil || math.IsNaN(*w) || math.IsInf(*w, 0) {
		return DefaultWeight
	}
	r := int(math.Round(*w))
	if r < MinWeight {
		return MinWeight
	}
	if r > MaxWeight {
		return MaxWeight
	}
	return r
}

func trimNode(n RawNode) RawNode {
	n.ID = strings.TrimSpace(n.ID)
	n.Title = strings.TrimSpace(n.Title)
	n.Authors = strings.TrimSpace(n.Authors)
	n.Year = strings.TrimSpace(n.Year)
	n.Summary = strings.TrimSpace(n.Summary)
	tags := n.Tags[:0:0]
	for _, t := range n.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	n.Tags = tags
	return n
}

func failedTag(err error, tag string) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		if fe.Tag() == tag {
			return true
		}
	}
	return false
}
