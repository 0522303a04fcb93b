package graphdoc

import (
	"encoding/json"
	"fmt"
)

// Parse reads a graph document from JSON. It tolerates absent or
// wrongly typed fields, field aliases, nodes keyed by id, and the
// {"meta": ..., "graph": ...} envelope. Only malformed JSON is an error.
func Parse(data []byte) (*Document, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse graph document: %w", err)
	}
	return FromValue(raw), nil
}

// ParseEnvelope reads the body of GET /api/relationship.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse relationship envelope: %w", err)
	}

	env := &Envelope{Meta: Meta{State: StateIdle}}
	m, ok := asMap(raw)
	if !ok {
		return env, nil
	}
	if meta, ok := asMap(m["meta"]); ok {
		if s := stringify(meta["state"]); s != "" {
			env.Meta.State = s
		}
		env.Meta.Error = stringify(meta["error"])
		env.Meta.UpdatedAt = stringify(meta["updated_at"])
		if n, ok := toFloat(meta["papers_count"]); ok {
			env.Meta.PapersCount = int(n)
		}
	}
	if g, ok := asMap(m["graph"]); ok && len(g) > 0 {
		env.Graph = fromMap(g)
	}
	return env, nil
}

// FromValue builds a document from an already decoded JSON or YAML value.
func FromValue(v any) *Document {
	m, ok := asMap(v)
	if !ok {
		return &Document{Version: 1}
	}
	if _, hasNodes := lookup(m, keysNodes); !hasNodes {
		if g, ok := asMap(m["graph"]); ok {
			m = g
		}
	}
	return fromMap(m)
}

func fromMap(m map[string]any) *Document {
	doc := &Document{
		Version:     1,
		Notes:       pickString(m, []string{"notes", "说明"}),
		GeneratedAt: pickString(m, []string{"generated_at"}),
	}
	if v, ok := toFloat(m["version"]); ok && v > 0 {
		doc.Version = int(v)
	}

	if v, ok := lookup(m, keysNodes); ok {
		switch t := v.(type) {
		case []any:
			for _, item := range t {
				doc.Nodes = append(doc.Nodes, nodeFrom(item, ""))
			}
		default:
			// Nodes keyed by id.
			if byID, ok := asMap(t); ok {
				for _, id := range sortedKeys(byID) {
					doc.Nodes = append(doc.Nodes, nodeFrom(byID[id], id))
				}
			}
		}
	}

	if v, ok := lookup(m, keysEdges); ok {
		if items, ok := v.([]any); ok {
			for _, item := range items {
				doc.Edges = append(doc.Edges, edgeFrom(item))
			}
		}
	}

	if v, ok := lookup(m, keysClusters); ok {
		if items, ok := v.([]any); ok {
			for _, item := range items {
				if c, ok := clusterFrom(item); ok {
					doc.Clusters = append(doc.Clusters, c)
				}
			}
		}
	}

	return doc
}

// nodeFrom converts one node value. Non-object values yield a node with no
// id so that Normalize accounts for them.
func nodeFrom(v any, key string) RawNode {
	m, ok := asMap(v)
	if !ok {
		return RawNode{ID: key}
	}
	n := RawNode{
		ID:       pickString(m, keysNodeID),
		Title:    pickString(m, keysNodeTitle),
		Authors:  pickString(m, keysNodeAuthors),
		Year:     pickString(m, keysNodeYear),
		Summary:  pickString(m, keysNodeSummary),
		Tags:     pickStrings(m, []string{"tags"}),
		Keywords: pickStrings(m, []string{"keywords"}),
	}
	if n.ID == "" {
		n.ID = key
	}
	return n
}

func edgeFrom(v any) RawEdge {
	m, ok := asMap(v)
	if !ok {
		return RawEdge{}
	}
	return RawEdge{
		Source: pickString(m, keysEdgeSource),
		Target: pickString(m, keysEdgeTarget),
		Type:   pickString(m, keysEdgeType),
		Weight: pickNumber(m, keysEdgeWeight),
		Reason: pickString(m, keysEdgeReason),
	}
}

func clusterFrom(v any) (RawCluster, bool) {
	switch t := v.(type) {
	case []any:
		// A bare list of ids.
		return RawCluster{NodeIDs: stringList(t)}, true
	default:
		m, ok := asMap(t)
		if !ok {
			return RawCluster{}, false
		}
		return RawCluster{
			ID:       pickString(m, keysClusterID),
			Name:     pickString(m, keysClusterName),
			NodeIDs:  pickStrings(m, keysClusterNodes),
			Keywords: pickStrings(m, []string{"keywords"}),
		}, true
	}
}

// ToJSON encodes a document in canonical form.
func ToJSON(doc *Document, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}
