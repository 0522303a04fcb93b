package graphdoc

import (
	"fmt"
	"strings"
)

// GenerateDOT converts a normalised graph to Graphviz DOT format.
// Relationships are undirected; pen width follows weight and clusters
// become cluster subgraphs.
func GenerateDOT(g *Normalized, title string) string {
	var sb strings.Builder

	sb.WriteString("graph Papers {\n")
	sb.WriteString("    layout=neato;\n")
	sb.WriteString("    overlap=false;\n")
	sb.WriteString("    node [shape=ellipse, fontname=\"Helvetica\", fontsize=11];\n")
	sb.WriteString("    edge [fontname=\"Helvetica\", fontsize=9, color=\"#94a3b8\"];\n")
	sb.WriteString("\n")

	if title != "" {
		sb.WriteString("    labelloc=\"t\";\n")
		sb.WriteString(fmt.Sprintf("    label=\"%s\";\n", escapeDOT(title)))
		sb.WriteString("\n")
	}

	// Nodes owned by a cluster are emitted inside its subgraph.
	owner := make(map[string]int)
	for ci, c := range g.Clusters {
		for _, id := range c.NodeIDs {
			if _, ok := owner[id]; !ok {
				owner[id] = ci
			}
		}
	}

	for ci, c := range g.Clusters {
		name := c.Name
		if name == "" {
			name = c.ID
		}
		sb.WriteString(fmt.Sprintf("    subgraph cluster_%d {\n", ci))
		if name != "" {
			sb.WriteString(fmt.Sprintf("        label=\"%s\";\n", escapeDOT(name)))
		}
		for _, n := range g.Nodes {
			if o, ok := owner[n.ID]; ok && o == ci {
				sb.WriteString("        " + dotNode(n) + "\n")
			}
		}
		sb.WriteString("    }\n")
	}

	for _, n := range g.Nodes {
		if _, ok := owner[n.ID]; ok {
			continue
		}
		sb.WriteString("    " + dotNode(n) + "\n")
	}
	sb.WriteString("\n")

	for _, e := range g.Edges {
		sb.WriteString(fmt.Sprintf("    \"%s\" -- \"%s\" [label=\"%s\", penwidth=%d];\n",
			escapeDOT(e.Source), escapeDOT(e.Target), escapeDOT(e.Type), e.Weight))
	}

	sb.WriteString("}\n")

	return sb.String()
}

func dotNode(n RawNode) string {
	label := n.Title
	if label == "" {
		label = n.ID
	}
	return fmt.Sprintf("\"%s\" [label=\"%s\"];", escapeDOT(n.ID), escapeDOT(label))
}

func escapeDOT(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
