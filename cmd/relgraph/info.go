package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ha1tch/relgraph/pkg/forcegraph"
	"github.com/ha1tch/relgraph/pkg/graphdoc"
)

func infoCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "info <doc|url>",
		Short: "Show papers, relationships and clusters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadDoc(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			norm, rep := graphdoc.Normalize(doc)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "  %s %s\n\n", Brand.Sprint("relationship graph"), Subtle.Sprintf("(version %d)", norm.Version))
			fmt.Fprintf(out, "  Papers:        %d\n", len(norm.Nodes))
			fmt.Fprintf(out, "  Relationships: %d\n", len(norm.Edges))
			fmt.Fprintf(out, "  Clusters:      %d\n", len(norm.Clusters))
			if n := rep.Dropped(); n > 0 {
				fmt.Fprintf(out, "  Dropped:       %s\n", Warn.Sprint(n))
			}
			if norm.Notes != "" {
				fmt.Fprintf(out, "  Notes:         %s\n", norm.Notes)
			}
			fmt.Fprintln(out)

			table(out, []string{"ID", "TITLE", "DEGREE", "COLOUR"}, paperRows(norm, limit))
			if types := edgeTypes(norm); len(types) > 0 {
				fmt.Fprintln(out)
				table(out, []string{"RELATIONSHIP", "COUNT"}, types)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Papers to list, by degree (0 for all)")
	return cmd
}

// paperRows lists papers by descending degree with their node colour.
func paperRows(norm *graphdoc.Normalized, limit int) [][]string {
	degree := map[string]int{}
	for _, e := range norm.Edges {
		degree[e.Source]++
		degree[e.Target]++
	}
	owner := map[string]int{}
	for ci, c := range norm.Clusters {
		for _, id := range c.NodeIDs {
			if _, ok := owner[id]; !ok {
				owner[id] = ci
			}
		}
	}

	nodes := append([]graphdoc.RawNode(nil), norm.Nodes...)
	sort.SliceStable(nodes, func(i, j int) bool { return degree[nodes[i].ID] > degree[nodes[j].ID] })
	if limit > 0 && len(nodes) > limit {
		nodes = nodes[:limit]
	}

	rows := make([][]string, len(nodes))
	for i, n := range nodes {
		cluster, ok := owner[n.ID]
		if !ok {
			cluster = -1
		}
		title := n.Title
		if title == "" {
			title = n.ID
		}
		rows[i] = []string{
			n.ID,
			forcegraph.Truncate(title),
			strconv.Itoa(degree[n.ID]),
			forcegraph.NodeColour(cluster, n.Tags, n.Title).Hex(),
		}
	}
	return rows
}

func edgeTypes(norm *graphdoc.Normalized) [][]string {
	counts := map[string]int{}
	for _, e := range norm.Edges {
		counts[e.Type]++
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if counts[types[i]] != counts[types[j]] {
			return counts[types[i]] > counts[types[j]]
		}
		return types[i] < types[j]
	})

	rows := make([][]string, len(types))
	for i, t := range types {
		rows[i] = []string{t, strconv.Itoa(counts[t])}
	}
	return rows
}

func validateCmd(a *app) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate <doc|url>",
		Short: "Report what normalisation keeps and drops",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadDoc(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, rep := graphdoc.Normalize(doc)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "  %s nodes    %d of %d kept\n", statusIcon(rep.NodesKept == rep.NodesIn), rep.NodesKept, rep.NodesIn)
			line(out, "missing id", rep.NodesMissingID)
			line(out, "duplicate id", rep.NodesDuplicate)
			fmt.Fprintf(out, "  %s edges    %d of %d kept\n", statusIcon(rep.EdgesKept == rep.EdgesIn), rep.EdgesKept, rep.EdgesIn)
			line(out, "missing endpoint", rep.EdgesMissingEnd)
			line(out, "self-loop", rep.EdgesSelfLoop)
			line(out, "unknown endpoint", rep.EdgesUnknownEnd)
			line(out, "duplicate edge", rep.EdgesDuplicate)
			fmt.Fprintf(out, "  %s clusters %d of %d kept\n", statusIcon(rep.ClusterIDsDrop == 0), rep.ClustersKept, rep.ClustersIn)
			line(out, "unknown member", rep.ClusterIDsDrop)

			if strict && rep.Dropped() > 0 {
				return fmt.Errorf("%s: %d entries dropped", args[0], rep.Dropped())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when anything is dropped")
	return cmd
}

func line(out io.Writer, what string, n int) {
	if n > 0 {
		fmt.Fprintf(out, "      %s %s\n", Warn.Sprintf("%d", n), what)
	}
}
