package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ha1tch/relgraph/pkg/forcegraph"
	"github.com/ha1tch/relgraph/pkg/graphdoc"
	"github.com/ha1tch/relgraph/pkg/layoutfile"
	"github.com/ha1tch/relgraph/pkg/render"
)

func renderCmd(a *app) *cobra.Command {
	var (
		output, title, layoutPath string
		width, height             int
	)
	cmd := &cobra.Command{
		Use:   "render <doc|url>",
		Short: "Render a graph to PNG or SVG",
		Example: `  relgraph render papers.json -o papers.png
  relgraph render papers.yaml -o papers.svg -W 1600 -H 1000
  relgraph render http://localhost:8000 --layout papers.layout.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadDoc(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if width <= 0 {
				width = a.cfg.View.Width
			}
			if height <= 0 {
				height = a.cfg.View.Height
			}
			if output == "" {
				output = defaultOutput(args[0], "."+a.cfg.Render.FileType)
			}

			opts := render.Options{Width: width, Height: height, Title: title, Logger: a.log}
			if layoutPath != "" {
				l, err := layoutfile.Read(layoutPath)
				if err != nil {
					return fmt.Errorf("read layout: %w", err)
				}
				opts.Positions = l.Points(float64(width), float64(height))
			}

			if err := writeRender(doc, output, opts); err != nil {
				return err
			}
			a.log.Debug("rendered graph", zap.String("output", output), zap.Int("nodes", len(doc.Nodes)))
			fmt.Fprintf(cmd.OutOrStdout(), "Written: %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (.png or .svg)")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Title drawn in the corner")
	cmd.Flags().StringVar(&layoutPath, "layout", "", "Restore positions from a layout snapshot")
	cmd.Flags().IntVarP(&width, "width", "W", 0, "Width in pixels")
	cmd.Flags().IntVarP(&height, "height", "H", 0, "Height in pixels")
	return cmd
}

func writeRender(doc *graphdoc.Document, output string, opts render.Options) error {
	switch ext := strings.ToLower(filepath.Ext(output)); ext {
	case ".svg":
		return os.WriteFile(output, []byte(render.RenderSVG(doc, opts)), 0o644)
	case ".png":
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		if err := render.RenderPNG(doc, f, opts); err != nil {
			f.Close()
			return fmt.Errorf("render %s: %w", output, err)
		}
		return f.Close()
	default:
		return fmt.Errorf("unknown output format: %s", ext)
	}
}

// defaultOutput derives an output name from a document location.
func defaultOutput(location, ext string) string {
	base := "relationship"
	if !strings.Contains(location, "://") {
		base = strings.TrimSuffix(location, filepath.Ext(location))
	}
	return base + ext
}

func layoutCmd(a *app) *cobra.Command {
	var (
		output        string
		width, height int
		ticks         int
	)
	cmd := &cobra.Command{
		Use:   "layout <doc|url>",
		Short: "Compute a layout and save it as a TOML snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadDoc(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if width <= 0 {
				width = a.cfg.View.Width
			}
			if height <= 0 {
				height = a.cfg.View.Height
			}
			if output == "" {
				output = defaultOutput(args[0], ".layout.toml")
			}

			eng := forcegraph.New(forcegraph.Options{
				Width:  float64(width),
				Height: float64(height),
				Logger: a.log,
			})
			defer eng.Close()
			eng.SetGraph(doc)
			eng.Stop()
			for i := 0; i < ticks; i++ {
				eng.Tick(forcegraph.AnimatedDamping)
			}

			l := layoutfile.Generate(eng.Positions(), float64(width), float64(height))
			if err := layoutfile.Write(output, l); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Written: %s (%d nodes)\n", output, len(l.Nodes))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file")
	cmd.Flags().IntVarP(&width, "width", "W", 0, "Viewport width")
	cmd.Flags().IntVarP(&height, "height", "H", 0, "Viewport height")
	cmd.Flags().IntVar(&ticks, "ticks", 132, "Animated ticks to run after warm-up")
	return cmd
}

func dotCmd(a *app) *cobra.Command {
	var output, title string
	cmd := &cobra.Command{
		Use:   "dot <doc|url>",
		Short: "Generate Graphviz DOT output",
		Example: `  relgraph dot papers.json | neato -Tpng -o papers.png`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadDoc(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			norm, _ := graphdoc.Normalize(doc)
			if title == "" {
				title = fmt.Sprintf("%d papers, %d relationships", len(norm.Nodes), len(norm.Edges))
			}
			dot := graphdoc.GenerateDOT(norm, title)
			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), dot)
				return nil
			}
			return os.WriteFile(output, []byte(dot), 0o644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Graph title")
	return cmd
}
