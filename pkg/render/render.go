// Package render draws static snapshots of a laid out relationship graph
// to PNG and SVG.
package render

import (
	"io"

	"github.com/ha1tch/relgraph/pkg/forcegraph"
	"github.com/ha1tch/relgraph/pkg/graphdoc"
	"go.uber.org/zap"
)

type pt = forcegraph.Point

var (
	_ forcegraph.Surface = (*PNGSurface)(nil)
	_ forcegraph.Surface = (*SVGSurface)(nil)
)

// Options configures a snapshot.
type Options struct {
	Width     int
	Height    int
	Title     string
	Theme     *forcegraph.Theme
	Positions map[string]forcegraph.Point // restored after warm-up when set
	Logger    *zap.Logger
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{Width: 800, Height: 600}
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 800
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	return o
}

// Snapshot lays out doc and draws one frame onto s.
func Snapshot(doc *graphdoc.Document, s forcegraph.Surface, opts Options) *forcegraph.Engine {
	opts = opts.withDefaults()
	eng := forcegraph.New(forcegraph.Options{
		Width:   float64(opts.Width),
		Height:  float64(opts.Height),
		Surface: s,
		Theme:   opts.Theme,
		Logger:  opts.Logger,
	})
	eng.SetGraph(doc)
	eng.Stop()
	if len(opts.Positions) > 0 {
		eng.RestorePositions(opts.Positions)
	}
	eng.Draw()
	if opts.Title != "" {
		theme := forcegraph.DefaultTheme()
		if opts.Theme != nil {
			theme = *opts.Theme
		}
		r := s.PixelRatio()
		size := (theme.FontSize + 4) * r
		s.Text(forcegraph.Pt(10, 10+theme.FontSize+4).Scale(r), size, opts.Title, theme.Label, 1)
	}
	return eng
}

// RenderPNG writes a PNG snapshot of doc.
func RenderPNG(doc *graphdoc.Document, w io.Writer, opts Options) error {
	opts = opts.withDefaults()
	s := NewPNGSurface(opts.Width, opts.Height)
	Snapshot(doc, s, opts).Close()
	return s.Encode(w)
}

// RenderSVG returns an SVG snapshot of doc.
func RenderSVG(doc *graphdoc.Document, opts Options) string {
	opts = opts.withDefaults()
	s := NewSVGSurface(opts.Width, opts.Height)
	Snapshot(doc, s, opts).Close()
	return s.String()
}
