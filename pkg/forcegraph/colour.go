package forcegraph

import (
	"strings"
	"unicode/utf16"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// PaletteHex lists the node colours in palette order.
var PaletteHex = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2",
	"#59a14f", "#edc948", "#b07aa1", "#ff9da7",
	"#9c755f", "#6b8e23", "#1f77b4", "#8c564b",
}

var palette = mustPalette(PaletteHex)

func mustPalette(hexes []string) []colorful.Color {
	out := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			panic("forcegraph: bad palette colour " + h)
		}
		out[i] = c
	}
	return out
}

// Palette returns a copy of the node palette.
func Palette() []colorful.Color {
	return append([]colorful.Color(nil), palette...)
}

// Hash31 is the 32-bit rolling string hash used for colouring:
// h = h*31 + unit over UTF-16 code units, wrapping on overflow.
func Hash31(s string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(u)
	}
	return h
}

// colourKey is the hashed text for nodes outside any cluster.
func colourKey(tags []string, title string) string {
	if len(tags) > 0 {
		return strings.Join(tags, ",")
	}
	return title
}

// paletteIndex picks the palette slot for a node. cluster is the index of
// the first cluster containing the node, or -1.
func paletteIndex(cluster int, tags []string, title string) int {
	if cluster >= 0 {
		return cluster % len(palette)
	}
	h := int64(Hash31(colourKey(tags, title)))
	if h < 0 {
		h = -h
	}
	return int(h % int64(len(palette)))
}

// NodeColour resolves the colour of a node.
func NodeColour(cluster int, tags []string, title string) colorful.Color {
	return palette[paletteIndex(cluster, tags, title)]
}
