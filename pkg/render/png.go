// Native PNG rendering for relationship graphs.
// Draws at 4x and downsamples for smooth edges.

package render

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Supersample is the factor PNGSurface draws at before downsampling.
const Supersample = 4

// PNGSurface is a raster forcegraph.Surface. Its pixel ratio is the
// supersampling factor, so the engine draws straight into the large image.
type PNGSurface struct {
	width, height int
	img           *image.RGBA
	mask          *image.Alpha
	font          *opentype.Font
	faces         map[float64]font.Face
}

// NewPNGSurface creates a surface for a width x height logical image.
func NewPNGSurface(width, height int) *PNGSurface {
	width, height = max(width, 1), max(height, 1)
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		panic(err) // embedded font
	}
	bounds := image.Rect(0, 0, width*Supersample, height*Supersample)
	return &PNGSurface{
		width:  width,
		height: height,
		img:    image.NewRGBA(bounds),
		mask:   image.NewAlpha(bounds),
		font:   fnt,
		faces:  map[float64]font.Face{},
	}
}

func (s *PNGSurface) PixelRatio() float64 { return Supersample }

func (s *PNGSurface) Clear(bg colorful.Color) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(opaque(bg)), image.Point{}, draw.Src)
}

// Line draws a segment with round caps.
func (s *PNGSurface) Line(from, to pt, width float64, c colorful.Color, alpha float64) {
	half := math.Max(width/2, 0.5)
	box := s.box(math.Min(from.X, to.X)-half, math.Min(from.Y, to.Y)-half,
		math.Max(from.X, to.X)+half, math.Max(from.Y, to.Y)+half)

	dx, dy := to.X-from.X, to.Y-from.Y
	lenSq := dx*dx + dy*dy
	s.cover(box, func(x, y float64) bool {
		t := 0.0
		if lenSq > 0 {
			t = ((x-from.X)*dx + (y-from.Y)*dy) / lenSq
			t = math.Max(0, math.Min(1, t))
		}
		px, py := from.X+t*dx-x, from.Y+t*dy-y
		return px*px+py*py <= half*half
	})
	s.paint(box, c, alpha)
}

// Circle fills a disc and strokes its outline.
func (s *PNGSurface) Circle(centre pt, radius float64, fill colorful.Color, alpha float64, outline colorful.Color, outlineWidth float64) {
	half := outlineWidth / 2
	outer := radius + half
	box := s.box(centre.X-outer, centre.Y-outer, centre.X+outer, centre.Y+outer)

	s.cover(box, func(x, y float64) bool {
		return math.Hypot(x-centre.X, y-centre.Y) <= radius
	})
	s.paint(box, fill, alpha)

	if outlineWidth <= 0 {
		return
	}
	s.cover(box, func(x, y float64) bool {
		d := math.Hypot(x-centre.X, y-centre.Y)
		return d >= radius-half && d <= outer
	})
	s.paint(box, outline, alpha)
}

// Text draws s with its baseline starting at at.
func (s *PNGSurface) Text(at pt, size float64, text string, c colorful.Color, alpha float64) {
	d := &font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(translucent(c, alpha)),
		Face: s.face(size),
		Dot:  fixed.Point26_6{X: fixed.Int26_6(at.X * 64), Y: fixed.Int26_6(at.Y * 64)},
	}
	d.DrawString(text)
}

// MeasureText returns the logical width and height of text at a logical
// font size.
func (s *PNGSurface) MeasureText(text string, size float64) (w, h float64) {
	face := s.face(size * Supersample)
	adv := font.MeasureString(face, text)
	m := face.Metrics()
	return float64(adv) / 64 / Supersample, float64(m.Height) / 64 / Supersample
}

// Image returns the downsampled logical-size image.
func (s *PNGSurface) Image() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	draw.CatmullRom.Scale(out, out.Bounds(), s.img, s.img.Bounds(), draw.Over, nil)
	return out
}

// Encode writes the image as PNG.
func (s *PNGSurface) Encode(w io.Writer) error {
	return png.Encode(w, s.Image())
}

func (s *PNGSurface) face(size float64) font.Face {
	if f, ok := s.faces[size]; ok {
		return f
	}
	f, err := opentype.NewFace(s.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		panic(err)
	}
	s.faces[size] = f
	return f
}

// box returns the pixel rectangle covering the given bounds, clipped.
func (s *PNGSurface) box(x0, y0, x1, y1 float64) image.Rectangle {
	r := image.Rect(int(math.Floor(x0)), int(math.Floor(y0)), int(math.Ceil(x1))+1, int(math.Ceil(y1))+1)
	return r.Intersect(s.img.Bounds())
}

// cover marks the pixels of box whose centres satisfy inside.
func (s *PNGSurface) cover(box image.Rectangle, inside func(x, y float64) bool) {
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			if inside(float64(x)+0.5, float64(y)+0.5) {
				s.mask.SetAlpha(x, y, color.Alpha{A: 0xff})
			}
		}
	}
}

// paint composites c through the mask over box, then clears the mask.
func (s *PNGSurface) paint(box image.Rectangle, c colorful.Color, alpha float64) {
	if box.Empty() {
		return
	}
	draw.DrawMask(s.img, box, image.NewUniform(translucent(c, alpha)), image.Point{}, s.mask, box.Min, draw.Over)
	draw.Draw(s.mask, box, image.Transparent, image.Point{}, draw.Src)
}

func opaque(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{r, g, b, 0xff}
}

func translucent(c colorful.Color, alpha float64) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	a := uint8(math.Round(math.Max(0, math.Min(1, alpha)) * 255))
	return color.NRGBA{r, g, b, a}
}
