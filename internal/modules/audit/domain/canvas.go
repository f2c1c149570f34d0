package domain

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Pen is the fixed stroke style of a canvas.
type Pen struct {
	Color color.RGBA
	Width float64
}

var (
	AnnotationPen = Pen{Color: color.RGBA{R: 0xe0, G: 0x1b, B: 0x24, A: 0xff}, Width: 4}
	SignaturePen  = Pen{Color: color.RGBA{A: 0xff}, Width: 3}
)

type Point struct {
	X float64
	Y float64
}

// MapPoint converts a pointer position on a display of size display into
// the pixel grid of a canvas of size canvas.
func MapPoint(p Point, display, canvas image.Point) Point {
	if display.X <= 0 || display.Y <= 0 {
		return p
	}
	return Point{
		X: p.X * float64(canvas.X) / float64(display.X),
		Y: p.Y * float64(canvas.Y) / float64(display.Y),
	}
}

// Flattened is the outcome of a finished stroke: the base with every stroke
// merged in, and the strokes alone on a transparent layer.
type Flattened struct {
	Raster  []byte
	Overlay []byte
}

// Canvas is a base raster with an editable stroke overlay. It is Idle until
// BeginStroke and returns to Idle on EndStroke or Leave.
type Canvas struct {
	base    *image.RGBA
	overlay *image.RGBA
	pen     Pen
	drawing bool
	last    Point
	strokes int
}

// NewCanvas layers overlay, when present, on top of base.
func NewCanvas(base, overlay []byte, pen Pen) (*Canvas, error) {
	baseImg, err := DecodeRaster(base)
	if err != nil {
		return nil, fmt.Errorf("load canvas base: %w", err)
	}
	c := newCanvas(toRGBA(baseImg), pen)
	if len(overlay) > 0 {
		overlayImg, err := DecodeRaster(overlay)
		if err != nil {
			return nil, fmt.Errorf("load canvas overlay: %w", err)
		}
		draw.Draw(c.overlay, c.overlay.Bounds(), overlayImg, overlayImg.Bounds().Min, draw.Src)
		c.strokes = 1
	}
	return c, nil
}

// NewBlankCanvas starts from an opaque white sheet.
func NewBlankCanvas(width, height int, pen Pen) *Canvas {
	base := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(base, base.Bounds(), image.White, image.Point{}, draw.Src)
	return newCanvas(base, pen)
}

func newCanvas(base *image.RGBA, pen Pen) *Canvas {
	return &Canvas{
		base:    base,
		overlay: image.NewRGBA(base.Bounds()),
		pen:     pen,
	}
}

func (c *Canvas) Size() image.Point {
	return c.base.Bounds().Size()
}

func (c *Canvas) Drawing() bool {
	return c.drawing
}

// Empty reports whether no stroke has been drawn.
func (c *Canvas) Empty() bool {
	return c.strokes == 0
}

func (c *Canvas) BeginStroke(p Point) {
	c.drawing = true
	c.last = p
	c.strokes++
	c.dot(p)
}

// ExtendStroke is ignored while Idle.
func (c *Canvas) ExtendStroke(p Point) {
	if !c.drawing {
		return
	}
	c.segment(c.last, p)
	c.last = p
}

// EndStroke flattens the overlay onto the base. ok is false when no stroke
// was in progress.
func (c *Canvas) EndStroke() (Flattened, bool, error) {
	if !c.drawing {
		return Flattened{}, false, nil
	}
	c.drawing = false
	out, err := c.Flatten()
	if err != nil {
		return Flattened{}, false, err
	}
	return out, true, nil
}

// Leave handles the pointer leaving the canvas area exactly like a release.
func (c *Canvas) Leave() (Flattened, bool, error) {
	return c.EndStroke()
}

// ClearStrokes drops every stroke and leaves the base untouched.
func (c *Canvas) ClearStrokes() {
	c.drawing = false
	c.strokes = 0
	draw.Draw(c.overlay, c.overlay.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

func (c *Canvas) Flatten() (Flattened, error) {
	merged := image.NewRGBA(c.base.Bounds())
	draw.Draw(merged, merged.Bounds(), c.base, c.base.Bounds().Min, draw.Src)
	draw.Draw(merged, merged.Bounds(), c.overlay, c.overlay.Bounds().Min, draw.Over)
	raster, err := EncodePNG(merged)
	if err != nil {
		return Flattened{}, err
	}
	overlay, err := EncodePNG(c.overlay)
	if err != nil {
		return Flattened{}, err
	}
	return Flattened{Raster: raster, Overlay: overlay}, nil
}

func (c *Canvas) dot(p Point) {
	c.fill(circle(p, c.pen.Width/2))
}

// segment draws a capsule from a to b: a quad of the pen width plus a round
// cap at b. Shapes are filled one at a time so opposite windings never cancel.
func (c *Canvas) segment(a, b Point) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	half := c.pen.Width / 2
	nx, ny := -dy/length*half, dx/length*half
	c.fill([]Point{
		{a.X + nx, a.Y + ny},
		{b.X + nx, b.Y + ny},
		{b.X - nx, b.Y - ny},
		{a.X - nx, a.Y - ny},
	})
	c.fill(circle(b, half))
}

func (c *Canvas) fill(poly []Point) {
	size := c.overlay.Bounds().Size()
	r := vector.NewRasterizer(size.X, size.Y)
	r.MoveTo(float32(poly[0].X), float32(poly[0].Y))
	for _, p := range poly[1:] {
		r.LineTo(float32(p.X), float32(p.Y))
	}
	r.ClosePath()
	r.Draw(c.overlay, c.overlay.Bounds(), image.NewUniform(c.pen.Color), image.Point{})
}

func circle(center Point, radius float64) []Point {
	const sides = 16
	out := make([]Point, 0, sides)
	for i := 0; i < sides; i++ {
		theta := 2 * math.Pi * float64(i) / sides
		out = append(out, Point{center.X + radius*math.Cos(theta), center.Y + radius*math.Sin(theta)})
	}
	return out
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
