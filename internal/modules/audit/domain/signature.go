package domain

const (
	SignatureWidth  = 600
	SignatureHeight = 200
)

// SignaturePad is a canvas with no separate base image. Its result is the
// single flattened signature raster.
type SignaturePad struct {
	canvas *Canvas
}

// NewSignaturePad continues from an existing signature when one is given.
func NewSignaturePad(existing []byte) (*SignaturePad, error) {
	if len(existing) == 0 {
		return &SignaturePad{canvas: NewBlankCanvas(SignatureWidth, SignatureHeight, SignaturePen)}, nil
	}
	canvas, err := NewCanvas(existing, nil, SignaturePen)
	if err != nil {
		return nil, err
	}
	canvas.strokes = 1
	return &SignaturePad{canvas: canvas}, nil
}

func (p *SignaturePad) Canvas() *Canvas {
	return p.canvas
}

func (p *SignaturePad) BeginStroke(pt Point) {
	p.canvas.BeginStroke(pt)
}

func (p *SignaturePad) ExtendStroke(pt Point) {
	p.canvas.ExtendStroke(pt)
}

// EndStroke returns the flattened signature; ok is false when no stroke was
// in progress.
func (p *SignaturePad) EndStroke() ([]byte, bool, error) {
	out, ok, err := p.canvas.EndStroke()
	if err != nil || !ok {
		return nil, ok, err
	}
	return out.Raster, true, nil
}

func (p *SignaturePad) Leave() ([]byte, bool, error) {
	return p.EndStroke()
}

// Clear blanks the pad.
func (p *SignaturePad) Clear() {
	p.canvas = NewBlankCanvas(SignatureWidth, SignatureHeight, SignaturePen)
}

func (p *SignaturePad) Empty() bool {
	return p.canvas.Empty()
}
