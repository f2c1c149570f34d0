package domain

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

type CaptureOptions struct {
	// SquareCrop keeps the centered square of side min(width, height).
	SquareCrop bool
	// MaxSide downscales larger stills so their longest side fits. Zero
	// keeps the native resolution.
	MaxSide int
}

// CaptureFrame turns one video frame into an encoded still.
func CaptureFrame(frame image.Image, opts CaptureOptions) ([]byte, error) {
	if frame == nil || frame.Bounds().Dx() <= 0 || frame.Bounds().Dy() <= 0 {
		return nil, ErrEmptyFrame
	}
	still := frame
	if opts.SquareCrop {
		still = CropSquare(still)
	}
	if opts.MaxSide > 0 {
		still = fit(still, opts.MaxSide)
	}
	return EncodePNG(still)
}

// CropSquare copies the centered square of side min(width, height).
func CropSquare(src image.Image) *image.RGBA {
	b := src.Bounds()
	side := min(b.Dx(), b.Dy())
	origin := image.Pt(b.Min.X+(b.Dx()-side)/2, b.Min.Y+(b.Dy()-side)/2)
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), src, origin, draw.Src)
	return dst
}

func fit(src image.Image, maxSide int) image.Image {
	b := src.Bounds()
	longest := max(b.Dx(), b.Dy())
	if longest <= maxSide {
		return src
	}
	w := max(1, b.Dx()*maxSide/longest)
	h := max(1, b.Dy()*maxSide/longest)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// Compress re-encodes raster as JPEG at quality in (0, 1]. It never fails:
// the input comes back unchanged when it cannot be decoded, the quality is
// out of range, or the re-encoded form is not smaller.
func Compress(raster []byte, quality float64) []byte {
	if quality <= 0 || quality > 1 {
		return raster
	}
	img, err := DecodeRaster(raster)
	if err != nil {
		return raster
	}
	q := int(quality * 100)
	q = min(max(q, 1), 100)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, onWhite(img), &jpeg.Options{Quality: q}); err != nil {
		return raster
	}
	if buf.Len() >= len(raster) {
		return raster
	}
	return buf.Bytes()
}

// DecodeRaster decodes a PNG or JPEG raster.
func DecodeRaster(raster []byte) (image.Image, error) {
	if len(raster) == 0 {
		return nil, fmt.Errorf("decode raster: empty")
	}
	img, _, err := image.Decode(bytes.NewReader(raster))
	if err != nil {
		return nil, fmt.Errorf("decode raster: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decode raster: zero-size image")
	}
	return img, nil
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// onWhite composites img over an opaque white background.
func onWhite(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// Opaque returns img flattened onto white, the form handed to document
// renderers.
func Opaque(img image.Image) *image.RGBA {
	return onWhite(img)
}
