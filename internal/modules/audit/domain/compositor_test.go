package domain_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"siteaudit/internal/modules/audit/domain"
)

func noisyFrame(w, h int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(rng.Intn(256)), G: uint8(x), B: uint8(y), A: 0xff})
		}
	}
	return img
}

func decodeSize(t *testing.T, raster []byte) image.Point {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(raster))
	if err != nil {
		t.Fatalf("decode raster: %v", err)
	}
	return img.Bounds().Size()
}

func TestCaptureFrameSquareCrop(t *testing.T) {
	t.Parallel()
	cases := []struct{ w, h int }{{640, 480}, {480, 640}, {300, 300}, {1, 9}, {17, 4}}
	for _, tc := range cases {
		raster, err := domain.CaptureFrame(noisyFrame(tc.w, tc.h, 1), domain.CaptureOptions{SquareCrop: true})
		if err != nil {
			t.Fatalf("capture %dx%d: %v", tc.w, tc.h, err)
		}
		size := decodeSize(t, raster)
		side := min(tc.w, tc.h)
		if size.X != side || size.Y != side {
			t.Fatalf("expected %dx%d square, got %v", side, side, size)
		}
	}
}

func TestCropSquareIsCentered(t *testing.T) {
	t.Parallel()
	src := image.NewRGBA(image.Rect(10, 20, 16, 24))
	marker := color.RGBA{R: 1, G: 2, B: 3, A: 255}
	// 6x4 frame: the square starts one column in from the left.
	src.SetRGBA(11, 20, marker)

	out := domain.CropSquare(src)
	if out.Bounds() != image.Rect(0, 0, 4, 4) {
		t.Fatalf("unexpected bounds %v", out.Bounds())
	}
	if got := out.RGBAAt(0, 0); got != marker {
		t.Fatalf("expected marker at origin, got %v", got)
	}
}

func TestCaptureFrameFullFrameAndDownscale(t *testing.T) {
	t.Parallel()
	raster, err := domain.CaptureFrame(noisyFrame(200, 100, 2), domain.CaptureOptions{})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if size := decodeSize(t, raster); size != image.Pt(200, 100) {
		t.Fatalf("expected full frame, got %v", size)
	}

	raster, err = domain.CaptureFrame(noisyFrame(200, 100, 2), domain.CaptureOptions{MaxSide: 50})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if size := decodeSize(t, raster); size != image.Pt(50, 25) {
		t.Fatalf("expected 50x25, got %v", size)
	}
}

func TestCaptureFrameRejectsEmptyFrame(t *testing.T) {
	t.Parallel()
	for _, frame := range []image.Image{nil, image.NewRGBA(image.Rect(0, 0, 0, 0)), image.NewRGBA(image.Rect(0, 0, 10, 0))} {
		if _, err := domain.CaptureFrame(frame, domain.CaptureOptions{SquareCrop: true}); err != domain.ErrEmptyFrame {
			t.Fatalf("expected ErrEmptyFrame, got %v", err)
		}
	}
}

func TestCompressNeverGrows(t *testing.T) {
	t.Parallel()
	raster, err := domain.EncodePNG(noisyFrame(64, 64, 3))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, q := range []float64{0.1, 0.5, 0.8, 0.99} {
		out := domain.Compress(raster, q)
		if len(out) > len(raster) {
			t.Fatalf("quality %v: expected <= %d bytes, got %d", q, len(raster), len(out))
		}
	}
}

func TestCompressNoopCases(t *testing.T) {
	t.Parallel()
	garbage := []byte("not an image")
	if out := domain.Compress(garbage, 0.5); !bytes.Equal(out, garbage) {
		t.Fatalf("expected undecodable raster back unchanged")
	}
	raster, err := domain.EncodePNG(noisyFrame(8, 8, 4))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, q := range []float64{0, -1, 1.5} {
		if out := domain.Compress(raster, q); !bytes.Equal(out, raster) {
			t.Fatalf("quality %v: expected raster unchanged", q)
		}
	}
}
