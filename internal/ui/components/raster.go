package components

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
)

// Each terminal cell shows two vertically stacked pixels through the upper
// half block glyph: the foreground paints the top pixel, the background the
// bottom one.
const halfBlock = "▀"

// FitCells returns the largest cell area, within maxCols x maxRows, that
// shows an image of the given pixel size without distorting it.
func FitCells(size image.Point, maxCols, maxRows int) (int, int) {
	if size.X <= 0 || size.Y <= 0 || maxCols <= 0 || maxRows <= 0 {
		return 0, 0
	}
	scale := min(float64(maxCols)/float64(size.X), float64(maxRows*2)/float64(size.Y))
	cols := max(1, int(float64(size.X)*scale))
	rows := max(1, int(float64(size.Y)*scale/2))
	return cols, rows
}

// RenderRaster draws img into exactly cols x rows cells. Cells listed in
// marks are painted with markColor on top of the image.
func RenderRaster(img image.Image, cols, rows int, marks map[image.Point]bool, markColor color.Color) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	grid := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	draw.ApproxBiLinear.Scale(grid, grid.Bounds(), img, img.Bounds(), draw.Src, nil)

	var sb strings.Builder
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			top, bottom := color.Color(grid.RGBAAt(c, 2*r)), color.Color(grid.RGBAAt(c, 2*r+1))
			if marks[image.Pt(c, r)] {
				top, bottom = markColor, markColor
			}
			sb.WriteString(lipgloss.NewStyle().
				Foreground(hexColor(top)).
				Background(hexColor(bottom)).
				Render(halfBlock))
		}
		if r < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func hexColor(c color.Color) lipgloss.Color {
	r, g, b, _ := c.RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))
}
