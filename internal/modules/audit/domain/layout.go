package domain

// PageLayout describes the vertical space of one page in document units.
type PageLayout struct {
	Top float64
	// Threshold is the near-bottom line: once the cursor passes it the next
	// block starts a new page.
	Threshold float64
	// Bottom is the lowest a block may reach.
	Bottom float64
}

func (l PageLayout) Capacity() float64 {
	return l.Bottom - l.Top
}

type Placement struct {
	Page int
	Y    float64
}

// Paginate lays blocks of the given heights top to bottom starting on page 1
// at Top. A block is never split: a new page starts before it when the
// cursor is past the threshold or the block would cross Bottom. It returns
// one placement per block and the number of pages used.
func Paginate(heights []float64, layout PageLayout) ([]Placement, int) {
	if len(heights) == 0 {
		return []Placement{}, 0
	}
	placements := make([]Placement, 0, len(heights))
	page, y := 1, layout.Top
	for _, h := range heights {
		if y > layout.Top && (y > layout.Threshold || y+h > layout.Bottom) {
			page++
			y = layout.Top
		}
		placements = append(placements, Placement{Page: page, Y: y})
		y += h
	}
	return placements, page
}
