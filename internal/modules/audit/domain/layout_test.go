package domain_test

import (
	"math"
	"testing"

	"siteaudit/internal/modules/audit/domain"
)

func TestPaginateUniformBlocks(t *testing.T) {
	t.Parallel()
	layout := domain.PageLayout{Top: 20, Threshold: 250, Bottom: 260}
	const block = 120.0
	for n := 1; n <= 9; n++ {
		heights := make([]float64, n)
		for i := range heights {
			heights[i] = block
		}
		placements, pages := domain.Paginate(heights, layout)
		want := int(math.Ceil(float64(n) * block / layout.Capacity()))
		if pages != want {
			t.Fatalf("n=%d: expected %d pages, got %d", n, want, pages)
		}
		for i, p := range placements {
			if p.Y+block > layout.Bottom {
				t.Fatalf("n=%d: block %d crosses the bottom (y=%v)", n, i, p.Y)
			}
		}
	}
}

func TestPaginateNeverSplitsBlocks(t *testing.T) {
	t.Parallel()
	layout := domain.PageLayout{Top: 10, Threshold: 90, Bottom: 100}
	heights := []float64{30, 50, 30, 5, 5, 60, 90}
	placements, pages := domain.Paginate(heights, layout)
	if len(placements) != len(heights) {
		t.Fatalf("expected %d placements, got %d", len(heights), len(placements))
	}
	for i, p := range placements {
		if p.Y < layout.Top || p.Y+heights[i] > layout.Bottom {
			t.Fatalf("block %d split or out of page: %+v", i, p)
		}
		if i > 0 && p.Page < placements[i-1].Page {
			t.Fatalf("pages went backwards at block %d", i)
		}
	}
	if pages != placements[len(placements)-1].Page {
		t.Fatalf("expected page count %d to match last placement %d", pages, placements[len(placements)-1].Page)
	}
}

func TestPaginateThresholdStartsNewPage(t *testing.T) {
	t.Parallel()
	layout := domain.PageLayout{Top: 0, Threshold: 50, Bottom: 100}
	placements, pages := domain.Paginate([]float64{60, 10}, layout)
	if pages != 2 || placements[1].Page != 2 || placements[1].Y != 0 {
		t.Fatalf("expected second block on a new page, got %+v (%d pages)", placements, pages)
	}
}

func TestPaginateEmpty(t *testing.T) {
	t.Parallel()
	placements, pages := domain.Paginate(nil, domain.PageLayout{Top: 0, Threshold: 50, Bottom: 100})
	if pages != 0 || len(placements) != 0 {
		t.Fatalf("expected nothing, got %+v (%d pages)", placements, pages)
	}
}
