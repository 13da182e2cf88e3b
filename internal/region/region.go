// Package region implements 2D region algebra over axis-aligned rectangles.
//
// A Region is kept in normalized band form: rectangles are grouped into
// horizontal bands sorted top to bottom, rectangles within a band share the
// same vertical extent and are sorted left to right without touching or
// overlapping, and vertically adjacent bands with identical horizontal spans
// are coalesced. Two regions covering the same set of pixels therefore have
// identical rectangle lists.
package region

import (
	"image"
	"sort"
)

type Region struct {
	rects []image.Rectangle
}

// Empty is the zero region.
var Empty = Region{}

func FromRect(r image.Rectangle) Region {
	if r.Empty() {
		return Region{}
	}
	return Region{rects: []image.Rectangle{r.Canon()}}
}

func FromRects(rs ...image.Rectangle) Region {
	out := Region{}
	for _, r := range rs {
		out = out.Union(FromRect(r))
	}
	return out
}

func (g Region) IsEmpty() bool { return len(g.rects) == 0 }

// Rects returns the normalized rectangle list. The slice must not be
// modified by the caller.
func (g Region) Rects() []image.Rectangle { return g.rects }

func (g Region) NumRects() int { return len(g.rects) }

func (g Region) Bounds() image.Rectangle {
	if len(g.rects) == 0 {
		return image.Rectangle{}
	}
	b := g.rects[0]
	for _, r := range g.rects[1:] {
		b = b.Union(r)
	}
	return b
}

func (g Region) Eq(o Region) bool {
	if len(g.rects) != len(o.rects) {
		return false
	}
	for i, r := range g.rects {
		if r != o.rects[i] {
			return false
		}
	}
	return true
}

func (g Region) Union(o Region) Region {
	if g.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return g
	}
	return combine(g, o, func(a, b []span) []span { return unionSpans(a, b) })
}

func (g Region) Intersect(o Region) Region {
	if g.IsEmpty() || o.IsEmpty() {
		return Region{}
	}
	return combine(g, o, func(a, b []span) []span { return intersectSpans(a, b) })
}

// IntersectRect clips the region to a single rectangle.
func (g Region) IntersectRect(r image.Rectangle) Region {
	return g.Intersect(FromRect(r))
}

// span is a half-open horizontal interval [x1, x2).
type span struct{ x1, x2 int }

// combine runs a sweep over the horizontal band edges of both regions,
// merging each band's spans with op, then re-normalizes.
func combine(a, b Region, op func(x, y []span) []span) Region {
	edges := make([]int, 0, 2*(len(a.rects)+len(b.rects)))
	for _, r := range a.rects {
		edges = append(edges, r.Min.Y, r.Max.Y)
	}
	for _, r := range b.rects {
		edges = append(edges, r.Min.Y, r.Max.Y)
	}
	sort.Ints(edges)
	edges = dedupe(edges)

	var out []image.Rectangle
	for i := 0; i+1 < len(edges); i++ {
		y1, y2 := edges[i], edges[i+1]
		spans := op(bandSpans(a.rects, y1), bandSpans(b.rects, y1))
		for _, s := range spans {
			out = append(out, image.Rect(s.x1, y1, s.x2, y2))
		}
	}
	return Region{rects: coalesce(out)}
}

func dedupe(xs []int) []int {
	out := xs[:0]
	for i, x := range xs {
		if i == 0 || x != xs[i-1] {
			out = append(out, x)
		}
	}
	return out
}

// bandSpans collects the sorted spans of rects covering row y.
func bandSpans(rects []image.Rectangle, y int) []span {
	var spans []span
	for _, r := range rects {
		if r.Min.Y <= y && y < r.Max.Y {
			spans = append(spans, span{r.Min.X, r.Max.X})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].x1 < spans[j].x1 })
	return spans
}

func unionSpans(a, b []span) []span {
	all := append(append([]span{}, a...), b...)
	sort.Slice(all, func(i, j int) bool { return all[i].x1 < all[j].x1 })
	var out []span
	for _, s := range all {
		if n := len(out); n > 0 && s.x1 <= out[n-1].x2 {
			if s.x2 > out[n-1].x2 {
				out[n-1].x2 = s.x2
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

func intersectSpans(a, b []span) []span {
	var out []span
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		x1 := max(a[i].x1, b[j].x1)
		x2 := min(a[i].x2, b[j].x2)
		if x1 < x2 {
			out = append(out, span{x1, x2})
		}
		if a[i].x2 < b[j].x2 {
			i++
		} else {
			j++
		}
	}
	return out
}

type band struct {
	y1, y2 int
	spans  []span
}

// coalesce merges vertically adjacent bands whose span lists are identical,
// yielding the canonical form.
func coalesce(rects []image.Rectangle) []image.Rectangle {
	if len(rects) == 0 {
		return nil
	}
	var bands []band
	for _, r := range rects {
		if n := len(bands); n > 0 && bands[n-1].y1 == r.Min.Y {
			bands[n-1].spans = append(bands[n-1].spans, span{r.Min.X, r.Max.X})
			continue
		}
		bands = append(bands, band{r.Min.Y, r.Max.Y, []span{{r.Min.X, r.Max.X}}})
	}

	merged := bands[:0:0]
	for _, b := range bands {
		if n := len(merged); n > 0 && merged[n-1].y2 == b.y1 && sameSpans(merged[n-1].spans, b.spans) {
			merged[n-1].y2 = b.y2
			continue
		}
		merged = append(merged, b)
	}

	var out []image.Rectangle
	for _, b := range merged {
		for _, s := range b.spans {
			out = append(out, image.Rect(s.x1, b.y1, s.x2, b.y2))
		}
	}
	return out
}

func sameSpans(a, b []span) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
