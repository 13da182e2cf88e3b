package region

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRectEmpty(t *testing.T) {
	assert.True(t, FromRect(image.Rect(10, 10, 10, 20)).IsEmpty())
	assert.True(t, Empty.IsEmpty())
	assert.False(t, FromRect(image.Rect(0, 0, 1, 1)).IsEmpty())
}

func TestUnionDisjoint(t *testing.T) {
	a := FromRect(image.Rect(0, 0, 10, 10))
	b := FromRect(image.Rect(20, 20, 30, 30))
	u := a.Union(b)
	require.Equal(t, 2, u.NumRects())
	assert.Equal(t, image.Rect(0, 0, 30, 30), u.Bounds())
}

func TestUnionOverlapping(t *testing.T) {
	a := FromRect(image.Rect(0, 0, 10, 10))
	b := FromRect(image.Rect(5, 0, 20, 10))
	u := a.Union(b)
	require.Equal(t, 1, u.NumRects())
	assert.Equal(t, image.Rect(0, 0, 20, 10), u.Rects()[0])
}

func TestUnionCoalescesAdjacentBands(t *testing.T) {
	a := FromRect(image.Rect(0, 0, 10, 5))
	b := FromRect(image.Rect(0, 5, 10, 10))
	u := a.Union(b)
	require.Equal(t, 1, u.NumRects())
	assert.Equal(t, image.Rect(0, 0, 10, 10), u.Rects()[0])
}

func TestUnionIsCanonical(t *testing.T) {
	// The same pixel set assembled in different orders must compare equal.
	rects := []image.Rectangle{
		image.Rect(0, 0, 10, 10),
		image.Rect(5, 5, 15, 15),
		image.Rect(0, 10, 5, 20),
	}
	a := FromRects(rects[0], rects[1], rects[2])
	b := FromRects(rects[2], rects[0], rects[1])
	c := FromRects(rects[1], rects[2], rects[0])
	assert.True(t, a.Eq(b))
	assert.True(t, b.Eq(c))
}

func TestIntersect(t *testing.T) {
	a := FromRect(image.Rect(0, 0, 10, 10))
	b := FromRect(image.Rect(5, 5, 20, 20))
	i := a.Intersect(b)
	require.Equal(t, 1, i.NumRects())
	assert.Equal(t, image.Rect(5, 5, 10, 10), i.Rects()[0])

	assert.True(t, a.Intersect(FromRect(image.Rect(50, 50, 60, 60))).IsEmpty())
	assert.True(t, a.Intersect(Empty).IsEmpty())
}

func TestIntersectRectMultiBand(t *testing.T) {
	u := FromRects(image.Rect(0, 0, 10, 10), image.Rect(20, 0, 30, 10))
	clipped := u.IntersectRect(image.Rect(5, 0, 25, 10))
	require.Equal(t, 2, clipped.NumRects())
	assert.Equal(t, image.Rect(5, 0, 10, 10), clipped.Rects()[0])
	assert.Equal(t, image.Rect(20, 0, 25, 10), clipped.Rects()[1])
}

func TestUnionWithEmpty(t *testing.T) {
	a := FromRect(image.Rect(0, 0, 10, 10))
	assert.True(t, a.Union(Empty).Eq(a))
	assert.True(t, Empty.Union(a).Eq(a))
}

func TestBounds(t *testing.T) {
	u := FromRects(image.Rect(-5, 0, 10, 10), image.Rect(20, -3, 30, 7))
	assert.Equal(t, image.Rect(-5, -3, 30, 10), u.Bounds())
}
