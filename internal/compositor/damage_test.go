package compositor

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doczir/compton/internal/glx"
)

func win(id glx.Window, x, y, w, h int) glx.WindowInfo {
	return glx.WindowInfo{ID: id, X: x, Y: y, Width: w, Height: h, Depth: 24, Viewable: true}
}

func TestFrameDamageUnchanged(t *testing.T) {
	stack := []glx.WindowInfo{win(1, 0, 0, 100, 100), win(2, 50, 50, 200, 200)}
	assert.True(t, frameDamage(stack, stack).IsEmpty())
}

func TestFrameDamageNewWindow(t *testing.T) {
	prev := []glx.WindowInfo{win(1, 0, 0, 100, 100)}
	cur := append(prev, win(2, 200, 200, 50, 50))

	d := frameDamage(prev, cur)
	require.False(t, d.IsEmpty())
	assert.Equal(t, image.Rect(200, 200, 250, 250), d.Bounds())
}

func TestFrameDamageMovedWindowCoversBothPlaces(t *testing.T) {
	prev := []glx.WindowInfo{win(1, 0, 0, 100, 100)}
	cur := []glx.WindowInfo{win(1, 300, 0, 100, 100)}

	d := frameDamage(prev, cur)
	assert.Equal(t, 2, d.NumRects())
	assert.Equal(t, image.Rect(0, 0, 400, 100), d.Bounds())
}

func TestFrameDamageClosedWindow(t *testing.T) {
	prev := []glx.WindowInfo{win(1, 0, 0, 100, 100), win(2, 500, 500, 10, 10)}
	cur := []glx.WindowInfo{win(1, 0, 0, 100, 100)}

	d := frameDamage(prev, cur)
	assert.Equal(t, image.Rect(500, 500, 510, 510), d.Bounds())
}

func TestFrameDamageRestack(t *testing.T) {
	a, b := win(1, 0, 0, 100, 100), win(2, 50, 50, 100, 100)
	prev := []glx.WindowInfo{a, b}
	cur := []glx.WindowInfo{b, a}

	// Swapped stacking order repaints both extents.
	d := frameDamage(prev, cur)
	assert.Equal(t, image.Rect(0, 0, 150, 150), d.Bounds())
}

func TestFrameDamageIgnoresHiddenWindows(t *testing.T) {
	hidden := win(3, 10, 10, 20, 20)
	hidden.Viewable = false

	assert.True(t, frameDamage(nil, []glx.WindowInfo{hidden}).IsEmpty())
}

func TestFlipRGB(t *testing.T) {
	// 2x2 bottom-up: buffer row 0 is the bottom screen row.
	buf := []byte{
		1, 2, 3, 4, 5, 6, // bottom row: left, right
		7, 8, 9, 10, 11, 12, // top row: left, right
	}
	img := flipRGB(buf, 2, 2)

	assert.Equal(t, color.RGBA{R: 7, G: 8, B: 9, A: 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 4, G: 5, B: 6, A: 255}, img.RGBAAt(1, 1))
}
