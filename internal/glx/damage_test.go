package glx

import (
	"fmt"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doczir/compton/internal/region"
)

func frameDamage(i int) region.Region {
	return region.FromRect(image.Rect(i*10, 0, i*10+5, 5))
}

func TestDamageRingHoldsMostRecentFirst(t *testing.T) {
	var ring damageRing
	for i := 1; i <= 3; i++ {
		ring.record(frameDamage(i))
	}
	assert.Equal(t, 3, ring.depth)
	assert.True(t, ring.history[0].Eq(frameDamage(3)))
	assert.True(t, ring.history[1].Eq(frameDamage(2)))
	assert.True(t, ring.history[2].Eq(frameDamage(1)))
}

func TestDamageRingEvictsOldest(t *testing.T) {
	var ring damageRing
	n := maxBufferAge + 1 + 3
	for i := 1; i <= n; i++ {
		ring.record(frameDamage(i))
	}
	require.Equal(t, maxBufferAge+1, ring.depth)
	for slot := 0; slot < maxBufferAge+1; slot++ {
		assert.True(t, ring.history[slot].Eq(frameDamage(n-slot)),
			fmt.Sprintf("slot %d", slot))
	}
}

func TestExpandAgeZeroForcesFullScreen(t *testing.T) {
	var ring damageRing
	ring.record(frameDamage(1))
	screen := region.FromRect(image.Rect(0, 0, 1920, 1080))
	got := ring.expand(frameDamage(2), 0, screen)
	assert.True(t, got.Eq(screen))
}

func TestExpandAgeOneIsRequestedRegionOnly(t *testing.T) {
	var ring damageRing
	ring.record(frameDamage(1))
	screen := region.FromRect(image.Rect(0, 0, 1920, 1080))
	req := frameDamage(9)
	got := ring.expand(req, 1, screen)
	assert.True(t, got.Eq(req))
}

func TestExpandUnionsHistorySlots(t *testing.T) {
	var ring damageRing
	for i := 1; i <= 4; i++ {
		ring.record(frameDamage(i))
	}
	screen := region.FromRect(image.Rect(0, 0, 1920, 1080))
	req := frameDamage(9)

	// Age k unions slots 0..k-2 into the request.
	for k := 2; k <= 4; k++ {
		want := req
		for slot := 0; slot <= k-2; slot++ {
			want = want.Union(ring.history[slot])
		}
		got := ring.expand(req, k, screen)
		assert.True(t, got.Eq(want), fmt.Sprintf("age %d", k))
	}
}

func TestPaintPreClampsExcessiveAge(t *testing.T) {
	f := newFakeProcs()
	s := testSession(f)
	s.opts.SwapMethod = SwapBufferAge
	s.procs.bufferAge = func() int { return maxBufferAge + 2 }

	got := s.PaintPre(frameDamage(1))
	screen := region.FromRect(image.Rect(0, 0, s.rootWidth, s.rootHeight))
	assert.True(t, got.Eq(screen))
}

func TestPaintPreRecordsRawDamageNotExpanded(t *testing.T) {
	f := newFakeProcs()
	s := testSession(f)
	s.opts.SwapMethod = SwapBufferAge
	s.procs.bufferAge = func() int { return 0 }

	raw := frameDamage(1)
	s.PaintPre(raw)
	// Slot 0 holds the raw damage even though a full repaint was forced.
	assert.True(t, s.damage.history[0].Eq(raw))
}

func TestPaintPreNoTracingForCopySwap(t *testing.T) {
	f := newFakeProcs()
	s := testSession(f)
	s.opts.SwapMethod = SwapCopy

	s.PaintPre(frameDamage(1))
	assert.Equal(t, 0, s.damage.depth)
}

func TestTraceDamage(t *testing.T) {
	assert.False(t, traceDamage(SwapUndefined))
	assert.False(t, traceDamage(SwapCopy))
	assert.True(t, traceDamage(SwapExchange))
	assert.True(t, traceDamage(SwapBufferAge))
}
