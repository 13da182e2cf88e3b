package glx

import (
	"image"

	"github.com/go-gl/gl/v3.2-compatibility/gl"

	"github.com/doczir/compton/internal/region"
)

// damageRing holds the exact damage of the last few frames, most recent at
// slot 0. Together with the driver's buffer-age report it decides how much
// of the back buffer can be reused.
type damageRing struct {
	history [maxBufferAge + 1]region.Region
	depth   int
}

// record inserts this frame's raw damage at slot 0, evicting the oldest.
func (d *damageRing) record(dmg region.Region) {
	copy(d.history[1:], d.history[:len(d.history)-1])
	d.history[0] = dmg
	if d.depth < len(d.history) {
		d.depth++
	}
}

// expand widens the requested repaint region for a back buffer of the given
// age: content drawn age-1 frames ago or earlier is still present, so only
// the damage of the intervening frames needs repainting on top of the
// request. Age 0 means the buffer content is undefined.
func (d *damageRing) expand(requested region.Region, age int, screen region.Region) region.Region {
	if age <= 0 {
		return screen
	}
	out := requested
	for i := 0; i < age-1 && i < len(d.history); i++ {
		out = out.Union(d.history[i])
	}
	return out
}

// traceDamage reports whether the swap method leaves stale-but-valid
// content in the back buffer, making per-frame damage tracking worthwhile.
func traceDamage(m SwapMethod) bool {
	return m == SwapExchange || m == SwapBufferAge
}

// PaintPre computes the region to actually repaint this frame from the
// requested damage and the back buffer's age, updates the damage history
// and applies the result as the clip region. Must run before any painting.
func (s *Session) PaintPre(damage region.Region) region.Region {
	trace := traceDamage(s.opts.SwapMethod)

	// Snapshot the raw damage before it gets widened.
	newDamage := damage

	age := 0
	if s.opts.SwapMethod == SwapBufferAge {
		age = s.procs.bufferAge()
	}
	// An age beyond the history depth is as good as no age at all.
	if age > maxBufferAge+1 {
		age = 0
	}

	screen := region.FromRect(image.Rect(0, 0, s.rootWidth, s.rootHeight))
	repaint := s.damage.expand(damage, age, screen)

	if trace {
		s.damage.record(newDamage)
	}

	s.SetClip(repaint)
	s.checkErr("paint pre")
	return repaint
}

// SetClip applies the repaint region as the hardware clip. A single
// rectangle maps to the scissor box; multi-rectangle regions are left to
// per-quad clipping in the render pass, since no multi-rect scissor
// primitive exists.
func (s *Session) SetClip(reg region.Region) {
	if s.opts.NoStencil {
		return
	}
	if !s.glReady {
		return
	}

	gl.Disable(gl.STENCIL_TEST)
	gl.Disable(gl.SCISSOR_TEST)

	if reg.IsEmpty() {
		return
	}

	if rects := reg.Rects(); len(rects) == 1 {
		r := rects[0]
		gl.Enable(gl.SCISSOR_TEST)
		gl.Scissor(int32(r.Min.X), int32(s.rootHeight-r.Max.Y),
			int32(r.Dx()), int32(r.Dy()))
	}
}
