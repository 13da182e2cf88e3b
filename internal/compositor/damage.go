package compositor

import (
	"image"

	"github.com/doczir/compton/internal/glx"
	"github.com/doczir/compton/internal/region"
)

func windowRect(w glx.WindowInfo) image.Rectangle {
	return image.Rect(w.X, w.Y, w.X+w.Width, w.Y+w.Height)
}

// frameDamage compares two stacking snapshots and returns the region that
// needs repainting: every window that appeared, vanished, moved, resized or
// changed stacking position, covering both its old and new extents. An empty
// region means the frame can be skipped entirely.
func frameDamage(prev, cur []glx.WindowInfo) region.Region {
	var damaged []image.Rectangle

	prevByID := make(map[glx.Window]glx.WindowInfo, len(prev))
	prevPos := make(map[glx.Window]int, len(prev))
	for i, w := range prev {
		prevByID[w.ID] = w
		prevPos[w.ID] = i
	}

	curIDs := make(map[glx.Window]struct{}, len(cur))
	for i, w := range cur {
		curIDs[w.ID] = struct{}{}
		old, ok := prevByID[w.ID]
		if !ok {
			if w.Viewable {
				damaged = append(damaged, windowRect(w))
			}
			continue
		}
		if old == w && prevPos[w.ID] == i {
			continue
		}
		if old.Viewable {
			damaged = append(damaged, windowRect(old))
		}
		if w.Viewable {
			damaged = append(damaged, windowRect(w))
		}
	}

	for _, w := range prev {
		if _, ok := curIDs[w.ID]; !ok && w.Viewable {
			damaged = append(damaged, windowRect(w))
		}
	}

	return region.FromRects(damaged...)
}
