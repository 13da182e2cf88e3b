package glx

import (
	"github.com/charmbracelet/log"
)

// GLX_BIND_TO_TEXTURE_TARGETS_EXT bits.
const (
	target1DBit        = 0x0001
	target2DBit        = 0x0002
	targetRectangleBit = 0x0004
)

type texFormat int

const (
	formatRGB texFormat = iota
	formatRGBA
)

// formatCandidate is one FBConfig as probed from the driver. All attribute
// fetching happens in native.go; selection below is pure.
type formatCandidate struct {
	cfg fbHandle

	ID           int
	Samples      int
	BufferSize   int
	BufferSizeOK bool
	AlphaSize    int
	AlphaSizeOK  bool
	RedSize      int
	StencilSize  int
	DepthSize    int
	Targets      uint32
	TargetsOK    bool
	BindRGB      bool
	BindRGBA     bool
	BindMipmap   bool
	DoubleBuffer bool
	YInverted    bool

	// VisualDepth is the depth of the associated X visual, -1 when the
	// driver reports none.
	VisualDepth int
}

// FormatDescriptor is the chosen pixel format for one color depth. Immutable
// once negotiation finishes; the table is replaced wholesale on reinit.
type FormatDescriptor struct {
	cfg       fbHandle
	id        int
	format    texFormat
	targets   uint32
	yInverted bool

	// comparator inputs, retained so a later candidate can be ranked
	// against the incumbent
	bindRGBA     bool
	doubleBuffer bool
	stencilSize  int
	depthSize    int
	bindMipmap   bool
}

func (f *FormatDescriptor) RGBA() bool { return f.format == formatRGBA }

type formatTable [maxDepth + 1]*FormatDescriptor

// selectFormats builds the per-depth format table from the probed candidate
// set. Fails when the screen's primary depth ends up without a format; a
// missing depth-32 format (translucent windows) is only warned about.
func selectFormats(cands []formatCandidate, screenDepth int) (*formatTable, error) {
	table := &formatTable{}

	for i := range cands {
		c := &cands[i]
		// Multi-sampled visuals are trouble as front buffers.
		if c.Samples > 1 {
			continue
		}
		if !c.BufferSizeOK || !c.AlphaSizeOK {
			log.Errorf("failed to retrieve buffer size and alpha size of FBConfig %d", c.ID)
			continue
		}
		if !c.TargetsOK {
			log.Errorf("failed to retrieve texture bind targets of FBConfig %d", c.ID)
			continue
		}
		if c.VisualDepth < 0 {
			// Happens a lot on some NVIDIA drivers, not worth a log line.
			continue
		}
		// Avoid 10-bit colors.
		if c.RedSize != 8 {
			continue
		}

		rgbaCapable := c.BufferSize >= 32 && c.AlphaSize > 0 && c.BindRGBA

		if tgt := c.BufferSize - c.AlphaSize; tgt == c.VisualDepth && tgt < 32 && c.BindRGB {
			table.consider(c, tgt, formatRGB)
		}
		if c.BufferSize == c.VisualDepth && rgbaCapable {
			table.consider(c, c.BufferSize, formatRGBA)
		}
	}

	if table[screenDepth] == nil {
		return nil, &CapabilityError{Missing: "FBConfig for default screen depth"}
	}
	if table[32] == nil {
		log.Warn("no FBConfig found for depth 32, expect crazy things")
	}
	return table, nil
}

func (t *formatTable) consider(c *formatCandidate, depth int, fmt texFormat) {
	if depth < 0 || depth > maxDepth {
		return
	}
	if cur := t[depth]; cur != nil && !betterThan(c, cur) {
		return
	}
	log.Debugf("depth %d: FBConfig %d selected, targets %#x", depth, c.ID, c.Targets)
	t[depth] = &FormatDescriptor{
		cfg:          c.cfg,
		id:           c.ID,
		format:       fmt,
		targets:      c.Targets,
		yInverted:    c.YInverted,
		bindRGBA:     c.BindRGBA,
		doubleBuffer: c.DoubleBuffer,
		stencilSize:  c.StencilSize,
		depthSize:    c.DepthSize,
		bindMipmap:   c.BindMipmap,
	}
}

// betterThan ranks a new candidate against the incumbent descriptor. Each
// criterion only decides on a tie of all previous ones; the FBConfig ID
// breaks a full tie so the outcome does not depend on enumeration order.
func betterThan(c *formatCandidate, cur *FormatDescriptor) bool {
	if c.BindRGBA != cur.bindRGBA {
		return c.BindRGBA
	}
	if c.DoubleBuffer != cur.doubleBuffer {
		return c.DoubleBuffer
	}
	if c.StencilSize != cur.stencilSize {
		return c.StencilSize > cur.stencilSize
	}
	if c.DepthSize != cur.depthSize {
		return c.DepthSize > cur.depthSize
	}
	if c.BindMipmap != cur.bindMipmap {
		return !c.BindMipmap
	}
	return c.ID < cur.id
}
