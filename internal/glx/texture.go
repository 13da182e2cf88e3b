package glx

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/go-gl/gl/v3.2-compatibility/gl"
)

type texTarget int

const (
	target2D texTarget = iota
	targetRectangle
)

// glEnum returns the GL texture target enum.
func (t texTarget) glEnum() uint32 {
	if t == targetRectangle {
		return gl.TEXTURE_RECTANGLE
	}
	return gl.TEXTURE_2D
}

// procTable is the capability table of driver-resolved entry points the
// texture binder goes through. Populated once at session init and injected;
// tests substitute fakes.
type procTable struct {
	bindTexImage    func(glxPixmap)
	releaseTexImage func(glxPixmap)
	createPixmap    func(cfg fbHandle, pm Pixmap, f texFormat, tgt texTarget) glxPixmap
	destroyPixmap   func(glxPixmap)
	pixmapGeometry  func(Pixmap) (width, height, depth uint32, err error)
	genTexture      func(target texTarget) uint32
	deleteTexture   func(uint32)
	bufferAge       func() int
}

func nativeProcTable(dpy *Display, target Window) procTable {
	return procTable{
		bindTexImage:    dpy.bindTexImage,
		releaseTexImage: dpy.releaseTexImage,
		createPixmap:    dpy.createGLXPixmap,
		destroyPixmap:   dpy.destroyGLXPixmap,
		pixmapGeometry:  dpy.pixmapGeometry,
		genTexture: func(tgt texTarget) uint32 {
			var tex uint32
			gl.GenTextures(1, &tex)
			if tex == 0 {
				return 0
			}
			enum := tgt.glEnum()
			gl.Enable(enum)
			gl.BindTexture(enum, tex)
			gl.TexParameteri(enum, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
			gl.TexParameteri(enum, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
			gl.TexParameteri(enum, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
			gl.TexParameteri(enum, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
			gl.BindTexture(enum, 0)
			gl.Disable(enum)
			return tex
		},
		deleteTexture: func(tex uint32) {
			gl.DeleteTextures(1, &tex)
		},
		bufferAge: func() int {
			return dpy.bufferAge(target)
		},
	}
}

// Texture wraps a window pixmap bound as a GL texture. Owned by the
// window's record; the session only borrows it during rendering.
type Texture struct {
	texture   uint32
	glpixmap  glxPixmap
	pixmap    Pixmap
	target    texTarget
	width     int
	height    int
	depth     int
	yInverted bool
}

func (t *Texture) Size() (int, int) { return t.width, t.height }

// chooseTarget picks the sampling target for a format's target bitmask.
// The fallback chain for ambiguous bitmasks encodes historical driver
// workarounds (via compiz); its outcomes must not be "cleaned up".
func chooseTarget(targets uint32, hasNPOT bool) texTarget {
	switch {
	case targets&target2DBit != 0 && hasNPOT:
		return target2D
	case targets&targetRectangleBit != 0:
		return targetRectangle
	case targets&target2DBit == 0:
		return targetRectangle
	default:
		return target2D
	}
}

// BindPixmap binds an X pixmap to a GL texture, creating the GLX pixmap and
// texture object on first use. When the texture already existed the
// contents are re-acquired with a release-then-bind pair, since the pixmap
// may have changed since the last frame and no per-pixel dirty information
// exists. Pass zero width/height/depth to have them queried.
func (s *Session) BindPixmap(ptex **Texture, pixmap Pixmap, width, height, depth int) error {
	if !s.opts.Backend.NeedsGLXTextures() {
		return nil
	}
	if pixmap == 0 {
		return &InvalidInputError{Reason: "binding to an empty pixmap"}
	}

	tex := *ptex
	if tex == nil {
		tex = &Texture{}
		*ptex = tex
	}

	// A changed pixmap invalidates the old binding entirely.
	if tex.texture != 0 && tex.pixmap != pixmap {
		s.ReleasePixmap(tex)
	}

	needRelease := true
	if tex.glpixmap == 0 {
		needRelease = false

		if width == 0 || height == 0 || depth == 0 {
			w, h, dep, err := s.procs.pixmapGeometry(pixmap)
			if err != nil {
				return fmt.Errorf("bind pixmap %#010x: %w", uint64(pixmap), err)
			}
			width, height, depth = int(w), int(h), int(dep)
		}
		if depth < 0 || depth > maxDepth {
			return &InvalidInputError{
				Reason: fmt.Sprintf("pixmap depth %d exceeds maximum %d", depth, maxDepth),
			}
		}

		pcfg := s.formats[depth]
		if pcfg == nil {
			return &InvalidInputError{
				Reason: fmt.Sprintf("no FBConfig for depth %d", depth),
			}
		}

		tgt := chooseTarget(pcfg.targets, s.hasNPOT)
		log.Debugf("bind pixmap %#010x: depth %d, target %d, rgba %v",
			uint64(pixmap), depth, tgt, pcfg.RGBA())

		tex.glpixmap = s.procs.createPixmap(pcfg.cfg, pixmap, pcfg.format, tgt)
		tex.pixmap = pixmap
		tex.target = tgt
		tex.width = width
		tex.height = height
		tex.depth = depth
		tex.yInverted = pcfg.yInverted
	}
	if tex.glpixmap == 0 {
		return &ResourceAllocationError{Resource: "GLX pixmap"}
	}

	if tex.texture == 0 {
		needRelease = false
		tex.texture = s.procs.genTexture(tex.target)
	}
	if tex.texture == 0 {
		return &ResourceAllocationError{Resource: "texture"}
	}

	s.texBind(tex.target, tex.texture)

	// The extension wants a rebind whenever contents change; with no dirty
	// tracking that means on every call after the first.
	if needRelease {
		s.procs.releaseTexImage(tex.glpixmap)
	}
	s.procs.bindTexImage(tex.glpixmap)

	s.texUnbind(tex.target)

	s.checkErr("bind pixmap")
	return nil
}

// texBind enables a texture target and binds tex to it. No-op before GL is
// initialized so binder logic stays exercisable without a context.
func (s *Session) texBind(tgt texTarget, tex uint32) {
	if !s.glReady {
		return
	}
	enum := tgt.glEnum()
	gl.Enable(enum)
	gl.BindTexture(enum, tex)
}

func (s *Session) texUnbind(tgt texTarget) {
	if !s.glReady {
		return
	}
	enum := tgt.glEnum()
	gl.BindTexture(enum, 0)
	gl.Disable(enum)
}

func (s *Session) checkErr(op string) {
	if !s.glReady {
		return
	}
	checkGLError(op)
}

// ReleasePixmap undoes the content binding and destroys the GLX pixmap.
// Idempotent; the GL texture object itself survives for rebinding.
func (s *Session) ReleasePixmap(tex *Texture) {
	if tex == nil {
		return
	}
	if tex.glpixmap != 0 && tex.texture != 0 {
		s.texBind(tex.target, tex.texture)
		s.procs.releaseTexImage(tex.glpixmap)
		s.texUnbind(tex.target)
	}
	if tex.glpixmap != 0 {
		s.procs.destroyPixmap(tex.glpixmap)
		tex.glpixmap = 0
		tex.pixmap = 0
	}
	s.checkErr("release pixmap")
}

// FreeTexture releases the binding and the GL texture object. Called when
// the owning window goes away or on session teardown.
func (s *Session) FreeTexture(tex *Texture) {
	if tex == nil {
		return
	}
	s.ReleasePixmap(tex)
	if tex.texture != 0 {
		s.procs.deleteTexture(tex.texture)
		tex.texture = 0
	}
	tex.width = 0
	tex.height = 0
	tex.depth = 0
}
