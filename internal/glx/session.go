package glx

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-gl/gl/v3.2-compatibility/gl"
)

// Session owns the GLX context and everything negotiated against it: the
// per-depth format table, the capability table of extension entry points,
// the blur pass programs and the damage history. There is no partial
// mutation path; on context loss or display reconfiguration the session is
// destroyed and rebuilt wholesale.
type Session struct {
	dpy    *Display
	target Window
	opts   Options

	context glContext
	glReady bool

	formats *formatTable
	hasNPOT bool
	procs   procTable

	blurPasses [maxBlurPass]blurPass

	damage     damageRing
	rootWidth  int
	rootHeight int
}

// Init creates a session against the display's render target. needRender is
// false when another backend does the painting and GLX is only kept around
// for vsync. Any failure tears down everything acquired so far.
func Init(dpy *Display, target Window, opts Options, needRender bool) (*Session, error) {
	s := &Session{
		dpy:    dpy,
		target: target,
		opts:   opts,
	}
	s.rootWidth, s.rootHeight = dpy.RootSize()

	if err := s.initLocked(needRender); err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

func (s *Session) initLocked(needRender bool) error {
	if !s.dpy.hasGLX() {
		return &CapabilityError{Missing: "GLX extension"}
	}

	if needRender {
		if v, ok := s.dpy.rootVisualAttr(glxUseGL); !ok || v == 0 {
			return &CapabilityError{Missing: "GL-capable root visual"}
		}
		if v, ok := s.dpy.rootVisualAttr(glxDoubleBuffer); !ok || v == 0 {
			return &CapabilityError{Missing: "double-buffered root visual"}
		}
		if !s.dpy.hasGLXExtension("GLX_EXT_texture_from_pixmap") {
			return &CapabilityError{Missing: "GLX_EXT_texture_from_pixmap"}
		}
	}

	if s.opts.DebugContext {
		s.context = s.dpy.createDebugContext()
		if s.context == nil {
			log.Warn("debug context unavailable, falling back to a plain context")
		}
	}
	if s.context == nil {
		ctx, err := s.dpy.createContext()
		if err != nil {
			return err
		}
		s.context = ctx
	}

	if !s.dpy.makeCurrent(s.target, s.context) {
		return &CapabilityError{Missing: "current GLX context"}
	}
	if err := gl.Init(); err != nil {
		return &CapabilityError{Missing: "OpenGL entry points: " + err.Error()}
	}
	s.glReady = true

	if s.opts.DebugContext {
		s.installDebugCallback()
	}

	if needRender && !s.opts.NoStencil {
		var bits int32
		gl.GetIntegerv(gl.STENCIL_BITS, &bits)
		if bits == 0 {
			return &CapabilityError{Missing: "stencil buffer on target window"}
		}
	}

	// Must precede format negotiation, NPOT support decides which texture
	// targets are usable.
	if needRender {
		s.hasNPOT = hasGLExtension("GL_ARB_texture_non_power_of_two")
	}

	if needRender {
		if !s.dpy.resolveTexFromPixmapProcs() {
			return &CapabilityError{Missing: "glXBindTexImageEXT/glXReleaseTexImageEXT"}
		}
		s.procs = nativeProcTable(s.dpy, s.target)

		table, err := selectFormats(s.dpy.fbCandidates(), s.dpy.Depth())
		if err != nil {
			return err
		}
		s.formats = table
	}

	if needRender {
		s.OnRootResize(s.rootWidth, s.rootHeight)

		gl.Disable(gl.DEPTH_TEST)
		gl.DepthMask(false)
		gl.TexEnvi(gl.TEXTURE_ENV, gl.TEXTURE_ENV_MODE, gl.REPLACE)
		gl.Disable(gl.BLEND)

		if !s.opts.NoStencil {
			// The damage region's rectangles may overlap; the stencil
			// buffer keeps each pixel from being painted twice.
			gl.Clear(gl.STENCIL_BUFFER_BIT)
			gl.Disable(gl.STENCIL_TEST)
			gl.StencilMask(0x1)
			gl.StencilFunc(gl.EQUAL, 0x1, 0x1)
		}

		gl.ClearColor(0, 0, 0, 1)
	}

	return nil
}

// Destroy releases every GL resource the session owns and the context
// itself. Safe on a partially initialized session.
func (s *Session) Destroy() {
	if s.glReady {
		for i := range s.blurPasses {
			s.blurPasses[i].release()
		}
		checkGLError("destroy")
	}
	s.formats = nil

	if s.context != nil {
		s.dpy.destroyContext(s.context)
		s.context = nil
	}
	s.glReady = false
}

// Reinit tears the session down and builds a fresh one, e.g. after a
// display mode change.
func (s *Session) Reinit(needRender bool) error {
	s.Destroy()
	s.rootWidth, s.rootHeight = s.dpy.RefreshRootSize()
	if err := s.initLocked(needRender); err != nil {
		s.Destroy()
		return err
	}
	if s.opts.BlurMethod != BlurNone {
		if err := s.InitBlur(); err != nil {
			return err
		}
	}
	return nil
}

// OnRootResize updates the viewport and projection only; textures and
// programs survive a resize untouched.
func (s *Session) OnRootResize(width, height int) {
	s.rootWidth, s.rootHeight = width, height

	gl.Viewport(0, 0, int32(width), int32(height))
	gl.MatrixMode(gl.PROJECTION)
	gl.LoadIdentity()
	gl.Ortho(0, float64(width), 0, float64(height), -1000, 1000)
	gl.MatrixMode(gl.MODELVIEW)
	gl.LoadIdentity()
}

// RootSize returns the session's notion of the target surface size.
func (s *Session) RootSize() (int, int) { return s.rootWidth, s.rootHeight }

// SwapBuffers presents the back buffer.
func (s *Session) SwapBuffers() { s.dpy.SwapBuffers(s.target) }

func hasGLExtension(name string) bool {
	exts := gl.GoStr(gl.GetString(gl.EXTENSIONS))
	for _, e := range strings.Fields(exts) {
		if e == name {
			return true
		}
	}
	return false
}

// checkGLError drains the GL error queue; errors are logged with the
// operation that triggered the check.
func checkGLError(op string) {
	for {
		code := gl.GetError()
		if code == gl.NO_ERROR {
			return
		}
		log.Errorf("GL error after %s: %#x", op, code)
	}
}
