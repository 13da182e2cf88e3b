package glx

/*
#cgo LDFLAGS: -lGL -lX11 -lXcomposite

#include <stdlib.h>
#include <string.h>
#include <X11/Xlib.h>
#include <X11/Xutil.h>
#include <X11/extensions/Xcomposite.h>
#include <GL/gl.h>
#include <GL/glx.h>

#ifndef GLX_BACK_BUFFER_AGE_EXT
#define GLX_BACK_BUFFER_AGE_EXT 0x20F4
#endif

#ifndef GLX_CONTEXT_FLAGS_ARB
#define GLX_CONTEXT_FLAGS_ARB 0x2094
#endif
#ifndef GLX_CONTEXT_DEBUG_BIT_ARB
#define GLX_CONTEXT_DEBUG_BIT_ARB 0x0001
#endif

// Resolved once per context; the GLX_EXT_texture_from_pixmap entry points
// are not exported by libGL directly.
typedef void (*compton_bind_fn)(Display*, GLXDrawable, int, const int*);
typedef void (*compton_release_fn)(Display*, GLXDrawable, int);

static compton_bind_fn compton_bind_tex_image = NULL;
static compton_release_fn compton_release_tex_image = NULL;

static int resolve_tfp_procs(void) {
	compton_bind_tex_image = (compton_bind_fn)
		glXGetProcAddress((const GLubyte*)"glXBindTexImageEXT");
	compton_release_tex_image = (compton_release_fn)
		glXGetProcAddress((const GLubyte*)"glXReleaseTexImageEXT");
	return compton_bind_tex_image != NULL && compton_release_tex_image != NULL;
}

static void bind_tex_image(Display *dpy, GLXPixmap p) {
	compton_bind_tex_image(dpy, p, GLX_FRONT_LEFT_EXT, NULL);
}

static void release_tex_image(Display *dpy, GLXPixmap p) {
	compton_release_tex_image(dpy, p, GLX_FRONT_LEFT_EXT);
}

static int get_fbconfig_attr(Display *dpy, GLXFBConfig cfg, int attr, int *val) {
	return glXGetFBConfigAttrib(dpy, cfg, attr, val) == Success;
}

// Returns the depth of the visual associated with cfg, or -1 when the
// driver reports no visual for it.
static int fbconfig_visual_depth(Display *dpy, GLXFBConfig cfg) {
	XVisualInfo *vi = glXGetVisualFromFBConfig(dpy, cfg);
	if (!vi)
		return -1;
	int depth = vi->depth;
	XFree(vi);
	return depth;
}

static int root_visual_attr(Display *dpy, int screen, int attr, int *val) {
	XVisualInfo vreq;
	XVisualInfo *vi;
	int nitems = 0;
	vreq.visualid = XVisualIDFromVisual(DefaultVisual(dpy, screen));
	vi = XGetVisualInfo(dpy, VisualIDMask, &vreq, &nitems);
	if (!vi)
		return 0;
	int ok = glXGetConfig(dpy, vi, attr, val) == Success;
	XFree(vi);
	return ok;
}

static GLXContext create_context(Display *dpy, int screen) {
	XVisualInfo vreq;
	XVisualInfo *vi;
	int nitems = 0;
	vreq.visualid = XVisualIDFromVisual(DefaultVisual(dpy, screen));
	vi = XGetVisualInfo(dpy, VisualIDMask, &vreq, &nitems);
	if (!vi)
		return NULL;
	GLXContext ctx = glXCreateContext(dpy, vi, None, True);
	XFree(vi);
	return ctx;
}

typedef GLXContext (*compton_create_ctx_fn)(Display*, GLXFBConfig, GLXContext,
	Bool, const int*);

// Creates a context with the ARB debug bit set. Returns NULL when the
// driver lacks glXCreateContextAttribsARB or no FBConfig matches the root
// visual; the caller falls back to a plain context.
static GLXContext create_debug_context(Display *dpy, int screen) {
	compton_create_ctx_fn create = (compton_create_ctx_fn)
		glXGetProcAddress((const GLubyte*)"glXCreateContextAttribsARB");
	if (!create)
		return NULL;

	XVisualInfo vreq;
	XVisualInfo *vi;
	int nitems = 0;
	vreq.visualid = XVisualIDFromVisual(DefaultVisual(dpy, screen));
	vi = XGetVisualInfo(dpy, VisualIDMask, &vreq, &nitems);
	if (!vi)
		return NULL;

	GLXContext ctx = NULL;
	int nelements = 0;
	GLXFBConfig *cfgs = glXGetFBConfigs(dpy, screen, &nelements);
	for (int i = 0; i < nelements; ++i) {
		int visual_id = 0;
		if (glXGetFBConfigAttrib(dpy, cfgs[i], GLX_VISUAL_ID, &visual_id) == Success
				&& (VisualID)visual_id == vi->visualid) {
			static const int attrib_list[] = {
				GLX_CONTEXT_FLAGS_ARB, GLX_CONTEXT_DEBUG_BIT_ARB,
				None,
			};
			ctx = create(dpy, cfgs[i], NULL, True, attrib_list);
			break;
		}
	}
	if (cfgs)
		XFree(cfgs);
	XFree(vi);
	return ctx;
}

static GLXPixmap create_glx_pixmap(Display *dpy, GLXFBConfig cfg, Pixmap pixmap,
		int texture_fmt, int texture_tgt) {
	int attrs[] = {
		GLX_TEXTURE_FORMAT_EXT, texture_fmt,
		GLX_TEXTURE_TARGET_EXT, texture_tgt,
		None,
	};
	return glXCreatePixmap(dpy, cfg, pixmap, attrs);
}

static int pixmap_geometry(Display *dpy, Pixmap pixmap,
		unsigned *width, unsigned *height, unsigned *depth) {
	Window rroot = None;
	int rx = 0, ry = 0;
	unsigned rbdwid = 0;
	return XGetGeometry(dpy, pixmap, &rroot, &rx, &ry,
		width, height, &rbdwid, depth) != 0;
}

static unsigned query_buffer_age(Display *dpy, GLXDrawable d) {
	unsigned val = 0;
	glXQueryDrawable(dpy, d, GLX_BACK_BUFFER_AGE_EXT, &val);
	return val;
}

static int window_geometry(Display *dpy, Window w,
		int *x, int *y, unsigned *width, unsigned *height,
		unsigned *depth, int *viewable) {
	XWindowAttributes attr;
	if (!XGetWindowAttributes(dpy, w, &attr))
		return 0;
	*x = attr.x;
	*y = attr.y;
	*width = attr.width;
	*height = attr.height;
	*depth = attr.depth;
	*viewable = attr.map_state == IsViewable;
	return 1;
}
*/
import "C"

import (
	"fmt"
	"strings"
	"unsafe"
)

// X resource identifiers. XIDs are 32-bit on the wire but unsigned long in
// Xlib; ulong keeps the cgo conversions lossless.
type (
	Pixmap    uint64
	Window    uint64
	glxPixmap uint64
)

// fbHandle is an opaque GLXFBConfig.
type fbHandle unsafe.Pointer

// glContext is an opaque GLXContext.
type glContext unsafe.Pointer

// Display is the narrow slice of the X session this core consumes: the
// connection, screen geometry and the GLX entry points.
type Display struct {
	ptr    *C.Display
	screen C.int

	root   Window
	width  int
	height int
	depth  int

	tfpResolved bool
}

// OpenDisplay connects to the X server named by $DISPLAY.
func OpenDisplay() (*Display, error) {
	dpy := C.XOpenDisplay(nil)
	if dpy == nil {
		return nil, fmt.Errorf("unable to open X11 display")
	}
	screen := C.XDefaultScreen(dpy)
	return &Display{
		ptr:    dpy,
		screen: screen,
		root:   Window(C.XRootWindow(dpy, screen)),
		width:  int(C.XDisplayWidth(dpy, screen)),
		height: int(C.XDisplayHeight(dpy, screen)),
		depth:  int(C.XDefaultDepth(dpy, screen)),
	}, nil
}

func (d *Display) Close() {
	if d.ptr != nil {
		C.XCloseDisplay(d.ptr)
		d.ptr = nil
	}
}

func (d *Display) Root() Window         { return d.root }
func (d *Display) RootSize() (int, int) { return d.width, d.height }
func (d *Display) Depth() int           { return d.depth }

// RefreshRootSize re-reads the root geometry, e.g. after a RandR change.
func (d *Display) RefreshRootSize() (int, int) {
	d.width = int(C.XDisplayWidth(d.ptr, d.screen))
	d.height = int(C.XDisplayHeight(d.ptr, d.screen))
	return d.width, d.height
}

func (d *Display) Sync() { C.XSync(d.ptr, C.False) }

func (d *Display) hasGLX() bool {
	var event, errb C.int
	return C.glXQueryExtension(d.ptr, &event, &errb) == C.True
}

func (d *Display) hasGLXExtension(name string) bool {
	exts := C.GoString(C.glXQueryExtensionsString(d.ptr, d.screen))
	for _, e := range strings.Fields(exts) {
		if e == name {
			return true
		}
	}
	return false
}

// rootVisualAttr queries a GLX attribute of the root window's visual.
func (d *Display) rootVisualAttr(attr int) (int, bool) {
	var val C.int
	ok := C.root_visual_attr(d.ptr, d.screen, C.int(attr), &val) != 0
	return int(val), ok
}

const (
	glxUseGL        = 1 // GLX_USE_GL
	glxDoubleBuffer = 5 // GLX_DOUBLEBUFFER
)

func (d *Display) createContext() (glContext, error) {
	ctx := C.create_context(d.ptr, d.screen)
	if ctx == nil {
		return nil, &CapabilityError{Missing: "GLX context for root visual"}
	}
	return glContext(unsafe.Pointer(ctx)), nil
}

// createDebugContext returns nil when the driver cannot make one; the
// session falls back to createContext.
func (d *Display) createDebugContext() glContext {
	ctx := C.create_debug_context(d.ptr, d.screen)
	if ctx == nil {
		return nil
	}
	return glContext(unsafe.Pointer(ctx))
}

func (d *Display) makeCurrent(w Window, ctx glContext) bool {
	return C.glXMakeCurrent(d.ptr, C.GLXDrawable(w), C.GLXContext(unsafe.Pointer(ctx))) == C.True
}

func (d *Display) destroyContext(ctx glContext) {
	C.glXDestroyContext(d.ptr, C.GLXContext(unsafe.Pointer(ctx)))
}

func (d *Display) SwapBuffers(w Window) {
	C.glXSwapBuffers(d.ptr, C.GLXDrawable(w))
}

// resolveTexFromPixmapProcs resolves glXBindTexImageEXT and
// glXReleaseTexImageEXT; requires a current context.
func (d *Display) resolveTexFromPixmapProcs() bool {
	d.tfpResolved = C.resolve_tfp_procs() != 0
	return d.tfpResolved
}

// fbCandidates probes every FBConfig the driver offers for this screen.
func (d *Display) fbCandidates() []formatCandidate {
	var nele C.int
	cfgs := C.glXGetFBConfigs(d.ptr, d.screen, &nele)
	if cfgs == nil {
		return nil
	}
	defer C.XFree(unsafe.Pointer(cfgs))

	slice := unsafe.Slice(cfgs, int(nele))
	cands := make([]formatCandidate, 0, len(slice))
	for _, cfg := range slice {
		c := formatCandidate{cfg: fbHandle(unsafe.Pointer(cfg))}
		attr := func(a C.int) (int, bool) {
			var val C.int
			ok := C.get_fbconfig_attr(d.ptr, cfg, a, &val) != 0
			return int(val), ok
		}

		c.ID, _ = attr(C.GLX_FBCONFIG_ID)
		c.Samples, _ = attr(C.GLX_SAMPLES)
		c.BufferSize, c.BufferSizeOK = attr(C.GLX_BUFFER_SIZE)
		c.AlphaSize, c.AlphaSizeOK = attr(C.GLX_ALPHA_SIZE)
		c.RedSize, _ = attr(C.GLX_RED_SIZE)
		c.StencilSize, _ = attr(C.GLX_STENCIL_SIZE)
		c.DepthSize, _ = attr(C.GLX_DEPTH_SIZE)

		var tgts int
		tgts, c.TargetsOK = attr(C.GLX_BIND_TO_TEXTURE_TARGETS_EXT)
		c.Targets = uint32(tgts)

		if v, ok := attr(C.GLX_BIND_TO_TEXTURE_RGB_EXT); ok && v != 0 {
			c.BindRGB = true
		}
		if v, ok := attr(C.GLX_BIND_TO_TEXTURE_RGBA_EXT); ok && v != 0 {
			c.BindRGBA = true
		}
		if v, ok := attr(C.GLX_BIND_TO_MIPMAP_TEXTURE_EXT); ok && v != 0 {
			c.BindMipmap = true
		}
		if v, ok := attr(C.GLX_DOUBLEBUFFER); ok && v != 0 {
			c.DoubleBuffer = true
		}
		if v, ok := attr(C.GLX_Y_INVERTED_EXT); ok && v != 0 {
			c.YInverted = true
		}

		c.VisualDepth = int(C.fbconfig_visual_depth(d.ptr, cfg))
		cands = append(cands, c)
	}
	return cands
}

func (d *Display) createGLXPixmap(cfg fbHandle, pixmap Pixmap, fmt texFormat, tgt texTarget) glxPixmap {
	cfmt := C.int(C.GLX_TEXTURE_FORMAT_RGB_EXT)
	if fmt == formatRGBA {
		cfmt = C.GLX_TEXTURE_FORMAT_RGBA_EXT
	}
	ctgt := C.int(C.GLX_TEXTURE_2D_EXT)
	if tgt == targetRectangle {
		ctgt = C.GLX_TEXTURE_RECTANGLE_EXT
	}
	return glxPixmap(C.create_glx_pixmap(d.ptr, C.GLXFBConfig(unsafe.Pointer(cfg)),
		C.Pixmap(pixmap), cfmt, ctgt))
}

func (d *Display) destroyGLXPixmap(p glxPixmap) {
	C.glXDestroyPixmap(d.ptr, C.GLXPixmap(p))
}

func (d *Display) bindTexImage(p glxPixmap) {
	C.bind_tex_image(d.ptr, C.GLXPixmap(p))
}

func (d *Display) releaseTexImage(p glxPixmap) {
	C.release_tex_image(d.ptr, C.GLXPixmap(p))
}

func (d *Display) pixmapGeometry(p Pixmap) (width, height, depth uint32, err error) {
	var w, h, dep C.uint
	if C.pixmap_geometry(d.ptr, C.Pixmap(p), &w, &h, &dep) == 0 {
		return 0, 0, 0, fmt.Errorf("failed to query geometry of pixmap %#010x", uint64(p))
	}
	return uint32(w), uint32(h), uint32(dep), nil
}

func (d *Display) bufferAge(w Window) int {
	return int(C.query_buffer_age(d.ptr, C.GLXDrawable(w)))
}

// HasComposite reports whether the Composite extension is usable.
func (d *Display) HasComposite() bool {
	var event, errb C.int
	return C.XCompositeQueryExtension(d.ptr, &event, &errb) != 0
}

// RedirectSubwindows redirects all children of the root off-screen so their
// contents are available as pixmaps.
func (d *Display) RedirectSubwindows() {
	C.XCompositeRedirectSubwindows(d.ptr, C.Window(d.root), C.CompositeRedirectAutomatic)
}

// OverlayWindow acquires the composite overlay window, the preferred render
// target when the server provides one.
func (d *Display) OverlayWindow() Window {
	return Window(C.XCompositeGetOverlayWindow(d.ptr, C.Window(d.root)))
}

// NamePixmap names the off-screen buffer holding a redirected window's
// contents. The caller owns the returned pixmap and must free it.
func (d *Display) NamePixmap(w Window) Pixmap {
	return Pixmap(C.XCompositeNameWindowPixmap(d.ptr, C.Window(w)))
}

func (d *Display) FreePixmap(p Pixmap) {
	C.XFreePixmap(d.ptr, C.Pixmap(p))
}

// WindowInfo is the minimal per-window bookkeeping the paint loop needs.
type WindowInfo struct {
	ID            Window
	X, Y          int
	Width, Height int
	Depth         int
	Viewable      bool
}

// QueryWindows lists the root's direct children, bottom-most first, which is
// the paint order.
func (d *Display) QueryWindows() []WindowInfo {
	var rootRet, parentRet C.Window
	var children *C.Window
	var n C.uint
	if C.XQueryTree(d.ptr, C.Window(d.root), &rootRet, &parentRet, &children, &n) == 0 {
		return nil
	}
	if children == nil {
		return nil
	}
	defer C.XFree(unsafe.Pointer(children))

	ids := unsafe.Slice(children, int(n))
	out := make([]WindowInfo, 0, len(ids))
	for _, id := range ids {
		var x, y, viewable C.int
		var w, h, depth C.uint
		if C.window_geometry(d.ptr, id, &x, &y, &w, &h, &depth, &viewable) == 0 {
			continue
		}
		out = append(out, WindowInfo{
			ID:       Window(id),
			X:        int(x),
			Y:        int(y),
			Width:    int(w),
			Height:   int(h),
			Depth:    int(depth),
			Viewable: viewable != 0,
		})
	}
	return out
}
