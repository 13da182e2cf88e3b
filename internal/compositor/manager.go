package compositor

import (
	"fmt"
	"image"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/doczir/compton/internal/glx"
	"github.com/doczir/compton/internal/region"
)

// Settings are the paint-time knobs that sit above the GLX session: how
// translucent and dim windows draw, whether colors invert, and how fast the
// loop may spin.
type Settings struct {
	Opacity        float64
	Dim            float64
	InvertColor    bool
	FactorCenter   float64
	FramerateLimit int
}

type command int

const (
	cmdStop command = iota
)

type shotReply struct {
	img image.Image
	err error
}

type shotRequest struct {
	reply chan shotReply
}

// window is one redirected child of the root, along with the GPU resources
// bound to its off-screen pixmap.
type window struct {
	info   glx.WindowInfo
	pixmap glx.Pixmap
	tex    *glx.Texture
	blur   *glx.BlurCache
}

// Manager owns the display connection, the GLX session and the paint loop.
// All GL work happens on the loop goroutine; the rest of the process talks
// to it through channels.
type Manager struct {
	mu       sync.Mutex
	dpy      *glx.Display
	sess     *glx.Session
	opts     glx.Options
	settings Settings

	windows map[glx.Window]*window
	stack   []glx.WindowInfo

	cmds    chan command
	shots   chan shotRequest
	stopped chan struct{}

	// Root geometry mirrored from the session; the IPC goroutine reads it
	// through RootSize while the paint loop owns the session itself.
	rootW int
	rootH int

	fullRepaint bool
}

// NewManager connects to the X server, redirects windows off-screen and
// negotiates the GLX session against the overlay window.
func NewManager(opts glx.Options, settings Settings) (*Manager, error) {
	dpy, err := glx.OpenDisplay()
	if err != nil {
		return nil, err
	}

	if !dpy.HasComposite() {
		dpy.Close()
		return nil, fmt.Errorf("display lacks the Composite extension")
	}
	dpy.RedirectSubwindows()

	target := dpy.OverlayWindow()
	if target == 0 {
		target = dpy.Root()
	}

	sess, err := glx.Init(dpy, target, opts, opts.Backend != glx.BackendXRender)
	if err != nil {
		dpy.Close()
		return nil, err
	}

	if opts.BlurMethod != glx.BlurNone {
		if err := sess.InitBlur(); err != nil {
			sess.Destroy()
			dpy.Close()
			return nil, err
		}
	}

	if settings.FactorCenter <= 0 {
		settings.FactorCenter = 1.0
	}

	m := &Manager{
		dpy:         dpy,
		sess:        sess,
		opts:        opts,
		settings:    settings,
		windows:     make(map[glx.Window]*window),
		cmds:        make(chan command, 1),
		shots:       make(chan shotRequest, 1),
		stopped:     make(chan struct{}),
		fullRepaint: true,
	}
	m.setRootSize(sess.RootSize())
	return m, nil
}

// Stop asks the paint loop to shut down. Safe to call more than once.
func (m *Manager) Stop() {
	select {
	case m.cmds <- cmdStop:
	default:
	}
}

// Done is closed once the paint loop has torn everything down.
func (m *Manager) Done() <-chan struct{} { return m.stopped }

// WindowCount reports how many windows the last frame tracked.
func (m *Manager) WindowCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stack)
}

// RootSize reports the composited root geometry.
func (m *Manager) RootSize() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rootW, m.rootH
}

func (m *Manager) setRootSize(w, h int) {
	m.mu.Lock()
	m.rootW, m.rootH = w, h
	m.mu.Unlock()
}

// Screenshot captures the front buffer from the paint loop. The read has to
// happen on the loop goroutine since the GL context is bound to its thread.
func (m *Manager) Screenshot() (image.Image, error) {
	req := shotRequest{reply: make(chan shotReply, 1)}
	select {
	case m.shots <- req:
	case <-m.stopped:
		return nil, fmt.Errorf("compositor stopped")
	}
	select {
	case r := <-req.reply:
		return r.img, r.err
	case <-m.stopped:
		return nil, fmt.Errorf("compositor stopped")
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("screenshot timed out")
	}
}

// Run drives the paint loop until Stop. Must own its OS thread for the
// lifetime of the GL context.
func (m *Manager) Run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(m.stopped)
	defer m.teardown()

	log.Info("compositor running")

	frame := time.Second / 60
	if m.settings.FramerateLimit > 0 {
		frame = time.Second / time.Duration(m.settings.FramerateLimit)
	}

	for {
		select {
		case <-m.cmds:
			log.Info("stopping compositor")
			return
		case req := <-m.shots:
			img, err := m.captureScreenshot()
			req.reply <- shotReply{img: img, err: err}
		default:
		}

		start := time.Now()
		if err := m.paintFrame(); err != nil {
			log.Error("paint failed", "err", err)
		}

		if d := frame - time.Since(start); d > 0 {
			time.Sleep(d)
		}
	}
}

func (m *Manager) teardown() {
	for _, w := range m.windows {
		m.releaseWindow(w)
	}
	m.windows = nil
	m.sess.Destroy()
	m.dpy.Close()
	log.Info("compositor stopped")
}

func (m *Manager) releaseWindow(w *window) {
	if w.blur != nil {
		m.sess.FreeBlurCache(w.blur)
		w.blur = nil
	}
	if w.tex != nil {
		m.sess.FreeTexture(w.tex)
		w.tex = nil
	}
	if w.pixmap != 0 {
		m.dpy.FreePixmap(w.pixmap)
		w.pixmap = 0
	}
}

// syncWindows reconciles the tracked window set against the current
// stacking order, naming pixmaps for newcomers and releasing resources of
// windows that went away or changed geometry.
func (m *Manager) syncWindows(cur []glx.WindowInfo) {
	seen := make(map[glx.Window]struct{}, len(cur))
	for _, info := range cur {
		seen[info.ID] = struct{}{}
		w, ok := m.windows[info.ID]
		if !ok {
			w = &window{info: info}
			m.windows[info.ID] = w
		}
		resized := w.info.Width != info.Width || w.info.Height != info.Height ||
			w.info.Depth != info.Depth
		w.info = info
		if !info.Viewable {
			m.releaseWindow(w)
			continue
		}
		if resized && w.pixmap != 0 {
			m.dpy.FreePixmap(w.pixmap)
			w.pixmap = 0
		}
		if w.pixmap == 0 {
			w.pixmap = m.dpy.NamePixmap(info.ID)
		}
	}

	for id, w := range m.windows {
		if _, ok := seen[id]; !ok {
			m.releaseWindow(w)
			delete(m.windows, id)
		}
	}
}

func (m *Manager) paintFrame() error {
	// Display reconfiguration rebuilds the whole session rather than
	// patching state in place.
	rw, rh := m.dpy.RefreshRootSize()
	if cw, ch := m.sess.RootSize(); rw != cw || rh != ch {
		log.Info("root geometry changed, reinitializing", "width", rw, "height", rh)
		for _, win := range m.windows {
			m.releaseWindow(win)
		}
		if err := m.sess.Reinit(m.opts.Backend != glx.BackendXRender); err != nil {
			return err
		}
		m.setRootSize(m.sess.RootSize())
		m.fullRepaint = true
	}

	cur := m.dpy.QueryWindows()

	var damage region.Region
	if m.fullRepaint {
		sw, sh := m.sess.RootSize()
		damage = region.FromRect(image.Rect(0, 0, sw, sh))
		m.fullRepaint = false
	} else {
		damage = frameDamage(m.stack, cur)
	}

	m.syncWindows(cur)
	m.mu.Lock()
	m.stack = cur
	m.mu.Unlock()

	if damage.IsEmpty() {
		return nil
	}

	clip := m.sess.PaintPre(damage)
	if clip.IsEmpty() {
		return nil
	}

	var firstErr error
	for _, info := range cur {
		w := m.windows[info.ID]
		if w == nil || !info.Viewable || info.Width <= 0 || info.Height <= 0 {
			continue
		}
		if err := m.paintWindow(w, clip); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	m.sess.SwapBuffers()
	m.dpy.Sync()
	return firstErr
}

func (m *Manager) paintWindow(w *window, clip region.Region) error {
	info := w.info

	if err := m.sess.BindPixmap(&w.tex, w.pixmap, info.Width, info.Height, info.Depth); err != nil {
		return err
	}

	if m.opts.BlurMethod != glx.BlurNone {
		if w.blur == nil {
			w.blur = &glx.BlurCache{}
		}
		if err := m.sess.BlurDst(info.X, info.Y, info.Width, info.Height, 0,
			float32(m.settings.FactorCenter), clip, w.blur); err != nil {
			log.Warn("blur failed", "window", info.ID, "err", err)
		}
	}

	argb := info.Depth == 32
	err := m.sess.Render(w.tex, 0, 0, info.X, info.Y, info.Width, info.Height, 0,
		m.settings.Opacity, argb, m.settings.InvertColor, clip, nil)
	if err != nil {
		return err
	}

	if m.settings.Dim > 0 {
		m.sess.Dim(info.X, info.Y, info.Width, info.Height, 0,
			float32(m.settings.Dim), clip)
	}
	return nil
}

// captureScreenshot converts the session's bottom-up RGB dump into a
// top-down image.
func (m *Manager) captureScreenshot() (image.Image, error) {
	buf, err := m.sess.Screenshot()
	if err != nil {
		return nil, err
	}
	w, h := m.sess.RootSize()
	return flipRGB(buf, w, h), nil
}

// flipRGB turns tightly packed bottom-up RGB888 rows into an RGBA image.
func flipRGB(buf []byte, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := buf[(h-1-y)*w*3 : (h-y)*w*3]
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			row[x*4+0] = src[x*3+0]
			row[x*4+1] = src[x*3+1]
			row[x*4+2] = src[x*3+2]
			row[x*4+3] = 0xff
		}
	}
	return img
}
