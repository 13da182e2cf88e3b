package glx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProcs counts driver-side resource operations so binder lifecycle
// invariants can be checked without a GPU.
type fakeProcs struct {
	nextPixmap glxPixmap
	nextTex    uint32

	livePixmaps  map[glxPixmap]bool
	boundImages  map[glxPixmap]bool
	liveTextures map[uint32]bool

	binds, releases int
}

func newFakeProcs() *fakeProcs {
	return &fakeProcs{
		livePixmaps:  map[glxPixmap]bool{},
		boundImages:  map[glxPixmap]bool{},
		liveTextures: map[uint32]bool{},
	}
}

func (f *fakeProcs) table() procTable {
	return procTable{
		bindTexImage: func(p glxPixmap) {
			f.binds++
			f.boundImages[p] = true
		},
		releaseTexImage: func(p glxPixmap) {
			f.releases++
			delete(f.boundImages, p)
		},
		createPixmap: func(_ fbHandle, _ Pixmap, _ texFormat, _ texTarget) glxPixmap {
			f.nextPixmap++
			f.livePixmaps[f.nextPixmap] = true
			return f.nextPixmap
		},
		destroyPixmap: func(p glxPixmap) {
			delete(f.livePixmaps, p)
		},
		pixmapGeometry: func(Pixmap) (uint32, uint32, uint32, error) {
			return 640, 480, 24, nil
		},
		genTexture: func(texTarget) uint32 {
			f.nextTex++
			f.liveTextures[f.nextTex] = true
			return f.nextTex
		},
		deleteTexture: func(t uint32) {
			delete(f.liveTextures, t)
		},
		bufferAge: func() int { return 0 },
	}
}

func testSession(f *fakeProcs) *Session {
	table := &formatTable{}
	table[24] = &FormatDescriptor{format: formatRGB, targets: target2DBit | targetRectangleBit}
	table[32] = &FormatDescriptor{format: formatRGBA, targets: target2DBit | targetRectangleBit}
	return &Session{
		opts:       Options{Backend: BackendGLX},
		formats:    table,
		hasNPOT:    true,
		procs:      f.table(),
		rootWidth:  1920,
		rootHeight: 1080,
	}
}

func TestBindPixmapRejectsEmptyPixmap(t *testing.T) {
	s := testSession(newFakeProcs())
	var tex *Texture
	err := s.BindPixmap(&tex, 0, 0, 0, 0)
	require.Error(t, err)
	var inv *InvalidInputError
	assert.True(t, errors.As(err, &inv))
}

func TestBindPixmapNoopForXRenderBackend(t *testing.T) {
	f := newFakeProcs()
	s := testSession(f)
	s.opts.Backend = BackendXRender
	var tex *Texture
	require.NoError(t, s.BindPixmap(&tex, 42, 0, 0, 0))
	assert.Nil(t, tex)
	assert.Zero(t, f.binds)
}

func TestBindPixmapQueriesUnknownGeometry(t *testing.T) {
	f := newFakeProcs()
	s := testSession(f)
	var tex *Texture
	require.NoError(t, s.BindPixmap(&tex, 42, 0, 0, 0))
	assert.Equal(t, 640, tex.width)
	assert.Equal(t, 480, tex.height)
	assert.Equal(t, 24, tex.depth)
}

func TestBindPixmapRejectsExcessiveDepth(t *testing.T) {
	f := newFakeProcs()
	s := testSession(f)
	s.procs.pixmapGeometry = func(Pixmap) (uint32, uint32, uint32, error) {
		return 64, 64, 48, nil
	}
	var tex *Texture
	err := s.BindPixmap(&tex, 42, 0, 0, 0)
	require.Error(t, err)
	var inv *InvalidInputError
	assert.True(t, errors.As(err, &inv))
}

func TestBindPixmapRejectsUnknownDepth(t *testing.T) {
	s := testSession(newFakeProcs())
	var tex *Texture
	err := s.BindPixmap(&tex, 42, 64, 64, 30)
	require.Error(t, err)
	var inv *InvalidInputError
	assert.True(t, errors.As(err, &inv))
}

func TestBindReleaseBindDoesNotLeak(t *testing.T) {
	f := newFakeProcs()
	s := testSession(f)

	var tex *Texture
	require.NoError(t, s.BindPixmap(&tex, 42, 640, 480, 24))
	require.Len(t, f.livePixmaps, 1)
	require.Len(t, f.boundImages, 1)

	s.ReleasePixmap(tex)
	assert.Empty(t, f.livePixmaps)
	assert.Empty(t, f.boundImages)

	require.NoError(t, s.BindPixmap(&tex, 42, 640, 480, 24))
	assert.Len(t, f.livePixmaps, 1)
	assert.Len(t, f.boundImages, 1)
}

func TestRebindSamePixmapReacquiresContents(t *testing.T) {
	f := newFakeProcs()
	s := testSession(f)

	var tex *Texture
	require.NoError(t, s.BindPixmap(&tex, 42, 640, 480, 24))
	assert.Equal(t, 1, f.binds)
	assert.Equal(t, 0, f.releases)

	// Second bind of the same pixmap: release-then-bind, texture reused.
	require.NoError(t, s.BindPixmap(&tex, 42, 640, 480, 24))
	assert.Equal(t, 2, f.binds)
	assert.Equal(t, 1, f.releases)
	assert.Len(t, f.liveTextures, 1)
	assert.Len(t, f.livePixmaps, 1)
}

func TestRebindDifferentPixmapReleasesOldLinkageFirst(t *testing.T) {
	f := newFakeProcs()
	s := testSession(f)

	var tex *Texture
	require.NoError(t, s.BindPixmap(&tex, 42, 640, 480, 24))
	old := tex.glpixmap

	require.NoError(t, s.BindPixmap(&tex, 43, 640, 480, 24))
	assert.NotEqual(t, old, tex.glpixmap)
	assert.False(t, f.livePixmaps[old], "old GLX pixmap must be destroyed")
	assert.Len(t, f.livePixmaps, 1, "no two linkages alive for one texture")
	assert.Equal(t, Pixmap(43), tex.pixmap)
}

func TestFreeTextureReleasesEverything(t *testing.T) {
	f := newFakeProcs()
	s := testSession(f)

	var tex *Texture
	require.NoError(t, s.BindPixmap(&tex, 42, 640, 480, 24))
	s.FreeTexture(tex)
	assert.Empty(t, f.livePixmaps)
	assert.Empty(t, f.liveTextures)
	assert.Zero(t, tex.texture)

	// Idempotent.
	s.FreeTexture(tex)
	s.ReleasePixmap(tex)
}

func TestChooseTargetLegacyFallback(t *testing.T) {
	// 2D bit with NPOT support: 2D.
	assert.Equal(t, target2D, chooseTarget(target2DBit, true))
	// 2D bit without NPOT: no rect bit, 2D bit set, final fallback 2D.
	assert.Equal(t, target2D, chooseTarget(target2DBit, false))
	// Rect bit wins when 2D is unusable.
	assert.Equal(t, targetRectangle, chooseTarget(target2DBit|targetRectangleBit, false))
	// No 2D bit at all: rectangle even when the rect bit is missing.
	assert.Equal(t, targetRectangle, chooseTarget(target1DBit, true))
	assert.Equal(t, targetRectangle, chooseTarget(0, true))
}
