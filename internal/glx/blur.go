package glx

import (
	"image"

	"github.com/go-gl/gl/v3.2-compatibility/gl"

	"github.com/doczir/compton/internal/region"
)

// blurPass is one compiled stage of the blur pipeline. Convolution uses one
// pass per kernel; kawase uses exactly two (down at slot 0, up at slot 1).
type blurPass struct {
	fragShader uint32
	prog       uint32

	// convolution uniforms
	unifmOffsetX      int32
	unifmOffsetY      int32
	unifmFactorCenter int32

	// kawase uniforms
	unifmOffset    int32
	unifmHalfpixel int32
	unifmFulltex   int32
}

func newBlurPass() blurPass {
	return blurPass{
		unifmOffsetX:      -1,
		unifmOffsetY:      -1,
		unifmFactorCenter: -1,
		unifmOffset:       -1,
		unifmHalfpixel:    -1,
		unifmFulltex:      -1,
	}
}

func (p *blurPass) release() {
	if p.fragShader != 0 {
		gl.DeleteShader(p.fragShader)
	}
	if p.prog != 0 {
		gl.DeleteProgram(p.prog)
	}
	*p = newBlurPass()
}

// BlurCache holds the intermediate textures and the framebuffer one blurred
// window cycles through. Owned by the window's record and must be released
// explicitly; textures are regenerated when the working size changes.
type BlurCache struct {
	textures [maxBlurPass]uint32
	fbo      uint32
	width    int
	height   int
}

// FreeBlurCache releases everything the cache holds.
func (s *Session) FreeBlurCache(bc *BlurCache) {
	if bc == nil {
		return
	}
	s.freeBlurTextures(bc)
	if bc.fbo != 0 {
		gl.DeleteFramebuffers(1, &bc.fbo)
		bc.fbo = 0
	}
	s.checkErr("free blur cache")
}

// freeBlurTextures drops the textures but keeps the framebuffer; used when
// only the working size changed.
func (s *Session) freeBlurTextures(bc *BlurCache) {
	for i, tex := range bc.textures {
		if tex != 0 {
			gl.DeleteTextures(1, &bc.textures[i])
			bc.textures[i] = 0
		}
	}
	bc.width = 0
	bc.height = 0
}

// InitBlur builds the blur pass programs for the configured method. Called
// once after Init; a failed build leaves the passes released.
func (s *Session) InitBlur() error {
	for i := range s.blurPasses {
		s.blurPasses[i] = newBlurPass()
	}

	var err error
	switch s.opts.BlurMethod {
	case BlurConv:
		err = s.initConvBlur()
	case BlurKawase:
		err = s.initKawaseBlur()
	default:
		err = &InvalidInputError{Reason: "no blur method configured"}
	}
	if err != nil {
		for i := range s.blurPasses {
			s.blurPasses[i].release()
		}
		return err
	}
	checkGLError("init blur")
	return nil
}

// BlurDst blurs the destination rectangle in place, clipped to regTgt.
// Render state (scissor, stencil, program, framebuffer binding) is restored
// on every exit path; on failure the frame simply misses the effect.
func (s *Session) BlurDst(dx, dy, width, height int, z float32, factorCenter float32,
	regTgt region.Region, bc *BlurCache) error {
	switch s.opts.BlurMethod {
	case BlurConv:
		return s.convBlurDst(dx, dy, width, height, z, factorCenter, regTgt, bc)
	case BlurKawase:
		return s.kawaseBlurDst(dx, dy, width, height, z, regTgt, bc)
	default:
		return &InvalidInputError{Reason: "no blur method configured"}
	}
}

// blurTexTarget returns the texture target intermediate blur textures use.
func (s *Session) blurTexTarget() texTarget {
	if s.hasNPOT {
		return target2D
	}
	return targetRectangle
}

// genBlurTexture allocates one working texture with linear filtering.
func genBlurTexture(tgt texTarget, width, height int) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	if tex == 0 {
		return 0
	}
	enum := tgt.glEnum()
	gl.Enable(enum)
	gl.BindTexture(enum, tex)
	gl.TexParameteri(enum, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(enum, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(enum, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(enum, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(enum, 0, gl.RGB, int32(width), int32(height), 0,
		gl.RGB, gl.UNSIGNED_BYTE, nil)
	gl.BindTexture(enum, 0)
	return tex
}

// copyRegionToTexture copies back-buffer pixels into the currently bound
// texture, converting to GL's bottom-up row order.
func (s *Session) copyRegionToTexture(tgt texTarget, baseX, baseY, dx, dy, width, height int) {
	if width > 0 && height > 0 {
		gl.CopyTexSubImage2D(tgt.glEnum(), 0, int32(dx-baseX), int32(dy-baseY),
			int32(dx), int32(s.rootHeight-dy-height), int32(width), int32(height))
	}
}

// probeFramebuffer verifies framebuffer objects actually work on this
// driver before committing to a multi-pass pipeline.
func probeFramebuffer() error {
	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	if fbo == 0 {
		return &ResourceAllocationError{Resource: "framebuffer"}
	}
	gl.DeleteFramebuffers(1, &fbo)
	return nil
}

// paintRects clips the request rectangle against the target region; the
// result is the set of quads a blur or render pass emits.
func paintRects(dx, dy, width, height int, regTgt region.Region) []image.Rectangle {
	return regTgt.IntersectRect(image.Rect(dx, dy, dx+width, dy+height)).Rects()
}
