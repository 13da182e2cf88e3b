package glx

import (
	"strings"

	"github.com/go-gl/gl/v3.2-compatibility/gl"

	"github.com/doczir/compton/internal/region"
)

// Slots for the two kawase passes in Session.blurPasses.
const (
	kawaseDownPass = 0
	kawaseUpPass   = 1
)

const kawaseShaderDown = `  vec4 sum = clamp_tex(uv) * 4.0;
  sum += clamp_tex(uv - halfpixel.xy * offset);
  sum += clamp_tex(uv + halfpixel.xy * offset);
  sum += clamp_tex(uv + vec2(halfpixel.x, -halfpixel.y) * offset);
  sum += clamp_tex(uv - vec2(halfpixel.x, -halfpixel.y) * offset);

  gl_FragColor = sum / 8.0;
}
`

const kawaseShaderUp = `  vec4 sum = clamp_tex(uv + vec2(-halfpixel.x * 2.0, 0.0) * offset);
  sum += clamp_tex(uv + vec2(-halfpixel.x, halfpixel.y) * offset) * 2.0;
  sum += clamp_tex(uv + vec2(0.0, halfpixel.y * 2.0) * offset);
  sum += clamp_tex(uv + vec2(halfpixel.x, halfpixel.y) * offset) * 2.0;
  sum += clamp_tex(uv + vec2(halfpixel.x * 2.0, 0.0) * offset);
  sum += clamp_tex(uv + vec2(halfpixel.x, -halfpixel.y) * offset) * 2.0;
  sum += clamp_tex(uv + vec2(0.0, -halfpixel.y * 2.0) * offset);
  sum += clamp_tex(uv + vec2(-halfpixel.x, -halfpixel.y) * offset) * 2.0;

  gl_FragColor = sum / 12.0;
}
`

// kawaseShaderSource assembles the down- or upsample fragment shader. The
// clamp_tex helper keeps samples inside the texture so the blur does not
// bleed in garbage from outside the copied region.
func kawaseShaderSource(body string, useRect bool) string {
	samplerType := "sampler2D"
	textureFunc := "texture2D"
	if useRect {
		samplerType = "sampler2DRect"
		textureFunc = "texture2DRect"
	}

	var b strings.Builder
	b.WriteString("#version 110\n")
	if useRect {
		b.WriteString("#extension GL_ARB_texture_rectangle : require\n")
	}
	b.WriteString("uniform float offset;\n")
	b.WriteString("uniform vec2 halfpixel;\n")
	b.WriteString("uniform vec2 fulltex;\n")
	b.WriteString("uniform " + samplerType + " tex_scr;\n")
	b.WriteString("vec4 clamp_tex(vec2 uv)\n")
	b.WriteString("{\n")
	b.WriteString("  return " + textureFunc + "(tex_scr, clamp(uv, vec2(0), fulltex));\n")
	b.WriteString("}\n")
	b.WriteString("\n")
	b.WriteString("void main()\n")
	b.WriteString("{\n")
	b.WriteString("  vec2 uv = (gl_TexCoord[0].xy / fulltex);\n")
	b.WriteString("  \n")
	b.WriteString(body)
	return b.String()
}

func (s *Session) initKawaseBlur() error {
	if err := probeFramebuffer(); err != nil {
		return err
	}

	useRect := !s.hasNPOT
	bodies := [2]string{kawaseDownPass: kawaseShaderDown, kawaseUpPass: kawaseShaderUp}
	for slot, body := range bodies {
		src := kawaseShaderSource(body, useRect)
		shader, err := compileShader(gl.FRAGMENT_SHADER, src)
		if err != nil {
			return err
		}
		pass := &s.blurPasses[slot]
		pass.fragShader = shader

		prog, err := linkProgram(shader)
		if err != nil {
			return err
		}
		pass.prog = prog

		pass.unifmOffset = uniformLoc(prog, "offset")
		pass.unifmHalfpixel = uniformLoc(prog, "halfpixel")
		pass.unifmFulltex = uniformLoc(prog, "fulltex")
	}
	return nil
}

// clampKawaseIterations lowers the iteration count until the deepest
// downsample level still holds at least one pixel in both dimensions.
func clampKawaseIterations(iterations, width, height int) int {
	if iterations >= maxBlurPass {
		iterations = maxBlurPass - 1
	}
	for iterations > 1 &&
		(width/(1<<(iterations-1)) < 1 || height/(1<<(iterations-1)) < 1) {
		iterations--
	}
	return iterations
}

// kawaseLevelSize returns the texture size at downsample level i, where
// level 1 is the full-resolution source.
func kawaseLevelSize(full, level int) int {
	return full / (1 << (level - 1))
}

// kawaseBlurDst runs the dual kawase pipeline: a chain of progressively
// half-sized downsample passes through the framebuffer, then the matching
// upsample chain with the final pass written to the back buffer.
func (s *Session) kawaseBlurDst(dx, dy, width, height int, z float32,
	regTgt region.Region, bc *BlurCache) (err error) {
	haveScissors := gl.IsEnabled(gl.SCISSOR_TEST)
	haveStencil := gl.IsEnabled(gl.STENCIL_TEST)

	iterations := clampKawaseIterations(s.opts.BlurStrength.Iterations, width, height)
	offset := float32(s.opts.BlurStrength.Offset)

	var scratch BlurCache
	if bc == nil {
		bc = &scratch
	}

	tgt := s.blurTexTarget()
	enum := tgt.glEnum()

	defer func() {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.BindTexture(enum, 0)
		gl.Disable(enum)
		if haveScissors {
			gl.Enable(gl.SCISSOR_TEST)
		}
		if haveStencil {
			gl.Enable(gl.STENCIL_TEST)
		}
		if bc == &scratch {
			s.FreeBlurCache(bc)
		}
		checkGLError("kawase blur")
	}()

	if width != bc.width || height != bc.height {
		s.freeBlurTextures(bc)
	}

	if bc.textures[0] == 0 {
		bc.textures[0] = genBlurTexture(tgt, width, height)
	}
	texScr := bc.textures[0]

	for i := 1; i <= iterations; i++ {
		if bc.textures[i] == 0 {
			bc.textures[i] = genBlurTexture(tgt,
				kawaseLevelSize(width, i), kawaseLevelSize(height, i))
		}
	}

	bc.width = width
	bc.height = height

	if bc.fbo == 0 {
		gl.GenFramebuffers(1, &bc.fbo)
	}
	fbo := bc.fbo

	if texScr == 0 {
		return &ResourceAllocationError{Resource: "blur texture"}
	}
	for i := 1; i <= iterations; i++ {
		if bc.textures[i] == 0 {
			return &ResourceAllocationError{Resource: "blur level texture"}
		}
	}
	if fbo == 0 {
		return &ResourceAllocationError{Resource: "framebuffer"}
	}

	// Read destination pixels into the full-resolution texture.
	gl.Enable(enum)
	gl.BindTexture(enum, texScr)
	s.copyRegionToTexture(tgt, dx, dy, dx, dy, width, height)

	gl.Disable(gl.STENCIL_TEST)
	gl.Disable(gl.SCISSOR_TEST)

	rects := paintRects(dx, dy, width, height, regTgt)

	// Downsample chain.
	for i := 1; i <= iterations; i++ {
		pass := &s.blurPasses[kawaseDownPass]
		texWidth := kawaseLevelSize(width, i)
		texHeight := kawaseLevelSize(height, i)
		texSrc := bc.textures[i-1]
		texDest := bc.textures[i]

		gl.BindTexture(enum, texSrc)

		gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0,
			gl.TEXTURE_2D, texDest, 0)
		drawBufs := [1]uint32{gl.COLOR_ATTACHMENT0}
		gl.DrawBuffers(1, &drawBufs[0])
		if gl.CheckFramebufferStatus(gl.FRAMEBUFFER) != gl.FRAMEBUFFER_COMPLETE {
			return &ResourceAllocationError{Resource: "framebuffer attachment"}
		}

		gl.TexEnvi(gl.TEXTURE_ENV, gl.TEXTURE_ENV_MODE, gl.REPLACE)
		gl.UseProgram(pass.prog)
		if pass.unifmOffset >= 0 {
			gl.Uniform1f(pass.unifmOffset, offset)
		}
		if pass.unifmHalfpixel >= 0 {
			gl.Uniform2f(pass.unifmHalfpixel, 0.5/float32(texWidth), 0.5/float32(texHeight))
		}
		if pass.unifmFulltex >= 0 {
			gl.Uniform2f(pass.unifmFulltex, float32(texWidth), float32(texHeight))
		}

		gl.Begin(gl.QUADS)
		for _, crect := range rects {
			rx := float32(crect.Min.X - dx)
			ry := float32(height - (crect.Min.Y - dy))
			rxe := rx + float32(crect.Dx())
			rye := ry - float32(crect.Dy())

			gl.TexCoord2f(rx, ry)
			gl.Vertex3f(rx, ry, z)
			gl.TexCoord2f(rxe, ry)
			gl.Vertex3f(rxe, ry, z)
			gl.TexCoord2f(rxe, rye)
			gl.Vertex3f(rxe, rye, z)
			gl.TexCoord2f(rx, rye)
			gl.Vertex3f(rx, rye, z)
		}
		gl.End()
	}

	// Upsample chain; the last step targets the back buffer with clipping
	// restored.
	for i := iterations; i >= 1; i-- {
		pass := &s.blurPasses[kawaseUpPass]
		isLast := i == 1

		texWidth, texHeight := width, height
		if !isLast {
			texWidth = kawaseLevelSize(width, i-1)
			texHeight = kawaseLevelSize(height, i-1)
		}
		texSrc := bc.textures[i]
		texDest := bc.textures[i-1]

		gl.BindTexture(enum, texSrc)

		if !isLast {
			gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
			gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0,
				gl.TEXTURE_2D, texDest, 0)
			drawBufs := [1]uint32{gl.COLOR_ATTACHMENT0}
			gl.DrawBuffers(1, &drawBufs[0])
			if gl.CheckFramebufferStatus(gl.FRAMEBUFFER) != gl.FRAMEBUFFER_COMPLETE {
				return &ResourceAllocationError{Resource: "framebuffer attachment"}
			}
		} else {
			gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
			drawBufs := [1]uint32{gl.BACK}
			gl.DrawBuffers(1, &drawBufs[0])
			if haveScissors {
				gl.Enable(gl.SCISSOR_TEST)
			}
			if haveStencil {
				gl.Enable(gl.STENCIL_TEST)
			}
		}

		gl.TexEnvi(gl.TEXTURE_ENV, gl.TEXTURE_ENV_MODE, gl.REPLACE)
		gl.UseProgram(pass.prog)
		if pass.unifmOffset >= 0 {
			gl.Uniform1f(pass.unifmOffset, offset)
		}
		if pass.unifmHalfpixel >= 0 {
			gl.Uniform2f(pass.unifmHalfpixel, 0.5/float32(texWidth), 0.5/float32(texHeight))
		}
		if pass.unifmFulltex >= 0 {
			gl.Uniform2f(pass.unifmFulltex, float32(texWidth), float32(texHeight))
		}

		gl.Begin(gl.QUADS)
		for _, crect := range rects {
			rx := float32(crect.Min.X - dx)
			ry := float32(height - (crect.Min.Y - dy))
			rxe := rx + float32(crect.Dx())
			rye := ry - float32(crect.Dy())
			rdx, rdy, rdxe, rdye := rx, ry, rxe, rye

			if isLast {
				rdx = float32(crect.Min.X)
				rdy = float32(s.rootHeight - crect.Min.Y)
				rdxe = rdx + float32(crect.Dx())
				rdye = rdy - float32(crect.Dy())
			}

			gl.TexCoord2f(rx, ry)
			gl.Vertex3f(rdx, rdy, z)
			gl.TexCoord2f(rxe, ry)
			gl.Vertex3f(rdxe, rdy, z)
			gl.TexCoord2f(rxe, rye)
			gl.Vertex3f(rdxe, rdye, z)
			gl.TexCoord2f(rx, rye)
			gl.Vertex3f(rdx, rdye, z)
		}
		gl.End()
	}

	gl.UseProgram(0)
	return nil
}
