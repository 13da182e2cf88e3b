package glx

import (
	"strconv"
	"strings"

	"github.com/go-gl/gl/v3.2-compatibility/gl"

	"github.com/doczir/compton/internal/region"
)

// glslFloat renders a float literal for shader source. strconv always emits
// a '.' decimal separator, so the output never depends on process locale.
func glslFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 7, 64)
}

// convBlurShaderSource generates the fragment shader for one convolution
// kernel. The center element is excluded from the generated taps and sampled
// separately, weighted by the factor_center uniform. Returns the source and
// the summed weight of the generated taps.
func convBlurShaderSource(kern Kernel, useRect, useGpuShader4 bool) (string, float64) {
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
	if useGpuShader4 {
		b.WriteString("#extension GL_EXT_gpu_shader4 : require\n")
	}
	b.WriteString("uniform float offset_x;\n")
	b.WriteString("uniform float offset_y;\n")
	b.WriteString("uniform float factor_center;\n")
	b.WriteString("uniform " + samplerType + " tex_scr;\n")
	b.WriteString("\n")
	b.WriteString("void main() {\n")
	b.WriteString("  vec4 sum = vec4(0.0, 0.0, 0.0, 0.0);\n")

	sum := 0.0
	for j := 0; j < kern.H; j++ {
		for k := 0; k < kern.W; k++ {
			if j == kern.H/2 && k == kern.W/2 {
				continue
			}
			val := kern.At(k, j)
			if val == 0 {
				continue
			}
			sum += val
			ox := strconv.Itoa(k - kern.W/2)
			oy := strconv.Itoa(j - kern.H/2)
			if useGpuShader4 {
				b.WriteString("  sum += float(" + glslFloat(val) + ") * " +
					textureFunc + "Offset(tex_scr, vec2(gl_TexCoord[0].x, gl_TexCoord[0].y), ivec2(" +
					ox + ", " + oy + "));\n")
			} else {
				b.WriteString("  sum += float(" + glslFloat(val) + ") * " +
					textureFunc + "(tex_scr, vec2(gl_TexCoord[0].x + offset_x * float(" +
					ox + "), gl_TexCoord[0].y + offset_y * float(" + oy + ")));\n")
			}
		}
	}

	b.WriteString("  sum += " + textureFunc +
		"(tex_scr, vec2(gl_TexCoord[0].x, gl_TexCoord[0].y)) * factor_center;\n")
	b.WriteString("  gl_FragColor = sum / (factor_center + float(" + glslFloat(sum) + "));\n")
	b.WriteString("}\n")

	return b.String(), sum
}

func (s *Session) initConvBlur() error {
	if len(s.opts.BlurKernels) == 0 {
		return &InvalidInputError{Reason: "convolution blur requires at least one kernel"}
	}
	if len(s.opts.BlurKernels) > maxBlurPass {
		return &InvalidInputError{Reason: "too many blur kernels"}
	}

	// Multi-pass needs an intermediate framebuffer; make sure the driver
	// can actually hand one out before compiling anything.
	if len(s.opts.BlurKernels) > 1 {
		if err := probeFramebuffer(); err != nil {
			return err
		}
	}

	useRect := !s.hasNPOT
	for i, kern := range s.opts.BlurKernels {
		src, _ := convBlurShaderSource(kern, useRect, s.opts.UseGpuShader4)
		shader, err := compileShader(gl.FRAGMENT_SHADER, src)
		if err != nil {
			return err
		}
		pass := &s.blurPasses[i]
		pass.fragShader = shader

		prog, err := linkProgram(shader)
		if err != nil {
			return err
		}
		pass.prog = prog

		pass.unifmFactorCenter = uniformLoc(prog, "factor_center")
		if !s.opts.UseGpuShader4 {
			pass.unifmOffsetX = uniformLoc(prog, "offset_x")
			pass.unifmOffsetY = uniformLoc(prog, "offset_y")
		}
	}
	return nil
}

// convBlurDst runs the convolution passes over the destination rectangle,
// ping-ponging between two cache textures and writing the final pass back
// to the back buffer.
func (s *Session) convBlurDst(dx, dy, width, height int, z float32, factorCenter float32,
	regTgt region.Region, bc *BlurCache) (err error) {
	morePasses := s.blurPasses[1].prog != 0
	haveScissors := gl.IsEnabled(gl.SCISSOR_TEST)
	haveStencil := gl.IsEnabled(gl.STENCIL_TEST)

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
		checkGLError("conv blur")
	}()

	if width != bc.width || height != bc.height {
		s.freeBlurTextures(bc)
	}

	if bc.textures[0] == 0 {
		bc.textures[0] = genBlurTexture(tgt, width, height)
	}
	texScr := bc.textures[0]
	if morePasses && bc.textures[1] == 0 {
		bc.textures[1] = genBlurTexture(tgt, width, height)
	}
	bc.width = width
	bc.height = height
	texScr2 := bc.textures[1]
	if morePasses && bc.fbo == 0 {
		gl.GenFramebuffers(1, &bc.fbo)
	}
	fbo := bc.fbo

	if texScr == 0 || (morePasses && texScr2 == 0) {
		return &ResourceAllocationError{Resource: "blur texture"}
	}
	if morePasses && fbo == 0 {
		return &ResourceAllocationError{Resource: "framebuffer"}
	}

	// Read destination pixels into the first texture.
	gl.Enable(enum)
	gl.BindTexture(enum, texScr)
	s.copyRegionToTexture(tgt, dx, dy, dx, dy, width, height)

	// Rectangle textures address pixels directly; 2D textures need
	// normalized coordinates.
	texfacX, texfacY := float32(1), float32(1)
	if tgt == target2D {
		texfacX /= float32(width)
		texfacY /= float32(height)
	}

	if morePasses {
		gl.Disable(gl.STENCIL_TEST)
		gl.Disable(gl.SCISSOR_TEST)
	}

	rects := paintRects(dx, dy, width, height, regTgt)

	lastPass := false
	for i := 0; !lastPass; i++ {
		lastPass = i+1 >= maxBlurPass || s.blurPasses[i+1].prog == 0
		pass := &s.blurPasses[i]

		gl.BindTexture(enum, texScr)

		if !lastPass {
			gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
			gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0,
				gl.TEXTURE_2D, texScr2, 0)
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
		if pass.unifmOffsetX >= 0 {
			gl.Uniform1f(pass.unifmOffsetX, texfacX)
		}
		if pass.unifmOffsetY >= 0 {
			gl.Uniform1f(pass.unifmOffsetY, texfacY)
		}
		if pass.unifmFactorCenter >= 0 {
			gl.Uniform1f(pass.unifmFactorCenter, factorCenter)
		}

		gl.Begin(gl.QUADS)
		for _, crect := range rects {
			rx := float32(crect.Min.X-dx) * texfacX
			ry := float32(height-(crect.Min.Y-dy)) * texfacY
			rxe := rx + float32(crect.Dx())*texfacX
			rye := ry - float32(crect.Dy())*texfacY
			rdx := float32(crect.Min.X - dx)
			rdy := float32(height - crect.Min.Y + dy)
			if lastPass {
				rdx = float32(crect.Min.X)
				rdy = float32(s.rootHeight - crect.Min.Y)
			}
			rdxe := rdx + float32(crect.Dx())
			rdye := rdy - float32(crect.Dy())

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

		gl.UseProgram(0)

		texScr, texScr2 = texScr2, texScr
	}

	return nil
}
