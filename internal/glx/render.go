package glx

import (
	"image"

	"github.com/go-gl/gl/v3.2-compatibility/gl"

	"github.com/doczir/compton/internal/region"
)

// blendRequired reports whether drawing needs alpha blending: either the
// content is translucent or the texture carries an alpha channel.
func blendRequired(opacity float64, argb bool) bool {
	return opacity < 1.0 || argb
}

// texQuad is one textured quad of a render pass: texture coordinates on the
// source and pixel coordinates on the destination, already flipped into GL's
// bottom-up convention.
type texQuad struct {
	rx, ry, rxe, rye     float32
	rdx, rdy, rdxe, rdye int32
}

// renderQuad maps one clip rectangle to a textured quad. x, y locate the
// sampled area inside the texture; dx, dy locate the drawn area on screen.
// 2D textures use normalized coordinates, rectangle textures use pixels.
func renderQuad(crect image.Rectangle, x, y, dx, dy int, tex *Texture, rootHeight int) texQuad {
	q := texQuad{
		rx: float32(crect.Min.X - dx + x),
		ry: float32(crect.Min.Y - dy + y),
	}
	q.rxe = q.rx + float32(crect.Dx())
	q.rye = q.ry + float32(crect.Dy())

	if tex.target == target2D {
		q.rx /= float32(tex.width)
		q.ry /= float32(tex.height)
		q.rxe /= float32(tex.width)
		q.rye /= float32(tex.height)
	}

	q.rdx = int32(crect.Min.X)
	q.rdy = int32(rootHeight - crect.Min.Y)
	q.rdxe = q.rdx + int32(crect.Dx())
	q.rdye = q.rdy - int32(crect.Dy())

	if !tex.yInverted {
		q.ry = 1.0 - q.ry
		q.rye = 1.0 - q.rye
	}
	return q
}

// Render draws a textured region to the back buffer. x, y select the origin
// inside the texture; dx, dy place it on the root. Opacity below one enables
// blending; argb marks the content as carrying premultiplied alpha; neg
// inverts colors. With a program the shader handles opacity and inversion,
// otherwise fixed-function state does.
func (s *Session) Render(tex *Texture, x, y, dx, dy, width, height, z int,
	opacity float64, argb, neg bool, regTgt region.Region, program *Program) error {
	if tex == nil || tex.texture == 0 {
		return &InvalidInputError{Reason: "missing texture"}
	}

	if fd := s.formats[tex.depth]; fd != nil && fd.RGBA() {
		argb = true
	}
	hasProg := program != nil && program.prog != 0
	dualTexture := false

	enum := tex.target.glEnum()

	// Legacy GL wants the target enabled before environment setup.
	gl.Enable(enum)

	blending := blendRequired(opacity, argb)
	if blending {
		gl.Enable(gl.BLEND)

		gl.TexEnvi(gl.TEXTURE_ENV, gl.TEXTURE_ENV_MODE, gl.MODULATE)

		// Pixmap contents come premultiplied, so the source factor stays
		// GL_ONE and opacity goes through the constant color.
		gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
		op := float32(opacity)
		gl.Color4f(op, op, op, op)
	}

	if !hasProg {
		if neg {
			switch {
			case !blending:
				// Opaque content negates cheaply through the logic op.
				gl.Enable(gl.COLOR_LOGIC_OP)
				gl.LogicOp(gl.COPY_INVERTED)
			case argb:
				// Premultiplied alpha makes negation A - C; that needs two
				// combiner stages sampling the same texture.
				dualTexture = true

				gl.ActiveTexture(gl.TEXTURE0)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.TEXTURE_ENV_MODE, gl.COMBINE)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.COMBINE_RGB, gl.SUBTRACT)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.SOURCE0_RGB, gl.TEXTURE)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.OPERAND0_RGB, gl.SRC_ALPHA)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.SOURCE1_RGB, gl.TEXTURE)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.OPERAND1_RGB, gl.SRC_COLOR)

				gl.TexEnvi(gl.TEXTURE_ENV, gl.COMBINE_ALPHA, gl.REPLACE)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.SOURCE0_ALPHA, gl.TEXTURE)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.OPERAND0_ALPHA, gl.SRC_ALPHA)

				gl.ActiveTexture(gl.TEXTURE1)
				gl.Enable(enum)
				gl.BindTexture(enum, tex.texture)

				gl.TexEnvi(gl.TEXTURE_ENV, gl.TEXTURE_ENV_MODE, gl.COMBINE)

				gl.TexEnvi(gl.TEXTURE_ENV, gl.COMBINE_RGB, gl.MODULATE)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.SOURCE0_RGB, gl.PREVIOUS)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.OPERAND0_RGB, gl.SRC_COLOR)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.SOURCE1_RGB, gl.PRIMARY_COLOR)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.OPERAND1_RGB, gl.SRC_ALPHA)

				gl.TexEnvi(gl.TEXTURE_ENV, gl.COMBINE_ALPHA, gl.MODULATE)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.SOURCE0_ALPHA, gl.PREVIOUS)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.OPERAND0_ALPHA, gl.SRC_ALPHA)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.SOURCE1_ALPHA, gl.PRIMARY_COLOR)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.OPERAND1_ALPHA, gl.SRC_ALPHA)

				gl.ActiveTexture(gl.TEXTURE0)
			default:
				// Translucent RGB: negate through a single combiner stage.
				gl.TexEnvi(gl.TEXTURE_ENV, gl.TEXTURE_ENV_MODE, gl.COMBINE)

				gl.TexEnvi(gl.TEXTURE_ENV, gl.COMBINE_RGB, gl.MODULATE)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.SOURCE0_RGB, gl.TEXTURE)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.OPERAND0_RGB, gl.ONE_MINUS_SRC_COLOR)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.SOURCE1_RGB, gl.PRIMARY_COLOR)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.OPERAND1_RGB, gl.SRC_COLOR)

				gl.TexEnvi(gl.TEXTURE_ENV, gl.COMBINE_ALPHA, gl.MODULATE)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.SOURCE0_ALPHA, gl.TEXTURE)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.OPERAND0_ALPHA, gl.SRC_ALPHA)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.SOURCE1_ALPHA, gl.PRIMARY_COLOR)
				gl.TexEnvi(gl.TEXTURE_ENV, gl.OPERAND1_ALPHA, gl.SRC_ALPHA)
			}
		}
	} else {
		gl.UseProgram(program.prog)
		if program.unifmOpacity >= 0 {
			gl.Uniform1f(program.unifmOpacity, float32(opacity))
		}
		if program.unifmInvert >= 0 {
			v := int32(0)
			if neg {
				v = 1
			}
			gl.Uniform1i(program.unifmInvert, v)
		}
		if program.unifmTex >= 0 {
			gl.Uniform1i(program.unifmTex, 0)
		}
	}

	gl.BindTexture(enum, tex.texture)
	if dualTexture {
		gl.ActiveTexture(gl.TEXTURE1)
		gl.BindTexture(enum, tex.texture)
		gl.ActiveTexture(gl.TEXTURE0)
	}

	texCoord := func(cx, cy float32) {
		if dualTexture {
			gl.MultiTexCoord2f(gl.TEXTURE0, cx, cy)
			gl.MultiTexCoord2f(gl.TEXTURE1, cx, cy)
		} else {
			gl.TexCoord2f(cx, cy)
		}
	}

	gl.Begin(gl.QUADS)
	for _, crect := range paintRects(dx, dy, width, height, regTgt) {
		q := renderQuad(crect, x, y, dx, dy, tex, s.rootHeight)

		texCoord(q.rx, q.ry)
		gl.Vertex3i(q.rdx, q.rdy, int32(z))
		texCoord(q.rxe, q.ry)
		gl.Vertex3i(q.rdxe, q.rdy, int32(z))
		texCoord(q.rxe, q.rye)
		gl.Vertex3i(q.rdxe, q.rdye, int32(z))
		texCoord(q.rx, q.rye)
		gl.Vertex3i(q.rdx, q.rdye, int32(z))
	}
	gl.End()

	gl.BindTexture(enum, 0)
	gl.Color4f(0, 0, 0, 0)
	gl.TexEnvi(gl.TEXTURE_ENV, gl.TEXTURE_ENV_MODE, gl.REPLACE)
	gl.Disable(gl.BLEND)
	gl.Disable(gl.COLOR_LOGIC_OP)
	gl.Disable(enum)

	if dualTexture {
		gl.ActiveTexture(gl.TEXTURE1)
		gl.BindTexture(enum, 0)
		gl.Disable(enum)
		gl.ActiveTexture(gl.TEXTURE0)
	}

	if hasProg {
		gl.UseProgram(0)
	}

	checkGLError("render")
	return nil
}

// Dim darkens a region by blending a black quad over it. Done as a separate
// pass; folding it into Render would tangle with the negation combiners.
func (s *Session) Dim(dx, dy, width, height int, z float32, factor float32,
	regTgt region.Region) {
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	gl.Color4f(0, 0, 0, factor)

	gl.Begin(gl.QUADS)
	for _, crect := range paintRects(dx, dy, width, height, regTgt) {
		rdx := int32(crect.Min.X)
		rdy := int32(s.rootHeight - crect.Min.Y)
		rdxe := rdx + int32(crect.Dx())
		rdye := rdy - int32(crect.Dy())

		gl.Vertex3f(float32(rdx), float32(rdy), z)
		gl.Vertex3f(float32(rdxe), float32(rdy), z)
		gl.Vertex3f(float32(rdxe), float32(rdye), z)
		gl.Vertex3f(float32(rdx), float32(rdye), z)
	}
	gl.End()

	gl.Color4f(0, 0, 0, 0)
	gl.Disable(gl.BLEND)

	checkGLError("dim")
}

// Screenshot reads the front buffer as tightly packed RGB888, bottom row
// first. Slow; meant for on-demand captures, not per-frame use.
func (s *Session) Screenshot() ([]byte, error) {
	if !s.glReady {
		return nil, &InvalidInputError{Reason: "no GL context"}
	}
	w, h := s.rootWidth, s.rootHeight
	buf := make([]byte, 3*w*h)

	var unpackAlign int32
	gl.GetIntegerv(gl.UNPACK_ALIGNMENT, &unpackAlign)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.ReadBuffer(gl.FRONT)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(buf))
	gl.ReadBuffer(gl.BACK)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, unpackAlign)

	checkGLError("screenshot")
	return buf, nil
}
