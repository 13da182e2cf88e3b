package glx

import (
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doczir/compton/internal/region"
)

func TestConvBlurShaderSourceBasic(t *testing.T) {
	kern, err := ParseKernel("3x3:1,1,1,1,1,1,1,1")
	require.NoError(t, err)

	src, sum := convBlurShaderSource(kern, false, false)

	assert.True(t, strings.HasPrefix(src, "#version 110\n"))
	assert.Contains(t, src, "uniform sampler2D tex_scr;")
	assert.NotContains(t, src, "GL_ARB_texture_rectangle")
	assert.NotContains(t, src, "GL_EXT_gpu_shader4")

	// Eight taps around the skipped center.
	assert.Equal(t, 8, strings.Count(src, "sum += float("))
	assert.NotContains(t, src, "ivec2(0, 0)")
	assert.InDelta(t, 8.0, sum, 1e-9)

	// Center sample weighted by the runtime uniform, normalization by the
	// generated sum.
	assert.Contains(t, src, "* factor_center;")
	assert.Contains(t, src, "sum / (factor_center + float(8));")
}

func TestConvBlurShaderSourceSkipsZeroWeights(t *testing.T) {
	kern := Kernel{W: 3, H: 1, Data: []float64{0.5, 9, 0}}

	src, sum := convBlurShaderSource(kern, false, false)

	assert.Equal(t, 1, strings.Count(src, "sum += float("))
	assert.Contains(t, src, "float(0.5)")
	assert.NotContains(t, src, "float(9)")
	assert.InDelta(t, 0.5, sum, 1e-9)
}

func TestConvBlurShaderSourceRectangle(t *testing.T) {
	kern, err := ParseKernel("3x3:1,1,1,1,1,1,1,1")
	require.NoError(t, err)

	src, _ := convBlurShaderSource(kern, true, false)

	assert.Contains(t, src, "#extension GL_ARB_texture_rectangle : require")
	assert.Contains(t, src, "uniform sampler2DRect tex_scr;")
	assert.Contains(t, src, "texture2DRect(tex_scr,")
}

func TestConvBlurShaderSourceGpuShader4(t *testing.T) {
	kern, err := ParseKernel("3x3:1,1,1,1,1,1,1,1")
	require.NoError(t, err)

	src, _ := convBlurShaderSource(kern, false, true)

	assert.Contains(t, src, "#extension GL_EXT_gpu_shader4 : require")
	assert.Contains(t, src, "texture2DOffset(tex_scr,")
	assert.Contains(t, src, "ivec2(-1, -1)")
	assert.NotContains(t, src, "offset_x * float(")
}

// Float literals in generated shaders must use '.' regardless of the
// process locale; a comma would not parse as GLSL.
func TestConvBlurShaderSourceDecimalPoint(t *testing.T) {
	kern := Kernel{W: 3, H: 1, Data: []float64{0.25, 0, 1.5}}

	src, _ := convBlurShaderSource(kern, false, false)

	assert.Contains(t, src, "float(0.25)")
	assert.Contains(t, src, "float(1.75)")
	assert.NotContains(t, src, ",25")
	assert.NotContains(t, src, "1,5")
}

func TestKawaseShaderSource(t *testing.T) {
	down := kawaseShaderSource(kawaseShaderDown, false)
	assert.Contains(t, down, "uniform sampler2D tex_scr;")
	assert.Contains(t, down, "vec4 clamp_tex(vec2 uv)")
	assert.Contains(t, down, "clamp_tex(uv) * 4.0")
	assert.Contains(t, down, "sum / 8.0")

	up := kawaseShaderSource(kawaseShaderUp, true)
	assert.Contains(t, up, "#extension GL_ARB_texture_rectangle : require")
	assert.Contains(t, up, "texture2DRect(tex_scr, clamp(uv, vec2(0), fulltex))")
	assert.Contains(t, up, "sum / 12.0")
}

func TestClampKawaseIterations(t *testing.T) {
	// Large surface keeps the configured count.
	assert.Equal(t, 3, clampKawaseIterations(3, 1920, 1080))

	// Every level must keep at least one pixel per dimension.
	for _, tc := range []struct {
		it, w, h, want int
	}{
		{5, 8, 8, 4},
		{5, 16, 2, 2},
		{3, 1, 1, 1},
		{1, 100, 100, 1},
	} {
		got := clampKawaseIterations(tc.it, tc.w, tc.h)
		assert.Equal(t, tc.want, got, "it=%d w=%d h=%d", tc.it, tc.w, tc.h)
		assert.GreaterOrEqual(t, tc.w/(1<<(got-1)), 1)
		assert.GreaterOrEqual(t, tc.h/(1<<(got-1)), 1)
	}

	// Never exceed the available pass slots.
	assert.Less(t, clampKawaseIterations(50, 1<<20, 1<<20), maxBlurPass)
}

func TestKawaseLevelSize(t *testing.T) {
	assert.Equal(t, 400, kawaseLevelSize(400, 1))
	assert.Equal(t, 200, kawaseLevelSize(400, 2))
	assert.Equal(t, 100, kawaseLevelSize(400, 3))
	assert.Equal(t, 1, kawaseLevelSize(3, 2))
}

func TestPaintRects(t *testing.T) {
	tgt := region.FromRect(image.Rect(0, 0, 100, 100))

	rects := paintRects(10, 10, 50, 50, tgt)
	require.Len(t, rects, 1)
	assert.Equal(t, image.Rect(10, 10, 60, 60), rects[0])

	// Clipped against the target region.
	rects = paintRects(80, 80, 50, 50, tgt)
	require.Len(t, rects, 1)
	assert.Equal(t, image.Rect(80, 80, 100, 100), rects[0])

	// Fully outside yields nothing to draw.
	assert.Empty(t, paintRects(200, 200, 10, 10, tgt))
}
