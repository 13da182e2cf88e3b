package glx

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doczir/compton/internal/region"
)

func TestBlendRequired(t *testing.T) {
	assert.False(t, blendRequired(1.0, false))
	assert.True(t, blendRequired(0.8, false))
	assert.True(t, blendRequired(1.0, true))
	assert.True(t, blendRequired(0.5, true))
}

func TestRenderQuadRectangleTexture(t *testing.T) {
	tex := &Texture{target: targetRectangle, width: 200, height: 100, yInverted: true}
	crect := image.Rect(30, 40, 80, 90)

	q := renderQuad(crect, 0, 0, 30, 40, tex, 1080)

	// Rectangle textures address pixels directly.
	assert.Equal(t, float32(0), q.rx)
	assert.Equal(t, float32(0), q.ry)
	assert.Equal(t, float32(50), q.rxe)
	assert.Equal(t, float32(50), q.rye)

	// Destination flipped into GL's bottom-up coordinates.
	assert.Equal(t, int32(30), q.rdx)
	assert.Equal(t, int32(1080-40), q.rdy)
	assert.Equal(t, int32(80), q.rdxe)
	assert.Equal(t, int32(1080-90), q.rdye)
}

func TestRenderQuad2DTextureNormalized(t *testing.T) {
	tex := &Texture{target: target2D, width: 100, height: 50, yInverted: true}
	crect := image.Rect(0, 0, 100, 50)

	q := renderQuad(crect, 0, 0, 0, 0, tex, 500)

	assert.Equal(t, float32(0), q.rx)
	assert.Equal(t, float32(0), q.ry)
	assert.Equal(t, float32(1), q.rxe)
	assert.Equal(t, float32(1), q.rye)
}

func TestRenderQuadSourceOffset(t *testing.T) {
	// Drawing at dx,dy while sampling from x,y inside the texture.
	tex := &Texture{target: targetRectangle, width: 300, height: 300, yInverted: true}
	crect := image.Rect(110, 220, 160, 270)

	q := renderQuad(crect, 5, 7, 100, 200, tex, 1000)

	assert.Equal(t, float32(15), q.rx)  // 110-100+5
	assert.Equal(t, float32(27), q.ry)  // 220-200+7
	assert.Equal(t, float32(65), q.rxe)
	assert.Equal(t, float32(77), q.rye)
}

func TestRenderQuadYInversion(t *testing.T) {
	tex := &Texture{target: target2D, width: 100, height: 100, yInverted: false}
	crect := image.Rect(0, 0, 100, 100)

	q := renderQuad(crect, 0, 0, 0, 0, tex, 100)

	// Texture stored top-down, so V runs backwards.
	assert.Equal(t, float32(1), q.ry)
	assert.Equal(t, float32(0), q.rye)
}

func TestRenderMissingTexture(t *testing.T) {
	s := &Session{}

	var invalid *InvalidInputError
	err := s.Render(nil, 0, 0, 0, 0, 10, 10, 0, 1.0, false, false, region.Region{}, nil)
	assert.ErrorAs(t, err, &invalid)

	err = s.Render(&Texture{}, 0, 0, 0, 0, 10, 10, 0, 1.0, false, false, region.Region{}, nil)
	assert.ErrorAs(t, err, &invalid)
}
