package glx

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rgbCandidate(id, depth int) formatCandidate {
	return formatCandidate{
		ID:           id,
		RedSize:      8,
		BufferSize:   depth,
		BufferSizeOK: true,
		AlphaSizeOK:  true,
		TargetsOK:    true,
		Targets:      target2DBit | targetRectangleBit,
		BindRGB:      true,
		VisualDepth:  depth,
	}
}

func rgbaCandidate(id int) formatCandidate {
	c := rgbCandidate(id, 32)
	c.AlphaSize = 8
	c.BindRGBA = true
	return c
}

func TestSelectFormatsBasic(t *testing.T) {
	table, err := selectFormats([]formatCandidate{
		rgbCandidate(1, 24),
		rgbaCandidate(2),
	}, 24)
	require.NoError(t, err)

	require.NotNil(t, table[24])
	assert.False(t, table[24].RGBA())
	require.NotNil(t, table[32])
	assert.True(t, table[32].RGBA())
}

func TestSelectFormatsNoFormatForScreenDepth(t *testing.T) {
	_, err := selectFormats([]formatCandidate{rgbaCandidate(1)}, 24)
	require.Error(t, err)
	var capErr *CapabilityError
	assert.True(t, errors.As(err, &capErr))
}

func TestSelectFormatsRejectsNon8BitRed(t *testing.T) {
	ten := rgbCandidate(1, 24)
	ten.RedSize = 10
	_, err := selectFormats([]formatCandidate{ten}, 24)
	require.Error(t, err)

	eight := rgbCandidate(2, 24)
	table, err := selectFormats([]formatCandidate{ten, eight}, 24)
	require.NoError(t, err)
	assert.Equal(t, 2, table[24].id)
}

func TestSelectFormatsRejectsMultisampled(t *testing.T) {
	ms := rgbCandidate(1, 24)
	ms.Samples = 4
	_, err := selectFormats([]formatCandidate{ms}, 24)
	assert.Error(t, err)
}

func TestSelectFormatsRejectsMissingVisual(t *testing.T) {
	nv := rgbCandidate(1, 24)
	nv.VisualDepth = -1
	_, err := selectFormats([]formatCandidate{nv}, 24)
	assert.Error(t, err)
}

func TestSelectFormatsComparatorPriorities(t *testing.T) {
	base := func(id int) formatCandidate { return rgbCandidate(id, 24) }

	// Double-buffered wins over larger stencil.
	a := base(1)
	a.StencilSize = 8
	b := base(2)
	b.DoubleBuffer = true
	table, err := selectFormats([]formatCandidate{a, b}, 24)
	require.NoError(t, err)
	assert.Equal(t, 2, table[24].id)

	// On a double-buffer tie, larger stencil wins.
	a.DoubleBuffer = true
	table, err = selectFormats([]formatCandidate{a, b}, 24)
	require.NoError(t, err)
	assert.Equal(t, 1, table[24].id)

	// Then larger depth buffer.
	c := base(3)
	c.DoubleBuffer = true
	c.StencilSize = 8
	c.DepthSize = 24
	table, err = selectFormats([]formatCandidate{a, b, c}, 24)
	require.NoError(t, err)
	assert.Equal(t, 3, table[24].id)

	// Then not-mipmap-bindable.
	d := base(4)
	d.DoubleBuffer = true
	d.StencilSize = 8
	d.DepthSize = 24
	d.BindMipmap = true
	table, err = selectFormats([]formatCandidate{d, c}, 24)
	require.NoError(t, err)
	assert.Equal(t, 3, table[24].id)
}

func TestSelectFormatsDeterministicAcrossInputOrder(t *testing.T) {
	cands := []formatCandidate{
		rgbCandidate(7, 24),
		rgbCandidate(3, 24),
		rgbCandidate(11, 24),
		rgbaCandidate(5),
		rgbaCandidate(9),
	}
	cands[0].DoubleBuffer = true
	cands[2].DoubleBuffer = true

	ref, err := selectFormats(cands, 24)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]formatCandidate{}, cands...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		table, err := selectFormats(shuffled, 24)
		require.NoError(t, err)
		assert.Equal(t, ref[24].id, table[24].id)
		assert.Equal(t, ref[32].id, table[32].id)
	}
}
