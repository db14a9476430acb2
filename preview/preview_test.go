package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), uint8(x ^ y), 0xff})
		}
	}
	return m
}

func twoTone(w, h int) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{0xff, 0x00, 0x00, 0xff}
			if x >= w/2 {
				c = color.NRGBA{0x00, 0x00, 0xff, 0xff}
			}
			m.SetNRGBA(x, y, c)
		}
	}
	return m
}

func TestFrameExactPalette(t *testing.T) {
	pm := Frame(twoTone(8, 8), nil)
	assert.Len(t, pm.Palette, 2)
	assert.Equal(t, image.Rect(0, 0, 8, 8), pm.Bounds())

	r, _, b, _ := pm.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0), b)
	r, _, b, _ = pm.At(7, 0).RGBA()
	assert.Equal(t, uint32(0), r)
	assert.Equal(t, uint32(0xffff), b)
}

func TestEncodeDeterministic(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			m.SetNRGBA(x, y, color.NRGBA{uint8(x * 16), uint8(y * 16), 0x40, 0xff})
		}
	}
	faces := []image.Image{m, twoTone(16, 16)}

	var first bytes.Buffer
	require.NoError(t, Encode(&first, faces, nil))
	for i := 0; i < 5; i++ {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, faces, nil))
		assert.Equal(t, first.Bytes(), buf.Bytes())
	}

	pm := Frame(twoTone(8, 8), nil)
	assert.Equal(t, color.Palette{
		color.NRGBA{0x00, 0x00, 0xff, 0xff},
		color.NRGBA{0xff, 0x00, 0x00, 0xff},
	}, pm.Palette)
}

func TestFrameQuantized(t *testing.T) {
	pm := Frame(gradient(64, 64), &Options{Colors: 16})
	assert.LessOrEqual(t, len(pm.Palette), 16)
	assert.NotEmpty(t, pm.Palette)
}

func TestFrameThumbnail(t *testing.T) {
	pm := Frame(gradient(256, 128), &Options{Size: ThumbnailSize})
	assert.Equal(t, image.Rect(0, 0, 128, 64), pm.Bounds())

	pm = Frame(gradient(100, 200), &Options{Size: ThumbnailSize})
	assert.Equal(t, image.Rect(0, 0, 64, 128), pm.Bounds())

	// Never enlarged
	pm = Frame(twoTone(32, 32), &Options{Size: ThumbnailSize})
	assert.Equal(t, image.Rect(0, 0, 32, 32), pm.Bounds())
}

func TestEncode(t *testing.T) {
	faces := []image.Image{twoTone(16, 16), gradient(16, 16), twoTone(16, 16)}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, faces, &Options{Delay: 50}))

	g, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	assert.Len(t, g.Image, 3)
	assert.Equal(t, []int{50, 50, 50}, g.Delay)
	assert.Equal(t, 0, g.LoopCount)

	assert.ErrorIs(t, Encode(&buf, nil, nil), errNoFaces)
}
