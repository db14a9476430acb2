package grid

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"log"
	"strings"
	"testing"

	"github.com/bodgit/infinitycard/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var red = color.NRGBA{0xff, 0x00, 0x00, 0xff}

// colourGrid returns a grid where every tile has its own colour and a
// diagonal gradient, so misplaced or flipped tiles are detected
func colourGrid(tileWidth, tileHeight int) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, tileWidth*4, tileHeight*4))
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			r := layout.GridRect(m.Bounds(), row, col)
			for y := r.Min.Y; y < r.Max.Y; y++ {
				for x := r.Min.X; x < r.Max.X; x++ {
					m.SetNRGBA(x, y, color.NRGBA{
						R: uint8(row * 64),
						G: uint8(col * 64),
						B: uint8((x - r.Min.X + y - r.Min.Y) % 256),
						A: 0xff,
					})
				}
			}
		}
	}
	return m
}

func solid(w, h int, c color.Color) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(m, m.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return m
}

func tile(t *testing.T, g image.Image, order layout.GridOrder, label layout.Label) *image.NRGBA {
	t.Helper()
	row, col, err := order.Cell(label)
	require.NoError(t, err)
	return Clone(crop(g, layout.GridRect(g.Bounds(), row, col)))
}

func samePixels(a, b image.Image) bool {
	return a.Bounds().Size() == b.Bounds().Size() && bytes.Equal(Clone(a).Pix, Clone(b).Pix)
}

func images(faces []*image.NRGBA) []image.Image {
	m := make([]image.Image, len(faces))
	for i, f := range faces {
		m[i] = f
	}
	return m
}

func TestNew(t *testing.T) {
	g, err := New(layout.PrintOrder, 30, 20, NopStamper{})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 120, 80), g.Bounds())

	// Border on each tile, white inside
	assert.Equal(t, border, g.NRGBAAt(0, 0))
	assert.Equal(t, border, g.NRGBAAt(29, 10))
	assert.Equal(t, border, g.NRGBAAt(30, 10))
	assert.Equal(t, background, g.NRGBAAt(15, 10))

	_, err = New("ABC", 30, 20, nil)
	assert.ErrorIs(t, err, layout.ErrInvalidGridOrder)

	_, err = New(layout.PrintOrder, 0, 20, nil)
	assert.ErrorIs(t, err, layout.ErrSizeMismatch)
}

func TestNewFontStamper(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	s := NewFontStamper("", 40, 40, logger)
	g, err := New(layout.PrintOrder, 40, 40, s)
	require.NoError(t, err)
	assert.Empty(t, buf.String())

	// Something dark was drawn inside the H tile
	blank := solid(36, 36, background)
	inner := Clone(crop(g, image.Rect(2, 2, 38, 38)))
	assert.False(t, samePixels(blank, inner))

	s = NewFontStamper("/nonexistent/font.ttf", 40, 40, logger)
	_, err = New(layout.PrintOrder, 40, 40, s)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Warning")
}

func TestFaces(t *testing.T) {
	l := layout.Clockwise()
	g := colourGrid(30, 20)

	faces, err := Faces(g, l)
	require.NoError(t, err)
	require.Len(t, faces, 8)

	for i, face := range faces {
		assert.Equal(t, image.Rect(0, 0, 60, 40), face.Bounds())
		for j, label := range l.Faces[i].Labels() {
			got := Clone(crop(face, layout.FaceRect(face.Bounds(), j)))
			assert.True(t, samePixels(tile(t, g, l.Grid, label), got), "face %d position %d", i+1, j)
		}
	}

	// Faces do not alias each other
	faces[0].SetNRGBA(0, 0, red)
	assert.NotEqual(t, red, faces[1].NRGBAAt(0, 0))
}

func TestFacesErrors(t *testing.T) {
	_, err := Faces(colourGrid(30, 20), layout.New(layout.PrintOrder, "ABF"))
	assert.ErrorIs(t, err, layout.ErrMalformedFaceCode)

	_, err = Faces(colourGrid(30, 20), layout.New(layout.PrintOrder, "ABFZ"))
	assert.ErrorIs(t, err, layout.ErrMalformedFaceCode)
	assert.ErrorIs(t, err, layout.ErrLabelNotFound)

	_, err = Faces(image.NewNRGBA(image.Rect(0, 0, 10, 10)), layout.Regular())
	assert.ErrorIs(t, err, layout.ErrSizeMismatch)
}

func TestFacesIdempotent(t *testing.T) {
	g := colourGrid(16, 16)
	a, err := Faces(g, layout.Clockwise())
	require.NoError(t, err)
	b, err := Faces(g, layout.Clockwise())
	require.NoError(t, err)

	for i := range a {
		assert.Equal(t, a[i].Pix, b[i].Pix)
	}
}

func TestRoundTrip(t *testing.T) {
	// Every label appears exactly once across the faces
	l := layout.New(layout.PrintOrder, "HPGO", "IJAB", "FENM", "KCLD")
	g := colourGrid(12, 8)

	faces, err := Faces(g, l)
	require.NoError(t, err)

	got, err := Assemble(images(faces), l)
	require.NoError(t, err)
	assert.Equal(t, g.Pix, got.Pix)
}

func TestRoundTripShared(t *testing.T) {
	// Tiles are shared between faces but consistent, since the faces were
	// cut from one grid, and every label is covered
	l := layout.Clockwise()
	g := colourGrid(12, 8)

	faces, err := Faces(g, l)
	require.NoError(t, err)

	got, err := Assemble(images(faces), l)
	require.NoError(t, err)
	assert.Equal(t, g.Pix, got.Pix)
}

func TestAssembleArity(t *testing.T) {
	l := layout.Clockwise()
	faces, err := Faces(colourGrid(8, 8), l)
	require.NoError(t, err)

	for _, n := range []int{0, 7, 9} {
		in := images(faces)
		if n > len(in) {
			in = append(in, faces[0])
		} else {
			in = in[:n]
		}
		g, err := Assemble(in, l)
		assert.ErrorIs(t, err, layout.ErrArityMismatch)
		assert.Nil(t, g)
	}
}

func TestAssembleSizes(t *testing.T) {
	l := layout.Regular()
	faces := []image.Image{solid(8, 8, red), solid(8, 8, red), solid(8, 8, red), solid(10, 8, red)}
	_, err := Assemble(faces, l)
	assert.ErrorIs(t, err, layout.ErrSizeMismatch)

	faces[3] = solid(8, 8, red)
	faces[0] = solid(7, 7, red)
	_, err = Assemble(faces, l)
	assert.ErrorIs(t, err, layout.ErrSizeMismatch)
}

func TestAssembleLastWriteWins(t *testing.T) {
	l := layout.New(layout.PrintOrder, "HPGO", "HJAB")
	blue := color.NRGBA{0x00, 0x00, 0xff, 0xff}

	g, err := Assemble([]image.Image{solid(8, 8, red), solid(8, 8, blue)}, l)
	require.NoError(t, err)

	h := tile(t, g, l.Grid, 'H')
	assert.Equal(t, blue, h.NRGBAAt(0, 0))
	p := tile(t, g, l.Grid, 'P')
	assert.Equal(t, red, p.NRGBAAt(0, 0))
}

func TestUpdateLocality(t *testing.T) {
	l := layout.Clockwise()
	g := colourGrid(20, 20)
	before := Clone(g)

	patched, faces, err := Update(g, 2, solid(40, 40, red), l)
	require.NoError(t, err)
	require.Len(t, faces, 8)

	// Input grid untouched
	assert.Equal(t, before.Pix, g.Pix)

	for i := 0; i < len(l.Grid); i++ {
		label := layout.Label(l.Grid[i])
		got := tile(t, patched, l.Grid, label)
		if l.Faces[2].Contains(label) {
			assert.True(t, samePixels(solid(20, 20, red), got), "label %s", label)
		} else {
			assert.True(t, samePixels(tile(t, before, l.Grid, label), got), "label %s", label)
		}
	}
}

func TestUpdatePropagation(t *testing.T) {
	l := layout.Clockwise()
	g := colourGrid(20, 20)
	edit := colourGrid(10, 10) // 40x40 with its own pattern

	patched, faces, err := Update(g, 2, edit, l)
	require.NoError(t, err)

	want, err := Faces(patched, l)
	require.NoError(t, err)

	for j := range faces {
		assert.Equal(t, want[j].Pix, faces[j].Pix)
		for _, label := range l.Shares(2, j) {
			src := layout.FaceRect(edit.Bounds(), strings.IndexByte(string(l.Faces[2]), byte(label)))
			dst := layout.FaceRect(faces[j].Bounds(), strings.IndexByte(string(l.Faces[j]), byte(label)))
			assert.True(t, samePixels(crop(edit, src), crop(faces[j], dst)), "face %d label %s", j+1, label)
		}
	}
}

func TestUpdateErrors(t *testing.T) {
	l := layout.Clockwise()
	g := colourGrid(20, 20)

	for _, i := range []int{-1, 8} {
		_, _, err := Update(g, i, solid(40, 40, red), l)
		assert.ErrorIs(t, err, layout.ErrIndexOutOfRange)
	}

	_, _, err := Update(g, 0, solid(60, 60, red), l)
	assert.ErrorIs(t, err, layout.ErrSizeMismatch)
}

func TestDiverged(t *testing.T) {
	l := layout.Clockwise()
	faces, err := Faces(colourGrid(8, 8), l)
	require.NoError(t, err)

	d, err := Diverged(images(faces), l)
	require.NoError(t, err)
	assert.Empty(t, d)

	// Paint face 3 (HJFE) red without propagating
	in := images(faces)
	in[2] = solid(16, 16, red)
	d, err = Diverged(in, l)
	require.NoError(t, err)
	assert.ElementsMatch(t, []layout.Label{'H', 'J', 'F'}, d)

	_, err = Diverged(in[:3], l)
	assert.ErrorIs(t, err, layout.ErrArityMismatch)
}

func TestClone(t *testing.T) {
	g := colourGrid(4, 4)
	sub := g.SubImage(image.Rect(4, 4, 8, 8))
	c := Clone(sub)
	assert.Equal(t, image.Rect(0, 0, 4, 4), c.Bounds())
	assert.Equal(t, g.NRGBAAt(4, 4), c.NRGBAAt(0, 0))
}
