package layout

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridOrderCell(t *testing.T) {
	o := GridOrder(PrintOrder)

	tables := []struct {
		label    Label
		row, col int
	}{
		{'H', 0, 0},
		{'J', 0, 3},
		{'G', 1, 0},
		{'F', 2, 0},
		{'C', 2, 3},
		{'D', 3, 3},
	}

	for _, table := range tables {
		t.Run(table.label.String(), func(t *testing.T) {
			row, col, err := o.Cell(table.label)
			require.NoError(t, err)
			assert.Equal(t, table.row, row)
			assert.Equal(t, table.col, col)
			assert.Equal(t, table.label, o.Label(row, col))
		})
	}

	_, _, err := o.Cell('Z')
	assert.ErrorIs(t, err, ErrLabelNotFound)
}

func TestGridOrderValidate(t *testing.T) {
	assert.NoError(t, GridOrder(PrintOrder).Validate())
	assert.ErrorIs(t, GridOrder("ABC").Validate(), ErrInvalidGridOrder)
	assert.ErrorIs(t, GridOrder("AACDEFGHIJKLMNOP").Validate(), ErrInvalidGridOrder)
}

func TestLayoutValidate(t *testing.T) {
	assert.NoError(t, Regular().Validate())
	assert.NoError(t, Clockwise().Validate())

	err := New(PrintOrder, "ABC").Validate()
	assert.ErrorIs(t, err, ErrMalformedFaceCode)

	err = New(PrintOrder, "ABCZ").Validate()
	assert.ErrorIs(t, err, ErrMalformedFaceCode)
	assert.ErrorIs(t, err, ErrLabelNotFound)

	assert.ErrorIs(t, New(PrintOrder).Validate(), ErrMalformedFaceCode)
}

func TestLayoutFace(t *testing.T) {
	l := Clockwise()

	f, err := l.Face(2)
	require.NoError(t, err)
	assert.Equal(t, FaceCode("HJFE"), f)

	for _, i := range []int{-1, 8} {
		_, err := l.Face(i)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	}
}

func TestLayoutShares(t *testing.T) {
	l := Clockwise()

	assert.Equal(t, []Label{'F'}, l.Shares(2, 0))
	assert.Equal(t, []Label{'H', 'F'}, l.Shares(2, 1))
	assert.Equal(t, []Label{'H', 'J'}, l.Shares(2, 3))
	assert.Equal(t, []Label{'J'}, l.Shares(2, 4))
	assert.Empty(t, l.Shares(2, 5))
}

func TestFaceCodeCells(t *testing.T) {
	cells, err := FaceCode("HJFE").Cells(PrintOrder)
	require.NoError(t, err)
	assert.Equal(t, [4]image.Point{{0, 0}, {3, 0}, {0, 2}, {1, 2}}, cells)
}

func TestRects(t *testing.T) {
	b := image.Rect(0, 0, 1200, 800)
	assert.Equal(t, image.Rect(300, 400, 600, 600), GridRect(b, 2, 1))
	assert.Equal(t, image.Rect(900, 600, 1200, 800), GridRect(b, 3, 3))

	f := image.Rect(0, 0, 600, 400)
	assert.Equal(t, image.Rect(0, 0, 300, 200), FaceRect(f, 0))
	assert.Equal(t, image.Rect(300, 0, 600, 200), FaceRect(f, 1))
	assert.Equal(t, image.Rect(0, 200, 300, 400), FaceRect(f, 2))
	assert.Equal(t, image.Rect(300, 200, 600, 400), FaceRect(f, 3))

	assert.Equal(t, image.Pt(600, 400), FaceSize(b.Size()))
}

func TestCheckTiling(t *testing.T) {
	assert.NoError(t, CheckGrid(image.Rect(0, 0, 8, 12)))
	assert.ErrorIs(t, CheckGrid(image.Rect(0, 0, 10, 12)), ErrSizeMismatch)
	assert.ErrorIs(t, CheckGrid(image.Rectangle{}), ErrSizeMismatch)
	assert.NoError(t, CheckFace(image.Rect(0, 0, 2, 6)))
	assert.ErrorIs(t, CheckFace(image.Rect(0, 0, 3, 6)), ErrSizeMismatch)
}

func TestPreset(t *testing.T) {
	l, err := Preset("Regular")
	require.NoError(t, err)
	assert.Equal(t, 4, l.Len())

	l, err = Preset(DefaultPreset)
	require.NoError(t, err)
	assert.Equal(t, 8, l.Len())

	_, err = Preset("diagonal")
	assert.Error(t, err)

	assert.Equal(t, []string{"clockwise", "regular"}, Presets())
}

func TestPresetsAreIndependent(t *testing.T) {
	a := Clockwise()
	a.Faces[0] = "PPPP"
	assert.Equal(t, FaceCode("ABFD"), Clockwise().Faces[0])
}
