/*
Package layout implements the tile addressing used by an infinity card.

A grid is a 4 by 4 array of equally sized tiles, each named by a single
character label. The grid order lists the sixteen labels in row-major order
so the label at index k lives in row k/4, column k%4. A face is a 2 by 2
array of tiles and is described by a face code of four labels, again in
row-major order. Labels may appear in any number of face codes; that is how
one tile ends up visible on several faces of the folded card.
*/
package layout

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

const (
	// GridTiles is the number of tiles along each side of a grid
	GridTiles = 4
	// FaceTiles is the number of tiles along each side of a face
	FaceTiles = 2

	numLabels    = GridTiles * GridTiles
	labelsInFace = FaceTiles * FaceTiles
)

var (
	ErrLabelNotFound     = errors.New("layout: label not found in grid order")
	ErrMalformedFaceCode = errors.New("layout: malformed face code")
	ErrArityMismatch     = errors.New("layout: wrong number of faces")
	ErrIndexOutOfRange   = errors.New("layout: face index out of range")
	ErrMissingAsset      = errors.New("layout: missing asset")
	ErrInvalidIdentifier = errors.New("layout: invalid face identifier")
	ErrSizeMismatch      = errors.New("layout: image is wrong size")
	ErrInvalidGridOrder  = errors.New("layout: invalid grid order")
)

// Label names a single grid tile
type Label byte

func (l Label) String() string {
	return string(l)
}

// GridOrder lists the sixteen grid labels in row-major order
type GridOrder string

// Validate checks the order is a permutation of sixteen distinct labels
func (o GridOrder) Validate() error {
	if len(o) != numLabels {
		return fmt.Errorf("%w: %q has %d labels, want %d", ErrInvalidGridOrder, string(o), len(o), numLabels)
	}
	var seen [256]bool
	for i := 0; i < len(o); i++ {
		if seen[o[i]] {
			return fmt.Errorf("%w: %q repeats label %q", ErrInvalidGridOrder, string(o), o[i])
		}
		seen[o[i]] = true
	}
	return nil
}

// Cell returns the grid row and column occupied by label
func (o GridOrder) Cell(label Label) (int, int, error) {
	i := strings.IndexByte(string(o), byte(label))
	if i < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrLabelNotFound, label)
	}
	return i / GridTiles, i % GridTiles, nil
}

// Label returns the label at the given grid row and column
func (o GridOrder) Label(row, col int) Label {
	return Label(o[row*GridTiles+col])
}

// FaceCode names the four grid labels shown on a face, row-major
type FaceCode string

// Labels returns the labels of the face code in face-local order
func (c FaceCode) Labels() []Label {
	labels := make([]Label, len(c))
	for i := 0; i < len(c); i++ {
		labels[i] = Label(c[i])
	}
	return labels
}

// Contains reports whether the face shows the given label
func (c FaceCode) Contains(label Label) bool {
	return strings.IndexByte(string(c), byte(label)) >= 0
}

// Cells resolves each position of the face code to its grid row and column
func (c FaceCode) Cells(order GridOrder) ([labelsInFace]image.Point, error) {
	var cells [labelsInFace]image.Point
	if len(c) != labelsInFace {
		return cells, fmt.Errorf("%w: %q has %d labels, want %d", ErrMalformedFaceCode, string(c), len(c), labelsInFace)
	}
	for i := 0; i < labelsInFace; i++ {
		row, col, err := order.Cell(Label(c[i]))
		if err != nil {
			return cells, fmt.Errorf("%w: %q: %w", ErrMalformedFaceCode, string(c), err)
		}
		cells[i] = image.Pt(col, row)
	}
	return cells, nil
}

// Layout pairs a grid order with the ordered list of faces cut from it
type Layout struct {
	Grid  GridOrder
	Faces []FaceCode
}

// New returns a layout for the given grid order and face codes
func New(order string, faces ...string) Layout {
	l := Layout{
		Grid:  GridOrder(order),
		Faces: make([]FaceCode, len(faces)),
	}
	for i, f := range faces {
		l.Faces[i] = FaceCode(f)
	}
	return l
}

// Validate checks the grid order and every face code
func (l Layout) Validate() error {
	if err := l.Grid.Validate(); err != nil {
		return err
	}
	if len(l.Faces) == 0 {
		return fmt.Errorf("%w: no faces", ErrMalformedFaceCode)
	}
	for _, f := range l.Faces {
		if _, err := f.Cells(l.Grid); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of faces
func (l Layout) Len() int {
	return len(l.Faces)
}

// Face returns the face code at index i
func (l Layout) Face(i int) (FaceCode, error) {
	if i < 0 || i >= len(l.Faces) {
		return "", fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(l.Faces))
	}
	return l.Faces[i], nil
}

// Shares returns the labels of face i that also appear on face j
func (l Layout) Shares(i, j int) []Label {
	var shared []Label
	for _, label := range l.Faces[i].Labels() {
		if l.Faces[j].Contains(label) {
			shared = append(shared, label)
		}
	}
	return shared
}

// Strings returns the face codes as plain strings
func (l Layout) Strings() []string {
	s := make([]string, len(l.Faces))
	for i, f := range l.Faces {
		s[i] = string(f)
	}
	return s
}

func (l Layout) String() string {
	return fmt.Sprintf("%s [%s]", l.Grid, strings.Join(l.Strings(), " "))
}
