/*
Package grid converts between an infinity card grid and its faces.

A grid image is cut into sixteen equal tiles addressed through a
layout.GridOrder. Each face image is built from four of those tiles as named
by a layout.FaceCode, so a face is always half the width and half the height
of the grid it was cut from. Tiles are copied pixel for pixel; nothing is
ever resampled.

All functions are pure: they allocate new images and never modify their
arguments.
*/
package grid

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/bodgit/infinitycard/layout"
)

var (
	background = color.NRGBA{0xff, 0xff, 0xff, 0xff}
	border     = color.NRGBA{0x00, 0x80, 0x00, 0xff}
)

const borderWidth = 2

// New synthesizes a blank grid of tileWidth by tileHeight tiles. Each tile is
// outlined and stamped with its label so it can be recognised while editing.
func New(order layout.GridOrder, tileWidth, tileHeight int, s Stamper) (*image.NRGBA, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	if tileWidth <= 0 || tileHeight <= 0 {
		return nil, fmt.Errorf("%w: tile size %dx%d", layout.ErrSizeMismatch, tileWidth, tileHeight)
	}
	if s == nil {
		s = NopStamper{}
	}

	m := image.NewNRGBA(image.Rect(0, 0, tileWidth*layout.GridTiles, tileHeight*layout.GridTiles))
	draw.Draw(m, m.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	for row := 0; row < layout.GridTiles; row++ {
		for col := 0; col < layout.GridTiles; col++ {
			r := layout.GridRect(m.Bounds(), row, col)
			s.Stamp(m, r, order.Label(row, col))
			outline(m, r, borderWidth, border)
		}
	}

	return m, nil
}

func outline(m draw.Image, r image.Rectangle, width int, c color.Color) {
	u := image.NewUniform(c)
	for _, edge := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width),
		image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y),
		image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y),
	} {
		draw.Draw(m, edge.Intersect(r), u, image.Point{}, draw.Src)
	}
}

// Faces cuts the grid into one face per face code, in layout order
func Faces(g image.Image, l layout.Layout) ([]*image.NRGBA, error) {
	b := g.Bounds()
	if err := layout.CheckGrid(b); err != nil {
		return nil, err
	}

	// Resolve every face code before allocating anything
	cells := make([][4]image.Point, len(l.Faces))
	for i, f := range l.Faces {
		c, err := f.Cells(l.Grid)
		if err != nil {
			return nil, err
		}
		cells[i] = c
	}

	size := layout.FaceSize(b.Size())
	faces := make([]*image.NRGBA, len(l.Faces))
	for i := range l.Faces {
		face := image.NewNRGBA(image.Rectangle{Max: size})
		for j, cell := range cells[i] {
			src := layout.GridRect(b, cell.Y, cell.X)
			draw.Draw(face, layout.FaceRect(face.Bounds(), j), g, src.Min, draw.Src)
		}
		faces[i] = face
	}

	return faces, nil
}

// Assemble rebuilds a grid from its faces. Every face must be the same size.
//
// Faces are applied in layout order and each face's tiles in row-major order,
// so when two faces carry different pixels for the same label the later one
// wins. Use Diverged to detect that situation.
func Assemble(faces []image.Image, l layout.Layout) (*image.NRGBA, error) {
	if len(faces) != len(l.Faces) {
		return nil, fmt.Errorf("%w: got %d, want %d", layout.ErrArityMismatch, len(faces), len(l.Faces))
	}
	cells, err := resolve(faces, l)
	if err != nil {
		return nil, err
	}

	size := faces[0].Bounds().Size().Mul(layout.GridTiles / layout.FaceTiles)
	g := image.NewNRGBA(image.Rectangle{Max: size})
	draw.Draw(g, g.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	for i, face := range faces {
		paste(g, face, cells[i])
	}

	return g, nil
}

// Update returns a copy of g with the four tiles of face index replaced by
// the corresponding tiles of face, together with every face regenerated from
// the patched grid. g itself is left untouched.
//
// The face must be exactly half the size of the grid so the tile resolution
// of the grid never changes behind the caller's back.
func Update(g image.Image, index int, face image.Image, l layout.Layout) (*image.NRGBA, []*image.NRGBA, error) {
	code, err := l.Face(index)
	if err != nil {
		return nil, nil, err
	}
	if err := layout.CheckGrid(g.Bounds()); err != nil {
		return nil, nil, err
	}
	if want := layout.FaceSize(g.Bounds().Size()); face.Bounds().Size() != want {
		return nil, nil, fmt.Errorf("%w: face %d is %v, want %v", layout.ErrSizeMismatch, index+1, face.Bounds().Size(), want)
	}
	cells, err := code.Cells(l.Grid)
	if err != nil {
		return nil, nil, err
	}

	patched := Clone(g)
	paste(patched, face, cells)

	faces, err := Faces(patched, l)
	if err != nil {
		return nil, nil, err
	}

	return patched, faces, nil
}

// Diverged returns the labels that appear on more than one face with
// differing pixels. Assembling such faces depends on face order.
func Diverged(faces []image.Image, l layout.Layout) ([]layout.Label, error) {
	if len(faces) != len(l.Faces) {
		return nil, fmt.Errorf("%w: got %d, want %d", layout.ErrArityMismatch, len(faces), len(l.Faces))
	}
	if _, err := resolve(faces, l); err != nil {
		return nil, err
	}

	first := make(map[layout.Label][]byte)
	var diverged []layout.Label
	seen := make(map[layout.Label]bool)
	for i, face := range faces {
		for j, label := range l.Faces[i].Labels() {
			tile := Clone(crop(face, layout.FaceRect(face.Bounds(), j))).Pix
			prev, ok := first[label]
			if !ok {
				first[label] = tile
				continue
			}
			if !seen[label] && !bytes.Equal(prev, tile) {
				seen[label] = true
				diverged = append(diverged, label)
			}
		}
	}

	return diverged, nil
}

// Clone returns an NRGBA copy of m with its origin moved to (0, 0)
func Clone(m image.Image) *image.NRGBA {
	b := m.Bounds()
	dup := image.NewNRGBA(image.Rectangle{Max: b.Size()})
	draw.Draw(dup, dup.Bounds(), m, b.Min, draw.Src)
	return dup
}

func resolve(faces []image.Image, l layout.Layout) ([][4]image.Point, error) {
	if len(faces) == 0 {
		return nil, fmt.Errorf("%w: no faces", layout.ErrArityMismatch)
	}
	size := faces[0].Bounds().Size()
	for i, face := range faces {
		if err := layout.CheckFace(face.Bounds()); err != nil {
			return nil, fmt.Errorf("face %d: %w", i+1, err)
		}
		if face.Bounds().Size() != size {
			return nil, fmt.Errorf("%w: face %d is %v, face 1 is %v", layout.ErrSizeMismatch, i+1, face.Bounds().Size(), size)
		}
	}

	cells := make([][4]image.Point, len(l.Faces))
	for i, f := range l.Faces {
		c, err := f.Cells(l.Grid)
		if err != nil {
			return nil, err
		}
		cells[i] = c
	}
	return cells, nil
}

// paste copies the four tiles of face into the grid cells they belong to
func paste(g *image.NRGBA, face image.Image, cells [4]image.Point) {
	fb := face.Bounds()
	for j, cell := range cells {
		src := layout.FaceRect(fb, j)
		draw.Draw(g, layout.GridRect(g.Bounds(), cell.Y, cell.X), face, src.Min, draw.Src)
	}
}

func crop(m image.Image, r image.Rectangle) image.Image {
	if s, ok := m.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return s.SubImage(r)
	}
	dup := image.NewNRGBA(r)
	draw.Draw(dup, r, m, r.Min, draw.Src)
	return dup
}
