package layout

import (
	"fmt"
	"image"
)

// GridRect returns the pixel rectangle of the tile at row, col within a grid
// with bounds b
func GridRect(b image.Rectangle, row, col int) image.Rectangle {
	return tileRect(b, GridTiles, row, col)
}

// FaceRect returns the pixel rectangle of face position i within a face with
// bounds b
func FaceRect(b image.Rectangle, i int) image.Rectangle {
	return tileRect(b, FaceTiles, i/FaceTiles, i%FaceTiles)
}

func tileRect(b image.Rectangle, n, row, col int) image.Rectangle {
	w, h := b.Dx()/n, b.Dy()/n
	return image.Rect(col*w, row*h, col*w+w, row*h+h).Add(b.Min)
}

// CheckGrid returns ErrSizeMismatch unless b tiles exactly into 4 by 4
func CheckGrid(b image.Rectangle) error {
	return checkTiling(b, GridTiles)
}

// CheckFace returns ErrSizeMismatch unless b tiles exactly into 2 by 2
func CheckFace(b image.Rectangle) error {
	return checkTiling(b, FaceTiles)
}

func checkTiling(b image.Rectangle, n int) error {
	if b.Empty() || b.Dx()%n != 0 || b.Dy()%n != 0 {
		return fmt.Errorf("%w: %dx%d does not divide into %dx%d tiles", ErrSizeMismatch, b.Dx(), b.Dy(), n, n)
	}
	return nil
}

// FaceSize returns the size of a face cut from a grid of size g
func FaceSize(g image.Point) image.Point {
	return g.Div(GridTiles / FaceTiles)
}
