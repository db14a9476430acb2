package grid

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"log"
	"os"

	"github.com/bodgit/infinitycard/layout"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Stamper draws a label into a tile. It is purely cosmetic.
type Stamper interface {
	Stamp(dst draw.Image, r image.Rectangle, label layout.Label)
}

// NopStamper leaves tiles blank
type NopStamper struct{}

// Stamp does nothing
func (NopStamper) Stamp(draw.Image, image.Rectangle, layout.Label) {}

// glyphScale is the glyph size relative to the shorter side of a tile
const glyphScale = 0.6

// FontStamper centres a label glyph in each tile using a font face
type FontStamper struct {
	face font.Face
	ink  image.Image
}

// NewFontStamper returns a stamper sized for tiles of tileWidth by
// tileHeight. If file is empty the embedded Go Mono face is used. If file
// cannot be loaded a warning is logged and a small fixed bitmap face is used
// instead; glyph rendering never fails grid synthesis.
func NewFontStamper(file string, tileWidth, tileHeight int, logger *log.Logger) *FontStamper {
	size := float64(min(tileWidth, tileHeight)) * glyphScale

	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	face, err := loadFace(file, size)
	if err != nil {
		logger.Printf("Warning: %v; using default font\n", err)
		face = basicfont.Face7x13
	}

	return &FontStamper{
		face: face,
		ink:  image.NewUniform(color.Black),
	}
}

func loadFace(file string, size float64) (font.Face, error) {
	b := gomono.TTF
	if file != "" {
		var err error
		if b, err = os.ReadFile(file); err != nil {
			return nil, err
		}
	}

	f, err := opentype.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}

	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Stamp draws label centred within r
func (s *FontStamper) Stamp(dst draw.Image, r image.Rectangle, label layout.Label) {
	bounds, _ := font.BoundString(s.face, label.String())

	// Offset the dot so the glyph's bounding box is centred
	w := (bounds.Max.X - bounds.Min.X).Ceil()
	h := (bounds.Max.Y - bounds.Min.Y).Ceil()
	x := r.Min.X + (r.Dx()-w)/2 - bounds.Min.X.Floor()
	y := r.Min.Y + (r.Dy()-h)/2 - bounds.Min.Y.Floor()

	d := &font.Drawer{
		Dst:  dst,
		Src:  s.ink,
		Face: s.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label.String())
}
