/*
Package preview renders the faces of an infinity card as an animated GIF.

Each face becomes one frame, shown in layout order, which is the order the
faces appear while the card is folded round. Frames are optionally shrunk to
thumbnails and reduced to a palette of at most 256 colors; a frame that
already uses few enough colors keeps them exactly.
*/
package preview

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"io"
	"sort"

	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/draw"
)

const (
	// ThumbnailSize is the longest side of a thumbnail frame
	ThumbnailSize = 128

	maxColors    = 256
	defaultDelay = 100
)

var errNoFaces = errors.New("preview: no faces")

// Options controls the animation
type Options struct {
	// Size is the longest side of each frame in pixels. Zero keeps faces
	// at full size. Frames are never enlarged.
	Size int
	// Delay is the time each frame is shown, in 100ths of a second
	Delay int
	// Colors is the palette size of each frame, up to 256
	Colors int
}

func (o *Options) withDefaults() Options {
	out := Options{Delay: defaultDelay, Colors: maxColors}
	if o == nil {
		return out
	}
	out.Size = o.Size
	if o.Delay > 0 {
		out.Delay = o.Delay
	}
	if o.Colors > 0 && o.Colors < maxColors {
		out.Colors = o.Colors
	}
	return out
}

func countColors(m image.Image) map[color.Color]int {
	colors := make(map[color.Color]int)
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			colors[m.At(x, y)]++
		}
	}
	return colors
}

// exactPalette returns the colors of m, ordered by their RGBA values, if
// there are no more than max of them
func exactPalette(m image.Image, max int) (color.Palette, bool) {
	h := countColors(m)
	if len(h) > max {
		return nil, false
	}
	p := make(color.Palette, 0, len(h))
	for c := range h {
		p = append(p, c)
	}
	sort.Slice(p, func(i, j int) bool {
		return rgbaKey(p[i]) < rgbaKey(p[j])
	})
	return p, true
}

func rgbaKey(c color.Color) uint64 {
	r, g, b, a := c.RGBA()
	return uint64(r)<<48 | uint64(g)<<32 | uint64(b)<<16 | uint64(a)
}

// thumbnail scales m so its longest side is size, keeping the aspect ratio
func thumbnail(m image.Image, size int) image.Image {
	b := m.Bounds()
	if size <= 0 || (b.Dx() <= size && b.Dy() <= size) {
		return m
	}

	w, h := size, b.Dy()*size/b.Dx()
	if b.Dy() > b.Dx() {
		w, h = b.Dx()*size/b.Dy(), size
	}

	dst := image.NewNRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), m, b, draw.Src, nil)
	return dst
}

// Frame converts one face into a paletted frame
func Frame(m image.Image, o *Options) *image.Paletted {
	opts := o.withDefaults()
	m = thumbnail(m, opts.Size)
	b := m.Bounds()

	p, ok := exactPalette(m, opts.Colors)
	if !ok {
		q := quantize.MedianCutQuantizer{}
		p = q.Quantize(make(color.Palette, 0, opts.Colors), m)
	}

	pm := image.NewPaletted(image.Rectangle{Max: b.Size()}, p)
	draw.Draw(pm, pm.Bounds(), m, b.Min, draw.Src)
	return pm
}

// Encode writes the faces to w as a looping animated GIF
func Encode(w io.Writer, faces []image.Image, o *Options) error {
	if len(faces) == 0 {
		return errNoFaces
	}

	opts := o.withDefaults()
	g := &gif.GIF{
		Image: make([]*image.Paletted, len(faces)),
		Delay: make([]int, len(faces)),
	}
	for i, face := range faces {
		g.Image[i] = Frame(face, &opts)
		g.Delay[i] = opts.Delay
	}

	return gif.EncodeAll(w, g)
}
