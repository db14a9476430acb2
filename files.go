package infinitycard

import (
	"bufio"
	"fmt"
	"image"
	_ "image/gif"  // register decoder for edited faces
	_ "image/jpeg" // register decoder for edited faces
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bodgit/infinitycard/grid"
	"github.com/bodgit/infinitycard/layout"
	_ "golang.org/x/image/bmp" // register decoder for edited faces
)

const (
	// GridFilename is the grid image within a project directory
	GridFilename = "grid.png"
	// RebuildFilename receives the grid reassembled from the faces
	RebuildFilename = "new_grid.png"

	facePrefix = "face"
	faceExt    = ".png"
)

// FaceFilename returns the filename of the face at zero-based index i
func FaceFilename(i int) string {
	return fmt.Sprintf("%s%d%s", facePrefix, i+1, faceExt)
}

// ParseFaceFilename returns the zero-based face index named by a filename of
// the form face{N}.ext, where N counts from 1 and must not exceed count
func ParseFaceFilename(name string, count int) (int, error) {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if !strings.HasPrefix(stem, facePrefix) {
		return 0, fmt.Errorf("%w: %q", layout.ErrInvalidIdentifier, base)
	}
	digits := strings.TrimPrefix(stem, facePrefix)
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, fmt.Errorf("%w: %q", layout.ErrInvalidIdentifier, base)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", layout.ErrInvalidIdentifier, base, err)
	}
	if n < 1 || n > count {
		return 0, fmt.Errorf("%w: %q names face %d, project has %d", layout.ErrIndexOutOfRange, base, n, count)
	}
	return n - 1, nil
}

// readImage decodes file and converts it to NRGBA
func readImage(file string) (*image.NRGBA, error) {
	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, missing(file)
		}
		return nil, err
	}
	defer f.Close()

	m, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", file, err)
	}

	if nm, ok := m.(*image.NRGBA); ok && nm.Rect.Min == (image.Point{}) {
		return nm, nil
	}
	return grid.Clone(m), nil
}

// writePNG atomically replaces file with m
func writePNG(file string, m image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(file), ".infinitycard-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	if err := png.Encode(w, m); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("encoding %s: %w", filepath.Base(file), err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, file); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
