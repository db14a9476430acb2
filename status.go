package infinitycard

import (
	"bytes"
	"sort"

	"github.com/bodgit/infinitycard/grid"
	"github.com/bodgit/infinitycard/layout"
)

// Status describes how the files of a project relate to each other and to
// what the project last wrote
type Status struct {
	// Stale lists the zero-based indices of face files that no longer match
	// the grid, typically faces edited but not yet pushed with UpdateFace
	Stale []int
	// Diverged lists labels whose tiles differ between face files
	Diverged []layout.Label
	// Modified lists files changed on disk since they were last recorded
	// in the catalogue. It is empty when the project is not catalogued.
	Modified []string
}

// Clean reports whether the grid and faces on disk are consistent
func (s Status) Clean() bool {
	return len(s.Stale) == 0 && len(s.Diverged) == 0 && len(s.Modified) == 0
}

// Status compares the files on disk with each other and with the catalogue
func (p *Project) Status() (Status, error) {
	var s Status

	g, err := readImage(p.path(GridFilename))
	if err != nil {
		return s, err
	}
	want, err := grid.Faces(g, p.config.Layout)
	if err != nil {
		return s, err
	}

	faces, err := p.readFaces()
	if err != nil {
		return s, err
	}

	for i, face := range faces {
		got := grid.Clone(face)
		if got.Rect != want[i].Rect || !bytes.Equal(got.Pix, want[i].Pix) {
			s.Stale = append(s.Stale, i)
		}
	}

	if s.Diverged, err = grid.Diverged(faces, p.config.Layout); err != nil {
		// Faces of mismatched sizes are already reported as stale
		s.Diverged = nil
	}

	if p.db == nil {
		return s, nil
	}

	recorded, err := p.db.Assets(p.id)
	if err != nil {
		return s, err
	}
	current, err := digests(p.dir, p.config.Layout.Len())
	if err != nil {
		return s, err
	}
	for name, sum := range current {
		if old, ok := recorded[name]; ok && old != sum {
			s.Modified = append(s.Modified, name)
		}
	}
	sort.Strings(s.Modified)

	return s, nil
}

// record stores the digest of every project file in the catalogue
func (p *Project) record() error {
	if p.db == nil {
		return nil
	}
	sums, err := digests(p.dir, p.config.Layout.Len())
	if err != nil {
		return err
	}
	return p.db.RecordAssets(p.id, sums)
}
