package infinitycard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/bodgit/infinitycard/grid"
	"github.com/bodgit/infinitycard/layout"
	"golang.org/x/sync/errgroup"
)

// saveWorkers bounds the number of faces encoded at once
const saveWorkers = 4

func (p *Project) path(name string) string {
	return filepath.Join(p.dir, name)
}

func (p *Project) create(ctx context.Context) error {
	// Faces without a grid means the grid was lost, not a new project
	for i := range p.config.Layout.Faces {
		exists, err := fileExists(p.path(FaceFilename(i)))
		if err != nil {
			return err
		}
		if exists {
			return missing(p.path(GridFilename))
		}
	}

	p.logger.Printf("[%s] Creating new images...\n", p.config.Name)

	s := grid.NewFontStamper(p.config.Font, p.config.TileWidth, p.config.TileHeight, p.logger)
	g, err := grid.New(p.config.Layout.Grid, p.config.TileWidth, p.config.TileHeight, s)
	if err != nil {
		return err
	}

	faces, err := grid.Faces(g, p.config.Layout)
	if err != nil {
		return err
	}

	if err := p.config.Save(p.dir); err != nil {
		return err
	}
	if err := p.save(ctx, g, faces); err != nil {
		return err
	}

	p.grid, p.faces = g, faces

	return nil
}

func (p *Project) load() error {
	p.logger.Printf("[%s] Loading images from disk...\n", p.config.Name)

	g, err := readImage(p.path(GridFilename))
	if err != nil {
		return err
	}
	if err := layout.CheckGrid(g.Bounds()); err != nil {
		return fmt.Errorf("%s: %w", GridFilename, err)
	}

	faces := make([]*image.NRGBA, p.config.Layout.Len())
	for i := range faces {
		if faces[i], err = readImage(p.path(FaceFilename(i))); err != nil {
			return err
		}
	}

	p.grid, p.faces = g, faces

	return nil
}

// save writes the grid and then every face. Each file is replaced
// atomically but the set as a whole is not; a failure part way leaves a mix
// of old and new faces that the next successful update repairs.
func (p *Project) save(ctx context.Context, g *image.NRGBA, faces []*image.NRGBA) error {
	if err := writePNG(p.path(GridFilename), g); err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(saveWorkers)
	for i, face := range faces {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return writePNG(p.path(FaceFilename(i)), face)
		})
	}
	return eg.Wait()
}

// UpdateFace reads the edited face file name, patches its tiles into the grid
// and regenerates every face. The edited file may be any decodable image of
// exactly half the grid's size; the faces are always rewritten as PNG. name is
// either a bare filename or a path within the project directory.
//
// Other face files edited since they were last written are applied first, in
// face order, so regenerating the faces never discards them. Where they share
// tiles with name, name wins.
func (p *Project) UpdateFace(ctx context.Context, name string) error {
	index, err := ParseFaceFilename(name, p.config.Layout.Len())
	if err != nil {
		return err
	}

	file, err := p.faceFile(name)
	if err != nil {
		return err
	}

	face, err := readImage(file)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pending, err := p.pendingFaces(index)
	if err != nil {
		return err
	}

	g := p.grid
	for _, pf := range pending {
		if g, _, err = grid.Update(g, pf.index, pf.face, p.config.Layout); err != nil {
			return fmt.Errorf("%s: %w", FaceFilename(pf.index), err)
		}
		p.logger.Printf("[%s] Applying pending edit to %s\n", p.config.Name, FaceFilename(pf.index))
	}

	g, faces, err := grid.Update(g, index, face, p.config.Layout)
	if err != nil {
		return err
	}

	if err := p.save(ctx, g, faces); err != nil {
		return err
	}

	p.grid, p.faces = g, faces

	if err := p.record(); err != nil {
		return err
	}

	p.logger.Printf("[%s] Updated grid and faces from %s\n", p.config.Name, filepath.Base(name))

	return nil
}

// faceFile resolves name to a file in the project directory
func (p *Project) faceFile(name string) (string, error) {
	if filepath.Dir(name) == "." {
		return p.path(name), nil
	}
	file, err := filepath.Abs(name)
	if err != nil {
		return "", err
	}
	if filepath.Dir(file) != p.dir {
		return "", fmt.Errorf("%w: %q is outside %s", layout.ErrInvalidIdentifier, name, p.dir)
	}
	return file, nil
}

type pendingFace struct {
	index int
	face  *image.NRGBA
}

// pendingFaces returns the face files other than skip whose pixels differ
// from what was last written or loaded. Missing files are not pending, they
// are simply rewritten.
func (p *Project) pendingFaces(skip int) ([]pendingFace, error) {
	var pending []pendingFace
	for i, want := range p.faces {
		if i == skip {
			continue
		}
		got, err := readImage(p.path(FaceFilename(i)))
		if err != nil {
			if errors.Is(err, layout.ErrMissingAsset) {
				continue
			}
			return nil, err
		}
		if got.Rect != want.Rect || !bytes.Equal(got.Pix, want.Pix) {
			pending = append(pending, pendingFace{index: i, face: got})
		}
	}
	return pending, nil
}

// Regenerate re-reads grid.png and rewrites every face from it, for when the
// grid itself has been edited
func (p *Project) Regenerate(ctx context.Context) error {
	g, err := readImage(p.path(GridFilename))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	faces, err := grid.Faces(g, p.config.Layout)
	if err != nil {
		return fmt.Errorf("%s: %w", GridFilename, err)
	}

	if err := p.save(ctx, g, faces); err != nil {
		return err
	}

	p.grid, p.faces = g, faces

	if err := p.record(); err != nil {
		return err
	}

	p.logger.Printf("[%s] Regenerated faces from %s\n", p.config.Name, GridFilename)

	return nil
}

// Reload re-reads grid.png or a face file from disk, replacing the copy held
// in memory. It is for consumers that notice a file changed underneath them.
func (p *Project) Reload(name string) error {
	name = filepath.Base(name)

	if name == GridFilename {
		g, err := readImage(p.path(name))
		if err != nil {
			return err
		}
		if err := layout.CheckGrid(g.Bounds()); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		p.mu.Lock()
		p.grid = g
		p.mu.Unlock()
		return nil
	}

	index, err := ParseFaceFilename(name, p.config.Layout.Len())
	if err != nil {
		return err
	}
	face, err := readImage(p.path(name))
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.faces[index] = face
	p.mu.Unlock()

	return nil
}

// Rebuild assembles a grid from the face files on disk and writes it to
// new_grid.png, leaving grid.png alone. Tiles shown on more than one face
// are taken from the last face showing them.
func (p *Project) Rebuild() (*image.NRGBA, error) {
	faces, err := p.readFaces()
	if err != nil {
		return nil, err
	}

	g, err := grid.Assemble(faces, p.config.Layout)
	if err != nil {
		return nil, err
	}

	if diverged, err := grid.Diverged(faces, p.config.Layout); err == nil && len(diverged) > 0 {
		p.logger.Printf("[%s] Faces disagree on tiles %v; later faces win\n", p.config.Name, diverged)
	}

	if err := writePNG(p.path(RebuildFilename), g); err != nil {
		return nil, err
	}

	return g, nil
}

func (p *Project) readFaces() ([]image.Image, error) {
	faces := make([]image.Image, p.config.Layout.Len())
	for i := range faces {
		face, err := readImage(p.path(FaceFilename(i)))
		if err != nil {
			return nil, err
		}
		faces[i] = face
	}
	return faces, nil
}
