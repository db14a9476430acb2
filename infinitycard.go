/*
Package infinitycard is a library for maintaining the artwork of infinity card
puzzles.

A project is a directory holding a grid image, grid.png, and one image per
face, face1.png to faceN.png. The grid is the source of truth; the faces are
derived from it and exist so they can be edited individually. After a face
has been edited, UpdateFace pushes its tiles back into the grid and rewrites
every face so tiles shared between faces stay in step.
*/
package infinitycard

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/bodgit/infinitycard/grid"
	"github.com/bodgit/infinitycard/layout"
)

// Project is an infinity card project directory loaded into memory
type Project struct {
	mu     sync.Mutex
	dir    string
	config Config
	grid   *image.NRGBA
	faces  []*image.NRGBA
	db     *CardDB
	logger *log.Logger
	id     string
}

// Open loads the project in dir, creating it from cfg if the directory holds
// no grid yet. An existing project keeps the layout recorded in its card.yaml.
// db may be nil, in which case the project is not catalogued.
func Open(ctx context.Context, dir string, cfg Config, db *CardDB, logger *log.Logger) (*Project, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	if cfg.Name == "" {
		cfg.Name = filepath.Base(dir)
	}

	exists, err := fileExists(filepath.Join(dir, GridFilename))
	if err != nil {
		return nil, err
	}
	if exists {
		if cfg, err = LoadConfig(dir, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Layout.Validate(); err != nil {
		return nil, err
	}

	p := &Project{
		dir:    dir,
		config: cfg,
		db:     db,
		logger: logger,
	}

	if exists {
		err = p.load()
	} else {
		err = p.create(ctx)
	}
	if err != nil {
		return nil, err
	}

	if db != nil {
		if p.id, err = db.AddProject(p.Info()); err != nil {
			return nil, err
		}
		if !exists {
			if err := p.record(); err != nil {
				return nil, err
			}
		}
	}

	return p, nil
}

// Dir returns the absolute path of the project directory
func (p *Project) Dir() string {
	return p.dir
}

// Name returns the project name
func (p *Project) Name() string {
	return p.config.Name
}

// Layout returns the grid and face layout of the project
func (p *Project) Layout() layout.Layout {
	return p.config.Layout
}

// Info returns the catalogue record describing the project
func (p *Project) Info() ProjectInfo {
	return ProjectInfo{
		ID:         p.id,
		Name:       p.config.Name,
		Path:       p.dir,
		Layout:     p.config.Layout,
		TileWidth:  p.config.TileWidth,
		TileHeight: p.config.TileHeight,
	}
}

// Grid returns a copy of the grid
func (p *Project) Grid() *image.NRGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return grid.Clone(p.grid)
}

// Faces returns copies of the faces in layout order
func (p *Project) Faces() []*image.NRGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	faces := make([]*image.NRGBA, len(p.faces))
	for i, f := range p.faces {
		faces[i] = grid.Clone(f)
	}
	return faces
}

func fileExists(file string) (bool, error) {
	_, err := os.Stat(file)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func missing(file string) error {
	return fmt.Errorf("%w: %s", layout.ErrMissingAsset, file)
}
