package infinitycard

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bodgit/infinitycard/layout"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// CardDB catalogues projects and the digests of the files each project last
// wrote, so edits made outside the tool can be spotted
type CardDB struct {
	db *sql.DB
}

// ProjectInfo is the catalogue record of a project
type ProjectInfo struct {
	ID         string
	Name       string
	Path       string
	Layout     layout.Layout
	TileWidth  int
	TileHeight int
	Updated    time.Time
}

func NewCardDB(file string) (*CardDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS project (id TEXT PRIMARY KEY NOT NULL, name TEXT NOT NULL, path TEXT NOT NULL UNIQUE, grid_order TEXT NOT NULL, face_order TEXT NOT NULL, tile_width INTEGER NOT NULL, tile_height INTEGER NOT NULL, updated INTEGER NOT NULL)"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS asset (project_id TEXT NOT NULL, name TEXT NOT NULL, sha1 TEXT NOT NULL, UNIQUE(project_id, name), FOREIGN KEY(project_id) REFERENCES project(id) ON DELETE CASCADE)"); err != nil {
		return nil, err
	}

	return &CardDB{
		db: db,
	}, nil
}

func (db *CardDB) Close() error {
	return db.db.Close()
}

// AddProject records the project, keyed by path, and returns its id. A
// project already catalogued keeps its id and has its layout refreshed.
func (db *CardDB) AddProject(p ProjectInfo) (string, error) {
	now := time.Now().Unix()
	faces := strings.Join(p.Layout.Strings(), " ")

	var id string
	switch err := db.db.QueryRow("SELECT id FROM project WHERE path = ?", p.Path).Scan(&id); err {
	case sql.ErrNoRows:
		id = uuid.New().String()
		if _, err := db.db.Exec("INSERT INTO project (id, name, path, grid_order, face_order, tile_width, tile_height, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", id, p.Name, p.Path, string(p.Layout.Grid), faces, p.TileWidth, p.TileHeight, now); err != nil {
			return "", err
		}
		return id, nil
	case nil:
		if _, err := db.db.Exec("UPDATE project SET name = ?, grid_order = ?, face_order = ?, tile_width = ?, tile_height = ?, updated = ? WHERE id = ?", p.Name, string(p.Layout.Grid), faces, p.TileWidth, p.TileHeight, now, id); err != nil {
			return "", err
		}
		return id, nil
	default:
		return "", err
	}
}

// FindProject returns the project catalogued at path, or nil
func (db *CardDB) FindProject(path string) (*ProjectInfo, error) {
	row := db.db.QueryRow("SELECT id, name, path, grid_order, face_order, tile_width, tile_height, updated FROM project WHERE path = ?", path)
	p, err := scanProject(row)
	switch err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return p, nil
	default:
		return nil, err
	}
}

// Projects returns every catalogued project ordered by name
func (db *CardDB) Projects() ([]ProjectInfo, error) {
	rows, err := db.db.Query("SELECT id, name, path, grid_order, face_order, tile_width, tile_height, updated FROM project ORDER BY name, path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []ProjectInfo
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// RemoveProject forgets the project at path along with its asset digests
func (db *CardDB) RemoveProject(path string) error {
	if _, err := db.db.Exec("DELETE FROM project WHERE path = ?", path); err != nil {
		return err
	}
	return nil
}

// RecordAssets replaces the recorded digests of the project's files
func (db *CardDB) RecordAssets(id string, sums map[string]string) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM asset WHERE project_id = ?", id); err != nil {
		return err
	}
	for name, sum := range sums {
		if _, err := tx.Exec("INSERT INTO asset (project_id, name, sha1) VALUES (?, ?, ?)", id, name, sum); err != nil {
			return err
		}
	}
	if _, err := tx.Exec("UPDATE project SET updated = ? WHERE id = ?", time.Now().Unix(), id); err != nil {
		return err
	}

	return tx.Commit()
}

// Assets returns the recorded digest of each of the project's files
func (db *CardDB) Assets(id string) (map[string]string, error) {
	rows, err := db.db.Query("SELECT name, sha1 FROM asset WHERE project_id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[string]string)
	for rows.Next() {
		var name, sum string
		if err := rows.Scan(&name, &sum); err != nil {
			return nil, err
		}
		sums[name] = sum
	}
	return sums, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(s scanner) (*ProjectInfo, error) {
	var p ProjectInfo
	var grid, faces string
	var updated int64
	if err := s.Scan(&p.ID, &p.Name, &p.Path, &grid, &faces, &p.TileWidth, &p.TileHeight, &updated); err != nil {
		return nil, err
	}
	p.Layout = layout.New(grid, strings.Fields(faces)...)
	p.Updated = time.Unix(updated, 0)
	return &p, nil
}
