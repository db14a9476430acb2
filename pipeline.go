package infinitycard

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
)

const scanWorkers = 4

func isProject(dir string) (bool, error) {
	return fileExists(filepath.Join(dir, GridFilename))
}

func findDirectories(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(dir string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' && dir != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a directory
			if !info.Mode().IsDir() {
				return nil
			}

			select {
			case out <- dir:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (db *CardDB) directoryWorker(ctx context.Context, in <-chan string, logger *log.Logger) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for dir := range in {
			ok, err := isProject(dir)
			if err != nil {
				errc <- err
				return
			}
			if !ok {
				continue
			}

			fallback := DefaultConfig()
			fallback.Name = filepath.Base(dir)
			cfg, err := LoadConfig(dir, fallback)
			if err != nil {
				errc <- err
				return
			}

			known, err := db.FindProject(dir)
			if err != nil {
				errc <- err
				return
			}

			id, err := db.AddProject(ProjectInfo{
				Name:       cfg.Name,
				Path:       dir,
				Layout:     cfg.Layout,
				TileWidth:  cfg.TileWidth,
				TileHeight: cfg.TileHeight,
			})
			if err != nil {
				errc <- err
				return
			}

			// Only a newly found project has its files taken as the
			// baseline, otherwise edits would be hidden from Status
			if known != nil {
				logger.Printf("Refreshed \"%s\"\n", dir)
				continue
			}

			sums, err := digests(dir, cfg.Layout.Len())
			if err != nil {
				errc <- err
				return
			}
			if err := db.RecordAssets(id, sums); err != nil {
				errc <- err
				return
			}
			logger.Printf("Found \"%s\" with %d faces\n", dir, cfg.Layout.Len())
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks path and catalogues every project directory found beneath it
func (db *CardDB) Scan(path string, logger *log.Logger) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	dirs, errc, err := findDirectories(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < scanWorkers; i++ {
		errc, err := db.directoryWorker(ctx, dirs, logger)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
