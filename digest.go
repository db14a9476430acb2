package infinitycard

import (
	"crypto/sha1"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Digest returns the SHA-1 of the contents of file as upper-case hex. It is
// used to tell whether a file has changed since the project last wrote it.
func Digest(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	if _, err = io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%X", h.Sum(nil)), nil
}

// assets returns the files making up a project laid out with count faces
func assets(count int) []string {
	names := make([]string, 0, count+1)
	names = append(names, GridFilename)
	for i := 0; i < count; i++ {
		names = append(names, FaceFilename(i))
	}
	return names
}

// digests returns the digest of every asset present in dir
func digests(dir string, count int) (map[string]string, error) {
	sums := make(map[string]string, count+1)
	for _, name := range assets(count) {
		sum, err := Digest(filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		sums[name] = sum
	}
	return sums, nil
}

// Assets returns the absolute paths of the grid and face files
func (p *Project) Assets() []string {
	names := assets(p.config.Layout.Len())
	for i, name := range names {
		names[i] = p.path(name)
	}
	return names
}
