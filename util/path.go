package labutil

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// Lists all regular file paths below a given directory. The paths are
// relative to the directory, use forward slashes and are sorted
// lexicographically.
func ListFilePaths(directory string) ([]string, error) {
	files := []string{}

	err := filepath.WalkDir(directory, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		relative, err := filepath.Rel(directory, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(relative))
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cannot list directory: %s", directory)
	}

	sort.Strings(files)
	return files, nil
}
