package labutil

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Mode of the directories created for the written files.
const directoryMode os.FileMode = 0o755

// Wraps the file system operations used to read and write the lab
// files.
type FileManager struct{}

// Checks if the file or directory exists.
func (*FileManager) IsExist(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, errors.Wrapf(err, "cannot stat the file: %s", path)
	}
}

// Removes the file or the directory with its contents if it exists.
func (fm *FileManager) RemoveAllIfExist(path string) (bool, error) {
	ok, err := fm.IsExist(path)
	if err != nil || !ok {
		return false, err
	}
	if err = os.RemoveAll(path); err != nil {
		return false, errors.Wrapf(err, "cannot remove: %s", path)
	}
	return true, nil
}

// Returns the file content.
func (*FileManager) Read(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read the file: %s", path)
	}
	return content, nil
}

// Writes the file creating the missing parent directories. The mode is
// set also when the file already exists.
func (*FileManager) Write(path string, content []byte, mode os.FileMode) error {
	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, directoryMode); err != nil {
		return errors.Wrapf(err, "cannot create a directory tree: %s", directory)
	}
	if err := os.WriteFile(path, content, mode); err != nil {
		return errors.Wrapf(err, "cannot write the file: %s", path)
	}
	if err := os.Chmod(path, mode); err != nil {
		return errors.Wrapf(err, "cannot set the mode of the file: %s", path)
	}
	return nil
}
