package labfs

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/sciro24/Kathara-labGenerator/render"
	labutil "github.com/sciro24/Kathara-labGenerator/util"
)

// File modes of the lab files.
const (
	fileMode       os.FileMode = 0o644
	executableMode os.FileMode = 0o755
)

// Stores the rendered lab files.
type Writer interface {
	Write(artifacts []*render.Artifact) error
}

// Writes the lab files into a directory on disk.
type DirWriter struct {
	// Lab directory.
	Root string
	// Removes the lab directory before writing so no stale files remain.
	Clean bool
	files labutil.FileManager
}

var _ Writer = (*DirWriter)(nil)

// Creates the writer of the lab directory.
func NewDirWriter(root string, clean bool) *DirWriter {
	return &DirWriter{Root: root, Clean: clean}
}

// Returns the mode of the artifact file.
func artifactMode(artifact *render.Artifact) os.FileMode {
	if artifact.Executable {
		return executableMode
	}
	return fileMode
}

// Checks that the slash-separated path stays within the lab directory.
func isLocalPath(path string) bool {
	return filepath.IsLocal(filepath.FromSlash(path))
}

// Writes the artifacts below the lab directory creating the missing
// directories. The startup scripts are made executable.
func (w *DirWriter) Write(artifacts []*render.Artifact) error {
	root := filepath.Clean(w.Root)
	if w.Root == "" || root == string(filepath.Separator) {
		return errors.Errorf("invalid lab directory '%s'", w.Root)
	}
	if w.Clean {
		removed, err := w.files.RemoveAllIfExist(root)
		if err != nil {
			return errors.WithMessage(err, "cannot clean the lab directory")
		}
		if removed {
			log.WithField("directory", root).Debug("Removed previous lab directory")
		}
	}

	for _, artifact := range artifacts {
		if !isLocalPath(artifact.Path) {
			return errors.Errorf("file %s is outside of the lab directory", artifact.Path)
		}
		path := filepath.Join(root, filepath.FromSlash(artifact.Path))
		if err := w.files.Write(path, []byte(artifact.Content), artifactMode(artifact)); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{
		"directory": root,
		"files":     len(artifacts),
	}).Debug("Wrote lab files")
	return nil
}
