package labfs

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/sciro24/Kathara-labGenerator/render"
	labutil "github.com/sciro24/Kathara-labGenerator/util"
)

// Modification time of the archived files. It is fixed so an unchanged
// lab always gives the same archive.
var archiveModTime = time.Unix(0, 0).UTC()

// Writes the lab files into a gzip-compressed TAR archive. The file
// paths inside the archive are relative to the lab directory.
type ArchiveWriter struct {
	Path  string
	files labutil.FileManager
}

var _ Writer = (*ArchiveWriter)(nil)

// Creates the writer of the lab archive.
func NewArchiveWriter(path string) *ArchiveWriter {
	return &ArchiveWriter{Path: path}
}

// Writes the archive replacing the previous one.
func (w *ArchiveWriter) Write(artifacts []*render.Artifact) error {
	var buffer bytes.Buffer
	if err := writeArchive(&buffer, artifacts); err != nil {
		return err
	}
	if err := w.files.Write(w.Path, buffer.Bytes(), fileMode); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"archive": w.Path,
		"files":   len(artifacts),
	}).Debug("Wrote lab archive")
	return nil
}

// Writes the artifacts as the TAR archive compressed with gzip.
func writeArchive(target io.Writer, artifacts []*render.Artifact) error {
	gzipWriter := gzip.NewWriter(target)
	tarWriter := tar.NewWriter(gzipWriter)

	for _, artifact := range artifacts {
		if !isLocalPath(artifact.Path) {
			return errors.Errorf("file %s is outside of the lab directory", artifact.Path)
		}
		header := &tar.Header{
			Typeflag: tar.TypeReg,
			Name:     artifact.Path,
			Size:     int64(len(artifact.Content)),
			Mode:     int64(artifactMode(artifact)),
			ModTime:  archiveModTime,
			Format:   tar.FormatPAX,
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			return errors.Wrap(err, "could not write header to TAR archive")
		}
		if _, err := io.WriteString(tarWriter, artifact.Content); err != nil {
			return errors.Wrapf(err, "could not add the file %s to TAR archive", artifact.Path)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return errors.Wrap(err, "could not close the TAR archive")
	}
	return errors.Wrap(gzipWriter.Close(), "could not close the gzip stream")
}

// Reads the lab files from the archive. The directories and other
// non-regular entries are skipped. The files are sorted by path.
func ReadArchive(archivePath string) ([]*render.Artifact, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open the lab archive %s", archivePath)
	}
	defer file.Close()
	return readArchive(file)
}

// Unpacks the gzip-compressed TAR stream.
func readArchive(source io.Reader) ([]*render.Artifact, error) {
	gzipReader, err := gzip.NewReader(source)
	if err != nil {
		return nil, errors.Wrap(err, "invalid lab archive")
	}
	defer gzipReader.Close()
	tarReader := tar.NewReader(gzipReader)

	var artifacts []*render.Artifact
	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "problem reading next header")
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		content, err := io.ReadAll(tarReader)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot read content of the archived file %s", header.Name)
		}
		artifacts = append(artifacts, &render.Artifact{
			Path:       path.Clean(header.Name),
			Content:    string(content),
			Executable: os.FileMode(header.Mode)&0o111 != 0,
		})
	}

	slices.SortFunc(artifacts, func(a, b *render.Artifact) int {
		return strings.Compare(a.Path, b.Path)
	})
	return artifacts, nil
}
