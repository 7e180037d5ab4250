package labfs

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/sciro24/Kathara-labGenerator/render"
	labutil "github.com/sciro24/Kathara-labGenerator/util"
)

// Kind of a difference between the lab directory and the rendered files.
type DifferenceKind string

// Supported difference kinds.
const (
	// The rendered file is not in the lab directory.
	DifferenceMissing DifferenceKind = "missing"
	// The file content or mode differs from the rendered file.
	DifferenceChanged DifferenceKind = "changed"
	// The file in the lab directory is not rendered.
	DifferenceUnexpected DifferenceKind = "unexpected"
)

// File differing between the lab directory and the rendered files.
type Difference struct {
	Path string
	Kind DifferenceKind
	// Changed lines prefixed with "-" for the lab directory and "+" for
	// the rendered file. It is empty unless the file changed.
	Diff string
}

// File of an existing lab.
type labFile struct {
	content string
	mode    os.FileMode
}

// Compares the lab directory with the rendered files. The differences
// are sorted by path. An empty result means the directory holds exactly
// the rendered files.
func Compare(root string, artifacts []*render.Artifact) ([]Difference, error) {
	var files labutil.FileManager
	exists, err := files.IsExist(root)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.Errorf("lab directory %s does not exist", root)
	}
	paths, err := labutil.ListFilePaths(root)
	if err != nil {
		return nil, err
	}

	actual := make(map[string]labFile, len(paths))
	for _, relativePath := range paths {
		path := filepath.Join(root, filepath.FromSlash(relativePath))
		content, err := files.Read(path)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot stat the file: %s", path)
		}
		actual[relativePath] = labFile{content: string(content), mode: info.Mode().Perm()}
	}
	return compareFiles(actual, artifacts), nil
}

// Compares the lab archive with the rendered files the same way as the
// lab directory.
func CompareArchive(archivePath string, artifacts []*render.Artifact) ([]Difference, error) {
	archived, err := ReadArchive(archivePath)
	if err != nil {
		return nil, err
	}
	actual := make(map[string]labFile, len(archived))
	for _, artifact := range archived {
		actual[artifact.Path] = labFile{content: artifact.Content, mode: artifactMode(artifact)}
	}
	return compareFiles(actual, artifacts), nil
}

// Compares the files of an existing lab with the rendered files.
func compareFiles(actual map[string]labFile, artifacts []*render.Artifact) []Difference {
	var differences []Difference
	expected := make(map[string]bool)
	for _, artifact := range artifacts {
		expected[artifact.Path] = true
		file, ok := actual[artifact.Path]
		if !ok {
			differences = append(differences, Difference{Path: artifact.Path, Kind: DifferenceMissing})
			continue
		}
		diff := lineDiff(file.content, artifact.Content)
		if want := artifactMode(artifact); file.mode&0o111 != want&0o111 {
			diff = fmt.Sprintf("-mode %04o\n+mode %04o\n", file.mode, want) + diff
		}
		if diff != "" {
			differences = append(differences, Difference{Path: artifact.Path, Kind: DifferenceChanged, Diff: diff})
		}
	}
	for path := range actual {
		if !expected[path] {
			differences = append(differences, Difference{Path: path, Kind: DifferenceUnexpected})
		}
	}

	slices.SortFunc(differences, func(a, b Difference) int {
		return strings.Compare(a.Path, b.Path)
	})
	return differences
}

// Returns the lines removed from and added to the actual text to get the
// expected text.
func lineDiff(actual, expected string) string {
	if actual == expected {
		return ""
	}
	dmp := diffmatchpatch.New()
	actualChars, expectedChars, lines := dmp.DiffLinesToChars(actual, expected)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(actualChars, expectedChars, false), lines)

	var builder strings.Builder
	for _, diff := range diffs {
		var prefix string
		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}
		for _, line := range strings.SplitAfter(diff.Text, "\n") {
			if line == "" {
				continue
			}
			builder.WriteString(prefix)
			builder.WriteString(strings.TrimSuffix(line, "\n"))
			builder.WriteString("\n")
		}
	}
	return builder.String()
}
