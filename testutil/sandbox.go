package testutil

import (
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Sandbox is a temporary directory for the files and directories
// created by the tests, e.g., the topology files and the generated labs.
// Each sandbox has its own, unique directory so two sandboxes never
// interfere.
type Sandbox struct {
	BasePath string
}

// Create a new sandbox. The sandbox is located in a temporary
// directory.
func NewSandbox() *Sandbox {
	dir, err := os.MkdirTemp("", "labgen_ut_*")
	if err != nil {
		log.Fatal(err)
	}
	return &Sandbox{BasePath: dir}
}

// Close sandbox and remove all its contents.
func (sb *Sandbox) Close() {
	os.RemoveAll(sb.BasePath)
}

// Returns the full path of the name without creating anything.
func (sb *Sandbox) Path(name string) string {
	return filepath.Join(sb.BasePath, filepath.FromSlash(name))
}

// Create parent directory in sandbox (and all missing directories
// above it if needed, similar to -p option in mkdir), create
// indicated file in this parent directory, and return a full path to
// this file.
func (sb *Sandbox) Join(name string) (string, error) {
	filePath := sb.Path(name)

	err := os.MkdirAll(filepath.Dir(filePath), 0o777)
	if err != nil {
		return "", err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	return filePath, nil
}

// Create indicated directory in sandbox and all parent directories
// and return a full path.
func (sb *Sandbox) JoinDir(name string) (string, error) {
	filePath := sb.Path(name)
	err := os.MkdirAll(filePath, 0o777)
	if err != nil {
		return "", err
	}
	return filePath, nil
}

// Create a file and write provided content to it.
func (sb *Sandbox) Write(name string, content string) (string, error) {
	filePath, err := sb.Join(name)
	if err != nil {
		return "", err
	}

	err = os.WriteFile(filePath, []byte(content), 0o600)
	if err != nil {
		return "", err
	}

	return filePath, nil
}

// Returns the content of the file in the sandbox.
func (sb *Sandbox) Read(name string) (string, error) {
	content, err := os.ReadFile(sb.Path(name))
	if err != nil {
		return "", err
	}
	return string(content), nil
}
