package labutil

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Defines an interface that accepts the environment variables.
type EnvironmentVariableSetter interface {
	Set(key, value string) error
}

// Sets the variables in the environment of the current process.
type processEnvironmentVariableSetter struct{}

// Creates a setter exporting the variables to the current process so
// the CLI flags bound to environment variables can pick them up.
func NewProcessEnvironmentVariableSetter() EnvironmentVariableSetter {
	return &processEnvironmentVariableSetter{}
}

// Implements the EnvironmentVariableSetter interface.
func (s *processEnvironmentVariableSetter) Set(key, value string) error {
	return errors.WithStack(os.Setenv(key, value))
}

// Single entry of the environment file.
type environmentEntry struct {
	key   string
	value string
}

// Loads all entries from the environment file into the setter object.
// The entries are applied in the order they appear in the file.
func LoadEnvironmentFileToSetter(path string, setter EnvironmentVariableSetter) error {
	entries, err := loadEnvironmentFile(path)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err = setter.Set(entry.key, entry.value); err != nil {
			return errors.WithMessagef(err, "cannot set value for key: '%s'", entry.key)
		}
	}
	return nil
}

// Loads all entries from the environment file.
func loadEnvironmentFile(path string) ([]environmentEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open the '%s' environment file", path)
	}
	defer file.Close()
	return loadEnvironmentEntries(file)
}

// Loads all entries from a given reader. A later entry with the same key
// overrides the value of the earlier one but keeps its position.
func loadEnvironmentEntries(reader io.Reader) ([]environmentEntry, error) {
	var entries []environmentEntry
	positions := make(map[string]int)
	scanner := bufio.NewScanner(reader)

	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		key, value, err := loadEnvironmentLine(scanner.Text())
		if err != nil {
			return nil, errors.WithMessagef(err, "invalid line %d of environment file", lineIdx)
		}
		if key == "" {
			continue
		}
		if position, ok := positions[key]; ok {
			entries[position].value = value
			continue
		}
		positions[key] = len(entries)
		entries = append(entries, environmentEntry{key: key, value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	return entries, nil
}

// Parses a line of the environment file. Empty lines and comments
// return an empty key.
func loadEnvironmentLine(line string) (string, string, error) {
	line = strings.TrimSpace(line)

	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", nil
	}

	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", errors.Errorf("line must contain the key and value separated by the '=' sign")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", errors.Errorf("key cannot be empty")
	}

	return key, strings.TrimSpace(value), nil
}
