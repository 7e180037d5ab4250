package testutil

import (
	"io"
	"os"
	"strings"

	errors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Captures the standard output, including the log output, and the
// standard error produced by the function. The pipes are drained while
// the function runs, so a large output does not block it.
func CaptureOutput(f func()) (stdout []byte, stderr []byte, err error) {
	outReader, outWriter, err := os.Pipe()
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot create stdout pipe")
	}
	errReader, errWriter, err := os.Pipe()
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot create stderr pipe")
	}

	originalStdout := os.Stdout
	originalStderr := os.Stderr
	originalLogOutput := logrus.StandardLogger().Out
	os.Stdout = outWriter
	os.Stderr = errWriter
	logrus.StandardLogger().SetOutput(outWriter)
	defer func() {
		os.Stdout = originalStdout
		os.Stderr = originalStderr
		logrus.StandardLogger().SetOutput(originalLogOutput)
	}()

	type result struct {
		content []byte
		err     error
	}
	drain := func(reader io.Reader) <-chan result {
		ch := make(chan result, 1)
		go func() {
			content, err := io.ReadAll(reader)
			ch <- result{content, err}
		}()
		return ch
	}
	outCh := drain(outReader)
	errCh := drain(errReader)

	f()

	outWriter.Close()
	errWriter.Close()

	out := <-outCh
	if out.err != nil {
		return nil, nil, errors.Wrap(out.err, "cannot read stdout")
	}
	errOut := <-errCh
	if errOut.err != nil {
		return nil, nil, errors.Wrap(errOut.err, "cannot read stderr")
	}
	return out.content, errOut.content, nil
}

// Allows reverting the changes in the environment variables to a previous
// state. It remembers the current environment variables and returns a function
// that must be called to restore these values.
func CreateEnvironmentRestorePoint() func() {
	originalEnv := os.Environ()

	return func() {
		originalEnvDict := make(map[string]string, len(originalEnv))
		for _, pair := range originalEnv {
			key, value, _ := strings.Cut(pair, "=")
			originalEnvDict[key] = value
		}

		actualEnv := os.Environ()
		actualKeys := make(map[string]bool, len(actualEnv))
		for _, actualPair := range actualEnv {
			actualKey, actualValue, _ := strings.Cut(actualPair, "=")
			actualKeys[actualKey] = true
			originalValue, exist := originalEnvDict[actualKey]

			if !exist {
				// Environment variable was added.
				os.Unsetenv(actualKey)
			} else if actualValue != originalValue {
				// Environment variable was changed.
				os.Setenv(actualKey, originalValue)
			}
		}

		for originalKey, originalValue := range originalEnvDict {
			if _, exist := actualKeys[originalKey]; !exist {
				// Environment variable was removed.
				os.Setenv(originalKey, originalValue)
			}
		}
	}
}

// Allows reverting the changes in the os.Args variables to a previous
// state. It remembers the current os.Args and returns a function
// that must be called to restore these values.
func CreateOsArgsRestorePoint() func() {
	original := os.Args
	return func() {
		os.Args = original
	}
}
