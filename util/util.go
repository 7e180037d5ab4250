package labutil

import (
	"fmt"
	"os"
	"path"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Name of the environment variable holding the logging level.
const LogLevelEnvVar = "LABGEN_LOG_LEVEL"

// Setups the logger: the text formatter with the caller location and the
// level taken from the LABGEN_LOG_LEVEL environment variable. An unknown
// level is reported and the INFO level is used.
func SetupLogging() {
	log.SetOutput(os.Stdout)
	log.SetReportCaller(true)
	log.SetFormatter(&log.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			// Grab filename and line of current frame and add it to log entry
			_, filename := path.Split(f.File)
			return "", fmt.Sprintf("%20v:%-5d", filename, f.Line)
		},
	})

	level, err := ParseLogLevel(os.Getenv(LogLevelEnvVar))
	if err != nil {
		log.WithError(err).Warn("Using the INFO logging level")
	}
	log.SetLevel(level)
}

// Converts the level name to the logrus level. An empty name means INFO.
// WARN is accepted as an alias of WARNING.
func ParseLogLevel(name string) (log.Level, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(name)
	if err != nil {
		return log.InfoLevel, errors.Wrapf(err, "invalid %s value", LogLevelEnvVar)
	}
	return level, nil
}
