package labutil

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// Test that the logging levels are parsed case-insensitively.
func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("DEBUG")
	require.NoError(t, err)
	require.Equal(t, log.DebugLevel, level)

	level, err = ParseLogLevel("warn")
	require.NoError(t, err)
	require.Equal(t, log.WarnLevel, level)

	level, err = ParseLogLevel("")
	require.NoError(t, err)
	require.Equal(t, log.InfoLevel, level)
}

// Test that an unknown level falls back to INFO with an error.
func TestParseLogLevelInvalid(t *testing.T) {
	level, err := ParseLogLevel("LOUD")
	require.ErrorContains(t, err, "invalid LABGEN_LOG_LEVEL value")
	require.Equal(t, log.InfoLevel, level)
}

// Test that the logging setup applies the level from the environment.
func TestSetupLogging(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "ERROR")
	defer log.SetLevel(log.InfoLevel)

	SetupLogging()

	require.Equal(t, log.ErrorLevel, log.GetLevel())
}
