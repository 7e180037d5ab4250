package labfs

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sciro24/Kathara-labGenerator/render"
	"github.com/sciro24/Kathara-labGenerator/testutil"
)

// Returns a small set of lab files.
func sampleArtifacts() []*render.Artifact {
	return []*render.Artifact{
		{Path: "lab.conf", Content: "r1[0]=A\nr1[image]=\"kathara/frr\"\n"},
		{Path: "r1.startup", Content: "ip address add 10.0.0.1/30 dev eth0\n", Executable: true},
		{Path: "r1/etc/frr/daemons", Content: "zebra=yes\n"},
	}
}

// Test that the files are written with the directories and modes.
func TestDirWriterWrite(t *testing.T) {
	sb := testutil.NewSandbox()
	defer sb.Close()

	writer := NewDirWriter(sb.Path("lab"), false)
	require.NoError(t, writer.Write(sampleArtifacts()))

	content, err := sb.Read("lab/r1/etc/frr/daemons")
	require.NoError(t, err)
	require.Equal(t, "zebra=yes\n", content)

	info, err := os.Stat(sb.Path("lab/r1.startup"))
	require.NoError(t, err)
	require.EqualValues(t, 0o755, info.Mode().Perm())

	info, err = os.Stat(sb.Path("lab/lab.conf"))
	require.NoError(t, err)
	require.EqualValues(t, 0o644, info.Mode().Perm())
}

// Test that the previous lab directory is removed only when cleaning.
func TestDirWriterClean(t *testing.T) {
	sb := testutil.NewSandbox()
	defer sb.Close()
	_, err := sb.Write("lab/stale.startup", "echo stale\n")
	require.NoError(t, err)

	require.NoError(t, NewDirWriter(sb.Path("lab"), false).Write(sampleArtifacts()))
	_, err = os.Stat(sb.Path("lab/stale.startup"))
	require.NoError(t, err)

	require.NoError(t, NewDirWriter(sb.Path("lab"), true).Write(sampleArtifacts()))
	_, err = os.Stat(sb.Path("lab/stale.startup"))
	require.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(sb.Path("lab/lab.conf"))
	require.NoError(t, err)
}

// Test that rewriting a file restores its mode.
func TestDirWriterRestoresMode(t *testing.T) {
	sb := testutil.NewSandbox()
	defer sb.Close()
	path, err := sb.Write("lab/r1.startup", "")
	require.NoError(t, err)
	require.NoError(t, os.Chmod(path, 0o600))

	require.NoError(t, NewDirWriter(sb.Path("lab"), false).Write(sampleArtifacts()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.EqualValues(t, 0o755, info.Mode().Perm())
}

// Test that the writer refuses the unsafe directories and paths.
func TestDirWriterInvalid(t *testing.T) {
	require.ErrorContains(t, NewDirWriter("", true).Write(nil), "invalid lab directory")
	require.ErrorContains(t, NewDirWriter("/", true).Write(nil), "invalid lab directory")

	sb := testutil.NewSandbox()
	defer sb.Close()
	err := NewDirWriter(sb.Path("lab"), false).Write([]*render.Artifact{{Path: "../escape"}})
	require.ErrorContains(t, err, "outside of the lab directory")
}
