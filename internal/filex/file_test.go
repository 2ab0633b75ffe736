package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureParentDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureParentDir(filepath.Join(".studioportal", "state.db"))
	require.NoError(t, err)

	wantDir := filepath.Join(tmp, ".studioportal")
	require.Equal(t, filepath.Join(wantDir, "state.db"), got)

	fi, err := os.Stat(wantDir)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}

func TestEnsureParentDir_Idempotent(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "a", "b", "state.db")

	first, err := EnsureParentDir(path)
	require.NoError(t, err)
	second, err := EnsureParentDir(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEnsureParentDir_FailsIfFileBlocksDirectory(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "state"), []byte("x"), 0o600))

	_, err := EnsureParentDir(filepath.Join(tmp, "state", "state.db"))
	require.Error(t, err)
}

func TestReadLimited(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "avatar.png")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o600))

	data, err := ReadLimited(path, 10)
	require.NoError(t, err)
	require.Equal(t, "0123456789", string(data))

	_, err = ReadLimited(path, 9)
	require.ErrorContains(t, err, "limit is 9")

	_, err = ReadLimited(tmp, 0)
	require.ErrorContains(t, err, "is a directory")

	_, err = ReadLimited(filepath.Join(tmp, "missing"), 0)
	require.ErrorIs(t, err, os.ErrNotExist)
}
