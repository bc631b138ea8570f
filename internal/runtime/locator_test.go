package runtime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// touch creates an empty mode-0755 file at path.
func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
}

func TestResolve_BareNameAllowList(t *testing.T) {
	t.Parallel()

	got, err := Resolve("python3")
	require.NoError(t, err)
	require.Equal(t, "python3", got)

	_, err = Resolve("ruby")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestResolve_EmptyHint(t *testing.T) {
	t.Parallel()

	_, err := Resolve("")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestResolve_DirectExecutablePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	exe := filepath.Join(dir, "python3.11")
	touch(t, exe)

	got, err := Resolve(exe)
	require.NoError(t, err)
	require.Equal(t, exe, got)
}

func TestResolve_DirectFileWrongIdentity(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	exe := filepath.Join(dir, "node")
	touch(t, exe)

	_, err := Resolve(exe)
	var invalid *InvalidPathError
	require.ErrorAs(t, err, &invalid)
	require.Contains(t, err.Error(), "node")
}

func TestResolve_MissingPath(t *testing.T) {
	t.Parallel()

	_, err := Resolve(filepath.Join(t.TempDir(), "missing", "python3"))
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestResolve_BinDirectoryDirectly(t *testing.T) {
	t.Parallel()

	bin := filepath.Join(t.TempDir(), "bin")
	touch(t, filepath.Join(bin, "python3"))

	got, err := Resolve(bin)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(bin, "python3"), got)
}

func TestResolve_VenvRoot(t *testing.T) {
	t.Parallel()

	venv := filepath.Join(t.TempDir(), ".venv")
	touch(t, filepath.Join(venv, "bin", "python3"))

	got, err := Resolve(venv)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(venv, "bin", "python3"), got)
}

func TestResolve_PrefersPrimaryName(t *testing.T) {
	t.Parallel()

	bin := filepath.Join(t.TempDir(), "bin")
	touch(t, filepath.Join(bin, "python"))
	touch(t, filepath.Join(bin, "python3"))

	got, err := Resolve(bin)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(bin, "python3"), got)
}

func TestResolve_FallsBackToSecondaryName(t *testing.T) {
	t.Parallel()

	bin := filepath.Join(t.TempDir(), "bin")
	touch(t, filepath.Join(bin, "python"))

	got, err := Resolve(bin)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(bin, "python"), got)
}

func TestResolve_DirectoryWithoutInterpreter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "README"))

	_, err := Resolve(dir)
	var notFoundExe *ExecutableNotFoundError
	require.ErrorAs(t, err, &notFoundExe)
	require.Contains(t, err.Error(), "python3")
	require.Contains(t, err.Error(), "python")
}
