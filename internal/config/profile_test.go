package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FullProfile(t *testing.T) {
	t.Parallel()

	path := writeProfile(t, `
python          = ".venv"
work_dir        = "/tmp/project"
kernel_name     = "python3"
base_port       = 9200
startup_timeout = "90s"
notebook        = "Analysis"
block           = "blk-1"
snapshot        = true

inputs = {
  city    = "Oslo"
  n       = 3
  enabled = true
  tags    = ["a", "b"]
  nested  = { x = 1.5 }
}
`)

	p, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ".venv", p.Python)
	require.Equal(t, "/tmp/project", p.WorkDir)
	require.Equal(t, 9200, p.BasePort)
	require.Equal(t, "Analysis", p.Notebook)
	require.Equal(t, "blk-1", p.Block)
	require.True(t, p.Snapshot)

	timeout, err := p.StartupTimeoutDuration()
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, timeout)

	inputs, err := p.Inputs()
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"city":    "Oslo",
		"n":       float64(3),
		"enabled": true,
		"tags":    []any{"a", "b"},
		"nested":  map[string]any{"x": 1.5},
	}, inputs)
}

func TestLoad_EmptyProfile(t *testing.T) {
	t.Parallel()

	p, err := Load(writeProfile(t, ""))
	require.NoError(t, err)

	inputs, err := p.Inputs()
	require.NoError(t, err)
	require.Nil(t, inputs)

	timeout, err := p.StartupTimeoutDuration()
	require.NoError(t, err)
	require.Zero(t, timeout)
}

func TestLoad_InvalidHCL(t *testing.T) {
	t.Parallel()

	_, err := Load(writeProfile(t, `python = `))
	require.Error(t, err)
}

func TestStartupTimeoutDuration_Invalid(t *testing.T) {
	t.Parallel()

	p := &Profile{StartupTimeout: "ninety seconds"}
	_, err := p.StartupTimeoutDuration()
	require.Error(t, err)
}

func TestInputs_NonObject(t *testing.T) {
	t.Parallel()

	p, err := Load(writeProfile(t, `inputs = "not-an-object"`))
	require.NoError(t, err)

	_, err = p.Inputs()
	require.Error(t, err)
}
