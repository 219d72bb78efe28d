package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFile)
	require.NoError(t, os.WriteFile(path, []byte(`
output_dir = "build"
manifest = "build/runs.db"
receive_base = 16384
jobs = 4
`), 0o644))

	s, err := LoadSettings(path, false)
	require.NoError(t, err)
	assert.Equal(t, Settings{OutputDir: "build", Manifest: "build/runs.db", ReceiveBase: 0x4000, Jobs: 4}, s)
}

func TestLoadSettings_FillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFile)
	require.NoError(t, os.WriteFile(path, []byte("jobs = 0\n"), 0o644))

	s, err := LoadSettings(path, false)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Jobs)
	assert.Equal(t, int64(DefaultReceiveBase), s.ReceiveBase)
	assert.Equal(t, "out", s.OutputDir)
}

func TestLoadSettings_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFile)

	s, err := LoadSettings(path, true)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)

	_, err = LoadSettings(path, false)
	assert.Error(t, err)
}

func TestLoadSettings_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFile)
	require.NoError(t, os.WriteFile(path, []byte("jobs = [\n"), 0o644))

	_, err := LoadSettings(path, true)
	assert.ErrorContains(t, err, "parsing settings")
}
