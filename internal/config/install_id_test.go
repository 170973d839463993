package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallID_GeneratesAndPersists(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(Options{})
	require.NoError(t, err)
	id, err := cfg.InstallID()
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err, "InstallID = %q, want a UUID", id)

	data, err := os.ReadFile(filepath.Join(home, ".local", "state", "asciinema", "install-id"))
	require.NoError(t, err)
	assert.Equal(t, id+"\n", string(data))

	again, err := Load(Options{})
	require.NoError(t, err)
	got, err := again.InstallID()
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestInstallID_ReadsLegacyLocation(t *testing.T) {
	home := isolate(t)

	legacyDir := filepath.Join(home, ".config", "asciinema")
	require.NoError(t, os.MkdirAll(legacyDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(legacyDir, "install-id"), []byte("  legacy-id \n"), 0o600))

	cfg, err := Load(Options{})
	require.NoError(t, err)
	id, err := cfg.InstallID()
	require.NoError(t, err)
	assert.Equal(t, "legacy-id", id)

	_, err = os.Stat(cfg.InstallIDPath())
	assert.ErrorIs(t, err, os.ErrNotExist, "state install-id should not be written when a legacy id exists")
}

func TestInstallID_StateDirWinsOverLegacy(t *testing.T) {
	isolate(t)
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)

	require.NoError(t, os.MkdirAll(filepath.Join(state, "asciinema"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(state, "asciinema", "install-id"), []byte("state-id"), 0o600))

	cfg, err := Load(Options{})
	require.NoError(t, err)
	id, err := cfg.InstallID()
	require.NoError(t, err)
	assert.Equal(t, "state-id", id)
}

func TestInstallID_SaveFailureIsReported(t *testing.T) {
	isolate(t)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	cfg := &Config{stateDir: filepath.Join(blocker, "asciinema"), configDir: t.TempDir()}
	_, err := cfg.InstallID()
	assert.Error(t, err)
}
