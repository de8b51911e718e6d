package xdg

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirsHonorEnvironment(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_STATE_HOME", "/state")

	dir, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/cfg", AppName), dir)

	file, err := ConfigFile()
	require.NoError(t, err)
	assert.Equal(t, "/cfg/composewait/config.toml", file)

	db, err := HistoryDB()
	require.NoError(t, err)
	assert.Equal(t, "/state/composewait/history.db", db)
}

func TestDirsFallBackToHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", "/home/ci")

	dir, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/home/ci/.config/composewait", dir)

	dir, err = StateDir()
	require.NoError(t, err)
	assert.Equal(t, "/home/ci/.local/state/composewait", dir)
}
