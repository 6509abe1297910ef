package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	sc := cfg.StoreConfig()
	assert.Equal(t, 10*time.Second, sc.WindowImmediate)
	assert.Equal(t, 30*time.Second, sc.WindowRecent)
	assert.Equal(t, 300*time.Second, sc.WindowBackground)
	assert.Equal(t, time.Second, cfg.ReflexInterval())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Energy.Max, cfg.Energy.Max)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "director.yaml")
	body := `
agent_name: peeper
energy:
  max: 50
  regen_rate: 2
adaptive:
  base_threshold: 0.85
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "peeper", cfg.AgentName)
	assert.Equal(t, 50.0, cfg.Energy.Max)
	assert.Equal(t, 2.0, cfg.Energy.RegenRate)
	assert.Equal(t, 0.85, cfg.AdaptiveConfig().BaseThreshold)

	// Untouched sections keep their defaults.
	assert.Equal(t, Default().Memory.RAMCap, cfg.Memory.RAMCap)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DIRECTOR_AGENT_NAME", "scout")
	t.Setenv("DIRECTOR_DATA_DIR", "/var/lib/director")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "scout", cfg.AgentName)
	assert.Equal(t, filepath.Join("/var/lib/director", "archive.db"), cfg.ArchivePath())
	assert.Equal(t, filepath.Join("/var/lib/director", "profiles"), cfg.ProfileDir())
}

func TestValidateRejectsBadWindows(t *testing.T) {
	cfg := Default()
	cfg.Store.WindowRecentSeconds = cfg.Store.WindowImmediateSeconds
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window_recent_seconds")
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg := Default()
	cfg.Adaptive.BaseThreshold = 1.5
	require.Error(t, cfg.Validate())
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agent_name: [unclosed"), 0644))
	_, err := Load(path)
	require.Error(t, err)
}
