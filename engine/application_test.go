package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadApplicationConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ember.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
name = "Test App"
log_level = "debug"
target_fps = 144
physics_rate = 240.0
`), 0o644))

	cfg, err := LoadApplicationConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Test App", cfg.Name)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 144, cfg.TargetFPS)
	assert.Equal(t, 240.0, cfg.PhysicsRate)

	// unset fields keep their defaults
	assert.Equal(t, 4, cfg.MaxPhysicsSteps)
	assert.Equal(t, uint32(1280), cfg.StartWidth)
}

func TestLoadApplicationConfigMissingFile(t *testing.T) {
	_, err := LoadApplicationConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadApplicationConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ember.toml")
	require.NoError(t, os.WriteFile(path, []byte("name = ["), 0o644))

	_, err := LoadApplicationConfig(path)
	assert.Error(t, err)
}
