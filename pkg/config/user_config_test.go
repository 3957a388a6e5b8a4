package config

import (
	"testing"

	yaml "github.com/jesseduffield/yaml"
	"github.com/stretchr/testify/assert"
)

func TestGetDefaultConfig(t *testing.T) {
	defaults := GetDefaultConfig()

	assert.Equal(t, 0, defaults.Jobs)
	assert.Equal(t, ".respire-out", defaults.OutDirName)
	assert.Equal(t, "info", defaults.LogLevel)
	assert.Equal(t, "auto", defaults.Language)
	assert.True(t, defaults.Gui.Color)
	assert.Equal(t, "green", defaults.Gui.StatusColors.Done)
	assert.Equal(t, "red", defaults.Gui.StatusColors.Failed)
}

func TestUserConfigYAMLUnmarshal(t *testing.T) {
	yamlContent := `
jobs: 4
outDirName: build
gui:
  color: false
  statusColors:
    failed: magenta
`
	var cfg UserConfig
	assert.NoError(t, yaml.Unmarshal([]byte(yamlContent), &cfg))

	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, "build", cfg.OutDirName)
	assert.False(t, cfg.Gui.Color)
	assert.Equal(t, "magenta", cfg.Gui.StatusColors.Failed)
	// Fields absent from the override are zero-valued at this layer;
	// loadUserConfig (app_config.go) is what backfills them via mergo.
	assert.Equal(t, "", cfg.Gui.StatusColors.Done)
}
