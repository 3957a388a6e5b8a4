package config

import (
	"os"
	"path/filepath"
	"testing"

	yaml "github.com/jesseduffield/yaml"
	"github.com/stretchr/testify/assert"
)

func TestNewAppConfigCreatesConfigDirAndDefaults(t *testing.T) {
	t.Setenv("CONFIG_DIR", t.TempDir())

	conf, err := NewAppConfig("respire-driver", "1.0.0", "abcdef", "2026-08-01", "source", false)
	assert.NoError(t, err)
	assert.Equal(t, ".respire-out", conf.UserConfig.OutDirName)
	assert.Equal(t, "info", conf.UserConfig.LogLevel)
	assert.FileExists(t, conf.ConfigFilename())
}

func TestLoadUserConfigMergesOverrideOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	content := []byte("jobs: 4\ngui:\n  color: false\n")
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), content, 0o644))

	defaults := GetDefaultConfig()
	merged, err := loadUserConfig(dir, &defaults)
	assert.NoError(t, err)

	assert.Equal(t, 4, merged.Jobs)
	assert.False(t, merged.Gui.Color)
	// Sibling Gui fields not present in the override survive the merge.
	assert.Equal(t, "green", merged.Gui.StatusColors.Done)
	assert.Equal(t, ".respire-out", merged.OutDirName)
}

func TestWriteToUserConfigRoundTrips(t *testing.T) {
	t.Setenv("CONFIG_DIR", t.TempDir())
	conf, err := NewAppConfig("respire-driver", "1.0.0", "abcdef", "2026-08-01", "source", false)
	assert.NoError(t, err)

	assert.NoError(t, conf.WriteToUserConfig(func(uc *UserConfig) error {
		uc.Jobs = 8
		return nil
	}))

	file, err := os.Open(conf.ConfigFilename())
	assert.NoError(t, err)
	defer file.Close()

	var got UserConfig
	assert.NoError(t, yaml.NewDecoder(file).Decode(&got))
	assert.Equal(t, 8, got.Jobs)
}
