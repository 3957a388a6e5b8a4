// Package config handles respire's configuration: a compiled-in default
// UserConfig overlaid with whatever the user's config.yml sets, plus
// the AppConfig runtime values (version/commit/debug flag) passed down
// from respire-driver's main.
package config

import (
	"os"
	"path/filepath"

	"github.com/OpenPeeDeeP/xdg"
	yaml "github.com/jesseduffield/yaml"
)

// AppConfig contains the base configuration fields respire-driver uses;
// respire-engine and respire-subrespire do not load one.
type AppConfig struct {
	Debug       bool
	Version     string
	Commit      string
	BuildDate   string
	Name        string
	BuildSource string
	UserConfig  *UserConfig
	ConfigDir   string
}

// NewAppConfig loads (or creates) the on-disk user config and merges it
// onto the compiled-in defaults.
func NewAppConfig(name, version, commit, date, buildSource string, debuggingFlag bool) (*AppConfig, error) {
	configDir, err := findOrCreateConfigDir(name)
	if err != nil {
		return nil, err
	}

	userConfig, err := loadUserConfigWithDefaults(configDir)
	if err != nil {
		return nil, err
	}

	return &AppConfig{
		Name:        name,
		Version:     version,
		Commit:      commit,
		BuildDate:   date,
		Debug:       debuggingFlag || os.Getenv("DEBUG") == "TRUE",
		BuildSource: buildSource,
		UserConfig:  userConfig,
		ConfigDir:   configDir,
	}, nil
}

func configDir(projectName string) string {
	if envConfigDir := os.Getenv("CONFIG_DIR"); envConfigDir != "" {
		return envConfigDir
	}
	return xdg.New("", projectName).ConfigHome()
}

func findOrCreateConfigDir(projectName string) (string, error) {
	folder := configDir(projectName)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", err
	}
	return folder, nil
}

func loadUserConfigWithDefaults(configDir string) (*UserConfig, error) {
	defaults := GetDefaultConfig()
	return loadUserConfig(configDir, &defaults)
}

// loadUserConfig reads config.yml (creating an empty one if absent) and
// decodes it directly onto base. The decoder only sets the keys the file
// mentions, so a config.yml overriding one nested Gui field keeps the rest
// of the Gui defaults, and an explicit false or 0 still takes effect.
func loadUserConfig(configDir string, base *UserConfig) (*UserConfig, error) {
	fileName := filepath.Join(configDir, "config.yml")

	if _, err := os.Stat(fileName); err != nil {
		if os.IsNotExist(err) {
			f, err := os.Create(fileName)
			if err != nil {
				return nil, err
			}
			f.Close()
		} else {
			return nil, err
		}
	}

	content, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(content, base); err != nil {
		return nil, err
	}
	return base, nil
}

// WriteToUserConfig applies updateConfig to the on-disk config.yml
// (starting from an empty UserConfig so only explicitly-set fields are
// written, matching the teacher's omitempty convention).
func (c *AppConfig) WriteToUserConfig(updateConfig func(*UserConfig) error) error {
	userConfig := &UserConfig{}
	content, err := os.ReadFile(c.ConfigFilename())
	if err == nil {
		_ = yaml.Unmarshal(content, userConfig)
	}

	if err := updateConfig(userConfig); err != nil {
		return err
	}

	file, err := os.OpenFile(c.ConfigFilename(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return err
	}
	defer file.Close()

	return yaml.NewEncoder(file).Encode(userConfig)
}

// ConfigFilename returns the filename of the current config file.
func (c *AppConfig) ConfigFilename() string {
	return filepath.Join(c.ConfigDir, "config.yml")
}
