package config

// UserConfig holds all user-configurable options for the driver and its
// progress renderer. Viewable with `respire-driver --print-default-config`.
type UserConfig struct {
	// Jobs is the default -j value when the driver's -j flag is omitted;
	// 0 means "probe the host's logical CPU count at startup".
	Jobs int `yaml:"jobs,omitempty"`

	// OutDirName is the default build scratch directory name, relative
	// to the invoking directory, when -o is omitted.
	OutDirName string `yaml:"outDirName,omitempty"`

	// LogLevel is a logrus level name (debug, info, warn, error).
	LogLevel string `yaml:"logLevel,omitempty"`

	// Language selects a pkg/i18n translation set, or "auto" to detect
	// the OS locale via jibber_jabber.
	Language string `yaml:"language,omitempty"`

	Gui GuiConfig `yaml:"gui,omitempty"`
}

// GuiConfig configures the driver's human-readable progress renderer.
type GuiConfig struct {
	// Color toggles ANSI coloring of the per-command status table.
	Color bool `yaml:"color,omitempty"`

	// StatusColors maps a command's terminal state to a color name
	// understood by pkg/utils.GetColorAttribute.
	StatusColors StatusColorsConfig `yaml:"statusColors,omitempty"`

	// GraphView enables the -g ASCII timeline renderer by default.
	GraphView bool `yaml:"graphView,omitempty"`

	// RefreshIntervalMs throttles how often the compact status view
	// redraws while relaying the engine's JSONL event stream.
	RefreshIntervalMs int `yaml:"refreshIntervalMs,omitempty"`

	// OpenLogCommand is a template (with a {{filename}} placeholder) for
	// opening a failed command's captured stdout/stderr log. It is loaded
	// and printed with the config; the driver and the progress renderer
	// never run it.
	OpenLogCommand string `yaml:"openLogCommand,omitempty"`
}

// StatusColorsConfig names the color used for each per-command status.
type StatusColorsConfig struct {
	Pending string `yaml:"pending,omitempty"`
	Running string `yaml:"running,omitempty"`
	Done    string `yaml:"done,omitempty"`
	Failed  string `yaml:"failed,omitempty"`
}

// GetDefaultConfig returns the compiled-in defaults only; loadUserConfig
// in app_config.go overlays the user's config.yml onto them.
func GetDefaultConfig() UserConfig {
	return UserConfig{
		Jobs:       0,
		OutDirName: ".respire-out",
		LogLevel:   "info",
		Language:   "auto",
		Gui: GuiConfig{
			Color: true,
			StatusColors: StatusColorsConfig{
				Pending: "default",
				Running: "yellow",
				Done:    "green",
				Failed:  "red",
			},
			GraphView:         false,
			RefreshIntervalMs: 100,
			OpenLogCommand:    "less {{filename}}",
		},
	}
}
