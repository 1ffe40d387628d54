package typedef

// ShellConfig is the host process configuration, read from gemshell.yaml and
// overridable from the command line.
type ShellConfig struct {
	// PluginsDir is the flat directory scanned for plugin modules.
	PluginsDir string `yaml:"plugins_dir"`
	// RescanInterval is the menu-state directory rescan cadence in seconds.
	RescanInterval float64 `yaml:"rescan_interval"`
	// StartupPlugin, when set, is resolved once at boot and launched directly,
	// bypassing the menu.
	StartupPlugin string `yaml:"startup_plugin"`
	// APIAddr is the listen address of the websocket control API. Empty
	// disables the server.
	APIAddr string `yaml:"api_addr"`
	// Dev keeps state files in the working directory and switches the log to
	// console output.
	Dev bool `yaml:"dev"`
}

// DefaultShellConfig returns the configuration used when no file is present.
func DefaultShellConfig() ShellConfig {
	return ShellConfig{
		PluginsDir:     "./plugins",
		RescanInterval: 2.0,
	}
}
