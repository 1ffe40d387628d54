package main

import (
	"errors"
	"flag"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"gemshell/api"
	"gemshell/app"
	"gemshell/pluginhost"
	"gemshell/storage"
	"gemshell/typedef"
)

const configFileName = "gemshell.yaml"

func main() {
	var configPath string
	var pluginsDir string
	var startupPlugin string
	var dev bool
	flag.StringVar(&configPath, "config", "", "Path to gemshell.yaml (default: data dir)")
	flag.StringVar(&pluginsDir, "plugins", "", "Override the plugin directory")
	flag.StringVar(&startupPlugin, "startup", "", "Launch this plugin directly, bypassing the menu")
	flag.BoolVar(&dev, "dev", false, "Development mode: state files in the working directory, console log")
	flag.Parse()

	cfg := loadConfig(configPath)
	if pluginsDir != "" {
		cfg.PluginsDir = pluginsDir
	}
	if startupPlugin != "" {
		cfg.StartupPlugin = startupPlugin
	}
	if dev {
		cfg.Dev = true
	}

	logger := buildLogger(cfg.Dev)

	visibilityPath := storage.DataFile(pluginhost.VisibilityFileName)
	if cfg.Dev {
		visibilityPath = pluginhost.VisibilityFileName
	}

	host := pluginhost.New(cfg, visibilityPath, logger)
	host.AddLoader(pluginhost.NewNativeLoader(host, logger))
	host.AddLoader(pluginhost.NewScriptLoader(host, logger))
	host.Start(app.LogicalWidth, app.LogicalHeight)

	if cfg.APIAddr != "" {
		server := api.NewServer(host, logger)
		go func() {
			if err := server.Serve(cfg.APIAddr); err != nil {
				logger.Error().Err(err).Msg("control API stopped")
			}
		}()
	}

	ebiten.SetWindowTitle("GemShell")
	ebiten.SetWindowSize(app.LogicalWidth, app.LogicalHeight)

	if err := ebiten.RunGame(app.NewGame(host, logger)); err != nil {
		logger.Error().Err(err).Msg("display failed")
		host.Shutdown()
		os.Exit(1)
	}

	host.Shutdown()
	logger.Info().Msg("clean shutdown")
}

// loadConfig reads gemshell.yaml from the explicit path or the data dir.
// A missing file is fine; defaults apply.
func loadConfig(path string) typedef.ShellConfig {
	cfg := typedef.DefaultShellConfig()

	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = storage.ReadDataFile(configFileName)
	}
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			// Unreadable config is worth a line even before the logger exists.
			os.Stderr.WriteString("gemshell: config unreadable, using defaults: " + err.Error() + "\n")
		}
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		os.Stderr.WriteString("gemshell: config parse error, using defaults: " + err.Error() + "\n")
		return typedef.DefaultShellConfig()
	}
	if cfg.PluginsDir == "" {
		cfg.PluginsDir = typedef.DefaultShellConfig().PluginsDir
	}
	if cfg.RescanInterval <= 0 {
		cfg.RescanInterval = typedef.DefaultShellConfig().RescanInterval
	}
	return cfg
}

func buildLogger(dev bool) zerolog.Logger {
	if dev {
		return zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
