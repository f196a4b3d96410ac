// Package paths resolves the strata configuration and data directories.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// Project-local directory names, relative to the working directory.
const (
	ProjectConfigDirName = ".strata"
	DefaultDataDirName   = "data"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "STRATA_CONFIG_DIR"
	EnvDataDir   = "STRATA_DATA_DIR"
)

const appName = "strata"

// platformDir holds platform lookups that tests override.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// UserConfigDir returns the per-user configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/strata (fallback ~/.config/strata)
// macOS:   ~/Library/Application Support/strata
// Windows: %APPDATA%/strata
func UserConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// ResolveConfigDir returns the configuration directory: flag, then
// STRATA_CONFIG_DIR, then ./.strata when it exists, then UserConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	local := filepath.Join(cwd, ProjectConfigDirName)
	if fi, err := os.Stat(local); err == nil && fi.IsDir() {
		return local, nil
	}
	return UserConfigDir()
}

// ResolveDataDir returns the data directory holding the bronze, silver and
// gold layers: flag, then the config file value, then STRATA_DATA_DIR, then
// ./data.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, dir := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if dir != "" {
			return filepath.Abs(dir)
		}
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
