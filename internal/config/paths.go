package config

import (
	"os"
	"path/filepath"
)

// GetHome returns DRIFTWATCH_HOME or the ~/.driftwatch default
func GetHome() string {
	home := os.Getenv("DRIFTWATCH_HOME")
	if home == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ".driftwatch"
		}
		return filepath.Join(homeDir, ".driftwatch")
	}
	return ExpandPath(home)
}

// GetDBPath returns $DRIFTWATCH_HOME/state.db
func GetDBPath() string {
	return filepath.Join(GetHome(), "state.db")
}

// GetSettingsPath returns $DRIFTWATCH_HOME/settings.json
func GetSettingsPath() string {
	return filepath.Join(GetHome(), "settings.json")
}

// ExpandPath expands ~ to home directory
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			if len(path) == 1 {
				return homeDir
			}
			return filepath.Join(homeDir, path[1:])
		}
	}
	return path
}
