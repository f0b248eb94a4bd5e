package config

import (
	"os"
	"path/filepath"
)

// Home returns the heddle state directory: HEDDLE_HOME when set (relative
// paths resolve from the current working directory), otherwise ~/.heddle.
func Home() string {
	if home := os.Getenv("HEDDLE_HOME"); home != "" {
		abs, err := filepath.Abs(home)
		if err == nil {
			return abs
		}
		return home
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return ".heddle"
	}
	return filepath.Join(userHome, ".heddle")
}

// GlobalConfigPath returns the global config file path under Home.
func GlobalConfigPath() string {
	return filepath.Join(Home(), "config.yaml")
}

// LocalConfigPath returns the per-project config file path.
func LocalConfigPath() string {
	return filepath.Join(".heddle", "config.yaml")
}
