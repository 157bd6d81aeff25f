package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - FITCAL_CONFIG_PATH: config file location (default: ~/.config/fitcal.toml)
//   - FITCAL_HOME: base directory for fitcal data (default: ~/.local/share/fitcal)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking FITCAL_CONFIG_PATH
// first, then falling back to the default ~/.config/fitcal.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("FITCAL_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "fitcal.toml"), nil
}

// getBaseDir returns the base data directory, checking FITCAL_HOME first,
// then falling back to the XDG default ~/.local/share/fitcal.
func getBaseDir() (string, error) {
	if path := os.Getenv("FITCAL_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "fitcal"), nil
}
