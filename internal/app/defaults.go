package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultBackendURL is used when neither the config file nor
// ITRANSFER_BACKEND_URL names a backend.
const DefaultBackendURL = "http://localhost:5000"

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - ITRANSFER_CONFIG_PATH: config file location (default: ~/.config/itransfer.toml)
//   - ITRANSFER_HOME: base directory for itransfer data (default: ~/.local/share/itransfer)
//   - ITRANSFER_BACKEND_URL: backend base URL (default: DefaultBackendURL)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	backendURL := os.Getenv("ITRANSFER_BACKEND_URL")
	if backendURL == "" {
		backendURL = DefaultBackendURL
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
		"backend_url": backendURL,
	}, nil
}

// BackendURL returns ITRANSFER_BACKEND_URL when set, otherwise configured.
func BackendURL(configured string) string {
	if u := os.Getenv("ITRANSFER_BACKEND_URL"); u != "" {
		return u
	}
	if configured == "" {
		return DefaultBackendURL
	}
	return configured
}

func getConfigPath() (string, error) {
	if path := os.Getenv("ITRANSFER_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "itransfer.toml"), nil
}

// getBaseDir returns the base directory for itransfer data, checking
// ITRANSFER_HOME first, then falling back to the XDG default.
func getBaseDir() (string, error) {
	if path := os.Getenv("ITRANSFER_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "itransfer"), nil
}
