package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const appDir = "movecount"

// DefaultConfigPath returns the config file location under the user
// config dir.
func DefaultConfigPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(base, appDir, "config.toml"), nil
}

// DefaultDataDir returns the directory for the database, corpus and
// weight index.
func DefaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", appDir), nil
}

// DefaultDBPath returns the session database location.
func DefaultDBPath() (string, error) {
	dir, err := DefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sessions.db"), nil
}

// DefaultPGNPath returns the default corpus location.
func DefaultPGNPath() (string, error) {
	dir, err := DefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "corpus.pgn"), nil
}

// DefaultWeightsPath returns the default weight index location.
func DefaultWeightsPath() (string, error) {
	dir, err := DefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "weights.json"), nil
}
