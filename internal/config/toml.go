// Package config reads and writes the user configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig mirrors the on-disk TOML layout. Pointer fields distinguish
// "unset" from zero values so flags can override only what the file set.
type FileConfig struct {
	Quiz QuizConfig `toml:"quiz"`
}

// QuizConfig holds the quiz session options.
type QuizConfig struct {
	Time      *int      `toml:"time"`
	PlyAhead  *int      `toml:"ply-ahead"`
	Side      *string   `toml:"side"`
	Questions *[]string `toml:"questions"`
	ShowTimer *bool     `toml:"show-timer"`
	PGN       *string   `toml:"pgn"`
	Weights   *string   `toml:"weights"`
}

// Load reads the config file at path. A missing file is not an error and
// yields an empty config.
func Load(path string) (*FileConfig, error) {
	cfg := &FileConfig{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Template is written when the user edits a config that does not exist
// yet. Every key is commented out so the defaults stay in one place.
const Template = `# movecount configuration

[quiz]
# Session time budget in seconds. 0 or negative means untimed.
# time = 180

# How many half-moves before the scored position the preview board shows.
# ply-ahead = 4

# Which side is to move at sampled positions: random, white or black.
# side = "random"

# Active questions, as perspective/kind pairs.
# Perspectives: mover, opponent. Kinds: moves, checks, captures.
# questions = ["mover/moves", "mover/checks", "mover/captures"]

# Show the countdown while solving.
# show-timer = true

# Corpus and weight index locations. Defaults live under the user data dir.
# pgn = ""
# weights = ""
`

// EnsureTemplate writes the commented template to path if no config file
// exists yet.
func EnsureTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(Template), 0o644); err != nil {
		return fmt.Errorf("failed to write config template: %w", err)
	}
	return nil
}
