package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// BuildIndex produces a uniform weight index over every ply in
// [minPly, maxPly] of each game. maxPly <= 0 means no upper bound. Plies
// past the end of a short game are skipped.
func BuildIndex(games []*GameRecord, minPly, maxPly int) []WeightEntry {
	if minPly < 0 {
		minPly = 0
	}
	var entries []WeightEntry
	for gameIdx, game := range games {
		last := game.PlyCount()
		if maxPly > 0 && maxPly < last {
			last = maxPly
		}
		for ply := minPly; ply <= last; ply++ {
			entries = append(entries, WeightEntry{Game: gameIdx, Ply: ply, Weight: 1})
		}
	}
	return entries
}

// WriteIndex writes the weight index as JSON via a temp file and rename.
func WriteIndex(path string, entries []WeightEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("weight index is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create index dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "weights-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp index: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	enc := json.NewEncoder(tmpFile)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}
