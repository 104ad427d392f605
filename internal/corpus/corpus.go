// Package corpus loads game transcripts and the position weight index.
package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/notnil/chess"
)

// GameRecord is one replayable game transcript. Immutable once loaded.
type GameRecord struct {
	moves []*chess.Move
	sans  []string
}

// PlyCount returns the number of recorded half-moves.
func (g *GameRecord) PlyCount() int {
	return len(g.moves)
}

// Moves returns the recorded moves in play order.
func (g *GameRecord) Moves() []*chess.Move {
	return g.moves
}

// SAN returns the notation of the half-move at the given ply.
func (g *GameRecord) SAN(ply int) string {
	if ply < 0 || ply >= len(g.sans) {
		return ""
	}
	return g.sans[ply]
}

// WeightEntry maps one (game, ply) position to its sampling weight.
// Even ply means White to move at that position, odd ply means Black.
type WeightEntry struct {
	Game   int     `json:"game"`
	Ply    int     `json:"ply"`
	Weight float64 `json:"weight"`
}

// Corpus holds the loaded games and weight index. Read-only after Load.
type Corpus struct {
	games   []*GameRecord
	weights []WeightEntry
}

// Games returns the number of loaded games.
func (c *Corpus) Games() int {
	return len(c.games)
}

// Game returns the game record at the given index.
func (c *Corpus) Game(i int) (*GameRecord, error) {
	if i < 0 || i >= len(c.games) {
		return nil, fmt.Errorf("game index %d out of range (have %d games)", i, len(c.games))
	}
	return c.games[i], nil
}

// Weights returns the weight index in file order.
func (c *Corpus) Weights() []WeightEntry {
	return c.weights
}

// Load reads the PGN corpus and weight index from the given paths.
// Any failure is fatal to session start.
func Load(pgnPath, weightsPath string) (*Corpus, error) {
	pgnFile, err := os.Open(pgnPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer func() {
		if cerr := pgnFile.Close(); cerr != nil {
			// Best-effort close for read-only corpus.
			_ = cerr
		}
	}()
	games, err := LoadPGN(pgnFile)
	if err != nil {
		return nil, err
	}

	weightsFile, err := os.Open(weightsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open weight index: %w", err)
	}
	defer func() {
		if cerr := weightsFile.Close(); cerr != nil {
			// Best-effort close for read-only index.
			_ = cerr
		}
	}()
	weights, err := LoadWeights(weightsFile, games)
	if err != nil {
		return nil, err
	}

	return &Corpus{games: games, weights: weights}, nil
}

// LoadPGN parses a concatenation of PGN game transcripts into an ordered
// sequence of game records. Zero parsed games is an error.
func LoadPGN(r io.Reader) ([]*GameRecord, error) {
	scanner := chess.NewScanner(r)
	var games []*GameRecord
	for scanner.Scan() {
		game := scanner.Next()
		if game == nil {
			continue
		}
		games = append(games, recordFromGame(game))
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse corpus: %w", err)
	}
	if len(games) == 0 {
		return nil, fmt.Errorf("corpus contains no game transcripts")
	}
	return games, nil
}

func recordFromGame(game *chess.Game) *GameRecord {
	moves := game.Moves()
	positions := game.Positions()
	sans := make([]string, len(moves))
	notation := chess.AlgebraicNotation{}
	for i, mv := range moves {
		if i < len(positions) {
			sans[i] = notation.Encode(positions[i], mv)
		}
	}
	return &GameRecord{moves: moves, sans: sans}
}

// LoadWeights parses the JSON weight index and validates every entry
// against the loaded games.
func LoadWeights(r io.Reader, games []*GameRecord) ([]WeightEntry, error) {
	var entries []WeightEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode weight index: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("weight index is empty")
	}
	for i, entry := range entries {
		if entry.Game < 0 || entry.Game >= len(games) {
			return nil, fmt.Errorf("weight entry %d: game %d out of range (have %d games)", i, entry.Game, len(games))
		}
		if entry.Ply < 0 || entry.Ply > games[entry.Game].PlyCount() {
			return nil, fmt.Errorf("weight entry %d: ply %d out of range for game %d (%d half-moves)", i, entry.Ply, entry.Game, games[entry.Game].PlyCount())
		}
		if entry.Weight <= 0 {
			return nil, fmt.Errorf("weight entry %d: weight must be positive, got %v", i, entry.Weight)
		}
	}
	return entries, nil
}
