// Package sampler draws puzzle positions from the weight index.
package sampler

import (
	"errors"
	"math/rand"
	"time"

	"movecount/internal/corpus"
)

// ErrEmptyPartition signals that no weight entry matches the requested
// side-to-move parity. This is a corpus or configuration defect and is
// surfaced rather than retried.
var ErrEmptyPartition = errors.New("no weight entries for requested side to move")

// Pick identifies one sampled (game, ply) position.
type Pick struct {
	Game int
	Ply  int
}

// Sampler performs weighted random selection over the weight index.
type Sampler struct {
	rnd *rand.Rand
}

// New returns a Sampler seeded with the current time.
func New() *Sampler {
	return NewWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand returns a Sampler using the provided random source.
func NewWithRand(rnd *rand.Rand) *Sampler {
	return &Sampler{rnd: rnd}
}

// Sample draws one entry whose ply parity matches the requested side to
// move: even plies are white-to-move positions, odd plies black-to-move.
// Selection is a linear threshold scan in index order, so a fixed random
// draw always picks the same entry.
func (s *Sampler) Sample(entries []corpus.WeightEntry, requireWhiteToMove bool) (Pick, error) {
	var filtered []corpus.WeightEntry
	total := 0.0
	for _, entry := range entries {
		whiteToMove := entry.Ply%2 == 0
		if whiteToMove != requireWhiteToMove {
			continue
		}
		filtered = append(filtered, entry)
		total += entry.Weight
	}
	if len(filtered) == 0 || total <= 0 {
		return Pick{}, ErrEmptyPartition
	}

	threshold := s.rnd.Float64() * total
	for _, entry := range filtered {
		threshold -= entry.Weight
		if threshold < 0 {
			return Pick{Game: entry.Game, Ply: entry.Ply}, nil
		}
	}
	// Guard against float accumulation on the final entry.
	last := filtered[len(filtered)-1]
	return Pick{Game: last.Game, Ply: last.Ply}, nil
}
