package diplomacy

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/crossroads-diplomacy/internal/social"
)

// Seeder derives per-faction randomness from (session seed, faction, day).
// Nothing is drawn from a running stream, so a reloaded session replays identically.
type Seeder struct {
	seed  int64
	noise opensimplex.Noise
}

// NewSeeder creates a seeder for the session seed.
func NewSeeder(seed int64) *Seeder {
	return &Seeder{seed: seed, noise: opensimplex.New(seed)}
}

// Seed returns the session seed.
func (s *Seeder) Seed() int64 { return s.seed }

// mix folds values into one well-distributed 64-bit key (splitmix64 finalizer).
func mix(parts ...uint64) uint64 {
	h := uint64(0x9E3779B97F4A7C15)
	for _, p := range parts {
		h ^= p + 0x9E3779B97F4A7C15 + (h << 6) + (h >> 2)
		h ^= h >> 30
		h *= 0xBF58476D1CE4E5B9
		h ^= h >> 27
		h *= 0x94D049BB133111EB
		h ^= h >> 31
	}
	return h
}

// Rand returns a source private to (faction, day, salt).
func (s *Seeder) Rand(id social.FactionID, day uint64, salt uint64) *rand.Rand {
	return rand.New(rand.NewSource(int64(mix(uint64(s.seed), uint64(id), day, salt) >> 1)))
}

// Period draws a re-evaluation period in [lo, hi].
func (s *Seeder) Period(id social.FactionID, day uint64, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.Rand(id, day, 0x9E71).Intn(hi-lo+1)
}

// Bias is a stable per-faction multiplier in [lo, hi]; it never changes with the day.
func (s *Seeder) Bias(id social.FactionID, lo, hi float64) float64 {
	u := float64(mix(uint64(s.seed), uint64(id), 0xB1A5)>>11) / float64(1<<53)
	return lo + (hi-lo)*u
}

// Noise is smooth bounded noise in [-1, 1] that drifts day to day.
// Faction IDs are spread far apart on one axis so neighbors decorrelate.
func (s *Seeder) Noise(id social.FactionID, day uint64) float64 {
	return clamp(s.noise.Eval2(float64(id)*7.31, float64(day)*0.173), -1, 1)
}
