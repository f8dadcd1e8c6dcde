package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds map generation parameters.
type GenConfig struct {
	Radius   int     // Hex grid radius
	Seed     int64   // Same seed, same map
	SeaLevel float64 // Elevation threshold for water (0.0–1.0)
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:   14,
		SeaLevel: 0.28,
	}
}

// SmallTestConfig returns a tiny map for tests.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Radius:   6,
		Seed:     42,
		SeaLevel: 0.2,
	}
}

// Generate builds a map from layered simplex noise: an elevation layer with
// continental falloff and a rainfall layer that together set fertility.
func Generate(cfg GenConfig) *Map {
	elevNoise := opensimplex.NewNormalized(cfg.Seed)
	rainNoise := opensimplex.NewNormalized(cfg.Seed + 1)

	m := NewMap(cfg.Radius)
	for q := -cfg.Radius; q <= cfg.Radius; q++ {
		for r := -cfg.Radius; r <= cfg.Radius; r++ {
			coord := HexCoord{Q: q, R: r}
			if !m.InBounds(coord) {
				continue
			}
			x, y := coord.Cartesian()

			elev := octaveNoise(elevNoise, x, y, 4, 0.08, 0.5)
			rain := octaveNoise(rainNoise, x, y, 3, 0.06, 0.5)

			// Continental shaping: lower elevation toward the rim.
			dist := math.Sqrt(x*x+y*y) / float64(max(cfg.Radius, 1))
			elev *= math.Max(0, 1-math.Pow(dist, 3.5))

			c := &Cell{Coord: coord, Elevation: elev, Land: elev >= cfg.SeaLevel}
			if c.Land {
				// Lowland with rain is best; peaks are poor.
				c.Fertility = clamp01(rain*0.7 + (1-elev)*0.3)
			}
			m.Set(c)
		}
	}
	return m
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
