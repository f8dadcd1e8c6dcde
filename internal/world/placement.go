package world

import (
	"math/rand"
	"sort"
)

// Site is a candidate territory location picked from a generated map.
type Site struct {
	Coord     HexCoord
	Fertility float64
	Score     float64 // Desirability
	Name      string
}

// PlaceSites picks up to count land cells, best first, with at least minDist hexes
// between any two. Output is deterministic for a given map and seed.
func PlaceSites(m *Map, seed int64, count, minDist int) []Site {
	rng := rand.New(rand.NewSource(seed + 200))

	var candidates []Site
	for coord, c := range m.Cells {
		if !c.Land {
			continue
		}
		if s := siteScore(m, c); s > 0 {
			candidates = append(candidates, Site{Coord: coord, Fertility: c.Fertility, Score: s})
		}
	}
	// Map iteration is random; break score ties by coordinate.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Coord.Q != b.Coord.Q {
			return a.Coord.Q < b.Coord.Q
		}
		return a.Coord.R < b.Coord.R
	})

	var sites []Site
	for _, c := range candidates {
		if len(sites) >= count {
			break
		}
		if tooClose(c.Coord, sites, minDist) {
			continue
		}
		sites = append(sites, c)
	}

	names := generateNames(rng, len(sites))
	for i := range sites {
		sites[i].Name = names[i]
	}
	return sites
}

// siteScore prefers fertile land with land neighbors.
func siteScore(m *Map, c *Cell) float64 {
	score := 1 + c.Fertility*3
	for _, nc := range c.Coord.Neighbors() {
		if n := m.Get(nc); n != nil && n.Land {
			score += 0.2
		}
	}
	return score
}

func tooClose(coord HexCoord, existing []Site, minDist int) bool {
	for _, s := range existing {
		if Distance(coord, s.Coord) < minDist {
			return true
		}
	}
	return false
}

// generateNames produces procedural place names by combining syllables.
func generateNames(rng *rand.Rand, count int) []string {
	prefixes := []string{
		"Iron", "Green", "Ash", "Stone", "Mill", "Cross", "Black",
		"Silver", "Red", "White", "Dark", "Bright", "High", "Low",
		"Old", "New", "Far", "Deep", "Long", "Broad", "Gold", "Frost",
		"Storm", "Thorn", "Elm", "Oak", "Pine", "Copper", "River",
	}
	suffixes := []string{
		"haven", "ford", "hollow", "wick", "bridge", "gate", "keep",
		"stead", "wood", "field", "dale", "crest", "vale", "port",
		"town", "bury", "marsh", "well", "brook", "cliff", "moor",
		"ridge", "watch", "fall", "rest", "point", "reach", "helm",
	}

	used := make(map[string]bool)
	names := make([]string, 0, count)
	for len(names) < count {
		name := prefixes[rng.Intn(len(prefixes))] + suffixes[rng.Intn(len(suffixes))]
		if len(used) >= len(prefixes)*len(suffixes) {
			used = make(map[string]bool) // Exhausted; allow repeats
		}
		if !used[name] {
			used[name] = true
			names = append(names, name)
		}
	}
	return names
}
