package diplomacy

import (
	"math"

	"github.com/talgya/crossroads-diplomacy/internal/social"
	"github.com/talgya/crossroads-diplomacy/internal/world"
)

// NeighborEntry is the cached geography between two factions.
type NeighborEntry struct {
	Pair        social.PairKey
	Proximity   int     // Territory pairs within border distance
	MinDistance float64 // Closest pair of territories; +Inf if either side holds none
}

// NeighborCache holds pairwise border adjacency, rebuilt wholesale once per tick.
// Reads between rebuilds may be stale; scoring never recomputes geography itself.
type NeighborCache struct {
	threshold float64
	day       uint64
	entries   map[social.PairKey]NeighborEntry
	neighbors map[social.FactionID][]social.FactionID
}

// NewNeighborCache creates an empty cache using the given border distance.
func NewNeighborCache(borderDistance float64) *NeighborCache {
	return &NeighborCache{
		threshold: borderDistance,
		entries:   make(map[social.PairKey]NeighborEntry),
		neighbors: make(map[social.FactionID][]social.FactionID),
	}
}

// Refresh recomputes every unordered pair of the given factions.
// territoriesOf and distance come from the FactBase.
func (c *NeighborCache) Refresh(day uint64, factions []social.FactionID,
	territoriesOf func(social.FactionID) []world.Territory,
	distance func(a, b world.Territory) float64,
) {
	ids := social.SortIDs(append([]social.FactionID(nil), factions...))
	held := make(map[social.FactionID][]world.Territory, len(ids))
	for _, id := range ids {
		held[id] = territoriesOf(id)
	}

	entries := make(map[social.PairKey]NeighborEntry, len(ids)*len(ids)/2)
	neighbors := make(map[social.FactionID][]social.FactionID, len(ids))

	for i, a := range ids {
		for _, b := range ids[i+1:] {
			entry := NeighborEntry{Pair: social.MakePair(a, b), MinDistance: math.Inf(1)}
			for _, ta := range held[a] {
				for _, tb := range held[b] {
					d := distance(ta, tb)
					if d < entry.MinDistance {
						entry.MinDistance = d
					}
					if d <= c.threshold {
						entry.Proximity++
					}
				}
			}
			entries[entry.Pair] = entry
			if entry.Proximity > 0 {
				neighbors[a] = append(neighbors[a], b)
				neighbors[b] = append(neighbors[b], a)
			}
		}
	}

	// ids is ascending, so each neighbor list is already sorted.
	c.entries = entries
	c.neighbors = neighbors
	c.day = day
}

// Day returns the sim-day of the last rebuild.
func (c *NeighborCache) Day() uint64 {
	return c.day
}

// Proximity returns the number of close territory pairs between a and b.
func (c *NeighborCache) Proximity(a, b social.FactionID) int {
	return c.entries[social.MakePair(a, b)].Proximity
}

// MinDistance returns the closest territory distance between a and b, or +Inf if unknown.
func (c *NeighborCache) MinDistance(a, b social.FactionID) float64 {
	e, ok := c.entries[social.MakePair(a, b)]
	if !ok {
		return math.Inf(1)
	}
	return e.MinDistance
}

// Borders reports whether a and b share at least one close territory pair.
func (c *NeighborCache) Borders(a, b social.FactionID) bool {
	return c.Proximity(a, b) > 0
}

// NeighborsOf returns the factions bordering a, ascending by ID.
func (c *NeighborCache) NeighborsOf(a social.FactionID) []social.FactionID {
	return c.neighbors[a]
}
