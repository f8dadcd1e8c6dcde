// Package social provides factions, their traits, and the diplomatic stances between them.
package social

import "sort"

// FactionID is a unique identifier for a faction.
type FactionID uint64

// Faction is the read-only fact record for an organization that holds territory.
type Faction struct {
	ID   FactionID `json:"id"`
	Name string    `json:"name"`

	// Military strength and treasury, both derived by the world from held territory.
	Strength float64 `json:"strength"`
	Wealth   float64 `json:"wealth"`

	Traits Traits `json:"traits"`

	// Minor factions (clans, mercenary bands) never initiate diplomacy.
	Minor      bool `json:"minor"`
	Eliminated bool `json:"eliminated"`

	// Relations with other factions (faction ID → -100 to +100).
	Relations map[FactionID]float64 `json:"relations"`
}

// Traits are leader personality scalars, each 0.0–1.0.
type Traits struct {
	Honor       float64 `json:"honor"`       // Keeps its word; resists breaking treaties
	Calculating float64 `json:"calculating"` // Drops partners the moment they stop paying off
	Militarism  float64 `json:"militarism"`  // Reaches for the sword first
}

// Active reports whether the faction still takes part in diplomacy.
func (f Faction) Active() bool {
	return !f.Eliminated
}

// SortIDs sorts faction IDs ascending in place and returns the slice.
// Ascending ID is the documented processing order everywhere in the engine.
func SortIDs(ids []FactionID) []FactionID {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
