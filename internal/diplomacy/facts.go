// Package diplomacy decides when factions declare war, make peace, and form or break
// alliances and non-aggression pacts, and explains each decision in plain text.
package diplomacy

import (
	"github.com/talgya/crossroads-diplomacy/internal/social"
	"github.com/talgya/crossroads-diplomacy/internal/world"
)

// FactBase is the read-only view of the world the engine decides over.
// Stance queries are expected to be symmetric; the Snapshot double-checks.
type FactBase interface {
	Factions() []social.FactionID
	Faction(id social.FactionID) (social.Faction, bool)
	Territories(id social.FactionID) []world.Territory
	Relation(a, b social.FactionID) float64
	IsAtWar(a, b social.FactionID) bool
	IsAllied(a, b social.FactionID) bool
	HasPact(a, b social.FactionID) bool
	WarStart(a, b social.FactionID) (uint64, bool)
	Distance(a, b world.Territory) float64
}

// Mutator applies diplomatic actions to the world.
type Mutator interface {
	DeclareWar(a, b social.FactionID) error
	MakePeace(a, b social.FactionID, tribute float64) error
	FormAlliance(a, b social.FactionID, reason string) error
	BreakAlliance(a, b social.FactionID, reason string) error
	FormPact(a, b social.FactionID, reason string) error
	BreakPact(a, b social.FactionID) error
}
