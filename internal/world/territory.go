package world

import (
	"fmt"

	"github.com/talgya/crossroads-diplomacy/internal/social"
)

// TerritoryID is a unique identifier for a territory.
type TerritoryID uint64

// Territory is a place owned by a faction.
type Territory struct {
	ID      TerritoryID      `json:"id"`
	Name    string           `json:"name"`
	Coord   HexCoord         `json:"coord"`
	Owner   social.FactionID `json:"owner"`
	Culture social.FactionID `json:"culture"` // Founding faction; drives reclaim claims

	// Fertility 0.0–1.0 from generation noise. Feeds strength and wealth.
	Fertility float64 `json:"fertility"`
}

// HexDistance is the default inter-territory distance: hex steps between centers.
func HexDistance(a, b Territory) float64 {
	return float64(Distance(a.Coord, b.Coord))
}

// String returns a short label for logs.
func (t Territory) String() string {
	return fmt.Sprintf("%s(%d,%d)", t.Name, t.Coord.Q, t.Coord.R)
}
