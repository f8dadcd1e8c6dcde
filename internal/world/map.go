package world

import "fmt"

// Cell is one generated hex.
type Cell struct {
	Coord     HexCoord
	Elevation float64 // 0.0–1.0
	Fertility float64 // 0.0–1.0; zero on water
	Land      bool
}

// Map holds the generated hex grid.
type Map struct {
	Cells  map[HexCoord]*Cell `json:"-"`
	Radius int                `json:"radius"`
}

// NewMap creates an empty map with the given radius.
// A hex grid of radius R contains hexes where max(|q|, |r|, |s|) <= R.
func NewMap(radius int) *Map {
	return &Map{
		Cells:  make(map[HexCoord]*Cell),
		Radius: radius,
	}
}

// Get returns the cell at coord, or nil if out of bounds.
func (m *Map) Get(coord HexCoord) *Cell {
	return m.Cells[coord]
}

// Set places a cell at its coordinate.
func (m *Map) Set(c *Cell) {
	m.Cells[c.Coord] = c
}

// InBounds returns true if the coordinate is within the map radius.
func (m *Map) InBounds(coord HexCoord) bool {
	return max(abs(coord.Q), abs(coord.R), abs(coord.S())) <= m.Radius
}

// LandCount returns the number of land cells.
func (m *Map) LandCount() int {
	n := 0
	for _, c := range m.Cells {
		if c.Land {
			n++
		}
	}
	return n
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(radius=%d, cells=%d, land=%d)", m.Radius, len(m.Cells), m.LandCount())
}
