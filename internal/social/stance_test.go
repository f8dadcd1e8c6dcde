package social

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakePairOrderIndependent(t *testing.T) {
	assert.Equal(t, MakePair(3, 7), MakePair(7, 3))
	p := MakePair(9, 2)
	assert.Equal(t, FactionID(2), p.Lo)
	assert.Equal(t, FactionID(9), p.Other(2))
	assert.Equal(t, FactionID(2), p.Other(9))
	assert.True(t, p.Has(9))
	assert.False(t, p.Has(4))
}

func TestLedgerSymmetry(t *testing.T) {
	l := NewLedger()
	l.Set(1, 2, StanceWar, 10, "border dispute")
	l.Set(4, 3, StanceAlliance, 12, "shared enemy")

	pairs := [][2]FactionID{{1, 2}, {3, 4}, {1, 3}}
	for _, p := range pairs {
		assert.Equal(t, l.Stance(p[0], p[1]), l.Stance(p[1], p[0]), "pair %v", p)
	}
	assert.Equal(t, StanceWar, l.Stance(2, 1))
	assert.Equal(t, StanceAlliance, l.Stance(3, 4))

	rec, ok := l.Record(2, 1)
	require.True(t, ok)
	assert.Equal(t, uint64(10), rec.Since)
}

func TestLedgerStancesAreExclusive(t *testing.T) {
	l := NewLedger()
	l.Set(1, 2, StanceAlliance, 1, "")
	l.Set(2, 1, StanceWar, 5, "betrayal")

	assert.Equal(t, StanceWar, l.Stance(1, 2))
	assert.Empty(t, l.Partners(1, StanceAlliance))
	assert.Equal(t, []FactionID{2}, l.Partners(1, StanceWar))
	assert.Equal(t, 1, l.Len())

	l.Set(1, 2, StanceNone, 9, "")
	assert.Equal(t, 0, l.Len())
}

func TestLedgerIgnoresSelfPairs(t *testing.T) {
	l := NewLedger()
	l.Set(5, 5, StanceWar, 1, "")
	assert.Equal(t, StanceNone, l.Stance(5, 5))
	assert.Equal(t, 0, l.Len())
}

func TestLedgerClearFaction(t *testing.T) {
	l := NewLedger()
	l.Set(1, 2, StanceWar, 1, "")
	l.Set(1, 3, StancePact, 1, "")
	l.Set(2, 3, StanceAlliance, 1, "")

	l.ClearFaction(1)
	assert.Equal(t, StanceNone, l.Stance(1, 2))
	assert.Equal(t, StanceNone, l.Stance(3, 1))
	assert.Equal(t, StanceAlliance, l.Stance(3, 2))
}

func TestLedgerRestoreNormalizesPairs(t *testing.T) {
	l := NewLedger()
	l.Restore([]StanceRecord{
		{Pair: PairKey{Lo: 8, Hi: 3}, Stance: StancePact, Since: 4},
		{Pair: PairKey{Lo: 2, Hi: 2}, Stance: StanceWar},
		{Pair: PairKey{Lo: 1, Hi: 5}, Stance: StanceNone},
	})

	require.Equal(t, 1, l.Len())
	assert.Equal(t, StancePact, l.Stance(3, 8))
	recs := l.Records()
	assert.Equal(t, MakePair(3, 8), recs[0].Pair)
}
