package diplomacy

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/crossroads-diplomacy/internal/social"
	"github.com/talgya/crossroads-diplomacy/internal/world"
)

func fixed(v float64) func(*Snapshot, social.FactionID, social.FactionID) ExplainedScore {
	return func(*Snapshot, social.FactionID, social.FactionID) ExplainedScore {
		var sc ExplainedScore
		sc.Add("fixed", v, "")
		return sc
	}
}

func TestRegistryRejectsDuplicatesAndMissingScore(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(GoalDef{Kind: GoalStrengthen, Score: fixed(1)}))
	assert.Error(t, r.Register(GoalDef{Kind: GoalStrengthen, Score: fixed(2)}))
	assert.Error(t, r.Register(GoalDef{Kind: GoalExpand}))

	assert.Len(t, DefaultRegistry().Defs(), 7)
}

func TestEqualPrioritiesBreakByKindThenTarget(t *testing.T) {
	w := newTestWorld().
		add(1, 100, 500_000, 2, 0, 0).
		add(2, 100, 500_000, 2, 10, 0).
		add(3, 100, 500_000, 2, 20, 0)
	s := snapshotOf(w, 1, nil)

	r := NewRegistry()
	require.NoError(t, r.Register(GoalDef{Kind: GoalStrengthen, Score: fixed(20)}))
	require.NoError(t, r.Register(GoalDef{
		Kind:   GoalFormPact,
		Action: ActionFormPact,
		Targets: func(*Snapshot, social.FactionID) []social.FactionID {
			return []social.FactionID{3, 2}
		},
		Score: fixed(20),
	}))

	goals := NewGoalSystem(r).Goals(s, 1, StateOpportunistic)
	type pick struct {
		Kind   GoalKind
		Target social.FactionID
	}
	var got []pick
	for _, g := range goals {
		got = append(got, pick{g.Kind, g.Target})
	}
	want := []pick{{GoalFormPact, 2}, {GoalFormPact, 3}, {GoalStrengthen, 0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("goal order mismatch (-want +got):\n%s", diff)
	}
}

func TestSingleGoalKeepsBestTarget(t *testing.T) {
	w := newTestWorld().
		add(1, 300, 500_000, 5, 0, 0).
		add(2, 60, 500_000, 2, 6, 0).
		add(3, 250, 500_000, 5, 30, 0)
	s := snapshotOf(w, 1, nil)

	var expands []Goal
	for _, g := range NewGoalSystem(nil).Goals(s, 1, StateOpportunistic) {
		if g.Kind == GoalExpand {
			expands = append(expands, g)
		}
	}
	require.Len(t, expands, 1)
	assert.Equal(t, social.FactionID(2), expands[0].Target)
}

func TestMinorFactionsHaveNoGoals(t *testing.T) {
	w := newTestWorld().
		add(1, 100, 500_000, 2, 0, 0).
		add(2, 100, 500_000, 2, 3, 0)
	w.edit(2, func(f *social.Faction) { f.Minor = true })
	s := snapshotOf(w, 1, nil)

	assert.Empty(t, NewGoalSystem(nil).Goals(s, 2, StateOpportunistic))
	for _, g := range NewGoalSystem(nil).Goals(s, 1, StateOpportunistic) {
		if g.Kind == GoalFormAlliance || g.Kind == GoalFormPact {
			t.Errorf("treaty goal %s offered to a minor faction", g.Kind)
		}
	}
}

func TestWarLockSuppressesExpand(t *testing.T) {
	w := newTestWorld().
		add(1, 300, 500_000, 5, 0, 0).
		add(2, 60, 500_000, 2, 6, 0)
	st := NewState()
	st.Factions[1] = &FactionTimers{WarLockUntil: 11}

	hasExpand := func(day uint64) bool {
		s := snapshotOf(w, day, st)
		for _, g := range NewGoalSystem(nil).Goals(s, 1, Classify(s, 1)) {
			if g.Kind == GoalExpand {
				return true
			}
		}
		return false
	}
	assert.False(t, hasExpand(10))
	assert.True(t, hasExpand(11))
}

func TestCooldownSuppressesPairOnly(t *testing.T) {
	w := newTestWorld().
		add(1, 100, 500_000, 2, 0, 0).
		add(2, 150, 500_000, 2, 3, 0).
		add(3, 150, 500_000, 2, 0, 3)
	st := NewState()
	st.SetCooldown(ActionFormPact, 2, 1, 5, 30)
	s := snapshotOf(w, 20, st)

	targets := map[social.FactionID]bool{}
	for _, g := range NewGoalSystem(nil).Goals(s, 1, StateOpportunistic) {
		if g.Kind == GoalFormPact {
			targets[g.Target] = true
		}
	}
	assert.False(t, targets[2])
	assert.True(t, targets[3])
}

func TestDesperatePostureFavorsSurvival(t *testing.T) {
	w := newTestWorld().
		add(1, 50, 500_000, 2, 0, 0).
		add(2, 200, 500_000, 6, 2, 0).
		war(1, 2, 0)
	s := snapshotOf(w, 30, nil)
	require.Equal(t, StateDesperate, Classify(s, 1))

	goal, ok := NewGoalSystem(nil).Choose(s, 1, StateDesperate)
	require.True(t, ok)
	assert.Equal(t, GoalSurvive, goal.Kind)
	assert.Equal(t, social.FactionID(2), goal.Target)
	assert.Equal(t, 30.0, goal.Bias)
	_, boosted := goal.Score.Term("outmatched")
	assert.True(t, boosted)
}

func TestGoalsAreDeterministic(t *testing.T) {
	w := mixedWorld()
	a := NewGoalSystem(nil).Goals(snapshotOf(w, 12, nil), 1, StateOpportunistic)
	b := NewGoalSystem(nil).Goals(snapshotOf(w, 12, nil), 1, StateOpportunistic)
	require.NotEmpty(t, a)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("goals differ between identical snapshots:\n%s", diff)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*testWorld, *State)
		want  StrategicState
	}{
		{
			name: "landless",
			build: func() (*testWorld, *State) {
				return newTestWorld().add(1, 100, 500_000, 0, 0, 0).add(2, 100, 500_000, 3, 5, 0), nil
			},
			want: StateDesperate,
		},
		{
			name: "exhausted",
			build: func() (*testWorld, *State) {
				w := newTestWorld().add(1, 200, 500_000, 5, 0, 0).add(2, 100, 500_000, 3, 6, 0).war(1, 2, 0)
				st := NewState()
				st.Exhaustion[DirectedPair{Of: 1, Against: 2}] = 85
				return w, st
			},
			want: StateDesperate,
		},
		{
			name: "outnumbered and small",
			build: func() (*testWorld, *State) {
				return newTestWorld().
					add(1, 100, 500_000, 2, 0, 0).
					add(2, 150, 500_000, 3, 4, 0).
					add(3, 100, 500_000, 3, 0, 4).
					war(1, 2, 0).war(1, 3, 0), nil
			},
			want: StateDesperate,
		},
		{
			name: "outnumbered but holding three",
			build: func() (*testWorld, *State) {
				return newTestWorld().
					add(1, 100, 500_000, 3, 0, 0).
					add(2, 150, 500_000, 3, 4, 0).
					add(3, 100, 500_000, 3, 0, 4).
					war(1, 2, 0).war(1, 3, 0), nil
			},
			want: StateDefensive,
		},
		{
			name: "outmatched",
			build: func() (*testWorld, *State) {
				return newTestWorld().add(1, 100, 500_000, 5, 0, 0).add(2, 150, 500_000, 5, 6, 0).war(1, 2, 0), nil
			},
			want: StateDefensive,
		},
		{
			name: "rich and strong",
			build: func() (*testWorld, *State) {
				return newTestWorld().
					add(1, 300, 800_000, 5, 0, 0).
					add(2, 100, 500_000, 3, 6, 0).
					add(3, 100, 500_000, 3, 0, 6), nil
			},
			want: StateExpansionist,
		},
		{
			name: "strong but poor",
			build: func() (*testWorld, *State) {
				return newTestWorld().
					add(1, 300, 500_000, 5, 0, 0).
					add(2, 100, 500_000, 3, 6, 0).
					add(3, 100, 500_000, 3, 0, 6), nil
			},
			want: StateOpportunistic,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, st := tc.build()
			assert.Equal(t, tc.want, Classify(snapshotOf(w, 40, st), 1))
		})
	}
}

func TestNeighborCache(t *testing.T) {
	held := map[social.FactionID][]world.Territory{
		1: {{ID: 1, Coord: world.HexCoord{Q: 0, R: 0}}, {ID: 2, Coord: world.HexCoord{Q: 1, R: 0}}},
		2: {{ID: 3, Coord: world.HexCoord{Q: 3, R: 0}}},
		3: {{ID: 4, Coord: world.HexCoord{Q: 20, R: 0}}},
		4: nil,
	}
	c := NewNeighborCache(3)
	c.Refresh(9, []social.FactionID{4, 3, 2, 1},
		func(id social.FactionID) []world.Territory { return held[id] },
		world.HexDistance)

	assert.Equal(t, uint64(9), c.Day())
	assert.Equal(t, 2, c.Proximity(1, 2))
	assert.Equal(t, c.Proximity(1, 2), c.Proximity(2, 1))
	assert.Equal(t, 2.0, c.MinDistance(2, 1))
	assert.False(t, c.Borders(1, 3))
	assert.Equal(t, 17.0, c.MinDistance(2, 3))
	assert.True(t, math.IsInf(c.MinDistance(1, 4), 1))
	assert.Equal(t, []social.FactionID{2}, c.NeighborsOf(1))
	assert.Empty(t, c.NeighborsOf(4))

	// A rebuild replaces everything.
	held[3] = []world.Territory{{ID: 4, Coord: world.HexCoord{Q: 4, R: 0}}}
	c.Refresh(10, []social.FactionID{1, 2, 3}, func(id social.FactionID) []world.Territory { return held[id] }, world.HexDistance)
	assert.Equal(t, []social.FactionID{2, 3}, c.NeighborsOf(1))
	assert.Equal(t, []social.FactionID{1, 3}, c.NeighborsOf(2))
}
