package diplomacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/crossroads-diplomacy/internal/config"
	"github.com/talgya/crossroads-diplomacy/internal/social"
)

func newLoop(w *testWorld, st *State, r *Registry) *DecisionLoop {
	return NewDecisionLoop(config.Default(), w, w, st, NewGoalSystem(r), NewSeeder(7), quietLogger())
}

// due makes id evaluate on its next tick with full desire.
func due(st *State, id social.FactionID) {
	st.Factions[id] = &FactionTimers{Desire: 100, Period: 5, Timer: 4}
}

func outcomeFor(outs []Outcome, id social.FactionID) (Outcome, bool) {
	for _, o := range outs {
		if o.Faction == id {
			return o, true
		}
	}
	return Outcome{}, false
}

// preyWorld: a strong warlike faction next to a small weak one.
func preyWorld() *testWorld {
	w := newTestWorld().
		add(1, 300, 500_000, 5, 0, 0).
		add(2, 60, 500_000, 2, 6, 0)
	w.edit(1, func(f *social.Faction) { f.Traits.Militarism = 1 })
	return w
}

func TestDueFactionDeclaresWar(t *testing.T) {
	w := preyWorld()
	st := NewState()
	due(st, 1)
	l := newLoop(w, st, nil)

	outs := l.Tick(1)
	require.Len(t, outs, 1)
	o := outs[0]
	assert.True(t, o.Executed, o.Skipped)
	assert.Equal(t, GoalExpand, o.Goal)
	assert.Equal(t, ActionDeclareWar, o.Action)
	assert.Equal(t, social.FactionID(2), o.Target)
	assert.InDelta(t, 58.2, o.Priority, 1e-6)
	assert.Equal(t, 35.0, o.Threshold)
	assert.Equal(t,
		"F1 declares war on F2 because a weak neighbor sits on its border (+25) and it outmatches F2 (+20).",
		o.Reason)

	assert.Equal(t, []string{"war 1 2"}, w.calls)
	assert.True(t, st.OnCooldown(ActionDeclareWar, 2, 1, 30))
	assert.False(t, st.OnCooldown(ActionDeclareWar, 1, 2, 31))

	tm := st.Timers(1)
	assert.Equal(t, 0.0, tm.Desire)
	assert.Equal(t, 0, tm.Timer)
	assert.Equal(t, uint64(11), tm.WarLockUntil)
	assert.GreaterOrEqual(t, tm.Period, 5)
	assert.LessOrEqual(t, tm.Period, 10)

	opening, ok := st.Wars[social.MakePair(1, 2)]
	require.True(t, ok)
	assert.Equal(t, WarOpening{Pair: social.MakePair(1, 2), Start: 1, TerritoriesLo: 5, TerritoriesHi: 2}, opening)
}

func TestFactionWaitsForPeriodAndGate(t *testing.T) {
	w := preyWorld()
	st := NewState()
	st.Factions[1] = &FactionTimers{Desire: 100, Period: 5, Timer: 2}
	st.Factions[2] = &FactionTimers{Desire: 0, Period: 5, Timer: 4}
	l := newLoop(w, st, nil)

	assert.Empty(t, l.Tick(1))
	assert.Equal(t, 3, st.Timers(1).Timer)
	// Faction 2 ran out its period but its desire is far below the gate.
	assert.Equal(t, 5, st.Timers(2).Timer)
	assert.Empty(t, w.calls)
}

func TestNewFactionStartsWithSmallDesire(t *testing.T) {
	w := preyWorld()
	st := NewState()
	l := newLoop(w, st, nil)
	l.Tick(1)

	cfg := config.Default()
	for _, id := range []social.FactionID{1, 2} {
		tm := st.Timers(id)
		require.NotNil(t, tm)
		assert.Equal(t, 1, tm.Timer)
		assert.GreaterOrEqual(t, tm.Period, cfg.Desire.PeriodMin)
		assert.LessOrEqual(t, tm.Period, cfg.Desire.PeriodMax)
		assert.Less(t, tm.Desire, cfg.WarThreshold(0))
	}
}

func TestMutatorFailureLeavesNoCooldown(t *testing.T) {
	w := preyWorld()
	w.failWith = errRefused
	st := NewState()
	due(st, 1)

	outs := newLoop(w, st, nil).Tick(1)
	require.Len(t, outs, 1)
	assert.False(t, outs[0].Executed)
	assert.Contains(t, outs[0].Skipped, "refused")
	assert.False(t, st.OnCooldown(ActionDeclareWar, 1, 2, 1))
	assert.Empty(t, st.Wars)
}

func TestRejectedAllianceStartsCooldown(t *testing.T) {
	w := newTestWorld().
		add(1, 100, 500_000, 5, 0, 0).
		add(2, 100, 500_000, 5, 0, 4).
		add(3, 100, 500_000, 5, 20, 0).
		add(4, 100, 500_000, 5, 20, 10).
		war(1, 3, 0).
		war(2, 3, 0).
		war(1, 4, 0).
		ally(2, 4).
		relate(1, 2, 100)
	st := NewState()
	due(st, 1)

	r := NewRegistry()
	require.NoError(t, r.Register(GoalDef{
		Kind: GoalFormAlliance, Action: ActionFormAlliance, Targets: allianceTargets, Score: AllianceScore,
	}))
	l := newLoop(w, st, r)

	o, ok := outcomeFor(l.Tick(40), 1)
	require.True(t, ok)
	assert.Equal(t, ActionFormAlliance, o.Action)
	assert.Equal(t, social.FactionID(2), o.Target)
	assert.InDelta(t, 65.0, o.Priority, 1e-9)
	assert.Equal(t, "rejected by target", o.Skipped)
	assert.False(t, o.Executed)
	assert.Empty(t, w.calls)

	assert.True(t, st.OnCooldown(ActionFormAlliance, 2, 1, 54))
	assert.False(t, st.OnCooldown(ActionFormAlliance, 1, 2, 55))
	// Decay applies only on success.
	assert.Greater(t, st.Timers(1).Desire, 90.0)
}

func TestLosingFactionSuesForPeace(t *testing.T) {
	w := newTestWorld().
		add(1, 60, 500_000, 2, 0, 0).
		add(2, 240, 500_000, 8, 2, 0).
		war(1, 2, 0)
	st := NewState()
	st.Exhaustion[DirectedPair{Of: 1, Against: 2}] = 40
	due(st, 1)
	st.Factions[2] = &FactionTimers{Desire: 10, Period: 5}
	l := newLoop(w, st, nil)

	o, ok := outcomeFor(l.Tick(50), 1)
	require.True(t, ok)
	require.True(t, o.Executed, o.Skipped)
	assert.Equal(t, StateDesperate, o.Posture)
	assert.Equal(t, GoalSurvive, o.Goal)
	assert.Contains(t, o.Reason, "F1 makes peace with F2, paying 60,000 crowns in tribute, because")

	assert.Equal(t, []string{"peace 1 2"}, w.calls)
	assert.Equal(t, 0.0, st.Timers(1).Desire)
	assert.NotContains(t, st.Wars, social.MakePair(1, 2))
	assert.True(t, st.OnCooldown(ActionMakePeace, 1, 2, 69))
}

func TestPanickingFactionIsIsolated(t *testing.T) {
	w := newTestWorld().
		add(1, 100, 500_000, 3, 0, 0).
		add(2, 100, 500_000, 3, 10, 0)
	st := NewState()
	due(st, 1)
	due(st, 2)

	r := NewRegistry()
	require.NoError(t, r.Register(GoalDef{
		Kind: GoalStrengthen,
		Score: func(s *Snapshot, owner, _ social.FactionID) ExplainedScore {
			if owner == 1 {
				panic("corrupt record")
			}
			return StrengthenScore(s, owner, 0)
		},
	}))

	outs := newLoop(w, st, r).Tick(1)
	require.Len(t, outs, 1)
	assert.Equal(t, social.FactionID(2), outs[0].Faction)
	assert.Equal(t, GoalStrengthen, outs[0].Goal)
	assert.Equal(t, "no world action", outs[0].Skipped)
	assert.Equal(t, "F2 turns inward to rebuild because its lands need tending (+15).", outs[0].Reason)
}

func TestSecondProposerFindsStalePrecondition(t *testing.T) {
	w := preyWorld()
	s := snapshotOf(w, 1, nil)
	act := Action{Kind: ActionDeclareWar, Actor: 2, Target: 1}
	require.NoError(t, checkPreconditions(s, act))

	require.NoError(t, w.DeclareWar(1, 2))
	assert.ErrorIs(t, checkPreconditions(s, act), ErrStalePrecondition)
	assert.ErrorIs(t, checkPreconditions(s, Action{Kind: ActionMakePeace, Actor: 1, Target: 1}), ErrStalePrecondition)
	assert.NoError(t, checkPreconditions(s, Action{Kind: ActionMakePeace, Actor: 2, Target: 1}))
}

func TestAsymmetricStanceCountsAsAbsent(t *testing.T) {
	w := preyWorld()
	w.oneSided[[2]social.FactionID{1, 2}] = true
	s := snapshotOf(w, 1, nil)

	assert.False(t, s.AtWar(1, 2))
	assert.False(t, s.AtWar(2, 1))
	assert.Empty(t, s.Enemies(1))
	assert.False(t, WarDesireScore(s, 1, 2).Ineligible)
}

func TestGateAndActionThresholds(t *testing.T) {
	w := newTestWorld().
		add(1, 100, 500_000, 5, 0, 0).
		add(2, 100, 500_000, 5, 6, 0).
		add(3, 100, 500_000, 5, 0, 6).
		add(4, 100, 500_000, 5, 12, 0)
	l := newLoop(w, NewState(), nil)

	s := l.Refresh(1)
	assert.Equal(t, 35.0, l.Gate(s, 1))
	assert.Equal(t, 35.0, l.ActionThreshold(s, 1, ActionDeclareWar))
	assert.Equal(t, 50.0, l.ActionThreshold(s, 1, ActionFormAlliance))
	assert.Equal(t, 45.0, l.ActionThreshold(s, 1, ActionFormPact))
	assert.Equal(t, 0.0, l.ActionThreshold(s, 1, ActionNone))

	w.war(1, 2, 1).war(1, 3, 1)
	s = l.Refresh(2)
	assert.Equal(t, 30.0, l.Gate(s, 1))
	assert.Equal(t, 55.0, l.ActionThreshold(s, 1, ActionDeclareWar))
	assert.Equal(t, 30.0, l.ActionThreshold(s, 1, ActionMakePeace))
	assert.Equal(t, 35.0, l.Gate(s, 4))
}

func TestRefreshAdvancesOncePerDay(t *testing.T) {
	w := newTestWorld().
		add(1, 100, 500_000, 3, 0, 0).
		add(2, 100, 500_000, 3, 3, 0).
		war(1, 2, 0)
	st := NewState()
	l := newLoop(w, st, nil)

	l.Refresh(1)
	l.Refresh(1)
	assert.Equal(t, 1.0, st.ExhaustionOf(1, 2))
	l.Refresh(2)
	assert.Equal(t, 2.0, st.ExhaustionOf(1, 2))
	require.Contains(t, st.Wars, social.MakePair(1, 2))

	// Peace: the opening is forgotten and fatigue recovers.
	w.ledger.Clear(1, 2)
	l.Refresh(3)
	assert.NotContains(t, st.Wars, social.MakePair(1, 2))
	assert.Equal(t, 0.0, st.ExhaustionOf(1, 2))
}

func TestWarPressureRaisesDesire(t *testing.T) {
	w := newTestWorld().
		add(1, 100, 500_000, 3, 0, 0).
		add(2, 100, 500_000, 3, 3, 0).
		war(1, 2, 0)
	calm, tired := NewState(), NewState()
	tired.Exhaustion[DirectedPair{Of: 1, Against: 2}] = 50
	l := newLoop(w, NewState(), nil)

	d0 := l.DesireDelta(snapshotOf(w, 9, calm), 1)
	d1 := l.DesireDelta(snapshotOf(w, 9, tired), 1)
	assert.InDelta(t, 4.0, d1-d0, 1e-9)
}

func TestEliminatedFactionsArePruned(t *testing.T) {
	w := preyWorld()
	st := NewState()
	st.Factions[2] = &FactionTimers{Desire: 20, Period: 6}
	st.SetCooldown(ActionFormPact, 1, 2, 0, 100)
	st.Exhaustion[DirectedPair{Of: 2, Against: 1}] = 30
	w.edit(2, func(f *social.Faction) { f.Eliminated = true })

	newLoop(w, st, nil).Refresh(5)
	assert.Nil(t, st.Timers(2))
	assert.Empty(t, st.Cooldowns)
	assert.Empty(t, st.Exhaustion)
}
