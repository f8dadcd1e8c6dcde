package diplomacy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talgya/crossroads-diplomacy/internal/social"
)

func testNames(id social.FactionID) string {
	return map[social.FactionID]string{1: "Aldmark", 2: "Brennhold"}[id]
}

func TestExplainCitesTopTwoTerms(t *testing.T) {
	var sc ExplainedScore
	sc.Add("base", 10, "")
	sc.Add("shared enemy", 15, "both are at war with Corvane")
	sc.Add("synergy", 20, "together they field 2.0× the strongest rival")
	sc.Add("allied to enemy", -60, "should never be cited")

	r := NewReasoner(testNames)
	got := r.Explain(Action{Kind: ActionFormAlliance, Actor: 1, Target: 2}, sc)
	assert.Equal(t,
		"Aldmark forms an alliance with Brennhold because together they field 2.0× the strongest rival (+20) and both are at war with Corvane (+15).",
		got)
	assert.Equal(t, got, r.Explain(Action{Kind: ActionFormAlliance, Actor: 1, Target: 2}, sc))
}

func TestExplainDegradesWithoutPositiveTerms(t *testing.T) {
	var sc ExplainedScore
	sc.Add("inertia", -30, "")
	sc.Add("broken", math.NaN(), "nan")
	sc.Add("bad", 5, "50% off\n")
	sc.Clamp(0, 100)

	r := NewReasoner(testNames)
	assert.Equal(t, "Aldmark tears up its pact with Brennhold.", r.Explain(Action{Kind: ActionBreakPact, Actor: 1, Target: 2}, sc))
}

func TestExplainTiesKeepTermOrder(t *testing.T) {
	var sc ExplainedScore
	sc.Add("first", 7.5, "")
	sc.Add("second", 7.5, "")
	sc.Add("third", 7.5, "")
	got := NewReasoner(testNames).Explain(Action{Kind: ActionDeclareWar, Actor: 2, Target: 1}, sc)
	assert.Equal(t, "Brennhold declares war on Aldmark because first (+7.5) and second (+7.5).", got)
}

func TestExplainHeadlines(t *testing.T) {
	r := NewReasoner(nil)
	tests := []struct {
		act  Action
		want string
	}{
		{Action{Kind: ActionMakePeace, Actor: 1, Target: 2, Tribute: 12345.6}, "faction 1 makes peace with faction 2, paying 12,346 crowns in tribute."},
		{Action{Kind: ActionMakePeace, Actor: 1, Target: 2, Tribute: 0.4}, "faction 1 makes peace with faction 2."},
		{Action{Kind: ActionBreakAlliance, Actor: 1, Target: 2}, "faction 1 abandons its alliance with faction 2."},
		{Action{Kind: ActionFormPact, Actor: 1, Target: 2}, "faction 1 signs a non-aggression pact with faction 2."},
		{Action{Kind: ActionNone, Actor: 1}, "faction 1 turns inward to rebuild."},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, r.Explain(tc.act, ExplainedScore{}))
	}
	assert.Equal(t, "faction 1 declares war on faction 2.",
		r.Explain(Action{Kind: ActionDeclareWar, Actor: 1, Target: 2}, Ineligible(-100, "no")))
}

func TestExplainKeepsPercentagesInNotes(t *testing.T) {
	w := newTestWorld().
		add(1, 200, 500_000, 3, 0, 0).
		add(2, 80, 500_000, 3, 3, 0).
		add(3, 100, 500_000, 3, 20, 0).
		pact(1, 2).
		war(2, 3, 0)
	sc := BreakPactScore(snapshotOf(w, 1, nil), 1, 2)

	got := NewReasoner(testNames).Explain(Action{Kind: ActionBreakPact, Actor: 1, Target: 2}, sc)
	assert.Equal(t,
		"Aldmark tears up its pact with Brennhold because F2 has fallen to 40% of its strength (+24) and F2 is tied down in 1 war(s) (+10).",
		got)
}

func TestExplainDropsBrokenFormatting(t *testing.T) {
	var sc ExplainedScore
	sc.Add("garbled", 30, "%!d(string=north)")
	sc.Add("debt", 12, "owes 5% interest")

	got := NewReasoner(testNames).Explain(Action{Kind: ActionDeclareWar, Actor: 1, Target: 2}, sc)
	assert.Equal(t, "Aldmark declares war on Brennhold because owes 5% interest (+12).", got)
}
