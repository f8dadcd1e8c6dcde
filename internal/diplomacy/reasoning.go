package diplomacy

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/crossroads-diplomacy/internal/social"
)

// maxCauses is how many terms a justification cites.
const maxCauses = 2

// Reasoner turns a score's dominant terms into a one-sentence justification.
// Output is for observability only; nothing reads it back for control flow.
type Reasoner struct {
	name func(social.FactionID) string
}

// NewReasoner creates a reasoner that resolves faction names with name.
func NewReasoner(name func(social.FactionID) string) *Reasoner {
	if name == nil {
		name = func(id social.FactionID) string { return fmt.Sprintf("faction %d", id) }
	}
	return &Reasoner{name: name}
}

// Explain justifies act from sc. Identical input yields identical text. Terms that
// cannot be rendered are dropped; with none left the sentence ends after the action.
func (r *Reasoner) Explain(act Action, sc ExplainedScore) string {
	var b strings.Builder
	b.WriteString(r.headline(act))

	causes := r.causes(sc)
	if len(causes) > 0 {
		if act.Kind == ActionMakePeace && act.Tribute >= 1 {
			b.WriteString(",")
		}
		b.WriteString(" because ")
		b.WriteString(strings.Join(causes, " and "))
	}
	b.WriteString(".")
	return b.String()
}

func (r *Reasoner) headline(act Action) string {
	actor, target := r.name(act.Actor), r.name(act.Target)
	switch act.Kind {
	case ActionDeclareWar:
		return fmt.Sprintf("%s declares war on %s", actor, target)
	case ActionMakePeace:
		if act.Tribute >= 1 {
			return fmt.Sprintf("%s makes peace with %s, paying %s crowns in tribute",
				actor, target, humanize.Comma(int64(math.Round(act.Tribute))))
		}
		return fmt.Sprintf("%s makes peace with %s", actor, target)
	case ActionFormAlliance:
		return fmt.Sprintf("%s forms an alliance with %s", actor, target)
	case ActionBreakAlliance:
		return fmt.Sprintf("%s abandons its alliance with %s", actor, target)
	case ActionFormPact:
		return fmt.Sprintf("%s signs a non-aggression pact with %s", actor, target)
	case ActionBreakPact:
		return fmt.Sprintf("%s tears up its pact with %s", actor, target)
	default:
		return fmt.Sprintf("%s turns inward to rebuild", actor)
	}
}

// causes renders the largest positive contributions, largest first.
func (r *Reasoner) causes(sc ExplainedScore) []string {
	if sc.Ineligible {
		return nil
	}
	type ranked struct {
		idx  int
		term Term
	}
	var cand []ranked
	for i, t := range sc.Terms {
		if t.Label == boundsLabel || t.Label == "" {
			continue
		}
		if math.IsNaN(t.Value) || math.IsInf(t.Value, 0) || t.Value <= 0 {
			continue
		}
		cand = append(cand, ranked{idx: i, term: t})
	}
	sort.SliceStable(cand, func(i, j int) bool {
		if cand[i].term.Value != cand[j].term.Value {
			return cand[i].term.Value > cand[j].term.Value
		}
		return cand[i].idx < cand[j].idx
	})

	var out []string
	for _, c := range cand {
		if len(out) == maxCauses {
			break
		}
		phrase := c.term.Note
		if phrase == "" {
			phrase = c.term.Label
		}
		if malformed(phrase) {
			continue
		}
		out = append(out, fmt.Sprintf("%s (%s)", phrase, signed(c.term.Value)))
	}
	return out
}

// malformed reports a note that would break the sentence: a line break or a
// fmt verb that failed to render ("%!d(string=x)", "%!(EXTRA ...)").
func malformed(phrase string) bool {
	return strings.ContainsRune(phrase, '\n') || strings.Contains(phrase, "%!")
}

// signed formats a contribution like "+12" or "+7.5".
func signed(v float64) string {
	return "+" + humanize.FtoaWithDigits(v, 1)
}
