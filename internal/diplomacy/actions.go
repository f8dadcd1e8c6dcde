package diplomacy

import (
	"errors"
	"fmt"

	"github.com/talgya/crossroads-diplomacy/internal/config"
	"github.com/talgya/crossroads-diplomacy/internal/social"
)

// ActionKind is a world mutation the engine can request.
type ActionKind uint8

const (
	ActionNone ActionKind = iota
	ActionDeclareWar
	ActionMakePeace
	ActionFormAlliance
	ActionBreakAlliance
	ActionFormPact
	ActionBreakPact
)

var actionNames = map[ActionKind]string{
	ActionNone:          "none",
	ActionDeclareWar:    "declare_war",
	ActionMakePeace:     "make_peace",
	ActionFormAlliance:  "form_alliance",
	ActionBreakAlliance: "break_alliance",
	ActionFormPact:      "form_pact",
	ActionBreakPact:     "break_pact",
}

func (a ActionKind) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

// ParseAction maps a stored action name back to its kind.
func ParseAction(name string) (ActionKind, error) {
	for k, n := range actionNames {
		if n == name {
			return k, nil
		}
	}
	return ActionNone, fmt.Errorf("unknown action %q", name)
}

// Action is a concrete request from Actor against Target.
type Action struct {
	Kind    ActionKind
	Actor   social.FactionID
	Target  social.FactionID
	Tribute float64 // Paid by Actor on ActionMakePeace
}

// ErrStalePrecondition is returned when the world changed between scoring and mutation.
var ErrStalePrecondition = errors.New("stale precondition")

// cooldownDays returns how long a pair is suppressed after action.
func cooldownDays(cfg *config.Config, action ActionKind) uint64 {
	c := cfg.Cooldowns
	switch action {
	case ActionDeclareWar:
		return c.War
	case ActionMakePeace:
		return c.Peace
	case ActionFormAlliance:
		return c.Alliance
	case ActionBreakAlliance:
		return c.BreakAlliance
	case ActionFormPact:
		return c.Pact
	case ActionBreakPact:
		return c.BreakPact
	default:
		return 0
	}
}

// checkPreconditions re-reads the live world immediately before a mutation.
// Two factions targeting each other in one tick resolve as first writer wins:
// the second finds the relation already changed and aborts here.
func checkPreconditions(s *Snapshot, act Action) error {
	a, b := act.Actor, act.Target
	if a == b {
		return fmt.Errorf("%w: %s targets itself", ErrStalePrecondition, act.Kind)
	}
	if !s.Active(a) || !s.Active(b) {
		return fmt.Errorf("%w: %s involves an eliminated faction", ErrStalePrecondition, act.Kind)
	}
	war, allied, pact := s.AtWar(a, b), s.Allied(a, b), s.Pacted(a, b)
	var ok bool
	switch act.Kind {
	case ActionDeclareWar:
		ok = !war && !allied && !pact
	case ActionMakePeace:
		ok = war
	case ActionFormAlliance:
		ok = !war && !allied
	case ActionBreakAlliance:
		ok = allied
	case ActionFormPact:
		ok = !war && !pact && !allied
	case ActionBreakPact:
		ok = pact
	default:
		return fmt.Errorf("%w: nothing to apply for %s", ErrStalePrecondition, act.Kind)
	}
	if !ok {
		return fmt.Errorf("%w: %s between %d and %d no longer applies", ErrStalePrecondition, act.Kind, a, b)
	}
	return nil
}

// apply invokes the matching world mutation.
func apply(m Mutator, act Action, reason string) error {
	switch act.Kind {
	case ActionDeclareWar:
		return m.DeclareWar(act.Actor, act.Target)
	case ActionMakePeace:
		return m.MakePeace(act.Actor, act.Target, act.Tribute)
	case ActionFormAlliance:
		return m.FormAlliance(act.Actor, act.Target, reason)
	case ActionBreakAlliance:
		return m.BreakAlliance(act.Actor, act.Target, reason)
	case ActionFormPact:
		return m.FormPact(act.Actor, act.Target, reason)
	case ActionBreakPact:
		return m.BreakPact(act.Actor, act.Target)
	default:
		return fmt.Errorf("no mutation for %s", act.Kind)
	}
}
