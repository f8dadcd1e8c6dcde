package diplomacy

import (
	"fmt"
	"math"
	"strings"
)

// boundsLabel marks the adjustment term appended by Clamp.
const boundsLabel = "bounds"

// Term is one labeled contribution to a score. Note is a rendered phrase for reasoning.
type Term struct {
	Label string
	Value float64
	Note  string
}

// ExplainedScore is an ordered list of contributions. Total is always their sum.
type ExplainedScore struct {
	Terms      []Term
	Ineligible bool
	Reason     string // Why the candidate is ineligible
}

// Ineligible builds the sentinel score for a candidate that cannot be considered.
func Ineligible(sentinel float64, reason string) ExplainedScore {
	return ExplainedScore{
		Terms:      []Term{{Label: "ineligible", Value: sentinel, Note: reason}},
		Ineligible: true,
		Reason:     reason,
	}
}

// Add appends a contribution. Zero-valued terms are kept so callers can inspect them.
func (s *ExplainedScore) Add(label string, value float64, note string) {
	s.Terms = append(s.Terms, Term{Label: label, Value: value, Note: note})
}

// Addf appends a contribution with a formatted note.
func (s *ExplainedScore) Addf(label string, value float64, format string, args ...any) {
	s.Add(label, value, fmt.Sprintf(format, args...))
}

// Total returns the sum of all contributions.
func (s ExplainedScore) Total() float64 {
	total := 0.0
	for _, t := range s.Terms {
		total += t.Value
	}
	return total
}

// Term returns the value of the first term with the given label.
func (s ExplainedScore) Term(label string) (float64, bool) {
	for _, t := range s.Terms {
		if t.Label == label {
			return t.Value, true
		}
	}
	return 0, false
}

// Clamp appends a bounds term so the total lands inside [lo, hi].
// Ineligible scores are left alone.
func (s *ExplainedScore) Clamp(lo, hi float64) {
	if s.Ineligible {
		return
	}
	total := s.Total()
	switch {
	case total < lo:
		s.Add(boundsLabel, lo-total, "")
	case total > hi:
		s.Add(boundsLabel, hi-total, "")
	}
}

// String renders the score for debug logs.
func (s ExplainedScore) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%.1f", s.Total())
	if s.Ineligible {
		fmt.Fprintf(&b, " (ineligible: %s)", s.Reason)
		return b.String()
	}
	b.WriteString(" [")
	for i, t := range s.Terms {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%+.1f", t.Label, t.Value)
	}
	b.WriteString("]")
	return b.String()
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// ratio divides safely; a zero denominator yields fallback.
func ratio(num, den, fallback float64) float64 {
	if den <= 0 {
		return fallback
	}
	return num / den
}

// tier returns table[n], or the last entry when n runs past the end.
func tier(table []float64, n int) float64 {
	if len(table) == 0 {
		return 0
	}
	if n < 0 {
		n = 0
	}
	if n >= len(table) {
		return table[len(table)-1]
	}
	return table[n]
}
