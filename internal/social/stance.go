package social

import (
	"fmt"
	"sort"
)

// Stance is the diplomatic relationship state between two factions.
type Stance uint8

const (
	StanceNone     Stance = iota // At peace, no treaty
	StanceWar                    // Open war
	StanceAlliance               // Defensive alliance
	StancePact                   // Non-aggression pact
)

// String returns the lower-case stance name used in logs and storage.
func (s Stance) String() string {
	switch s {
	case StanceNone:
		return "none"
	case StanceWar:
		return "war"
	case StanceAlliance:
		return "alliance"
	case StancePact:
		return "pact"
	default:
		return fmt.Sprintf("stance(%d)", uint8(s))
	}
}

// PairKey identifies an unordered pair of factions. Lo is always the smaller ID,
// so MakePair(a, b) == MakePair(b, a).
type PairKey struct {
	Lo FactionID `json:"lo" db:"lo"`
	Hi FactionID `json:"hi" db:"hi"`
}

// MakePair builds the order-independent key for a and b.
func MakePair(a, b FactionID) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{Lo: a, Hi: b}
}

// Other returns the member of the pair that is not id.
func (p PairKey) Other(id FactionID) FactionID {
	if p.Lo == id {
		return p.Hi
	}
	return p.Lo
}

// Has reports whether id is a member of the pair.
func (p PairKey) Has(id FactionID) bool {
	return p.Lo == id || p.Hi == id
}

func (p PairKey) String() string {
	return fmt.Sprintf("%d-%d", p.Lo, p.Hi)
}

// StanceRecord is the single shared record for a pair. There is never a second copy
// owned by the other side, so the two views cannot desynchronize.
type StanceRecord struct {
	Pair   PairKey `json:"pair"`
	Stance Stance  `json:"stance"`
	Since  uint64  `json:"since"` // Sim-day the stance began
	Reason string  `json:"reason,omitempty"`
}

// Ledger holds every non-neutral stance keyed by PairKey.
type Ledger struct {
	records map[PairKey]StanceRecord
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{records: make(map[PairKey]StanceRecord)}
}

// Stance returns the stance between a and b. Self-pairs are always StanceNone.
func (l *Ledger) Stance(a, b FactionID) Stance {
	if a == b {
		return StanceNone
	}
	return l.records[MakePair(a, b)].Stance
}

// Record returns the full record for a pair, if one exists.
func (l *Ledger) Record(a, b FactionID) (StanceRecord, bool) {
	rec, ok := l.records[MakePair(a, b)]
	return rec, ok
}

// Set replaces whatever stance the pair had. Setting StanceNone clears the record.
func (l *Ledger) Set(a, b FactionID, stance Stance, day uint64, reason string) {
	if a == b {
		return
	}
	key := MakePair(a, b)
	if stance == StanceNone {
		delete(l.records, key)
		return
	}
	l.records[key] = StanceRecord{Pair: key, Stance: stance, Since: day, Reason: reason}
}

// Clear removes the record for a pair.
func (l *Ledger) Clear(a, b FactionID) {
	delete(l.records, MakePair(a, b))
}

// ClearFaction removes every record involving id (used on elimination).
func (l *Ledger) ClearFaction(id FactionID) {
	for key := range l.records {
		if key.Has(id) {
			delete(l.records, key)
		}
	}
}

// Partners returns the IDs holding the given stance with id, ascending.
func (l *Ledger) Partners(id FactionID, stance Stance) []FactionID {
	var out []FactionID
	for key, rec := range l.records {
		if rec.Stance == stance && key.Has(id) {
			out = append(out, key.Other(id))
		}
	}
	return SortIDs(out)
}

// Records returns all records sorted by pair for stable iteration and storage.
func (l *Ledger) Records() []StanceRecord {
	out := make([]StanceRecord, 0, len(l.records))
	for _, rec := range l.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pair.Lo != out[j].Pair.Lo {
			return out[i].Pair.Lo < out[j].Pair.Lo
		}
		return out[i].Pair.Hi < out[j].Pair.Hi
	})
	return out
}

// Restore replaces the ledger contents with recs. Self-pairs and neutral records are dropped.
func (l *Ledger) Restore(recs []StanceRecord) {
	l.records = make(map[PairKey]StanceRecord, len(recs))
	for _, rec := range recs {
		if rec.Pair.Lo == rec.Pair.Hi || rec.Stance == StanceNone {
			continue
		}
		rec.Pair = MakePair(rec.Pair.Lo, rec.Pair.Hi)
		l.records[rec.Pair] = rec
	}
}

// Len returns the number of non-neutral pairs.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Clone returns an independent copy.
func (l *Ledger) Clone() *Ledger {
	c := NewLedger()
	for k, v := range l.records {
		c.records[k] = v
	}
	return c
}
