package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/crossroads-diplomacy/internal/diplomacy"
	"github.com/talgya/crossroads-diplomacy/internal/sandbox"
	"github.com/talgya/crossroads-diplomacy/internal/social"
)

const metaLastRefresh = "last_refresh"

type timerRow struct {
	FactionID    uint64  `db:"faction_id"`
	Desire       float64 `db:"desire"`
	Period       int     `db:"period"`
	Timer        int     `db:"timer"`
	WarLockUntil uint64  `db:"war_lock_until"`
}

type cooldownRow struct {
	Action string `db:"action"`
	Lo     uint64 `db:"lo"`
	Hi     uint64 `db:"hi"`
	Since  uint64 `db:"since"`
	Days   uint64 `db:"days"`
}

type exhaustionRow struct {
	Of      uint64  `db:"of_id"`
	Against uint64  `db:"against_id"`
	Value   float64 `db:"value"`
}

type warRow struct {
	Lo            uint64 `db:"lo"`
	Hi            uint64 `db:"hi"`
	Start         uint64 `db:"start"`
	TerritoriesLo int    `db:"territories_lo"`
	TerritoriesHi int    `db:"territories_hi"`
}

type stanceRow struct {
	Lo     uint64 `db:"lo"`
	Hi     uint64 `db:"hi"`
	Stance uint8  `db:"stance"`
	Since  uint64 `db:"since"`
	Reason string `db:"reason"`
}

// SaveState writes the engine's cooldown and timer store (full replace).
func (db *DB) SaveState(st *diplomacy.State) error {
	if err := db.inTx(func(tx *sqlx.Tx) error { return writeState(tx, st) }); err != nil {
		return err
	}
	logSaved("engine state", "factions", len(st.Factions), "cooldowns", len(st.Cooldowns), "wars", len(st.Wars))
	return nil
}

func writeState(tx *sqlx.Tx, st *diplomacy.State) error {
	for _, table := range []string{"faction_timers", "cooldowns", "exhaustion", "war_openings"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, id := range st.FactionIDs() {
		t := st.Factions[id]
		_, err := tx.NamedExec(`INSERT INTO faction_timers
			(faction_id, desire, period, timer, war_lock_until)
			VALUES (:faction_id, :desire, :period, :timer, :war_lock_until)`,
			timerRow{FactionID: uint64(id), Desire: t.Desire, Period: t.Period, Timer: t.Timer, WarLockUntil: t.WarLockUntil})
		if err != nil {
			return fmt.Errorf("insert timers %d: %w", id, err)
		}
	}

	for _, key := range st.CooldownKeys() {
		cd := st.Cooldowns[key]
		_, err := tx.Exec("INSERT INTO cooldowns (action, lo, hi, since, days) VALUES (?, ?, ?, ?, ?)",
			key.Action.String(), key.Pair.Lo, key.Pair.Hi, cd.Since, cd.Days)
		if err != nil {
			return fmt.Errorf("insert cooldown %s %s: %w", key.Action, key.Pair, err)
		}
	}

	for key, v := range st.Exhaustion {
		_, err := tx.Exec("INSERT INTO exhaustion (of_id, against_id, value) VALUES (?, ?, ?)",
			key.Of, key.Against, v)
		if err != nil {
			return fmt.Errorf("insert exhaustion %d→%d: %w", key.Of, key.Against, err)
		}
	}

	for key, w := range st.Wars {
		_, err := tx.Exec(`INSERT INTO war_openings (lo, hi, start, territories_lo, territories_hi)
			VALUES (?, ?, ?, ?, ?)`, key.Lo, key.Hi, w.Start, w.TerritoriesLo, w.TerritoriesHi)
		if err != nil {
			return fmt.Errorf("insert war opening %s: %w", key, err)
		}
	}

	refresh := ""
	if st.Refreshed {
		refresh = strconv.FormatUint(st.LastRefresh, 10)
	}
	if _, err := tx.Exec("INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)", metaLastRefresh, refresh); err != nil {
		return fmt.Errorf("save last refresh: %w", err)
	}
	return nil
}

// LoadState reads the engine store. Empty tables yield an empty store. Rows that
// cannot be interpreted (unknown action names, self-pairs) are skipped with a warning.
func (db *DB) LoadState() (*diplomacy.State, error) {
	st := diplomacy.NewState()

	var timers []timerRow
	if err := db.conn.Select(&timers, "SELECT * FROM faction_timers"); err != nil {
		return nil, fmt.Errorf("load timers: %w", err)
	}
	for _, r := range timers {
		st.Factions[social.FactionID(r.FactionID)] = &diplomacy.FactionTimers{
			Desire: r.Desire, Period: r.Period, Timer: r.Timer, WarLockUntil: r.WarLockUntil,
		}
	}

	var cooldowns []cooldownRow
	if err := db.conn.Select(&cooldowns, "SELECT action, lo, hi, since, days FROM cooldowns"); err != nil {
		return nil, fmt.Errorf("load cooldowns: %w", err)
	}
	for _, r := range cooldowns {
		action, err := diplomacy.ParseAction(r.Action)
		if err != nil || r.Lo == r.Hi {
			slog.Warn("skipping unreadable cooldown", "action", r.Action, "lo", r.Lo, "hi", r.Hi)
			continue
		}
		key := diplomacy.CooldownKey{Action: action, Pair: social.MakePair(social.FactionID(r.Lo), social.FactionID(r.Hi))}
		st.Cooldowns[key] = diplomacy.Cooldown{Since: r.Since, Days: r.Days}
	}

	var exhaustion []exhaustionRow
	if err := db.conn.Select(&exhaustion, "SELECT of_id, against_id, value FROM exhaustion"); err != nil {
		return nil, fmt.Errorf("load exhaustion: %w", err)
	}
	for _, r := range exhaustion {
		st.Exhaustion[diplomacy.DirectedPair{Of: social.FactionID(r.Of), Against: social.FactionID(r.Against)}] = r.Value
	}

	var wars []warRow
	if err := db.conn.Select(&wars, "SELECT lo, hi, start, territories_lo, territories_hi FROM war_openings"); err != nil {
		return nil, fmt.Errorf("load war openings: %w", err)
	}
	for _, r := range wars {
		if r.Lo == r.Hi {
			continue
		}
		key := social.MakePair(social.FactionID(r.Lo), social.FactionID(r.Hi))
		st.Wars[key] = diplomacy.WarOpening{Pair: key, Start: r.Start, TerritoriesLo: r.TerritoriesLo, TerritoriesHi: r.TerritoriesHi}
	}

	refresh, err := db.GetMeta(metaLastRefresh)
	switch {
	case errors.Is(err, sql.ErrNoRows), err == nil && refresh == "":
	case err != nil:
		return nil, fmt.Errorf("load last refresh: %w", err)
	default:
		day, err := strconv.ParseUint(refresh, 10, 64)
		if err != nil {
			slog.Warn("ignoring unreadable last refresh", "value", refresh)
			break
		}
		st.LastRefresh, st.Refreshed = day, true
	}
	return st, nil
}

// SaveLedger writes the stance ledger (full replace).
func (db *DB) SaveLedger(l *social.Ledger) error {
	if err := db.inTx(func(tx *sqlx.Tx) error { return writeLedger(tx, l) }); err != nil {
		return err
	}
	logSaved("ledger", "records", l.Len())
	return nil
}

func writeLedger(tx *sqlx.Tx, l *social.Ledger) error {
	if _, err := tx.Exec("DELETE FROM stance_records"); err != nil {
		return err
	}
	for _, rec := range l.Records() {
		_, err := tx.NamedExec(`INSERT INTO stance_records (lo, hi, stance, since, reason)
			VALUES (:lo, :hi, :stance, :since, :reason)`, stanceRow{
			Lo: uint64(rec.Pair.Lo), Hi: uint64(rec.Pair.Hi), Stance: uint8(rec.Stance), Since: rec.Since, Reason: rec.Reason,
		})
		if err != nil {
			return fmt.Errorf("insert stance %s: %w", rec.Pair, err)
		}
	}
	return nil
}

// LoadLedger reads every stance record, ordered by pair.
func (db *DB) LoadLedger() ([]social.StanceRecord, error) {
	var rows []stanceRow
	if err := db.conn.Select(&rows, "SELECT lo, hi, stance, since, reason FROM stance_records ORDER BY lo, hi"); err != nil {
		return nil, fmt.Errorf("load stances: %w", err)
	}
	out := make([]social.StanceRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, social.StanceRecord{
			Pair:   social.MakePair(social.FactionID(r.Lo), social.FactionID(r.Hi)),
			Stance: social.Stance(r.Stance),
			Since:  r.Since,
			Reason: r.Reason,
		})
	}
	return out, nil
}

// SaveSession stores the session's identity and engine state as of day.
func (db *DB) SaveSession(s *diplomacy.Session, day uint64) error {
	return db.inTx(func(tx *sqlx.Tx) error { return writeSession(tx, s, day) })
}

// SaveCheckpoint stores the world and the session that drives it in one
// transaction, so a resume never pairs a world with state from another day.
func (db *DB) SaveCheckpoint(sv sandbox.Saved, s *diplomacy.Session, day uint64) error {
	err := db.inTx(func(tx *sqlx.Tx) error {
		if err := writeWorld(tx, sv); err != nil {
			return fmt.Errorf("save world: %w", err)
		}
		return writeSession(tx, s, day)
	})
	if err != nil {
		return err
	}
	logSaved("checkpoint", "session", s.ID, "day", day)
	return nil
}

func writeSession(tx *sqlx.Tx, s *diplomacy.Session, day uint64) error {
	if err := writeState(tx, s.State()); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	if err := writeSessionInfo(tx, SessionInfo{ID: s.ID, Seed: s.Seed, LastDay: day}); err != nil {
		return fmt.Errorf("save session meta: %w", err)
	}
	return nil
}
