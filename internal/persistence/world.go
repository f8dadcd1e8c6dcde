package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/crossroads-diplomacy/internal/sandbox"
	"github.com/talgya/crossroads-diplomacy/internal/social"
	"github.com/talgya/crossroads-diplomacy/internal/world"
)

type factionRow struct {
	ID            uint64  `db:"id"`
	Name          string  `db:"name"`
	Strength      float64 `db:"strength"`
	Wealth        float64 `db:"wealth"`
	Honor         float64 `db:"honor"`
	Calculating   float64 `db:"calculating"`
	Militarism    float64 `db:"militarism"`
	Minor         bool    `db:"minor"`
	Eliminated    bool    `db:"eliminated"`
	Morale        float64 `db:"morale"`
	RelationsJSON string  `db:"relations_json"`
}

type territoryRow struct {
	ID        uint64  `db:"id"`
	Name      string  `db:"name"`
	Q         int     `db:"pos_q"`
	R         int     `db:"pos_r"`
	Owner     uint64  `db:"owner"`
	Culture   uint64  `db:"culture"`
	Fertility float64 `db:"fertility"`
}

// SaveWorld writes the sandbox's factions, territories and stances (full replace).
func (db *DB) SaveWorld(sv sandbox.Saved) error {
	slog.Info("saving world", "factions", len(sv.Factions), "territories", len(sv.Territories), "day", sv.Day)
	if err := db.inTx(func(tx *sqlx.Tx) error { return writeWorld(tx, sv) }); err != nil {
		return err
	}
	slog.Info("world saved")
	return nil
}

func writeWorld(tx *sqlx.Tx, sv sandbox.Saved) error {
	if _, err := tx.Exec("DELETE FROM factions"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM territories"); err != nil {
		return err
	}

	for _, f := range sv.Factions {
		relJSON, err := json.Marshal(f.Relations)
		if err != nil {
			return fmt.Errorf("encode relations %d: %w", f.ID, err)
		}
		morale, ok := sv.Morale[f.ID]
		if !ok {
			morale = 1
		}
		_, err = tx.Exec(`INSERT INTO factions
			(id, name, strength, wealth, honor, calculating, militarism, minor, eliminated, morale, relations_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			f.ID, f.Name, f.Strength, f.Wealth,
			f.Traits.Honor, f.Traits.Calculating, f.Traits.Militarism,
			f.Minor, f.Eliminated, morale, string(relJSON),
		)
		if err != nil {
			return fmt.Errorf("insert faction %d: %w", f.ID, err)
		}
	}

	stmt, err := tx.Preparex(`INSERT INTO territories
		(id, name, pos_q, pos_r, owner, culture, fertility) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, t := range sv.Territories {
		if _, err := stmt.Exec(t.ID, t.Name, t.Coord.Q, t.Coord.R, t.Owner, t.Culture, t.Fertility); err != nil {
			return fmt.Errorf("insert territory %d: %w", t.ID, err)
		}
	}

	ledger := social.NewLedger()
	ledger.Restore(sv.Stances)
	if err := writeLedger(tx, ledger); err != nil {
		return fmt.Errorf("save stances: %w", err)
	}
	return nil
}

// LoadWorld reads a saved sandbox. Seed and day come from the caller's session metadata.
func (db *DB) LoadWorld(seed int64, day uint64) (sandbox.Saved, error) {
	sv := sandbox.Saved{Seed: seed, Day: day, Morale: make(map[social.FactionID]float64)}

	var factions []factionRow
	if err := db.conn.Select(&factions, "SELECT * FROM factions ORDER BY id"); err != nil {
		return sv, fmt.Errorf("load factions: %w", err)
	}
	for _, r := range factions {
		f := social.Faction{
			ID:         social.FactionID(r.ID),
			Name:       r.Name,
			Strength:   r.Strength,
			Wealth:     r.Wealth,
			Traits:     social.Traits{Honor: r.Honor, Calculating: r.Calculating, Militarism: r.Militarism},
			Minor:      r.Minor,
			Eliminated: r.Eliminated,
			Relations:  make(map[social.FactionID]float64),
		}
		if err := json.Unmarshal([]byte(r.RelationsJSON), &f.Relations); err != nil {
			slog.Warn("faction relations unreadable, starting neutral", "faction", r.ID, "error", err)
			f.Relations = make(map[social.FactionID]float64)
		}
		sv.Factions = append(sv.Factions, f)
		sv.Morale[f.ID] = r.Morale
	}

	var territories []territoryRow
	if err := db.conn.Select(&territories, "SELECT * FROM territories ORDER BY id"); err != nil {
		return sv, fmt.Errorf("load territories: %w", err)
	}
	for _, r := range territories {
		sv.Territories = append(sv.Territories, world.Territory{
			ID:        world.TerritoryID(r.ID),
			Name:      r.Name,
			Coord:     world.HexCoord{Q: r.Q, R: r.R},
			Owner:     social.FactionID(r.Owner),
			Culture:   social.FactionID(r.Culture),
			Fertility: r.Fertility,
		})
	}

	stances, err := db.LoadLedger()
	if err != nil {
		return sv, err
	}
	sv.Stances = stances
	return sv, nil
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []sandbox.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (day, description, category) VALUES (?, ?, ?)",
			e.Day, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]sandbox.Event, error) {
	var events []sandbox.Event
	err := db.conn.Select(&events,
		"SELECT day, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}
