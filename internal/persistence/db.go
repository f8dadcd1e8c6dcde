// Package persistence provides SQLite-based storage for diplomacy sessions and the sandbox world.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Meta keys.
const (
	MetaSessionID = "session_id"
	MetaSeed      = "seed"
	MetaLastDay   = "last_day"
)

// DB wraps a SQLite connection.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS faction_timers (
		faction_id INTEGER PRIMARY KEY,
		desire REAL NOT NULL,
		period INTEGER NOT NULL,
		timer INTEGER NOT NULL,
		war_lock_until INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cooldowns (
		action TEXT NOT NULL,
		lo INTEGER NOT NULL,
		hi INTEGER NOT NULL,
		since INTEGER NOT NULL,
		days INTEGER NOT NULL,
		PRIMARY KEY (action, lo, hi)
	);

	CREATE TABLE IF NOT EXISTS exhaustion (
		of_id INTEGER NOT NULL,
		against_id INTEGER NOT NULL,
		value REAL NOT NULL,
		PRIMARY KEY (of_id, against_id)
	);

	CREATE TABLE IF NOT EXISTS war_openings (
		lo INTEGER NOT NULL,
		hi INTEGER NOT NULL,
		start INTEGER NOT NULL,
		territories_lo INTEGER NOT NULL,
		territories_hi INTEGER NOT NULL,
		PRIMARY KEY (lo, hi)
	);

	CREATE TABLE IF NOT EXISTS stance_records (
		lo INTEGER NOT NULL,
		hi INTEGER NOT NULL,
		stance INTEGER NOT NULL,
		since INTEGER NOT NULL,
		reason TEXT NOT NULL,
		PRIMARY KEY (lo, hi)
	);

	CREATE TABLE IF NOT EXISTS factions (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		strength REAL NOT NULL,
		wealth REAL NOT NULL,
		honor REAL NOT NULL,
		calculating REAL NOT NULL,
		militarism REAL NOT NULL,
		minor INTEGER NOT NULL,
		eliminated INTEGER NOT NULL,
		morale REAL NOT NULL,
		relations_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS territories (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		pos_q INTEGER NOT NULL,
		pos_r INTEGER NOT NULL,
		owner INTEGER NOT NULL,
		culture INTEGER NOT NULL,
		fertility REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_day ON events(day);
	CREATE INDEX IF NOT EXISTS idx_territories_owner ON territories(owner);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value. A missing key returns sql.ErrNoRows.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// HasSession reports whether a session has been saved to this database.
func (db *DB) HasSession() (bool, error) {
	_, err := db.GetMeta(MetaSessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SessionInfo is the identifying metadata of a saved session.
type SessionInfo struct {
	ID      string
	Seed    int64
	LastDay uint64
}

// LoadSessionInfo reads the saved session metadata.
func (db *DB) LoadSessionInfo() (SessionInfo, error) {
	var info SessionInfo
	var err error
	if info.ID, err = db.GetMeta(MetaSessionID); err != nil {
		return info, fmt.Errorf("session id: %w", err)
	}
	seed, err := db.GetMeta(MetaSeed)
	if err != nil {
		return info, fmt.Errorf("seed: %w", err)
	}
	if info.Seed, err = strconv.ParseInt(seed, 10, 64); err != nil {
		return info, fmt.Errorf("seed %q: %w", seed, err)
	}
	// A session saved before its first day has no last_day yet.
	if last, err := db.GetMeta(MetaLastDay); err == nil {
		if info.LastDay, err = strconv.ParseUint(last, 10, 64); err != nil {
			return info, fmt.Errorf("last day %q: %w", last, err)
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return info, fmt.Errorf("last day: %w", err)
	}
	return info, nil
}

func writeSessionInfo(tx *sqlx.Tx, info SessionInfo) error {
	for _, kv := range [][2]string{
		{MetaSessionID, info.ID},
		{MetaSeed, strconv.FormatInt(info.Seed, 10)},
		{MetaLastDay, strconv.FormatUint(info.LastDay, 10)},
	} {
		if _, err := tx.Exec("INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)", kv[0], kv[1]); err != nil {
			return fmt.Errorf("save %s: %w", kv[0], err)
		}
	}
	return nil
}

// inTx runs fn in one transaction, committing only if fn succeeds.
func (db *DB) inTx(fn func(tx *sqlx.Tx) error) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func logSaved(what string, args ...any) {
	slog.Debug("saved "+what, args...)
}
