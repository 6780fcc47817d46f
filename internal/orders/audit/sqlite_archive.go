// Package audit provides a durable overflow archive for the bounded
// in-memory suspicious-event log in orders.AuditLog, backed by
// modernc.org/sqlite (as in Vitadek-OwnWorld's embedded-store
// approach) rather than a running database service; the archive is
// meant to live next to a single arenad process.
package audit

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/jediswimmer/ironcurtain/internal/orders"
	_ "modernc.org/sqlite"
)

// SQLiteArchive appends dropped suspicious events to a local sqlite
// file. It implements orders.Archiver.
type SQLiteArchive struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenSQLiteArchive opens (creating if necessary) the archive database
// at path and ensures its schema exists.
func OpenSQLiteArchive(path string) (*SQLiteArchive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit archive: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS suspicious_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	agent_id TEXT NOT NULL,
	match_id TEXT NOT NULL,
	reason TEXT NOT NULL,
	tick INTEGER NOT NULL,
	observed_at DATETIME NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit archive: %w", err)
	}
	return &SQLiteArchive{db: db}, nil
}

// Append writes ev to the archive. Failures are swallowed beyond a
// best-effort log line at the call site's discretion; the archive is
// a convenience for offline mining, never a path the validator's hot
// loop can block on.
func (a *SQLiteArchive) Append(ev orders.SuspiciousEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, _ = a.db.Exec(
		`INSERT INTO suspicious_events (agent_id, match_id, reason, tick, observed_at) VALUES (?, ?, ?, ?, ?)`,
		ev.AgentID, ev.MatchID, ev.Reason, ev.Tick, ev.Timestamp,
	)
}

func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}
