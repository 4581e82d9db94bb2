// Package archive keeps an append-only history of world events in sqlite.
// It is strictly best-effort observability: a nil *Archive disables recording,
// and every database error is logged and dropped.
package archive

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Event names recorded in the history table.
const (
	EventBillboardPlaced  = "billboard_placed"
	EventBillboardRemoved = "billboard_removed"
	EventPowerupSpawned   = "powerup_spawned"
	EventPowerupCollected = "powerup_collected"
	EventPowerupExpired   = "powerup_expired"
	EventTerrainSubmitted = "terrain_submitted"
)

// Entry is one recorded world event.
type Entry struct {
	ID       int64  `json:"id"`
	Event    string `json:"event"`
	EntityID string `json:"entityId"`
	Detail   string `json:"detail,omitempty"`
	At       int64  `json:"at"` // epoch ms
}

// Archive wraps the sqlite history database.
type Archive struct {
	db *sql.DB
}

// Open creates or opens the history database at path.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		detail TEXT,
		at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, err
	}
	return &Archive{db: db}, nil
}

// Close releases the database handle.
func (a *Archive) Close() {
	if a == nil || a.db == nil {
		return
	}
	a.db.Close()
}

// Record appends one event. Safe on a nil archive.
func (a *Archive) Record(event, entityID, detail string) {
	if a == nil || a.db == nil {
		return
	}

	_, err := a.db.Exec(
		"INSERT INTO events (event, entity_id, detail, at) VALUES (?, ?, ?, ?)",
		event, entityID, detail, time.Now().UnixMilli(),
	)
	if err != nil {
		log.Printf("Error recording %s event for %s: %v", event, entityID, err)
	}
}

// Recent returns up to limit events, newest first.
func (a *Archive) Recent(limit int) []Entry {
	if a == nil || a.db == nil {
		return nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.db.Query(
		"SELECT id, event, entity_id, COALESCE(detail, ''), at FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		log.Printf("Error querying event history: %v", err)
		return nil
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Event, &e.EntityID, &e.Detail, &e.At); err != nil {
			log.Printf("Error scanning event row: %v", err)
			return out
		}
		out = append(out, e)
	}
	return out
}
