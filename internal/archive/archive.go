// Package archive persists continuity state and per-turn provenance in
// SQLite. Every committed turn becomes a new parent-linked continuity
// version; an active pointer per conversation names the version a restarted
// process resumes from.
package archive

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/halcyon-labs/attune/internal/continuity"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	conversation_id TEXT PRIMARY KEY,
	created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS continuity_versions (
	version_id      TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	parent_id       TEXT,
	state_json      TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	FOREIGN KEY (conversation_id) REFERENCES conversations(conversation_id),
	FOREIGN KEY (parent_id) REFERENCES continuity_versions(version_id)
);

CREATE TABLE IF NOT EXISTS active_continuity (
	conversation_id TEXT PRIMARY KEY,
	version_id      TEXT NOT NULL,
	FOREIGN KEY (conversation_id) REFERENCES conversations(conversation_id),
	FOREIGN KEY (version_id) REFERENCES continuity_versions(version_id)
);

CREATE TABLE IF NOT EXISTS provenance_log (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id TEXT NOT NULL,
	version_id      TEXT NOT NULL,
	turn_index      INTEGER NOT NULL,
	route           TEXT NOT NULL,
	stance          TEXT,
	pace            TEXT,
	blocks_used     TEXT,
	suppressed      TEXT,
	safety          REAL,
	attunement      REAL,
	decision        TEXT NOT NULL,
	reason          TEXT,
	created_at      TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES continuity_versions(version_id)
);
`

// #endregion schema

// #region records

// VersionRecord is one persisted continuity version.
type VersionRecord struct {
	VersionID      string
	ConversationID string
	ParentID       string
	State          *continuity.State
	CreatedAt      time.Time
}

// TurnEntry is one provenance row: what was composed and why.
type TurnEntry struct {
	ConversationID string
	VersionID      string
	TurnIndex      int
	Route          string
	Stance         string
	Pace           string
	BlocksUsed     string
	Suppressed     string
	Safety         float64
	Attunement     float64
	Decision       string
	Reason         string
	CreatedAt      time.Time
}

// #endregion records

// #region store

// Store manages versioned continuity state in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store

// #region ensure-conversation

// EnsureConversation registers a conversation ID, idempotently.
func (s *Store) EnsureConversation(conversationID string) error {
	_, err := s.db.Exec(
		`INSERT INTO conversations (conversation_id, created_at) VALUES (?, ?)
		 ON CONFLICT(conversation_id) DO NOTHING`,
		conversationID, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("ensure conversation: %w", err)
	}
	return nil
}

// #endregion ensure-conversation

// #region commit

// CommitVersion inserts a new continuity version, parent-linked to the
// current active version, and moves the active pointer atomically.
func (s *Store) CommitVersion(conversationID string, state *continuity.State) (VersionRecord, error) {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return VersionRecord{}, fmt.Errorf("marshal state: %w", err)
	}

	rec := VersionRecord{
		VersionID:      uuid.New().String(),
		ConversationID: conversationID,
		State:          state,
		CreatedAt:      time.Now().UTC(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return VersionRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parent sql.NullString
	err = tx.QueryRow(
		`SELECT version_id FROM active_continuity WHERE conversation_id = ?`,
		conversationID,
	).Scan(&parent)
	if err != nil && err != sql.ErrNoRows {
		return VersionRecord{}, fmt.Errorf("read active: %w", err)
	}
	if parent.Valid {
		rec.ParentID = parent.String
	}

	var parentPtr interface{}
	if rec.ParentID != "" {
		parentPtr = rec.ParentID
	}

	_, err = tx.Exec(
		`INSERT INTO continuity_versions (version_id, conversation_id, parent_id, state_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.VersionID, conversationID, parentPtr, string(stateJSON),
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return VersionRecord{}, fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO active_continuity (conversation_id, version_id) VALUES (?, ?)
		 ON CONFLICT(conversation_id) DO UPDATE SET version_id = excluded.version_id`,
		conversationID, rec.VersionID,
	)
	if err != nil {
		return VersionRecord{}, fmt.Errorf("set active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return VersionRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// #endregion commit

// #region load

// LoadActive reads the active continuity version for a conversation.
// sql.ErrNoRows is returned untouched when the conversation has no
// committed state yet.
func (s *Store) LoadActive(conversationID string) (VersionRecord, error) {
	var versionID string
	err := s.db.QueryRow(
		`SELECT version_id FROM active_continuity WHERE conversation_id = ?`,
		conversationID,
	).Scan(&versionID)
	if err != nil {
		return VersionRecord{}, err
	}
	return s.GetVersion(versionID)
}

// GetVersion retrieves a continuity version by ID.
func (s *Store) GetVersion(id string) (VersionRecord, error) {
	var rec VersionRecord
	var parentID sql.NullString
	var stateJSON string
	var createdStr string

	err := s.db.QueryRow(
		`SELECT version_id, conversation_id, parent_id, state_json, created_at
		 FROM continuity_versions WHERE version_id = ?`, id,
	).Scan(&rec.VersionID, &rec.ConversationID, &parentID, &stateJSON, &createdStr)
	if err != nil {
		return VersionRecord{}, fmt.Errorf("get version %s: %w", id, err)
	}

	if parentID.Valid {
		rec.ParentID = parentID.String
	}
	rec.State = &continuity.State{}
	if err := json.Unmarshal([]byte(stateJSON), rec.State); err != nil {
		return VersionRecord{}, fmt.Errorf("unmarshal state: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

// #endregion load

// #region rollback

// Rollback points the conversation's active continuity at an earlier
// version.
func (s *Store) Rollback(conversationID, targetVersionID string) error {
	var exists int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM continuity_versions WHERE version_id = ? AND conversation_id = ?`,
		targetVersionID, conversationID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("version %s not found for conversation %s", targetVersionID, conversationID)
	}

	_, err = s.db.Exec(
		`UPDATE active_continuity SET version_id = ? WHERE conversation_id = ?`,
		targetVersionID, conversationID,
	)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// #endregion rollback

// #region list

// ListVersions returns the most recent continuity versions for a
// conversation.
func (s *Store) ListVersions(conversationID string, limit int) ([]VersionRecord, error) {
	rows, err := s.db.Query(
		`SELECT version_id, conversation_id, parent_id, state_json, created_at
		 FROM continuity_versions WHERE conversation_id = ?
		 ORDER BY created_at DESC LIMIT ?`, conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var records []VersionRecord
	for rows.Next() {
		var rec VersionRecord
		var parentID sql.NullString
		var stateJSON string
		var createdStr string

		if err := rows.Scan(&rec.VersionID, &rec.ConversationID, &parentID, &stateJSON, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if parentID.Valid {
			rec.ParentID = parentID.String
		}
		rec.State = &continuity.State{}
		if err := json.Unmarshal([]byte(stateJSON), rec.State); err != nil {
			return nil, fmt.Errorf("unmarshal state: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion list

// #region provenance

// LogTurn writes a provenance entry for one processed turn.
func (s *Store) LogTurn(entry TurnEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO provenance_log (conversation_id, version_id, turn_index, route, stance, pace, blocks_used, suppressed, safety, attunement, decision, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ConversationID,
		entry.VersionID,
		entry.TurnIndex,
		entry.Route,
		nullIfEmpty(entry.Stance),
		nullIfEmpty(entry.Pace),
		nullIfEmpty(entry.BlocksUsed),
		nullIfEmpty(entry.Suppressed),
		entry.Safety,
		entry.Attunement,
		entry.Decision,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log turn: %w", err)
	}
	return nil
}

// ListTurns returns provenance entries for a conversation in turn order.
func (s *Store) ListTurns(conversationID string, limit int) ([]TurnEntry, error) {
	rows, err := s.db.Query(
		`SELECT conversation_id, version_id, turn_index, route, stance, pace, blocks_used, suppressed, safety, attunement, decision, reason, created_at
		 FROM provenance_log WHERE conversation_id = ?
		 ORDER BY id ASC LIMIT ?`, conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var entries []TurnEntry
	for rows.Next() {
		var e TurnEntry
		var stance, pace, blocksUsed, suppressed, reason sql.NullString
		var createdStr string
		if err := rows.Scan(&e.ConversationID, &e.VersionID, &e.TurnIndex, &e.Route,
			&stance, &pace, &blocksUsed, &suppressed, &e.Safety, &e.Attunement,
			&e.Decision, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.Stance = stance.String
		e.Pace = pace.String
		e.BlocksUsed = blocksUsed.String
		e.Suppressed = suppressed.String
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion provenance
