// Package archive persists session transcripts to SQLite. A Store is a
// core.Observer, so attaching it to a team records every message as it is
// appended.
package archive

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/logging"
)

type Store struct {
	db     *sql.DB
	logger logging.Logger

	mu  sync.Mutex
	err error
}

// Session is an archived session row.
type Session struct {
	ID         string
	Name       string
	Task       string
	StopReason string
	Turns      int
	Messages   int
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Open creates (or reopens) the archive at path. ":memory:" keeps it in memory.
func Open(path string, logger logging.Logger) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %s: %w", p, err)
		}
	}

	s := &Store{db: db, logger: logging.OrNoOp(logger)}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL DEFAULT '',
			task        TEXT NOT NULL DEFAULT '',
			stop_reason TEXT NOT NULL DEFAULT '',
			turns       INTEGER NOT NULL DEFAULT 0,
			started_at  DATETIME NOT NULL,
			finished_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id          TEXT PRIMARY KEY,
			session_id  TEXT NOT NULL REFERENCES sessions(id),
			seq         INTEGER NOT NULL,
			turn        INTEGER NOT NULL,
			sender      TEXT NOT NULL,
			kind        TEXT NOT NULL,
			role        TEXT NOT NULL,
			text        TEXT NOT NULL,
			calls       TEXT,
			results     TEXT,
			created_at  DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, seq)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// FinishSession stores the name and outcome of a session whose messages were
// already saved.
func (s *Store) FinishSession(id, name, stopReason string, turns int) error {
	res, err := s.db.Exec(`
		UPDATE sessions SET name = ?, stop_reason = ?, turns = ?, finished_at = ?
		WHERE id = ?`,
		name, stopReason, turns, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish session %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// SaveMessage stores one transcript entry, creating the session row on first
// sight and taking the session task from the opening message. Saving the same
// message twice is a no-op.
func (s *Store) SaveMessage(msg core.Message) error {
	if msg.SessionID == "" {
		return errors.New("save message: session id is required")
	}
	rec := msg.Record()

	calls, err := marshalOptional(rec.Calls)
	if err != nil {
		return fmt.Errorf("marshal calls: %w", err)
	}
	results, err := marshalOptional(rec.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var task string
	if rec.Sender == core.TaskSender && rec.Turn == 0 && rec.Kind == core.KindText {
		task = rec.Text
	}
	if _, err := tx.Exec(`
		INSERT INTO sessions (id, task, started_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET task = CASE WHEN excluded.task != '' THEN excluded.task ELSE sessions.task END`,
		rec.SessionID, task, ts.UTC()); err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO messages (id, session_id, seq, turn, sender, kind, role, text, calls, results, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		rec.ID, rec.SessionID, rec.Seq, rec.Turn, rec.Sender, string(rec.Kind), rec.Role,
		rec.Text, calls, results, ts.UTC()); err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return tx.Commit()
}

// Messages returns the transcript of a session in append order.
func (s *Store) Messages(sessionID string) ([]core.Message, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, seq, turn, sender, kind, role, text, calls, results, created_at
		FROM messages
		WHERE session_id = ?
		ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer rows.Close()

	var messages []core.Message
	for rows.Next() {
		var (
			rec            core.Record
			kind           string
			calls, results sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Seq, &rec.Turn, &rec.Sender, &kind,
			&rec.Role, &rec.Text, &calls, &results, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		rec.Kind = core.Kind(kind)
		if calls.Valid {
			if err := json.Unmarshal([]byte(calls.String), &rec.Calls); err != nil {
				return nil, fmt.Errorf("decode calls: %w", err)
			}
		}
		if results.Valid {
			if err := json.Unmarshal([]byte(results.String), &rec.Results); err != nil {
				return nil, fmt.Errorf("decode results: %w", err)
			}
		}
		messages = append(messages, rec.Message())
	}
	return messages, rows.Err()
}

// Sessions lists archived sessions, most recent first.
func (s *Store) Sessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT s.id, s.name, s.task, s.stop_reason, s.turns, s.started_at, s.finished_at,
			(SELECT COUNT(*) FROM messages m WHERE m.session_id = s.id AND m.kind = ?)
		FROM sessions s
		ORDER BY s.started_at DESC
		LIMIT ?`, string(core.KindText), limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			sess     Session
			finished sql.NullTime
		)
		if err := rows.Scan(&sess.ID, &sess.Name, &sess.Task, &sess.StopReason, &sess.Turns,
			&sess.StartedAt, &finished, &sess.Messages); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			sess.FinishedAt = &t
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// OnMessage implements core.Observer. Write failures are logged and the first
// one is kept for Err so a broken archive never stops a session.
func (s *Store) OnMessage(msg core.Message) {
	if err := s.SaveMessage(msg); err != nil {
		s.logger.Warn("archive.save.failed", "session_id", msg.SessionID, "seq", msg.Seq, "error", err)
		s.mu.Lock()
		if s.err == nil {
			s.err = err
		}
		s.mu.Unlock()
	}
}

// OnChunk implements core.Observer. Partial output is not archived.
func (s *Store) OnChunk(string, string, string) {}

// Err returns the first error hit while observing.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func marshalOptional[T any](items []T) (any, error) {
	if len(items) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
