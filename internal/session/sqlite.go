package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/steelforge/takeoff/internal/common"
	"github.com/steelforge/takeoff/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS import_sessions (
	id         TEXT PRIMARY KEY,
	tenant_id  TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_import_sessions_expires_at ON import_sessions(expires_at);
`

// SQLiteStore implements Store on SQLite, letting staged sessions survive a
// process restart. The full session is stored as a JSON payload; only the
// keys needed for lookup and expiry live in columns.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (creating if needed) the session database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Create stores a new session, purging expired rows opportunistically.
func (s *SQLiteStore) Create(ctx context.Context, session *model.ImportSession) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("session with an id is required")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	now := s.now()
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM import_sessions WHERE expires_at <= ?", now.Unix()); err != nil {
		return fmt.Errorf("failed to purge expired sessions: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO import_sessions (id, tenant_id, payload, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		session.ID, session.TenantID, string(payload),
		session.CreatedAt.Unix(), session.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Get returns an unexpired session.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.ImportSession, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM import_sessions WHERE id = ? AND expires_at > ?",
		id, s.now().Unix()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return unmarshalSession(payload)
}

// Update applies fn inside a transaction, so concurrent updates to the same
// session serialize on the row and the whole record is last-writer-wins.
func (s *SQLiteStore) Update(ctx context.Context, id string, fn func(*model.ImportSession) error) (*model.ImportSession, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var payload string
	err = tx.QueryRowContext(ctx,
		"SELECT payload FROM import_sessions WHERE id = ? AND expires_at > ?",
		id, s.now().Unix()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	session, err := unmarshalSession(payload)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return nil, err
	}

	updated, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE import_sessions SET payload = ?, expires_at = ? WHERE id = ?",
		string(updated), session.ExpiresAt.Unix(), id); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit session update: %w", err)
	}

	return session, nil
}

// Remove evicts a session. Expired rows count as already gone.
func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM import_sessions WHERE id = ? AND expires_at > ?",
		id, s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return common.ErrSessionNotFound
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func unmarshalSession(payload string) (*model.ImportSession, error) {
	var session model.ImportSession
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}
