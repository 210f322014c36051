package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/visionops/camsight/internal/core/domain"
)

// OpenDB opens a pooled connection through the pgx stdlib driver and verifies
// connectivity before returning.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return db, nil
}

const schemaLockID = 874223011

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL,
		query_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS session_queries (
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		query_num  INTEGER NOT NULL,
		query_text TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		result     JSONB NOT NULL,
		PRIMARY KEY (session_id, query_num)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions (updated_at DESC)`,
}

// EnsureSchema creates the tables under an advisory lock so concurrent
// replicas do not race on DDL.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("postgres: acquire conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("postgres: advisory lock: %w", err)
	}
	defer conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, schemaLockID)

	for _, stmt := range schemaStatements {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: ensure schema: %w", err)
		}
	}
	return nil
}

// SessionStore persists the append-only session log.
type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Create(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, title, created_at, updated_at, query_count) VALUES ($1, $2, $3, $4, 0)`,
		session.ID, session.Title, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create session %s: %w", session.ID, err)
	}
	return nil
}

func (s *SessionStore) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	session := &domain.Session{Queries: []domain.QueryRecord{}}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at, updated_at FROM sessions WHERE id = $1`, id,
	).Scan(&session.ID, &session.Title, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "get session", fmt.Errorf("id %s", id))
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get session %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT query_num, query_text, created_at, result
		 FROM session_queries WHERE session_id = $1 ORDER BY query_num`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: load queries for %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var record domain.QueryRecord
		var resultJSON []byte
		if err := rows.Scan(&record.QueryNum, &record.QueryText, &record.Timestamp, &resultJSON); err != nil {
			return nil, fmt.Errorf("postgres: scan query row: %w", err)
		}
		if err := json.Unmarshal(resultJSON, &record.Result); err != nil {
			return nil, fmt.Errorf("postgres: decode result for %s#%d: %w", id, record.QueryNum, err)
		}
		session.Queries = append(session.Queries, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate queries for %s: %w", id, err)
	}
	return session, nil
}

func (s *SessionStore) List(ctx context.Context) ([]domain.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at, query_count FROM sessions ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sessions: %w", err)
	}
	defer rows.Close()

	summaries := []domain.SessionSummary{}
	for rows.Next() {
		var summary domain.SessionSummary
		if err := rows.Scan(&summary.ID, &summary.Title, &summary.CreatedAt, &summary.UpdatedAt, &summary.QueryCount); err != nil {
			return nil, fmt.Errorf("postgres: scan session row: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate sessions: %w", err)
	}
	return summaries, nil
}

// AppendQuery assigns the next sequence number, stores the record, and bumps
// the session. The first appended query also titles the session.
func (s *SessionStore) AppendQuery(ctx context.Context, sessionID string, record domain.QueryRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin append: %w", err)
	}
	defer tx.Rollback()

	var queryNum int
	err = tx.QueryRowContext(ctx,
		`UPDATE sessions SET query_count = query_count + 1, updated_at = $2 WHERE id = $1 RETURNING query_count`,
		sessionID, record.Timestamp,
	).Scan(&queryNum)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WrapError(domain.ErrSessionNotFound, "append query", fmt.Errorf("id %s", sessionID))
	}
	if err != nil {
		return fmt.Errorf("postgres: bump session %s: %w", sessionID, err)
	}

	if queryNum == 1 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions SET title = $2 WHERE id = $1`,
			sessionID, domain.SessionTitle(record.QueryText),
		); err != nil {
			return fmt.Errorf("postgres: title session %s: %w", sessionID, err)
		}
	}

	resultJSON, err := json.Marshal(record.Result)
	if err != nil {
		return fmt.Errorf("postgres: encode result: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO session_queries (session_id, query_num, query_text, created_at, result) VALUES ($1, $2, $3, $4, $5)`,
		sessionID, queryNum, record.QueryText, record.Timestamp, resultJSON,
	); err != nil {
		return fmt.Errorf("postgres: insert query %s#%d: %w", sessionID, queryNum, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit append: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete session %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: delete session %s: %w", id, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrSessionNotFound, "delete session", fmt.Errorf("id %s", id))
	}
	return nil
}
