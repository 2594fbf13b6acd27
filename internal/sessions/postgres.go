package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	_ "github.com/lib/pq"

	"github.com/agentcore/core/pkg/models"
)

// PostgresStore is a HistoryStore backed by database/sql over
// github.com/lib/pq, grounded on the teacher's
// internal/sessions/cockroach.go. CockroachDB is wire-compatible with
// PostgreSQL, so the same driver and SQL dialect serve both.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an already-open *sql.DB. Callers own the
// connection lifecycle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is the DDL this store expects; callers apply it via their
// own migration tooling.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	default_model_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	sequence INTEGER NOT NULL,
	role TEXT NOT NULL,
	content JSONB,
	tool_call_id TEXT,
	tool_name TEXT,
	tool_input JSONB,
	tool_output JSONB,
	model_id TEXT,
	UNIQUE (session_id, sequence)
);
`

func (s *PostgresStore) GetSession(ctx context.Context, sessionID string) (models.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, default_model_id FROM sessions WHERE id = $1`, sessionID)
	var sess models.Session
	if err := row.Scan(&sess.ID, &sess.DefaultModelID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, insErr := s.db.ExecContext(ctx, `INSERT INTO sessions (id, default_model_id) VALUES ($1, '') ON CONFLICT (id) DO NOTHING`, sessionID); insErr != nil {
				return models.Session{}, fmt.Errorf("create session: %w", insErr)
			}
			return models.Session{ID: sessionID}, nil
		}
		return models.Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

func (s *PostgresStore) GetHistory(ctx context.Context, sessionID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, sequence, role, content, tool_call_id, tool_name, tool_input, tool_output, model_id
		FROM messages WHERE session_id = $1 ORDER BY sequence ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var m models.Message
		var content, toolInput, toolOutput []byte
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Sequence, &m.Role, &content, &m.ToolCallID, &m.ToolName, &toolInput, &toolOutput, &m.ModelID); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Content = json.RawMessage(content)
		m.ToolInput = json.RawMessage(toolInput)
		m.ToolOutput = json.RawMessage(toolOutput)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Append allocates the next sequence number and writes msg inside a
// transaction scoped by a row lock on the owning session, matching
// the per-session critical section spec §5 requires.
func (s *PostgresStore) Append(ctx context.Context, msg models.Message) (models.Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Message{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			_ = rbErr
		}
	}()

	if _, err := tx.ExecContext(ctx, `SELECT id FROM sessions WHERE id = $1 FOR UPDATE`, msg.SessionID); err != nil {
		return models.Message{}, fmt.Errorf("lock session: %w", err)
	}

	var maxSeq sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(sequence) FROM messages WHERE session_id = $1`, msg.SessionID).Scan(&maxSeq); err != nil {
		return models.Message{}, fmt.Errorf("read max sequence: %w", err)
	}
	msg.Sequence = int(maxSeq.Int64) + 1
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, session_id, sequence, role, content, tool_call_id, tool_name, tool_input, tool_output, model_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		msg.ID, msg.SessionID, msg.Sequence, msg.Role, nullableJSON(msg.Content), msg.ToolCallID, msg.ToolName, nullableJSON(msg.ToolInput), nullableJSON(msg.ToolOutput), msg.ModelID,
	); err != nil {
		return models.Message{}, fmt.Errorf("insert message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Message{}, fmt.Errorf("commit: %w", err)
	}
	return msg, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
