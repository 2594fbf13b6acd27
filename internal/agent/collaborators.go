package agent

import (
	"context"

	"github.com/agentcore/core/pkg/models"
)

// HistoryStore persists ordered messages per session (spec §2 item 1).
// The loop reads full history and writes user messages, tool-call
// records, tool results, and final assistant messages. Implementations
// must scope Append's sequence allocation and its write in a per-session
// critical section (spec §5) — see sessionLocks for the loop side of
// that contract; a store backed by a real database should additionally
// take a row lock (e.g. SELECT ... FOR UPDATE) around the same write.
type HistoryStore interface {
	GetHistory(ctx context.Context, sessionID string) ([]models.Message, error)
	GetSession(ctx context.Context, sessionID string) (models.Session, error)
	// Append persists msg with an allocated sequence number (ignoring
	// any sequence the caller set) and returns the written copy.
	Append(ctx context.Context, msg models.Message) (models.Message, error)
}

// FileStore stores uploaded originals and per-page rendered WebP
// images keyed by (file_id, page_number) (spec §2 item 2). The core
// only ever calls Lookup/Pages.
type FileStore interface {
	Lookup(ctx context.Context, fileID string) (models.FileRecord, bool, error)
	Pages(ctx context.Context, fileID string) ([]models.FilePage, error)
}

// ToolRegistry maps a tool name to its executor and exposes the
// advertised schema set for a completion request (spec §2 item 4).
type ToolRegistry interface {
	Get(name string) (Tool, bool)
	Schemas() []ToolSchema
}
