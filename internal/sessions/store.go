// Package sessions implements agent.HistoryStore: ordered,
// sequence-numbered per-session message persistence.
package sessions

import (
	"context"
	"errors"

	"github.com/agentcore/core/internal/agent"
)

// ErrSessionNotFound names a missing session. Neither store returns
// it: both GetSession implementations create a session that does not
// exist yet.
var ErrSessionNotFound = errors.New("sessions: session not found")

// compile-time interface checks, adapted in place of the teacher's
// registry of concrete store implementations.
var (
	_ agent.HistoryStore = (*MemoryStore)(nil)
	_ agent.HistoryStore = (*PostgresStore)(nil)
)

// checkCtx is a tiny helper MemoryStore uses to make sure a cancelled
// context is honored even though the in-memory path performs no real
// blocking I/O. PostgresStore passes ctx to database/sql instead.
func checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
