package sessions

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/agentcore/core/pkg/models"
)

// MemoryStore is an in-memory HistoryStore for tests and single-
// process deployments, grounded on the teacher's
// internal/sessions/memory.go.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	messages map[string][]models.Message
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.Session),
		messages: make(map[string][]models.Message),
	}
}

// CreateSession registers a session with the given default model,
// creating it if absent.
func (s *MemoryStore) CreateSession(sessionID, defaultModelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; ok {
		return
	}
	s.sessions[sessionID] = &models.Session{ID: sessionID, DefaultModelID: defaultModelID}
}

func (s *MemoryStore) GetSession(ctx context.Context, sessionID string) (models.Session, error) {
	if err := checkCtx(ctx); err != nil {
		return models.Session{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		// A session is implicitly created on first use with no default
		// model; callers that need a specific default should call
		// CreateSession first.
		sess = &models.Session{ID: sessionID}
		s.sessions[sessionID] = sess
	}
	return *sess, nil
}

func (s *MemoryStore) GetHistory(ctx context.Context, sessionID string) ([]models.Message, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.messages[sessionID]
	out := make([]models.Message, len(existing))
	copy(out, existing)
	return out, nil
}

func (s *MemoryStore) Append(ctx context.Context, msg models.Message) (models.Message, error) {
	if err := checkCtx(ctx); err != nil {
		return models.Message{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.messages[msg.SessionID]
	maxSeq := 0
	for _, m := range existing {
		if m.Sequence > maxSeq {
			maxSeq = m.Sequence
		}
	}
	msg.Sequence = maxSeq + 1
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	s.messages[msg.SessionID] = append(existing, msg)
	return msg, nil
}
