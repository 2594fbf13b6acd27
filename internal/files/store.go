// Package files implements agent.FileStore: uploaded originals plus
// per-page rendered WebP images keyed by (file_id, page_number).
package files

import (
	"context"
	"sync"
	"time"

	"github.com/agentcore/core/internal/agent"
	"github.com/agentcore/core/pkg/models"
)

var _ agent.FileStore = (*MemoryStore)(nil)
var _ agent.FileStore = (*S3Store)(nil)

// MaxInlineDataBytes is the size limit for page data kept directly in
// the in-memory store, grounded on the teacher's
// internal/artifacts/limits.go. Put does not check it.
const MaxInlineDataBytes = 1024 * 1024

// MemoryStore is an in-memory FileStore for tests and small
// deployments, grounded on internal/artifacts/repository.go's inline
// data path and internal/artifacts/cleanup.go's TTL sweep.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.FileRecord
	pages   map[string][]models.FilePage
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]models.FileRecord),
		pages:   make(map[string][]models.FilePage),
	}
}

// Put registers a file record and its rendered pages.
func (s *MemoryStore) Put(rec models.FileRecord, pages []models.FilePage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	s.pages[rec.ID] = pages
}

func (s *MemoryStore) Lookup(ctx context.Context, fileID string) (models.FileRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[fileID]
	if !ok {
		return models.FileRecord{}, false, nil
	}
	if !rec.ExpiresAt.IsZero() && time.Now().After(rec.ExpiresAt) {
		return models.FileRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *MemoryStore) Pages(ctx context.Context, fileID string) ([]models.FilePage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pages := s.pages[fileID]
	out := make([]models.FilePage, len(pages))
	for i, p := range pages {
		out[i] = p
		out[i].Data = append([]byte(nil), p.Data...)
	}
	return out, nil
}

// PruneExpired removes file records (and their pages) past ExpiresAt,
// grounded on the teacher's ticker-driven CleanupService.
func (s *MemoryStore) PruneExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	pruned := 0
	for id, rec := range s.records {
		if !rec.ExpiresAt.IsZero() && now.After(rec.ExpiresAt) {
			delete(s.records, id)
			delete(s.pages, id)
			pruned++
		}
	}
	return pruned
}
