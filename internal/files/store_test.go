package files

import (
	"context"
	"testing"
	"time"

	"github.com/agentcore/core/pkg/models"
)

func TestMemoryStoreLookupHidesExpiredRecord(t *testing.T) {
	store := NewMemoryStore()
	store.Put(models.FileRecord{
		ID:        "file-1",
		Name:      "doc.pdf",
		ExpiresAt: time.Now().Add(-time.Minute),
	}, nil)

	_, ok, err := store.Lookup(context.Background(), "file-1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Fatal("expected an expired record to be hidden from Lookup")
	}
}

func TestMemoryStorePagesReturnsDefensiveCopy(t *testing.T) {
	store := NewMemoryStore()
	store.Put(models.FileRecord{ID: "file-1", Name: "doc.pdf"}, []models.FilePage{
		{FileID: "file-1", PageNumber: 1, Data: []byte("page-one")},
	})

	pages, err := store.Pages(context.Background(), "file-1")
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	pages[0].Data[0] = 'X'

	again, _ := store.Pages(context.Background(), "file-1")
	if string(again[0].Data) != "page-one" {
		t.Fatalf("expected the stored page to be unaffected by caller mutation, got %q", again[0].Data)
	}
}

func TestPruneExpiredRemovesOnlyExpiredRecords(t *testing.T) {
	store := NewMemoryStore()
	store.Put(models.FileRecord{ID: "expired", ExpiresAt: time.Now().Add(-time.Hour)}, nil)
	store.Put(models.FileRecord{ID: "fresh", ExpiresAt: time.Now().Add(time.Hour)}, nil)

	pruned := store.PruneExpired()
	if pruned != 1 {
		t.Fatalf("expected 1 record pruned, got %d", pruned)
	}
	if _, ok, _ := store.Lookup(context.Background(), "fresh"); !ok {
		t.Fatal("expected the unexpired record to remain")
	}
}
