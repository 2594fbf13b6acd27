package files

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/agentcore/core/pkg/models"
)

// S3Store backs page image storage with AWS S3, grounded on the
// teacher's internal/artifacts/s3_store.go. File record metadata
// (name, mime type, expiry) stays in a MemoryStore — only page bytes
// live behind the S3 client, mirroring the teacher's split between
// an in-memory metadata index and a remote blob backend.
type S3Store struct {
	client *s3.Client
	bucket string
	meta   *MemoryStore
}

// NewS3Store wraps client for bucket, delegating metadata lookups to
// meta.
func NewS3Store(client *s3.Client, bucket string, meta *MemoryStore) *S3Store {
	return &S3Store{client: client, bucket: bucket, meta: meta}
}

func (s *S3Store) Lookup(ctx context.Context, fileID string) (models.FileRecord, bool, error) {
	return s.meta.Lookup(ctx, fileID)
}

func (s *S3Store) Pages(ctx context.Context, fileID string) ([]models.FilePage, error) {
	pages, err := s.meta.Pages(ctx, fileID)
	if err != nil {
		return nil, err
	}
	out := make([]models.FilePage, 0, len(pages))
	for _, p := range pages {
		if len(p.Data) > 0 {
			out = append(out, p)
			continue
		}
		data, err := s.getObject(ctx, pageKey(fileID, p.PageNumber))
		if err != nil {
			continue // spec: pages missing from FileStore are skipped silently
		}
		p.Data = data
		out = append(out, p)
	}
	return out, nil
}

// PutPage uploads page image bytes to S3 and records the page
// metadata (without the bytes) in the local index.
func (s *S3Store) PutPage(ctx context.Context, fileID string, pageNumber int, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(pageKey(fileID, pageNumber)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("put page object: %w", err)
	}

	s.meta.mu.Lock()
	defer s.meta.mu.Unlock()
	pages := s.meta.pages[fileID]
	for i := range pages {
		if pages[i].PageNumber == pageNumber {
			pages[i].Data = nil
			return nil
		}
	}
	s.meta.pages[fileID] = append(pages, models.FilePage{FileID: fileID, PageNumber: pageNumber})
	return nil
}

func (s *S3Store) getObject(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func pageKey(fileID string, pageNumber int) string {
	return fmt.Sprintf("files/%s/pages/%d.webp", fileID, pageNumber)
}
