package models

import "time"

// FileRecord is the metadata row for an uploaded original. The binary
// itself and its rendered pages live in FileStore; the core only ever
// calls FileStore.Lookup/Pages.
type FileRecord struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// FilePage is one rendered page of a file, keyed by (file_id, page_number).
// Data is a WebP-encoded image; the core embeds it as a
// data:image/webp;base64,... URI in an image content block.
type FilePage struct {
	FileID     string `json:"file_id"`
	PageNumber int    `json:"page_number"`
	Data       []byte `json:"-"`
}
