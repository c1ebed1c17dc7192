package video

import (
	"io"
	"time"
)

// Video represents a persisted video record. A record exists if and only if
// the processed object exists at StorageKey in the object store.
type Video struct {
	ID           string    `json:"id"`
	StorageKey   string    `json:"storage_key"`
	OriginalName string    `json:"original_name"`
	MimeType     string    `json:"mime"`
	SizeBytes    int64     `json:"size_bytes"`
	OwnerID      string    `json:"owner_id,omitempty"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// IngestInput carries one inbound upload through the pipeline.
type IngestInput struct {
	Body         io.Reader
	OriginalName string
	MimeType     string
	SizeBytes    int64
	OwnerID      string
}
