// Package photos holds the domain types shared by the index and search
// Lambdas: the indexed image document, search results, the label merge rules,
// and the collaborator interfaces the handlers are built from.
//
// Handlers never talk to AWS SDK clients directly. They receive an
// ObjectStore, a LabelDetector and an Index at construction time, which the
// cold-start bootstrap (internal/lambdaboot) wires to S3, Rekognition and
// OpenSearch.
package photos

import (
	"context"
	"time"
)

// ImageRecord is the document stored in the search index, keyed by ObjectKey.
// Re-indexing the same key replaces the previous document.
type ImageRecord struct {
	ObjectKey string   `json:"objectKey"`
	Bucket    string   `json:"bucket"`
	Labels    []string `json:"labels"`
}

// SearchResult is one hit returned to the caller. URL is nil when the
// download link could not be generated for that hit.
type SearchResult struct {
	ObjectKey string   `json:"objectKey"`
	Bucket    string   `json:"bucket"`
	Labels    []string `json:"labels"`
	URL       *string  `json:"url"`
}

// StoredObject is an object read back from storage along with the metadata
// the index Lambda needs.
type StoredObject struct {
	Body        []byte
	ContentType string
	Metadata    map[string]string
}

// ObjectStore reads objects and issues time-limited download links.
type ObjectStore interface {
	GetObject(ctx context.Context, bucket, key string) (*StoredObject, error)
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// LabelDetector returns the label names a vision service detects in an image.
type LabelDetector interface {
	DetectLabels(ctx context.Context, image []byte) ([]string, error)
}

// Index is the search index holding ImageRecords.
type Index interface {
	// Upsert creates or replaces the document whose id is rec.ObjectKey.
	Upsert(ctx context.Context, rec ImageRecord) error

	// MatchLabels runs a match query over the labels field and returns the
	// hits in the order the index ranked them.
	MatchLabels(ctx context.Context, query string) ([]ImageRecord, error)
}
