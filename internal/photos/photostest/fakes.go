// Package photostest provides in-memory collaborators for handler tests.
package photostest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fpang/photo-search/internal/photos"
)

// Store is an in-memory photos.ObjectStore.
type Store struct {
	mu sync.Mutex
	// Objects is keyed by "bucket/key".
	Objects map[string]*photos.StoredObject
	// PresignErrs fails link generation for the listed "bucket/key" entries.
	PresignErrs map[string]error
	GetErr      error

	Gets     int
	Presigns []string
	Expiries []time.Duration
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		Objects:     map[string]*photos.StoredObject{},
		PresignErrs: map[string]error{},
	}
}

// Put adds an object.
func (s *Store) Put(bucket, key string, obj *photos.StoredObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[bucket+"/"+key] = obj
}

func (s *Store) GetObject(ctx context.Context, bucket, key string) (*photos.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Gets++
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	obj, ok := s.Objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("S3 GetObject: NoSuchKey: %s/%s", bucket, key)
	}
	return obj, nil
}

func (s *Store) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := bucket + "/" + key
	s.Presigns = append(s.Presigns, ref)
	s.Expiries = append(s.Expiries, expiry)
	if err := s.PresignErrs[ref]; err != nil {
		return "", err
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s?X-Amz-Expires=%d", bucket, key, int(expiry.Seconds())), nil
}

// Detector is a fixed-answer photos.LabelDetector.
type Detector struct {
	mu     sync.Mutex
	Labels []string
	Err    error
	Calls  int
}

func (d *Detector) DetectLabels(ctx context.Context, image []byte) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls++
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Labels, nil
}

// Index is an in-memory photos.Index keyed by object key. MatchLabels does a
// case-insensitive whole-label comparison, which is enough to stand in for a
// standard-analyzer match query on single-word labels.
type Index struct {
	mu        sync.Mutex
	Docs      map[string]photos.ImageRecord
	Order     []string
	UpsertErr error
	SearchErr error

	Upserts int
	Queries []string
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{Docs: map[string]photos.ImageRecord{}}
}

func (x *Index) Upsert(ctx context.Context, rec photos.ImageRecord) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.Upserts++
	if x.UpsertErr != nil {
		return x.UpsertErr
	}
	if _, ok := x.Docs[rec.ObjectKey]; !ok {
		x.Order = append(x.Order, rec.ObjectKey)
	}
	x.Docs[rec.ObjectKey] = rec
	return nil
}

func (x *Index) MatchLabels(ctx context.Context, query string) ([]photos.ImageRecord, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.Queries = append(x.Queries, query)
	if x.SearchErr != nil {
		return nil, x.SearchErr
	}
	hits := []photos.ImageRecord{}
	for _, key := range x.Order {
		rec := x.Docs[key]
		for _, l := range rec.Labels {
			if strings.EqualFold(l, query) {
				hits = append(hits, rec)
				break
			}
		}
	}
	return hits, nil
}

// Notifier records PhotoIndexed calls.
type Notifier struct {
	mu      sync.Mutex
	Err     error
	Indexed []photos.ImageRecord
}

func (n *Notifier) PhotoIndexed(ctx context.Context, rec photos.ImageRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Indexed = append(n.Indexed, rec)
	return n.Err
}
