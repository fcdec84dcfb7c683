// Package s3util adapts the S3 client to the photos.ObjectStore interface
// used by the index and search Lambdas, plus the upload helper used by the
// photo-search CLI.
package s3util

import (
	"context"
	"fmt"
	"io"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-search/internal/photos"
)

// DownloadURLExpiry is how long presigned download links stay valid.
const DownloadURLExpiry = time.Hour

// ObjectAPI is the subset of *s3.Client used by Store.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// PresignAPI is the subset of *s3.PresignClient used by Store.
type PresignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Store implements photos.ObjectStore on top of S3.
type Store struct {
	client    ObjectAPI
	presigner PresignAPI
}

var _ photos.ObjectStore = (*Store)(nil)

// NewStore wraps an S3 client and presigner.
func NewStore(client ObjectAPI, presigner PresignAPI) *Store {
	return &Store{client: client, presigner: presigner}
}

// NewStoreFromClient builds a Store whose presigner is derived from client.
func NewStoreFromClient(client *s3.Client) *Store {
	return NewStore(client, s3.NewPresignClient(client))
}

// GetObject reads the full object body along with its declared content type
// and user metadata.
func (s *Store) GetObject(ctx context.Context, bucket, key string) (*photos.StoredObject, error) {
	log.Debug().Str("bucket", bucket).Str("key", key).Msg("Reading object from S3")
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("S3 GetObject: %w", err)
	}
	defer result.Body.Close()

	body, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("read S3 object body: %w", err)
	}

	obj := &photos.StoredObject{
		Body:     body,
		Metadata: result.Metadata,
	}
	if result.ContentType != nil {
		obj.ContentType = *result.ContentType
	}
	return obj, nil
}

// PresignGet creates a pre-signed GET URL for a single object.
func (s *Store) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	result, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket, Key: &key,
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", fmt.Errorf("presign GetObject: %w", err)
	}
	return result.URL, nil
}
