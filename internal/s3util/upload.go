package s3util

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-search/internal/photos"
)

// projectTag is the URL-encoded S3 object tagging string for cost allocation.
const projectTag = "Project=photo-search"

// PutImage uploads a local image to S3, attaching the custom labels as the
// customlabels user metadata the index Lambda reads back. The upload itself
// triggers indexing through the bucket notification.
func (s *Store) PutImage(ctx context.Context, bucket, key, localPath string, customLabels []string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", localPath, err)
	}
	if key == "" {
		key = filepath.Base(localPath)
	}

	contentType := ContentTypeFor(localPath, data)
	input := &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
		Tagging:     aws.String(projectTag),
	}
	if len(customLabels) > 0 {
		input.Metadata = map[string]string{
			photos.CustomLabelsMetadataKey: strings.Join(customLabels, ","),
		}
	}

	log.Debug().
		Str("bucket", bucket).
		Str("key", key).
		Str("contentType", contentType).
		Int("size", len(data)).
		Msg("Uploading image to S3")

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("S3 PutObject: %w", err)
	}
	return key, nil
}

// ContentTypeFor picks the content type for an upload from the file
// extension, falling back to sniffing the first bytes of the payload.
func ContentTypeFor(path string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		// Drop parameters such as "; charset=utf-8".
		if i := strings.Index(ct, ";"); i >= 0 {
			ct = strings.TrimSpace(ct[:i])
		}
		return ct
	}
	return http.DetectContentType(data)
}
