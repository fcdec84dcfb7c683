// Package vision detects image labels with Amazon Rekognition.
package vision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-search/internal/photos"
)

// DetectLabelsAPI is the subset of *rekognition.Client used by Detector.
type DetectLabelsAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// Options tunes the DetectLabels request. Zero values leave the service
// defaults in place.
type Options struct {
	MaxLabels     int32
	MinConfidence float32
}

// Detector implements photos.LabelDetector.
type Detector struct {
	client DetectLabelsAPI
	opts   Options
}

var _ photos.LabelDetector = (*Detector)(nil)

// NewDetector wraps a Rekognition client.
func NewDetector(client DetectLabelsAPI, opts Options) *Detector {
	return &Detector{client: client, opts: opts}
}

// DetectLabels submits the raw image bytes and returns the detected label
// names. A payload Rekognition cannot decode is reported as
// *photos.InvalidImageFormatError.
func (d *Detector) DetectLabels(ctx context.Context, image []byte) ([]string, error) {
	input := &rekognition.DetectLabelsInput{
		Image: &types.Image{Bytes: image},
	}
	if d.opts.MaxLabels > 0 {
		input.MaxLabels = aws.Int32(d.opts.MaxLabels)
	}
	if d.opts.MinConfidence > 0 {
		input.MinConfidence = aws.Float32(d.opts.MinConfidence)
	}

	start := time.Now()
	result, err := d.client.DetectLabels(ctx, input)
	if err != nil {
		var invalid *types.InvalidImageFormatException
		if errors.As(err, &invalid) {
			return nil, &photos.InvalidImageFormatError{Err: err}
		}
		return nil, fmt.Errorf("Rekognition DetectLabels: %w", err)
	}

	labels := make([]string, 0, len(result.Labels))
	for _, label := range result.Labels {
		if name := aws.ToString(label.Name); name != "" {
			labels = append(labels, name)
		}
	}
	log.Debug().
		Strs("labels", labels).
		Dur("elapsed", time.Since(start)).
		Msg("Rekognition labels detected")
	return labels, nil
}
