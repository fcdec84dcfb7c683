// Package ingest implements the index-photos Lambda: it labels a newly
// uploaded image with the vision service, merges in the uploader's custom
// labels and upserts the result into the search index.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-search/internal/envelope"
	"github.com/fpang/photo-search/internal/metrics"
	"github.com/fpang/photo-search/internal/photos"
)

// SuccessMessage is the message returned with the label set on success.
const SuccessMessage = "Successfully processed image"

// Notifier is told about every successfully indexed photo.
type Notifier interface {
	PhotoIndexed(ctx context.Context, rec photos.ImageRecord) error
}

// Result is the success body.
type Result struct {
	Message string   `json:"message"`
	Labels  []string `json:"labels"`
}

// Handler processes S3 object-created notifications.
type Handler struct {
	store      photos.ObjectStore
	detector   photos.LabelDetector
	index      photos.Index
	notifier   Notifier
	metricsOut io.Writer
}

// Option configures a Handler.
type Option func(*Handler)

// WithNotifier publishes a notification after each successful upsert.
func WithNotifier(n Notifier) Option {
	return func(h *Handler) { h.notifier = n }
}

// WithMetricsWriter redirects EMF records (stdout by default).
func WithMetricsWriter(w io.Writer) Option {
	return func(h *Handler) { h.metricsOut = w }
}

// New builds a Handler from its collaborators. They are created once at cold
// start and shared by every invocation.
func New(store photos.ObjectStore, detector photos.LabelDetector, index photos.Index, opts ...Option) *Handler {
	h := &Handler{
		store:      store,
		detector:   detector,
		index:      index,
		metricsOut: os.Stdout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleEvent is the Lambda entry point. The event is decoded here rather
// than by the runtime so a malformed notification still gets an error
// envelope. Failures are reported in the response; the function error is
// always nil.
func (h *Handler) HandleEvent(ctx context.Context, raw json.RawMessage) (events.APIGatewayProxyResponse, error) {
	var event events.S3Event
	if err := json.Unmarshal(raw, &event); err != nil {
		rec := metrics.NewWithWriter(h.metricsOut, "index")
		defer rec.Flush()
		return h.fail(rec, fmt.Errorf("decode S3 event: %w", err)), nil
	}
	return h.Handle(ctx, event), nil
}

// Handle processes the event and converts the outcome into a response.
func (h *Handler) Handle(ctx context.Context, event events.S3Event) events.APIGatewayProxyResponse {
	start := time.Now()
	rec := metrics.NewWithWriter(h.metricsOut, "index")
	defer func() {
		rec.Since("LatencyMs", start)
		rec.Flush()
	}()

	out, err := h.Process(ctx, event)
	if out.ImageBytes > 0 {
		rec.Metric("ImageBytes", float64(out.ImageBytes), metrics.UnitBytes)
	}
	if err != nil {
		return h.fail(rec, err)
	}

	doc := out.Record
	rec.Property("Status", http.StatusOK).
		Property("key", doc.ObjectKey).
		Count("LabelCount", len(doc.Labels))
	return envelope.JSON(http.StatusOK, Result{Message: SuccessMessage, Labels: doc.Labels})
}

func (h *Handler) fail(rec *metrics.Recorder, err error) events.APIGatewayProxyResponse {
	rec.Property("Status", photos.StatusCode(err)).Count("Failures", 1)
	return errorResponse(err)
}

// Outcome is what Process produced. ImageBytes is set once the object has
// been read, even when a later step fails.
type Outcome struct {
	Record     photos.ImageRecord
	ImageBytes int
}

// Process runs the ingest pipeline for the first record of event and returns
// the document written to the index. Any error aborts the invocation; the
// index write is the last step so there is nothing to roll back.
func (h *Handler) Process(ctx context.Context, event events.S3Event) (Outcome, error) {
	var out Outcome
	bucket, key, err := objectRef(event)
	if err != nil {
		return out, err
	}
	logger := log.With().Str("bucket", bucket).Str("key", key).Logger()
	logger.Info().Msg("Processing uploaded image")

	obj, err := h.store.GetObject(ctx, bucket, key)
	if err != nil {
		return out, err
	}
	out.ImageBytes = len(obj.Body)
	if err := validate(obj, &logger); err != nil {
		return out, err
	}

	detected, err := h.detector.DetectLabels(ctx, obj.Body)
	if err != nil {
		return out, err
	}
	custom := photos.ParseCustomLabels(photos.CustomLabels(obj.Metadata))
	labels := photos.MergeLabels(detected, custom)
	logger.Info().
		Strs("detectedLabels", detected).
		Strs("customLabels", custom).
		Strs("labels", labels).
		Msg("Labels merged")

	doc := photos.ImageRecord{ObjectKey: key, Bucket: bucket, Labels: labels}
	if err := h.index.Upsert(ctx, doc); err != nil {
		return out, err
	}
	logger.Info().Int("labelCount", len(labels)).Msg("Image indexed")
	out.Record = doc

	if h.notifier != nil {
		if err := h.notifier.PhotoIndexed(ctx, doc); err != nil {
			logger.Warn().Err(err).Msg("PhotoIndexed notification failed")
		}
	}
	return out, nil
}

// objectRef extracts the bucket and key of the first record. Batched
// notifications are not expected; extra records are logged and ignored.
func objectRef(event events.S3Event) (string, string, error) {
	if len(event.Records) == 0 {
		return "", "", errors.New("event contains no S3 records")
	}
	if len(event.Records) > 1 {
		log.Warn().Int("records", len(event.Records)).Msg("Multiple S3 records in event, processing only the first")
	}
	entity := event.Records[0].S3
	bucket := entity.Bucket.Name
	key := entity.Object.URLDecodedKey
	if key == "" {
		key = entity.Object.Key
	}
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("S3 record is missing bucket or key (bucket=%q key=%q)", bucket, key)
	}
	return bucket, key, nil
}

// validate rejects empty objects and content types the vision service is not
// asked to handle.
func validate(obj *photos.StoredObject, logger *zerolog.Logger) error {
	if len(obj.Body) == 0 {
		return &photos.ValidationError{Msg: "S3 object is empty or corrupted."}
	}
	logger.Info().Int("size", len(obj.Body)).Msg("Image read from S3")

	if !photos.IsSupportedContentType(obj.ContentType) {
		return &photos.ValidationError{Msg: fmt.Sprintf("Unsupported Content-Type: %s", obj.ContentType)}
	}
	logger.Debug().Str("contentType", obj.ContentType).Msg("Content-Type accepted")
	return nil
}

// errorResponse renders err as a JSON string body, prefixed by its category.
func errorResponse(err error) events.APIGatewayProxyResponse {
	var (
		validation *photos.ValidationError
		format     *photos.InvalidImageFormatError
	)
	switch {
	case errors.As(err, &format):
		log.Error().Err(err).Msg("Rekognition rejected image format")
		return envelope.JSON(http.StatusBadRequest, "Invalid image format: "+err.Error())
	case errors.As(err, &validation):
		log.Error().Err(err).Msg("Validation error")
		return envelope.JSON(http.StatusBadRequest, "Validation error: "+err.Error())
	default:
		log.Error().Err(err).Msg("Unexpected error processing image")
		return envelope.JSON(http.StatusInternalServerError, "Error processing the image: "+err.Error())
	}
}
