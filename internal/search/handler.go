// Package search implements the search-photos Lambda: it matches a free-text
// query against indexed labels and returns presigned download links for
// the matching photos.
package search

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
	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-search/internal/envelope"
	"github.com/fpang/photo-search/internal/metrics"
	"github.com/fpang/photo-search/internal/photos"
	"github.com/fpang/photo-search/internal/s3util"
)

const (
	msgNoResults   = "No matching results found."
	msgInternalErr = "An error occurred while processing your request."
)

// Response is the success body.
type Response struct {
	Message string                `json:"message"`
	Results []photos.SearchResult `json:"results"`
}

// ErrorResponse is the failure body. Error is set only for unexpected errors.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Handler answers search requests.
type Handler struct {
	store      photos.ObjectStore
	index      photos.Index
	linkExpiry time.Duration
	metricsOut io.Writer
}

// Option configures a Handler.
type Option func(*Handler)

// WithLinkExpiry overrides the lifetime of download links (one hour by default).
func WithLinkExpiry(d time.Duration) Option {
	return func(h *Handler) { h.linkExpiry = d }
}

// WithMetricsWriter redirects EMF records (stdout by default).
func WithMetricsWriter(w io.Writer) Option {
	return func(h *Handler) { h.metricsOut = w }
}

// New builds a Handler from its collaborators.
func New(store photos.ObjectStore, index photos.Index, opts ...Option) *Handler {
	h := &Handler{
		store:      store,
		index:      index,
		linkExpiry: s3util.DownloadURLExpiry,
		metricsOut: os.Stdout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleEvent is the Lambda entry point. It accepts the raw event so both
// API Gateway and Lex invocations reach the same code. The function error is
// always nil.
func (h *Handler) HandleEvent(ctx context.Context, raw json.RawMessage) (events.APIGatewayProxyResponse, error) {
	return h.Handle(ctx, raw), nil
}

// Handle resolves the request, runs the search and renders the response.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) events.APIGatewayProxyResponse {
	log.Debug().RawJSON("event", raw).Msg("Received search event")

	req, err := ParseRequest(raw)
	if err != nil {
		return errorResponse(err)
	}
	results, err := h.Search(ctx, req)
	if err != nil {
		return errorResponse(err)
	}

	msg := fmt.Sprintf("Found %d result(s).", len(results))
	if len(results) == 0 {
		msg = msgNoResults
	}
	return envelope.CORS(http.StatusOK, Response{Message: msg, Results: results})
}

// Search runs the label query and attaches a download link to every hit, in
// the index's hit order. A hit whose link cannot be generated is returned
// with a nil URL.
func (h *Handler) Search(ctx context.Context, req Request) ([]photos.SearchResult, error) {
	start := time.Now()
	rec := metrics.NewWithWriter(h.metricsOut, "search").Property("channel", req.Channel.String())
	defer func() {
		rec.Since("LatencyMs", start)
		rec.Flush()
	}()

	logger := log.With().Str("channel", req.Channel.String()).Str("query", req.Text).Logger()
	logger.Info().Msg("Searching photos")

	hits, err := h.index.MatchLabels(ctx, req.Text)
	if err != nil {
		rec.Count("Failures", 1)
		return nil, err
	}

	results := make([]photos.SearchResult, 0, len(hits))
	presignFailures := 0
	for _, hit := range hits {
		result := photos.SearchResult{
			ObjectKey: hit.ObjectKey,
			Bucket:    hit.Bucket,
			Labels:    hit.Labels,
		}
		url, err := h.store.PresignGet(ctx, hit.Bucket, hit.ObjectKey, h.linkExpiry)
		if err != nil {
			presignFailures++
			logger.Warn().Err(err).
				Str("bucket", hit.Bucket).
				Str("key", hit.ObjectKey).
				Msg("Failed to generate download URL")
		} else {
			result.URL = &url
		}
		results = append(results, result)
	}

	rec.Count("HitCount", len(results)).Count("PresignFailures", presignFailures)
	logger.Info().Int("hits", len(results)).Int("presignFailures", presignFailures).Msg("Search complete")
	return results, nil
}

func errorResponse(err error) events.APIGatewayProxyResponse {
	var input *photos.InvalidInputError
	if errors.As(err, &input) {
		log.Warn().Str("reason", input.Msg).Msg("Rejected search request")
		return envelope.CORS(http.StatusBadRequest, ErrorResponse{Message: input.Msg})
	}
	log.Error().Err(err).Msg("Search failed")
	return envelope.CORS(http.StatusInternalServerError, ErrorResponse{Message: msgInternalErr, Error: err.Error()})
}
