// Package notify publishes PhotoIndexed events to EventBridge after a photo
// has been written to the search index.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	eventbridgetypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-search/internal/photos"
)

const (
	eventSource     = "photo-search"
	detailTypeIndex = "PhotoIndexed"
)

// PutEventsAPI is the subset of *eventbridge.Client used by Publisher.
type PutEventsAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// PhotoIndexed is the event detail published for every indexed photo.
type PhotoIndexed struct {
	EventID   string   `json:"eventId"`
	ObjectKey string   `json:"objectKey"`
	Bucket    string   `json:"bucket"`
	Labels    []string `json:"labels"`
	IndexedAt string   `json:"indexedAt"`
}

// Publisher emits PhotoIndexed events onto a single event bus.
type Publisher struct {
	client  PutEventsAPI
	busName string
	now     func() time.Time
}

// NewPublisher returns a publisher for the named bus.
func NewPublisher(client PutEventsAPI, busName string) *Publisher {
	return &Publisher{client: client, busName: busName, now: time.Now}
}

// PhotoIndexed publishes the event for rec.
func (p *Publisher) PhotoIndexed(ctx context.Context, rec photos.ImageRecord) error {
	event := PhotoIndexed{
		EventID:   uuid.NewString(),
		ObjectKey: rec.ObjectKey,
		Bucket:    rec.Bucket,
		Labels:    rec.Labels,
		IndexedAt: p.now().UTC().Format(time.RFC3339),
	}
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal PhotoIndexed: %w", err)
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []eventbridgetypes.PutEventsRequestEntry{
			{
				EventBusName: aws.String(p.busName),
				Source:       aws.String(eventSource),
				DetailType:   aws.String(detailTypeIndex),
				Detail:       aws.String(string(detail)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("PutEvents: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for i, entry := range result.Entries {
			if entry.ErrorCode != nil || entry.ErrorMessage != nil {
				return fmt.Errorf("PutEvents entry %d failed: %s - %s", i, aws.ToString(entry.ErrorCode), aws.ToString(entry.ErrorMessage))
			}
		}
	}

	log.Debug().
		Str("eventId", event.EventID).
		Str("key", rec.ObjectKey).
		Str("bus", p.busName).
		Msg("PhotoIndexed emitted to EventBridge")
	return nil
}
