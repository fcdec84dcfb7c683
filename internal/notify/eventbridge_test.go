package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	eventbridgetypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/google/uuid"

	"github.com/fpang/photo-search/internal/photos"
)

type fakeEventBridge struct {
	input *eventbridge.PutEventsInput
	out   *eventbridge.PutEventsOutput
	err   error
}

func (f *fakeEventBridge) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.input = params
	if f.out == nil {
		return &eventbridge.PutEventsOutput{}, f.err
	}
	return f.out, f.err
}

func TestPhotoIndexed(t *testing.T) {
	fake := &fakeEventBridge{}
	p := NewPublisher(fake, "photos-bus")
	p.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	rec := photos.ImageRecord{ObjectKey: "cat1.jpg", Bucket: "photos-raw", Labels: []string{"Cat", "pet"}}
	if err := p.PhotoIndexed(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fake.input.Entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(fake.input.Entries))
	}
	entry := fake.input.Entries[0]
	if aws.ToString(entry.EventBusName) != "photos-bus" {
		t.Errorf("unexpected bus: %s", aws.ToString(entry.EventBusName))
	}
	if aws.ToString(entry.Source) != eventSource || aws.ToString(entry.DetailType) != detailTypeIndex {
		t.Errorf("unexpected source/detail-type: %s/%s", aws.ToString(entry.Source), aws.ToString(entry.DetailType))
	}

	var detail PhotoIndexed
	if err := json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail); err != nil {
		t.Fatalf("detail is not JSON: %v", err)
	}
	if _, err := uuid.Parse(detail.EventID); err != nil {
		t.Errorf("eventId is not a UUID: %q", detail.EventID)
	}
	if detail.ObjectKey != "cat1.jpg" || detail.Bucket != "photos-raw" || len(detail.Labels) != 2 {
		t.Errorf("unexpected detail: %+v", detail)
	}
	if detail.IndexedAt != "2026-01-02T03:04:05Z" {
		t.Errorf("unexpected indexedAt: %s", detail.IndexedAt)
	}
}

func TestPhotoIndexed_CallError(t *testing.T) {
	p := NewPublisher(&fakeEventBridge{err: errors.New("denied")}, "bus")

	err := p.PhotoIndexed(context.Background(), photos.ImageRecord{ObjectKey: "k"})
	if err == nil || !strings.Contains(err.Error(), "denied") {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestPhotoIndexed_FailedEntry(t *testing.T) {
	fake := &fakeEventBridge{out: &eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries: []eventbridgetypes.PutEventsResultEntry{
			{ErrorCode: aws.String("InternalFailure"), ErrorMessage: aws.String("try again")},
		},
	}}
	p := NewPublisher(fake, "bus")

	err := p.PhotoIndexed(context.Background(), photos.ImageRecord{ObjectKey: "k"})
	if err == nil || !strings.Contains(err.Error(), "InternalFailure") {
		t.Errorf("expected entry failure, got %v", err)
	}
}
