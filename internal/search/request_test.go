package search

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/fpang/photo-search/internal/photos"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name    string
		event   string
		want    Request
		wantMsg string
	}{
		{
			name:  "api gateway",
			event: `{"resource":"/search","httpMethod":"GET","queryStringParameters":{"q":"  cat "}}`,
			want:  Request{Channel: ChannelHTTP, Text: "cat"},
		},
		{
			name:  "lex transcript",
			event: `{"currentIntent":{"name":"SearchIntent"},"inputTranscript":"show me dogs"}`,
			want:  Request{Channel: ChannelConversation, Text: "show me dogs"},
		},
		{
			name:  "query params win over transcript",
			event: `{"queryStringParameters":{"q":"cat"},"inputTranscript":"dog"}`,
			want:  Request{Channel: ChannelHTTP, Text: "cat"},
		},
		{
			name:    "no query source",
			event:   `{"body":"cat"}`,
			wantMsg: MsgNoQuery,
		},
		{
			name:    "whitespace query",
			event:   `{"queryStringParameters":{"q":"   "}}`,
			wantMsg: MsgEmptyQuery,
		},
		{
			name:    "missing q",
			event:   `{"queryStringParameters":{"other":"x"}}`,
			wantMsg: MsgEmptyQuery,
		},
		{
			name:    "null query params",
			event:   `{"queryStringParameters":null}`,
			wantMsg: MsgEmptyQuery,
		},
		{
			name:    "null transcript",
			event:   `{"inputTranscript":null}`,
			wantMsg: MsgEmptyQuery,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRequest(json.RawMessage(tt.event))
			if tt.wantMsg != "" {
				var input *photos.InvalidInputError
				if !errors.As(err, &input) {
					t.Fatalf("expected InvalidInputError, got %v", err)
				}
				if input.Msg != tt.wantMsg {
					t.Errorf("message = %q, want %q", input.Msg, tt.wantMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseRequest = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseRequest_MalformedEvent(t *testing.T) {
	for _, event := range []string{`not json`, `["q"]`, `{"queryStringParameters":"cat"}`} {
		_, err := ParseRequest(json.RawMessage(event))
		if err == nil {
			t.Errorf("expected error for %s", event)
			continue
		}
		if photos.StatusCode(err) != 500 {
			t.Errorf("malformed event %s should be unexpected (500), got %d", event, photos.StatusCode(err))
		}
	}
}

func TestChannelString(t *testing.T) {
	if ChannelHTTP.String() != "http" || ChannelConversation.String() != "conversation" || Channel(0).String() != "unknown" {
		t.Error("unexpected channel names")
	}
}
