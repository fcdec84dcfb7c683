package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fpang/photo-search/internal/photos"
)

// Channel identifies which front end invoked the search Lambda.
type Channel int

const (
	// ChannelHTTP is an API Gateway proxy request carrying ?q=.
	ChannelHTTP Channel = iota + 1
	// ChannelConversation is a Lex request carrying the user's transcript.
	ChannelConversation
)

func (c Channel) String() string {
	switch c {
	case ChannelHTTP:
		return "http"
	case ChannelConversation:
		return "conversation"
	default:
		return "unknown"
	}
}

// Request is a search request resolved from one of the supported event
// shapes. Text is already trimmed.
type Request struct {
	Channel Channel
	Text    string
}

// Client-facing messages for rejected requests.
const (
	MsgNoQuery    = "Invalid input. No search query provided."
	MsgEmptyQuery = "Search query is missing or empty."
)

// QueryParam is the API Gateway query-string parameter holding the query.
const QueryParam = "q"

// ParseRequest resolves the event shape once. An event carrying a
// queryStringParameters key is an HTTP request even when the map is null;
// otherwise an inputTranscript key makes it a conversational request.
func ParseRequest(raw json.RawMessage) (Request, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Request{}, fmt.Errorf("decode search event: %w", err)
	}

	var req Request
	if params, ok := fields["queryStringParameters"]; ok {
		var qs map[string]string
		if err := json.Unmarshal(params, &qs); err != nil {
			return Request{}, fmt.Errorf("decode queryStringParameters: %w", err)
		}
		req = Request{Channel: ChannelHTTP, Text: qs[QueryParam]}
	} else if transcript, ok := fields["inputTranscript"]; ok {
		var text *string
		if err := json.Unmarshal(transcript, &text); err != nil {
			return Request{}, fmt.Errorf("decode inputTranscript: %w", err)
		}
		req = Request{Channel: ChannelConversation}
		if text != nil {
			req.Text = *text
		}
	} else {
		return Request{}, &photos.InvalidInputError{Msg: MsgNoQuery}
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return req, &photos.InvalidInputError{Msg: MsgEmptyQuery}
	}
	return req, nil
}
