// Package envelope builds the API Gateway proxy responses returned by both
// Lambdas. Bodies are always JSON; the Lambda function error is never used to
// report request failures.
package envelope

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"
)

// Header sets.
var (
	jsonHeaders = map[string]string{
		"Content-Type": "application/json",
	}
	corsHeaders = map[string]string{
		"Content-Type":                "application/json",
		"Access-Control-Allow-Origin": "*",
	}
)

// marshalFailureBody is returned when the payload itself cannot be encoded.
const marshalFailureBody = `{"message":"failed to encode response"}`

// JSON builds a response with a JSON content type and no CORS header.
func JSON(status int, body interface{}) events.APIGatewayProxyResponse {
	return build(status, body, jsonHeaders)
}

// CORS builds a response with a JSON content type and a permissive
// Access-Control-Allow-Origin header, for browser-facing endpoints.
func CORS(status int, body interface{}) events.APIGatewayProxyResponse {
	return build(status, body, corsHeaders)
}

func build(status int, body interface{}, headers map[string]string) events.APIGatewayProxyResponse {
	// Each response gets its own header map so callers may add to it.
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}

	data, err := json.Marshal(body)
	if err != nil {
		log.Error().Err(err).Int("status", status).Msg("Failed to marshal response body")
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    h,
			Body:       marshalFailureBody,
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    h,
		Body:       string(data),
	}
}
