package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"info":  zerolog.InfoLevel,
		"":      zerolog.InfoLevel,
		"bogus": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestStartupLoggerEvent(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "search-photos")
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	s := NewStartupLogger("search-photos-lambda").
		CommitHash("abc1234").
		SearchIndex("https://search.example.com", "photos").
		SSMParam("esHost", "/photo-search/prod/es-host").
		Feature("notifications", false).
		Config("presignExpiry", "1h0m0s").
		InitDuration(150 * time.Millisecond)
	s.event(logger.Info()).Msg("cold start")

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}

	lambda := doc["lambda"].(map[string]interface{})
	if lambda["name"] != "search-photos-lambda" || lambda["functionName"] != "search-photos" {
		t.Errorf("unexpected lambda identity: %v", lambda)
	}
	if lambda["commitHash"] != "abc1234" {
		t.Errorf("missing commit hash: %v", lambda)
	}
	if _, ok := lambda["buildTime"]; ok {
		t.Error("empty build time should be omitted")
	}

	resources := doc["resources"].(map[string]interface{})
	index := resources["searchIndex"].(map[string]interface{})
	if index["index"] != "photos" || index["endpoint"] != "https://search.example.com" {
		t.Errorf("unexpected searchIndex: %v", index)
	}
	if _, ok := resources["eventBus"]; ok {
		t.Error("unset event bus should be omitted")
	}
	if doc["features"].(map[string]interface{})["notifications"] != false {
		t.Errorf("unexpected features: %v", doc["features"])
	}
	if _, ok := doc["initDuration"]; !ok {
		t.Error("missing initDuration")
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("PHOTOS_TEST_VAR", "")
	if got := EnvOrDefault("PHOTOS_TEST_VAR", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %s", got)
	}
	t.Setenv("PHOTOS_TEST_VAR", "set")
	if got := EnvOrDefault("PHOTOS_TEST_VAR", "fallback"); got != "set" {
		t.Errorf("expected set, got %s", got)
	}
}
