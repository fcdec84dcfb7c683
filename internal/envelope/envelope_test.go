package envelope

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestJSON(t *testing.T) {
	resp := JSON(http.StatusOK, map[string]string{"message": "ok"})

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Errorf("unexpected Content-Type: %q", resp.Headers["Content-Type"])
	}
	if _, ok := resp.Headers["Access-Control-Allow-Origin"]; ok {
		t.Error("JSON response should not carry a CORS header")
	}
	if resp.Body != `{"message":"ok"}` {
		t.Errorf("unexpected body: %s", resp.Body)
	}
}

func TestCORS(t *testing.T) {
	resp := CORS(http.StatusBadRequest, map[string]string{"message": "bad"})

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if resp.Headers["Access-Control-Allow-Origin"] != "*" {
		t.Errorf("expected permissive CORS header, got %q", resp.Headers["Access-Control-Allow-Origin"])
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Errorf("unexpected Content-Type: %q", resp.Headers["Content-Type"])
	}
}

func TestStringBodyIsJSONEncoded(t *testing.T) {
	resp := JSON(http.StatusBadRequest, "Validation error: empty")

	var s string
	if err := json.Unmarshal([]byte(resp.Body), &s); err != nil {
		t.Fatalf("body is not a JSON string: %v", err)
	}
	if s != "Validation error: empty" {
		t.Errorf("unexpected decoded body: %q", s)
	}
}

func TestHeadersAreNotShared(t *testing.T) {
	a := CORS(http.StatusOK, nil)
	a.Headers["X-Test"] = "1"

	b := CORS(http.StatusOK, nil)
	if _, ok := b.Headers["X-Test"]; ok {
		t.Error("header maps must not be shared between responses")
	}
}

func TestMarshalFailure(t *testing.T) {
	resp := JSON(http.StatusOK, map[string]interface{}{"bad": make(chan int)})

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", resp.StatusCode)
	}
	if resp.Body != marshalFailureBody {
		t.Errorf("unexpected body: %s", resp.Body)
	}
}
