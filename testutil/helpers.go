package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// JSONMarshal marshals a value to JSON for testing
func JSONMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal JSON: %v", err)
	}
	return data
}

// JSONUnmarshal unmarshals JSON for testing
func JSONUnmarshal(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
}

// GenerateCall records one request seen by a response server
type GenerateCall struct {
	Prompt    string `json:"prompt"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// ResponseServer is a stand-in for the remote response-generation endpoint
type ResponseServer struct {
	*httptest.Server

	// Calls holds every decoded request body, in arrival order
	Calls []GenerateCall
}

// NewResponseServer starts a test endpoint answering every request with the
// given status and raw body. Close it with t.Cleanup automatically.
func NewResponseServer(t *testing.T, status int, body string) *ResponseServer {
	t.Helper()
	rs := &ResponseServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call GenerateCall
		_ = json.NewDecoder(r.Body).Decode(&call)
		rs.Calls = append(rs.Calls, call)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(rs.Server.Close)
	return rs
}
