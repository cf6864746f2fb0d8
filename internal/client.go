package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultEndpoint is the response-generation service the web client used.
	DefaultEndpoint = "https://zaynchat.onrender.com/"

	// DefaultTimeout bounds a single generation call. Zero disables the bound.
	DefaultTimeout = 60 * time.Second

	// FallbackReply is used when the endpoint answers without a response field.
	FallbackReply = "Sorry, I could not generate a response."

	// ErrorReply is used when the call fails outright. The failure becomes a
	// normal assistant message so the log stays a displayable sequence.
	ErrorReply = "Sorry, there was an error connecting to the AI service."
)

// ResponseGenerator maps a prompt to a generated assistant message. The
// returned message is always displayable; failures are absorbed, never
// propagated.
type ResponseGenerator interface {
	Generate(ctx context.Context, prompt, userID, conversationID string) Message
}

// generateRequest is the wire format of the response endpoint.
type generateRequest struct {
	Prompt    string `json:"prompt"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// ResponseClient talks to the remote response-generation endpoint.
type ResponseClient struct {
	endpoint string
	client   *http.Client
	now      func() time.Time
}

// NewResponseClient creates a client for the given endpoint. A zero timeout
// means the call is unbounded, matching the original web client.
func NewResponseClient(endpoint string, timeout time.Duration) *ResponseClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &ResponseClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		now:      time.Now,
	}
}

// Generate POSTs the prompt and returns the assistant's reply as a message.
// Transport errors, bad status codes and undecodable bodies all collapse
// into a message carrying ErrorReply; a well-formed body without a response
// field yields FallbackReply.
func (c *ResponseClient) Generate(ctx context.Context, prompt, userID, conversationID string) Message {
	content, err := c.call(ctx, prompt, userID, conversationID)
	if err != nil {
		LogWarn("Response generation failed: %v", err)
		content = ErrorReply
	}

	return Message{
		Content:   content,
		Sender:    SenderAssistant,
		Timestamp: c.now(),
	}
}

func (c *ResponseClient) call(ctx context.Context, prompt, userID, conversationID string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Prompt:    prompt,
		UserID:    userID,
		SessionID: conversationID,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &RequestError{Endpoint: c.endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &RequestError{Endpoint: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return "", &RequestError{Endpoint: c.endpoint, Status: resp.StatusCode}
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &RequestError{Endpoint: c.endpoint, Err: err}
	}

	if decoded.Response == "" {
		return FallbackReply, nil
	}
	return decoded.Response, nil
}
