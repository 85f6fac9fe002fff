// Package gateway implements the outbound boundary to the workflow endpoint
// that turns user text into assistant replies. The core treats it as opaque:
// one POST per turn, one reply or one error back.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Error is any failure of the send boundary: transport failure, non-success
// status, or a response body without the expected output field. It is the
// only error class expected under normal operation; recovery is a manual,
// user-initiated retry.
type Error struct {
	Status int // HTTP status, 0 when the request never completed
	cause  error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gateway: status %d: %v", e.Status, e.cause)
	}
	return fmt.Sprintf("gateway: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Client sends chat input to the workflow webhook.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// NewClient creates a webhook client. timeout bounds the full round trip;
// zero means no timeout, matching the human-paced access pattern where a
// slow workflow is surfaced by the user giving up, not by the client.
func NewClient(endpoint, token string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		http:     &http.Client{Timeout: timeout},
	}
}

type sendRequest struct {
	SessionID string `json:"sessionId"`
	ChatInput string `json:"chatInput"`
}

type sendResponse struct {
	Output *string `json:"output"`
}

// Send posts one user message and returns the assistant's reply text.
// Every failure path returns a *Error so callers can distinguish the
// recoverable boundary failure from persistence errors.
func (c *Client) Send(ctx context.Context, sessionID, text string) (string, error) {
	payload, err := json.Marshal(sendRequest{SessionID: sessionID, ChatInput: text})
	if err != nil {
		return "", &Error{cause: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &Error{cause: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &Error{cause: fmt.Errorf("post webhook: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Include a bounded slice of the body for diagnostics.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &Error{Status: resp.StatusCode, cause: fmt.Errorf("unexpected status: %s", bytes.TrimSpace(body))}
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &Error{Status: resp.StatusCode, cause: fmt.Errorf("decode response: %w", err)}
	}
	if out.Output == nil {
		return "", &Error{Status: resp.StatusCode, cause: fmt.Errorf("response missing output field")}
	}

	return *out.Output, nil
}
