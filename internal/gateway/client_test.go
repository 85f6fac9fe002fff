package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendPostsExpectedRequest(t *testing.T) {
	t.Parallel()

	var gotAuth, gotContentType string
	var gotBody sendRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		if err := json.NewEncoder(w).Encode(map[string]string{"output": "pong"}); err != nil {
			t.Errorf("failed to encode response: %v", err)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret-token", 0)
	reply, err := client.Send(context.Background(), "sess-1", "ping")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if reply != "pong" {
		t.Errorf("expected reply %q, got %q", "pong", reply)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("expected bearer authorization, got %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected JSON content type, got %q", gotContentType)
	}
	if gotBody.SessionID != "sess-1" || gotBody.ChatInput != "ping" {
		t.Errorf("unexpected request body: %+v", gotBody)
	}
}

func TestSendNonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "workflow not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "token", 0)
	_, err := client.Send(context.Background(), "sess-1", "ping")

	var gwErr *Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if gwErr.Status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", gwErr.Status)
	}
}

func TestSendMalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("not json")); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "token", 0)
	_, err := client.Send(context.Background(), "sess-1", "ping")

	var gwErr *Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *Error for malformed body, got %v", err)
	}
}

func TestSendMissingOutputField(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if err := json.NewEncoder(w).Encode(map[string]string{"result": "pong"}); err != nil {
			t.Errorf("failed to encode response: %v", err)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "token", 0)
	_, err := client.Send(context.Background(), "sess-1", "ping")

	var gwErr *Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *Error for missing output field, got %v", err)
	}
}

func TestSendConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // shut down immediately so the address refuses connections

	client := NewClient(srv.URL, "token", 0)
	_, err := client.Send(context.Background(), "sess-1", "ping")

	var gwErr *Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *Error for transport failure, got %v", err)
	}
	if gwErr.Status != 0 {
		t.Errorf("expected zero status for transport failure, got %d", gwErr.Status)
	}
}
