package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"log-analyzer/internal/types"
)

func alerts(n int) []types.Alert {
	out := make([]types.Alert, n)
	for i := range out {
		out[i] = types.Alert{
			Key:           types.ActivityKey{User: "alice", IP: "10.0.0.1"},
			WindowCount:   3 + i,
			WindowMinutes: 10,
			GeneratedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			Summary:       "User 'alice' from IP 10.0.0.1 had 3 failed attempts within 10 minutes.",
		}
	}
	return out
}

func TestDiscordNotifier_Notify(t *testing.T) {
	var got discordMsg
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n := NewDiscordNotifier(server.URL)
	if err := n.Notify(context.Background(), alerts(2)); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if calls != 1 {
		t.Errorf("Expected 1 webhook call, got %d", calls)
	}
	if !strings.Contains(got.Content, "ALERT: User 'alice' from IP 10.0.0.1") {
		t.Errorf("Unexpected content %q", got.Content)
	}
}

func TestDiscordNotifier_NoAlertsNoCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("webhook must not be called without alerts")
	}))
	defer server.Close()

	if err := NewDiscordNotifier(server.URL).Notify(context.Background(), nil); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
}

func TestDiscordNotifier_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	if err := NewDiscordNotifier(server.URL).Notify(context.Background(), alerts(1)); err == nil {
		t.Error("Expected error on 429")
	}
}

func TestBuildContent_Truncates(t *testing.T) {
	content := buildContent(alerts(200))
	if len(content) > maxContent {
		t.Errorf("Content length %d exceeds %d", len(content), maxContent)
	}
	if !strings.Contains(content, "more") {
		t.Error("Expected truncation marker")
	}
}
