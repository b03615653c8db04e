package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSeatClient_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tick":3,"match_ticks":100,"players":["seat-0","seat-1"]}`))
	}))
	defer srv.Close()

	c := NewSeatClient(0, &RandomStrategy{}, srv.URL)
	status, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Tick != 3 || status.MatchTicks != 100 {
		t.Errorf("expected tick 3/100, got %d/%d", status.Tick, status.MatchTicks)
	}
	if len(status.Players) != 2 {
		t.Errorf("expected 2 players, got %v", status.Players)
	}
}

func TestSeatClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewSeatClient(0, &RandomStrategy{}, srv.URL)
	if _, err := c.Status(context.Background()); err == nil {
		t.Error("expected error on 503 status")
	}
}

func TestSeatClient_WSURL(t *testing.T) {
	tests := []struct {
		base     string
		playerID int
		expected string
	}{
		{"http://localhost:8080", 0, "ws://localhost:8080/ws/player/0"},
		{"http://localhost:8080/", 2, "ws://localhost:8080/ws/player/2"},
		{"https://arena.example.com", 1, "wss://arena.example.com/ws/player/1"},
	}
	for _, tt := range tests {
		c := NewSeatClient(tt.playerID, &RandomStrategy{}, tt.base)
		if got := c.wsURL(); got != tt.expected {
			t.Errorf("wsURL(%q, %d) = %q, want %q", tt.base, tt.playerID, got, tt.expected)
		}
	}
}
