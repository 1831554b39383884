package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/bizdesk/internal/config"
	"github.com/samvad-hq/bizdesk/pkg/publishers"
)

func TestRelayPublishesSnapshotsEndToEnd(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/Auth/login":
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: "opaque", Path: "/"})
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"user":{"id":"u1"}}`)
		case "/api/Dashboard/metrics", "/api/Dashboard/accounts", "/api/Contacts/stats":
			if _, err := r.Cookie("sid"); err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"path":"`+r.URL.Path+`"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer backend.Close()

	var (
		mu     sync.Mutex
		events []publishers.Event
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt publishers.Event
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
			t.Errorf("decode event: %v", err)
		}
		mu.Lock()
		events = append(events, evt)
		if len(events) == 3 {
			cancel()
		}
		mu.Unlock()
	}))
	defer sink.Close()

	dir := t.TempDir()
	pubFile := filepath.Join(dir, "publishers.yaml")
	raw := "publishers:\n  - id: sink\n    type: http\n    http:\n      url: " + sink.URL + "\n"
	if err := os.WriteFile(pubFile, []byte(raw), 0o644); err != nil {
		t.Fatalf("write publishers: %v", err)
	}

	cfg := &config.Config{
		APIBaseURL:             backend.URL + "/api",
		APILanguage:            "en",
		StorageType:            "memory",
		SessionTTL:             time.Hour,
		DigestTTL:              time.Hour,
		StorageCleanupInterval: time.Hour,
		PublishersFile:         pubFile,
		RelayEmail:             "relay@example.com",
		RelayPassword:          "pw",
		RelayInterval:          time.Hour,
	}

	relay, err := NewRelay(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("relay did not publish all snapshots")
	}

	mu.Lock()
	defer mu.Unlock()
	kinds := map[string]bool{}
	for _, evt := range events {
		kinds[evt.Kind] = true
		if evt.Source != backend.URL+"/api" || evt.Digest == "" {
			t.Fatalf("unexpected event %#v", evt)
		}
	}
	for _, k := range []string{"dashboard.metrics", "dashboard.accounts", "contacts.stats"} {
		if !kinds[k] {
			t.Fatalf("missing %s snapshot in %v", k, kinds)
		}
	}
}

func TestNewRelayRequiresPublishers(t *testing.T) {
	dir := t.TempDir()
	pubFile := filepath.Join(dir, "publishers.yaml")
	raw := "publishers:\n  - id: off\n    type: http\n    enabled: false\n    http:\n      url: https://example.com\n"
	if err := os.WriteFile(pubFile, []byte(raw), 0o644); err != nil {
		t.Fatalf("write publishers: %v", err)
	}
	_, err := NewRelay(context.Background(), &config.Config{PublishersFile: pubFile}, nil)
	if err == nil {
		t.Fatalf("expected error when no publishers are enabled")
	}
}
