package notifications

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"scanhub/internal/config"
	"scanhub/internal/workflow"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T) (*httptest.Server, func() []captured) {
	t.Helper()

	var (
		mu       sync.Mutex
		requests []captured
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	return server, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), requests...)
	}
}

func TestNewServiceReturnsNoopWithoutTopic(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""

	service := NewService(&cfg)
	if _, ok := service.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", service)
	}
	if err := service.NotifyChapterDone(context.Background(), "Ch. 1"); err != nil {
		t.Fatalf("noop notify: %v", err)
	}
}

func TestNotifyChapterDoneSendsHighPriority(t *testing.T) {
	server, requests := newCaptureServer(t)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	service := NewService(&cfg)
	if err := service.NotifyChapterDone(context.Background(), "Solo Leveling ch. 42"); err != nil {
		t.Fatalf("notify: %v", err)
	}

	got := requests()
	if len(got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(got))
	}
	if got[0].priority != "high" {
		t.Errorf("expected high priority, got %q", got[0].priority)
	}
	if got[0].title != "Scanhub - Chapter Released" {
		t.Errorf("unexpected title %q", got[0].title)
	}
}

func TestDisabledCategoriesSkipDelivery(t *testing.T) {
	server, requests := newCaptureServer(t)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.StageAdvances = false
	cfg.Notifications.Errors = false

	service := NewService(&cfg)
	ctx := context.Background()
	if err := service.NotifyStageAdvanced(ctx, "Ch. 3", workflow.StageRaw, workflow.StageTranslating); err != nil {
		t.Fatalf("notify stage: %v", err)
	}
	if err := service.NotifyError(ctx, errors.New("boom"), "chapter transition"); err != nil {
		t.Fatalf("notify error: %v", err)
	}

	if got := requests(); len(got) != 0 {
		t.Fatalf("expected no requests, got %d", len(got))
	}
}

func TestSendReportsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic rejected", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	service := NewService(&cfg)
	err := service.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error from ntfy 403")
	}
}
