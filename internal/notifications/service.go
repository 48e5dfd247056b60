package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scanhub/internal/config"
	"scanhub/internal/workflow"
)

const userAgent = "Scanhub-Go/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyStageAdvanced(ctx context.Context, chapterTitle string, from, to workflow.Stage) error
	NotifyChapterDone(ctx context.Context, chapterTitle string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint:      topic,
		client:        client,
		stageAdvances: cfg.Notifications.StageAdvances,
		completions:   cfg.Notifications.Completions,
		errors:        cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	stageAdvances bool
	completions   bool
	errors        bool
}

func (n *ntfyService) NotifyStageAdvanced(ctx context.Context, chapterTitle string, from, to workflow.Stage) error {
	if !n.stageAdvances {
		return nil
	}
	chapterTitle = strings.TrimSpace(chapterTitle)
	var message string
	if from == to {
		message = fmt.Sprintf("%s: %s marked complete", chapterTitle, from)
	} else {
		message = fmt.Sprintf("%s: %s → %s", chapterTitle, from, to)
	}
	data := payload{
		title:   "Scanhub - Stage Advanced",
		message: message,
		tags:    []string{"scanhub", "chapter", "advanced"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyChapterDone(ctx context.Context, chapterTitle string) error {
	if !n.completions {
		return nil
	}
	chapterTitle = strings.TrimSpace(chapterTitle)
	data := payload{
		title:    "Scanhub - Chapter Released",
		message:  fmt.Sprintf("✅ Ready for release: %s", chapterTitle),
		tags:     []string{"scanhub", "chapter", "done"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Scanhub - Error",
		message:  builder.String(),
		tags:     []string{"scanhub", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Scanhub - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"scanhub", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyStageAdvanced(context.Context, string, workflow.Stage, workflow.Stage) error {
	return nil
}
func (noopService) NotifyChapterDone(context.Context, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error {
	return nil
}
func (noopService) TestNotification(context.Context) error { return nil }
