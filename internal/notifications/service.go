package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"autolist/internal/config"
)

const userAgent = "Autolist-Go/0.1.0"

// Service defines the notification surface exposed to the sorter.
type Service interface {
	NotifyRunStarted(ctx context.Context, newTracks int) error
	NotifyRunCompleted(ctx context.Context, sorted, duplicates, skipped, failures int, duration time.Duration) error
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
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, newTracks int) error {
	data := payload{
		title:   "Autolist - Run Started",
		message: fmt.Sprintf("Sorting %d new liked tracks", newTracks),
		tags:    []string{"autolist", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, sorted, duplicates, skipped, failures int, duration time.Duration) error {
	message := fmt.Sprintf("Run complete: %d sorted, %d duplicates, %d skipped in %s",
		sorted, duplicates, skipped, duration.Round(time.Second))
	priority := "default"
	tags := []string{"autolist", "run", "completed"}
	if failures > 0 {
		message = fmt.Sprintf("%s (%d errors)", message, failures)
		priority = "high"
		tags = append(tags, "warning")
	}
	data := payload{
		title:    "Autolist - Run Complete",
		message:  message,
		tags:     tags,
		priority: priority,
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, errContext string) error {
	errContext = strings.TrimSpace(errContext)
	message := fmt.Sprintf("Error: %v", err)
	if errContext != "" {
		message = fmt.Sprintf("Error in %s: %v", errContext, err)
	}
	data := payload{
		title:    "Autolist - Error",
		message:  message,
		tags:     []string{"autolist", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Autolist - Test",
		message:  "Notification system test",
		tags:     []string{"autolist", "test"},
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

func (noopService) NotifyRunStarted(context.Context, int) error { return nil }
func (noopService) NotifyRunCompleted(context.Context, int, int, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyError(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error           { return nil }
