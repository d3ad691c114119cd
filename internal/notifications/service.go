package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tagtrack/internal/config"
)

const userAgent = "tagtrack/0.1.0"

// Event names a notification kind.
type Event string

const (
	EventImportPartial Event = "import_partial"
	EventImportError   Event = "import_error"
	EventError         Event = "error"
	EventTest          Event = "test"
)

// Payload carries event fields such as import_id, processed, duplicates, errors.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		partial:  cfg.Notifications.Partial,
		errors:   cfg.Notifications.Errors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	partial  bool
	errors   bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventImportPartial:
		if !n.partial {
			return message{}, false
		}
		return message{
			title: "tagtrack - Partial Import",
			body: fmt.Sprintf("Import %s finished partial: %s processed, %s duplicates, %s errors",
				payload.text("import_id"), payload.text("processed"), payload.text("duplicates"), payload.text("errors")),
			tags: []string{"tagtrack", "import", "partial"},
		}, true
	case EventImportError:
		if !n.errors {
			return message{}, false
		}
		body := fmt.Sprintf("Import %s failed: %s items, %s errors",
			payload.text("import_id"), payload.text("items"), payload.text("errors"))
		if detail := payload.text("error_message"); detail != "" {
			body += "\n" + detail
		}
		return message{
			title:    "tagtrack - Import Failed",
			body:     body,
			tags:     []string{"tagtrack", "import", "error"},
			priority: "high",
		}, true
	case EventError:
		if !n.errors {
			return message{}, false
		}
		body := "Error"
		if label := payload.text("context"); label != "" {
			body += " with " + label
		}
		detail := payload.text("error")
		if detail == "" {
			detail = "unknown"
		}
		return message{
			title:    "tagtrack - Error",
			body:     body + ": " + detail,
			tags:     []string{"tagtrack", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "tagtrack - Test",
			body:     "Notification system test",
			tags:     []string{"tagtrack", "test"},
			priority: "low",
		}, true
	}
	return message{}, false
}

func (p Payload) text(key string) string {
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
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

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
