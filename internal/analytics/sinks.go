package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LogSink writes events to the structured log.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Send(_ context.Context, event Event) error {
	logger := s.Logger
	if logger == nil {
		return nil
	}
	logger.Info("analytics event",
		zap.String("event_id", event.ID),
		zap.String("type", event.Type),
		zap.String("conversation_id", event.ConversationID),
		zap.Time("timestamp", event.Timestamp),
		zap.Any("data", event.Data),
	)
	return nil
}

// HTTPSink posts events as JSON to a collector endpoint.
type HTTPSink struct {
	URL       string
	Client    *http.Client
	UserAgent string
}

func NewHTTPSink(url string, timeout time.Duration) *HTTPSink {
	return &HTTPSink{
		URL:       strings.TrimSpace(url),
		Client:    &http.Client{Timeout: timeout},
		UserAgent: "pawmatch-analytics",
	}
}

func (s *HTTPSink) Send(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("collector returned %s", resp.Status)
	}
	return nil
}

// Nop discards events.
type Nop struct{}

func (Nop) Send(context.Context, Event) error { return nil }
