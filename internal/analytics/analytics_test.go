package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *recordingSink) Send(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) received() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestEmitterDeliversAndDrainsOnShutdown(t *testing.T) {
	sink := &recordingSink{}
	fixed := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	e := NewEmitter(sink, withClock(func() time.Time { return fixed }))

	e.Emit("fulfillment.search-candidates", "conv-1", map[string]any{"status": "FINAL"})
	e.Emit("fulfillment.submit-application", "conv-1", map[string]any{"status": "FINAL"})

	go e.Run(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}

	events := sink.received()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	first := events[0]
	if first.ID == "" || first.ID == events[1].ID {
		t.Fatalf("expected unique event ids, got %q and %q", first.ID, events[1].ID)
	}
	if first.Type != "fulfillment.search-candidates" || first.ConversationID != "conv-1" || !first.Timestamp.Equal(fixed) {
		t.Fatalf("unexpected event: %+v", first)
	}
}

func TestEmitRedactsPersonalFields(t *testing.T) {
	sink := &recordingSink{}
	e := NewEmitter(sink)

	data := map[string]any{
		"tag":             "submit-application",
		"applicant_name":  "Jane Doe",
		"Applicant_Email": "jane@example.com",
		"applicant_phone": "555-0100",
		"raw_text":        "my name is Jane",
	}
	e.Emit("fulfillment.submit-application", "conv-1", data)

	go e.Run(context.Background())
	if err := e.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}

	events := sink.received()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if len(events[0].Data) != 1 || events[0].Data["tag"] != "submit-application" {
		t.Fatalf("expected personal fields to be redacted, got %+v", events[0].Data)
	}
	if _, ok := data["applicant_name"]; !ok {
		t.Fatalf("expected caller data to be left intact")
	}
}

func TestEmitDropsWhenQueueFull(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := NewEmitter(&recordingSink{}, WithQueueSize(1), WithLogger(zap.New(core)))

	e.Emit("a", "", nil)
	e.Emit("b", "", nil)

	if logs.FilterMessage("analytics event dropped").Len() != 1 {
		t.Fatalf("expected one dropped event warning, got %d", logs.Len())
	}
}

func TestEmitAfterShutdownIsDropped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	sink := &recordingSink{}
	e := NewEmitter(sink, WithLogger(zap.New(core)))

	go e.Run(context.Background())
	if err := e.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}

	e.Emit("late", "", nil)

	if len(sink.received()) != 0 {
		t.Fatalf("expected no delivery after shutdown")
	}
	if logs.FilterMessage("analytics event dropped").Len() != 1 {
		t.Fatalf("expected dropped event warning")
	}
}

func TestDeliveryFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := NewEmitter(&recordingSink{err: errors.New("collector down")}, WithLogger(zap.New(core)))

	e.Emit("a", "", nil)
	go e.Run(context.Background())
	if err := e.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}

	if logs.FilterMessage("analytics delivery failed").Len() != 1 {
		t.Fatalf("expected delivery failure warning")
	}
}

func TestShutdownTimesOutWithoutRun(t *testing.T) {
	e := NewEmitter(Nop{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := e.Shutdown(ctx); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestHTTPSink(t *testing.T) {
	var got Event
	status := http.StatusAccepted
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request: %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(status)
	}))
	defer srv.Close()

	sink := NewHTTPSink(srv.URL, time.Second)
	event := Event{ID: "evt-1", Type: "fulfillment.validate-candidate-id", Data: map[string]any{"status": "FINAL"}}

	if err := sink.Send(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "evt-1" || got.Data["status"] != "FINAL" {
		t.Fatalf("unexpected payload: %+v", got)
	}

	status = http.StatusInternalServerError
	if err := sink.Send(context.Background(), event); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
