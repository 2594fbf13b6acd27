package stream

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agentcore/core/internal/agent"
)

func TestWriteSSEFramesEachEvent(t *testing.T) {
	events := make(chan agent.Event, 2)
	events <- agent.Event{Type: agent.EventStatus, Status: "processing", Message: "starting"}
	events <- agent.Event{Type: agent.EventDone, SessionID: "sess-1", MessageID: "msg-1", TotalIterations: 2}
	close(events)

	rec := httptest.NewRecorder()
	if err := WriteSSE(rec, events, func() int64 { return 1700000000 }); err != nil {
		t.Fatalf("WriteSSE: %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"type":"status"`) {
		t.Fatalf("expected a status frame in body: %s", body)
	}
	if !strings.Contains(body, `"type":"done"`) {
		t.Fatalf("expected a done frame in body: %s", body)
	}
	if !strings.Contains(body, "\"timestamp\":1700000000") {
		t.Fatalf("expected the injected timestamp in every frame: %s", body)
	}
	if strings.Count(body, "data: ") != 2 {
		t.Fatalf("expected exactly 2 SSE frames, got body: %s", body)
	}
	if rec.Header().Get("Content-Type") != "text/event-stream" {
		t.Fatalf("expected SSE content type, got %q", rec.Header().Get("Content-Type"))
	}
}
