package httpadapter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/yhchiang/medrag/internal/core/domain"
)

const (
	flowSearch = "search"
	flowAnswer = "rag_qa"
)

// eventStream writes pipeline events as server-sent events, one
// "data: <json>" frame per event, flushed immediately so clients see
// stages as they happen.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newEventStream(w http.ResponseWriter) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming is not supported by response writer")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &eventStream{w: w, flusher: flusher}, nil
}

func (s *eventStream) send(event domain.ProgressEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("marshal_progress_event", "error", err)
		return
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		slog.Warn("write_progress_event", "error", err)
		return
	}
	s.flusher.Flush()
}

// timedSink wraps a progress sink with stage timing. Each event closes the
// stage opened by the previous one; repeated events for the same stage, as
// the translate notices are, extend it rather than splitting it.
func (rt *Router) timedSink(flow string, inner domain.ProgressSink) domain.ProgressSink {
	timer := &stageTimer{metrics: rt.metrics, flow: flow}
	return func(event domain.ProgressEvent) {
		timer.observe(event)
		inner(event)
	}
}

type stageTimer struct {
	metrics interface {
		ObserveStage(service, flow, stage string, duration time.Duration)
	}
	flow    string
	current domain.Stage
	started time.Time
}

func (t *stageTimer) observe(event domain.ProgressEvent) {
	now := time.Now()

	var next domain.Stage
	switch e := event.(type) {
	case domain.StageStarted:
		next = e.Step
	case domain.TranslationNotice:
		next = e.Step
	}
	if next != "" && next == t.current {
		return
	}

	if t.current != "" {
		t.metrics.ObserveStage(serviceName, t.flow, string(t.current), now.Sub(t.started))
	}
	t.current = next
	t.started = now
}
