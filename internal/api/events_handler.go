package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/mattjoyce/launchpad/internal/events"
)

const keepAliveInterval = 15 * time.Second

// sseStream writes server-sent events and flushes after each one.
type sseStream struct {
	w http.ResponseWriter
	f http.Flusher
}

func (s sseStream) send(ev events.Event) error {
	// Payloads are single-line JSON, so one data line suffices.
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", ev.ID, ev.Type, ev.Data); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

func (s sseStream) ping() error {
	if _, err := fmt.Fprint(s.w, ": keep-alive\n\n"); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

// handleEvents handles GET /events?types=spawn,process. Retained events
// newer than Last-Event-ID are replayed before live ones.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.deps.Events == nil {
		s.writeError(w, http.StatusServiceUnavailable, "event stream is disabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	filter := events.ParseFilter(r.URL.Query().Get("types"))
	// Subscribe before replaying so nothing published in between is lost.
	live, unsubscribe := s.deps.Events.Subscribe(filter)
	defer unsubscribe()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	stream := sseStream{w: w, f: flusher}
	lastSent := parseLastEventID(r.Header.Get("Last-Event-ID"))
	for _, ev := range s.deps.Events.SnapshotSince(lastSent, filter) {
		if err := stream.send(ev); err != nil {
			return
		}
		lastSent = ev.ID
	}
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-live:
			if !ok {
				return
			}
			if ev.ID <= lastSent {
				continue // already replayed
			}
			if err := stream.send(ev); err != nil {
				return
			}
			lastSent = ev.ID
		case <-ticker.C:
			if err := stream.ping(); err != nil {
				return
			}
		}
	}
}

func parseLastEventID(v string) int64 {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
