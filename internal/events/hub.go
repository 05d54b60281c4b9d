// Package events fans spawn, process and approval notifications out to
// in-process listeners (the SSE endpoint) and keeps a bounded history so a
// reconnecting client can catch up.
package events

import (
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Event types published by launchpad components.
const (
	SpawnResolving  = "spawn.resolving"
	SpawnSpawned    = "spawn.spawned"
	SpawnFailed     = "spawn.failed"
	ProcessExited   = "process.exited"
	ApprovalDecided = "approval.decided"
)

// Publisher is the write side of the hub. Components depend on this rather
// than on *Hub so tests can pass nil or a recorder.
type Publisher interface {
	Publish(eventType string, data any)
}

// Event is one published notification. Data is the JSON-encoded payload.
type Event struct {
	ID   int64           `json:"id"`
	Type string          `json:"type"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data"`
}

// Filter selects events by type prefix ("spawn", "process.exited"). An empty
// filter matches everything.
type Filter []string

// ParseFilter splits a comma separated list of prefixes.
func ParseFilter(s string) Filter {
	var f Filter
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			f = append(f, p)
		}
	}
	return f
}

// Match reports whether eventType is selected.
func (f Filter) Match(eventType string) bool {
	if len(f) == 0 {
		return true
	}
	for _, p := range f {
		if eventType == p || strings.HasPrefix(eventType, strings.TrimSuffix(p, ".")+".") {
			return true
		}
	}
	return false
}

const subscriberBuffer = 64

type subscriber struct {
	ch     chan Event
	filter Filter
}

// Hub is an in-memory pub/sub with a bounded history.
type Hub struct {
	lastID  atomic.Int64
	dropped atomic.Int64

	mu      sync.Mutex
	history []Event // oldest first, at most limit entries
	limit   int
	subs    map[*subscriber]struct{}
}

// NewHub keeps the last capacity events for replay (100 when capacity <= 0).
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 100
	}
	return &Hub{
		history: make([]Event, 0, capacity),
		limit:   capacity,
		subs:    make(map[*subscriber]struct{}),
	}
}

// Publish records an event and offers it to every matching subscriber. A
// subscriber whose buffer is full misses the event; see Dropped.
func (h *Hub) Publish(eventType string, data any) {
	payload := json.RawMessage("{}")
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			payload = b
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ev := Event{ID: h.lastID.Add(1), Type: eventType, At: time.Now().UTC(), Data: payload}
	if len(h.history) == h.limit {
		copy(h.history, h.history[1:])
		h.history = h.history[:h.limit-1]
	}
	h.history = append(h.history, ev)

	for sub := range h.subs {
		if !sub.filter.Match(eventType) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribe registers a listener for events matching filter. The returned
// func unsubscribes and closes the channel; it is safe to call twice.
func (h *Hub) Subscribe(filter Filter) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, subscriberBuffer), filter: filter}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub.ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[sub]; ok {
			delete(h.subs, sub)
			close(sub.ch)
		}
	}
}

// SnapshotSince returns retained events with ID > lastID that match filter,
// oldest first.
func (h *Hub) SnapshotSince(lastID int64, filter Filter) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []Event
	for _, ev := range h.history {
		if ev.ID > lastID && filter.Match(ev.Type) {
			out = append(out, ev)
		}
	}
	return out
}

// Dropped counts deliveries skipped because a subscriber was not keeping up.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
