// Package hub streams calculation and catalog events to Server-Sent Events
// subscribers.
//
// Every event is written as a named SSE frame with a sequence id:
//
//	id: 7
//	event: calculation_completed
//	data: {"type":"calculation_completed","payload":{...}}
//
// A subscriber may restrict the stream with ?types=a,b.
package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// subscriber is one open event stream
type subscriber struct {
	id     string
	types  map[string]bool
	frames chan []byte
}

func (s *subscriber) wants(name string) bool {
	return len(s.types) == 0 || s.types[name]
}

type message struct {
	name string
	data any
}

// Hub fans events out to subscribers
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	join        chan *subscriber
	leave       chan *subscriber
	messages    chan message
	stopped     chan struct{}
	seq         uint64
	keepAlive   time.Duration
	logger      *zap.Logger
}

// New creates a Hub. Events are only delivered while Run is active.
func New(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		join:        make(chan *subscriber),
		leave:       make(chan *subscriber),
		messages:    make(chan message, 256),
		stopped:     make(chan struct{}),
		keepAlive:   30 * time.Second,
		logger:      logger,
	}
}

// Run delivers published events until ctx is cancelled, then ends every
// open stream. Run must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case s := <-h.join:
			h.mu.Lock()
			h.subscribers[s] = struct{}{}
			n := len(h.subscribers)
			h.mu.Unlock()
			h.logger.Debug("subscriber joined", zap.String("subscriber", s.id), zap.Int("subscribers", n))

		case s := <-h.leave:
			h.drop(s)

		case msg := <-h.messages:
			h.deliver(msg)

		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) shutdown() {
	close(h.stopped)
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subscribers {
		delete(h.subscribers, s)
		close(s.frames)
	}
}

func (h *Hub) drop(s *subscriber) {
	h.mu.Lock()
	if _, ok := h.subscribers[s]; ok {
		delete(h.subscribers, s)
		close(s.frames)
	}
	n := len(h.subscribers)
	h.mu.Unlock()
	h.logger.Debug("subscriber left", zap.String("subscriber", s.id), zap.Int("subscribers", n))
}

func (h *Hub) deliver(msg message) {
	data, err := json.Marshal(msg.data)
	if err != nil {
		h.logger.Warn("failed to encode event", zap.String("event", msg.name), zap.Error(err))
		return
	}

	h.seq++
	var frame bytes.Buffer
	fmt.Fprintf(&frame, "id: %d\nevent: %s\ndata: %s\n\n", h.seq, msg.name, data)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subscribers {
		if !s.wants(msg.name) {
			continue
		}
		select {
		case s.frames <- frame.Bytes():
		default:
			h.logger.Debug("subscriber lagging, event skipped",
				zap.String("subscriber", s.id), zap.String("event", msg.name))
		}
	}
}

// Publish queues an event for delivery. It never blocks; when the queue
// is full the event is dropped.
func (h *Hub) Publish(name string, data any) {
	select {
	case h.messages <- message{name: name, data: data}:
	default:
		h.logger.Warn("event queue full, dropping event", zap.String("event", name))
	}
}

// Subscribers returns the number of open streams
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// ServeHTTP opens an event stream for the request
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	s := &subscriber{
		id:     uuid.NewString(),
		types:  parseTypes(r.URL.Query().Get("types")),
		frames: make(chan []byte, 64),
	}

	select {
	case h.join <- s:
	case <-h.stopped:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}
	defer func() {
		select {
		case h.leave <- s:
		case <-h.stopped:
		}
	}()

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")

	fmt.Fprintf(w, "retry: %d\n\n", h.keepAlive.Milliseconds())
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-s.frames:
			if !ok {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
		flusher.Flush()
	}
}

func parseTypes(raw string) map[string]bool {
	if raw == "" {
		return nil
	}
	types := make(map[string]bool)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types[t] = true
		}
	}
	return types
}
