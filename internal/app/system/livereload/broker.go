// Package livereload tells open browser tabs to reload when files under a
// watched directory change. The Watcher turns file system events into
// debounced change signals; the Broker fans them out to clients over
// server-sent events.
package livereload

import (
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// Broker fans change notifications out to connected SSE clients.
type Broker struct {
	mu      sync.Mutex
	clients map[chan struct{}]struct{}
	log     *zap.Logger
}

func NewBroker(logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{clients: map[chan struct{}]struct{}{}, log: logger}
}

// Notify signals every client. A client that has not yet consumed the
// previous signal is not sent a second one.
func (b *Broker) Notify() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.clients {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Clients is the number of connected clients.
func (b *Broker) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *Broker) add() chan struct{} {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) remove(ch chan struct{}) {
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
}

// ServeHTTP streams "reload" events until the client goes away.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ch := b.add()
	defer b.remove(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ch:
			if _, err := fmt.Fprint(w, "data: reload\n\n"); err != nil {
				b.log.Debug("livereload client gone", zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}
