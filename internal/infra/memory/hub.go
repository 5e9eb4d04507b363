package memory

import (
	"sync"

	"recapp-sync-service/internal/app"
)

// hub fans push notifications out to per-quiz subscriber sets. Publishing is
// synchronous: by the time a store mutation returns, every local sink has
// been handed the push.
type hub struct {
	mu    sync.Mutex
	next  int
	sinks map[string]map[int]app.Sink
}

func newHub() *hub {
	return &hub{sinks: make(map[string]map[int]app.Sink)}
}

func (h *hub) subscribe(quizID string, sink app.Sink) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sinks[quizID] == nil {
		h.sinks[quizID] = make(map[int]app.Sink)
	}
	id := h.next
	h.next++
	h.sinks[quizID][id] = sink

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.sinks[quizID], id)
		if len(h.sinks[quizID]) == 0 {
			delete(h.sinks, quizID)
		}
	}
}

func (h *hub) publish(quizID string, p app.Push) {
	h.mu.Lock()
	sinks := make([]app.Sink, 0, len(h.sinks[quizID]))
	for _, sink := range h.sinks[quizID] {
		sinks = append(sinks, sink)
	}
	h.mu.Unlock()

	for _, sink := range sinks {
		sink(p)
	}
}
