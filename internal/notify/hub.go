package notify

import "sync"

// Subscription is a cancelable handle returned by Subscribe. Cancel is
// idempotent.
type Subscription interface {
	Cancel()
}

// Hub fans change notifications out to in-process subscribers. Callbacks
// carry no payload; subscribers are expected to re-read the source.
type Hub struct {
	mu   sync.Mutex
	subs map[int]func()
	next int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]func())}
}

func (h *Hub) Subscribe(onChange func()) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	h.subs[id] = onChange
	return &subscription{hub: h, id: id}
}

// Broadcast invokes every active subscriber callback. Callbacks run
// synchronously on the caller's goroutine.
func (h *Hub) Broadcast() {
	h.mu.Lock()
	callbacks := make([]func(), 0, len(h.subs))
	for _, fn := range h.subs {
		callbacks = append(callbacks, fn)
	}
	h.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// SubscriberCount reports the number of active subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

type subscription struct {
	hub  *Hub
	id   int
	once sync.Once
}

func (s *subscription) Cancel() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		delete(s.hub.subs, s.id)
	})
}
