package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHub_BroadcastReachesAllSubscribers(t *testing.T) {
	h := NewHub()

	var a, b int
	h.Subscribe(func() { a++ })
	h.Subscribe(func() { b++ })

	h.Broadcast()
	h.Broadcast()

	assert.Equal(t, 2, a)
	assert.Equal(t, 2, b)
}

func TestHub_CancelStopsDelivery(t *testing.T) {
	h := NewHub()

	var calls int
	sub := h.Subscribe(func() { calls++ })

	h.Broadcast()
	sub.Cancel()
	h.Broadcast()

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, h.SubscriberCount())
}

func TestHub_CancelIsIdempotent(t *testing.T) {
	h := NewHub()

	sub := h.Subscribe(func() {})
	other := h.Subscribe(func() {})

	sub.Cancel()
	sub.Cancel()

	assert.Equal(t, 1, h.SubscriberCount())
	other.Cancel()
	assert.Equal(t, 0, h.SubscriberCount())
}

func TestHub_BroadcastWithNoSubscribers(t *testing.T) {
	h := NewHub()
	assert.NotPanics(t, func() { h.Broadcast() })
}
