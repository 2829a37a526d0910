// Package events is a small in-process publish/subscribe bus used for
// cross-store signals such as authentication state changes.
package events

import (
	"context"
	"sync"
)

// Topic names a signal stream.
type Topic string

const (
	// TopicAuthStateChanged asks listeners to re-check authentication-dependent state.
	TopicAuthStateChanged Topic = "auth.state_changed"
	// TopicAuthenticationChanged announces that the session flipped between
	// authenticated and anonymous. The payload is an AuthenticationChanged.
	TopicAuthenticationChanged Topic = "auth.authentication_changed"
)

// AuthenticationChanged is the payload of TopicAuthenticationChanged.
type AuthenticationChanged struct {
	Authenticated bool
}

// Handler receives a published payload.
type Handler func(ctx context.Context, payload any)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers payloads synchronously, in subscription order, on the
// publisher's goroutine. Handlers may publish or subscribe re-entrantly.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Topic][]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Topic][]subscription)}
}

// Subscribe registers handler on topic and returns a function that removes it.
// The returned function is safe to call more than once.
func (b *Bus) Subscribe(topic Topic, handler Handler) func() {
	if b == nil || handler == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(topic, id) })
	}
}

// Publish delivers payload to every handler subscribed to topic at call time.
func (b *Bus) Publish(ctx context.Context, topic Topic, payload any) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, sub := range b.subs[topic] {
		handlers = append(handlers, sub.handler)
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(ctx, payload)
	}
}

// Subscribers returns the number of handlers on topic.
func (b *Bus) Subscribers(topic Topic) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

func (b *Bus) unsubscribe(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[topic]
	for i, sub := range subs {
		if sub.id == id {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
}
