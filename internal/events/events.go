// Package events carries the domain events produced by the services and a
// minimal synchronous in-process bus to fan them out.
package events

import (
	"sync"

	"github.com/example/stopvol/internal/models"
)

// DeclarationCreated is published when a citizen files a new declaration.
type DeclarationCreated struct {
	Declaration *models.Declaration
}

// NotificationSent is published when asynchronous delivery succeeds.
type NotificationSent struct {
	Notification *models.Notification
}

// UserProfileCompleted is published when a citizen finishes their profile and
// it enters pending validation.
type UserProfileCompleted struct {
	User *models.User
}

// Handler receives every published event.
type Handler func(event any)

// Bus is a synchronous publish/subscribe fan-out. Subscribers run on the
// publisher's goroutine, so they must not block.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all events.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers event to every subscriber in registration order.
func (b *Bus) Publish(event any) {
	b.mu.RLock()
	handlers := b.handlers
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
