package event

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Invalidation announces that a logical resource's data has changed and any
// view derived from it should re-issue its fetch.
type Invalidation struct {
	Resource string    `json:"resource"`
	Reason   string    `json:"reason"`
	At       time.Time `json:"at"`
}

// Handler receives invalidations for a subscribed resource.
type Handler func(Invalidation)

// Bus is an in-process publish/subscribe registry keyed by logical resource
// name. A completed mutation publishes an invalidation; subscribed views
// react by refetching. There is no global store behind it, only the
// subscription table.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]map[string]Handler
	logger *zap.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		subs:   make(map[string]map[string]Handler),
		logger: logger,
	}
}

// Subscribe registers a handler for a resource and returns an unsubscribe
// function. Unsubscribing twice is harmless.
func (b *Bus) Subscribe(resource string, h Handler) func() {
	id := uuid.NewString()

	b.mu.Lock()
	if b.subs[resource] == nil {
		b.subs[resource] = make(map[string]Handler)
	}
	b.subs[resource][id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs[resource], id)
		b.mu.Unlock()
	}
}

// Publish delivers an invalidation to every subscriber of the resource.
// Handlers run synchronously on the publishing goroutine, outside the bus
// lock so a handler may subscribe or unsubscribe.
func (b *Bus) Publish(resource, reason string) {
	inv := Invalidation{
		Resource: resource,
		Reason:   reason,
		At:       time.Now().UTC(),
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[resource]))
	for _, h := range b.subs[resource] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	b.logger.Debug("Publishing invalidation",
		zap.String("resource", resource),
		zap.String("reason", reason),
		zap.Int("subscribers", len(handlers)))

	for _, h := range handlers {
		h(inv)
	}
}
