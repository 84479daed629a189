package events

import (
	"log"
	"sync"
	"time"
)

// Event is a typed application notification. Components publish concrete
// payloads instead of signaling through ambient global state.
type Event struct {
	Name       string
	OccurredAt time.Time
	Payload    any
}

// Well-known event names.
const (
	EdgeSet        = "edge.set"
	EdgeCleared    = "edge.cleared"
	PremiumChanged = "billing.premium_changed"
	PostCreated    = "post.created"
	PostDeleted    = "post.deleted"
	UserBanned     = "moderation.user_banned"
	UserUnbanned   = "moderation.user_unbanned"
	CommentCreated = "comment.created"
)

// EdgePayload accompanies EdgeSet/EdgeCleared.
type EdgePayload struct {
	ActorID  string
	TargetID string
	Kind     string
	On       bool
}

// PremiumPayload accompanies PremiumChanged.
type PremiumPayload struct {
	UserID    string
	IsPremium bool
	Plan      string
}

// Handler consumes a published event. Handlers must not block; slow work
// belongs in the handler's own goroutine.
type Handler func(Event)

// Bus is an in-process publish/subscribe dispatcher scoped to the
// application. Subscription happens at startup; publishing is safe from any
// request goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for an event name.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish delivers the event to all handlers registered for its name.
// A panicking handler is recovered and logged so one subscriber cannot take
// down the request.
func (b *Bus) Publish(name string, payload any) {
	b.mu.RLock()
	handlers := b.handlers[name]
	b.mu.RUnlock()

	ev := Event{Name: name, OccurredAt: time.Now(), Payload: payload}
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("event handler for %s panicked: %v", name, r)
				}
			}()
			h(ev)
		}()
	}
}

var (
	defaultBus  *Bus
	defaultOnce sync.Once
)

// Default returns the process-wide bus.
func Default() *Bus {
	defaultOnce.Do(func() {
		defaultBus = NewBus()
	})
	return defaultBus
}
