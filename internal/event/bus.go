package event

import (
	"sync"
	"time"
)

// Handler receives published events on the publisher's goroutine.
type Handler func(Event)

// Publisher is the narrow interface components publish through.
type Publisher interface {
	Publish(Type, any)
}

// Bus is a synchronous publish/subscribe registry. Handlers run in
// subscription order on the goroutine that calls Publish.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[Type][]subscription
	now      func() time.Time
}

type subscription struct {
	id uint64
	fn Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]subscription),
		now:      time.Now,
	}
}

// Subscribe registers fn for events of type t. The returned func removes it
// and is safe to call more than once.
func (b *Bus) Subscribe(t Type, fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[t] = append(b.handlers[t], subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(t, id) })
	}
}

func (b *Bus) remove(t Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[t]
	for i, s := range subs {
		if s.id == id {
			// Copy so an in-flight Publish keeps iterating its own slice
			next := make([]subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			b.handlers[t] = next
			return
		}
	}
}

// Publish delivers payload to every handler subscribed to t.
func (b *Bus) Publish(t Type, payload any) {
	b.mu.RLock()
	subs := b.handlers[t]
	b.mu.RUnlock()

	if len(subs) == 0 {
		return
	}
	ev := Event{Type: t, Payload: payload, Time: b.now()}
	for _, s := range subs {
		s.fn(ev)
	}
}

// Discard is a Publisher that drops everything.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(Type, any) {}
