package events

import (
	"sync"
	"time"

	"vetadmin/internal/records"
)

const (
	// RecordsChanged fires after a successful create, update or delete.
	RecordsChanged = "records.changed"
	// SlotToggled fires after a blocked slot is created or removed.
	SlotToggled = "slot.toggled"
	// NotificationSent fires after a push notification request succeeds.
	NotificationSent = "notification.sent"
)

// Event is a lightweight in-process domain event.
type Event struct {
	Type      string
	Table     records.Table
	Action    string
	IDs       []int64
	Payload   any
	CreatedAt time.Time
}

// Handler reacts to an event.
type Handler func(event Event) error

// Bus provides in-process pub/sub for events.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish runs the subscribers of the event type synchronously and returns
// the first handler error. Every handler runs regardless. A nil bus is a no-op.
func (b *Bus) Publish(event Event) error {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var first error
	for _, handler := range handlers {
		if err := handler(event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
