package engine

import "sync"

// EventType identifies the kind of change an Event describes.
type EventType string

const (
	EventStarted       EventType = "started"
	EventStopped       EventType = "stopped"
	EventReset         EventType = "reset"
	EventSpeedChanged  EventType = "speed_changed"
	EventGridChanged   EventType = "grid_changed"
	EventCellChanged   EventType = "cell_changed"
	EventNewGeneration EventType = "new_generation"
)

// GenerationUpdate carries the delta produced by one generation advance.
// Born and Killed are disjoint: cells that flipped dead->alive and
// alive->dead this step, with their post-step state.
type GenerationUpdate struct {
	Number int    `json:"number"`
	Born   []Cell `json:"born_cells"`
	Killed []Cell `json:"killed_cells"`
}

// Event is a typed change notification. Exactly the payload fields relevant
// to Type are populated; the rest are omitted from the JSON encoding so
// events can be broadcast to UI clients as-is.
type Event struct {
	Type       EventType         `json:"type"`
	Speed      float64           `json:"speed,omitempty"`
	Cell       *Cell             `json:"cell,omitempty"`
	Grid       *Snapshot         `json:"grid,omitempty"`
	Generation *GenerationUpdate `json:"generation,omitempty"`
}

// Subscriber receives events synchronously, on the goroutine that performed
// the engine operation. Handlers must not call back into mutating engine
// operations.
type Subscriber func(Event)

type subscription struct {
	id int
	fn Subscriber
}

// broker is an ordered observer registry. Emit delivers to the subscriber
// set present when the emit started, in subscription order; subscribers
// added or removed during an emit see no delivery guarantee for that event.
type broker struct {
	mu   sync.Mutex
	next int
	subs []subscription
}

func (b *broker) subscribe(fn Subscriber) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.subs = append(b.subs, subscription{id: b.next, fn: fn})
	return b.next
}

func (b *broker) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

func (b *broker) emit(ev Event) {
	b.mu.Lock()
	current := make([]subscription, len(b.subs))
	copy(current, b.subs)
	b.mu.Unlock()

	for _, s := range current {
		s.fn(ev)
	}
}
