// Package eventbus provides the in-process pub/sub bus connecting the
// poll, decision and dispatch loops to passive observers such as the MQTT
// mirror. Publishing never blocks: a subscriber that cannot keep up loses
// events rather than stalling a loop.
package eventbus

import "sync"

// Event is any value published on the bus. The concrete event types live in
// core/events.
type Event any

// Bus is a fan-out event bus with buffered subscriber channels.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Event
	closed bool
}

// subscriberBuffer is sized for bursts of one dispatch pass across all
// targets; observers are expected to drain promptly.
const subscriberBuffer = 16

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Publish delivers e to every current subscriber without blocking. Events
// are dropped for subscribers whose buffer is full.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a subscriber and returns its channel together with a
// cancel function removing the subscription. The channel is closed on
// cancel or when the bus closes.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			if !b.closed {
				close(sub)
			}
		}
	}
}

// Close closes all subscriber channels. Publishing after Close is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
