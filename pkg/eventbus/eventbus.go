// Package eventbus provides a small topic-keyed publish/subscribe bus with
// bounded replay for late subscribers.
//
// Events are fanned out to every subscriber of their type. A fixed-size ring
// keeps the most recent events so that a late subscriber can catch up on
// recent history before receiving live events. Slow subscribers never block
// publishers: events that do not fit a subscriber's channel are dropped.
package eventbus

import (
	"log/slog"
	"sync"
)

// EventType names a topic on the bus.
type EventType string

// Event is one published value.
type Event struct {
	Type EventType
	Data any
}

const subscriberBuffer = 64

// Bus is a topic-keyed event bus. The zero value is not usable; create buses
// with New.
type Bus struct {
	mu     sync.Mutex
	ring   []Event
	next   int64
	subs   map[EventType]map[*Subscriber]struct{}
	closed bool
}

// New creates a Bus that retains the last ringSize events for replay.
func New(ringSize int) *Bus {
	return &Bus{
		ring: make([]Event, ringSize),
		subs: make(map[EventType]map[*Subscriber]struct{}),
	}
}

// Subscriber is one subscription to the bus. Events arrive on C. The channel
// is closed when the subscriber or the bus is closed.
type Subscriber struct {
	C <-chan Event

	bus   *Bus
	ch    chan Event
	types []EventType
	once  sync.Once
}

// Subscribe registers a subscriber for the given event types. Recent retained
// events matching the types are replayed into the channel first, oldest
// first, then live events follow.
func (b *Bus) Subscribe(types ...EventType) *Subscriber {
	sub := &Subscriber{
		bus:   b,
		ch:    make(chan Event, subscriberBuffer),
		types: types,
	}
	sub.C = sub.ch

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}

	for _, e := range b.replayLocked() {
		for _, t := range types {
			if e.Type == t {
				sub.deliver(e)
				break
			}
		}
	}
	for _, t := range types {
		if b.subs[t] == nil {
			b.subs[t] = make(map[*Subscriber]struct{})
		}
		b.subs[t][sub] = struct{}{}
	}
	return sub
}

// Close detaches the subscriber and closes its channel. Idempotent.
func (s *Subscriber) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	s.closeLocked()
}

func (s *Subscriber) closeLocked() {
	s.once.Do(func() {
		for _, t := range s.types {
			if subs, ok := s.bus.subs[t]; ok {
				delete(subs, s)
				if len(subs) == 0 {
					delete(s.bus.subs, t)
				}
			}
		}
		close(s.ch)
	})
}

func (s *Subscriber) deliver(e Event) {
	select {
	case s.ch <- e:
	default:
		slog.Warn("eventbus: dropping event for slow subscriber", "type", e.Type)
	}
}

// Publish sends e to every subscriber of its type and records it in the
// replay ring. Publish never blocks; slow subscribers lose events.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if len(b.ring) > 0 {
		b.ring[b.next%int64(len(b.ring))] = e
		b.next++
	}
	for sub := range b.subs[e.Type] {
		sub.deliver(e)
	}
}

// Close shuts the bus down and closes every subscriber channel. Idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, subs := range b.subs {
		for sub := range subs {
			sub.once.Do(func() { close(sub.ch) })
		}
	}
	b.subs = nil
}

// replayLocked returns the retained events, oldest first.
func (b *Bus) replayLocked() []Event {
	size := int64(len(b.ring))
	if size == 0 {
		return nil
	}
	start := b.next - size
	if start < 0 {
		start = 0
	}
	out := make([]Event, 0, b.next-start)
	for i := start; i < b.next; i++ {
		out = append(out, b.ring[i%size])
	}
	return out
}
