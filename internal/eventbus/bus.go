// Package eventbus is the in-process channel that tells live views a
// project's customization changed.
//
// A Bus is an ordinary value owned by the runtime and passed to whoever
// needs it. Topics are typed, so a handler for CustomizationUpdated only
// ever sees a model.ProjectKey. Delivery is synchronous and nothing is
// persisted: an event published with no subscriber is dropped.
package eventbus

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/qrdeck/qrdeck/internal/logging"
	"github.com/qrdeck/qrdeck/internal/model"
)

// Topic names an event stream carrying payloads of type T.
type Topic[T any] struct {
	name string
}

// NewTopic creates a topic with the given name.
func NewTopic[T any](name string) Topic[T] {
	return Topic[T]{name: name}
}

// Name returns the topic name.
func (t Topic[T]) Name() string {
	return t.name
}

// CustomizationUpdated is published after a project's colors are saved or reset.
var CustomizationUpdated = NewTopic[model.ProjectKey]("customizationUpdated")

// Bus holds subscriber lists per topic.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string][]*Subscription
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]*Subscription)}
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	bus      *Bus
	topic    string
	id       uint64
	released atomic.Bool
	invoke   func(any)
}

// Release deregisters the handler. It is safe to call more than once and
// from inside a handler.
func (s *Subscription) Release() {
	if s == nil || !s.released.CompareAndSwap(false, true) {
		return
	}
	s.bus.remove(s)
}

// Released reports whether Release has been called.
func (s *Subscription) Released() bool {
	return s.released.Load()
}

// Subscribe registers handler for topic.
func Subscribe[T any](bus *Bus, topic Topic[T], handler func(T)) *Subscription {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	bus.nextID++
	sub := &Subscription{
		bus:   bus,
		topic: topic.name,
		id:    bus.nextID,
		invoke: func(payload any) {
			handler(payload.(T))
		},
	}
	bus.subs[topic.name] = append(bus.subs[topic.name], sub)
	return sub
}

// Publish delivers payload to every subscriber registered when the call
// started and returns how many handlers ran. Handlers released during the
// emit are skipped; handlers added during the emit wait for the next one.
func Publish[T any](bus *Bus, topic Topic[T], payload T) int {
	bus.mu.Lock()
	snapshot := make([]*Subscription, len(bus.subs[topic.name]))
	copy(snapshot, bus.subs[topic.name])
	bus.mu.Unlock()

	delivered := 0
	for _, sub := range snapshot {
		if sub.released.Load() {
			continue
		}
		if deliver(sub, payload) {
			delivered++
		}
	}

	logging.DebugLog("event published",
		logging.KeyTopic, topic.name,
		logging.KeyCount, delivered,
	)
	return delivered
}

// deliver runs one handler, recovering a panic so the remaining
// subscribers still get the event.
func deliver(sub *Subscription, payload any) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("event handler panicked",
				logging.KeyTopic, sub.topic,
				logging.KeyError, fmt.Sprint(r),
			)
			ok = false
		}
	}()
	sub.invoke(payload)
	return true
}

// Len returns the number of live subscribers on topic.
func Len[T any](bus *Bus, topic Topic[T]) int {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	return len(bus.subs[topic.name])
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.subs[sub.topic]
	for i, s := range list {
		if s.id == sub.id {
			// Copy so a snapshot taken by an in-flight Publish stays intact.
			next := make([]*Subscription, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			if len(next) == 0 {
				delete(b.subs, sub.topic)
			} else {
				b.subs[sub.topic] = next
			}
			return
		}
	}
}

// SubscribeKey subscribes to CustomizationUpdated and calls fn only for
// payloads that refer to key.
func SubscribeKey(bus *Bus, key model.ProjectKey, fn func(model.ProjectKey)) *Subscription {
	return Subscribe(bus, CustomizationUpdated, func(updated model.ProjectKey) {
		if key.Matches(updated) {
			fn(updated)
		}
	})
}
