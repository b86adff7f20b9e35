package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qrdeck/qrdeck/internal/model"
)

var homeKey = model.ProjectKey{Name: "Home", Text: "https://example.com"}

// =============================================================================
// Subscribe / Publish
// =============================================================================

func TestPublishDeliversToEverySubscriber(t *testing.T) {
	bus := New()
	var a, b []model.ProjectKey

	Subscribe(bus, CustomizationUpdated, func(k model.ProjectKey) { a = append(a, k) })
	Subscribe(bus, CustomizationUpdated, func(k model.ProjectKey) { b = append(b, k) })

	n := Publish(bus, CustomizationUpdated, homeKey)

	assert.Equal(t, 2, n)
	assert.Equal(t, []model.ProjectKey{homeKey}, a)
	assert.Equal(t, []model.ProjectKey{homeKey}, b)
}

func TestPublishWithoutSubscribersIsDropped(t *testing.T) {
	bus := New()
	assert.Equal(t, 0, Publish(bus, CustomizationUpdated, homeKey))

	// A late subscriber does not see earlier events.
	calls := 0
	Subscribe(bus, CustomizationUpdated, func(model.ProjectKey) { calls++ })
	assert.Equal(t, 0, calls)
}

func TestTopicsAreIsolated(t *testing.T) {
	bus := New()
	other := NewTopic[string]("other")

	var got []string
	Subscribe(bus, other, func(s string) { got = append(got, s) })

	assert.Equal(t, 0, Publish(bus, CustomizationUpdated, homeKey))
	assert.Equal(t, 1, Publish(bus, other, "hello"))
	assert.Equal(t, []string{"hello"}, got)
	assert.Equal(t, "customizationUpdated", CustomizationUpdated.Name())
}

func TestBusesAreIndependent(t *testing.T) {
	first, second := New(), New()
	calls := 0
	Subscribe(first, CustomizationUpdated, func(model.ProjectKey) { calls++ })

	Publish(second, CustomizationUpdated, homeKey)
	assert.Equal(t, 0, calls)
}

// =============================================================================
// Release
// =============================================================================

func TestReleaseStopsDelivery(t *testing.T) {
	bus := New()
	calls := 0
	sub := Subscribe(bus, CustomizationUpdated, func(model.ProjectKey) { calls++ })

	Publish(bus, CustomizationUpdated, homeKey)
	sub.Release()
	Publish(bus, CustomizationUpdated, homeKey)

	assert.Equal(t, 1, calls)
	assert.True(t, sub.Released())
	assert.Equal(t, 0, Len(bus, CustomizationUpdated))
}

func TestReleaseIsIdempotent(t *testing.T) {
	bus := New()
	keep := 0
	sub := Subscribe(bus, CustomizationUpdated, func(model.ProjectKey) {})
	Subscribe(bus, CustomizationUpdated, func(model.ProjectKey) { keep++ })

	sub.Release()
	sub.Release()

	assert.Equal(t, 1, Len(bus, CustomizationUpdated))
	assert.Equal(t, 1, Publish(bus, CustomizationUpdated, homeKey))
	assert.Equal(t, 1, keep)

	var nilSub *Subscription
	assert.NotPanics(t, nilSub.Release)
}

func TestReleaseDuringEmitSkipsLaterHandler(t *testing.T) {
	bus := New()
	var second *Subscription
	secondCalls := 0

	Subscribe(bus, CustomizationUpdated, func(model.ProjectKey) { second.Release() })
	second = Subscribe(bus, CustomizationUpdated, func(model.ProjectKey) { secondCalls++ })

	n := Publish(bus, CustomizationUpdated, homeKey)

	assert.Equal(t, 1, n)
	assert.Equal(t, 0, secondCalls)
}

func TestSubscribeDuringEmitWaitsForNextPublish(t *testing.T) {
	bus := New()
	lateCalls := 0
	added := false

	Subscribe(bus, CustomizationUpdated, func(model.ProjectKey) {
		if !added {
			added = true
			Subscribe(bus, CustomizationUpdated, func(model.ProjectKey) { lateCalls++ })
		}
	})

	assert.Equal(t, 1, Publish(bus, CustomizationUpdated, homeKey))
	assert.Equal(t, 0, lateCalls)

	assert.Equal(t, 2, Publish(bus, CustomizationUpdated, homeKey))
	assert.Equal(t, 1, lateCalls)
}

func TestSelfReleaseInsideHandler(t *testing.T) {
	bus := New()
	calls := 0
	var sub *Subscription
	sub = Subscribe(bus, CustomizationUpdated, func(model.ProjectKey) {
		calls++
		sub.Release()
	})

	Publish(bus, CustomizationUpdated, homeKey)
	Publish(bus, CustomizationUpdated, homeKey)
	assert.Equal(t, 1, calls)
}

// =============================================================================
// Panics
// =============================================================================

func TestPanickingHandlerDoesNotStopOthers(t *testing.T) {
	bus := New()
	calls := 0

	Subscribe(bus, CustomizationUpdated, func(model.ProjectKey) { panic("boom") })
	Subscribe(bus, CustomizationUpdated, func(model.ProjectKey) { calls++ })

	var n int
	assert.NotPanics(t, func() { n = Publish(bus, CustomizationUpdated, homeKey) })
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, calls)
}

// =============================================================================
// SubscribeKey
// =============================================================================

func TestSubscribeKeyFiltersByIdentity(t *testing.T) {
	bus := New()
	matching, other := 0, 0

	SubscribeKey(bus, homeKey, func(model.ProjectKey) { matching++ })
	SubscribeKey(bus, model.ProjectKey{Name: "Work", Text: "https://example.com"}, func(model.ProjectKey) { other++ })

	Publish(bus, CustomizationUpdated, homeKey)

	assert.Equal(t, 1, matching)
	assert.Equal(t, 0, other)
}

func TestSubscribeKeyByID(t *testing.T) {
	bus := New()
	calls := 0
	SubscribeKey(bus, model.ProjectKey{ID: "a"}, func(model.ProjectKey) { calls++ })

	Publish(bus, CustomizationUpdated, model.ProjectKey{ID: "a", Name: "renamed", Text: "x"})
	Publish(bus, CustomizationUpdated, model.ProjectKey{ID: "b"})

	assert.Equal(t, 1, calls)
}
