package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t).Sugar())
	first := bus.Subscribe()
	second := bus.Subscribe()
	defer bus.Unsubscribe(first)
	defer bus.Unsubscribe(second)

	sent := bus.Publish(Event{Kind: KindProgress, Source: "prompt.legacy", Percent: 10})
	assert.Equal(t, 2, sent)

	for _, ch := range []chan Event{first, second} {
		select {
		case ev := <-ch:
			assert.Equal(t, KindProgress, ev.Kind)
			assert.Equal(t, 10, ev.Percent)
			assert.False(t, ev.Timestamp.IsZero(), "a timestamp is stamped on publish")
		default:
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t).Sugar())
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	// Overfill the subscriber buffer; the excess is dropped, not queued.
	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Publish(Event{Kind: KindProgress, Percent: i})
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
			continue
		default:
		}
		break
	}
	assert.Equal(t, subscriberBuffer, received)
}

func TestUnsubscribedChannelReceivesNothing(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t).Sugar())
	ch := bus.Subscribe()
	bus.Unsubscribe(ch)

	sent := bus.Publish(Event{Kind: KindComplete})
	assert.Equal(t, 0, sent)
	require.Empty(t, ch)
}
