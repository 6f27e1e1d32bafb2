// Package notify provides the process-wide notification bus the progress
// relay publishes on and presentation layers subscribe to.
//
// Delivery is fire-and-forget: publishing never blocks, and a subscriber
// whose channel is full misses the event. This mirrors how UI-facing
// broadcasts behave elsewhere in the system; the bus carries observability
// signals, not correctness-critical data.
package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Kind identifies a notification type.
type Kind string

const (
	// KindProgress is a coarse download progress update.
	KindProgress Kind = "ai-download-progress"
	// KindComplete is the terminal success notification for a download.
	KindComplete Kind = "ai-download-complete"
	// KindError is the terminal failure notification for a download.
	KindError Kind = "ai-download-error"
)

// PercentUnknown marks a progress event whose percent could not be computed.
const PercentUnknown = -1

// Event is one notification on the bus.
type Event struct {
	Kind      Kind      `json:"kind"`
	Source    string    `json:"source"`
	Percent   int       `json:"percent"`
	RawLoaded float64   `json:"raw_loaded,omitempty"`
	RawTotal  float64   `json:"raw_total,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// subscriberBuffer sizes each subscriber channel. Slow subscribers drop
// events rather than stalling the publisher.
const subscriberBuffer = 64

// Bus is a process-wide event bus with non-blocking publish.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	log         *zap.SugaredLogger
}

// NewBus creates an empty bus.
func NewBus(log *zap.SugaredLogger) *Bus {
	return &Bus{
		subscribers: make(map[chan Event]struct{}),
		log:         log,
	}
}

// Subscribe registers a new subscriber channel. The caller must Unsubscribe
// when done; the bus never closes subscriber channels.
func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel. After Unsubscribe returns no
// further events are sent on ch, so the caller may close it.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subscribers, ch)
	b.mu.Unlock()
}

// Publish sends the event to all subscribers without blocking.
// Returns the number of subscribers that accepted the event.
func (b *Bus) Publish(ev Event) int {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	b.mu.RLock()
	subscribers := make([]chan Event, 0, len(b.subscribers))
	for ch := range b.subscribers {
		subscribers = append(subscribers, ch)
	}
	b.mu.RUnlock()

	sent := 0
	for _, ch := range subscribers {
		select {
		case ch <- ev:
			sent++
		default:
			// Subscriber buffer full - skip.
		}
	}

	if b.log != nil {
		b.log.Debugw("Published notification",
			"kind", ev.Kind,
			"source", ev.Source,
			"percent", ev.Percent,
			"subscribers", sent,
		)
	}
	return sent
}
