// Package relay republishes a capability's download lifecycle as coarse
// notifications on the shared bus.
//
// The relay decouples the presentation layer from the capability object: a
// UI subscribes to the bus and never holds a reference to the session whose
// model is downloading. Guarantees per registration: at most one terminal
// notification, no progress after the terminal, consecutive duplicate
// percents suppressed, and computation errors degrade to an unknown percent
// instead of propagating.
package relay

import (
	"math"

	"go.uber.org/zap"

	"github.com/brieflex/brieflex/host"
	"github.com/brieflex/brieflex/notify"
)

// Relay builds download monitors that publish to a notification bus.
type Relay struct {
	bus *notify.Bus
	log *zap.SugaredLogger
}

// New creates a relay publishing on bus.
func New(bus *notify.Bus, log *zap.SugaredLogger) *Relay {
	return &Relay{bus: bus, log: log}
}

// MonitorFor returns a monitor for one download, labeled with the capability
// path that triggered it. Each registration owns its own duplicate/terminal
// state; the host may deliver events from a single goroutine only, matching
// the cooperative scheduling of the capability surface.
func (r *Relay) MonitorFor(sourceLabel string) host.Monitor {
	return &monitor{
		relay:       r,
		source:      sourceLabel,
		lastPercent: notify.PercentUnknown - 1, // sentinel: nothing emitted yet
	}
}

type monitor struct {
	relay       *Relay
	source      string
	lastPercent int
	done        bool
}

// Progress implements host.Monitor.
func (m *monitor) Progress(ev host.DownloadEvent) {
	if m.done {
		return
	}

	percent := computePercent(ev)
	if percent == m.lastPercent {
		return
	}
	m.lastPercent = percent

	m.relay.bus.Publish(notify.Event{
		Kind:      notify.KindProgress,
		Source:    m.source,
		Percent:   percent,
		RawLoaded: ev.Loaded,
		RawTotal:  ev.Total,
	})
}

// Complete implements host.Monitor. Duplicate terminal events from the host
// are swallowed.
func (m *monitor) Complete() {
	if m.done {
		return
	}
	m.done = true

	m.relay.bus.Publish(notify.Event{
		Kind:    notify.KindComplete,
		Source:  m.source,
		Percent: 100,
	})
}

// Error implements host.Monitor.
func (m *monitor) Error(err error) {
	if m.done {
		return
	}
	m.done = true

	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if m.relay.log != nil {
		m.relay.log.Warnw("Model download failed",
			"source", m.source,
			"error", msg,
		)
	}

	m.relay.bus.Publish(notify.Event{
		Kind:    notify.KindError,
		Source:  m.source,
		Percent: notify.PercentUnknown,
		Message: msg,
	})
}

// computePercent derives a 0-100 percent from a raw download event.
// Rules: round(loaded/total*100) when both are present and total > 0;
// round(loaded*100) when only loaded is present (a fractional 0-1 signal);
// otherwise unknown. Any malformed input degrades to unknown rather than
// panicking.
func computePercent(ev host.DownloadEvent) (percent int) {
	defer func() {
		if r := recover(); r != nil {
			percent = notify.PercentUnknown
		}
	}()

	var raw float64
	switch {
	case ev.HasLoaded && ev.HasTotal && ev.Total > 0:
		raw = ev.Loaded / ev.Total * 100
	case ev.HasLoaded:
		raw = ev.Loaded * 100
	default:
		return notify.PercentUnknown
	}

	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return notify.PercentUnknown
	}

	percent = int(math.Round(raw))
	if percent < 0 {
		return notify.PercentUnknown
	}
	if percent > 100 {
		percent = 100
	}
	return percent
}
