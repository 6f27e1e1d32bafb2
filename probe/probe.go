// Package probe detects which host capability families exist and are
// functionally usable, caching the result for the process lifetime.
//
// Existence is cheap (the provider either exposes a binding or it does not);
// functionality is verified with a live smoke test: create a minimal session,
// issue a trivial call, require a non-empty reply. The report is recomputed
// only through an explicit Reprobe.
package probe

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/brieflex/brieflex/host"
	"github.com/brieflex/brieflex/invoke"
)

// smokeInput is the trivial prompt used for functional smoke tests.
const smokeInput = "Hi"

// FamilyStatus is the probe outcome for one capability family.
type FamilyStatus struct {
	Family host.Family `json:"family"`
	// Exists is true when at least one binding generation exposes the family.
	Exists bool `json:"exists"`
	// Generation is the newest generation that exposes the family. Only
	// meaningful when Exists is true.
	Generation host.Generation `json:"generation"`
	// Availability is the readiness reported by that generation's binding.
	Availability host.Availability `json:"availability"`
	// Functional is true when a smoke test returned a non-empty reply.
	Functional bool `json:"functional"`
	// Detail carries the last probe error for this family, if any.
	Detail string `json:"detail,omitempty"`
}

// Report is the memoized capability report. Immutable once computed.
type Report struct {
	Families map[host.Family]FamilyStatus `json:"families"`
	// Functional is true iff at least one family is functional.
	Functional bool      `json:"functional"`
	ProbedAt   time.Time `json:"probed_at"`
}

// Status returns the probe outcome for family, zero-valued when unknown.
func (r Report) Status(family host.Family) FamilyStatus {
	return r.Families[family]
}

// Prober computes and caches the capability report.
type Prober struct {
	provider host.Provider
	timeout  time.Duration
	log      *zap.SugaredLogger

	mu     sync.Mutex
	report *Report
}

// New creates a prober over the given capability provider. Smoke-test
// session creations are bounded by timeout; non-positive selects the
// default invocation timeout.
func New(provider host.Provider, timeout time.Duration, log *zap.SugaredLogger) *Prober {
	if timeout <= 0 {
		timeout = invoke.DefaultTimeout
	}
	return &Prober{provider: provider, timeout: timeout, log: log}
}

// Probe returns the capability report, computing it on first call and
// returning the cached copy afterwards. The smoke tests run at most once
// per process unless Reprobe is called.
func (p *Prober) Probe(ctx context.Context) Report {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.report == nil {
		r := p.compute(ctx)
		p.report = &r
	}
	return *p.report
}

// Reprobe discards the cached report and computes a fresh one.
func (p *Prober) Reprobe(ctx context.Context) Report {
	p.mu.Lock()
	defer p.mu.Unlock()
	r := p.compute(ctx)
	p.report = &r
	return r
}

func (p *Prober) compute(ctx context.Context) Report {
	report := Report{
		Families: make(map[host.Family]FamilyStatus, len(host.Families())),
		ProbedAt: time.Now(),
	}

	// Cheap existence pass first. When no binding exists anywhere the
	// report short-circuits to fully unavailable without any smoke test.
	anyExists := false
	for _, family := range host.Families() {
		status := FamilyStatus{Family: family, Availability: host.Unavailable}
		for _, gen := range host.Generations() {
			if _, ok := p.provider.Surface(family, gen); ok {
				status.Exists = true
				status.Generation = gen
				anyExists = true
				break
			}
		}
		report.Families[family] = status
	}
	if !anyExists {
		if p.log != nil {
			p.log.Infow("Capability probe found no host bindings")
		}
		return report
	}

	for _, family := range host.Families() {
		status := report.Families[family]
		if !status.Exists {
			continue
		}
		report.Families[family] = p.probeFamily(ctx, status)
	}

	for _, status := range report.Families {
		if status.Functional {
			report.Functional = true
			break
		}
	}

	if p.log != nil {
		p.log.Infow("Capability probe complete",
			"functional", report.Functional,
			"families", len(report.Families),
		)
	}
	return report
}

// probeFamily smoke-tests one family, newest generation first. A failure
// under one generation falls through to the next; a failure anywhere is
// contained to this family.
func (p *Prober) probeFamily(ctx context.Context, status FamilyStatus) FamilyStatus {
	for _, gen := range host.Generations() {
		surface, ok := p.provider.Surface(status.Family, gen)
		if !ok {
			continue
		}

		avail, detail, functional := p.smokeTest(ctx, surface)
		status.Generation = gen
		status.Availability = avail
		status.Detail = detail
		if functional {
			status.Functional = true
			return status
		}
	}
	return status
}

// smokeTest checks availability and, when the binding is ready, verifies it
// with one trivial call. Panics from a misbehaving binding are contained and
// reported as not functional.
func (p *Prober) smokeTest(ctx context.Context, surface host.Surface) (avail host.Availability, detail string, functional bool) {
	defer func() {
		if r := recover(); r != nil {
			avail = host.Unavailable
			detail = "probe panicked"
			functional = false
			if p.log != nil {
				p.log.Warnw("Capability probe recovered from panic", "panic", r)
			}
		}
	}()

	opts := host.CreateOptions{}
	avail, err := surface.Availability(ctx, opts)
	if err != nil {
		return host.Unavailable, err.Error(), false
	}
	if avail != host.Available {
		// Smoke-testing a binding in after-download state would trigger a
		// model download as a side effect of probing.
		return avail, "", false
	}

	session, err := invoke.Invoke(ctx, func(ctx context.Context) (host.Session, error) {
		return surface.Create(ctx, opts)
	}, p.timeout)
	if err != nil {
		return avail, err.Error(), false
	}
	defer session.Destroy()

	reply, err := session.Run(ctx, smokeInput)
	if err != nil {
		return avail, err.Error(), false
	}
	if strings.TrimSpace(reply) == "" {
		return avail, "empty smoke-test reply", false
	}
	return avail, "", true
}
