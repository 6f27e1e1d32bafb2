// Package hosttest provides scripted host doubles for testing the
// invocation core without a real model host.
package hosttest

import (
	"context"
	"sync"

	"github.com/brieflex/brieflex/host"
)

// Session is a scripted host.Session. By default Run echoes a canned reply;
// set RunFunc to script behavior per call.
type Session struct {
	RunFunc func(ctx context.Context, input string) (string, error)
	Reply   string

	mu           sync.Mutex
	inputs       []string
	destroyCalls int
}

// Run records the input and returns the scripted reply.
func (s *Session) Run(ctx context.Context, input string) (string, error) {
	s.mu.Lock()
	s.inputs = append(s.inputs, input)
	s.mu.Unlock()

	if s.RunFunc != nil {
		return s.RunFunc(ctx, input)
	}
	if s.Reply != "" {
		return s.Reply, nil
	}
	return "ok", nil
}

// Destroy records the release.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyCalls++
}

// Inputs returns a copy of all inputs Run received, in order.
func (s *Session) Inputs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.inputs))
	copy(out, s.inputs)
	return out
}

// DestroyCalls returns how many times Destroy was called.
func (s *Session) DestroyCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyCalls
}

// Surface is a scripted host.Surface.
type Surface struct {
	// Avail is returned by Availability. Defaults to host.Available.
	Avail host.Availability
	// AvailErr, when set, is returned by Availability.
	AvailErr error
	// CreateErr, when set, fails Create.
	CreateErr error
	// NewSession builds the session returned by Create. When nil a plain
	// Session is used.
	NewSession func(opts host.CreateOptions) *Session
	// CreateFunc fully overrides Create when set.
	CreateFunc func(ctx context.Context, opts host.CreateOptions) (host.Session, error)

	mu          sync.Mutex
	createCalls int
	createOpts  []host.CreateOptions
	sessions    []*Session
}

// Availability returns the scripted availability.
func (f *Surface) Availability(ctx context.Context, opts host.CreateOptions) (host.Availability, error) {
	if f.AvailErr != nil {
		return host.Unavailable, f.AvailErr
	}
	if f.Avail == "" {
		return host.Available, nil
	}
	return f.Avail, nil
}

// Create records the call and returns a scripted session.
func (f *Surface) Create(ctx context.Context, opts host.CreateOptions) (host.Session, error) {
	f.mu.Lock()
	f.createCalls++
	f.createOpts = append(f.createOpts, opts)
	f.mu.Unlock()

	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, opts)
	}
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}

	var sess *Session
	if f.NewSession != nil {
		sess = f.NewSession(opts)
	} else {
		sess = &Session{}
	}

	f.mu.Lock()
	f.sessions = append(f.sessions, sess)
	f.mu.Unlock()
	return sess, nil
}

// CreateCalls returns how many times Create was called.
func (f *Surface) CreateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

// CreateOpts returns a copy of the options passed to each Create call.
func (f *Surface) CreateOpts() []host.CreateOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]host.CreateOptions, len(f.createOpts))
	copy(out, f.createOpts)
	return out
}

// Sessions returns the sessions Create handed out, in order.
func (f *Surface) Sessions() []*Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Session, len(f.sessions))
	copy(out, f.sessions)
	return out
}

// Provider is a scripted host.Provider assembled from registered surfaces.
type Provider struct {
	mu       sync.Mutex
	surfaces map[surfaceKey]*Surface
}

type surfaceKey struct {
	family     host.Family
	generation host.Generation
}

// NewProvider creates an empty provider. Unregistered (family, generation)
// pairs report as missing bindings.
func NewProvider() *Provider {
	return &Provider{surfaces: make(map[surfaceKey]*Surface)}
}

// Register installs a surface for a family under a generation.
func (p *Provider) Register(family host.Family, generation host.Generation, surface *Surface) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.surfaces[surfaceKey{family, generation}] = surface
	return p
}

// Surface implements host.Provider.
func (p *Provider) Surface(family host.Family, generation host.Generation) (host.Surface, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	surface, ok := p.surfaces[surfaceKey{family, generation}]
	if !ok {
		return nil, false
	}
	return surface, true
}

// Compile-time interface checks.
var (
	_ host.Provider = (*Provider)(nil)
	_ host.Surface  = (*Surface)(nil)
	_ host.Session  = (*Session)(nil)
)
