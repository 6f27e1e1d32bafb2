// Package route is the entry point of the invocation layer: it picks the
// best available host binding generation for a request, falls back to the
// older generation when the newer one cannot serve, escalates past a
// not-ready signal only when explicitly permitted, and returns a typed
// Result. No error ever crosses the Analyze/Summarize boundary; every
// failure comes back classified inside the Result.
package route

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brieflex/brieflex/chunker"
	"github.com/brieflex/brieflex/classify"
	"github.com/brieflex/brieflex/errors"
	"github.com/brieflex/brieflex/host"
	"github.com/brieflex/brieflex/invoke"
	"github.com/brieflex/brieflex/probe"
	"github.com/brieflex/brieflex/relay"
)

// Options parameterizes one routed request.
type Options struct {
	// OutputLang, when set, is appended to the instruction so the model is
	// told explicitly which language to answer in.
	OutputLang string
	// ForceReal permits a creation attempt against a binding that reports
	// itself below "available". Only honored while user activation is live.
	ForceReal bool
	// Extra carries host-specific options passed through opaquely.
	Extra map[string]interface{}
}

// Result is the discriminated outcome of a routed request. Exactly one of
// the success fields or Failure is meaningful, selected by OK.
type Result struct {
	OK        bool              `json:"ok"`
	Text      string            `json:"text,omitempty"`
	Source    string            `json:"source,omitempty"`
	Failure   *classify.Failure `json:"failure,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// ActivationFunc reports whether a user interaction is currently live.
// The forced-attempt escalation is gated on it.
type ActivationFunc func() bool

// Router routes analyze/summarize requests across host binding generations.
type Router struct {
	provider   host.Provider
	prober     *probe.Prober
	relay      *relay.Relay
	chunks     *chunker.Executor
	activation ActivationFunc
	timeout    time.Duration
	log        *zap.SugaredLogger

	mu       sync.Mutex
	failures int
}

// New creates a router. activation may be nil, which disables the forced
// path entirely. Non-positive timeout selects the default invocation
// timeout.
func New(provider host.Provider, prober *probe.Prober, progressRelay *relay.Relay, chunks *chunker.Executor, activation ActivationFunc, timeout time.Duration, log *zap.SugaredLogger) *Router {
	if timeout <= 0 {
		timeout = invoke.DefaultTimeout
	}
	return &Router{
		provider:   provider,
		prober:     prober,
		relay:      progressRelay,
		chunks:     chunks,
		activation: activation,
		timeout:    timeout,
		log:        log,
	}
}

// ConsecutiveFailures returns the number of failed requests since the last
// success. Callers use it to drive retry UI.
func (r *Router) ConsecutiveFailures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failures
}

// Analyze routes a general prompting request: the system prompt primes the
// session and userText is the payload. Oversized payloads on the legacy
// binding take the chunked path.
func (r *Router) Analyze(ctx context.Context, systemPrompt, userText string, opts Options) Result {
	return r.run(ctx, request{
		operation:   "analyze",
		family:      host.FamilyPrompt,
		instruction: systemPrompt,
		payload:     userText,
		opts:        opts,
	})
}

// Summarize routes a summarization request over the summarizer family.
func (r *Router) Summarize(ctx context.Context, text string, opts Options) Result {
	return r.run(ctx, request{
		operation: "summarize",
		family:    host.FamilySummarizer,
		payload:   text,
		opts:      opts,
	})
}

type request struct {
	operation   string
	family      host.Family
	instruction string
	payload     string
	opts        Options
}

// run drives the per-invocation state machine:
// probe → select generation → call (chunked if needed) → done or failed.
func (r *Router) run(ctx context.Context, req request) Result {
	requestID := uuid.New().String()
	log := r.log
	if log != nil {
		log = log.With("request_id", requestID, "operation", req.operation)
	}

	report := r.prober.Probe(ctx)
	status := report.Status(req.family)
	if !status.Exists {
		return r.failed(log, classify.Classify(
			errors.NewUnavailableError("no %s capability on this device", req.family),
			req.operation,
		))
	}

	sel, failure := r.selectGeneration(ctx, req, log)
	if failure != nil {
		return r.failed(log, *failure)
	}

	text, err := r.call(ctx, req, &sel, log)
	if err != nil {
		f := classify.Classify(err, req.operation)
		if sel.forced {
			f.Message = fmt.Sprintf("forced attempt failed: %s", f.Message)
		}
		return r.failed(log, f)
	}

	r.mu.Lock()
	r.failures = 0
	r.mu.Unlock()

	if log != nil {
		log.Infow("Request served", "source", sel.label)
	}
	return Result{
		OK:        true,
		Text:      text,
		Source:    sel.label,
		Timestamp: time.Now(),
	}
}

type selection struct {
	surface host.Surface
	gen     host.Generation
	label   string
	forced  bool
	monitor bool
}

// selectGeneration applies the ranking rule: the newest binding serves when
// it reports available; otherwise the older binding is the fallback. A
// legacy binding below "available" fails fast unless the caller forces an
// attempt while user activation is live.
func (r *Router) selectGeneration(ctx context.Context, req request, log *zap.SugaredLogger) (selection, *classify.Failure) {
	createOpts := r.createOptions(req, nil)

	if surface, ok := r.provider.Surface(req.family, host.GenerationChat); ok {
		avail, err := surface.Availability(ctx, createOpts)
		if err == nil && avail == host.Available {
			return selection{
				surface: surface,
				gen:     host.GenerationChat,
				label:   label(req.family, host.GenerationChat),
			}, nil
		}
		if log != nil {
			log.Debugw("Newer binding cannot serve, falling back",
				"availability", avail,
				"error", err,
			)
		}
	}

	surface, ok := r.provider.Surface(req.family, host.GenerationLegacy)
	if !ok {
		f := classify.Classify(
			errors.NewUnavailableError("%s capability not available on this device", req.family),
			req.operation,
		)
		return selection{}, &f
	}

	avail, err := surface.Availability(ctx, createOpts)
	if err != nil {
		f := classify.Classify(errors.Wrap(err, "availability check"), req.operation)
		return selection{}, &f
	}
	if avail == host.Available {
		return selection{
			surface: surface,
			gen:     host.GenerationLegacy,
			label:   label(req.family, host.GenerationLegacy),
		}, nil
	}

	// Below "available": either a permitted forced attempt or a fail-fast
	// without any creation call.
	if req.opts.ForceReal && r.activation != nil && r.activation() {
		if log != nil {
			log.Infow("Forcing attempt against not-ready binding", "availability", avail)
		}
		return selection{
			surface: surface,
			gen:     host.GenerationLegacy,
			label:   label(req.family, host.GenerationLegacy) + "+forced",
			forced:  true,
			monitor: avail == host.AfterDownload,
		}, nil
	}

	f := classify.Classify(
		errors.NewUnavailableError("%s capability not available on this device (status %s)", req.family, avail),
		req.operation,
	)
	return selection{}, &f
}

// call issues the selected request. Oversized payloads on the legacy prompt
// binding take the chunk/reduce path; everything else is one session and
// one call, with session creation bounded by the invocation timeout.
func (r *Router) call(ctx context.Context, req request, sel *selection, log *zap.SugaredLogger) (string, error) {
	var monitor host.Monitor
	if sel.monitor && r.relay != nil {
		monitor = r.relay.MonitorFor(sel.label)
	}
	createOpts := r.createOptions(req, monitor)

	if req.family == host.FamilyPrompt &&
		sel.gen == host.GenerationLegacy &&
		r.chunks != nil &&
		len([]rune(req.payload)) > r.chunks.Threshold() {
		sel.label += "+chunked"
		if log != nil {
			log.Debugw("Payload exceeds single-call threshold, chunking",
				"length", len([]rune(req.payload)),
				"threshold", r.chunks.Threshold(),
			)
		}
		return r.chunks.Execute(ctx, sel.surface, createOpts, req.payload)
	}

	session, err := invoke.Invoke(ctx, func(ctx context.Context) (host.Session, error) {
		return sel.surface.Create(ctx, createOpts)
	}, r.timeout)
	if err != nil {
		return "", errors.Wrap(err, "create session")
	}
	defer session.Destroy()

	out, err := session.Run(ctx, req.payload)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", errors.WithStack(errors.ErrEmptyResult)
	}
	return out, nil
}

func (r *Router) createOptions(req request, monitor host.Monitor) host.CreateOptions {
	return host.CreateOptions{
		SystemInstruction: withLanguage(req.instruction, req.opts.OutputLang),
		OutputLanguage:    req.opts.OutputLang,
		Monitor:           monitor,
		Extra:             req.opts.Extra,
	}
}

func (r *Router) failed(log *zap.SugaredLogger, f classify.Failure) Result {
	r.mu.Lock()
	r.failures++
	r.mu.Unlock()

	if log != nil {
		log.Warnw("Request failed",
			"kind", f.Kind,
			"retryable", f.Retryable,
			"message", f.Message,
		)
	}
	return Result{
		Failure:   &f,
		Timestamp: f.Timestamp,
	}
}

// withLanguage appends the output-language requirement to the instruction
// text so the model is told explicitly which language to answer in.
func withLanguage(instruction, lang string) string {
	if lang == "" {
		return instruction
	}
	if instruction == "" {
		return fmt.Sprintf("Respond in %s.", lang)
	}
	return fmt.Sprintf("%s\n\nRespond in %s.", instruction, lang)
}

func label(family host.Family, gen host.Generation) string {
	return fmt.Sprintf("%s.%s", family, gen)
}
