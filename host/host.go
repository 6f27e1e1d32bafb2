// Package host defines the contract between the invocation core and the
// on-device model host.
//
// The host is an external capability the core does not own: per capability
// family it exposes an availability query and a session factory, across two
// overlapping binding generations (a newer "chat" namespaced form and an
// older "legacy" top-level form). The core only ever sees this contract, so
// the real host can be swapped for a test double implementing the same
// interfaces.
package host

import "context"

// Family identifies a capability family exposed by the host.
type Family string

const (
	// FamilyPrompt is the general prompting/assistant capability.
	FamilyPrompt Family = "prompt"
	// FamilySummarizer is the summarization-shaped capability.
	FamilySummarizer Family = "summarizer"
	// FamilyDetector is the language-detection capability.
	FamilyDetector Family = "detector"
	// FamilyTranslator is the translation capability.
	FamilyTranslator Family = "translator"
)

// Families lists all known capability families.
func Families() []Family {
	return []Family{FamilyPrompt, FamilySummarizer, FamilyDetector, FamilyTranslator}
}

// Generation identifies a host binding generation. Lower values are newer.
type Generation int

const (
	// GenerationChat is the newer namespaced binding.
	GenerationChat Generation = iota
	// GenerationLegacy is the older top-level binding.
	GenerationLegacy
)

// Generations returns all binding generations, newest first. The ranking
// rule is the single place generation preference is encoded.
func Generations() []Generation {
	return []Generation{GenerationChat, GenerationLegacy}
}

// String returns the generation name used in source labels.
func (g Generation) String() string {
	switch g {
	case GenerationChat:
		return "chat"
	case GenerationLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// Availability is the tri-state readiness the host reports for a capability
// before any session is created.
type Availability string

const (
	// Unavailable means the capability cannot be used on this device.
	Unavailable Availability = "unavailable"
	// AfterDownload means the capability works once its model is downloaded.
	AfterDownload Availability = "after-download"
	// Available means the capability is ready for immediate use.
	Available Availability = "available"
)

// DownloadEvent carries raw download progress from the host. Loaded and
// Total are only meaningful when the corresponding Has flag is set; hosts
// differ in which fields they report.
type DownloadEvent struct {
	Loaded    float64
	Total     float64
	HasLoaded bool
	HasTotal  bool
}

// Monitor receives the download lifecycle of a capability whose model is
// being fetched. Implementations must tolerate duplicate terminal events
// from the host.
type Monitor interface {
	// Progress is called for each downloadprogress event.
	Progress(ev DownloadEvent)
	// Complete is called when the download finishes.
	Complete()
	// Error is called when the download fails.
	Error(err error)
}

// CreateOptions parameterizes availability queries and session creation.
type CreateOptions struct {
	// SystemInstruction primes the session. The output-language requirement
	// is appended by the router before the options reach the host.
	SystemInstruction string
	// OutputLanguage the session should answer in.
	OutputLanguage string
	// Monitor, when non-nil, observes the model download lifecycle.
	Monitor Monitor
	// Extra carries host-specific options the core passes through opaquely.
	Extra map[string]interface{}
}

// Session is a single capability session. Run issues one call and returns
// the text result; the exact operation (prompt, summarize, detect,
// translate) is fixed by the surface that created the session.
type Session interface {
	Run(ctx context.Context, input string) (string, error)
	// Destroy releases host-side resources. Safe to call more than once.
	Destroy()
}

// Surface is one capability family under one binding generation.
type Surface interface {
	// Availability reports the tri-state readiness for these options.
	Availability(ctx context.Context, opts CreateOptions) (Availability, error)
	// Create builds a session. May trigger a model download observed
	// through opts.Monitor.
	Create(ctx context.Context, opts CreateOptions) (Session, error)
}

// Provider is the injected capability object: the full host surface keyed by
// family and generation. A missing (family, generation) pair means that
// binding does not exist on this host.
type Provider interface {
	Surface(family Family, generation Generation) (Surface, bool)
}
