// Package ollamahost implements the host capability surface against a local
// Ollama server. The newer binding generation maps to the /api/chat surface,
// the older one to /api/generate; availability comes from the local model
// list, and a missing model reports after-download when pulling is enabled.
package ollamahost

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/brieflex/brieflex/config"
	"github.com/brieflex/brieflex/errors"
	"github.com/brieflex/brieflex/host"
)

// Provider exposes the four capability families over one Ollama server.
type Provider struct {
	client      *api.Client
	cfg         config.HostConfig
	log         *zap.SugaredLogger
	pullMissing bool
}

// New creates a provider talking to cfg.BaseURL.
func New(cfg config.HostConfig, log *zap.SugaredLogger) (*Provider, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse host base URL %s", cfg.BaseURL)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	return &Provider{
		client:      api.NewClient(base, httpClient),
		cfg:         cfg,
		log:         log,
		pullMissing: cfg.PullMissing,
	}, nil
}

// Surface implements host.Provider. A family without a configured model has
// no binding under either generation.
func (p *Provider) Surface(family host.Family, generation host.Generation) (host.Surface, bool) {
	model := p.modelFor(family)
	if model == "" {
		return nil, false
	}
	return &surface{
		provider:   p,
		family:     family,
		generation: generation,
		model:      model,
	}, true
}

func (p *Provider) modelFor(family host.Family) string {
	switch family {
	case host.FamilyPrompt, host.FamilySummarizer:
		return p.cfg.Model
	case host.FamilyDetector:
		return p.cfg.DetectorModel
	case host.FamilyTranslator:
		return p.cfg.TranslatorModel
	default:
		return ""
	}
}

// hasModel checks the local model list for name, tolerating an implicit
// ":latest" tag on either side.
func (p *Provider) hasModel(ctx context.Context, name string) (bool, error) {
	resp, err := p.client.List(ctx)
	if err != nil {
		return false, errors.Wrap(err, "list local models")
	}
	want := normalizeModel(name)
	for _, m := range resp.Models {
		if normalizeModel(m.Name) == want {
			return true, nil
		}
	}
	return false, nil
}

func normalizeModel(name string) string {
	if !strings.Contains(name, ":") {
		return name + ":latest"
	}
	return name
}

type surface struct {
	provider   *Provider
	family     host.Family
	generation host.Generation
	model      string
}

// Availability implements host.Surface.
func (s *surface) Availability(ctx context.Context, opts host.CreateOptions) (host.Availability, error) {
	present, err := s.provider.hasModel(ctx, s.model)
	if err != nil {
		return host.Unavailable, err
	}
	if present {
		return host.Available, nil
	}
	if s.provider.pullMissing {
		return host.AfterDownload, nil
	}
	return host.Unavailable, nil
}

// Create implements host.Surface. A missing model is pulled first when
// pulling is enabled, with progress delivered through opts.Monitor.
func (s *surface) Create(ctx context.Context, opts host.CreateOptions) (host.Session, error) {
	present, err := s.provider.hasModel(ctx, s.model)
	if err != nil {
		return nil, err
	}
	if !present {
		if !s.provider.pullMissing {
			return nil, errors.NewUnavailableError("model %s is not available on this device", s.model)
		}
		if err := s.pull(ctx, opts.Monitor); err != nil {
			return nil, err
		}
	}

	return &session{surface: s, opts: opts}, nil
}

// pull downloads the model, translating Ollama progress responses into the
// standard download lifecycle.
func (s *surface) pull(ctx context.Context, monitor host.Monitor) error {
	if s.provider.log != nil {
		s.provider.log.Infow("Pulling model", "model", s.model)
	}

	err := s.provider.client.Pull(ctx, &api.PullRequest{Model: s.model}, func(resp api.ProgressResponse) error {
		if monitor != nil && (resp.Total > 0 || resp.Completed > 0) {
			monitor.Progress(host.DownloadEvent{
				Loaded:    float64(resp.Completed),
				Total:     float64(resp.Total),
				HasLoaded: true,
				HasTotal:  resp.Total > 0,
			})
		}
		return nil
	})
	if err != nil {
		wrapped := errors.Wrapf(err, "pull model %s", s.model)
		if monitor != nil {
			monitor.Error(wrapped)
		}
		return wrapped
	}

	if monitor != nil {
		monitor.Complete()
	}
	return nil
}

type session struct {
	surface *surface
	opts    host.CreateOptions

	mu        sync.Mutex
	destroyed bool
}

// Run implements host.Session: one call against the model, routed through
// /api/chat for the newer generation and /api/generate for the older one.
func (s *session) Run(ctx context.Context, input string) (string, error) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return "", errors.New("session already destroyed")
	}
	s.mu.Unlock()

	instruction := s.instruction()
	stream := false

	var reply strings.Builder
	var err error
	switch s.surface.generation {
	case host.GenerationChat:
		var messages []api.Message
		if instruction != "" {
			messages = append(messages, api.Message{Role: "system", Content: instruction})
		}
		messages = append(messages, api.Message{Role: "user", Content: input})

		err = s.surface.provider.client.Chat(ctx, &api.ChatRequest{
			Model:    s.surface.model,
			Messages: messages,
			Stream:   &stream,
		}, func(resp api.ChatResponse) error {
			reply.WriteString(resp.Message.Content)
			return nil
		})

	default:
		err = s.surface.provider.client.Generate(ctx, &api.GenerateRequest{
			Model:  s.surface.model,
			System: instruction,
			Prompt: input,
			Stream: &stream,
		}, func(resp api.GenerateResponse) error {
			reply.WriteString(resp.Response)
			return nil
		})
	}
	if err != nil {
		return "", errors.Wrapf(err, "%s call via %s", s.surface.family, s.surface.generation)
	}
	return reply.String(), nil
}

// instruction derives the session's system instruction from its family. The
// prompt family carries the caller's instruction verbatim; the fixed
// families get their task instruction here.
func (s *session) instruction() string {
	instruction := s.opts.SystemInstruction
	switch s.surface.family {
	case host.FamilySummarizer:
		if instruction == "" {
			instruction = "Summarize the following text concisely. Preserve citation markers."
		}
	case host.FamilyDetector:
		if instruction == "" {
			instruction = "Identify the language of the following text. Answer with the language name only."
		}
	case host.FamilyTranslator:
		if instruction == "" {
			target := s.opts.OutputLanguage
			if target == "" {
				target = "English"
			}
			instruction = "Translate the following text into " + target + "."
		}
	}
	return instruction
}

// Destroy implements host.Session. Ollama holds no per-session server state,
// so this only marks the session unusable. Safe to call more than once.
func (s *session) Destroy() {
	s.mu.Lock()
	s.destroyed = true
	s.mu.Unlock()
}

var _ host.Provider = (*Provider)(nil)
