package route

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/brieflex/brieflex/chunker"
	"github.com/brieflex/brieflex/classify"
	"github.com/brieflex/brieflex/errors"
	"github.com/brieflex/brieflex/host"
	"github.com/brieflex/brieflex/host/hosttest"
	"github.com/brieflex/brieflex/notify"
	"github.com/brieflex/brieflex/probe"
	"github.com/brieflex/brieflex/relay"
)

type routerFixture struct {
	router     *Router
	provider   *hosttest.Provider
	bus        *notify.Bus
	activation bool
}

func newFixture(t *testing.T, provider *hosttest.Provider) *routerFixture {
	t.Helper()
	log := zaptest.NewLogger(t).Sugar()
	fx := &routerFixture{provider: provider, bus: notify.NewBus(log)}
	fx.router = New(
		provider,
		probe.New(provider, time.Second, log),
		relay.New(fx.bus, log),
		chunker.New(1500, time.Second, nil, log),
		func() bool { return fx.activation },
		time.Second,
		log,
	)
	return fx
}

func TestAnalyzeGenerationRanking(t *testing.T) {
	t.Run("newer binding serves when available", func(t *testing.T) {
		chat := &hosttest.Surface{NewSession: func(host.CreateOptions) *hosttest.Session {
			return &hosttest.Session{Reply: "from chat"}
		}}
		legacy := &hosttest.Surface{}
		fx := newFixture(t, hosttest.NewProvider().
			Register(host.FamilyPrompt, host.GenerationChat, chat).
			Register(host.FamilyPrompt, host.GenerationLegacy, legacy))

		result := fx.router.Analyze(context.Background(), "analyze this", "short text", Options{})

		require.True(t, result.OK)
		assert.Equal(t, "from chat", result.Text)
		assert.Equal(t, "prompt.chat", result.Source)
		assert.Equal(t, 0, legacy.CreateCalls())
	})

	t.Run("falls back to the older binding", func(t *testing.T) {
		chat := &hosttest.Surface{Avail: host.Unavailable}
		legacy := &hosttest.Surface{NewSession: func(host.CreateOptions) *hosttest.Session {
			return &hosttest.Session{Reply: "from legacy"}
		}}
		fx := newFixture(t, hosttest.NewProvider().
			Register(host.FamilyPrompt, host.GenerationChat, chat).
			Register(host.FamilyPrompt, host.GenerationLegacy, legacy))

		result := fx.router.Analyze(context.Background(), "analyze this", "short text", Options{})

		require.True(t, result.OK)
		assert.Equal(t, "from legacy", result.Text)
		assert.Equal(t, "prompt.legacy", result.Source)
	})

	t.Run("no binding at all", func(t *testing.T) {
		fx := newFixture(t, hosttest.NewProvider())

		result := fx.router.Analyze(context.Background(), "analyze this", "text", Options{})

		require.False(t, result.OK)
		require.NotNil(t, result.Failure)
		assert.Equal(t, classify.KindNotAvailable, result.Failure.Kind)
		assert.False(t, result.Failure.Retryable)
	})
}

func TestAnalyzeForcedEscalation(t *testing.T) {
	newAfterDownloadProvider := func(reply string) (*hosttest.Surface, *hosttest.Provider) {
		legacy := &hosttest.Surface{
			Avail: host.AfterDownload,
			NewSession: func(host.CreateOptions) *hosttest.Session {
				return &hosttest.Session{Reply: reply}
			},
		}
		return legacy, hosttest.NewProvider().Register(host.FamilyPrompt, host.GenerationLegacy, legacy)
	}

	t.Run("after-download without forceReal fails fast", func(t *testing.T) {
		legacy, provider := newAfterDownloadProvider("unused")
		fx := newFixture(t, provider)

		result := fx.router.Analyze(context.Background(), "analyze", "text", Options{})

		require.False(t, result.OK)
		assert.Equal(t, classify.KindNotAvailable, result.Failure.Kind)
		assert.Equal(t, 0, legacy.CreateCalls(), "no creation is attempted without the forced path")
	})

	t.Run("forceReal without live user activation fails fast too", func(t *testing.T) {
		legacy, provider := newAfterDownloadProvider("unused")
		fx := newFixture(t, provider)
		fx.activation = false

		result := fx.router.Analyze(context.Background(), "analyze", "text", Options{ForceReal: true})

		require.False(t, result.OK)
		assert.Equal(t, classify.KindNotAvailable, result.Failure.Kind)
		assert.Equal(t, 0, legacy.CreateCalls())
	})

	t.Run("forced attempt succeeds and is labeled", func(t *testing.T) {
		legacy, provider := newAfterDownloadProvider("forced reply")
		fx := newFixture(t, provider)
		fx.activation = true

		result := fx.router.Analyze(context.Background(), "analyze", "text", Options{ForceReal: true})

		require.True(t, result.OK)
		assert.Equal(t, "forced reply", result.Text)
		assert.Equal(t, "prompt.legacy+forced", result.Source)
		assert.Equal(t, 1, legacy.CreateCalls())

		// The forced creation may trigger a download, so a monitor rides along.
		opts := legacy.CreateOpts()
		require.Len(t, opts, 1)
		assert.NotNil(t, opts[0].Monitor)
	})

	t.Run("forced attempt failure is surfaced distinctly", func(t *testing.T) {
		legacy := &hosttest.Surface{
			Avail:     host.AfterDownload,
			CreateErr: errors.New("download stalled on model fetch"),
		}
		fx := newFixture(t, hosttest.NewProvider().Register(host.FamilyPrompt, host.GenerationLegacy, legacy))
		fx.activation = true

		result := fx.router.Analyze(context.Background(), "analyze", "text", Options{ForceReal: true})

		require.False(t, result.OK)
		assert.True(t, strings.HasPrefix(result.Failure.Message, "forced attempt failed:"))
	})
}

func TestAnalyzeChunkedPath(t *testing.T) {
	legacy := &hosttest.Surface{NewSession: func(host.CreateOptions) *hosttest.Session {
		return &hosttest.Session{Reply: "partial"}
	}}
	fx := newFixture(t, hosttest.NewProvider().Register(host.FamilyPrompt, host.GenerationLegacy, legacy))

	// The probe smoke test consumes one creation before routing starts.
	fx.router.prober.Probe(context.Background())
	baseline := legacy.CreateCalls()

	input := strings.Repeat("a", 5000)
	result := fx.router.Analyze(context.Background(), "analyze", input, Options{OutputLang: "German"})

	require.True(t, result.OK)
	assert.Equal(t, "prompt.legacy+chunked", result.Source)
	assert.Equal(t, 5, legacy.CreateCalls()-baseline, "4 chunk sessions and 1 reduction session")
}

func TestAnalyzeSingleCallBelowThreshold(t *testing.T) {
	legacy := &hosttest.Surface{NewSession: func(host.CreateOptions) *hosttest.Session {
		return &hosttest.Session{Reply: "answer"}
	}}
	fx := newFixture(t, hosttest.NewProvider().Register(host.FamilyPrompt, host.GenerationLegacy, legacy))

	fx.router.prober.Probe(context.Background())
	baseline := legacy.CreateCalls()

	result := fx.router.Analyze(context.Background(), "analyze", strings.Repeat("a", 1500), Options{})

	require.True(t, result.OK)
	assert.Equal(t, "prompt.legacy", result.Source)
	assert.Equal(t, 1, legacy.CreateCalls()-baseline, "exactly one session and one call")
}

func TestSummarize(t *testing.T) {
	summarizer := &hosttest.Surface{NewSession: func(host.CreateOptions) *hosttest.Session {
		return &hosttest.Session{Reply: "a summary"}
	}}
	fx := newFixture(t, hosttest.NewProvider().Register(host.FamilySummarizer, host.GenerationLegacy, summarizer))

	result := fx.router.Summarize(context.Background(), "long legal text", Options{})

	require.True(t, result.OK)
	assert.Equal(t, "a summary", result.Text)
	assert.Equal(t, "summarizer.legacy", result.Source)
}

func TestOutputLanguageIsAppended(t *testing.T) {
	chat := &hosttest.Surface{NewSession: func(host.CreateOptions) *hosttest.Session {
		return &hosttest.Session{Reply: "antwort"}
	}}
	fx := newFixture(t, hosttest.NewProvider().Register(host.FamilyPrompt, host.GenerationChat, chat))

	fx.router.prober.Probe(context.Background())
	baseline := len(chat.CreateOpts())

	result := fx.router.Analyze(context.Background(), "analyze the clause", "text", Options{OutputLang: "German"})
	require.True(t, result.OK)

	opts := chat.CreateOpts()
	require.Greater(t, len(opts), baseline)
	instruction := opts[len(opts)-1].SystemInstruction
	assert.True(t, strings.HasPrefix(instruction, "analyze the clause"))
	assert.True(t, strings.HasSuffix(instruction, "Respond in German."))
	assert.Equal(t, "German", opts[len(opts)-1].OutputLanguage)
}

func TestFailureCounterResetsOnSuccess(t *testing.T) {
	chat := &hosttest.Surface{NewSession: func(host.CreateOptions) *hosttest.Session {
		return &hosttest.Session{Reply: "ok"}
	}}
	provider := hosttest.NewProvider().Register(host.FamilyPrompt, host.GenerationChat, chat)
	fx := newFixture(t, provider)

	// Summarizer has no binding, so these fail.
	fx.router.Summarize(context.Background(), "text", Options{})
	fx.router.Summarize(context.Background(), "text", Options{})
	assert.Equal(t, 2, fx.router.ConsecutiveFailures())

	result := fx.router.Analyze(context.Background(), "analyze", "text", Options{})
	require.True(t, result.OK)
	assert.Equal(t, 0, fx.router.ConsecutiveFailures())
}

func TestResultNeverCarriesRawErrors(t *testing.T) {
	chat := &hosttest.Surface{CreateErr: errors.New("quota exceeded by host")}
	fx := newFixture(t, hosttest.NewProvider().Register(host.FamilyPrompt, host.GenerationChat, chat))

	result := fx.router.Analyze(context.Background(), "analyze", "text", Options{})

	require.False(t, result.OK)
	require.NotNil(t, result.Failure)
	assert.Equal(t, classify.KindRateLimited, result.Failure.Kind)
	assert.True(t, result.Failure.Retryable)
	assert.Equal(t, classify.ActionRetryLater, result.Failure.SuggestedAction)
}
