// Package chunker handles inputs too large for a single legacy host call by
// splitting them into threshold-sized slices, prompting each slice in order,
// and synthesizing the partial answers with one reduction call.
package chunker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/brieflex/brieflex/errors"
	"github.com/brieflex/brieflex/host"
	"github.com/brieflex/brieflex/invoke"
)

// DefaultThreshold is the input length, in characters, above which the
// chunked path engages. Mirrors the single-call capacity of the legacy
// binding; configurable, not load-bearing.
const DefaultThreshold = 1500

// Executor runs the chunk/reduce flow over a host surface.
type Executor struct {
	threshold int
	timeout   time.Duration
	limiter   *rate.Limiter
	log       *zap.SugaredLogger
}

// New creates an executor. Non-positive threshold selects DefaultThreshold;
// non-positive timeout selects the default invocation timeout. limiter, when
// non-nil, paces slice calls; the reduction call is not paced.
func New(threshold int, timeout time.Duration, limiter *rate.Limiter, log *zap.SugaredLogger) *Executor {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if timeout <= 0 {
		timeout = invoke.DefaultTimeout
	}
	return &Executor{threshold: threshold, timeout: timeout, limiter: limiter, log: log}
}

// Threshold returns the slice size in characters.
func (e *Executor) Threshold() int {
	return e.threshold
}

// Split partitions text into consecutive non-overlapping slices of at most
// threshold characters. The last slice may be shorter. Concatenating the
// slices in order reproduces text exactly.
func Split(text string, threshold int) []string {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	slices := make([]string, 0, (len(runes)+threshold-1)/threshold)
	for start := 0; start < len(runes); start += threshold {
		end := start + threshold
		if end > len(runes) {
			end = len(runes)
		}
		slices = append(slices, string(runes[start:end]))
	}
	return slices
}

// Execute runs the full chunk/reduce flow: one fresh session and one call
// per slice, strictly in slice order, then one reduction session over the
// partial answers joined by blank lines. Any slice or reduction failure
// aborts the whole operation; no partial result is returned. The returned
// text is the reduction output.
func (e *Executor) Execute(ctx context.Context, surface host.Surface, opts host.CreateOptions, input string) (string, error) {
	slices := Split(input, e.threshold)
	if len(slices) == 0 {
		return "", errors.New("empty input")
	}

	if e.log != nil {
		e.log.Debugw("Chunked invocation",
			"slices", len(slices),
			"threshold", e.threshold,
		)
	}

	partials := make([]string, 0, len(slices))
	for i, slice := range slices {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return "", errors.Wrap(err, "chunk pacing aborted")
			}
		}

		partial, err := e.runOnce(ctx, surface, opts, slice)
		if err != nil {
			return "", errors.Wrapf(err, "chunk %d/%d", i+1, len(slices))
		}
		partials = append(partials, partial)
	}

	reduceOpts := opts
	reduceOpts.SystemInstruction = reductionInstruction(opts.OutputLanguage)
	result, err := e.runOnce(ctx, surface, reduceOpts, strings.Join(partials, "\n\n"))
	if err != nil {
		return "", errors.Wrap(err, "reduction")
	}
	return result, nil
}

// runOnce creates one session, issues one call, and releases the session.
// Creation is bounded by the executor timeout.
func (e *Executor) runOnce(ctx context.Context, surface host.Surface, opts host.CreateOptions, input string) (string, error) {
	session, err := invoke.Invoke(ctx, func(ctx context.Context) (host.Session, error) {
		return surface.Create(ctx, opts)
	}, e.timeout)
	if err != nil {
		return "", errors.Wrap(err, "create session")
	}
	defer session.Destroy()

	out, err := session.Run(ctx, input)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", errors.WithStack(errors.ErrEmptyResult)
	}
	return out, nil
}

func reductionInstruction(outputLanguage string) string {
	instruction := "Synthesize the following partial answers into one coherent answer. " +
		"Preserve all citation markers exactly as they appear."
	if outputLanguage != "" {
		instruction = fmt.Sprintf("%s Respond in %s.", instruction, outputLanguage)
	}
	return instruction
}
