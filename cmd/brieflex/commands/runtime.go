package commands

import (
	"context"
	"database/sql"
	"time"

	"github.com/pterm/pterm"
	"golang.org/x/time/rate"

	"github.com/brieflex/brieflex/chunker"
	"github.com/brieflex/brieflex/config"
	"github.com/brieflex/brieflex/db"
	"github.com/brieflex/brieflex/errors"
	"github.com/brieflex/brieflex/history"
	"github.com/brieflex/brieflex/host"
	"github.com/brieflex/brieflex/host/ollamahost"
	"github.com/brieflex/brieflex/logger"
	"github.com/brieflex/brieflex/notify"
	"github.com/brieflex/brieflex/probe"
	"github.com/brieflex/brieflex/relay"
	"github.com/brieflex/brieflex/route"
)

// runtime wires the invocation layer for one CLI command: configuration,
// the Ollama-backed capability provider, the notification bus, and the
// router on top.
type runtime struct {
	cfg    *config.Config
	bus    *notify.Bus
	prober *probe.Prober
	router *route.Router
}

// newRuntime assembles the invocation stack from the merged configuration.
// A CLI invocation is itself an explicit user interaction, so the forced
// path's activation predicate is always live here; the --force flag remains
// the caller's opt-in.
func newRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}

	provider, err := ollamahost.New(cfg.Host, logger.Logger)
	if err != nil {
		return nil, err
	}
	return newRuntimeWith(cfg, provider), nil
}

func newRuntimeWith(cfg *config.Config, provider host.Provider) *runtime {
	log := logger.Logger
	bus := notify.NewBus(log)

	var limiter *rate.Limiter
	if cfg.Chunk.CallsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Chunk.CallsPerSecond), 1)
	}

	timeout := cfg.Invoke.Timeout()
	prober := probe.New(provider, timeout, log)
	router := route.New(
		provider,
		prober,
		relay.New(bus, log),
		chunker.New(cfg.Chunk.Threshold, timeout, limiter, log),
		func() bool { return true },
		timeout,
		log,
	)

	return &runtime{
		cfg:    cfg,
		bus:    bus,
		prober: prober,
		router: router,
	}
}

// openHistory opens and migrates the invocation history database.
func (rt *runtime) openHistory() (*sql.DB, *history.Store, error) {
	database, err := db.Open(rt.cfg.History.Path, logger.Logger)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(database, logger.Logger); err != nil {
		database.Close()
		return nil, nil, err
	}
	return database, history.NewStore(database, logger.Logger), nil
}

// recordOutcome best-effort persists a routed result. History failures never
// mask the invocation result.
func (rt *runtime) recordOutcome(operation string, inputChars int, started time.Time, result route.Result) {
	database, store, err := rt.openHistory()
	if err != nil {
		logger.Warnw("Skipping history record", "error", err)
		return
	}
	defer database.Close()

	ctx := context.Background()
	rec := history.FromResult(operation, inputChars, time.Since(started), result)
	if _, err := store.Save(ctx, rec); err != nil {
		logger.Warnw("Failed to record invocation", "error", err)
	}
	if rt.cfg.History.Keep > 0 {
		if _, err := store.Prune(ctx, rt.cfg.History.Keep); err != nil {
			logger.Warnw("Failed to prune history", "error", err)
		}
	}
}

// renderProgress mirrors model-download notifications onto the terminal.
// Returns a stop function to detach from the bus.
func (rt *runtime) renderProgress() func() {
	ch := rt.bus.Subscribe()
	done := make(chan struct{})

	go func() {
		var bar *pterm.ProgressbarPrinter
		for {
			select {
			case ev := <-ch:
				switch ev.Kind {
				case notify.KindProgress:
					if bar == nil {
						bar, _ = pterm.DefaultProgressbar.
							WithTotal(100).
							WithTitle("Downloading model (" + ev.Source + ")").
							Start()
					}
					if bar != nil && ev.Percent >= 0 && ev.Percent > bar.Current {
						bar.Add(ev.Percent - bar.Current)
					}
				case notify.KindComplete:
					if bar != nil {
						bar.Add(bar.Total - bar.Current)
						bar.Stop()
						bar = nil
					}
					pterm.Success.Println("Model ready")
				case notify.KindError:
					if bar != nil {
						bar.Stop()
						bar = nil
					}
					pterm.Error.Println("Model download failed: " + ev.Message)
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		rt.bus.Unsubscribe(ch)
	}
}
