package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brieflex/brieflex/corpus"
	"github.com/brieflex/brieflex/logger"
	"github.com/brieflex/brieflex/server"
)

// ServeCmd runs the local notification relay server.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local notification relay server",
	Long: `Start a local websocket server that relays AI download notifications
(ai-download-progress, -complete, -error) to subscribed presentation layers.
When corpus watching is enabled the article library reloads on file changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		if rt.cfg.Corpus.Watch {
			library, err := corpus.Load(rt.cfg.Corpus.Dir, logger.Logger)
			if err != nil {
				logger.Warnw("Corpus unavailable, continuing without it", "error", err)
			} else {
				watcher, err := corpus.NewWatcher(library, logger.Logger)
				if err != nil {
					return err
				}
				watcher.Start()
				defer watcher.Stop()
			}
		}

		srv := server.New(rt.cfg.Server.Addr, rt.bus, logger.Logger)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			logger.Infow("Shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}
