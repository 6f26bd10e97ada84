package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/knowledge-engine/bookrec/internal/api"
	"github.com/knowledge-engine/bookrec/internal/engine"
	"github.com/knowledge-engine/bookrec/internal/session"
)

func NewServeCmd(get appFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  makeServeRunner(get),
	}
	cmd.Flags().String("addr", "", "Listen address, overrides the config")
	cmd.Flags().Bool("watch", false, "Reload the catalog when its file changes")
	return cmd
}

func makeServeRunner(get appFactory) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		a, err := get(cmd)
		if err != nil {
			return err
		}
		defer a.engine.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			a.cfg.Server.Addr = addr
		}
		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			a.cfg.Catalog.Watch = true
		}

		ctx := cmd.Context()
		snap := a.engine.Snapshot(ctx)
		if snap.Err != nil {
			a.logger.WithError(snap.Err).Warn("Serving without a catalog")
		} else {
			a.logger.WithField("books", snap.Catalog.Len()).Info("Catalog loaded")
		}

		if a.cfg.Catalog.Watch {
			go func() {
				err := a.engine.Watch(ctx, a.cfg.Catalog.WatchDebounce)
				if errors.Is(err, engine.ErrNotWatchable) {
					a.logger.Warn("Catalog watch needs a local file, ignoring")
				} else if err != nil {
					a.logger.WithError(err).Error("Catalog watch stopped")
				}
			}()
		}

		server := api.NewServer(a.engine, session.NewStore(), a.logger)
		go server.ExpireSessions(ctx, time.Minute)

		return server.Start(ctx)
	}
}
