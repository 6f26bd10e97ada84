package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/knowledge-engine/bookrec/internal/catalog"
)

func NewGenresCmd(get appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "List the distinct genres in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := get(cmd)
			if err != nil {
				return err
			}
			r, err := a.renderer(cmd)
			if err != nil {
				return err
			}
			snap := a.engine.Snapshot(cmd.Context())
			genres, outcome := snap.Recommender.Genres()
			return r.Genres(genres, snap.Outcome(outcome))
		},
	}
}

func NewStatsCmd(get appFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog insights: totals, top genres and most active authors",
		Args:  cobra.NoArgs,
		RunE:  makeStatsRunner(get),
	}
	cmd.Flags().Int("top", 0, "Entries per top list (default from config)")
	return cmd
}

func makeStatsRunner(get appFactory) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		a, err := get(cmd)
		if err != nil {
			return err
		}
		r, err := a.renderer(cmd)
		if err != nil {
			return err
		}

		top, _ := cmd.Flags().GetInt("top")
		if top <= 0 {
			top = a.cfg.Recommend.InsightsTop
		}

		snap := a.engine.Snapshot(cmd.Context())
		if n := snap.Notice(); n != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), n)
		}
		return r.Insights(catalog.Summarize(snap.Catalog, top))
	}
}
