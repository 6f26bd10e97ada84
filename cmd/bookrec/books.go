package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func NewSearchCmd(get appFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search books by title or author",
		Args:  cobra.MinimumNArgs(1),
		RunE:  makeSearchRunner(get),
	}
	cmd.Flags().IntP("number", "n", 0, "Maximum results (default from config)")
	return cmd
}

func makeSearchRunner(get appFactory) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := get(cmd)
		if err != nil {
			return err
		}
		limit, err := a.limit(cmd, a.cfg.Recommend.MaxResults)
		if err != nil {
			return err
		}
		r, err := a.renderer(cmd)
		if err != nil {
			return err
		}

		snap := a.engine.Snapshot(cmd.Context())
		books, outcome := snap.Recommender.Search(strings.Join(args, " "), limit)
		return r.SearchResults(books, snap.Outcome(outcome))
	}
}

func NewGenreCmd(get appFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genre <genre>",
		Short: "List books whose genre contains the given text",
		Args:  cobra.MinimumNArgs(1),
		RunE:  makeGenreRunner(get),
	}
	cmd.Flags().IntP("number", "n", 0, "Maximum results (default from config)")
	return cmd
}

func makeGenreRunner(get appFactory) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := get(cmd)
		if err != nil {
			return err
		}
		limit, err := a.limit(cmd, a.cfg.Recommend.MaxResults)
		if err != nil {
			return err
		}
		r, err := a.renderer(cmd)
		if err != nil {
			return err
		}

		genre := strings.Join(args, " ")
		snap := a.engine.Snapshot(cmd.Context())
		books, outcome := snap.Recommender.ByGenre(genre, limit)
		return r.GenreResults(genre, books, snap.Outcome(outcome))
	}
}

func NewRandomCmd(get appFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "random",
		Short: "Suggest random books",
		Args:  cobra.NoArgs,
		RunE:  makeRandomRunner(get),
	}
	cmd.Flags().IntP("number", "n", 0, "Maximum results (default from config)")
	return cmd
}

func makeRandomRunner(get appFactory) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		a, err := get(cmd)
		if err != nil {
			return err
		}
		limit, err := a.limit(cmd, a.cfg.Recommend.MaxResults)
		if err != nil {
			return err
		}
		r, err := a.renderer(cmd)
		if err != nil {
			return err
		}

		snap := a.engine.Snapshot(cmd.Context())
		books, outcome := snap.Recommender.Random(limit)
		return r.RandomResults(books, snap.Outcome(outcome))
	}
}

func NewSimilarCmd(get appFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "similar <title>",
		Short: "Find books with descriptions like the given book",
		Long:  `Find books with descriptions like the given book. With --text the argument is free text instead of a title.`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  makeSimilarRunner(get),
	}
	cmd.Flags().IntP("number", "n", 0, "Maximum results (default from config)")
	cmd.Flags().Bool("text", false, "Treat the argument as free text")
	return cmd
}

func makeSimilarRunner(get appFactory) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := get(cmd)
		if err != nil {
			return err
		}
		limit, err := a.limit(cmd, a.cfg.Recommend.SimilarLimit)
		if err != nil {
			return err
		}
		r, err := a.renderer(cmd)
		if err != nil {
			return err
		}

		query := strings.Join(args, " ")
		snap := a.engine.Snapshot(cmd.Context())
		if asText, _ := cmd.Flags().GetBool("text"); asText {
			res, outcome := snap.Recommender.SimilarToText(query, limit)
			return r.SimilarResults(query, res, snap.Outcome(outcome))
		}
		res, outcome := snap.Recommender.Similar(query, limit)
		return r.SimilarResults(query, res, snap.Outcome(outcome))
	}
}
