package main

import (
	"github.com/spf13/cobra"
)

func NewRootCmd(version string, factory appFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bookrec",
		Short:         "Book recommendations from a CSV catalog",
		Long:          `Browse a book catalog by genre, search it, get random picks and find books with similar descriptions.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)

	var cached *app
	get := func(cmd *cobra.Command) (*app, error) {
		if cached != nil {
			return cached, nil
		}
		a, err := factory(cmd)
		if err != nil {
			return nil, err
		}
		cached = a
		return a, nil
	}

	rootCmd.AddCommand(
		NewServeCmd(get),
		NewSearchCmd(get),
		NewGenreCmd(get),
		NewRandomCmd(get),
		NewSimilarCmd(get),
		NewGenresCmd(get),
		NewStatsCmd(get),
		NewShellCmd(get),
	)
	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Config file (default $BOOKREC_CONFIG or ./bookrec.yaml)")
	cmd.PersistentFlags().String("catalog", "", "Catalog CSV file, overrides the config")
	cmd.PersistentFlags().String("url", "", "Download the catalog from this URL")
	cmd.PersistentFlags().String("format", "text", "Output format (text|json|yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level, overrides the config")
}
