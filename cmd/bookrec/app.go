package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/knowledge-engine/bookrec/internal/config"
	"github.com/knowledge-engine/bookrec/internal/display"
	"github.com/knowledge-engine/bookrec/internal/engine"
)

type app struct {
	cfg    *config.Config
	logger *logrus.Entry
	engine *engine.Engine
}

// appFactory builds the app from the root command's flags.
type appFactory func(cmd *cobra.Command) (*app, error)

func newApp(cmd *cobra.Command) (*app, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	var (
		cfg *config.Config
		err error
	)
	if cfgPath != "" {
		cfg, err = config.LoadFile(cfgPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if path, _ := cmd.Flags().GetString("catalog"); path != "" {
		cfg.Catalog.Path = path
		cfg.Catalog.URL = ""
	}
	if url, _ := cmd.Flags().GetString("url"); url != "" {
		cfg.Catalog.URL = url
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	eng, err := engine.NewEngine(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init engine: %w", err)
	}

	return &app{cfg: cfg, logger: logger, engine: eng}, nil
}

func newLogger(cfg config.LogConfig) (*logrus.Entry, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(level)

	return logger.WithField("service", "bookrec"), nil
}

// renderer returns a renderer for the --format flag writing to the
// command's output.
func (a *app) renderer(cmd *cobra.Command) (*display.Renderer, error) {
	name, _ := cmd.Flags().GetString("format")
	format, err := display.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return display.NewRenderer(cmd.OutOrStdout(), format, a.cfg.Recommend.SnippetLength, a.cfg.Recommend.GenreSnippet), nil
}

// limit reads -n, falling back to def, and checks it against MaxResults.
func (a *app) limit(cmd *cobra.Command, def int) (int, error) {
	n, _ := cmd.Flags().GetInt("number")
	if !cmd.Flags().Changed("number") {
		n = def
	}
	if n < 1 || n > a.cfg.Recommend.MaxResults {
		return 0, fmt.Errorf("number must be between 1 and %d", a.cfg.Recommend.MaxResults)
	}
	return n, nil
}
