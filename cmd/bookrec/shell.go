package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/knowledge-engine/bookrec/internal/catalog"
	"github.com/knowledge-engine/bookrec/internal/display"
	"github.com/knowledge-engine/bookrec/internal/session"
)

const shellHelp = `Commands:
  search <query>    search by title or author
  genre <genre>     books in a genre
  similar <title>   books like the given title
  about <text>      books like a free-text description
  random [on|off]   toggle random picks, shown after every command while on
  genres            list genres
  stats             catalog insights
  reload            reload the catalog
  help              this text
  quit              leave the shell
`

func NewShellCmd(get appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session",
		Long:  `Interactive session. The random picks toggle stays on until switched off.`,
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
			sh := &shell{
				app:     a,
				cmd:     cmd,
				render:  r,
				out:     cmd.OutOrStdout(),
				session: session.New(a.cfg.Recommend.MaxResults),
			}
			return sh.run(cmd.InOrStdin())
		},
	}
}

type shell struct {
	app     *app
	cmd     *cobra.Command
	render  *display.Renderer
	out     io.Writer
	session *session.Session
}

func (s *shell) run(in io.Reader) error {
	ctx := s.cmd.Context()
	if n := s.app.engine.Snapshot(ctx).Notice(); n != "" {
		fmt.Fprintln(s.out, n)
	}
	fmt.Fprintln(s.out, `Type "help" for commands.`)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		if name == "quit" || name == "exit" {
			return nil
		}
		if err := s.exec(name, arg); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if s.session.ShowRandom && name != "random" {
			if err := s.random(); err != nil {
				fmt.Fprintf(s.out, "error: %v\n", err)
			}
		}
	}
}

func (s *shell) exec(name, arg string) error {
	ctx := s.cmd.Context()
	snap := s.app.engine.Snapshot(ctx)
	rec := snap.Recommender
	limit := s.app.cfg.Recommend.MaxResults

	switch name {
	case "help":
		fmt.Fprint(s.out, shellHelp)
	case "search":
		s.session.LastQuery = arg
		books, outcome := rec.Search(arg, limit)
		return s.render.SearchResults(books, snap.Outcome(outcome))
	case "genre":
		if arg == "" {
			return fmt.Errorf("usage: genre <genre>")
		}
		s.session.SelectedGenre = arg
		books, outcome := rec.ByGenre(arg, limit)
		return s.render.GenreResults(arg, books, snap.Outcome(outcome))
	case "similar":
		if arg == "" {
			return fmt.Errorf("usage: similar <title>")
		}
		s.session.SelectedTitle = arg
		res, outcome := rec.Similar(arg, s.app.cfg.Recommend.SimilarLimit)
		return s.render.SimilarResults(arg, res, snap.Outcome(outcome))
	case "about":
		res, outcome := rec.SimilarToText(arg, s.app.cfg.Recommend.SimilarLimit)
		return s.render.SimilarResults(arg, res, snap.Outcome(outcome))
	case "random":
		switch arg {
		case "on":
			s.session.ShowRandom = true
		case "off":
			s.session.ShowRandom = false
		case "":
			s.session.ShowRandom = !s.session.ShowRandom
		default:
			return fmt.Errorf("usage: random [on|off]")
		}
		if s.session.ShowRandom {
			return s.random()
		}
		fmt.Fprintln(s.out, "Random picks off.")
	case "genres":
		genres, outcome := rec.Genres()
		return s.render.Genres(genres, snap.Outcome(outcome))
	case "stats":
		return s.render.Insights(catalog.Summarize(rec.Catalog(), s.app.cfg.Recommend.InsightsTop))
	case "reload":
		fresh, err := s.app.engine.Reload(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Loaded %d books.\n", fresh.Catalog.Len())
	default:
		return fmt.Errorf("unknown command %q, try help", name)
	}
	return nil
}

func (s *shell) random() error {
	snap := s.app.engine.Snapshot(s.cmd.Context())
	books, outcome := snap.Recommender.Random(s.session.RandomLimit)
	return s.render.RandomResults(books, snap.Outcome(outcome))
}
