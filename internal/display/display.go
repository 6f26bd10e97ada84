package display

import (
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/knowledge-engine/bookrec/internal/catalog"
	"github.com/knowledge-engine/bookrec/internal/recommend"
)

// Format selects how results are written.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat accepts text, json or yaml, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case Text, JSON, YAML:
		return f, nil
	case "":
		return Text, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json or yaml)", s)
	}
}

// Books is the structured form of a result list.
type Books struct {
	Results []catalog.Book `json:"results" yaml:"results"`
	Count   int            `json:"count" yaml:"count"`
	Notice  string         `json:"notice,omitempty" yaml:"notice,omitempty"`
}

// Similar is the structured form of a ranked list.
type Similar struct {
	Title   string             `json:"title" yaml:"title"`
	Results []recommend.Scored `json:"results" yaml:"results"`
	Count   int                `json:"count" yaml:"count"`
	Notice  string             `json:"notice,omitempty" yaml:"notice,omitempty"`
}

// Renderer writes result lists to Out.
type Renderer struct {
	Out           io.Writer
	Format        Format
	SnippetLength int
	GenreSnippet  int
}

func NewRenderer(out io.Writer, format Format, snippet, genreSnippet int) *Renderer {
	return &Renderer{Out: out, Format: format, SnippetLength: snippet, GenreSnippet: genreSnippet}
}

// Structured writes v as JSON or YAML. It reports false in text mode.
func (r *Renderer) Structured(v any) (bool, error) {
	switch r.Format {
	case JSON:
		enc := json.NewEncoder(r.Out)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case YAML:
		enc := yaml.NewEncoder(r.Out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

func (r *Renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.Out, format, args...)
}

func (r *Renderer) notice(n string) {
	if n != "" {
		r.printf("%s\n", n)
	}
}

func bookList(books []catalog.Book, o recommend.Outcome) Books {
	if books == nil {
		books = []catalog.Book{}
	}
	return Books{Results: books, Count: len(books), Notice: o.Notice()}
}

// SearchResults lists title, author, genre and a description prefix.
func (r *Renderer) SearchResults(books []catalog.Book, o recommend.Outcome) error {
	if ok, err := r.Structured(bookList(books, o)); ok {
		return err
	}
	if len(books) == 0 {
		r.notice(noticeOr(o, "No results found."))
		return nil
	}
	r.printf("Search Results (%d books):\n\n", len(books))
	for _, b := range books {
		r.printf("%s by %s\n", b.Title, b.Author)
		r.printf("  Genre: %s\n", b.Genre)
		r.printf("  Description: %s\n\n", b.Snippet(r.SnippetLength))
	}
	return nil
}

// GenreResults lists title, author and a short description prefix.
func (r *Renderer) GenreResults(genre string, books []catalog.Book, o recommend.Outcome) error {
	if ok, err := r.Structured(bookList(books, o)); ok {
		return err
	}
	if len(books) == 0 {
		r.notice(noticeOr(o, fmt.Sprintf("No books found in %s.", genre)))
		return nil
	}
	r.printf("Books in %s (%d shown):\n\n", genre, len(books))
	for _, b := range books {
		r.printf("%s\n", b.Title)
		r.printf("  Author: %s\n", b.Author)
		r.printf("  %s\n\n", b.Snippet(r.GenreSnippet))
	}
	return nil
}

// RandomResults lists one line per book.
func (r *Renderer) RandomResults(books []catalog.Book, o recommend.Outcome) error {
	if ok, err := r.Structured(bookList(books, o)); ok {
		return err
	}
	if len(books) == 0 {
		r.notice(noticeOr(o, "No books to suggest."))
		return nil
	}
	r.printf("Random Book Suggestions (%d books):\n", len(books))
	for _, b := range books {
		r.printf("  %s by %s (%s)\n", b.Title, b.Author, b.Genre)
	}
	return nil
}

// SimilarResults lists the books most like title.
func (r *Renderer) SimilarResults(title string, res []recommend.Scored, o recommend.Outcome) error {
	if res == nil {
		res = []recommend.Scored{}
	}
	if ok, err := r.Structured(Similar{Title: title, Results: res, Count: len(res), Notice: o.Notice()}); ok {
		return err
	}
	if len(res) == 0 {
		r.notice(noticeOr(o, "No similar books found."))
		return nil
	}
	r.printf("Similar Books:\n")
	for _, s := range res {
		r.printf("  - %s (%s) %.3f\n", s.Book.Title, s.Book.Author, s.Score)
	}
	return nil
}

// Genres lists the distinct genres one per line.
func (r *Renderer) Genres(genres []string, o recommend.Outcome) error {
	if genres == nil {
		genres = []string{}
	}
	out := map[string]any{"genres": genres, "count": len(genres)}
	if n := o.Notice(); n != "" {
		out["notice"] = n
	}
	if ok, err := r.Structured(out); ok {
		return err
	}
	if len(genres) == 0 {
		r.notice(noticeOr(o, "No genres found."))
		return nil
	}
	for _, g := range genres {
		r.printf("%s\n", g)
	}
	return nil
}

// Insights prints the overview figures and the top genre and author lists.
func (r *Renderer) Insights(ins catalog.Insights) error {
	if ok, err := r.Structured(ins); ok {
		return err
	}
	r.printf("Total Books: %d\n", ins.TotalBooks)
	r.printf("Genres:      %d\n", ins.Genres)
	r.printf("Authors:     %d\n\n", ins.Authors)

	r.printf("Top Genres:\n")
	for _, c := range ins.TopGenres {
		r.printf("  - %s: %d books\n", c.Name, c.Books)
	}
	r.printf("\nMost Active Authors:\n")
	for _, c := range ins.TopAuthors {
		r.printf("  - %s: %d books\n", c.Name, c.Books)
	}
	return nil
}

func noticeOr(o recommend.Outcome, fallback string) string {
	if n := o.Notice(); n != "" && o != recommend.NotFound {
		return n
	}
	return fallback
}
