package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowledge-engine/bookrec/internal/recommend"
)

const testCatalog = `title,author,genre,description
Dune,Frank Herbert,Science Fiction,A desert planet and a war over spice.
Foundation,Isaac Asimov,Science Fiction,An empire falls and a plan preserves knowledge.
Emma,Jane Austen,Romance,A young woman plays matchmaker in a quiet village.
Hyperion,Dan Simmons,Science Fiction,Pilgrims cross a planet at war to meet the Shrike.
`

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "books.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o644))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("test", newApp)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--catalog", writeCatalog(t), "--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSearchCmd(t *testing.T) {
	out, err := execute(t, "", "search", "asimov")
	require.NoError(t, err)
	assert.Contains(t, out, "Search Results (1 books):")
	assert.Contains(t, out, "Foundation by Isaac Asimov")
	assert.Contains(t, out, "  Genre: Science Fiction")
}

func TestSearchCmd_NoMatch(t *testing.T) {
	out, err := execute(t, "", "search", "tolkien")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_JSON(t *testing.T) {
	out, err := execute(t, "", "--format", "json", "search", "dune")
	require.NoError(t, err)

	var got struct {
		Count   int `json:"count"`
		Results []struct {
			Title string `json:"title"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, "Dune", got.Results[0].Title)
}

func TestGenreCmd(t *testing.T) {
	out, err := execute(t, "", "genre", "-n", "2", "fiction")
	require.NoError(t, err)
	assert.Contains(t, out, "Books in fiction (2 shown):")
	assert.Contains(t, out, "Dune")
	assert.Contains(t, out, "Foundation")
	assert.NotContains(t, out, "Hyperion")
}

func TestGenreCmd_LimitOutOfRange(t *testing.T) {
	_, err := execute(t, "", "genre", "-n", "0", "fiction")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 1 and 10")
}

func TestRandomCmd(t *testing.T) {
	out, err := execute(t, "", "random", "-n", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Random Book Suggestions (3 books):")
}

func TestSimilarCmd(t *testing.T) {
	out, err := execute(t, "", "similar", "dune")
	require.NoError(t, err)
	assert.Contains(t, out, "Similar Books:")
	assert.Contains(t, out, "Hyperion (Dan Simmons)")
	assert.NotContains(t, out, "- Dune ")
}

func TestSimilarCmd_UnknownTitle(t *testing.T) {
	out, err := execute(t, "", "similar", "Ulysses")
	require.NoError(t, err)
	assert.Contains(t, out, "No similar books found.")
}

func TestSimilarCmd_Text(t *testing.T) {
	out, err := execute(t, "", "similar", "--text", "-n", "1", "matchmaker village")
	require.NoError(t, err)
	assert.Contains(t, out, "Emma (Jane Austen)")
}

func TestGenresCmd(t *testing.T) {
	out, err := execute(t, "", "genres")
	require.NoError(t, err)
	assert.Equal(t, "Romance\nScience Fiction\n", out)
}

func TestStatsCmd(t *testing.T) {
	out, err := execute(t, "", "stats", "--top", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Books: 4")
	assert.Contains(t, out, "  - Science Fiction: 3 books")
}

func TestShellCmd(t *testing.T) {
	in := strings.Join([]string{
		"search emma",
		"random on",
		"genres",
		"random off",
		"bogus",
		"quit",
	}, "\n")
	out, err := execute(t, in, "shell")
	require.NoError(t, err)

	assert.Contains(t, out, "Emma by Jane Austen")
	// random stays on for the genres command
	assert.Equal(t, 2, strings.Count(out, "Random Book Suggestions"))
	assert.Contains(t, out, "Random picks off.")
	assert.Contains(t, out, `unknown command "bogus"`)
}

func TestMissingCatalog(t *testing.T) {
	root := NewRootCmd("test", newApp)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--catalog", filepath.Join(t.TempDir(), "none.csv"), "--log-level", "error", "genres"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, recommend.DataUnavailable.Notice()+"\n", out.String())
}

func TestShellCmd_MissingCatalog(t *testing.T) {
	root := NewRootCmd("test", newApp)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader("genres\nsearch dune\nquit\n"))
	root.SetArgs([]string{"--catalog", filepath.Join(t.TempDir(), "none.csv"), "--log-level", "error", "shell"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	// once at startup, then once per command
	assert.Equal(t, 3, strings.Count(out.String(), recommend.DataUnavailable.Notice()))
	assert.NotContains(t, out.String(), recommend.FeatureUnavailable.Notice())
}
