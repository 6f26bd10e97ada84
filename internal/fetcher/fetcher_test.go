package fetcher_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowledge-engine/bookrec/internal/catalog"
	"github.com/knowledge-engine/bookrec/internal/config"
	"github.com/knowledge-engine/bookrec/internal/fetcher"
	"github.com/knowledge-engine/bookrec/internal/storage"
)

const booksCSV = "title,author,genre,description\nDune,Frank Herbert,Sci-Fi,desert\nDune,Frank Herbert,Sci-Fi,desert\nEmma,Jane Austen,Romance,matchmaking\n"

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func testConfig() config.FetchConfig {
	return config.FetchConfig{
		Timeout:           5 * time.Second,
		UserAgent:         "bookrec-test/1.0",
		EnableRobotsCheck: true,
		MaxBytes:          1 << 20,
	}
}

func newServer(t *testing.T, robots string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		if robots == "" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(robots))
	})
	mux.HandleFunc("/books.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(booksCSV))
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestFetcher_Fetch(t *testing.T) {
	ts := newServer(t, "")
	f := fetcher.NewFetcher(testConfig(), testLogger())

	d, err := f.Fetch(context.Background(), ts.URL+"/books.csv")
	require.NoError(t, err)
	assert.Equal(t, ts.URL+"/books.csv", d.URL)
	assert.Equal(t, 200, d.StatusCode)
	assert.Equal(t, booksCSV, string(d.Body))
	assert.False(t, d.FetchedAt.IsZero())
}

func TestFetcher_Fetch_NotFound(t *testing.T) {
	ts := newServer(t, "")
	f := fetcher.NewFetcher(testConfig(), testLogger())

	_, err := f.Fetch(context.Background(), ts.URL+"/missing.csv")
	assert.Error(t, err)
}

func TestFetcher_Fetch_RejectsHTML(t *testing.T) {
	ts := newServer(t, "")
	f := fetcher.NewFetcher(testConfig(), testLogger())

	_, err := f.Fetch(context.Background(), ts.URL+"/page")
	assert.Error(t, err)
}

func TestFetcher_Fetch_TooLarge(t *testing.T) {
	ts := newServer(t, "")
	cfg := testConfig()
	cfg.MaxBytes = 10
	f := fetcher.NewFetcher(cfg, testLogger())

	_, err := f.Fetch(context.Background(), ts.URL+"/books.csv")
	assert.Error(t, err)
}

func TestFetcher_Robots(t *testing.T) {
	ts := newServer(t, "User-agent: *\nDisallow: /books.csv\n")

	f := fetcher.NewFetcher(testConfig(), testLogger())
	_, err := f.Fetch(context.Background(), ts.URL+"/books.csv")
	assert.ErrorIs(t, err, fetcher.ErrDisallowed)

	cfg := testConfig()
	cfg.EnableRobotsCheck = false
	f = fetcher.NewFetcher(cfg, testLogger())
	_, err = f.Fetch(context.Background(), ts.URL+"/books.csv")
	assert.NoError(t, err)
}

func TestFetcher_InvalidURL(t *testing.T) {
	f := fetcher.NewFetcher(testConfig(), testLogger())
	_, err := f.Fetch(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestRemoteSource(t *testing.T) {
	ts := newServer(t, "")
	mirror, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	src := fetcher.NewRemoteSource(ts.URL+"/books.csv", fetcher.NewFetcher(testConfig(), testLogger()), mirror, testLogger())
	assert.Equal(t, ts.URL+"/books.csv", src.Name())

	c, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	saved, err := mirror.Get(ts.URL + "/books.csv")
	require.NoError(t, err)
	assert.Equal(t, booksCSV, string(saved.Body))
}

func TestRemoteSource_MirrorFallback(t *testing.T) {
	ts := newServer(t, "")
	url := ts.URL + "/books.csv"
	mirror, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	src := fetcher.NewRemoteSource(url, fetcher.NewFetcher(testConfig(), testLogger()), mirror, testLogger())
	_, err = src.Load(context.Background())
	require.NoError(t, err)

	ts.Close()

	c, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestRemoteSource_Unavailable(t *testing.T) {
	ts := newServer(t, "")
	url := ts.URL + "/missing.csv"

	src := fetcher.NewRemoteSource(url, fetcher.NewFetcher(testConfig(), testLogger()), nil, testLogger())
	_, err := src.Load(context.Background())
	assert.ErrorIs(t, err, catalog.ErrDataUnavailable)

	mirror, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	src = fetcher.NewRemoteSource(url, fetcher.NewFetcher(testConfig(), testLogger()), mirror, testLogger())
	_, err = src.Load(context.Background())
	assert.ErrorIs(t, err, catalog.ErrDataUnavailable)
}
