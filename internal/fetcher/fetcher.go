package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"

	"github.com/knowledge-engine/bookrec/internal/config"
	"github.com/knowledge-engine/bookrec/internal/storage"
)

// ErrDisallowed is returned when robots.txt forbids fetching the URL.
var ErrDisallowed = errors.New("blocked by robots.txt")

// Fetcher downloads catalog files over HTTP.
type Fetcher struct {
	client *http.Client
	config config.FetchConfig
	logger *logrus.Entry

	mu     sync.Mutex
	robots map[string]*robotstxt.RobotsData
}

func NewFetcher(cfg config.FetchConfig, logger *logrus.Entry) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		config: cfg,
		logger: logger.WithField("component", "fetcher"),
		robots: make(map[string]*robotstxt.RobotsData),
	}
}

// Fetch downloads rawURL after checking robots.txt. Bodies larger than the
// configured limit and HTML responses are rejected.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*storage.Download, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q", rawURL)
	}

	if f.config.EnableRobotsCheck {
		allowed, err := f.isAllowed(ctx, u)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrDisallowed, rawURL)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "text/html") {
		return nil, fmt.Errorf("unexpected content type %q", contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(body)) > f.config.MaxBytes {
		return nil, fmt.Errorf("catalog larger than %d bytes", f.config.MaxBytes)
	}

	f.logger.WithFields(logrus.Fields{
		"url":   rawURL,
		"bytes": len(body),
	}).Debug("Downloaded catalog")

	return &storage.Download{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		FetchedAt:   time.Now().UTC(),
		Body:        body,
	}, nil
}

// isAllowed checks robots.txt for the URL's host. A missing or unreachable
// robots.txt allows the request.
func (f *Fetcher) isAllowed(ctx context.Context, u *url.URL) (bool, error) {
	data, err := f.robotsData(ctx, u)
	if err != nil {
		f.logger.WithError(err).WithField("host", u.Host).Warn("Failed to get robots.txt, allowing request")
		return true, nil
	}
	if data == nil {
		return true, nil
	}

	group := data.FindGroup(f.config.UserAgent)
	if group == nil {
		return true, nil
	}
	return group.Test(u.EscapedPath()), nil
}

func (f *Fetcher) robotsData(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	key := u.Scheme + "://" + u.Host

	f.mu.Lock()
	data, ok := f.robots[key]
	f.mu.Unlock()
	if ok {
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create robots.txt request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		data, err = robotstxt.FromResponse(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse robots.txt: %w", err)
		}
	}

	// Cache the result, even nil for 404s.
	f.mu.Lock()
	f.robots[key] = data
	f.mu.Unlock()
	return data, nil
}
