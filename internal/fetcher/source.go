package fetcher

import (
	"bytes"
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/knowledge-engine/bookrec/internal/catalog"
	"github.com/knowledge-engine/bookrec/internal/metrics"
	"github.com/knowledge-engine/bookrec/internal/storage"
)

// RemoteSource downloads the catalog from a URL. Every good download is
// written to the mirror; when the origin fails the mirrored copy is used.
type RemoteSource struct {
	URL     string
	fetcher *Fetcher
	mirror  storage.Mirror
	logger  *logrus.Entry
}

// NewRemoteSource returns a catalog source for url. mirror may be nil.
func NewRemoteSource(url string, f *Fetcher, mirror storage.Mirror, logger *logrus.Entry) *RemoteSource {
	return &RemoteSource{
		URL:     url,
		fetcher: f,
		mirror:  mirror,
		logger:  logger.WithFields(logrus.Fields{"component": "remote_source", "url": url}),
	}
}

func (s *RemoteSource) Name() string {
	return s.URL
}

// Load fetches, parses and cleans the remote catalog, falling back to the
// mirror. Errors wrap catalog.ErrDataUnavailable.
func (s *RemoteSource) Load(ctx context.Context) (*catalog.Catalog, error) {
	d, fetchErr := s.fetcher.Fetch(ctx, s.URL)
	if fetchErr == nil {
		c, err := catalog.Load(bytes.NewReader(d.Body))
		if err == nil {
			metrics.CatalogFetches.WithLabelValues("success").Inc()
			if s.mirror != nil {
				if err := s.mirror.Save(d); err != nil {
					s.logger.WithError(err).Warn("Failed to mirror catalog")
				}
			}
			return catalog.Clean(c), nil
		}
		fetchErr = err
	}

	metrics.CatalogFetches.WithLabelValues("error").Inc()
	s.logger.WithError(fetchErr).Warn("Remote catalog unavailable")

	if s.mirror == nil {
		return nil, fmt.Errorf("%w: %v", catalog.ErrDataUnavailable, fetchErr)
	}

	d, err := s.mirror.Get(s.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v (mirror: %v)", catalog.ErrDataUnavailable, fetchErr, err)
	}
	c, err := catalog.Load(bytes.NewReader(d.Body))
	if err != nil {
		return nil, fmt.Errorf("mirrored copy: %w", err)
	}

	metrics.CatalogFetches.WithLabelValues("mirror").Inc()
	s.logger.WithField("fetched_at", d.FetchedAt).Info("Using mirrored catalog")
	return catalog.Clean(c), nil
}
