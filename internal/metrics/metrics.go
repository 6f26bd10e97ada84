package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookrec_recommendations_total",
			Help: "Total number of recommendation calls",
		},
		[]string{"mode", "outcome"}, // mode: genre, random, search, similar, text
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookrec_recommendation_duration_seconds",
			Help:    "Duration of recommendation calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	RecommendationResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookrec_recommendation_results",
			Help:    "Number of books returned per recommendation call",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
		[]string{"mode"},
	)

	CatalogBooks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookrec_catalog_books",
			Help: "Number of books in the loaded catalog",
		},
	)

	VocabularySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookrec_index_vocabulary_terms",
			Help: "Number of terms in the similarity index",
		},
	)

	CatalogReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookrec_catalog_reloads_total",
			Help: "Total number of catalog loads",
		},
		[]string{"result"}, // success, error
	)

	CatalogLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookrec_catalog_load_duration_seconds",
			Help:    "Time to load the catalog and build the index",
			Buckets: prometheus.DefBuckets,
		},
	)

	CatalogFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookrec_catalog_fetches_total",
			Help: "Total number of remote catalog downloads",
		},
		[]string{"result"}, // success, error, mirror
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookrec_sessions_active",
			Help: "Number of live sessions",
		},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookrec_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookrec_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordRecommendation records one recommender call
func RecordRecommendation(mode, outcome string, results int, duration time.Duration) {
	RecommendationsTotal.WithLabelValues(mode, outcome).Inc()
	RecommendationDuration.WithLabelValues(mode).Observe(duration.Seconds())
	RecommendationResults.WithLabelValues(mode).Observe(float64(results))
}

// RecordCatalogLoad records a load attempt and, on success, the catalog size
func RecordCatalogLoad(books, terms int, duration time.Duration, err error) {
	CatalogLoadDuration.Observe(duration.Seconds())
	if err != nil {
		CatalogReloads.WithLabelValues("error").Inc()
		return
	}
	CatalogReloads.WithLabelValues("success").Inc()
	CatalogBooks.Set(float64(books))
	VocabularySize.Set(float64(terms))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
