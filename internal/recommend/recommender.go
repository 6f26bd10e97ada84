package recommend

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/knowledge-engine/bookrec/internal/catalog"
	"github.com/knowledge-engine/bookrec/internal/metrics"
	"github.com/knowledge-engine/bookrec/internal/search"
)

// Recommender binds a catalog to the index built from it and records
// metrics for every call. The index may be nil when the catalog has no
// descriptions.
type Recommender struct {
	catalog *catalog.Catalog
	index   *search.Index

	// rngMu guards rng; a *rand.Rand is not safe for concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// New returns a recommender over c and idx. rng may be nil, in which case
// the global source is used.
func New(c *catalog.Catalog, idx *search.Index, rng *rand.Rand) *Recommender {
	if c == nil {
		c = catalog.Empty()
	}
	return &Recommender{catalog: c, index: idx, rng: rng}
}

func (r *Recommender) Catalog() *catalog.Catalog { return r.catalog }

func (r *Recommender) Index() *search.Index { return r.index }

func (r *Recommender) ByGenre(genre string, limit int) ([]catalog.Book, Outcome) {
	start := time.Now()
	books, o := ByGenre(r.catalog, genre, limit)
	metrics.RecordRecommendation("genre", o.String(), len(books), time.Since(start))
	return books, o
}

func (r *Recommender) Random(limit int) ([]catalog.Book, Outcome) {
	start := time.Now()
	r.rngMu.Lock()
	books := Random(r.catalog, limit, r.rng)
	r.rngMu.Unlock()
	o := OK
	if r.catalog.Len() == 0 {
		o = NotFound
	}
	metrics.RecordRecommendation("random", o.String(), len(books), time.Since(start))
	return books, o
}

func (r *Recommender) Genres() ([]string, Outcome) {
	start := time.Now()
	genres, o := Genres(r.catalog)
	metrics.RecordRecommendation("genres", o.String(), len(genres), time.Since(start))
	return genres, o
}

func (r *Recommender) Search(query string, limit int) ([]catalog.Book, Outcome) {
	start := time.Now()
	books, o := Search(r.catalog, query, limit)
	metrics.RecordRecommendation("search", o.String(), len(books), time.Since(start))
	return books, o
}

func (r *Recommender) Similar(title string, limit int) ([]Scored, Outcome) {
	start := time.Now()
	res, o := Similar(r.catalog, r.index, title, limit)
	metrics.RecordRecommendation("similar", o.String(), len(res), time.Since(start))
	return res, o
}

func (r *Recommender) SimilarToText(text string, limit int) ([]Scored, Outcome) {
	start := time.Now()
	res, o := SimilarToText(r.catalog, r.index, text, limit)
	metrics.RecordRecommendation("text", o.String(), len(res), time.Since(start))
	return res, o
}
