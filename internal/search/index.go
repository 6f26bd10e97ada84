package search

import (
	"errors"
	"sort"

	"github.com/knowledge-engine/bookrec/internal/catalog"
)

// ErrFeatureUnavailable is returned when the catalog has no description
// column to build the index from.
var ErrFeatureUnavailable = errors.New("similarity index unavailable")

// Hit is one row of the index with its similarity to a query.
type Hit struct {
	Row   int
	Score float64
}

// Index holds one tf-idf vector per catalog row, in catalog order.
type Index struct {
	vectorizer *TFIDFVectorizer
	vectors    []SparseVector
}

// NewIndex fits a vectorizer on docs and vectorizes every one of them.
func NewIndex(docs []string) *Index {
	v := NewTFIDFVectorizer()
	v.Fit(docs)

	idx := &Index{
		vectorizer: v,
		vectors:    make([]SparseVector, len(docs)),
	}
	for i, d := range docs {
		idx.vectors[i] = v.Transform(d)
	}
	return idx
}

// BuildIndex indexes the description of every book. It returns
// ErrFeatureUnavailable and a nil index when the catalog has no description
// column.
func BuildIndex(c *catalog.Catalog) (*Index, error) {
	if !c.HasColumn(catalog.ColumnDescription) {
		return nil, ErrFeatureUnavailable
	}
	docs := make([]string, c.Len())
	for i := range docs {
		docs[i] = c.At(i).Description
	}
	return NewIndex(docs), nil
}

// Len returns the number of indexed rows.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.vectors)
}

// Vector returns the vector of row i.
func (idx *Index) Vector(i int) SparseVector {
	return idx.vectors[i]
}

// Vocabulary returns the fitted terms in index order.
func (idx *Index) Vocabulary() []string {
	if idx == nil {
		return nil
	}
	return append([]string(nil), idx.vectorizer.Terms...)
}

// SimilarTo ranks every other row by cosine similarity to row. Rows with
// equal scores keep catalog order. limit <= 0 or an out-of-range row yields
// nil.
func (idx *Index) SimilarTo(row, limit int) []Hit {
	if limit <= 0 || row < 0 || row >= idx.Len() {
		return nil
	}
	target := idx.vectors[row]
	hits := make([]Hit, 0, len(idx.vectors)-1)
	for i, vec := range idx.vectors {
		if i == row {
			continue
		}
		hits = append(hits, Hit{Row: i, Score: CosineSimilarity(target, vec)})
	}
	return rank(hits, limit)
}

// Search ranks rows by similarity to free text. Rows that share no term with
// the text are left out.
func (idx *Index) Search(text string, limit int) []Hit {
	if limit <= 0 || idx.Len() == 0 {
		return nil
	}
	query := idx.vectorizer.Transform(text)
	if query.Len() == 0 {
		return nil
	}
	var hits []Hit
	for i, vec := range idx.vectors {
		if score := CosineSimilarity(query, vec); score > 0 {
			hits = append(hits, Hit{Row: i, Score: score})
		}
	}
	return rank(hits, limit)
}

func rank(hits []Hit, limit int) []Hit {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// CosineSimilarity calculates the cosine similarity between two sparse
// vectors. A zero vector scores 0 against anything.
func CosineSimilarity(a, b SparseVector) float64 {
	normA, normB := a.Norm(), b.Norm()
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i, j := 0, 0; i < len(a.Indices) && j < len(b.Indices); {
		switch {
		case a.Indices[i] == b.Indices[j]:
			dot += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	return dot / (normA * normB)
}
