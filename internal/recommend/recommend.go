package recommend

import (
	"math/rand/v2"
	"strings"

	"github.com/knowledge-engine/bookrec/internal/catalog"
	"github.com/knowledge-engine/bookrec/internal/search"
)

// Scored is a book ranked by similarity to another.
type Scored struct {
	Book  catalog.Book `json:"book" yaml:"book"`
	Row   int          `json:"row" yaml:"row"`
	Score float64      `json:"score" yaml:"score"`
}

// ByGenre returns the first limit books, in catalog order, whose genre
// contains query, ignoring case.
func ByGenre(c *catalog.Catalog, query string, limit int) ([]catalog.Book, Outcome) {
	if !c.HasColumn(catalog.ColumnGenre) {
		return nil, FeatureUnavailable
	}
	if limit <= 0 {
		return nil, OK
	}
	q := strings.ToLower(query)
	var out []catalog.Book
	for _, b := range c.Books() {
		if strings.Contains(strings.ToLower(b.Genre), q) {
			out = append(out, b)
			if len(out) == limit {
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, NotFound
	}
	return out, OK
}

// Genres lists the distinct genres of c. A catalog without a genre column
// reports FeatureUnavailable; one with no genre values reports NotFound.
func Genres(c *catalog.Catalog) ([]string, Outcome) {
	if !c.HasColumn(catalog.ColumnGenre) {
		return nil, FeatureUnavailable
	}
	genres := catalog.Genres(c)
	if len(genres) == 0 {
		return nil, NotFound
	}
	return genres, OK
}

// Random returns min(limit, c.Len()) distinct books in random order. A nil
// rng uses the global source.
func Random(c *catalog.Catalog, limit int, rng *rand.Rand) []catalog.Book {
	n := c.Len()
	if n == 0 || limit <= 0 {
		return nil
	}
	if limit > n {
		limit = n
	}
	perm := rand.Perm
	if rng != nil {
		perm = rng.Perm
	}
	out := make([]catalog.Book, limit)
	for i, row := range perm(n)[:limit] {
		out[i] = c.At(row)
	}
	return out
}

// Search returns the first limit books, in catalog order, whose title or
// author contains query, ignoring case. A blank query matches nothing.
func Search(c *catalog.Catalog, query string, limit int) ([]catalog.Book, Outcome) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, EmptyQuery
	}
	if limit <= 0 {
		return nil, OK
	}
	var out []catalog.Book
	for _, b := range c.Books() {
		if strings.Contains(strings.ToLower(b.Title), q) || strings.Contains(strings.ToLower(b.Author), q) {
			out = append(out, b)
			if len(out) == limit {
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, NotFound
	}
	return out, OK
}

// FindTitle returns the row of the first book whose title equals title,
// ignoring case, or -1. A blank title matches nothing.
func FindTitle(c *catalog.Catalog, title string) int {
	if strings.TrimSpace(title) == "" {
		return -1
	}
	for i := 0; i < c.Len(); i++ {
		if strings.EqualFold(c.At(i).Title, title) {
			return i
		}
	}
	return -1
}

// Similar ranks the other books by description similarity to the book
// titled title. Equal scores keep catalog order; the book itself is never
// included.
func Similar(c *catalog.Catalog, idx *search.Index, title string, limit int) ([]Scored, Outcome) {
	if idx == nil || idx.Len() != c.Len() {
		return nil, FeatureUnavailable
	}
	row := FindTitle(c, title)
	if row < 0 {
		return nil, NotFound
	}
	return scored(c, idx.SimilarTo(row, limit)), OK
}

// SimilarToText ranks books by description similarity to free text. Books
// sharing no term with the text are left out.
func SimilarToText(c *catalog.Catalog, idx *search.Index, text string, limit int) ([]Scored, Outcome) {
	if strings.TrimSpace(text) == "" {
		return nil, EmptyQuery
	}
	if idx == nil || idx.Len() != c.Len() {
		return nil, FeatureUnavailable
	}
	if limit <= 0 {
		return nil, OK
	}
	out := scored(c, idx.Search(text, limit))
	if len(out) == 0 {
		return nil, NotFound
	}
	return out, OK
}

func scored(c *catalog.Catalog, hits []search.Hit) []Scored {
	if len(hits) == 0 {
		return nil
	}
	out := make([]Scored, len(hits))
	for i, h := range hits {
		out[i] = Scored{Book: c.At(h.Row), Row: h.Row, Score: h.Score}
	}
	return out
}
