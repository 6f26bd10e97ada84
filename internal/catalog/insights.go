package catalog

import (
	"sort"
)

// Genres returns the distinct non-empty genre values, sorted. It returns nil
// when the catalog has no genre column.
func Genres(c *Catalog) []string {
	if !c.HasColumn(ColumnGenre) {
		return nil
	}

	seen := make(map[string]struct{})
	var genres []string
	for _, b := range c.books {
		if b.Genre == "" {
			continue
		}
		if _, ok := seen[b.Genre]; ok {
			continue
		}
		seen[b.Genre] = struct{}{}
		genres = append(genres, b.Genre)
	}
	sort.Strings(genres)
	return genres
}

// Count is a value with the number of books carrying it.
type Count struct {
	Name  string `json:"name" yaml:"name"`
	Books int    `json:"books" yaml:"books"`
}

// Insights summarises a catalog for the overview panels.
type Insights struct {
	TotalBooks int     `json:"total_books" yaml:"total_books"`
	Genres     int     `json:"genres" yaml:"genres"`
	Authors    int     `json:"authors" yaml:"authors"`
	TopGenres  []Count `json:"top_genres" yaml:"top_genres"`
	TopAuthors []Count `json:"top_authors" yaml:"top_authors"`
}

// Summarize counts books, distinct genres and distinct authors, and lists
// the top most frequent genres and authors. Ties are ordered by name.
func Summarize(c *Catalog, top int) Insights {
	ins := Insights{TotalBooks: c.Len()}
	if c.Len() == 0 {
		return ins
	}

	genres := make(map[string]int)
	authors := make(map[string]int)
	for _, b := range c.books {
		if b.Genre != "" {
			genres[b.Genre]++
		}
		if b.Author != "" {
			authors[b.Author]++
		}
	}

	if c.HasColumn(ColumnGenre) {
		ins.Genres = len(genres)
		ins.TopGenres = topCounts(genres, top)
	}
	if c.HasColumn(ColumnAuthor) {
		ins.Authors = len(authors)
		ins.TopAuthors = topCounts(authors, top)
	}
	return ins
}

func topCounts(m map[string]int, top int) []Count {
	counts := make([]Count, 0, len(m))
	for name, n := range m {
		counts = append(counts, Count{Name: name, Books: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Books != counts[j].Books {
			return counts[i].Books > counts[j].Books
		}
		return counts[i].Name < counts[j].Name
	})
	if top >= 0 && len(counts) > top {
		counts = counts[:top]
	}
	return counts
}
