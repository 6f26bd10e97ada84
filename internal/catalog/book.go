package catalog

import (
	"strings"
	"unicode/utf8"
)

// Well-known column names. Any other column is carried through in Book.Extra.
const (
	ColumnTitle       = "title"
	ColumnAuthor      = "author"
	ColumnGenre       = "genre"
	ColumnDescription = "description"
)

// Book is one catalog row. It has no identifier; its position in the
// catalog is its key.
type Book struct {
	Title       string            `json:"title" yaml:"title"`
	Author      string            `json:"author" yaml:"author"`
	Genre       string            `json:"genre" yaml:"genre"`
	Description string            `json:"description" yaml:"description"`
	Extra       map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Snippet returns at most n bytes of the description, cut on a rune
// boundary, with "..." appended when something was dropped.
func (b Book) Snippet(n int) string {
	txt := b.Description
	if n <= 0 || len(txt) <= n {
		return txt
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(txt[cut]) {
		cut--
	}
	return strings.TrimRight(txt[:cut], " ") + "..."
}

// Catalog is an ordered, immutable collection of books.
type Catalog struct {
	columns []string
	books   []Book

	// rows keeps the raw values in column order. A CSV field that is empty
	// or absent from a short record is stored as "".
	rows [][]string
}

// Empty returns a catalog with no columns and no rows.
func Empty() *Catalog {
	return &Catalog{}
}

// New builds a catalog from a header and raw rows. Short rows are padded
// with "" and long rows are truncated to the header.
func New(columns []string, rows [][]string) *Catalog {
	c := &Catalog{columns: make([]string, len(columns))}
	for i, col := range columns {
		c.columns[i] = normalizeColumn(col)
	}
	for _, r := range rows {
		row := make([]string, len(c.columns))
		copy(row, r)
		c.rows = append(c.rows, row)
		c.books = append(c.books, c.bookFromRow(row))
	}
	return c
}

// FromBooks builds a catalog with the title, author, genre and description
// columns.
func FromBooks(books ...Book) *Catalog {
	rows := make([][]string, len(books))
	for i, b := range books {
		rows[i] = []string{b.Title, b.Author, b.Genre, b.Description}
	}
	return New([]string{ColumnTitle, ColumnAuthor, ColumnGenre, ColumnDescription}, rows)
}

// Len returns the number of rows.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.books)
}

// At returns the book at row i.
func (c *Catalog) At(i int) Book {
	return c.books[i]
}

// Books returns a copy of the rows in catalog order.
func (c *Catalog) Books() []Book {
	if c == nil {
		return nil
	}
	out := make([]Book, len(c.books))
	copy(out, c.books)
	return out
}

// Columns returns the header columns, normalised to lower case.
func (c *Catalog) Columns() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.columns))
	copy(out, c.columns)
	return out
}

// HasColumn reports whether the source table had the named column.
func (c *Catalog) HasColumn(name string) bool {
	if c == nil {
		return false
	}
	name = normalizeColumn(name)
	for _, col := range c.columns {
		if col == name {
			return true
		}
	}
	return false
}

func normalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
